package classifier

import (
	"bufio"
	"fmt"
	"github.com/spf13/cobra"
	"io"
	"os"
	"sort"
)

var (
	trainCmd = &cobra.Command{
		Use:   "train [category] [word...]",
		Short: "Trains a category with words",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := categories.Get(args[0])
			if err != nil {
				return err
			}
			words, err := readWords(args[1:], os.Stdin)
			if err != nil {
				return err
			}
			if err := category.Train(words); err != nil {
				return err
			}
			fmt.Printf("trained %s with %d words\n", category.Name(), len(words))
			return nil
		},
	}
	untrainCmd = &cobra.Command{
		Use:   "untrain [category] [word...]",
		Short: "Reverts the training of a category with words",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := categories.Get(args[0])
			if err != nil {
				return err
			}
			words, err := readWords(args[1:], os.Stdin)
			if err != nil {
				return err
			}
			if err := category.Untrain(words); err != nil {
				return err
			}
			fmt.Printf("untrained %s with %d words\n", category.Name(), len(words))
			return nil
		},
	}
	classifyCmd = &cobra.Command{
		Use:   "classify [word...]",
		Short: "Prints the category that fits the words best",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(args, os.Stdin)
			if err != nil {
				return err
			}
			name, ok, err := classifier.Classify(words)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no categories to classify with")
			}
			fmt.Println(name)
			return nil
		},
	}
	scoresCmd = &cobra.Command{
		Use:   "scores [word...]",
		Short: "Prints the log likelihood of the words for every category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWords(args, os.Stdin)
			if err != nil {
				return err
			}
			scores, err := classifier.Classifications(words)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(scores))
			for name := range scores {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Printf("%-20s%.4f\n", name, scores[name])
			}
			return nil
		},
	}
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// readWords returns args, or the whitespace separated words of r if args is just "-"
func readWords(args []string, r io.Reader) ([]string, error) {
	if len(args) != 1 || args[0] != "-" {
		return args, nil
	}

	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read words: %w", err)
	}
	return words, nil
}
