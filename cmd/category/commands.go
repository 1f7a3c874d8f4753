package category

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/bayes"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [name...]",
		Short: "Adds empty categories (existing categories are kept)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := categories.Add(args...); err != nil {
				return err
			}
			fmt.Printf("added %d categories\n", len(args))
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [name...]",
		Short: "Removes categories together with their training data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := categories.Remove(args...); err != nil {
				return err
			}
			fmt.Printf("removed %d categories\n", len(args))
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists all categories and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 0
			err := categories.Each(func(category *bayes.Category) error {
				fmt.Printf("%-20s%d\n", category.Name(), category.Size())
				count++
				return nil
			})
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Println("no categories")
			}
			return nil
		},
	}
	showCmd = &cobra.Command{
		Use:   "show [name]",
		Short: "Shows the words of a category ordered by score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := categories.Get(args[0])
			if err != nil {
				return err
			}

			var opts []bayes.AllOption
			if rank, _ := cmd.Flags().GetInt64("rank"); rank > 0 {
				opts = append(opts, bayes.WithRank(rank))
			}
			if score, _ := cmd.Flags().GetInt64("score"); score > 0 {
				opts = append(opts, bayes.WithScore(score))
			}

			pairs, err := category.Top(opts...)
			if err != nil {
				return err
			}

			fmt.Printf("category=%s, size=%d, words=%d\n", category.Name(), category.Size(), len(pairs))
			for _, p := range pairs {
				fmt.Printf("%-20s%d\n", p.Member, p.Score)
			}
			return nil
		},
	}
	saveCmd = &cobra.Command{
		Use:   "save",
		Short: "Creates a persistence point of the store (for --manual-save)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := categories.Save(); err != nil {
				return err
			}
			fmt.Println("saved successfully")
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := categories.Info()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
)
