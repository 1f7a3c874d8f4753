package classifier

import (
	"github.com/ValentinKolb/dInfer/cmd/util"
	"github.com/ValentinKolb/dInfer/lib/bayes"
	"github.com/spf13/cobra"
)

var (
	categories *bayes.Categories
	classifier *bayes.Classifier

	// ClassifierCommands represents the classifier command group
	ClassifierCommands = &cobra.Command{
		Use:               "classifier",
		Short:             "Train the classifier and classify words",
		Long:              "Train the classifier and classify words. Commands taking words read them from stdin (split at whitespace) if the only word is '-'.",
		PersistentPreRunE: setupClassifier,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC and classifier flags to the classifier command
	util.SetupRPCClientFlags(ClassifierCommands)
	util.SetupClassifierFlags(ClassifierCommands)

	key := "only"
	ClassifierCommands.PersistentFlags().StringSlice(key, nil, util.WrapString("Only consider these categories (comma separated)"))
	key = "except"
	ClassifierCommands.PersistentFlags().StringSlice(key, nil, util.WrapString("Ignore these categories (comma separated)"))

	// Add subcommands
	ClassifierCommands.AddCommand(trainCmd)
	ClassifierCommands.AddCommand(untrainCmd)
	ClassifierCommands.AddCommand(classifyCmd)
	ClassifierCommands.AddCommand(scoresCmd)
	ClassifierCommands.AddCommand(perfTestCmd)
}

// setupClassifier connects to the server and creates the classifier on the selected categories
func setupClassifier(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	categories, err = util.GetCategories()
	if err != nil {
		return err
	}

	if only, _ := cmd.Flags().GetStringSlice("only"); len(only) > 0 {
		categories = categories.Filter(only...)
	}
	if except, _ := cmd.Flags().GetStringSlice("except"); len(except) > 0 {
		categories = categories.Except(except...)
	}

	classifier, err = util.GetClassifier(categories)
	return err
}
