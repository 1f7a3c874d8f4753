package category

import (
	"github.com/ValentinKolb/dInfer/cmd/util"
	"github.com/ValentinKolb/dInfer/lib/bayes"
	"github.com/spf13/cobra"
)

var (
	categories *bayes.Categories

	// CategoryCommands represents the category command group
	CategoryCommands = &cobra.Command{
		Use:               "category",
		Short:             "Manage the categories of a classifier",
		PersistentPreRunE: setupCategories,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC and classifier flags to the category command
	util.SetupRPCClientFlags(CategoryCommands)
	util.SetupClassifierFlags(CategoryCommands)

	// Add subcommands
	CategoryCommands.AddCommand(addCmd)
	CategoryCommands.AddCommand(removeCmd)
	CategoryCommands.AddCommand(listCmd)
	CategoryCommands.AddCommand(showCmd)
	CategoryCommands.AddCommand(saveCmd)
	CategoryCommands.AddCommand(infoCmd)

	// Add flags specific to show
	showCmd.Flags().Int64("rank", 0, util.WrapString("Only show the N words with the highest scores (0 = all)"))
	showCmd.Flags().Int64("score", 0, util.WrapString("Only show words with at least this score (0 = all)"))
}

// setupCategories connects to the server and opens the categories
func setupCategories(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	categories, err = util.GetCategories()
	return err
}
