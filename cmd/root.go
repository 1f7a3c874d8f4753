package cmd

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/dInfer/cmd/category"
	"github.com/ValentinKolb/dInfer/cmd/classifier"
	"github.com/ValentinKolb/dInfer/cmd/serve"
	"github.com/ValentinKolb/dInfer/cmd/util"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dinfer",
		Short: "bayes text classifier on a distributed counter store",
		Long: fmt.Sprintf(`dInfer (v%s)

A multinomial and complementary bayes text classifier written in Go.
The training data lives in a counter store that can run in process,
on a single server or replicated with RAFT consensus.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dInfer",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dInfer v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd, category.CategoryCommands, classifier.ClassifierCommands, versionCmd)

	RootCmd.PersistentFlags().String("serializer", "binary", util.WrapString("Wire format of the remote store (json, gob, binary)"))
	RootCmd.PersistentFlags().String("transport", "http", util.WrapString("Transport to the remote store (http, tcp, unix)"))
}

// Execute runs the command tree, SIGINT and SIGTERM cancel the context of the running command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
