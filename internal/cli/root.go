// Package cli implements the planning-extractor commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/agardiner/epm-utils/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "planning-extractor",
	Short: "Extract metadata from Hyperion Planning applications",
	Long: `planning-extractor reads the relational repository of a Planning
application and writes dimension, form, task list, smart list, menu,
user variable and security extracts as CSV files or Excel workbooks.
It can also generate Shared Services LCM migration definitions for the
extracted forms, task lists and business rules.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Cancelling ctx stops a running extract between queries.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+" or $HOME/"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// loadConfig loads the configuration named by --config, or searches the
// working and home directories for it.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.NewLoader(wd, viper.GetString("config")).Load()
	if err != nil {
		return nil, err
	}
	if viper.GetBool("verbose") {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
