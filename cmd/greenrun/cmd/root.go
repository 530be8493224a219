package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GREENRUN"

// NewRootCommand builds the greenrun command tree. Every call returns fresh
// commands bound to their own viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "greenrun",
		Short: "greenrun runs cooperative green-thread workloads",
		Long: `greenrun drives workloads on a single-threaded cooperative runtime.

Tasks live in a fixed pool of slots and take turns in round-robin order.
A task runs until it yields or returns; nothing preempts it.

Common workflows:

  Run the two classic counting tasks:
    greenrun demo

  Run four tasks on a larger pool with JSON logs:
    greenrun demo --capacity 16 --tasks 3,5,8,13 --log-format json

  Expose Prometheus metrics while the demo runs:
    greenrun demo --metrics-addr :9090 --metrics-hold 30s

Configuration:
  Every flag can also be set through the environment or a YAML file:
    GREENRUN_CAPACITY     Number of slots including the main slot (default: 10)
    GREENRUN_STACK_SIZE   Bytes reserved per task stack
    GREENRUN_TASKS        Comma separated iteration counts
    GREENRUN_LOG_LEVEL    debug, info, warn or error`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v, cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.greenrun.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(newDemoCommand(v))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".greenrun"
			v.AddConfigPath(home)
			v.SetConfigName(".greenrun")
			v.SetConfigType("yaml")
		}
	}

	// Read environment variables that match "GREENRUN_VARNAME"
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicit config file must exist; the home one is optional.
		if cfgFile != "" {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}
	cmd.PrintErrln("Using config file:", v.ConfigFileUsed())
	return nil
}
