package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stepper",
	Short: "Stepper plays programming constructs one step at a time",
	Long: `Stepper turns small programming constructs (conditionals, loops, the event loop,
async timelines, equality rules, classes) into ordered execution traces and plays
them back like a video: play, pause, step, jump and change speed.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("store", "", "Session store backend: memory, file or redis")
	rootCmd.PersistentFlags().String("store-path", "", "Directory of the file store")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for the redis store")
}

// loadConfig resolves the configuration: file, then STEPPER_* environment, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("store") {
		cfg.Store.Backend, _ = flags.GetString("store")
	}
	if flags.Changed("store-path") {
		cfg.Store.Path, _ = flags.GetString("store-path")
	}
	if flags.Changed("redis-addr") {
		cfg.Store.Redis.Addr, _ = flags.GetString("redis-addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func streams(cmd *cobra.Command) cli.Streams {
	return cli.Streams{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	}
}
