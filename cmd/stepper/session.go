package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/pkg/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent playback sessions",
	Long: `Create, list, inspect, resume and remove sessions kept in the session store.
The memory backend does not outlive the process, so these commands use the file
store at store.path unless file or redis is configured.`,
}

var sessionNewCmd = &cobra.Command{
	Use:   "new [kind]",
	Short: "Create a paused session for a scenario",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := sessionConfig(cmd)
		if err != nil {
			return err
		}
		spec, err := scenarioFromFlags(cmd, args)
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("id")
		hide, _ := cmd.Flags().GetStringSlice("hide")
		debug, _ := cmd.Flags().GetBool("debug")

		hub, closeHub, err := openHub(cmd.Context(), cfg, cli.NewLogger(cfg.Log, debug, false))
		if err != nil {
			return err
		}
		defer closeHub()

		sess, err := hub.Create(cmd.Context(), spec, session.CreateOptions{
			ID:     id,
			Speed:  cfg.Playback.Speed,
			Hidden: hide,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created session '%s' (%s, %d steps)\n", sess.ID, sess.Scenario.Kind, sess.Playback.Total)
		return nil
	},
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(p *cli.Persistence) error {
			return cli.ListSessions(cmd.Context(), p.Store, cmd.OutOrStdout())
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(p *cli.Persistence) error {
			return cli.InspectSession(cmd.Context(), p.Store, args[0], cmd.OutOrStdout())
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(p *cli.Persistence) error {
			return cli.RemoveSessions(cmd.Context(), p.Store, args, cmd.OutOrStdout())
		})
	},
}

var sessionPlayCmd = &cobra.Command{
	Use:   "play <session-id>",
	Short: "Resume a session where it was left",
	Long:  `Plays a stored session from its saved position and speed, then saves the final position back.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := sessionConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logger := cli.NewLogger(cfg.Log, debug, true)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		p, err := cli.OpenPersistence(sc, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		// Resume restores the stored speed.
		pb := cfg.Playback
		pb.Speed = 0
		opts := playOptionsFromFlags(cmd, pb)
		opts.Log = cfg.Log
		return cli.ResumeSession(sc, p.Manager(logger), args[0], opts, streams(cmd))
	},
}

// sessionConfig loads the config and swaps the memory backend for the file store.
func sessionConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend == config.BackendMemory {
		cfg.Store.Backend = config.BackendFile
		if cfg.Store.Path == "" {
			cfg.Store.Path = config.DefaultStorePath
		}
	}
	return cfg, nil
}

func withStore(cmd *cobra.Command, fn func(p *cli.Persistence) error) error {
	cfg, err := sessionConfig(cmd)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	p, err := cli.OpenPersistence(cmd.Context(), cfg.Store, cli.NewLogger(cfg.Log, debug, false))
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(p)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionNewCmd, sessionLsCmd, sessionInspectCmd, sessionRmCmd, sessionPlayCmd)

	addScenarioFlags(sessionNewCmd)
	sessionNewCmd.Flags().String("id", "", "Session ID (generated when empty)")

	addPlayFlags(sessionPlayCmd)
	sessionPlayCmd.Flags().StringSlice("hide", nil, "Hide panels (defaults to the session's own)")
}
