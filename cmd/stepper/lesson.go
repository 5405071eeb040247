package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/internal/validator"
	catalog "github.com/aretw0/stepper/pkg/adapters/loam"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/runner"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Browse and play lessons",
	Long: `Lessons are Markdown files with a scenario in their frontmatter, read from the
lessons directory (server.lessons_dir, default ./lessons).`,
}

var lessonLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the available lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		lessons, err := cat.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list lessons: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(lessons) == 0 {
			fmt.Fprintln(w, "No lessons found.")
			return nil
		}
		for _, l := range lessons {
			fmt.Fprintf(w, "- %-24s %-15s %s\n", l.ID, l.Scenario.Kind, l.Title)
		}
		return nil
	},
}

var lessonShowCmd = &cobra.Command{
	Use:   "show <lesson-id>",
	Short: "Print a lesson's notes and full trace",
	Long:  `Prints the lesson and its trace. With --watch the lesson is printed again each time its file changes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, cfg, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		watch, _ := cmd.Flags().GetBool("watch")
		format, _ := cmd.Flags().GetString("format")
		hide, _ := cmd.Flags().GetStringSlice("hide")
		debug, _ := cmd.Flags().GetBool("debug")

		logger := cli.NewLogger(cfg.Log, debug, false)
		eng := stepper.New(stepper.WithLogger(logger))
		w := cmd.OutOrStdout()
		show := func(lesson domain.Lesson) error {
			return cli.ShowLesson(lesson, func(spec domain.ScenarioSpec) error {
				return cli.Trace(eng, spec, hide, runner.ParseFormat(format), false, w)
			}, w)
		}

		if !watch {
			lesson, err := cat.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return show(lesson)
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		err = cli.WatchLesson(sc, cat, args[0], show, w, logger)
		if sc.Err() != nil {
			return nil
		}
		return err
	},
}

var lessonPlayCmd = &cobra.Command{
	Use:   "play <lesson-id>",
	Short: "Play a lesson's scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, cfg, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		lesson, err := cat.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		opts := playOptionsFromFlags(cmd, cfg.Playback)
		opts.Spec = lesson.Scenario
		opts.Title = lesson.Title
		opts.Log = cfg.Log

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		if _, err := cli.Play(sc, opts, streams(cmd)); err != nil && sc.Err() == nil {
			return err
		}
		return nil
	},
}

var lessonValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every lesson for unsupported kinds and bad params",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		n, err := validator.ValidateLessons(cmd.Context(), cat)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d lessons are valid! ✅\n", n)
		return nil
	},
}

func openCatalog(cmd *cobra.Command) (*catalog.Catalog, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	dir := cfg.Server.LessonsDir
	if cmd.Flags().Changed("dir") {
		dir, _ = cmd.Flags().GetString("dir")
	}
	cat, err := catalog.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		cat.Logger = cli.NewLogger(cfg.Log, true, false)
	}
	return cat, cfg, nil
}

func init() {
	rootCmd.AddCommand(lessonCmd)
	lessonCmd.AddCommand(lessonLsCmd, lessonShowCmd, lessonPlayCmd, lessonValidateCmd)
	lessonCmd.PersistentFlags().String("dir", "", "Lessons directory (overrides server.lessons_dir)")

	lessonShowCmd.Flags().BoolP("watch", "w", false, "Print the lesson again whenever it changes")
	lessonShowCmd.Flags().String("format", "markdown", "Trace format: plain or markdown")
	lessonShowCmd.Flags().StringSlice("hide", nil, "Hide panels: variables, output, lanes")

	addPlayFlags(lessonPlayCmd)
	lessonPlayCmd.Flags().StringSlice("hide", nil, "Hide panels: variables, output, lanes")
}
