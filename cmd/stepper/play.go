package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/pkg/runner"
)

var playCmd = &cobra.Command{
	Use:   "play [kind]",
	Short: "Play a scenario step by step",
	Long: `Plays a scenario in the terminal. Interactive mode reads single keys:
space/p play-pause, n/l next, b/h back, r reset, +/- speed, 0-9 jump, q quit.

With --headless or --json the scenario autoplays and every frame is written once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		spec, err := scenarioFromFlags(cmd, args)
		if err != nil {
			return err
		}

		opts := playOptionsFromFlags(cmd, cfg.Playback)
		opts.Spec = spec
		opts.Log = cfg.Log
		opts.Title = string(spec.Kind)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		_, err = cli.Play(sc, opts, streams(cmd))
		if err != nil && sc.Err() != nil {
			return nil
		}
		return err
	},
}

// addPlayFlags registers the flags read by playOptionsFromFlags.
func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("headless", false, "Autoplay and print every frame, no key input")
	cmd.Flags().Bool("json", false, "Autoplay and print frames as NDJSON")
	cmd.Flags().Bool("autoplay", false, "Start the interactive player already playing (playback.autoplay)")
	cmd.Flags().String("format", "plain", "Headless output format: plain or markdown")
	cmd.Flags().Float64("speed", 0, "Speed multiplier (0.5, 1, 2)")
	cmd.Flags().Duration("interval", 0, "Base delay between steps at 1x")
	cmd.Flags().String("style", "", "Glamour style for the interactive player (dark, light, notty)")
}

func playOptionsFromFlags(cmd *cobra.Command, playback config.PlaybackConfig) cli.PlayOptions {
	flags := cmd.Flags()
	opts := cli.PlayOptions{Interval: playback.Interval, Speed: playback.Speed, AutoPlay: playback.AutoPlay}
	opts.Headless, _ = flags.GetBool("headless")
	opts.JSON, _ = flags.GetBool("json")
	opts.Debug, _ = flags.GetBool("debug")
	opts.Hide, _ = flags.GetStringSlice("hide")
	opts.Style, _ = flags.GetString("style")
	format, _ := flags.GetString("format")
	opts.Format = runner.ParseFormat(format)
	if flags.Changed("autoplay") {
		opts.AutoPlay, _ = flags.GetBool("autoplay")
	}
	if flags.Changed("speed") {
		opts.Speed, _ = flags.GetFloat64("speed")
	}
	if flags.Changed("interval") {
		opts.Interval, _ = flags.GetDuration("interval")
	}
	return opts
}

func init() {
	rootCmd.AddCommand(playCmd)
	addScenarioFlags(playCmd)
	addPlayFlags(playCmd)
}
