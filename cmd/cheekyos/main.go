package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cheekyos/internal/app"

	"github.com/spf13/cobra"
)

var cfg = app.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:           "cheekyos",
	Short:         "A hostile retro OS that makes you earn every archived meme",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: runPlay,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Boot CheekyOS (default)",
	RunE:  runPlay,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log", "", "append structured JSON events to this file")
	pf.String("data-dir", "", "directory holding the run journal (default ~/.local/share/cheekyos)")
	pf.Bool("no-journal", false, "do not record runs")

	for _, cmd := range []*cobra.Command{rootCmd, playCmd} {
		f := cmd.Flags()
		f.Bool("dev", false, "enable dev scenarios and the dev HTTP endpoint")
		f.String("dev-http", "", "dev HTTP listen address")
		f.String("content", "", "load a content pack YAML instead of the embedded one")
		f.Uint64("seed", 0, "random seed (0 picks one)")
		f.String("scenario", "", "start in a dev scenario, e.g. stage_4 or finale")
		f.String("style", "", "style variant: retro_terminal, amber, phosphor_blue")
		f.String("motion", "", "motion level: off, reduced, full")
	}

	rootCmd.AddCommand(playCmd, statsCmd, versionCmd)
}

// loadConfig applies defaults, then CHEEKYOS_* variables, then flags the
// user actually set.
func loadConfig(cmd *cobra.Command) error {
	if err := app.LoadEnv(&cfg); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log") {
		cfg.LogPath, _ = flags.GetString("log")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("no-journal") {
		cfg.NoJournal, _ = flags.GetBool("no-journal")
	}
	if flags.Lookup("dev") == nil {
		return cfg.Validate()
	}
	if flags.Changed("dev") {
		cfg.Dev, _ = flags.GetBool("dev")
	}
	if flags.Changed("dev-http") {
		cfg.DevHTTP, _ = flags.GetString("dev-http")
	}
	if flags.Changed("content") {
		cfg.ContentPath, _ = flags.GetString("content")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("scenario") {
		cfg.Scenario, _ = flags.GetString("scenario")
	}
	if flags.Changed("style") {
		cfg.UI.StyleVariant, _ = flags.GetString("style")
	}
	if flags.Changed("motion") {
		cfg.UI.MotionLevel, _ = flags.GetString("motion")
	}
	return cfg.Validate()
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	runErr := a.Run(ctx)
	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "cheekyos: %v\n", err)
		os.Exit(1)
	}
}
