package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"cheekyos/internal/state"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the run journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "journal.db"))
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		return printStats(cmd, store)
	},
}

func printStats(cmd *cobra.Command, store state.Store) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sum, err := store.GetSummary(ctx)
	if err != nil {
		return err
	}
	if sum.Runs == 0 {
		fmt.Fprintln(out, "No runs journaled yet.")
		return nil
	}
	fmt.Fprintf(out, "Runs: %d  won: %d  fatal: %d  quit: %d\n", sum.Runs, sum.Wins, sum.Fatal, sum.Quit)
	fmt.Fprintf(out, "Commands: %d attempted, %d accepted\n", sum.Attempts, sum.Passes)
	fmt.Fprintf(out, "Furthest stage: %d\n", sum.BestStage)

	reasons, err := store.GetFatalReasons(ctx)
	if err != nil {
		return err
	}
	printReasons(out, reasons)

	last, err := store.GetLastRun(ctx)
	if err != nil {
		return err
	}
	if last != nil {
		outcome := last.Outcome
		if outcome == "" {
			outcome = "unfinished"
		}
		fmt.Fprintf(out, "Last run: %s  stage %d  %d attempts (%d failed)  %s\n",
			last.StartTS.Local().Format(time.DateTime), last.MaxStage, last.Attempts, last.Failures, outcome)
	}
	return nil
}

func printReasons(out io.Writer, reasons map[string]int) {
	if len(reasons) == 0 {
		return
	}
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if reasons[keys[i]] != reasons[keys[j]] {
			return reasons[keys[i]] > reasons[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintln(out, "Fatal reasons:")
	for _, k := range keys {
		fmt.Fprintf(out, "  %-16s %d\n", k, reasons[k])
	}
}
