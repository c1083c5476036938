package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cheekyos/internal/state"

	"github.com/spf13/cobra"
)

func TestPrintStatsSummarizesJournal(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	for i, outcome := range []string{state.FatalPrefix + "purge_timeout", state.OutcomeWon} {
		id, err := store.StartRun(ctx, state.Run{SessionID: "s" + string(rune('a'+i)), Pack: "default", StartTS: time.Now()})
		if err != nil {
			t.Fatalf("start run: %v", err)
		}
		if err := store.RecordAttempt(ctx, id, 4, false); err != nil {
			t.Fatalf("attempt: %v", err)
		}
		if err := store.FinishRun(ctx, id, outcome, time.Time{}); err != nil {
			t.Fatalf("finish: %v", err)
		}
	}

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := printStats(cmd, store); err != nil {
		t.Fatalf("print stats: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Runs: 2", "won: 1", "fatal: 1", "purge_timeout", "Last run:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestPrintStatsEmptyJournal(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := printStats(cmd, store); err != nil {
		t.Fatalf("print stats: %v", err)
	}
	if !strings.Contains(out.String(), "No runs journaled yet.") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
