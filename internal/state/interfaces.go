package state

import (
	"context"
	"time"
)

// Store is the run journal. Gameplay only ever writes to it; the stats
// command reads it back.
type Store interface {
	EnsureSchema(ctx context.Context) error
	StartRun(ctx context.Context, run Run) (int64, error)
	RecordStage(ctx context.Context, runID int64, stage string) error
	RecordAttempt(ctx context.Context, runID int64, stage int, passed bool) error
	FinishRun(ctx context.Context, runID int64, outcome string, at time.Time) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetFatalReasons(ctx context.Context) (map[string]int, error)
	GetLastRun(ctx context.Context) (*LastRun, error)
	Close() error
}

type Run struct {
	SessionID string
	Pack      string
	Seed      uint64
	StartTS   time.Time
}

const (
	OutcomeWon  = "won"
	OutcomeQuit = "quit"
	// FatalPrefix starts every fatal outcome, e.g. "fatal:purge_timeout".
	FatalPrefix = "fatal:"
)

type Summary struct {
	Runs      int
	Wins      int
	Fatal     int
	Quit      int
	Attempts  int
	Passes    int
	BestStage int
}

type LastRun struct {
	SessionID string
	Pack      string
	StartTS   time.Time
	EndTS     time.Time
	Outcome   string
	MaxStage  int
	Attempts  int
	Failures  int
}
