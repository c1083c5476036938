package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cheekyos/internal/content"
	"cheekyos/internal/devtools"
	"cheekyos/internal/effects"
	"cheekyos/internal/finale"
	"cheekyos/internal/minigame"
	"cheekyos/internal/session"
	"cheekyos/internal/state"
	"cheekyos/internal/telemetry"
	"cheekyos/internal/ui"

	"github.com/google/uuid"
)

const settingStyleVariant = "ui.style_variant"

// App owns one live session at a time and replaces it after a fatal
// failure. Every ui.Controller method runs on the UI goroutine.
type App struct {
	cfg Config

	logger *telemetry.JSONLogger
	store  state.Store
	pack   content.Pack
	demo   devtools.Demo
	view   *ui.Root

	seed    uint64
	reloads int
	closed  bool

	sess          *session.Session
	sessionID     string
	runID         int64
	started       time.Time
	reloadPending bool

	devMu           sync.Mutex
	devServer       *http.Server
	pendingScenario string
	devState        struct {
		State     string
		Demo      string
		RenderSeq int
		Pending   bool
		Error     string
		Snapshot  session.Snapshot
	}
}

func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	pack, err := content.Load(cfg.ContentPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	var store state.Store
	if !cfg.NoJournal {
		store, err = openJournal(cfg.DataDir)
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
	}

	demo := devtools.NewManager()
	if cfg.Scenario != "" {
		if _, ok := demo.Resolve(cfg.Scenario); !ok {
			_ = closeStore(store)
			_ = logger.Close()
			return nil, fmt.Errorf("unknown scenario %q (known: %v)", cfg.Scenario, demo.Names())
		}
	}

	style := cfg.UI.StyleVariant
	if store != nil && style == DefaultConfig().UI.StyleVariant {
		if settings, err := store.LoadSettings(context.Background()); err == nil && settings[settingStyleVariant] != "" {
			style = settings[settingStyleVariant]
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	view := ui.New(ui.Options{
		Debug:        cfg.Dev,
		StyleVariant: style,
		MotionLevel:  cfg.UI.MotionLevel,
		MouseScope:   cfg.UI.MouseScope,
	})
	view.SetDocs(docsFor(pack))

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		pack:   pack,
		demo:   demo,
		view:   view,
		seed:   seed,
	}
	a.startSession()
	if cfg.Scenario != "" {
		a.queueScenario(cfg.Scenario)
	}
	view.SetController(a)
	return a, nil
}

func openJournal(dataDir string) (state.Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := state.NewSQLite(filepath.Join(dataDir, "journal.db"))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func closeStore(store state.Store) error {
	if store == nil {
		return nil
	}
	return store.Close()
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"session_id": a.sessionID,
		"pack":       a.pack.Name,
		"seed":       a.seed,
		"journal":    a.store != nil,
	})

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
	}
	go func() {
		<-ctx.Done()
		a.view.Stop()
	}()
	return a.view.Run()
}

// Close ends the live run as quit and releases everything New opened.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var errs []error
	if a.devServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, a.devServer.Shutdown(ctx))
		cancel()
	}
	a.endSession(state.OutcomeQuit)
	errs = append(errs, closeStore(a.store), a.logger.Close())
	return errors.Join(errs...)
}

func (a *App) startSession() {
	a.sessionID = uuid.NewString()
	a.runID = 0
	if a.store != nil {
		runID, err := a.store.StartRun(context.Background(), state.Run{
			SessionID: a.sessionID,
			Pack:      a.pack.Name,
			Seed:      a.seed,
			StartTS:   time.Now().UTC(),
		})
		a.journalErr("start_run", err)
		a.runID = runID
	}
	a.sess = session.New(session.Config{
		Pack:        a.pack,
		Rand:        rand.New(rand.NewPCG(a.seed, uint64(a.reloads))),
		CharDelay:   time.Duration(a.cfg.Timing.CharDelayMS) * time.Millisecond,
		ReloadDelay: time.Duration(a.cfg.Timing.ReloadDelayMS) * time.Millisecond,
		Observer:    &runObserver{app: a, sessionID: a.sessionID, runID: a.runID},
		OnReload:    func() { a.reloadPending = true },
	})
	a.started = time.Time{}
	a.logger.Info("session.start", map[string]any{"session_id": a.sessionID, "reloads": a.reloads})
}

func (a *App) endSession(outcome string) {
	if a.sess == nil {
		return
	}
	a.sess.Close()
	if a.store != nil && a.runID != 0 {
		a.journalErr("finish_run", a.store.FinishRun(context.Background(), a.runID, outcome, time.Time{}))
	}
}

func (a *App) reload() {
	a.reloadPending = false
	a.logger.Info("session.reload", map[string]any{"session_id": a.sessionID, "reloads": a.reloads + 1})
	// The fatal outcome is already journaled; FinishRun keeps the first one.
	a.endSession(state.OutcomeQuit)
	a.reloads++
	a.startSession()
}

func (a *App) journalErr(op string, err error) {
	if err == nil {
		return
	}
	a.logger.Error("journal.error", map[string]any{"op": op, "error": err.Error(), "session_id": a.sessionID})
}

// OnFrame drives the session clock from wall time. The clock starts on the
// first frame a session sees.
func (a *App) OnFrame(now time.Time) session.Snapshot {
	a.applyPendingScenario()
	if a.started.IsZero() {
		a.started = now
	}
	a.sess.AdvanceTo(now.Sub(a.started))
	if a.reloadPending {
		a.reload()
		a.started = now
	}
	snap := a.sess.Snapshot()
	if a.cfg.Dev {
		a.devMu.Lock()
		a.devState.Snapshot = snap
		a.devMu.Unlock()
	}
	return snap
}

func (a *App) Snapshot() session.Snapshot { return a.sess.Snapshot() }

func (a *App) OnBegin() { a.sess.Begin() }

func (a *App) OnSkip() { a.sess.Skip() }

func (a *App) OnSubmit(line string) bool { return a.sess.Submit(line) }

func (a *App) OnToggleWindow(w session.Window) { a.sess.ToggleWindow(w) }

func (a *App) OnCloseWindow(w session.Window) { a.sess.CloseWindow(w) }

// OnPlayAreaClick routes a click to the finale while it runs, otherwise to
// the popup under the pointer.
func (a *App) OnPlayAreaClick(x, y float64) bool {
	if a.sess.Snapshot().Finale.State == finale.Active {
		a.sess.FinaleClick(x, y)
		return true
	}
	id, onButton, ok := a.sess.PopupAt(effects.Point{X: x, Y: y})
	if !ok {
		return false
	}
	if onButton {
		a.sess.ClosePopup(id)
	}
	return true
}

func (a *App) OnPlayAreaHover(x, y float64) {
	if id, onButton, ok := a.sess.PopupAt(effects.Point{X: x, Y: y}); ok && onButton {
		a.sess.HoverPopup(id)
	}
}

func (a *App) OnTicTacToeMove(i int) { a.sess.TicTacToeMove(i) }

func (a *App) OnDecryptSelect(row, col int) { a.sess.DecryptSelect(row, col) }

func (a *App) OnSnakeTurn(d minigame.Dir) { a.sess.SnakeTurn(d) }

func (a *App) OnAuthenticate(password string) { a.sess.AuthenticateInbox(password) }

func (a *App) OnOpenEmail(i int) { a.sess.OpenEmail(i) }

func (a *App) OnStyleChange(variant string) {
	if a.store == nil {
		return
	}
	err := a.store.SaveSettings(context.Background(), map[string]string{settingStyleVariant: variant})
	a.journalErr("save_settings", err)
}

func (a *App) OnQuit() {
	a.view.Stop()
}

// runObserver logs session milestones and writes them to the journal.
type runObserver struct {
	app       *App
	sessionID string
	runID     int64
}

func (o *runObserver) StageEntered(stage session.Stage) {
	o.app.logger.Info("session.stage", map[string]any{"session_id": o.sessionID, "stage": stage.String()})
	if o.app.store != nil && o.runID != 0 {
		o.app.journalErr("record_stage", o.app.store.RecordStage(context.Background(), o.runID, stage.String()))
	}
}

func (o *runObserver) CommandAttempted(stage int, input string, passed bool) {
	o.app.logger.Info("session.command", map[string]any{
		"session_id": o.sessionID,
		"stage":      stage,
		"passed":     passed,
		"length":     len([]rune(input)),
	})
	if o.app.store != nil && o.runID != 0 {
		o.app.journalErr("record_attempt", o.app.store.RecordAttempt(context.Background(), o.runID, stage, passed))
	}
}

func (o *runObserver) Fatal(reason string) {
	o.app.logger.Error("session.fatal", map[string]any{"session_id": o.sessionID, "reason": reason})
	o.finish(state.FatalPrefix + reason)
}

func (o *runObserver) Finished(outcome string) {
	o.app.logger.Info("session.finished", map[string]any{"session_id": o.sessionID, "outcome": outcome})
	o.finish(outcome)
}

func (o *runObserver) finish(outcome string) {
	if o.app.store == nil || o.runID == 0 {
		return
	}
	o.app.journalErr("finish_run", o.app.store.FinishRun(context.Background(), o.runID, outcome, time.Time{}))
}

func docsFor(p content.Pack) ui.Docs {
	docs := ui.Docs{
		PackName:  p.Name,
		Manual:    p.Docs.ManualMD,
		NetFeed:   p.NetFeed,
		StatusLog: p.StatusLog,
		Lore:      p.Lore,
	}
	for _, e := range p.Emails {
		docs.Emails = append(docs.Emails, ui.Email{Sender: e.Sender, Subject: e.Subject, Body: e.EmailBody})
	}
	return docs
}

var _ ui.Controller = (*App)(nil)
