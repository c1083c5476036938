// Package session is the CheekyOS state machine. A Session owns the stage,
// the input lock and every timed controller; the UI reads snapshots and
// forwards input through the exported operations.
package session

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"cheekyos/internal/content"
	"cheekyos/internal/effects"
	"cheekyos/internal/finale"
	"cheekyos/internal/loop"
	"cheekyos/internal/minigame"
	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
	"cheekyos/internal/puzzle"
)

const DefaultReloadDelay = 5 * time.Second

// Observer receives session milestones. Implementations must not call back
// into the session.
type Observer interface {
	StageEntered(stage Stage)
	CommandAttempted(stage int, input string, passed bool)
	Fatal(reason string)
	Finished(outcome string)
}

type nopObserver struct{}

func (nopObserver) StageEntered(Stage)                {}
func (nopObserver) CommandAttempted(int, string, bool) {}
func (nopObserver) Fatal(string)                      {}
func (nopObserver) Finished(string)                   {}

type Config struct {
	Pack        content.Pack
	Rand        *rand.Rand
	Validator   puzzle.Validator
	CharDelay   time.Duration
	ReloadDelay time.Duration
	Observer    Observer
	// OnReload is called once, ReloadDelay after a fatal failure.
	OnReload func()
}

type Session struct {
	cfg       Config
	loop      *loop.Loop
	log       *output.Log
	narrator  *narrate.Narrator
	rand      *rand.Rand
	validator puzzle.Validator
	pack      content.Pack
	observer  Observer
	alive     bool
	st        State

	drift   *effects.Drift
	leet    *effects.Leetspeak
	purge   *effects.Purge
	popups  *effects.Popups
	power   *effects.Power
	ambient *effects.Ambient
	ticker  *effects.Ticker
	finale  *finale.Game

	ttt     *minigame.TicTacToe
	decrypt *minigame.Decryptor
	snake   *minigame.Snake

	catTimer     loop.TimerID
	flashTimer   loop.TimerID
	driftRestart loop.TimerID
	reloadTimer  loop.TimerID
	busy         bool
	holds        hold
	crtStarted   bool
	fakeTime     string
	loreCycle    int
}

func New(cfg Config) *Session {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Validator == nil {
		cfg.Validator = puzzle.NewRuleSet()
	}
	if cfg.ReloadDelay <= 0 {
		cfg.ReloadDelay = DefaultReloadDelay
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	s := &Session{
		cfg:       cfg,
		loop:      loop.New(),
		log:       output.NewLog(),
		rand:      cfg.Rand,
		validator: cfg.Validator,
		pack:      cfg.Pack,
		observer:  cfg.Observer,
		alive:     true,
		st:        newState(),
		busy:      true,
	}
	s.narrator = narrate.New(s.loop, s.log, s.Alive, cfg.CharDelay)
	s.fakeTime = fmt.Sprintf("%02d:%02d:%02d", s.rand.IntN(24), s.rand.IntN(60), s.rand.IntN(60))
	s.loreCycle = s.rand.IntN(1000)

	env := s.env()
	s.drift = effects.NewDrift(env, effects.DefaultDriftConfig(), s.driftLost)
	s.leet = effects.NewLeetspeak(env)
	s.purge = effects.NewPurge(env, effects.PurgeHooks{
		Lock:     func() { s.acquire(holdPurgeExpiry) },
		OnExpire: func() { s.fatal("purge_timeout") },
	})
	s.popups = effects.NewPopups(env, effects.DefaultPopupConfig(), func() { s.fatal("popup_overload") })
	s.power = effects.NewPower(env, effects.PowerHooks{
		Eligible: s.flickerEligible,
		Lock:     func() { s.acquire(holdPower) },
		Restore:  s.powerRestored,
	})
	s.ambient = effects.NewAmbient(env, s.finaleActive)
	s.ticker = effects.NewTicker(env, s.pack.Headlines, func() bool {
		return s.finaleActive() || !s.st.IntroDone
	})
	s.finale = finale.New(env, finale.DefaultConfig(), finale.Hooks{
		OnWin:      s.finaleWon,
		OnLose:     s.finaleLost,
		StartSwarm: s.popups.Start,
		StopSwarm:  s.popups.Stop,
	})

	s.power.Start()
	s.ambient.Start()
	s.ticker.Start()
	return s
}

func (s *Session) env() effects.Env {
	return effects.Env{
		Loop:     s.loop,
		Rand:     s.rand,
		Log:      s.log,
		Narrator: s.narrator,
		Alive:    s.Alive,
	}
}

func (s *Session) Alive() bool { return s.alive }

func (s *Session) Now() time.Duration { return s.loop.Now() }

// Advance moves virtual time forward, running every timer that falls due.
func (s *Session) Advance(d time.Duration) int { return s.loop.Advance(d) }

func (s *Session) AdvanceTo(t time.Duration) int { return s.loop.AdvanceTo(t) }

// Close tears the session down. Nothing scheduled before Close runs after it.
func (s *Session) Close() {
	if !s.alive {
		return
	}
	s.alive = false
	s.stopSabotage()
	s.ambient.Stop()
	s.ticker.Stop()
	s.loop.Close()
}

// hold is an input lock owned by a timed effect. Narration callbacks only
// release the session's own lock, so input stays locked while any hold is set.
type hold uint8

const (
	holdDriftRestart hold = 1 << iota
	holdPurgeExpiry
	holdPower
)

func (s *Session) lock()   { s.busy = true; s.syncLock() }
func (s *Session) unlock() { s.busy = false; s.syncLock() }

func (s *Session) acquire(h hold) { s.holds |= h; s.syncLock() }
func (s *Session) release(h hold) { s.holds &^= h; s.syncLock() }

func (s *Session) syncLock() { s.st.InputLocked = s.busy || s.holds != 0 }

func (s *Session) play(steps []narrate.Step, done func()) {
	s.narrator.Play(steps, done)
}

func ai(text string) narrate.Step  { return narrate.Type(text, output.TagAI) }
func sys(text string) narrate.Step { return narrate.Type(text, output.TagSystem) }

func (s *Session) emoticon() string {
	if len(s.pack.Emoticons) == 0 {
		return ""
	}
	return s.pack.Emoticons[s.rand.IntN(len(s.pack.Emoticons))]
}

func (s *Session) finaleActive() bool { return s.finale.State() == finale.Active }

func (s *Session) openWindow(w Window)  { s.st.Windows[w] = true }
func (s *Session) closeWindow(w Window) { delete(s.st.Windows, w) }

func (s *Session) flash(f Flash, d time.Duration) {
	s.st.Flash = f
	s.loop.Cancel(s.flashTimer)
	s.flashTimer = s.loop.After(d, func() {
		s.flashTimer = 0
		s.st.Flash = FlashNone
	})
}

// Submit handles one line from the terminal prompt. It reports whether the
// line was accepted for processing.
func (s *Session) Submit(raw string) bool {
	if !s.alive || s.st.InputLocked || s.st.GameOver || s.st.ArrivalNotice {
		return false
	}
	s.log.Append("> "+raw, output.TagPlayer)
	s.lock()

	if n, ok := s.st.Stage.Protocol(); ok {
		s.protocol(n, raw)
		return true
	}
	switch s.st.Stage {
	case At(0):
		s.nobleChoice(raw)
	case YesNo:
		s.yesNo(raw)
	case MenuSelection:
		s.menuSelection(raw)
	default:
		s.play([]narrate.Step{ai(`...CheekyOS seems lost. ¯\_(ツ)_/¯`)}, s.unlock)
	}
	return true
}

// fatal is the single funnel for every session-ending failure.
func (s *Session) fatal(reason string) {
	if !s.alive || s.st.GameOver {
		return
	}
	s.lock()
	s.st.GameOver = true
	s.stopSabotage()
	s.observer.Fatal(reason)
	s.reloadTimer = s.loop.After(s.cfg.ReloadDelay, func() {
		s.reloadTimer = 0
		if s.alive && s.cfg.OnReload != nil {
			s.cfg.OnReload()
		}
	})
}

func (s *Session) stopSabotage() {
	s.drift.Stop()
	s.leet.Stop()
	s.purge.Stop()
	s.popups.Stop()
	s.power.Stop()
	s.finale.Stop()
	if s.decrypt != nil {
		s.decrypt.Stop()
	}
	if s.snake != nil {
		s.snake.Stop()
	}
	for _, id := range []*loop.TimerID{&s.catTimer, &s.driftRestart} {
		if *id != 0 {
			s.loop.Cancel(*id)
			*id = 0
		}
	}
	s.holds = 0
	s.syncLock()
	s.st.VictoryFrame = ""
}

func (s *Session) flickerEligible() bool {
	n, ok := s.st.Stage.Protocol()
	return ok && n > 0 && !s.finaleActive() && !s.st.InputLocked && !s.st.GameOver
}

// powerRestored drops the flicker's hold. Power only reads as stable when
// nothing else still owns the input lock.
func (s *Session) powerRestored() bool {
	s.release(holdPower)
	if s.st.GameOver {
		return false
	}
	return !s.st.InputLocked && (s.st.Stage.Kind == Numbered || s.st.Stage == MenuSelection)
}

// ToggleWindow opens or closes a desktop window. The manual is refused while
// locked, and nothing on the desktop responds during the finale or after a
// fatal failure.
func (s *Session) ToggleWindow(w Window) bool {
	if !s.alive || s.st.GameOver || s.st.ArrivalNotice || s.finaleActive() || s.st.CRT != CRTNone {
		return false
	}
	if s.st.Windows[w] {
		return s.CloseWindow(w)
	}
	switch w {
	case WindowManual:
		if s.st.ManualLocked {
			return false
		}
	case WindowTicTacToe, WindowDecryptor, WindowSnake:
		// Minigame windows are opened by the session only.
		return false
	}
	s.openWindow(w)
	return true
}

// CloseWindow closes an open window. Walking away from tic-tac-toe forfeits it;
// the decryptor and snake cannot be dismissed.
func (s *Session) CloseWindow(w Window) bool {
	if !s.alive || !s.st.Windows[w] {
		return false
	}
	switch w {
	case WindowDecryptor, WindowSnake:
		return false
	case WindowTicTacToe:
		if s.ttt != nil && !s.ttt.Done() {
			s.ticTacToeLost()
			return true
		}
	}
	s.closeWindow(w)
	return true
}

func (s *Session) ClosePopup(id int) bool {
	if !s.alive || s.st.GameOver {
		return false
	}
	return s.popups.Close(id)
}

func (s *Session) HoverPopup(id int) bool {
	if !s.alive || s.st.GameOver {
		return false
	}
	return s.popups.Hover(id)
}

// PopupAt exposes popup hit-testing to the renderer.
func (s *Session) PopupAt(p effects.Point) (id int, onButton bool, ok bool) {
	if id, ok := s.popups.ButtonAt(p); ok {
		return id, true, true
	}
	id, ok = s.popups.At(p)
	return id, false, ok
}

func (s *Session) FinaleClick(x, y float64) {
	if !s.alive || s.st.GameOver {
		return
	}
	s.finale.Click(x, y)
}

// Jump starts a protocol stage directly with the given history. Used by dev
// scenarios; stage 10 jumps straight into the finale.
func (s *Session) Jump(stage int, history []string, meme string) error {
	if !s.alive {
		return fmt.Errorf("session closed")
	}
	if stage < puzzle.FirstStage || stage > puzzle.LastStage+1 {
		return fmt.Errorf("jump: stage %d out of range", stage)
	}
	if s.st.GameOver {
		return fmt.Errorf("jump: game over")
	}
	s.narrator.Cancel()
	s.stopSabotage()
	s.power.Start()
	s.closeWindow(WindowTicTacToe)
	s.closeWindow(WindowDecryptor)
	s.closeWindow(WindowSnake)
	s.ttt, s.decrypt, s.snake = nil, nil, nil
	s.log.Clear()

	s.st.ArrivalNotice = false
	s.st.IntroDone = true
	s.st.ManualLocked = false
	s.st.FailStreak = 0
	s.st.Glitch, s.st.GlitchDuration = "", 0
	s.st.History = make([]string, 0, len(history))
	for _, h := range history {
		s.st.History = append(s.st.History, strings.TrimSpace(h))
	}
	s.st.SelectedMeme = meme
	s.st.TicTacToeTriggered = stage > 6
	s.openWindow(WindowTerminal)
	s.st.Stage = At(stage)
	if stage > puzzle.LastStage {
		s.startFinale()
		return nil
	}
	s.startStage(stage)
	return nil
}
