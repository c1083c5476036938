package effects

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cheekyos/internal/loop"
	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
)

type harness struct {
	Env
	live bool
}

func newHarness(charDelay time.Duration) *harness {
	h := &harness{live: true}
	lp := loop.New()
	log := output.NewLog()
	alive := func() bool { return h.live }
	h.Env = Env{
		Loop:     lp,
		Rand:     rand.New(rand.NewPCG(7, 11)),
		Log:      log,
		Narrator: narrate.New(lp, log, alive, charDelay),
		Alive:    alive,
	}
	return h
}

func (h *harness) lines() []string {
	var out []string
	for _, e := range h.Log.Entries() {
		out = append(out, e.Text)
	}
	return out
}

func TestDriftGrowsAndLosesWindow(t *testing.T) {
	h := newHarness(0)
	lost := 0
	d := NewDrift(h.Env, DefaultDriftConfig(), func() { lost++ })

	d.Start()
	require.True(t, d.Running())
	h.Loop.Advance(50 * time.Millisecond)
	assert.InDelta(t, 1.015, d.Multiplier(), 1e-9)
	assert.NotEqual(t, DefaultDriftConfig().Anchor, d.Position())

	// The multiplier compounds every tick, so the window leaves eventually.
	h.Loop.Advance(10 * time.Minute)
	assert.Equal(t, 1, lost)
	assert.False(t, d.Running())
	assert.Equal(t, 1.0, d.Multiplier())

	d.Anchor()
	assert.Equal(t, DefaultDriftConfig().Anchor, d.Position())
}

func TestDriftStopIsIdempotent(t *testing.T) {
	h := newHarness(0)
	d := NewDrift(h.Env, DefaultDriftConfig(), nil)
	d.Start()
	d.Start()
	d.Stop()
	d.Stop()
	assert.False(t, d.Running())
	assert.Zero(t, h.Loop.Pending())
}

func TestLeetspeakTogglesAndStabilizes(t *testing.T) {
	h := newHarness(0)
	l := NewLeetspeak(h.Env)
	l.Start()
	assert.False(t, l.Active())
	h.Loop.Advance(3 * time.Second)
	assert.True(t, l.Active())

	l.Stop()
	l.Stop()
	assert.False(t, l.Active())
	assert.Equal(t, []string{"## Keyboard mapping stabilized. ##"}, h.lines())
	assert.Equal(t, "C4L1BR4T3_SYST3M", Transliterate("CALIBRATE_SYSTEM"))
}

func TestPurgeCountdownExpires(t *testing.T) {
	h := newHarness(0)
	locked, expired := false, false
	p := NewPurge(h.Env, PurgeHooks{Lock: func() { locked = true }, OnExpire: func() { expired = true }})
	p.Start()

	h.Loop.Advance(9 * time.Second)
	assert.Empty(t, h.lines())

	h.Loop.Advance(time.Second)
	assert.Equal(t, []string{"...5..."}, h.lines())

	h.Loop.Advance(3 * time.Second)
	assert.Equal(t, []string{"...5...", "...4...", "...3...", "...2..."}, h.lines())
	assert.False(t, locked)

	h.Loop.Advance(time.Second)
	assert.True(t, locked)
	assert.False(t, expired)
	h.Loop.Advance(500 * time.Millisecond)
	assert.True(t, expired)
	assert.Equal(t, "Log integrity check failed. System instability critical. Rebooting...", h.lines()[len(h.lines())-1])
}

func TestPurgeStopMidCountdown(t *testing.T) {
	h := newHarness(0)
	expired := false
	p := NewPurge(h.Env, PurgeHooks{OnExpire: func() { expired = true }})
	p.Start()
	h.Loop.Advance(11 * time.Second)
	p.Stop()
	p.Stop()
	h.Loop.Advance(time.Minute)
	assert.False(t, expired)
	assert.Equal(t, []string{"...5...", "...4..."}, h.lines())
}

func TestPurgeStopWhileTypingPreventsNextTick(t *testing.T) {
	h := newHarness(60 * time.Millisecond)
	expired := false
	p := NewPurge(h.Env, PurgeHooks{OnExpire: func() { expired = true }})
	p.Start()
	h.Loop.Advance(10*time.Second + 100*time.Millisecond)
	p.Stop()
	h.Loop.Advance(time.Minute)
	assert.False(t, expired)
	assert.Equal(t, []string{"...5..."}, h.lines())
}

func TestPurgeStopDuringFinalCountCallsOffExpiry(t *testing.T) {
	h := newHarness(0)
	locked, expired := false, false
	p := NewPurge(h.Env, PurgeHooks{Lock: func() { locked = true }, OnExpire: func() { expired = true }})
	p.Start()
	h.Loop.Advance(14 * time.Second)
	require.True(t, locked)
	require.False(t, p.Running())

	p.Stop()
	h.Loop.Advance(time.Minute)
	assert.False(t, expired)

	// A fresh countdown still expires normally.
	locked = false
	p.Start()
	h.Loop.Advance(15 * time.Second)
	assert.True(t, locked)
	assert.True(t, expired)
}

func TestPopupIntervalsShrinkToFloor(t *testing.T) {
	h := newHarness(0)
	cfg := DefaultPopupConfig()
	cfg.Max = 1000
	p := NewPopups(h.Env, cfg, nil)
	p.Start()
	require.Equal(t, 1, p.Count())
	assert.Equal(t, 4000*time.Millisecond, p.NextInterval())

	prev := p.NextInterval()
	for i := 0; i < 40; i++ {
		h.Loop.Advance(prev)
		next := p.NextInterval()
		if prev > cfg.Floor {
			assert.Equal(t, max(cfg.Floor, prev-150*time.Millisecond), next)
		} else {
			assert.Equal(t, cfg.Floor, next)
		}
		prev = next
	}
	assert.Equal(t, 41, p.Count())
}

func TestPopupOverloadAtTwenty(t *testing.T) {
	h := newHarness(0)
	overloads := 0
	p := NewPopups(h.Env, DefaultPopupConfig(), func() { overloads++ })
	p.Start()
	h.Loop.Advance(5 * time.Minute)

	assert.Equal(t, 1, overloads)
	assert.Equal(t, 20, p.Count())
	assert.False(t, p.Running())
	assert.Equal(t, []string{"!!! POP-UP OVERLOAD! SYSTEM CRITICAL !!!", "Rebooting primary core..."}, h.lines())
}

func TestClosingLastPopupStopsSwarm(t *testing.T) {
	h := newHarness(0)
	p := NewPopups(h.Env, DefaultPopupConfig(), nil)
	p.Start()
	id := p.Popups()[0].ID

	require.True(t, p.Close(id))
	assert.False(t, p.Close(id))
	h.Loop.Advance(300 * time.Millisecond)
	assert.Zero(t, p.Count())
	assert.False(t, p.Running())

	h.Loop.Advance(time.Minute)
	assert.Zero(t, p.Count())
}

func TestPopupHoverCooldown(t *testing.T) {
	h := newHarness(0)
	p := NewPopups(h.Env, DefaultPopupConfig(), nil)
	p.Start()
	id := p.Popups()[0].ID

	assert.True(t, p.Hover(id))
	assert.False(t, p.Hover(id))
	h.Loop.Advance(499 * time.Millisecond)
	assert.False(t, p.Hover(id))
	h.Loop.Advance(time.Millisecond)
	assert.True(t, p.Hover(id))
}

func TestPopupStopIsIdempotent(t *testing.T) {
	h := newHarness(0)
	p := NewPopups(h.Env, DefaultPopupConfig(), nil)
	p.Start()
	p.Stop()
	p.Stop()
	assert.Zero(t, p.Count())
	assert.Zero(t, h.Loop.Pending())
}

func TestPowerFlickerLocksAndRestores(t *testing.T) {
	h := newHarness(0)
	locked := false
	p := NewPower(h.Env, PowerHooks{
		Eligible: func() bool { return !locked },
		Lock:     func() { locked = true },
		Restore: func() bool {
			locked = false
			return true
		},
	})
	p.Chance = 1
	p.Start()

	for i := 0; i < 600 && !p.Flickering(); i++ {
		h.Loop.Advance(100 * time.Millisecond)
	}
	require.True(t, p.Flickering())
	assert.True(t, locked)
	assert.Equal(t, []string{"!!! Power Fluctuation !!! Standby..."}, h.lines())

	h.Loop.Advance(7 * time.Second)
	assert.False(t, p.Flickering())
	assert.False(t, locked)
	assert.Equal(t, "...Power stable.", h.lines()[1])

	p.Stop()
	p.Stop()
	assert.Zero(t, h.Loop.Pending())
}

func TestPowerFlickerSkipsIneligibleSession(t *testing.T) {
	h := newHarness(0)
	p := NewPower(h.Env, PowerHooks{Eligible: func() bool { return false }})
	p.Chance = 1
	p.Start()
	h.Loop.Advance(10 * time.Minute)
	assert.False(t, p.Flickering())
	assert.Empty(t, h.lines())
}

func TestAmbientBlipAndSuppression(t *testing.T) {
	h := newHarness(0)
	finale := false
	a := NewAmbient(h.Env, func() bool { return finale })
	a.Start()
	assert.True(t, a.Active())
	h.Loop.Advance(150 * time.Millisecond)
	assert.False(t, a.Active())

	finale = true
	for i := 0; i < 100; i++ {
		h.Loop.Advance(100 * time.Millisecond)
		assert.False(t, a.Active())
	}
	a.Stop()
	a.Stop()
	assert.Zero(t, h.Loop.Pending())
}

func TestTickerShowsForTwentySeconds(t *testing.T) {
	h := newHarness(0)
	introDone := false
	tk := NewTicker(h.Env, []string{"only headline"}, func() bool { return !introDone })
	tk.Start()

	h.Loop.Advance(30 * time.Second)
	_, showing := tk.Headline()
	assert.False(t, showing)

	introDone = true
	for i := 0; i < 600 && !showing; i++ {
		h.Loop.Advance(100 * time.Millisecond)
		_, showing = tk.Headline()
	}
	headline, showing := tk.Headline()
	require.True(t, showing)
	assert.Equal(t, "only headline", headline)

	h.Loop.Advance(20 * time.Second)
	_, showing = tk.Headline()
	assert.False(t, showing)

	tk.Stop()
	tk.Stop()
}

func TestDeadSessionSilencesControllers(t *testing.T) {
	h := newHarness(0)
	p := NewPopups(h.Env, DefaultPopupConfig(), func() { t.Fatal("overload after teardown") })
	p.Start()
	h.live = false
	h.Loop.Advance(5 * time.Minute)
	assert.Equal(t, 1, p.Count())
	assert.False(t, p.Close(p.Popups()[0].ID))
}
