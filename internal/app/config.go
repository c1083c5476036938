package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment override, e.g. CHEEKYOS_SEED.
const EnvPrefix = "CHEEKYOS_"

// Config controls runtime behavior for the TUI app.
type Config struct {
	Dev         bool         `env:"DEV"`
	DevHTTP     string       `env:"DEV_HTTP"`
	LogPath     string       `env:"LOG"`
	DataDir     string       `env:"DATA_DIR"`
	ContentPath string       `env:"CONTENT"`
	Seed        uint64       `env:"SEED"`
	NoJournal   bool         `env:"NO_JOURNAL"`
	Scenario    string       `env:"SCENARIO"`
	Timing      TimingConfig `envPrefix:"TIMING_"`
	UI          UIConfig     `envPrefix:"UI_"`
}

type TimingConfig struct {
	CharDelayMS   int `env:"CHAR_DELAY_MS"`
	ReloadDelayMS int `env:"RELOAD_DELAY_MS"`
}

type UIConfig struct {
	StyleVariant string `env:"STYLE"`
	MotionLevel  string `env:"MOTION"`
	MouseScope   string `env:"MOUSE"`
}

func DefaultConfig() Config {
	return Config{
		DevHTTP: "127.0.0.1:17321",
		Timing: TimingConfig{
			CharDelayMS:   60,
			ReloadDelayMS: 5000,
		},
		UI: UIConfig{
			StyleVariant: "retro_terminal",
			MotionLevel:  "full",
			MouseScope:   "full",
		},
	}
}

// LoadEnv overlays CHEEKYOS_* variables from the process environment.
func LoadEnv(c *Config) error {
	return LoadEnvFrom(c, nil)
}

// LoadEnvFrom overlays variables from environ, or the process environment
// when environ is nil. Unset variables leave fields untouched.
func LoadEnvFrom(c *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Timing.CharDelayMS < 0 {
		return fmt.Errorf("invalid char delay %dms", c.Timing.CharDelayMS)
	}
	if c.Timing.ReloadDelayMS <= 0 {
		c.Timing.ReloadDelayMS = 5000
	}
	switch c.UI.StyleVariant {
	case "", "retro_terminal", "amber", "phosphor_blue":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "retro_terminal"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	switch c.UI.MouseScope {
	case "", "off", "full":
	default:
		return fmt.Errorf("invalid ui mouse scope %q", c.UI.MouseScope)
	}
	if c.UI.MouseScope == "" {
		c.UI.MouseScope = "full"
	}
	if c.Dev && c.DevHTTP == "" {
		c.DevHTTP = "127.0.0.1:17321"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "cheekyos")
	}

	return nil
}
