package content

import (
	"fmt"
	"strings"
)

const (
	Kind                   = "content"
	SupportedSchemaVersion = 1
)

type Pack struct {
	Kind          string        `yaml:"kind"`
	SchemaVersion int           `yaml:"schema_version"`
	Name          string        `yaml:"name"`
	InboxPassword string        `yaml:"inbox_password"`
	NobleChoices  []NobleChoice `yaml:"noble_choices"`
	CursedMenu    []MemeFile    `yaml:"cursed_menu"`
	Emoticons     []string      `yaml:"emoticons"`
	Headlines     []string      `yaml:"headlines"`
	StartErrors   []string      `yaml:"start_errors"`
	CatFrames     []string      `yaml:"cat_frames"`
	NetFeed       []string      `yaml:"netfeed"`
	Emails        []Email       `yaml:"emails"`
	Docs          Docs          `yaml:"docs"`

	Path string `yaml:"-"`
}

type NobleChoice struct {
	Text   string   `yaml:"text"`
	Flavor []string `yaml:"flavor"`
}

type MemeFile struct {
	File       string `yaml:"file"`
	Commentary string `yaml:"commentary"`
}

type Email struct {
	Sender  string `yaml:"sender"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type Docs struct {
	ManualMD    string `yaml:"manual_md"`
	LoreMD      string `yaml:"lore_md"`
	StatusLogMD string `yaml:"status_log_md"`
}

func (p Pack) Validate() error {
	if p.Kind != Kind {
		return fmt.Errorf("kind must be %q", Kind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported content schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if strings.TrimSpace(p.InboxPassword) == "" {
		return fmt.Errorf("inbox_password is required")
	}
	lists := []struct {
		name string
		n    int
	}{
		{"noble_choices", len(p.NobleChoices)},
		{"cursed_menu", len(p.CursedMenu)},
		{"emoticons", len(p.Emoticons)},
		{"headlines", len(p.Headlines)},
		{"start_errors", len(p.StartErrors)},
		{"cat_frames", len(p.CatFrames)},
		{"netfeed", len(p.NetFeed)},
		{"emails", len(p.Emails)},
	}
	for _, l := range lists {
		if l.n == 0 {
			return fmt.Errorf("%s must contain at least one item", l.name)
		}
	}
	for i, c := range p.NobleChoices {
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("noble_choices[%d].text is required", i)
		}
	}
	seen := map[string]bool{}
	for i, m := range p.CursedMenu {
		file := strings.TrimSpace(m.File)
		if file == "" {
			return fmt.Errorf("cursed_menu[%d].file is required", i)
		}
		// The file name becomes part of the LAUNCH_PAYLOAD command.
		if strings.ContainsAny(file, " \t") {
			return fmt.Errorf("cursed_menu[%d].file %q must not contain whitespace", i, file)
		}
		if seen[file] {
			return fmt.Errorf("duplicate cursed_menu file %q", file)
		}
		seen[file] = true
	}
	for i, e := range p.Emails {
		if e.Sender == "" || e.Subject == "" {
			return fmt.Errorf("emails[%d] needs sender and subject", i)
		}
	}
	if p.Docs.ManualMD == "" {
		return fmt.Errorf("docs.manual_md is required")
	}
	return nil
}

// StatusLog renders the status log, with the inbox password redacted until revealed.
func (p Pack) StatusLog(revealed bool) string {
	pw := "█████████ [REDACTED]"
	if revealed {
		pw = p.InboxPassword
	}
	return strings.ReplaceAll(p.Docs.StatusLogMD, "{password}", pw)
}

// EmailBody fills the per-session placeholders of an email body.
func (e Email) EmailBody(fakeTime string) string {
	return strings.ReplaceAll(e.Body, "{fake_time}", fakeTime)
}

func (p Pack) Lore(cycle int) string {
	return strings.ReplaceAll(p.Docs.LoreMD, "{cycle}", fmt.Sprint(cycle))
}
