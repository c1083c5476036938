// Package content loads the narrative pack: menus, emails, headlines and the
// desktop documents. A default pack is embedded in the binary.
package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed pack.yaml
var defaultPack []byte

func Default() (Pack, error) {
	p, err := parse(defaultPack)
	if err != nil {
		return p, fmt.Errorf("embedded pack: %w", err)
	}
	return p, nil
}

// Load reads a pack from disk. An empty path returns the embedded pack.
func Load(path string) (Pack, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, err
	}
	p, err := parse(b)
	if err != nil {
		return p, fmt.Errorf("load pack %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

func parse(b []byte) (Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("validate: %w", err)
	}
	return p, nil
}
