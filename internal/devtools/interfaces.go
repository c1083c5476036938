package devtools

import "context"

type Demo interface {
	Resolve(name string) (Scenario, bool)
	Names() []string
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
}
