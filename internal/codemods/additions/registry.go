// Package additions runs opt-in codemods that add a feature to a plugin
// project, such as internationalisation support. Additions are selected by
// name rather than by version.
package additions

import (
	"fmt"
	"sort"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/additions/scripts"
)

type Addition struct {
	Name        string
	Description string
	Script      codemods.Script
}

type Registry struct {
	additions map[string]Addition
}

func NewRegistry() *Registry {
	return &Registry{additions: make(map[string]Addition)}
}

func (r *Registry) Register(a Addition) error {
	if a.Name == "" {
		return fmt.Errorf("addition name is required")
	}
	if _, exists := r.additions[a.Name]; exists {
		return fmt.Errorf("addition %q already registered", a.Name)
	}
	if a.Script == nil {
		return fmt.Errorf("addition %q has no script", a.Name)
	}
	r.additions[a.Name] = a
	return nil
}

// MustRegister registers additions and panics on the first error.
func (r *Registry) MustRegister(as ...Addition) {
	for _, a := range as {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (Addition, error) {
	a, ok := r.additions[name]
	if !ok {
		return Addition{}, fmt.Errorf("%w: addition %q (available: %v)", codemods.ErrUnknownCodemod, name, r.Names())
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.additions))
	for name := range r.additions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every addition sorted by name.
func (r *Registry) All() []Addition {
	out := make([]Addition, 0, len(r.additions))
	for _, name := range r.Names() {
		out = append(out, r.additions[name])
	}
	return out
}

// Default returns the additions shipped with create-plugin.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(
		Addition{
			Name:        "i18n",
			Description: "Adds internationalization (i18n) support to the plugin",
			Script:      scripts.I18n,
		},
		Addition{
			Name:        "example-addition",
			Description: "Example addition demonstrating typed, validated options",
			Script:      scripts.Example,
		},
	)
	return r
}
