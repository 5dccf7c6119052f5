// Package migrations runs version gated codemods that bring a plugin
// project from the create-plugin version it was last updated with to the
// current one.
package migrations

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/grafana/create-plugin/internal/codemods"
)

// LegacyUpdateCutoffVersion tags migrations written before updates were
// driven by migrations. Do not use it for new ones.
const LegacyUpdateCutoffVersion = "5.13.0"

type Migration struct {
	Name        string
	Description string
	Version     string
	Script      codemods.Script
}

type Registry struct {
	migrations []Migration
	versions   map[string]*semver.Version
}

func NewRegistry() *Registry {
	return &Registry{versions: make(map[string]*semver.Version)}
}

func (r *Registry) Register(m Migration) error {
	if m.Name == "" {
		return fmt.Errorf("migration name is required")
	}
	if _, exists := r.versions[m.Name]; exists {
		return fmt.Errorf("migration %q already registered", m.Name)
	}
	if m.Script == nil {
		return fmt.Errorf("migration %q has no script", m.Name)
	}
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("migration %q: %w: %q", m.Name, codemods.ErrInvalidVersion, m.Version)
	}
	r.versions[m.Name] = v
	r.migrations = append(r.migrations, m)
	return nil
}

// MustRegister registers migrations and panics on the first error.
func (r *Registry) MustRegister(ms ...Migration) {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (Migration, error) {
	for _, m := range r.migrations {
		if m.Name == name {
			return m, nil
		}
	}
	return Migration{}, fmt.Errorf("%w: migration %q (available: %v)", codemods.ErrUnknownCodemod, name, r.Names())
}

// All returns migrations in declaration order.
func (r *Registry) All() []Migration {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.migrations))
	for _, m := range r.migrations {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Latest returns the highest migration version, or "" for an empty registry.
func (r *Registry) Latest() string {
	var latest *semver.Version
	for _, v := range r.versions {
		if latest == nil || v.GreaterThan(latest) {
			latest = v
		}
	}
	if latest == nil {
		return ""
	}
	return latest.String()
}

// Select returns the migrations with from < version <= to, lowest version
// first. Migrations sharing a version keep their declaration order.
func (r *Registry) Select(from, to string) ([]Migration, error) {
	fromV, err := semver.NewVersion(from)
	if err != nil {
		return nil, fmt.Errorf("%w: from version %q", codemods.ErrInvalidVersion, from)
	}
	toV, err := semver.NewVersion(to)
	if err != nil {
		return nil, fmt.Errorf("%w: to version %q", codemods.ErrInvalidVersion, to)
	}
	if !fromV.LessThan(toV) {
		return nil, nil
	}

	var selected []Migration
	for _, m := range r.migrations {
		v := r.versions[m.Name]
		if v.GreaterThan(fromV) && !v.GreaterThan(toV) {
			selected = append(selected, m)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return r.versions[selected[i].Name].LessThan(r.versions[selected[j].Name])
	})
	return selected, nil
}
