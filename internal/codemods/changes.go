package codemods

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

type ChangeType string

const (
	ChangeNone   ChangeType = "none"
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
	ChangeRename ChangeType = "rename"
)

// Change is one entry of a change report. RenamedFrom is only set for
// renames.
type Change struct {
	Path        string     `json:"path"`
	Type        ChangeType `json:"changeType"`
	RenamedFrom string     `json:"renamedFrom,omitempty"`
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
}

// Diff returns the net changes between two snapshots of the same project,
// typically a Clone taken before a codemod ran and the context after it.
func Diff(before, after *Context) []Change {
	paths := make(map[string]struct{})
	for p := range before.files {
		paths[p] = struct{}{}
	}
	for p := range after.files {
		paths[p] = struct{}{}
	}
	for _, snapshot := range []*Context{before, after} {
		for p := range snapshot.sources {
			paths[p] = struct{}{}
		}
	}

	var changes []Change
	consumed := make(map[string]bool)

	for p := range paths {
		e := after.files[p]
		if e == nil || e.change != ChangeRename {
			continue
		}
		if prev := before.files[p]; prev != nil && prev.change == ChangeRename && prev.renamedFrom == e.renamedFrom {
			continue
		}
		if _, had := before.lookup(p); had {
			continue
		}
		if _, srcBefore := before.lookup(e.renamedFrom); !srcBefore {
			continue
		}
		if _, srcAfter := after.lookup(e.renamedFrom); srcAfter {
			continue
		}
		changes = append(changes, Change{Path: p, Type: ChangeRename, RenamedFrom: e.renamedFrom})
		consumed[p] = true
		consumed[e.renamedFrom] = true
	}

	for p := range paths {
		if consumed[p] {
			continue
		}
		bc, bok := before.lookup(p)
		ac, aok := after.lookup(p)
		switch {
		case !bok && aok:
			changes = append(changes, Change{Path: p, Type: ChangeAdd})
		case bok && !aok:
			changes = append(changes, Change{Path: p, Type: ChangeDelete})
		case bok && aok && bc != ac:
			changes = append(changes, Change{Path: p, Type: ChangeUpdate})
		}
	}

	sortChanges(changes)
	return changes
}

// ContentDiff renders a unified diff between the on-disk content and the
// pending content of path.
func ContentDiff(c *Context, p string) (string, error) {
	p = c.normalise(p)
	fromPath := p
	if e := c.files[p]; e != nil && e.change == ChangeRename {
		fromPath = e.renamedFrom
	}

	before, _ := c.readDisk(fromPath)
	after, _ := c.lookup(p)

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + fromPath,
		ToFile:   "b/" + p,
		Context:  3,
	})
}
