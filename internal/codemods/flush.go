package codemods

import (
	"maps"
	"path/filepath"
	"slices"
	"sort"

	"github.com/grafana/create-plugin/internal/fs"
)

func (c *Context) pathsWith(change ChangeType) []string {
	var paths []string
	for p, e := range c.files {
		if e.change == change {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Flush writes every pending change to disk: renames first, then deletes,
// then adds and updates. Each write is atomic per file. On the first
// failure it stops and returns a *FlushError listing what was already
// applied. Rename sources that were staged but not yet placed are moved
// back first. After a successful flush the context is empty.
func (c *Context) Flush() error {
	var applied []string
	// staged maps a rename target to the temporary name its source sits at.
	staged := make(map[string]string)

	unstage := func() []string {
		var stranded []string
		for _, p := range slices.Sorted(maps.Keys(staged)) {
			src := c.abs(c.files[p].renamedFrom)
			// A placed rename may already occupy the source.
			if _, err := c.fs.Stat(src); err == nil {
				c.logger.Error("rename source is taken", "path", c.files[p].renamedFrom, "staged", staged[p])
				stranded = append(stranded, staged[p])
				continue
			}
			if err := c.fs.Rename(staged[p], src); err != nil {
				c.logger.Error("could not restore rename source", "path", c.files[p].renamedFrom, "staged", staged[p], "err", err)
				stranded = append(stranded, staged[p])
				continue
			}
			delete(staged, p)
		}
		return stranded
	}
	fail := func(op, p string, err error) error {
		c.logger.Error("flush failed", "op", op, "path", p, "err", err)
		return &FlushError{Applied: applied, Failed: p, Op: op, Err: err, Stranded: unstage()}
	}

	// Renames go through staging names so chains and swaps cannot clobber
	// a source that has not moved yet.
	renames := c.pathsWith(ChangeRename)
	for _, p := range renames {
		src := c.abs(c.files[p].renamedFrom)
		tmp := fs.TempName(src, "rename")
		if err := c.fs.Rename(src, tmp); err != nil {
			return fail("rename", c.files[p].renamedFrom, err)
		}
		staged[p] = tmp
	}
	for _, p := range renames {
		e := c.files[p]
		if err := c.fs.MkdirAll(filepath.Dir(c.abs(p)), 0755); err != nil {
			return fail("rename", p, err)
		}
		if err := c.fs.Rename(staged[p], c.abs(p)); err != nil {
			return fail("rename", p, err)
		}
		delete(staged, p)
		if e.dirty {
			if err := fs.WriteFileAtomic(c.fs, c.abs(p), []byte(e.content)); err != nil {
				return fail("write", p, err)
			}
		}
		applied = append(applied, p)
		c.logger.Debug("renamed", "from", e.renamedFrom, "to", p)
	}

	for _, p := range c.pathsWith(ChangeDelete) {
		if _, moved := c.sources[p]; moved {
			continue
		}
		if err := c.fs.Remove(c.abs(p)); err != nil {
			return fail("delete", p, err)
		}
		applied = append(applied, p)
		c.logger.Debug("deleted", "path", p)
	}

	writes := append(c.pathsWith(ChangeAdd), c.pathsWith(ChangeUpdate)...)
	sort.Strings(writes)
	for _, p := range writes {
		if err := fs.WriteFileAtomic(c.fs, c.abs(p), []byte(c.files[p].content)); err != nil {
			return fail("write", p, err)
		}
		applied = append(applied, p)
		c.logger.Debug("wrote", "path", p)
	}

	c.files = make(map[string]*fileEntry)
	c.sources = make(map[string]string)
	return nil
}
