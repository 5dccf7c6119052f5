// Package codemods implements the virtual file context that migrations and
// additions edit, the change tracker derived from it, and the batch runner
// that applies a list of codemods to a plugin project.
//
// Scripts never touch disk. Every edit is recorded in a Context and only
// written out by Flush, so a failed script leaves the project untouched.
package codemods

import (
	"errors"
	"io"
	"iter"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/fs"
)

type fileEntry struct {
	content     string
	change      ChangeType
	renamedFrom string
	// dirty marks a rename whose content differs from the source on disk.
	dirty bool
}

func (e *fileEntry) clone() *fileEntry {
	c := *e
	return &c
}

// Context is an in-memory overlay of pending edits on top of a project
// directory. It is not safe for concurrent use.
type Context struct {
	root   string
	fs     fs.FS
	logger *log.Logger
	files  map[string]*fileEntry
	// sources maps the disk path of every pending rename to its target.
	// A source reads as absent unless files holds a new entry for it.
	sources map[string]string
}

type ContextOption func(*Context)

func WithFS(fsys fs.FS) ContextOption {
	return func(c *Context) {
		c.fs = fsys
	}
}

func WithLogger(logger *log.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates an empty overlay rooted at root.
func NewContext(root string, opts ...ContextOption) *Context {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	c := &Context{
		root:    filepath.Clean(root),
		fs:      fs.Default,
		files:   make(map[string]*fileEntry),
		sources: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

func (c *Context) Root() string {
	return c.root
}

func (c *Context) Logger() *log.Logger {
	return c.logger
}

// Clone returns a deep copy of the pending state sharing the same root,
// filesystem and logger.
func (c *Context) Clone() *Context {
	clone := &Context{
		root:    c.root,
		fs:      c.fs,
		logger:  c.logger,
		files:   make(map[string]*fileEntry, len(c.files)),
		sources: make(map[string]string, len(c.sources)),
	}
	for p, e := range c.files {
		clone.files[p] = e.clone()
	}
	for from, to := range c.sources {
		clone.sources[from] = to
	}
	return clone
}

// normalise maps any spelling of a project path ("./a/b", "/a/b", "a/../a/b",
// or an absolute path under root) to the slash separated relative key.
func (c *Context) normalise(p string) string {
	p = filepath.ToSlash(p)
	if root := filepath.ToSlash(c.root); p == root {
		p = ""
	} else if strings.HasPrefix(p, root+"/") {
		p = strings.TrimPrefix(p, root)
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}

func (c *Context) abs(p string) string {
	return filepath.Join(c.root, filepath.FromSlash(p))
}

func (c *Context) readDisk(p string) (string, bool) {
	info, err := c.fs.Stat(c.abs(p))
	if err != nil || info.IsDir() {
		return "", false
	}
	data, err := c.fs.ReadFile(c.abs(p))
	if err != nil {
		c.logger.Debug("could not read file", "path", p, "err", err)
		return "", false
	}
	return string(data), true
}

// readBase returns what p holds once pending renames have moved their
// sources away.
func (c *Context) readBase(p string) (string, bool) {
	if _, moved := c.sources[p]; moved {
		return "", false
	}
	return c.readDisk(p)
}

func (c *Context) isDiskDir(p string) bool {
	info, err := c.fs.Stat(c.abs(p))
	return err == nil && info.IsDir()
}

func (c *Context) lookup(p string) (string, bool) {
	if e, ok := c.files[p]; ok {
		if e.change == ChangeDelete {
			return "", false
		}
		return e.content, true
	}
	return c.readBase(p)
}

// put records content at p as an add or an update depending on disk state.
// Writing back the on-disk content drops the entry.
func (c *Context) put(p, content string) {
	if disk, ok := c.readBase(p); ok {
		if disk == content {
			delete(c.files, p)
			return
		}
		c.files[p] = &fileEntry{content: content, change: ChangeUpdate}
		return
	}
	c.files[p] = &fileEntry{content: content, change: ChangeAdd}
}

func (c *Context) setRenameTarget(to, origin, content string) {
	c.sources[origin] = to
	disk, _ := c.readDisk(origin)
	c.files[to] = &fileEntry{
		content:     content,
		change:      ChangeRename,
		renamedFrom: origin,
		dirty:       disk != content,
	}
}

// vacate is called when an add or rename target moves away from p.
func (c *Context) vacate(p string) {
	delete(c.files, p)
	if _, ok := c.readBase(p); ok {
		c.files[p] = &fileEntry{change: ChangeDelete}
	}
}

// release drops the pending rename of origin. The disk file then stays
// where it is, so whatever origin showed while it was moved away has to be
// restated against it.
func (c *Context) release(origin string) {
	delete(c.sources, origin)
	e := c.files[origin]
	switch {
	case e == nil:
		c.files[origin] = &fileEntry{change: ChangeDelete}
	case e.change == ChangeAdd:
		c.put(origin, e.content)
	}
}

// GetFile returns the current content of path, pending edits included.
func (c *Context) GetFile(p string) (string, bool) {
	return c.lookup(c.normalise(p))
}

func (c *Context) DoesFileExist(p string) bool {
	_, ok := c.lookup(c.normalise(p))
	return ok
}

// AddFile creates a new file. It fails with ErrAlreadyExists if the path
// currently holds a file.
func (c *Context) AddFile(p, content string) error {
	p = c.normalise(p)
	if _, ok := c.lookup(p); ok {
		return &PathError{Op: "add", Path: p, Err: ErrAlreadyExists}
	}
	if c.isDiskDir(p) {
		return &PathError{Op: "add", Path: p, Err: errors.New("is a directory")}
	}

	c.put(p, content)

	c.logger.Debug("file added", "path", p)
	return nil
}

// UpdateFile replaces the content of an existing file.
func (c *Context) UpdateFile(p, content string) error {
	p = c.normalise(p)
	current, ok := c.lookup(p)
	if !ok {
		return &PathError{Op: "update", Path: p, Err: ErrNotFound}
	}
	if current == content {
		c.logger.Debug("file unchanged", "path", p)
		return nil
	}

	e := c.files[p]
	switch {
	case e == nil || e.change == ChangeUpdate:
		c.put(p, content)
	case e.change == ChangeRename:
		disk, _ := c.readDisk(e.renamedFrom)
		e.content = content
		e.dirty = disk != content
	default:
		e.content = content
	}

	c.logger.Debug("file updated", "path", p)
	return nil
}

// DeleteFile removes a file. Deleting a file added in this session forgets
// it entirely.
func (c *Context) DeleteFile(p string) error {
	p = c.normalise(p)
	if _, ok := c.lookup(p); !ok {
		return &PathError{Op: "delete", Path: p, Err: ErrNotFound}
	}

	e := c.files[p]
	switch {
	case e == nil || e.change == ChangeUpdate:
		c.files[p] = &fileEntry{change: ChangeDelete}
	case e.change == ChangeRename:
		if c.sources[e.renamedFrom] == p {
			c.release(e.renamedFrom)
		}
		c.vacate(p)
	default:
		c.vacate(p)
	}

	c.logger.Debug("file deleted", "path", p)
	return nil
}

// RenameFile moves a file, recorded as a single rename change.
func (c *Context) RenameFile(from, to string) error {
	from, to = c.normalise(from), c.normalise(to)
	content, ok := c.lookup(from)
	if !ok {
		return &PathError{Op: "rename", Path: from, Err: ErrNotFound}
	}
	if from == to {
		return nil
	}
	if _, ok := c.lookup(to); ok {
		return &PathError{Op: "rename", Path: to, Err: ErrAlreadyExists}
	}
	if c.isDiskDir(to) {
		return &PathError{Op: "rename", Path: to, Err: errors.New("is a directory")}
	}

	e := c.files[from]
	switch {
	case e == nil || e.change == ChangeUpdate:
		delete(c.files, from)
		c.setRenameTarget(to, from, content)
	case e.change == ChangeAdd:
		c.vacate(from)
		c.put(to, content)
	case e.change == ChangeRename:
		origin := e.renamedFrom
		c.vacate(from)
		if to == origin {
			delete(c.sources, origin)
			c.put(origin, content)
			break
		}
		c.setRenameTarget(to, origin, content)
	}

	c.logger.Debug("file renamed", "from", from, "to", to)
	return nil
}

// ReadDir yields the sorted direct children of dir as root relative paths,
// merging what is on disk with pending edits. The sequence is evaluated on
// each iteration.
func (c *Context) ReadDir(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		d := c.normalise(dir)
		join := func(name string) string {
			if d == "." {
				return name
			}
			return d + "/" + name
		}

		children := make(map[string]struct{})
		if entries, err := c.fs.ReadDir(c.abs(d)); err == nil {
			for _, entry := range entries {
				child := join(entry.Name())
				if !entry.IsDir() {
					if _, ok := c.lookup(child); !ok {
						continue
					}
				}
				children[child] = struct{}{}
			}
		}

		prefix := join("")
		for p, e := range c.files {
			if e.change == ChangeDelete || !strings.HasPrefix(p, prefix) {
				continue
			}
			rest := strings.TrimPrefix(p, prefix)
			if i := strings.Index(rest, "/"); i >= 0 {
				rest = rest[:i]
			}
			children[join(rest)] = struct{}{}
		}

		sorted := make([]string, 0, len(children))
		for child := range children {
			sorted = append(sorted, child)
		}
		sort.Strings(sorted)

		for _, child := range sorted {
			if !yield(child) {
				return
			}
		}
	}
}

// ListChanges returns the pending changes sorted by path.
func (c *Context) ListChanges() []Change {
	changes := make([]Change, 0, len(c.files))
	for p, e := range c.files {
		changes = append(changes, Change{Path: p, Type: e.change, RenamedFrom: e.renamedFrom})
	}
	sortChanges(changes)
	return changes
}

func (c *Context) HasChanges() bool {
	return len(c.files) > 0
}
