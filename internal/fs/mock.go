package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileInfo implements os.FileInfo for mock files.
type MockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (m *MockFileInfo) Name() string       { return m.name }
func (m *MockFileInfo) Size() int64        { return m.size }
func (m *MockFileInfo) Mode() os.FileMode  { return m.mode }
func (m *MockFileInfo) ModTime() time.Time { return m.modTime }
func (m *MockFileInfo) IsDir() bool        { return m.isDir }
func (m *MockFileInfo) Sys() interface{}   { return nil }

// MockFS implements FS using an in-memory file system for testing.
// Paths are cleaned; parent directories are tracked implicitly so ReadDir
// works for anything written through the mock.
type MockFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	perms map[string]os.FileMode
	dirs  map[string]bool
	fail  map[string]error
}

// NewMockFS creates a new MockFS with empty storage.
func NewMockFS() *MockFS {
	return &MockFS{
		files: make(map[string][]byte),
		perms: make(map[string]os.FileMode),
		dirs:  make(map[string]bool),
		fail:  make(map[string]error),
	}
}

func notFound(op, path string) error {
	return &os.PathError{Op: op, Path: path, Err: os.ErrNotExist}
}

// FailOn makes the given operation ("write", "remove", "rename") fail with err
// when it targets path. For rename the target is the destination path.
func (m *MockFS) FailOn(op, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op+":"+filepath.Clean(path)] = err
}

func (m *MockFS) injected(op, path string) error {
	if err, ok := m.fail[op+":"+path]; ok {
		return &os.PathError{Op: op, Path: path, Err: err}
	}
	return nil
}

// addParents marks every ancestor of path as a directory. Callers hold mu.
func (m *MockFS) addParents(path string) {
	dir := filepath.Dir(path)
	for dir != "." && dir != string(filepath.Separator) && !m.dirs[dir] {
		m.dirs[dir] = true
		dir = filepath.Dir(dir)
	}
	m.dirs[string(filepath.Separator)] = true
}

// ReadFile reads the file at path from memory.
func (m *MockFS) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cleanPath := filepath.Clean(path)
	data, ok := m.files[cleanPath]
	if !ok {
		return nil, notFound("read", path)
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// WriteFile writes data to the file at path in memory.
func (m *MockFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if err := m.injected("write", cleanPath); err != nil {
		return err
	}
	if m.dirs[cleanPath] {
		return &os.PathError{Op: "write", Path: path, Err: errors.New("is a directory")}
	}

	m.addParents(cleanPath)
	m.files[cleanPath] = make([]byte, len(data))
	copy(m.files[cleanPath], data)
	m.perms[cleanPath] = perm

	return nil
}

// MkdirAll creates all directories in the path.
func (m *MockFS) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if _, ok := m.files[cleanPath]; ok {
		return &os.PathError{Op: "mkdir", Path: path, Err: errors.New("not a directory")}
	}
	if cleanPath != "." {
		m.dirs[cleanPath] = true
	}
	m.addParents(cleanPath)

	return nil
}

// Stat returns file info for the given path.
func (m *MockFS) Stat(path string) (os.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cleanPath := filepath.Clean(path)

	if data, ok := m.files[cleanPath]; ok {
		perm := m.perms[cleanPath]
		if perm == 0 {
			perm = 0644
		}
		return &MockFileInfo{
			name:    filepath.Base(cleanPath),
			size:    int64(len(data)),
			mode:    perm,
			modTime: time.Now(),
		}, nil
	}

	if m.dirs[cleanPath] || cleanPath == "." {
		return &MockFileInfo{
			name:    filepath.Base(cleanPath),
			mode:    0755 | os.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		}, nil
	}

	return nil, notFound("stat", path)
}

// ReadDir lists the direct children of the directory at path.
func (m *MockFS) ReadDir(path string) ([]os.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cleanPath := filepath.Clean(path)
	if !m.dirs[cleanPath] {
		return nil, notFound("readdir", path)
	}

	prefix := cleanPath + string(filepath.Separator)
	if cleanPath == string(filepath.Separator) {
		prefix = cleanPath
	}

	seen := make(map[string]os.DirEntry)
	collect := func(p string, isDir bool) {
		if !strings.HasPrefix(p, prefix) || p == cleanPath {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		if strings.Contains(rest, string(filepath.Separator)) {
			return
		}
		info := &MockFileInfo{name: rest, mode: 0644, modTime: time.Now(), isDir: isDir}
		if isDir {
			info.mode = 0755 | os.ModeDir
		} else {
			info.size = int64(len(m.files[p]))
		}
		seen[rest] = iofs.FileInfoToDirEntry(info)
	}
	for p := range m.files {
		collect(p, false)
	}
	for p := range m.dirs {
		collect(p, true)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]os.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, seen[name])
	}
	return entries, nil
}

// Remove removes the file or empty directory at path.
func (m *MockFS) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if err := m.injected("remove", cleanPath); err != nil {
		return err
	}
	if _, ok := m.files[cleanPath]; ok {
		delete(m.files, cleanPath)
		delete(m.perms, cleanPath)
		return nil
	}
	if m.dirs[cleanPath] {
		delete(m.dirs, cleanPath)
		return nil
	}
	return notFound("remove", path)
}

// Rename renames oldpath to newpath.
func (m *MockFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleanOld := filepath.Clean(oldpath)
	cleanNew := filepath.Clean(newpath)

	if err := m.injected("rename", cleanNew); err != nil {
		return err
	}

	data, ok := m.files[cleanOld]
	if !ok {
		return notFound("rename", oldpath)
	}

	m.addParents(cleanNew)
	m.files[cleanNew] = data
	m.perms[cleanNew] = m.perms[cleanOld]
	delete(m.files, cleanOld)
	delete(m.perms, cleanOld)

	return nil
}

// AddFile adds a file with content to the mock FS for testing.
func (m *MockFS) AddFile(path string, content []byte, perm os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cleanPath := filepath.Clean(path)
	m.addParents(cleanPath)
	m.files[cleanPath] = make([]byte, len(content))
	copy(m.files[cleanPath], content)
	m.perms[cleanPath] = perm
}

// AddDir adds a directory to the mock FS for testing.
func (m *MockFS) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cleanPath := filepath.Clean(path)
	m.dirs[cleanPath] = true
	m.addParents(cleanPath)
}

// FileExists checks if a file exists in the mock FS.
func (m *MockFS) FileExists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// DirExists checks if a directory exists in the mock FS.
func (m *MockFS) DirExists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[filepath.Clean(path)]
}

// Files returns the sorted paths of every file in the mock FS.
func (m *MockFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reset clears all files and directories from the mock FS.
func (m *MockFS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string][]byte)
	m.perms = make(map[string]os.FileMode)
	m.dirs = make(map[string]bool)
	m.fail = make(map[string]error)
}
