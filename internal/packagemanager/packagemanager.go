// Package packagemanager detects which Node package manager a plugin uses
// and installs dependencies with it after package.json changes.
package packagemanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/fs"
)

const (
	NPM  = "npm"
	Yarn = "yarn"
	PNPM = "pnpm"
)

// lockfiles in lookup order.
var lockfiles = []struct {
	file string
	name string
}{
	{"yarn.lock", Yarn},
	{"pnpm-lock.yaml", PNPM},
	{"package-lock.json", NPM},
}

// PackageManager names a package manager and, when known, its version.
type PackageManager struct {
	Name    string
	Version string
}

// Default is used when neither package.json nor a lockfile says otherwise.
var Default = PackageManager{Name: Yarn, Version: "1.22.22"}

// InstallArgs returns the command line that installs dependencies quietly.
func (p PackageManager) InstallArgs() []string {
	switch p.Name {
	case Yarn:
		return []string{"yarn", "install", "--silent"}
	case PNPM:
		return []string{"pnpm", "install", "--silent"}
	default:
		return []string{"npm", "install", "--silent"}
	}
}

func (p PackageManager) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "@" + p.Version
}

// Detect resolves the package manager for the project at root. The
// packageManager field in package.json wins, then the closest lockfile
// found walking up from root.
func Detect(fsys fs.FS, root string) PackageManager {
	if pm, ok := fromPackageJSON(fsys, root); ok {
		return pm
	}
	if pm, ok := fromLockfile(fsys, root); ok {
		return pm
	}
	return Default
}

func fromPackageJSON(fsys fs.FS, root string) (PackageManager, bool) {
	data, err := fsys.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return PackageManager{}, false
	}
	var pkg struct {
		PackageManager string `json:"packageManager"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.PackageManager == "" {
		return PackageManager{}, false
	}
	name, version, _ := strings.Cut(pkg.PackageManager, "@")
	// corepack pins may carry a "+sha..." integrity suffix
	version, _, _ = strings.Cut(version, "+")
	return PackageManager{Name: name, Version: version}, true
}

func fromLockfile(fsys fs.FS, root string) (PackageManager, bool) {
	dir := filepath.Clean(root)
	for {
		for _, lf := range lockfiles {
			if _, err := fsys.Stat(filepath.Join(dir, lf.file)); err == nil {
				return PackageManager{Name: lf.name}, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return PackageManager{}, false
		}
		dir = parent
	}
}

// CommandFunc runs name with args in dir. Tests swap it out.
type CommandFunc func(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) error

func execCommand(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Installer runs the detected package manager's install command.
type Installer struct {
	fs     fs.FS
	logger *log.Logger
	run    CommandFunc
	stdout io.Writer
}

type Option func(*Installer)

func WithFS(fsys fs.FS) Option {
	return func(i *Installer) { i.fs = fsys }
}

func WithLogger(logger *log.Logger) Option {
	return func(i *Installer) { i.logger = logger }
}

func WithCommand(run CommandFunc) Option {
	return func(i *Installer) { i.run = run }
}

// WithOutput sends the install command's stdout to w instead of discarding it.
func WithOutput(w io.Writer) Option {
	return func(i *Installer) { i.stdout = w }
}

func NewInstaller(opts ...Option) *Installer {
	i := &Installer{
		fs:     fs.Default,
		run:    execCommand,
		stdout: io.Discard,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = log.New(io.Discard)
	}
	return i
}

func (i *Installer) Install(ctx context.Context, root string) error {
	pm := Detect(i.fs, root)
	args := pm.InstallArgs()
	i.logger.Info("Installing dependencies", "packageManager", pm.String())

	var stderr bytes.Buffer
	if err := i.run(ctx, root, i.stdout, &stderr, args[0], args[1:]...); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s failed: %w", strings.Join(args, " "), err)
		}
		return fmt.Errorf("%s failed: %w\n%s", strings.Join(args, " "), err, msg)
	}
	return nil
}
