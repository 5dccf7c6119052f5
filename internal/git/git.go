// Package git checkpoints codemod runs as commits in the plugin repository.
package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var ErrNotRepository = errors.New("not a git repository")

const (
	fallbackName  = "create-plugin"
	fallbackEmail = "create-plugin@grafana.com"
)

func open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// IsRepository reports whether path is inside a git work tree.
func IsRepository(path string) bool {
	_, err := open(path)
	return err == nil
}

// IsClean reports whether the work tree containing path has no staged,
// modified or untracked files.
func IsClean(path string) (bool, error) {
	repo, err := open(path)
	if err != nil {
		return false, err
	}
	w, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

// Committer stages every change in the work tree and commits it.
type Committer struct {
	// Name and Email override the author read from git config.
	Name  string
	Email string
	now   func() time.Time
}

func NewCommitter() *Committer {
	return &Committer{now: time.Now}
}

// CommitAll stages additions, modifications and deletions under root and
// records them as a single commit. A clean work tree is not an error.
func (c *Committer) CommitAll(ctx context.Context, root, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo, err := open(root)
	if err != nil {
		return err
	}
	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := w.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	if _, err := w.Commit(message, &gogit.CommitOptions{Author: c.signature(repo)}); err != nil {
		return fmt.Errorf("failed to commit %q: %w", message, err)
	}
	return nil
}

func (c *Committer) signature(repo *gogit.Repository) *object.Signature {
	name, email := c.Name, c.Email
	if cfg, err := repo.ConfigScoped(config.GlobalScope); err == nil {
		if name == "" {
			name = cfg.User.Name
		}
		if email == "" {
			email = cfg.User.Email
		}
	}
	if name == "" {
		name = fallbackName
	}
	if email == "" {
		email = fallbackEmail
	}
	now := c.now
	if now == nil {
		now = time.Now
	}
	return &object.Signature{Name: name, Email: email, When: now()}
}
