// Package workspace manages the source/staging/out directories used by a
// split run.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

const (
	dirPerm  = 0o755
	lockName = ".splitepub.lock"
)

// ErrLocked is returned when another run holds the workspace lock.
var ErrLocked = errors.New("workspace is in use by another run")

// Workspace is the set of directories owned by one run.
type Workspace struct {
	Root    string
	Source  string
	Staging string
	Out     string

	lock *flock.Flock
}

// New returns a workspace rooted at root. Nothing is touched on disk.
func New(root string) *Workspace {
	return &Workspace{
		Root:    root,
		Source:  filepath.Join(root, "source"),
		Staging: filepath.Join(root, "staging"),
		Out:     filepath.Join(root, "out"),
		lock:    flock.New(filepath.Join(root, lockName)),
	}
}

// Lock takes an exclusive lock on the workspace root.
func (w *Workspace) Lock() error {
	if err := os.MkdirAll(w.Root, dirPerm); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, w.lock.Path())
	}
	return nil
}

// Unlock releases the workspace lock.
func (w *Workspace) Unlock() error {
	return w.lock.Unlock()
}

// Prepare wipes the three workspace directories and recreates them empty.
func (w *Workspace) Prepare() error {
	for _, dir := range []string{w.Staging, w.Out, w.Source} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// BookDir returns the staging directory for the given book number.
func (w *Workspace) BookDir(number int) string {
	return filepath.Join(w.Staging, "book"+strconv.Itoa(number))
}

// MkdirAll creates dir and its parents with the workspace permissions.
func MkdirAll(dir string) error {
	return os.MkdirAll(dir, dirPerm)
}
