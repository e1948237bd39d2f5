// package arena allocates and tracks per-job scratch directories.
//
// Every job gets a freshly created, exclusively owned directory for the
// engine's output files. The arena guarantees cleanup through explicit
// disposal or the shutdown sweep; directories allocated by a process killed
// without running its shutdown path are leaked on disk and left for external
// cleanup.
package arena

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dlx/internal/shared"
)

// Arena tracks scratch directories for active jobs. All methods are safe for
// concurrent use by workers, the retrieval gateway, and the shutdown sweep.
type Arena struct {
	mu      sync.Mutex
	tracked map[string]struct{}
	root    string
	logger  *log.Logger
}

// New creates an Arena rooted at dir. An empty dir uses the system temp
// directory.
func New(dir string, logger *log.Logger) *Arena {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Arena{
		tracked: make(map[string]struct{}),
		root:    dir,
		logger:  logger,
	}
}

// Allocate creates a new uniquely named empty scratch directory and registers
// it for cleanup.
func (a *Arena) Allocate() (string, error) {
	dir, err := os.MkdirTemp(a.root, "dlx-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	a.mu.Lock()
	a.tracked[dir] = struct{}{}
	a.mu.Unlock()

	return dir, nil
}

// Dispose recursively removes the directory and unregisters it. Disposal is
// idempotent: a missing or already-disposed path is not an error.
func (a *Arena) Dispose(path string) error {
	a.mu.Lock()
	delete(a.tracked, path)
	a.mu.Unlock()

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", path, err)
	}
	return nil
}

// Tracked reports whether the path is currently registered.
func (a *Arena) Tracked(path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tracked[path]
	return ok
}

// SweepAll disposes every still-registered directory. Called on process
// shutdown as a safety net for jobs whose caller never disposed them.
func (a *Arena) SweepAll() {
	a.mu.Lock()
	paths := make([]string, 0, len(a.tracked))
	for path := range a.tracked {
		paths = append(paths, path)
	}
	a.mu.Unlock()

	for _, path := range paths {
		if err := a.Dispose(path); err != nil {
			a.logger.Error("failed to sweep scratch directory", "path", path, "error", err)
			continue
		}
		a.logger.Info("cleaned up scratch directory", "path", path)
	}
}
