package jobs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dlx/internal/arena"
	"github.com/desertthunder/dlx/internal/progress"
	"github.com/desertthunder/dlx/internal/shared"
)

// Gateway exposes finished artifacts for retrieval and drives their
// disposal. Disposal releases the artifact file, the owning scratch
// directory, and the tracker entry.
type Gateway struct {
	tracker *progress.Tracker
	arena   *arena.Arena
	logger  *log.Logger
}

// NewGateway creates a Gateway over the orchestrator's tracker and arena.
func NewGateway(tracker *progress.Tracker, ar *arena.Arena, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Gateway{tracker: tracker, arena: ar, logger: logger}
}

// Open returns a reader over the finished artifact and its download
// filename. It fails with [shared.ErrNotFound] for unknown identities or
// when the artifact vanished from disk (e.g. disposed concurrently), and
// with [shared.ErrNotReady] while the job is still running.
func (g *Gateway) Open(id string) (io.ReadCloser, string, error) {
	status := g.tracker.Get(id)

	switch status.State {
	case progress.StateNotFound:
		return nil, "", fmt.Errorf("%w: unknown download id %s", shared.ErrNotFound, id)
	case progress.StateFinished:
	default:
		return nil, "", fmt.Errorf("%w: download %s is %s", shared.ErrNotReady, id, status.State)
	}

	f, err := os.Open(status.Filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: artifact no longer exists", shared.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, filepath.Base(status.Filename), nil
}

// Dispose deletes a finished job's artifact and scratch directory, then
// removes the tracker entry unconditionally. Disposal is idempotent and
// never gets stuck: partial deletion failures are logged as warnings and the
// entry is removed regardless.
func (g *Gateway) Dispose(id string) {
	status := g.tracker.Get(id)

	if status.State == progress.StateFinished && status.Filename != "" {
		if err := os.Remove(status.Filename); err != nil && !os.IsNotExist(err) {
			g.logger.Warn("could not remove artifact", "id", id, "path", status.Filename, "error", err)
		}
		if err := g.arena.Dispose(filepath.Dir(status.Filename)); err != nil {
			g.logger.Warn("could not remove scratch directory", "id", id, "error", err)
		}
	}

	g.tracker.Remove(id)
}
