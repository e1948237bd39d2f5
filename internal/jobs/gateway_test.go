package jobs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/dlx/internal/arena"
	"github.com/desertthunder/dlx/internal/progress"
	"github.com/desertthunder/dlx/internal/shared"
)

// finishedJob allocates a scratch directory with an artifact and stores the
// matching finished status.
func finishedJob(t *testing.T, tracker *progress.Tracker, ar *arena.Arena, contents string) (id, artifact string) {
	t.Helper()

	dir, err := ar.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	artifact = filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(artifact, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	id = shared.GenerateID()
	tracker.Set(id, progress.Status{
		State:    progress.StateFinished,
		Percent:  100,
		Filename: artifact,
	})
	return id, artifact
}

func TestGatewayOpen(t *testing.T) {
	tracker := progress.NewTracker()
	ar := arena.New(t.TempDir(), nil)
	g := NewGateway(tracker, ar, nil)

	id, _ := finishedJob(t, tracker, ar, "artifact data")

	reader, name, err := g.Open(id)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	if name != "video.mp4" {
		t.Errorf("expected download name video.mp4, got %q", name)
	}
	data, err := io.ReadAll(reader)
	if err != nil || string(data) != "artifact data" {
		t.Errorf("unexpected artifact contents %q (err %v)", data, err)
	}
}

func TestGatewayOpenUnknown(t *testing.T) {
	g := NewGateway(progress.NewTracker(), arena.New(t.TempDir(), nil), nil)

	_, _, err := g.Open("no-such-id")
	if !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGatewayOpenNotReady(t *testing.T) {
	tracker := progress.NewTracker()
	g := NewGateway(tracker, arena.New(t.TempDir(), nil), nil)

	for _, state := range []progress.State{progress.StateStarting, progress.StateDownloading} {
		id := shared.GenerateID()
		tracker.Set(id, progress.Status{State: state})

		if _, _, err := g.Open(id); !errors.Is(err, shared.ErrNotReady) {
			t.Errorf("state %s: expected ErrNotReady, got %v", state, err)
		}
	}
}

func TestGatewayOpenFailedJob(t *testing.T) {
	tracker := progress.NewTracker()
	g := NewGateway(tracker, arena.New(t.TempDir(), nil), nil)

	id := shared.GenerateID()
	tracker.Set(id, progress.Status{State: progress.StateError, Error: "boom"})

	if _, _, err := g.Open(id); !errors.Is(err, shared.ErrNotReady) {
		t.Errorf("expected ErrNotReady for a failed job, got %v", err)
	}
}

func TestGatewayOpenVanishedArtifact(t *testing.T) {
	tracker := progress.NewTracker()
	ar := arena.New(t.TempDir(), nil)
	g := NewGateway(tracker, ar, nil)

	id, artifact := finishedJob(t, tracker, ar, "data")
	if err := os.Remove(artifact); err != nil {
		t.Fatalf("failed to remove artifact: %v", err)
	}

	if _, _, err := g.Open(id); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a vanished artifact, got %v", err)
	}
}

func TestGatewayDispose(t *testing.T) {
	tracker := progress.NewTracker()
	ar := arena.New(t.TempDir(), nil)
	g := NewGateway(tracker, ar, nil)

	id, artifact := finishedJob(t, tracker, ar, "data")
	dir := filepath.Dir(artifact)

	g.Dispose(id)

	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Error("expected artifact removed")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("expected scratch directory removed")
	}
	if ar.Tracked(dir) {
		t.Error("expected scratch directory unregistered")
	}
	if tracker.Get(id).State != progress.StateNotFound {
		t.Error("expected tracker entry removed")
	}

	// Disposal is idempotent.
	g.Dispose(id)
}

func TestGatewayDisposeActiveJob(t *testing.T) {
	tracker := progress.NewTracker()
	ar := arena.New(t.TempDir(), nil)
	g := NewGateway(tracker, ar, nil)

	id := shared.GenerateID()
	tracker.Set(id, progress.Status{State: progress.StateDownloading, Percent: 40})

	// Disposing a running job only removes the tracker entry; the worker
	// still owns the scratch directory.
	g.Dispose(id)

	if tracker.Get(id).State != progress.StateNotFound {
		t.Error("expected tracker entry removed")
	}
}
