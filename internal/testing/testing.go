// package testing contains shared testing utilities
package testing

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/dlx/internal/engine"
)

// FakeEngine is a test double for [engine.Engine]. It replays a scripted
// event sequence through the hook and materializes configured output files
// into the job's scratch directory.
type FakeEngine struct {
	mu sync.Mutex

	Info    *engine.RawInfo
	InfoErr error

	Events      []engine.Event
	Produce     map[string][]byte // filename -> contents written into OutputDir
	DownloadErr error

	lastOpts engine.Options
	calls    int
}

func (f *FakeEngine) ExtractInfo(ctx context.Context, url string) (*engine.RawInfo, error) {
	if f.InfoErr != nil {
		return nil, f.InfoErr
	}
	return f.Info, nil
}

func (f *FakeEngine) Download(ctx context.Context, opts engine.Options, hook engine.Hook) error {
	f.mu.Lock()
	f.lastOpts = opts
	f.calls++
	f.mu.Unlock()

	for _, event := range f.Events {
		if hook != nil {
			hook(event)
		}
	}

	if f.DownloadErr != nil {
		return f.DownloadErr
	}

	for name, contents := range f.Produce {
		if err := os.WriteFile(filepath.Join(opts.OutputDir, name), contents, 0644); err != nil {
			return err
		}
	}
	return nil
}

// LastOpts returns the options from the most recent Download call.
func (f *FakeEngine) LastOpts() engine.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpts
}

// Calls returns the number of Download invocations.
func (f *FakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
