// package jobs implements asynchronous fetch-and-transcode job orchestration.
//
// The core abstraction is Orchestrator, which issues job identities, launches
// one background worker per submitted job, drives the fetch engine, resolves
// the produced artifact, and records terminal outcomes. A single job's
// failure never crashes the orchestrator or affects other jobs: worker errors
// are captured as terminal status, never propagated across the polling
// boundary.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dlx/internal/arena"
	"github.com/desertthunder/dlx/internal/catalog"
	"github.com/desertthunder/dlx/internal/engine"
	"github.com/desertthunder/dlx/internal/models"
	"github.com/desertthunder/dlx/internal/progress"
	"github.com/desertthunder/dlx/internal/shared"
)

// KindVideo and KindAudio are the two download request kinds.
const (
	KindVideo = "video"
	KindAudio = "audio"
)

// Recorder persists terminal job outcomes. Recording is best-effort: a
// recorder failure is logged and never affects the job's status.
type Recorder interface {
	Record(record models.JobRecord) error
}

// Orchestrator owns the tracker and arena for its jobs and spawns one
// concurrent worker per submission. There is no admission control or
// cancellation: once submitted, a job runs to completion or failure.
type Orchestrator struct {
	engine   engine.Engine
	tracker  *progress.Tracker
	arena    *arena.Arena
	recorder Recorder
	logger   *log.Logger
	conf     shared.EngineConfig
}

// Opts contains dependencies for creating an [Orchestrator].
type Opts struct {
	Engine   engine.Engine
	Tracker  *progress.Tracker
	Arena    *arena.Arena
	Recorder Recorder // optional
	Logger   *log.Logger
	Conf     shared.EngineConfig
}

// NewOrchestrator creates an Orchestrator with the provided dependencies.
func NewOrchestrator(opts Opts) *Orchestrator {
	if opts.Tracker == nil {
		opts.Tracker = progress.NewTracker()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Orchestrator{
		engine:   opts.Engine,
		tracker:  opts.Tracker,
		arena:    opts.Arena,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		conf:     opts.Conf,
	}
}

// Tracker exposes the orchestrator's progress tracker for pollers.
func (o *Orchestrator) Tracker() *progress.Tracker {
	return o.tracker
}

// Arena exposes the orchestrator's scratch storage for the gateway and the
// shutdown sweep.
func (o *Orchestrator) Arena() *arena.Arena {
	return o.arena
}

// Submit validates the request, allocates a job identity and scratch
// directory, stores the starting status, and spawns the worker. It returns
// immediately; callers poll the tracker by identity for progress.
func (o *Orchestrator) Submit(url string, variant models.FormatVariant, kind string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("%w: url is required", shared.ErrValidation)
	}
	if variant.FormatID == "" {
		return "", fmt.Errorf("%w: format selector is required", shared.ErrValidation)
	}
	if kind != KindVideo && kind != KindAudio {
		return "", fmt.Errorf("%w: unknown download type %q", shared.ErrValidation, kind)
	}

	dir, err := o.arena.Allocate()
	if err != nil {
		return "", err
	}

	id := shared.GenerateID()
	opts := o.buildOptions(url, variant, kind, dir)

	o.tracker.Set(id, progress.Status{State: progress.StateStarting})
	o.logger.Info("job submitted", "id", id, "url", url, "type", kind, "selector", opts.Selector, "dir", dir)

	go o.run(id, dir, opts, jobMeta{
		url:       url,
		kind:      kind,
		selector:  opts.Selector,
		createdAt: time.Now(),
	})

	return id, nil
}

// buildOptions applies the selector precedence policy and the engine
// configuration to one request.
func (o *Orchestrator) buildOptions(url string, variant models.FormatVariant, kind, dir string) engine.Options {
	opts := engine.Options{
		URL:           url,
		OutputDir:     dir,
		UserAgent:     o.conf.UserAgent,
		Retries:       o.conf.Retries,
		RateLimitMBps: o.conf.RateLimitMBps,
	}

	if kind == KindAudio {
		selector, codec := catalog.AudioSelector(variant)
		quality, resample := catalog.AudioPostProcessing(codec)
		opts.Selector = selector
		opts.ExtractAudio = true
		opts.AudioCodec = codec
		opts.AudioQuality = quality
		opts.ResampleHz = resample
		return opts
	}

	opts.Selector = catalog.VideoSelector(variant)
	opts.MergeFormat = "mp4"
	return opts
}

type jobMeta struct {
	url       string
	kind      string
	selector  string
	createdAt time.Time
}

// run is the per-job worker. It blocks inside the engine call; everything
// else is bookkeeping against the tracker.
func (o *Orchestrator) run(id, dir string, opts engine.Options, meta jobMeta) {
	logger := shared.WithLogger(o.logger, "id", id)
	hook := progress.NewHook(o.tracker, id)

	o.tracker.Set(id, progress.Status{State: progress.StateDownloading, Percent: 0, Speed: "N/A", ETA: "N/A"})

	if err := o.engine.Download(context.Background(), opts, hook.Handle); err != nil {
		logger.Error("download failed", "error", err)
		o.finish(id, meta, progress.Status{State: progress.StateError, Error: err.Error()})
		return
	}

	artifact, size, err := largestFile(dir)
	if err != nil {
		logger.Error("artifact resolution failed", "error", err)
		o.finish(id, meta, progress.Status{State: progress.StateError, Error: err.Error()})
		return
	}

	if strings.EqualFold(filepath.Ext(artifact), ".mp3") {
		tagArtifact(artifact, logger)
	}

	logger.Info("download completed", "artifact", artifact, "size", shared.FormatBytesValue(size))
	o.finish(id, meta, progress.Status{
		State:    progress.StateFinished,
		Percent:  100,
		Filename: artifact,
		FileSize: shared.FormatBytesValue(size),
	})
}

// finish stores the terminal status and records it in the job history. The
// hook may already have stored a terminal error; the first terminal write
// wins and the recorded outcome follows the tracker.
func (o *Orchestrator) finish(id string, meta jobMeta, status progress.Status) {
	o.tracker.Set(id, status)

	if o.recorder == nil {
		return
	}

	final := o.tracker.Get(id)
	record := models.JobRecord{
		ID:         id,
		URL:        meta.url,
		Kind:       meta.kind,
		Selector:   meta.selector,
		Status:     string(final.State),
		Error:      final.Error,
		CreatedAt:  meta.createdAt,
		FinishedAt: time.Now(),
	}
	if final.State == progress.StateFinished {
		record.Artifact = filepath.Base(final.Filename)
		if info, err := os.Stat(final.Filename); err == nil {
			record.SizeBytes = info.Size()
		}
	}

	if err := o.recorder.Record(record); err != nil {
		o.logger.Warn("failed to record job history", "id", id, "error", err)
	}
}

// largestFile returns the largest regular file in dir. The engine may emit
// intermediate or sidecar files next to the final artifact; the largest file
// is assumed to be the merged result. This is a documented heuristic, not a
// guarantee of the engine contract.
func largestFile(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to inspect output directory: %w", err)
	}

	var best string
	var bestSize int64 = -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best = filepath.Join(dir, entry.Name())
			bestSize = info.Size()
		}
	}

	if best == "" {
		return "", 0, fmt.Errorf("download completed but no output files were produced")
	}
	return best, bestSize, nil
}
