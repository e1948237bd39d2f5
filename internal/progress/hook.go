package progress

import (
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dlx/internal/engine"
	"golang.org/x/time/rate"
)

// CoalesceWindow is the minimum interval between accepted downloading
// updates for one job. Polling faster than this gains no freshness.
const CoalesceWindow = 500 * time.Millisecond

// Hook adapts the engine's per-job callback stream into tracker writes.
//
// The engine can fire downloading events at a very high frequency; the hook
// coalesces them through a token bucket so at most one downloading update per
// [CoalesceWindow] reaches the tracker. The first event of a job and
// finished/error events are never dropped.
type Hook struct {
	id      string
	tracker *Tracker
	limiter *rate.Limiter
	now     func() time.Time
}

// NewHook creates a Hook bound to one job identity.
func NewHook(tracker *Tracker, id string) *Hook {
	return &Hook{
		id:      id,
		tracker: tracker,
		limiter: rate.NewLimiter(rate.Every(CoalesceWindow), 1),
		now:     time.Now,
	}
}

// Handle is the engine-facing callback. Safe to call from the engine's
// reader goroutines; tracker writes are internally synchronized.
func (h *Hook) Handle(event engine.Event) {
	switch event.Status {
	case engine.StatusDownloading:
		if !h.limiter.AllowN(h.now(), 1) {
			return
		}
		h.tracker.Set(h.id, Status{
			State:   StateDownloading,
			Percent: percentFrom(event),
			Speed:   orNA(event.SpeedStr),
			ETA:     orNA(event.ETAStr),
		})

	case engine.StatusFinished:
		// A finished event marks one stream's transfer, not the job: merge or
		// transcode steps may still follow, and the worker resolves the final
		// artifact after the engine returns. Surface it as 100% progress.
		h.tracker.Set(h.id, Status{
			State:    StateDownloading,
			Percent:  100,
			Speed:    orNA(event.SpeedStr),
			ETA:      orNA(event.ETAStr),
			Filename: event.Filename,
		})

	case engine.StatusError:
		message := event.Error
		if message == "" {
			message = "Unknown download error"
		}
		h.tracker.Set(h.id, Status{State: StateError, Error: message})
	}
}

// percentFrom computes a percentage from whichever fields the engine
// supplied, in priority order: exact byte ratio, estimated byte ratio,
// preformatted percent string, zero. The result is clamped to [0,100]
// regardless of source.
func percentFrom(event engine.Event) float64 {
	var percent float64

	switch {
	case event.TotalBytes > 0:
		percent = float64(event.DownloadedBytes) / float64(event.TotalBytes) * 100
	case event.TotalBytesEstimate > 0:
		percent = float64(event.DownloadedBytes) / float64(event.TotalBytesEstimate) * 100
	default:
		raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(event.PercentStr), "%"))
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			percent = parsed
		}
	}

	return clampPercent(percent)
}

func clampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
