package jobs

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/dlx/internal/arena"
	"github.com/desertthunder/dlx/internal/engine"
	"github.com/desertthunder/dlx/internal/models"
	"github.com/desertthunder/dlx/internal/progress"
	"github.com/desertthunder/dlx/internal/shared"
	dlxtest "github.com/desertthunder/dlx/internal/testing"
)

// captureRecorder collects terminal job records for assertions.
type captureRecorder struct {
	mu      sync.Mutex
	records []models.JobRecord
	err     error
}

func (c *captureRecorder) Record(record models.JobRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
	return c.err
}

func (c *captureRecorder) all() []models.JobRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.JobRecord(nil), c.records...)
}

func newOrchestrator(t *testing.T, fake *dlxtest.FakeEngine, recorder Recorder) *Orchestrator {
	t.Helper()
	return NewOrchestrator(Opts{
		Engine:   fake,
		Tracker:  progress.NewTracker(),
		Arena:    arena.New(t.TempDir(), nil),
		Recorder: recorder,
	})
}

// waitTerminal polls the tracker until the job reaches an end state.
func waitTerminal(t *testing.T, tracker *progress.Tracker, id string) progress.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status := tracker.Get(id)
		if status.State.Terminal() {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state: %+v", id, tracker.Get(id))
	return progress.Status{}
}

func TestSubmitValidation(t *testing.T) {
	o := newOrchestrator(t, &dlxtest.FakeEngine{}, nil)
	variant := models.FormatVariant{FormatID: "22"}

	tests := []struct {
		name    string
		url     string
		variant models.FormatVariant
		kind    string
	}{
		{"empty url", "", variant, KindVideo},
		{"whitespace url", "   ", variant, KindVideo},
		{"missing format id", "https://youtu.be/abc", models.FormatVariant{}, KindVideo},
		{"unknown kind", "https://youtu.be/abc", variant, "playlist"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.Submit(tc.url, tc.variant, tc.kind)
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestVideoJobLifecycle(t *testing.T) {
	fake := &dlxtest.FakeEngine{
		Events: []engine.Event{
			{Status: engine.StatusDownloading, DownloadedBytes: 50, TotalBytes: 200},
			{Status: engine.StatusFinished, Filename: "video.mp4"},
		},
		Produce: map[string][]byte{
			"video.mp4":          []byte(strings.Repeat("v", 1000)),
			"video.mp4.part-tmp": []byte("leftover"),
		},
	}
	recorder := &captureRecorder{}
	o := newOrchestrator(t, fake, recorder)

	id, err := o.Submit("https://www.youtube.com/watch?v=abc", models.FormatVariant{FormatID: "22", Quality: "720p"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	status := waitTerminal(t, o.Tracker(), id)
	if status.State != progress.StateFinished {
		t.Fatalf("expected finished, got %+v", status)
	}
	if status.Percent != 100 {
		t.Errorf("expected 100%%, got %v", status.Percent)
	}
	if !strings.HasSuffix(status.Filename, "video.mp4") {
		t.Errorf("expected the largest file as artifact, got %q", status.Filename)
	}
	if status.FileSize != "1000.0 B" {
		t.Errorf("expected formatted size 1000.0 B, got %q", status.FileSize)
	}

	opts := fake.LastOpts()
	if opts.Selector != "22/best[height<=1080]" {
		t.Errorf("unexpected selector %q", opts.Selector)
	}
	if opts.MergeFormat != "mp4" {
		t.Errorf("expected mp4 merge format, got %q", opts.MergeFormat)
	}
	if opts.ExtractAudio {
		t.Error("video jobs must not extract audio")
	}

	records := recorder.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(records))
	}
	if records[0].ID != id || records[0].Status != "finished" || records[0].Artifact != "video.mp4" {
		t.Errorf("unexpected record %+v", records[0])
	}
	if records[0].SizeBytes != 1000 {
		t.Errorf("expected recorded size 1000, got %d", records[0].SizeBytes)
	}
}

func TestAudioJobOptions(t *testing.T) {
	fake := &dlxtest.FakeEngine{
		Produce: map[string][]byte{"track.m4a": []byte("audio")},
	}
	o := newOrchestrator(t, fake, nil)

	variant := models.FormatVariant{FormatID: "bestaudio[ext=mp3]", AudioFormat: "MP3"}
	id, err := o.Submit("https://youtu.be/abc", variant, KindAudio)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitTerminal(t, o.Tracker(), id)

	opts := fake.LastOpts()
	if !opts.ExtractAudio {
		t.Error("expected audio extraction")
	}
	if opts.AudioCodec != "mp3" || opts.AudioQuality != "192" || opts.ResampleHz != 44100 {
		t.Errorf("unexpected mp3 post-processing: codec=%q quality=%q resample=%d",
			opts.AudioCodec, opts.AudioQuality, opts.ResampleHz)
	}
	if opts.MergeFormat != "" {
		t.Errorf("audio jobs must not merge, got %q", opts.MergeFormat)
	}
}

func TestAudioM4AOptions(t *testing.T) {
	fake := &dlxtest.FakeEngine{
		Produce: map[string][]byte{"track.m4a": []byte("audio")},
	}
	o := newOrchestrator(t, fake, nil)

	variant := models.FormatVariant{FormatID: "bestaudio[ext=m4a]", AudioFormat: "M4A"}
	id, err := o.Submit("https://youtu.be/abc", variant, KindAudio)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitTerminal(t, o.Tracker(), id)

	opts := fake.LastOpts()
	if opts.AudioCodec != "m4a" || opts.AudioQuality != "128" || opts.ResampleHz != 0 {
		t.Errorf("unexpected m4a post-processing: codec=%q quality=%q resample=%d",
			opts.AudioCodec, opts.AudioQuality, opts.ResampleHz)
	}
}

func TestDownloadFailure(t *testing.T) {
	fake := &dlxtest.FakeEngine{
		Events:      []engine.Event{{Status: engine.StatusError, Error: "HTTP Error 403"}},
		DownloadErr: errors.New("yt-dlp failed: exit status 1"),
	}
	recorder := &captureRecorder{}
	o := newOrchestrator(t, fake, recorder)

	id, err := o.Submit("https://youtu.be/abc", models.FormatVariant{FormatID: "22"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	status := waitTerminal(t, o.Tracker(), id)
	if status.State != progress.StateError {
		t.Fatalf("expected error state, got %+v", status)
	}
	if status.Error == "" {
		t.Error("expected an error description")
	}

	// The hook's error event landed first; the terminal entry stays intact
	// and the history record follows the tracker.
	records := recorder.all()
	if len(records) != 1 || records[0].Status != "error" {
		t.Errorf("expected one error record, got %+v", records)
	}
	if records[0].Artifact != "" {
		t.Errorf("failed jobs must not record an artifact, got %q", records[0].Artifact)
	}
}

func TestNoOutputProduced(t *testing.T) {
	fake := &dlxtest.FakeEngine{} // succeeds without writing any files
	o := newOrchestrator(t, fake, nil)

	id, err := o.Submit("https://youtu.be/abc", models.FormatVariant{FormatID: "22"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	status := waitTerminal(t, o.Tracker(), id)
	if status.State != progress.StateError {
		t.Fatalf("expected error state, got %+v", status)
	}
	if !strings.Contains(status.Error, "no output files") {
		t.Errorf("unexpected error message %q", status.Error)
	}
}

func TestConcurrentJobsAreIndependent(t *testing.T) {
	failing := &dlxtest.FakeEngine{DownloadErr: errors.New("boom")}
	succeeding := &dlxtest.FakeEngine{Produce: map[string][]byte{"ok.mp4": []byte("data")}}

	failOrch := newOrchestrator(t, failing, nil)
	okOrch := newOrchestrator(t, succeeding, nil)

	failID, err := failOrch.Submit("https://youtu.be/a", models.FormatVariant{FormatID: "22"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	okID, err := okOrch.Submit("https://youtu.be/b", models.FormatVariant{FormatID: "22"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if s := waitTerminal(t, failOrch.Tracker(), failID); s.State != progress.StateError {
		t.Errorf("expected the failing job to end in error, got %+v", s)
	}
	if s := waitTerminal(t, okOrch.Tracker(), okID); s.State != progress.StateFinished {
		t.Errorf("expected the succeeding job to finish, got %+v", s)
	}
}

func TestRecorderFailureDoesNotAffectStatus(t *testing.T) {
	fake := &dlxtest.FakeEngine{Produce: map[string][]byte{"ok.mp4": []byte("data")}}
	recorder := &captureRecorder{err: errors.New("disk full")}
	o := newOrchestrator(t, fake, recorder)

	id, err := o.Submit("https://youtu.be/abc", models.FormatVariant{FormatID: "22"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if status := waitTerminal(t, o.Tracker(), id); status.State != progress.StateFinished {
		t.Errorf("a recorder failure must not change the job outcome, got %+v", status)
	}
}

func TestLargestFile(t *testing.T) {
	fake := &dlxtest.FakeEngine{
		Produce: map[string][]byte{
			"small.mp4": []byte("ab"),
			"large.mp4": []byte("abcdefghij"),
		},
	}
	o := newOrchestrator(t, fake, nil)

	id, err := o.Submit("https://youtu.be/abc", models.FormatVariant{FormatID: "22"}, KindVideo)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	status := waitTerminal(t, o.Tracker(), id)
	if !strings.HasSuffix(status.Filename, "large.mp4") {
		t.Errorf("expected the largest file, got %q", status.Filename)
	}
}
