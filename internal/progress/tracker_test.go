package progress

import "testing"

func TestTrackerGetUnknown(t *testing.T) {
	tracker := NewTracker()

	status := tracker.Get("no-such-job")
	if status.State != StateNotFound {
		t.Errorf("expected not_found, got %q", status.State)
	}
	if tracker.Len() != 0 {
		t.Error("Get must not store the synthetic status")
	}
}

func TestTrackerSetAndGet(t *testing.T) {
	tracker := NewTracker()

	if !tracker.Set("job-1", Status{State: StateStarting}) {
		t.Fatal("expected initial Set to succeed")
	}

	status := tracker.Get("job-1")
	if status.State != StateStarting {
		t.Errorf("expected starting, got %q", status.State)
	}
	if status.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped")
	}
}

func TestTrackerTerminalWriteOnce(t *testing.T) {
	tests := []struct {
		name     string
		terminal Status
	}{
		{"finished", Status{State: StateFinished, Filename: "/tmp/x/video.mp4"}},
		{"error", Status{State: StateError, Error: "boom"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewTracker()
			tracker.Set("job", Status{State: StateDownloading, Percent: 50})

			if !tracker.Set("job", tc.terminal) {
				t.Fatal("expected the first terminal write to succeed")
			}
			if tracker.Set("job", Status{State: StateDownloading, Percent: 99}) {
				t.Error("expected a write after a terminal state to be rejected")
			}
			if tracker.Set("job", Status{State: StateError, Error: "other"}) {
				t.Error("expected a second terminal write to be rejected")
			}

			status := tracker.Get("job")
			if status.State != tc.terminal.State {
				t.Errorf("terminal state was overwritten: got %q", status.State)
			}
		})
	}
}

func TestTrackerRemove(t *testing.T) {
	tracker := NewTracker()
	tracker.Set("job", Status{State: StateFinished})

	tracker.Remove("job")

	if status := tracker.Get("job"); status.State != StateNotFound {
		t.Errorf("expected not_found after removal, got %q", status.State)
	}

	// A removed id starts fresh: terminal write-once does not survive removal.
	if !tracker.Set("job", Status{State: StateStarting}) {
		t.Error("expected Set to succeed for a removed id")
	}

	tracker.Remove("never-existed")
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateStarting, false},
		{StateDownloading, false},
		{StateFinished, true},
		{StateError, true},
		{StateNotFound, false},
	}
	for _, tc := range tests {
		if got := tc.state.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.state, got, tc.want)
		}
	}
}
