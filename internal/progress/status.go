// package progress tracks per-job download status for polling callers.
//
// Workers are the only writers: each job's engine callback is wrapped in a
// [Hook] that coalesces the engine's bursty event stream into a pollable
// cadence before storing. Reads never block and never fail; an unknown
// identity yields a synthetic not-found status.
package progress

import "time"

// State is the lifecycle tag of a [Status].
type State string

const (
	StateStarting    State = "starting"
	StateDownloading State = "downloading"
	StateFinished    State = "finished"
	StateError       State = "error"
	StateNotFound    State = "not_found"
)

// Terminal reports whether the state is an end state. Once a terminal status
// is stored for a job, only removal may mutate its entry.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateError
}

// Status is a snapshot of one job's progress. Fields beyond State are
// populated per-state: percent/speed/eta while downloading, filename and
// human-readable size when finished, the error description on failure.
type Status struct {
	State     State     `json:"status"`
	Percent   float64   `json:"percent"`
	Speed     string    `json:"speed,omitempty"`
	ETA       string    `json:"eta,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	FileSize  string    `json:"file_size,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"-"`
}

// NotFound is the synthetic status returned for unknown identities. It is
// never stored.
func NotFound() Status {
	return Status{State: StateNotFound}
}
