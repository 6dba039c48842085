// Package upload tracks the progress of file uploads to the knowledge base.
//
// Raw bytes-sent/bytes-total ratios are mapped onto a 0-100 display scale
// that reserves its tail for server-side processing: byte transfer fills the
// bar up to UploadShare, the queued stage shows QueuedPercent, and 100 is
// only shown once the server has answered with success.
package upload

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
)

// MaxFileSize is the largest file accepted for upload: 1.5 GiB.
const MaxFileSize int64 = 1_610_612_736

const (
	// UploadShare is the share of the display scale covered by byte transfer.
	UploadShare = 90

	// QueuedPercent is shown while the server processes a fully sent upload.
	QueuedPercent = 95

	// CompletePercent is shown after a success response.
	CompletePercent = 100
)

// ErrFileTooLarge is returned for files above MaxFileSize, and matched by
// HTTP 413 responses from the server.
var ErrFileTooLarge = errors.New("file too large")

// ErrAborted is recorded when the transport signals an abort.
var ErrAborted = errors.New("upload aborted")

// ValidateSize rejects files larger than MaxFileSize.
func ValidateSize(name string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%s is %s, limit is %s: %w",
			name,
			humanize.IBytes(uint64(size)),
			humanize.IBytes(uint64(MaxFileSize)),
			ErrFileTooLarge,
		)
	}
	return nil
}

// Stage is a named step of an upload.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageUploading Stage = "uploading"
	StageQueued    Stage = "queued"
	StageComplete  Stage = "complete"
	StageFailed    Stage = "failed"
)

// State is a point-in-time view of a Tracker.
type State struct {
	Stage   Stage
	Percent int
	Sent    int64
	Total   int64
	Err     error
}

// Tracker is the presentation state machine for one upload at a time:
//
//	idle -> uploading -> queued -> complete -> idle
//	           |            |
//	           +--> failed <+--> idle
//
// Percent never decreases between Start and Reset. A Tracker is safe for
// concurrent use so transport goroutines may report progress directly.
type Tracker struct {
	mu    sync.Mutex
	state State

	// OnChange, when set, is called with every new state. It runs with the
	// tracker unlocked and must not block for long.
	OnChange func(State)
}

// NewTracker returns an idle Tracker.
func NewTracker() *Tracker {
	return &Tracker{state: State{Stage: StageIdle}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins a new upload of total bytes.
func (t *Tracker) Start(total int64) {
	t.update(func(s *State) bool {
		*s = State{Stage: StageUploading, Total: total}
		return true
	})
}

// Progress records sent of total bytes handed to the transport. Reports
// outside the uploading stage are ignored.
func (t *Tracker) Progress(sent, total int64) {
	t.update(func(s *State) bool {
		if s.Stage != StageUploading {
			return false
		}
		if total > 0 {
			s.Total = total
		}
		if sent > s.Sent {
			s.Sent = sent
		}

		p := scale(s.Sent, s.Total)
		if p <= s.Percent {
			return false
		}
		s.Percent = p
		return true
	})
}

// Uploaded marks all bytes as sent; the server is now processing.
func (t *Tracker) Uploaded() {
	t.update(func(s *State) bool {
		if s.Stage != StageUploading {
			return false
		}
		s.Stage = StageQueued
		s.Sent = s.Total
		s.Percent = max(s.Percent, QueuedPercent)
		return true
	})
}

// Complete records a success response from the server.
func (t *Tracker) Complete() {
	t.update(func(s *State) bool {
		if s.Stage != StageUploading && s.Stage != StageQueued {
			return false
		}
		s.Stage = StageComplete
		s.Sent = s.Total
		s.Percent = CompletePercent
		return true
	})
}

// Fail records a failed upload. The percent is left where it stopped.
func (t *Tracker) Fail(err error) {
	if err == nil {
		err = errors.New("upload failed")
	}
	t.update(func(s *State) bool {
		if s.Stage == StageIdle || s.Stage == StageComplete {
			return false
		}
		s.Stage = StageFailed
		s.Err = err
		return true
	})
}

// Abort records an abort signal from the transport.
func (t *Tracker) Abort() {
	t.Fail(ErrAborted)
}

// Reset returns the tracker to idle.
func (t *Tracker) Reset() {
	t.update(func(s *State) bool {
		*s = State{Stage: StageIdle}
		return true
	})
}

// Reporter returns a progress callback bound to t, suitable for
// NewProgressReader.
func (t *Tracker) Reporter() func(sent, total int64) {
	return t.Progress
}

func (t *Tracker) update(fn func(s *State) bool) {
	t.mu.Lock()
	changed := fn(&t.state)
	snapshot := t.state
	t.mu.Unlock()

	if changed && t.OnChange != nil {
		t.OnChange(snapshot)
	}
}

// scale maps sent/total onto [0, UploadShare].
func scale(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	if sent >= total {
		return UploadShare
	}
	return int(sent * UploadShare / total)
}
