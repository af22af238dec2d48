package domain

import "time"

// SessionState models the segmented recording lifecycle.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateRecording SessionState = "recording"
	SessionStateStopping  SessionState = "stopping"
	SessionStateError     SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonMicCold          SessionStateReason = "mic_cold"
	SessionReasonRecordingStarted SessionStateReason = "recording_started"
	SessionReasonFinalizing       SessionStateReason = "finalizing"
	SessionReasonRecordingSaved   SessionStateReason = "recording_saved"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodePermissionDenied ErrorCode = "permission_denied"
	ErrorCodeDeviceStart      ErrorCode = "device_start"
	ErrorCodeSegmentFinalize  ErrorCode = "segment_finalize"
	ErrorCodePlayback         ErrorCode = "playback"
)

// Segment is one saved fixed-length slice of a recording. It never changes
// after the finalize step that created it.
type Segment struct {
	ID         string `json:"id"`
	SourceURI  string `json:"sourceUri"`
	StoredPath string `json:"storedPath"`
	FileName   string `json:"fileName"`
	CreatedAt  int64  `json:"createdAt"`
	Sequence   int    `json:"sequence"`
}

// CreatedTime returns CreatedAt as a time value.
func (s Segment) CreatedTime() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// StopSummary is emitted once a recording session has been stopped.
type StopSummary struct {
	SessionID     string        `json:"sessionId"`
	SegmentsSaved int           `json:"segmentsSaved"`
	Duration      time.Duration `json:"duration"`
}

// Status is a read-only snapshot of the session aggregate.
type Status struct {
	State             SessionState `json:"state"`
	IsRecording       bool         `json:"isRecording"`
	ElapsedSeconds    int          `json:"elapsedSeconds"`
	ProgressInSegment int          `json:"progressInSegment"`
	ProgressFraction  float64      `json:"progressFraction"`
	Segments          []Segment    `json:"segments"`
	PlayingSegmentID  string       `json:"playingSegmentId,omitempty"`
	Message           string       `json:"message,omitempty"`
}
