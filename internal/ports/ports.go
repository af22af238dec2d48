package ports

import (
	"context"

	"segrec/internal/domain"
)

// PermissionService asks the platform for microphone access.
type PermissionService interface {
	RequestMicrophone(ctx context.Context) (granted bool, err error)
}

// RecordingHandle is one in-progress native recording.
type RecordingHandle interface {
	// Stop ends capture and finalizes the underlying file.
	Stop(ctx context.Context) error
	// URI returns the finalized source location, or "" when nothing was captured.
	URI() string
}

// RecorderDevice opens recording handles.
type RecorderDevice interface {
	// Prepare configures the device for recording. Called once per session.
	Prepare(ctx context.Context) error
	Open(ctx context.Context) (RecordingHandle, error)
}

// FileStore moves finalized captures to durable storage.
type FileStore interface {
	Move(ctx context.Context, from string, to string) error
}

// Sound is a loaded, playable audio source.
type Sound interface {
	Play(ctx context.Context) error
	Unload() error
	// Finished is closed when playback reaches its natural end or the sound is unloaded.
	Finished() <-chan struct{}
}

// PlaybackDevice loads sounds for playback.
type PlaybackDevice interface {
	Load(ctx context.Context, uri string) (Sound, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	Tick(elapsedSeconds int, progressInSegment int)
	SegmentSaved(segment domain.Segment)
	RecordingStopped(summary domain.StopSummary)
	PlaybackChanged(playingSegmentID string)
	SessionError(code domain.ErrorCode, detail string)
}
