package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"segrec/internal/domain"
	"segrec/internal/ports"
)

var ErrUnknownSegment = errors.New("unknown segment")

// Config controls segmented recording behavior.
type Config struct {
	Recorder RecorderConfig
}

// SessionController is the entry point the view layer drives: start, stop
// and toggle, plus status reads and teardown.
type SessionController struct {
	state    *SessionState
	recorder *SegmentRecorder
	playback *PlaybackController
	events   ports.EventSink
	logger   *zap.SugaredLogger
}

func NewSessionController(
	permission ports.PermissionService,
	recorder ports.RecorderDevice,
	store ports.FileStore,
	player ports.PlaybackDevice,
	events ports.EventSink,
	logger *zap.SugaredLogger,
	cfg Config,
) *SessionController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	state := NewSessionState(cfg.Recorder.TicksPerSegment)
	return &SessionController{
		state:    state,
		recorder: NewSegmentRecorder(permission, recorder, store, events, state, logger.Named("recorder"), cfg.Recorder),
		playback: NewPlaybackController(player, events, state, logger.Named("playback")),
		events:   events,
		logger:   logger,
	}
}

// Start begins a new segmented recording session.
func (c *SessionController) Start(ctx context.Context) error {
	return c.recorder.Start(ctx)
}

// Stop ends the active session and returns its summary.
func (c *SessionController) Stop(ctx context.Context) (domain.StopSummary, error) {
	return c.recorder.Stop(ctx)
}

// Toggle plays or stops the saved segment with the given id.
func (c *SessionController) Toggle(ctx context.Context, segmentID string) error {
	segment, ok := c.state.Segment(segmentID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownSegment, segmentID)
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}
	return c.playback.Toggle(ctx, segment)
}

// StopPlayback stops whatever segment is playing.
func (c *SessionController) StopPlayback() {
	c.playback.Stop()
}

// Status returns the current session snapshot.
func (c *SessionController) Status() domain.Status {
	return c.state.Snapshot()
}

// Close releases playback and finalizes any open recording.
func (c *SessionController) Close(ctx context.Context) error {
	c.playback.Close()

	_, err := c.recorder.Stop(ctx)
	if err != nil && !errors.Is(err, ErrNotRecording) {
		return err
	}
	if err == nil {
		c.logger.Infow("recording finalized on teardown")
	}
	return nil
}
