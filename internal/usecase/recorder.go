package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"segrec/internal/domain"
	"segrec/internal/ports"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDeviceStart      = errors.New("failed to start recording device")
	ErrNotRecording     = errors.New("no active recording session")
	ErrAlreadyRecording = errors.New("recording already in progress")
)

const defaultTicksPerSegment = 5

// RecorderConfig controls segment rotation.
type RecorderConfig struct {
	DocumentsDir     string
	TickInterval     time.Duration
	RotationInterval time.Duration
	TicksPerSegment  int
	// SettleDelay separates finalizing one segment from opening the next so
	// the device can release the microphone. Zero disables it.
	SettleDelay time.Duration
	Ticker      TickerFactory
	Now         func() time.Time
}

// SegmentRecorder owns the recording lifecycle and the rotation loop.
type SegmentRecorder struct {
	permission ports.PermissionService
	device     ports.RecorderDevice
	events     ports.EventSink
	state      *SessionState
	finalizer  segmentFinalizer
	logger     *zap.SugaredLogger
	cfg        RecorderConfig

	// opMu serializes Start and Stop.
	opMu  sync.Mutex
	clock *SessionClock

	seqMu        sync.Mutex
	sequence     int
	sessionSaved int
	sessionID    string
	startedAt    time.Time
}

func NewSegmentRecorder(
	permission ports.PermissionService,
	device ports.RecorderDevice,
	store ports.FileStore,
	events ports.EventSink,
	state *SessionState,
	logger *zap.SugaredLogger,
	cfg RecorderConfig,
) *SegmentRecorder {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.TicksPerSegment <= 0 {
		cfg.TicksPerSegment = defaultTicksPerSegment
	}
	if cfg.RotationInterval <= 0 {
		cfg.RotationInterval = time.Duration(cfg.TicksPerSegment) * cfg.TickInterval
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SegmentRecorder{
		permission: permission,
		device:     device,
		events:     events,
		state:      state,
		finalizer:  newSegmentFinalizer(store, cfg.DocumentsDir, cfg.Now, logger),
		logger:     logger,
		cfg:        cfg,
	}
}

// Start asks for permission, opens the first segment and starts the clock.
func (r *SegmentRecorder) Start(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.state.IsRecording() {
		return ErrAlreadyRecording
	}

	granted, err := r.permission.RequestMicrophone(ctx)
	if err != nil || !granted {
		detail := "microphone permission was not granted"
		if err != nil {
			detail = err.Error()
		}
		r.logger.Warnw("microphone permission denied", "error", err)
		r.events.SessionError(domain.ErrorCodePermissionDenied, detail)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return ErrPermissionDenied
	}

	if err := r.device.Prepare(ctx); err != nil {
		return r.failStart(err)
	}

	r.state.resetClock()
	if err := r.openHandle(ctx); err != nil {
		r.state.setRecording(false)
		return r.failStart(err)
	}

	sessionID := uuid.NewString()
	r.seqMu.Lock()
	r.sessionID = sessionID
	r.sessionSaved = 0
	r.startedAt = r.cfg.Now()
	r.seqMu.Unlock()

	r.state.setRecording(true)
	r.clock = NewSessionClock(r.cfg.TickInterval, r.cfg.RotationInterval, r.cfg.Ticker)
	r.clock.Start(r.onSecondTick, r.onRotationTick)

	r.logger.Infow("recording started",
		"session", sessionID,
		"rotationInterval", r.cfg.RotationInterval,
	)
	r.events.SessionStateChanged(domain.SessionStateRecording, domain.SessionReasonRecordingStarted)
	return nil
}

func (r *SegmentRecorder) failStart(err error) error {
	r.logger.Errorw("recording start failed", "error", err)
	r.events.SessionError(domain.ErrorCodeDeviceStart, err.Error())
	return fmt.Errorf("%w: %v", ErrDeviceStart, err)
}

// Stop halts the clock, finalizes the open segment and reports a summary.
// It returns ErrNotRecording without side effects when idle.
func (r *SegmentRecorder) Stop(ctx context.Context) (domain.StopSummary, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if !r.state.beginStop() {
		return domain.StopSummary{}, ErrNotRecording
	}
	r.events.SessionStateChanged(domain.SessionStateStopping, domain.SessionReasonFinalizing)

	// Waits for a rotation that is already running; no new ticks fire after this.
	if r.clock != nil && r.clock.Running() {
		r.clock.Stop()
	}

	if handle := r.state.takeHandle(); handle != nil {
		r.finalizeAndAppend(context.WithoutCancel(ctx), handle)
	}
	r.state.endStop()

	r.seqMu.Lock()
	summary := domain.StopSummary{
		SessionID:     r.sessionID,
		SegmentsSaved: r.sessionSaved,
		Duration:      r.cfg.Now().Sub(r.startedAt),
	}
	r.sequence = 0
	r.sessionSaved = 0
	r.seqMu.Unlock()

	r.logger.Infow("recording stopped",
		"session", summary.SessionID,
		"segments", summary.SegmentsSaved,
	)
	r.events.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonRecordingSaved)
	r.events.RecordingStopped(summary)
	return summary, nil
}

func (r *SegmentRecorder) onSecondTick(_ context.Context) {
	elapsed, progress, ok := r.state.advanceSecond()
	if ok {
		r.events.Tick(elapsed, progress)
	}
}

// onRotationTick closes the current segment and opens the next one.
func (r *SegmentRecorder) onRotationTick(ctx context.Context) {
	if handle := r.state.takeHandle(); handle != nil {
		r.finalizeAndAppend(context.WithoutCancel(ctx), handle)
	}
	r.state.resetProgress()

	if r.cfg.SettleDelay > 0 {
		timer := time.NewTimer(r.cfg.SettleDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
	if ctx.Err() != nil || !r.state.IsRecording() {
		return
	}

	if err := r.openHandle(ctx); err != nil {
		// Stop canceled the open; it is not a device failure.
		if ctx.Err() != nil || !r.state.IsRecording() {
			r.logger.Debugw("next segment open abandoned, session stopping", "error", err)
			return
		}
		r.logger.Errorw("failed to open next segment, ending session", "error", err)
		r.events.SessionError(domain.ErrorCodeDeviceStart, err.Error())
		// Stop waits for this callback to return, so it cannot run inline.
		go func() {
			if _, err := r.Stop(context.Background()); err != nil && !errors.Is(err, ErrNotRecording) {
				r.logger.Errorw("stop after open failure", "error", err)
			}
		}()
	}
}

// openHandle is a no-op when a handle is already open.
func (r *SegmentRecorder) openHandle(ctx context.Context) error {
	if r.state.hasHandle() {
		r.logger.Debugw("recording handle already open, skipping open")
		return nil
	}

	handle, err := r.device.Open(ctx)
	if err != nil {
		return err
	}

	if !r.state.storeHandle(handle) {
		r.logger.Warnw("recording handle opened concurrently, releasing duplicate")
		if err := handle.Stop(context.WithoutCancel(ctx)); err != nil {
			r.logger.Errorw("failed to release duplicate handle", "error", err)
		}
	}
	return nil
}

func (r *SegmentRecorder) finalizeAndAppend(ctx context.Context, handle ports.RecordingHandle) {
	r.seqMu.Lock()
	sequence := r.sequence
	r.seqMu.Unlock()

	segment, ok := r.finalizer.Finalize(ctx, handle, sequence)
	if !ok {
		return
	}

	r.seqMu.Lock()
	r.sequence++
	r.sessionSaved++
	r.seqMu.Unlock()

	r.state.appendSegment(segment)
	r.logger.Infow("segment saved",
		"id", segment.ID,
		"sequence", segment.Sequence,
		"path", segment.StoredPath,
	)
	r.events.SegmentSaved(segment)
}
