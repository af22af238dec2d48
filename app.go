package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"segrec/internal/bootstrap"
	"segrec/internal/cli"
	"segrec/internal/config"
	"segrec/internal/domain"
	"segrec/internal/output"
	"segrec/internal/usecase"
)

// App is the application root. It serves the CLI backend and renders
// session events to the terminal.
type App struct {
	out *output.Formatter

	controller  *usecase.SessionController
	cfg         config.Config
	logger      *zap.SugaredLogger
	closeLogger func()
	bootErr     error

	showProgress atomic.Bool

	msgMu   sync.Mutex
	message string
}

func NewApp(w io.Writer) *App {
	return &App{
		out:    output.NewFormatter(&lockedWriter{w: w}),
		logger: zap.NewNop().Sugar(),
	}
}

func (a *App) startup() {
	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.logger = services.Logger
	a.closeLogger = services.Close
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonMicCold)
}

// StartRecording starts a segmented recording session.
func (a *App) StartRecording(ctx context.Context) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Start(ctx); err != nil {
		return domain.Status{}, reportedIfNotified(err)
	}
	return a.controller.Status(), nil
}

// StopRecording stops recording and returns the session summary.
func (a *App) StopRecording(ctx context.Context) (domain.StopSummary, error) {
	if err := a.requireReady(); err != nil {
		return domain.StopSummary{}, err
	}
	return a.controller.Stop(ctx)
}

// TogglePlayback plays or stops a saved segment.
func (a *App) TogglePlayback(ctx context.Context, segmentID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return reportedIfNotified(a.controller.Toggle(ctx, segmentID))
}

// StopPlayback stops the playing segment, if any.
func (a *App) StopPlayback() {
	if a.controller == nil {
		return
	}
	a.controller.StopPlayback()
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle}
	}
	status := a.controller.Status()
	a.msgMu.Lock()
	status.Message = a.message
	a.msgMu.Unlock()
	return status
}

// ShowProgress toggles per-second progress lines.
func (a *App) ShowProgress(enabled bool) {
	a.showProgress.Store(enabled)
}

// Shutdown stops playback and finalizes any open recording.
func (a *App) Shutdown(ctx context.Context) error {
	if a.controller == nil {
		return nil
	}
	return a.controller.Close(ctx)
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return &a.cfg
}

func (a *App) close() {
	if a.closeLogger != nil {
		a.closeLogger()
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged renders session lifecycle updates.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	message := sessionReasonMessage(reason)
	a.msgMu.Lock()
	a.message = message
	a.msgMu.Unlock()

	a.logger.Debugw("session state", "state", state, "reason", reason, "message", message)
	switch reason {
	case domain.SessionReasonRecordingStarted:
		a.out.RecordingStarted()
	case domain.SessionReasonFinalizing:
		a.out.Finalizing()
	}
}

// Tick renders recording progress when enabled.
func (a *App) Tick(elapsedSeconds int, progressInSegment int) {
	if !a.showProgress.Load() {
		return
	}
	a.out.Progress(elapsedSeconds, progressInSegment, a.cfg.Session.TicksPerSegment)
}

func (a *App) SegmentSaved(segment domain.Segment) {
	a.out.SegmentSaved(segment)
}

func (a *App) RecordingStopped(summary domain.StopSummary) {
	a.out.RecordingStopped(summary)
}

func (a *App) PlaybackChanged(playingSegmentID string) {
	if playingSegmentID == "" {
		a.out.PlaybackStopped()
		return
	}
	a.out.PlaybackStarted(playingSegmentID)
}

// SessionError renders backend errors.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	message := errorMessage(code, detail)
	if detail != "" && detail != message {
		message += ": " + detail
	}
	a.out.Error(message)
}

// reportedIfNotified marks errors the session already sent through
// SessionError so the CLI does not print them twice.
func reportedIfNotified(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrPermissionDenied),
		errors.Is(err, usecase.ErrDeviceStart),
		errors.Is(err, usecase.ErrPlayback):
		return cli.Reported(err)
	default:
		return err
	}
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonMicCold:
		return "Mic cold"
	case domain.SessionReasonRecordingStarted:
		return "Recording started"
	case domain.SessionReasonFinalizing:
		return "Recording stopped. Saving last segment..."
	case domain.SessionReasonRecordingSaved:
		return "Recording saved"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermissionDenied:
		return "Microphone permission denied"
	case domain.ErrorCodeDeviceStart:
		return "Could not start recording"
	case domain.ErrorCodeSegmentFinalize:
		return "Segment could not be saved"
	case domain.ErrorCodePlayback:
		return "Playback failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

// lockedWriter serializes event output from the clock and playback goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
