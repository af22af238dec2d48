package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"segrec/internal/ports"
)

const (
	recorderStartGrace = 250 * time.Millisecond
	recorderStopWait   = 1200 * time.Millisecond
)

// FFMPEGRecorder records each segment into its own AAC file using ffmpeg.
type FFMPEGRecorder struct {
	command string
	cfg     Config
	logger  *zap.SugaredLogger

	startGrace time.Duration
	stopWait   time.Duration
}

func NewFFMPEGRecorder(command string, cfg Config, logger *zap.SugaredLogger) *FFMPEGRecorder {
	if command == "" {
		command = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FFMPEGRecorder{
		command:    command,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		startGrace: recorderStartGrace,
		stopWait:   recorderStopWait,
	}
}

// Prepare makes sure ffmpeg is runnable and the staging directory exists.
func (r *FFMPEGRecorder) Prepare(_ context.Context) error {
	if _, err := exec.LookPath(r.command); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if err := os.MkdirAll(r.cfg.StagingDir, 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	return nil
}

// Open starts a new capture process writing to a fresh staging file.
func (r *FFMPEGRecorder) Open(ctx context.Context) (ports.RecordingHandle, error) {
	path := filepath.Join(r.cfg.StagingDir, fmt.Sprintf("capture-%d.m4a", time.Now().UnixNano()))
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", r.cfg.InputFormat,
		"-i", r.cfg.InputDevice,
		"-ac", strconv.Itoa(r.cfg.Channels),
		"-ar", strconv.Itoa(r.cfg.SampleRate),
		"-c:a", "aac",
		"-y",
		path,
	}

	// The capture outlives ctx, so it is not bound to it.
	cmd := exec.Command(r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	waitErr, err := startProcess(ctx, cmd, &stderr, r.startGrace)
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("capture started", "path", path, "pid", cmd.Process.Pid)

	return &ffmpegHandle{
		path:     path,
		stderr:   &stderr,
		process:  cmd.Process,
		waitErr:  waitErr,
		stopWait: r.stopWait,
	}, nil
}

type ffmpegHandle struct {
	path   string
	stderr *bytes.Buffer

	process  *os.Process
	waitErr  <-chan error
	stopWait time.Duration

	stopOnce sync.Once
	stopErr  error
}

// Stop interrupts ffmpeg so it writes the file trailer, then waits for exit.
func (h *ffmpegHandle) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() {
		h.stopErr = interruptAndWait(ctx, h.process, h.waitErr, h.stopWait)
		if h.stopErr != nil && h.stderr.Len() > 0 {
			h.stopErr = fmt.Errorf("%w: %s", h.stopErr, stringsTrimSpaceSafe(h.stderr.String()))
		}
	})
	return h.stopErr
}

// URI returns the capture path once it holds data.
func (h *ffmpegHandle) URI() string {
	info, err := os.Stat(h.path)
	if err != nil || info.Size() == 0 {
		return ""
	}
	return h.path
}
