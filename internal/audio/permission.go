package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

const permissionProbeTimeout = 5 * time.Second

// ProbePermission grants microphone access when ffmpeg can open the input
// device for a short read. A device refusal counts as a denial.
type ProbePermission struct {
	command string
	cfg     Config
	logger  *zap.SugaredLogger
	timeout time.Duration
}

func NewProbePermission(command string, cfg Config, logger *zap.SugaredLogger) *ProbePermission {
	if command == "" {
		command = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ProbePermission{
		command: command,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		timeout: permissionProbeTimeout,
	}
}

func (p *ProbePermission) RequestMicrophone(ctx context.Context) (bool, error) {
	if _, err := exec.LookPath(p.command); err != nil {
		return false, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.command,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", p.cfg.InputFormat,
		"-i", p.cfg.InputDevice,
		"-t", "0.1",
		"-f", "null",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, fmt.Errorf("microphone probe timed out: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		p.logger.Infow("microphone probe refused",
			"device", p.cfg.InputDevice,
			"format", p.cfg.InputFormat,
			"stderr", stringsTrimSpaceSafe(stderr.String()),
		)
		return false, nil
	}
	return false, err
}
