package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

const processWaitDelay = 500 * time.Millisecond

// Config describes how the microphone should be captured.
type Config struct {
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
	StagingDir  string
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.InputFormat == "" {
		c.InputFormat = "pulse"
	}
	if c.InputDevice == "" {
		c.InputDevice = "default"
	}
	if c.StagingDir == "" {
		c.StagingDir = os.TempDir()
	}
	return c
}

// startProcess runs cmd and fails if it exits within grace.
func startProcess(ctx context.Context, cmd *exec.Cmd, stderr *bytes.Buffer, grace time.Duration) (<-chan error, error) {
	cmd.WaitDelay = processWaitDelay
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("%s exited before start: %w: %s", cmd.Path, err, stringsTrimSpaceSafe(stderr.String()))
		}
		return nil, fmt.Errorf("%s exited before start", cmd.Path)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitErr
		return nil, ctx.Err()
	case <-timer.C:
	}
	return waitErr, nil
}

// interruptAndWait asks the process to finish cleanly and kills it after timeout.
func interruptAndWait(ctx context.Context, process *os.Process, waitErr <-chan error, timeout time.Duration) error {
	if process != nil {
		_ = process.Signal(os.Interrupt)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err, ok := <-waitErr:
		if ok {
			return normalizeStopErr(err)
		}
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	if process != nil {
		_ = process.Kill()
	}
	err, ok := <-waitErr
	if ok {
		return normalizeStopErr(err)
	}
	return nil
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func stringsTrimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
