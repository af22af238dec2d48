package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"segrec/internal/ports"
)

const (
	playerStartGrace = 150 * time.Millisecond
	playerStopWait   = 800 * time.Millisecond
)

var errSoundUnloaded = errors.New("sound already unloaded")

// FFPlayDevice plays saved segments through ffplay without a window.
type FFPlayDevice struct {
	command string
	logger  *zap.SugaredLogger

	startGrace time.Duration
	stopWait   time.Duration
}

func NewFFPlayDevice(command string, logger *zap.SugaredLogger) *FFPlayDevice {
	if command == "" {
		command = "ffplay"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FFPlayDevice{
		command:    command,
		logger:     logger,
		startGrace: playerStartGrace,
		stopWait:   playerStopWait,
	}
}

// Load checks that uri is a readable file. Nothing is started until Play.
func (d *FFPlayDevice) Load(_ context.Context, uri string) (ports.Sound, error) {
	info, err := os.Stat(uri)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", uri, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("loading %s: is a directory", uri)
	}
	return &ffplaySound{
		device:   d,
		path:     uri,
		finished: make(chan struct{}),
	}, nil
}

type ffplaySound struct {
	device *FFPlayDevice
	path   string

	mu       sync.Mutex
	process  *os.Process
	waitErr  <-chan error
	unloaded bool

	finished   chan struct{}
	finishOnce sync.Once
}

func (s *ffplaySound) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unloaded {
		return errSoundUnloaded
	}
	if s.process != nil {
		return nil
	}

	cmd := exec.Command(s.device.command, "-nodisp", "-autoexit", "-loglevel", "error", s.path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	waitErr, err := startProcess(ctx, cmd, &stderr, s.device.startGrace)
	if err != nil {
		return err
	}
	s.process = cmd.Process

	// Fan the single exit result out to the finish signal and to Unload.
	exit := make(chan error, 1)
	s.waitErr = exit
	go func() {
		err, ok := <-waitErr
		if ok {
			exit <- err
		}
		close(exit)
		s.finish()
	}()
	return nil
}

func (s *ffplaySound) Unload() error {
	s.mu.Lock()
	if s.unloaded {
		s.mu.Unlock()
		return nil
	}
	s.unloaded = true
	process, waitErr := s.process, s.waitErr
	s.mu.Unlock()

	if process == nil {
		s.finish()
		return nil
	}
	return interruptAndWait(context.Background(), process, waitErr, s.device.stopWait)
}

func (s *ffplaySound) Finished() <-chan struct{} { return s.finished }

func (s *ffplaySound) finish() {
	s.finishOnce.Do(func() { close(s.finished) })
}
