package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"segrec/internal/domain"
	"segrec/internal/ports"
)

var ErrPlayback = errors.New("playback failed")

// PlaybackController plays at most one saved segment at a time.
type PlaybackController struct {
	device ports.PlaybackDevice
	events ports.EventSink
	state  *SessionState
	logger *zap.SugaredLogger

	mu        sync.Mutex
	current   ports.Sound
	currentID string
}

func NewPlaybackController(device ports.PlaybackDevice, events ports.EventSink, state *SessionState, logger *zap.SugaredLogger) *PlaybackController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PlaybackController{device: device, events: events, state: state, logger: logger}
}

// Toggle stops segment if it is playing; otherwise it replaces whatever is
// playing with segment.
func (p *PlaybackController) Toggle(ctx context.Context, segment domain.Segment) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		same := p.currentID == segment.ID
		p.unloadCurrent()
		if same {
			return nil
		}
	}

	sound, err := p.device.Load(ctx, segment.StoredPath)
	if err != nil {
		return p.fail(segment, err)
	}
	if err := sound.Play(ctx); err != nil {
		if unloadErr := sound.Unload(); unloadErr != nil {
			p.logger.Warnw("unload after failed play", "segment", segment.ID, "error", unloadErr)
		}
		return p.fail(segment, err)
	}

	p.current = sound
	p.currentID = segment.ID
	p.state.setPlaying(segment.ID)
	p.events.PlaybackChanged(segment.ID)
	p.logger.Debugw("playback started", "segment", segment.ID, "path", segment.StoredPath)

	go p.watch(sound, segment.ID)
	return nil
}

// Stop unloads the active sound, if any.
func (p *PlaybackController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.unloadCurrent()
	}
}

// Close releases the playback device on teardown.
func (p *PlaybackController) Close() {
	p.Stop()
}

func (p *PlaybackController) watch(sound ports.Sound, id string) {
	<-sound.Finished()

	p.mu.Lock()
	defer p.mu.Unlock()
	// A toggle or stop already released it.
	if p.current != sound {
		return
	}
	p.logger.Debugw("playback finished", "segment", id)
	p.unloadCurrent()
}

// unloadCurrent must be called with p.mu held.
func (p *PlaybackController) unloadCurrent() {
	sound, id := p.current, p.currentID
	p.current = nil
	p.currentID = ""

	if err := sound.Unload(); err != nil {
		p.logger.Warnw("failed to unload sound", "segment", id, "error", err)
	}
	if p.state.clearPlayingIf(id) {
		p.events.PlaybackChanged("")
	}
}

func (p *PlaybackController) fail(segment domain.Segment, err error) error {
	p.state.setPlaying("")
	p.logger.Errorw("playback failed", "segment", segment.ID, "error", err)
	p.events.SessionError(domain.ErrorCodePlayback, err.Error())
	return fmt.Errorf("%w: %v", ErrPlayback, err)
}
