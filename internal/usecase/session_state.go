package usecase

import (
	"sync"

	"segrec/internal/domain"
	"segrec/internal/ports"
)

// SessionState is the single mutable aggregate read by the view layer.
// The recorder and playback controllers share one instance by reference.
type SessionState struct {
	mu sync.Mutex

	recording       bool
	stopping        bool
	elapsedSeconds  int
	progress        int
	ticksPerSegment int
	segments        []domain.Segment
	playingID       string

	// handle is the open recording, owned by SegmentRecorder.
	handle ports.RecordingHandle
}

func NewSessionState(ticksPerSegment int) *SessionState {
	if ticksPerSegment <= 0 {
		ticksPerSegment = defaultTicksPerSegment
	}
	return &SessionState{ticksPerSegment: ticksPerSegment}
}

// Snapshot returns a copy that is safe to read without holding the lock.
func (s *SessionState) Snapshot() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments := make([]domain.Segment, len(s.segments))
	copy(segments, s.segments)

	state := domain.SessionStateIdle
	switch {
	case s.stopping:
		state = domain.SessionStateStopping
	case s.recording:
		state = domain.SessionStateRecording
	}

	return domain.Status{
		State:             state,
		IsRecording:       s.recording,
		ElapsedSeconds:    s.elapsedSeconds,
		ProgressInSegment: s.progress,
		ProgressFraction:  float64(s.progress) / float64(s.ticksPerSegment),
		Segments:          segments,
		PlayingSegmentID:  s.playingID,
	}
}

// Segment looks up a saved segment by id.
func (s *SessionState) Segment(id string) (domain.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range s.segments {
		if seg.ID == id {
			return seg, true
		}
	}
	return domain.Segment{}, false
}

func (s *SessionState) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *SessionState) PlayingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playingID
}

func (s *SessionState) appendSegment(seg domain.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = append(s.segments, seg)
}

// advanceSecond moves the display clock one tick and returns the new values.
func (s *SessionState) advanceSecond() (elapsed int, progress int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return s.elapsedSeconds, s.progress, false
	}
	s.elapsedSeconds++
	s.progress = (s.progress + 1) % s.ticksPerSegment
	return s.elapsedSeconds, s.progress, true
}

func (s *SessionState) resetProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = 0
}

func (s *SessionState) resetClock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsedSeconds = 0
	s.progress = 0
}

// takeHandle clears the handle slot and returns what was in it.
func (s *SessionState) takeHandle() ports.RecordingHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := s.handle
	s.handle = nil
	return handle
}

func (s *SessionState) hasHandle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// storeHandle fills an empty slot. It reports false when the slot is taken.
func (s *SessionState) storeHandle(handle ports.RecordingHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		return false
	}
	s.handle = handle
	return true
}

func (s *SessionState) setRecording(recording bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = recording
}

// beginStop flips the session out of recording. It reports false when there
// was nothing to stop.
func (s *SessionState) beginStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return false
	}
	s.recording = false
	s.stopping = true
	return true
}

func (s *SessionState) endStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = false
	s.elapsedSeconds = 0
	s.progress = 0
}

func (s *SessionState) setPlaying(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playingID = id
}

// clearPlayingIf clears the playing id only if it still matches id.
func (s *SessionState) clearPlayingIf(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playingID != id {
		return false
	}
	s.playingID = ""
	return true
}
