package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"segrec/internal/domain"
	"segrec/internal/ports"
)

type fakePermission struct {
	mu      sync.Mutex
	granted bool
	err     error
	calls   int
}

func (f *fakePermission) RequestMicrophone(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.granted, f.err
}

type fakeRecorderDevice struct {
	mu sync.Mutex

	prepareErr error
	// openErrs and stopErrs are indexed by open call.
	openErrs  map[int]error
	stopErrs  map[int]error
	emptyURIs map[int]bool

	// blockOpens holds the open until its context is done.
	blockOpens map[int]bool
	blocked    chan int

	prepares int
	opens    int
	open     int
	maxOpen  int
	handles  []*fakeHandle
}

func newFakeRecorderDevice() *fakeRecorderDevice {
	return &fakeRecorderDevice{
		openErrs:   map[int]error{},
		stopErrs:   map[int]error{},
		emptyURIs:  map[int]bool{},
		blockOpens: map[int]bool{},
		blocked:    make(chan int, 1),
	}
}

func (f *fakeRecorderDevice) Prepare(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepares++
	return f.prepareErr
}

func (f *fakeRecorderDevice) Open(ctx context.Context) (ports.RecordingHandle, error) {
	f.mu.Lock()
	index := f.opens
	f.opens++
	block := f.blockOpens[index]
	f.mu.Unlock()

	if block {
		f.blocked <- index
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.openErrs[index]; err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("/tmp/staging/capture-%d.m4a", index)
	if f.emptyURIs[index] {
		uri = ""
	}
	handle := &fakeHandle{device: f, uri: uri, stopErr: f.stopErrs[index]}
	f.handles = append(f.handles, handle)
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}
	return handle, nil
}

func (f *fakeRecorderDevice) snapshot() (opens int, open int, maxOpen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.open, f.maxOpen
}

type fakeHandle struct {
	device    *fakeRecorderDevice
	uri       string
	stopErr   error
	stopCalls int
}

func (h *fakeHandle) Stop(_ context.Context) error {
	h.device.mu.Lock()
	defer h.device.mu.Unlock()
	h.stopCalls++
	if h.stopCalls == 1 {
		h.device.open--
	}
	return h.stopErr
}

func (h *fakeHandle) URI() string { return h.uri }

type move struct {
	from string
	to   string
}

type fakeFileStore struct {
	mu    sync.Mutex
	moves []move
	errs  map[string]error
}

func (f *fakeFileStore) Move(_ context.Context, from string, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[from]; err != nil {
		return err
	}
	f.moves = append(f.moves, move{from: from, to: to})
	return nil
}

type fakePlaybackDevice struct {
	mu      sync.Mutex
	loadErr error
	playErr error
	loads   []string
	sounds  []*fakeSound
}

func (f *fakePlaybackDevice) Load(_ context.Context, uri string) (ports.Sound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, uri)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	sound := &fakeSound{uri: uri, playErr: f.playErr, finished: make(chan struct{})}
	f.sounds = append(f.sounds, sound)
	return sound, nil
}

func (f *fakePlaybackDevice) sound(i int) *fakeSound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sounds[i]
}

type fakeSound struct {
	uri     string
	playErr error

	mu          sync.Mutex
	plays       int
	unloadCalls int
	finished    chan struct{}
	once        sync.Once
}

func (s *fakeSound) Play(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	return s.playErr
}

func (s *fakeSound) Unload() error {
	s.mu.Lock()
	s.unloadCalls++
	s.mu.Unlock()
	s.once.Do(func() { close(s.finished) })
	return nil
}

func (s *fakeSound) Finished() <-chan struct{} { return s.finished }

// end simulates the device reaching the end of the file.
func (s *fakeSound) end() {
	s.once.Do(func() { close(s.finished) })
}

func (s *fakeSound) unloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloadCalls
}

type fakeEventSink struct {
	mu sync.Mutex

	states    []stateEvent
	ticks     []tickEvent
	saved     []domain.Segment
	summaries []domain.StopSummary
	playing   []string
	errors    []errEvent
}

type stateEvent struct {
	state  domain.SessionState
	reason domain.SessionStateReason
}

type tickEvent struct {
	elapsed  int
	progress int
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) Tick(elapsed int, progress int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, tickEvent{elapsed: elapsed, progress: progress})
}

func (f *fakeEventSink) SegmentSaved(segment domain.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, segment)
}

func (f *fakeEventSink) RecordingStopped(summary domain.StopSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
}

func (f *fakeEventSink) PlaybackChanged(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = append(f.playing, id)
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) snapshotSummaries() []domain.StopSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.StopSummary, len(f.summaries))
	copy(out, f.summaries)
	return out
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

// manualTicker fires only when a test sends on ch.
type manualTicker struct {
	ch chan time.Time

	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type manualTickers struct {
	mu      sync.Mutex
	created map[time.Duration][]*manualTicker
}

func newManualTickers() *manualTickers {
	return &manualTickers{created: map[time.Duration][]*manualTicker{}}
}

func (m *manualTickers) factory(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	m.created[d] = append(m.created[d], t)
	return t
}

func (m *manualTickers) last(d time.Duration) *manualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.created[d]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// idleTicker never fires, so tests drive rotation by calling the callbacks.
type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func idleTickers(time.Duration) Ticker { return idleTicker{} }

func steppingNow(start time.Time) func() time.Time {
	var mu sync.Mutex
	var n int
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return start.Add(time.Duration(n) * time.Millisecond)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var errBoom = errors.New("boom")
