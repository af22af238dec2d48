package cli

import (
	"context"
	"sync"

	"segrec/internal/domain"
	"segrec/internal/usecase"
)

type fakeBackend struct {
	mu sync.Mutex

	startErr  error
	toggleErr error

	status      domain.Status
	calls       []string
	toggled     []string
	progress    bool
	shutdowns   int
	stopOnStart bool
}

func (b *fakeBackend) record(call string) {
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) StartRecording(context.Context) (domain.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("start")
	if b.startErr != nil {
		return domain.Status{}, b.startErr
	}
	b.status.State = domain.SessionStateRecording
	b.status.IsRecording = !b.stopOnStart
	return b.status, nil
}

func (b *fakeBackend) StopRecording(context.Context) (domain.StopSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("stop")
	if !b.status.IsRecording {
		return domain.StopSummary{}, usecase.ErrNotRecording
	}
	b.status.IsRecording = false
	b.status.State = domain.SessionStateIdle
	return domain.StopSummary{SegmentsSaved: 1}, nil
}

func (b *fakeBackend) TogglePlayback(_ context.Context, segmentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("toggle")
	b.toggled = append(b.toggled, segmentID)
	return b.toggleErr
}

func (b *fakeBackend) StopPlayback() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("halt")
}

func (b *fakeBackend) GetStatus() domain.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *fakeBackend) ShowProgress(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progress = enabled
}

func (b *fakeBackend) Shutdown(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("shutdown")
	b.shutdowns++
	return nil
}

func (b *fakeBackend) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}
