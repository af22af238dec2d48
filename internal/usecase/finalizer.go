package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"segrec/internal/domain"
	"segrec/internal/ports"
)

const (
	segmentFilePattern = "recording_%d_%d.m4a"
	segmentIDPattern   = "segment_%d_%d"
)

// SegmentFileName returns the stored file name for a sequence number and timestamp.
func SegmentFileName(sequence int, createdAt int64) string {
	return fmt.Sprintf(segmentFilePattern, sequence, createdAt)
}

// SegmentID returns the list identity for a sequence number and timestamp.
func SegmentID(sequence int, createdAt int64) string {
	return fmt.Sprintf(segmentIDPattern, sequence, createdAt)
}

type segmentFinalizer struct {
	store        ports.FileStore
	documentsDir string
	now          func() time.Time
	logger       *zap.SugaredLogger
}

func newSegmentFinalizer(store ports.FileStore, documentsDir string, now func() time.Time, logger *zap.SugaredLogger) segmentFinalizer {
	if now == nil {
		now = time.Now
	}
	return segmentFinalizer{store: store, documentsDir: documentsDir, now: now, logger: logger}
}

// Finalize stops handle and moves its capture into the documents directory.
// ok is false when no segment was produced; failures are logged, not returned.
func (f segmentFinalizer) Finalize(ctx context.Context, handle ports.RecordingHandle, sequence int) (domain.Segment, bool) {
	if err := handle.Stop(ctx); err != nil {
		f.logger.Errorw("segment finalize failed",
			"code", domain.ErrorCodeSegmentFinalize,
			"stage", "stop",
			"sequence", sequence,
			"error", err,
		)
		return domain.Segment{}, false
	}

	uri := handle.URI()
	if uri == "" {
		f.logger.Debugw("recording produced no source uri, dropping segment", "sequence", sequence)
		return domain.Segment{}, false
	}

	createdAt := f.now().UnixMilli()
	fileName := SegmentFileName(sequence, createdAt)
	storedPath := filepath.Join(f.documentsDir, fileName)

	if err := f.store.Move(ctx, uri, storedPath); err != nil {
		f.logger.Errorw("segment finalize failed",
			"code", domain.ErrorCodeSegmentFinalize,
			"stage", "move",
			"sequence", sequence,
			"source", uri,
			"destination", storedPath,
			"error", err,
		)
		return domain.Segment{}, false
	}

	return domain.Segment{
		ID:         SegmentID(sequence, createdAt),
		SourceURI:  uri,
		StoredPath: storedPath,
		FileName:   fileName,
		CreatedAt:  createdAt,
		Sequence:   sequence,
	}, true
}
