package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// LocalFileStore moves captures into a directory on the local filesystem.
type LocalFileStore struct {
	logger *zap.SugaredLogger
	remove func(name string) error
}

func NewLocalFileStore(logger *zap.SugaredLogger) *LocalFileStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LocalFileStore{logger: logger, remove: os.Remove}
}

// Move renames from to to, copying when the two are on different devices.
// from may be a plain path or a file:// URI.
func (s *LocalFileStore) Move(ctx context.Context, from string, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from = strings.TrimPrefix(from, "file://")

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	err := os.Rename(from, to)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("moving %s: %w", from, err)
	}

	s.logger.Debugw("cross-device move, copying", "from", from, "to", to)
	return s.copyAcross(from, to)
}

// copyAcross copies from into to and then removes from. Once the copy is in
// place the move counts as done; a staging file that cannot be removed is
// only logged.
func (s *LocalFileStore) copyAcross(from string, to string) error {
	if err := copyFile(from, to); err != nil {
		_ = os.Remove(to)
		return fmt.Errorf("copying %s: %w", from, err)
	}
	if err := s.remove(from); err != nil {
		s.logger.Warnw("leftover staging file after copy", "path", from, "error", err)
	}
	return nil
}

func copyFile(from string, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
