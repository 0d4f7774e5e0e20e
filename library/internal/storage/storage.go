package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrOutsideRoot = errors.New("path escapes storage root")

// LocalStore keeps uploaded ebook files under a single directory.
type LocalStore struct {
	root string
	log  *zap.Logger
}

func NewLocalStore(root string, log *zap.Logger) *LocalStore {
	return &LocalStore{
		root: filepath.Clean(root),
		log:  log.Named("storage"),
	}
}

// Remove deletes the file at path relative to the root. A missing file is not an error.
func (s *LocalStore) Remove(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("file already gone", zap.String("path", full))
			return nil
		}
		return errors.Wrapf(err, "remove %s", path)
	}
	s.log.Info("file removed", zap.String("path", full))
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	// Cleaning against "/" folds any ".." into the root.
	full := filepath.Join(s.root, filepath.Clean("/"+strings.TrimSpace(path)))
	if full == s.root {
		return "", ErrOutsideRoot
	}
	return full, nil
}
