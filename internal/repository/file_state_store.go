package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
)

// FileStateStore keeps one state file per instrument.
type FileStateStore struct {
	path func(symbol string) string
}

func NewFileStateStore(path func(symbol string) string) *FileStateStore {
	return &FileStateStore{path: path}
}

func (s *FileStateStore) Load(ctx context.Context, symbol string) (*models.ARIMAState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.path(symbol)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("state %s: %w", path, models.ErrNotFound)
		}
		return nil, &models.StorageError{Op: "read state", Err: err}
	}
	st, err := decodeState(path, b)
	if err != nil {
		return nil, &models.StorageError{Op: "read state", Err: fmt.Errorf("%s: %w", path, err)}
	}
	if st.Symbol == "" {
		st.Symbol = symbol
	}
	return st, nil
}

// Save replaces the state file atomically.
func (s *FileStateStore) Save(ctx context.Context, symbol string, st *models.ARIMAState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path(symbol)
	b, err := encodeState(path, st)
	if err != nil {
		return &models.StorageError{Op: "encode state", Err: err}
	}
	if err := writeFileAtomic(path, b); err != nil {
		return &models.StorageError{Op: "write state", Err: err}
	}
	return nil
}

func writeFileAtomic(path string, b []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(b); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ domrepo.StateStore = (*FileStateStore)(nil)
