package model

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	KindDosage  = "dosage"
	KindDisease = "disease"

	diseaseKey = "disease"
)

var (
	ErrModelNotFound  = errors.New("model not found")
	ErrSchemaMismatch = errors.New("model schema mismatch")
)

// Snapshot is the persisted form of a trained model.
type Snapshot struct {
	Kind      string    `json:"kind"`
	Key       string    `json:"key"`
	Schema    string    `json:"schema"`
	Classes   []string  `json:"classes,omitempty"`
	Labels    string    `json:"labels,omitempty"`
	Network   *Network  `json:"network"`
	TrainedAt time.Time `json:"trainedAt"`
}

func (s *Snapshot) check(kind, schema string, inputs, outputs int) error {
	switch {
	case s.Kind != kind:
		return fmt.Errorf("%w: kind %q, want %q", ErrSchemaMismatch, s.Kind, kind)
	case s.Schema != schema:
		return fmt.Errorf("%w: fingerprint %s, want %s", ErrSchemaMismatch, s.Schema, schema)
	case s.Network == nil || s.Network.InputSize() != inputs:
		return fmt.Errorf("%w: input width", ErrSchemaMismatch)
	case outputs == 0 || s.Network.OutputSize() != outputs:
		return fmt.Errorf("%w: output width", ErrSchemaMismatch)
	}
	return nil
}

// Store persists snapshots by key. Load returns ErrModelNotFound on a miss.
type Store interface {
	Save(ctx context.Context, key string, s *Snapshot) error
	Load(ctx context.Context, key string) (*Snapshot, error)
}

// FileStore keeps one gob file per key under dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".gob")
}

func (f *FileStore) Save(_ context.Context, key string, s *Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode model %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, ".model-*")
	if err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("save model %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, key string) (*Snapshot, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", key, err)
	}

	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", key, err)
	}
	return &s, nil
}
