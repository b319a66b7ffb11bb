// Package jsonstore persists structural descriptions as a single JSON
// document on disk. It is the reference Store implementation: simple,
// inspectable, and useful for tests and tooling.
package jsonstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cdfgraph/cdfgraph/backend"
	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

// Store reads and writes one description document at a fixed path.
type Store struct {
	path string
	log  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger; saves and loads are logged at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a Store backed by the JSON document at path. The file is
// created on the first Save.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the description atomically: a temp file in the same
// directory, then a rename over the target.
func (s *Store) Save(ctx context.Context, desc *backend.Description) error {
	if err := ctx.Err(); err != nil {
		return ncerr.Wrap(err, "save canceled")
	}
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return ncerr.Wrap(err, "encoding description")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cdfgraph-*")
	if err != nil {
		return ncerr.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ncerr.Wrap(err, "writing description")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ncerr.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return ncerr.Wrap(err, "replacing description file")
	}

	s.log.Debug("description saved",
		zap.String("path", s.path),
		zap.Int("bytes", len(data)))
	return nil
}

// Load reads the last saved description.
func (s *Store) Load(ctx context.Context) (*backend.Description, error) {
	if err := ctx.Err(); err != nil {
		return nil, ncerr.Wrap(err, "load canceled")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, ncerr.Wrap(err, "reading description file")
	}
	var desc backend.Description
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, ncerr.Wrap(err, "decoding description")
	}
	s.log.Debug("description loaded", zap.String("path", s.path))
	return &desc, nil
}
