// Package docstore implements optimistic-concurrency document storage on top
// of a revisioned file backend. All mutation goes through read-observed-
// revision → write-expected-revision cycles; there is no process-local
// locking and no cross-path transaction.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/logging"
)

// Backend is the versioned-file API the store runs on. Revisions are opaque
// tokens: a write carrying a revision that is no longer current must fail
// with common.ErrConflict, and absent paths read as common.ErrNotFound.
type Backend interface {
	Get(ctx context.Context, path string) (content []byte, revision string, err error)
	Put(ctx context.Context, path string, content []byte, revision, message string) (newRevision string, err error)
	Delete(ctx context.Context, path, revision, message string) error
	List(ctx context.Context, dir string) ([]string, error)
}

// ErrNoChange can be returned by an Update mutate function to abort the
// cycle without writing; Update then reports success with the revision that
// was read.
var ErrNoChange = errors.New("no change")

const defaultMaxRetries = 3

// Store layers read-modify-CAS-write semantics over a Backend.
type Store struct {
	backend    Backend
	logger     logging.Logger
	maxRetries int
}

func New(backend Backend, logger logging.Logger) *Store {
	return &Store{
		backend:    backend,
		logger:     logger.With("component", "docstore"),
		maxRetries: defaultMaxRetries,
	}
}

// Read returns the document at path together with the revision observed.
// Absence is a legitimate outcome reported as common.ErrNotFound.
func (s *Store) Read(ctx context.Context, path string) ([]byte, string, error) {
	return s.backend.Get(ctx, path)
}

// List returns the file names directly under dir; a missing directory reads
// as an empty listing.
func (s *Store) List(ctx context.Context, dir string) ([]string, error) {
	names, err := s.backend.List(ctx, dir)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return names, err
}

// Update runs a full read-mutate-write cycle against path. mutate receives
// the current content (nil when the document does not exist yet) and returns
// the desired next state. On a revision conflict the whole cycle restarts
// from a fresh read; no field-level merging is attempted. After the retry
// budget is exhausted the conflict is surfaced to the caller.
func (s *Store) Update(ctx context.Context, path, message string, mutate func(current []byte, exists bool) ([]byte, error)) (string, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		content, revision, err := s.backend.Get(ctx, path)
		exists := true
		if errors.Is(err, common.ErrNotFound) {
			content, revision, exists = nil, "", false
		} else if err != nil {
			return "", err
		}

		next, err := mutate(content, exists)
		if errors.Is(err, ErrNoChange) {
			return revision, nil
		}
		if err != nil {
			return "", err
		}

		newRevision, err := s.backend.Put(ctx, path, next, revision, message)
		if errors.Is(err, common.ErrConflict) {
			s.logger.Warn(ctx, "revision conflict, retrying", "path", path, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return "", err
		}
		return newRevision, nil
	}
	return "", fmt.Errorf("update %s: retries exhausted: %w", path, common.ErrConflict)
}

// Delete removes the document at path, re-reading for a fresh revision when
// a concurrent write lands in between. A path deleted concurrently counts as
// success; a document that never existed is reported as common.ErrNotFound.
func (s *Store) Delete(ctx context.Context, path, message string) error {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		_, revision, err := s.backend.Get(ctx, path)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) && attempt > 0 {
				// Someone else deleted it while we were retrying.
				return nil
			}
			return err
		}

		err = s.backend.Delete(ctx, path, revision, message)
		if errors.Is(err, common.ErrConflict) {
			s.logger.Warn(ctx, "revision conflict on delete, retrying", "path", path, "attempt", attempt+1)
			continue
		}
		return err
	}
	return fmt.Errorf("delete %s: retries exhausted: %w", path, common.ErrConflict)
}
