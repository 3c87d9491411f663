package docstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/mkalinins/dashvault/internal/common"
)

// MemoryBackend is an in-process Backend with the same CAS contract as the
// remote one: exactly one of two concurrent writers holding the same
// revision succeeds. Used by tests and local development.
type MemoryBackend struct {
	mu    sync.Mutex
	files map[string]memoryFile
	seq   int
}

type memoryFile struct {
	content  []byte
	revision string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{files: make(map[string]memoryFile)}
}

func (m *MemoryBackend) nextRevision() string {
	m.seq++
	return fmt.Sprintf("rev-%06d", m.seq)
}

func (m *MemoryBackend) Get(ctx context.Context, p string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[p]
	if !ok {
		return nil, "", common.ErrNotFound
	}
	content := make([]byte, len(file.content))
	copy(content, file.content)
	return content, file.revision, nil
}

func (m *MemoryBackend) Put(ctx context.Context, p string, content []byte, revision, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.files[p]
	if ok && revision != existing.revision {
		return "", fmt.Errorf("put %s: %w", p, common.ErrConflict)
	}
	if !ok && revision != "" {
		return "", fmt.Errorf("put %s: %w", p, common.ErrConflict)
	}

	stored := make([]byte, len(content))
	copy(stored, content)
	next := m.nextRevision()
	m.files[p] = memoryFile{content: stored, revision: next}
	return next, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, p, revision, message string) error {
	if revision == "" {
		return fmt.Errorf("delete %s requires a revision: %w", p, common.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.files[p]
	if !ok {
		return fmt.Errorf("delete %s: %w", p, common.ErrNotFound)
	}
	if revision != existing.revision {
		return fmt.Errorf("delete %s: %w", p, common.ErrConflict)
	}
	delete(m.files, p)
	return nil
}

func (m *MemoryBackend) List(ctx context.Context, dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var names []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) && path.Dir(p) == strings.TrimSuffix(dir, "/") {
			names = append(names, path.Base(p))
		}
	}
	if len(names) == 0 {
		return nil, common.ErrNotFound
	}
	return names, nil
}
