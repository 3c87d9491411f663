package dashboards

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/docstore"
	"github.com/mkalinins/dashvault/internal/logging"
)

const testDir = "data/dashboards"

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestService(t *testing.T) (*Service, *docstore.MemoryBackend) {
	t.Helper()
	backend := docstore.NewMemoryBackend()
	store := docstore.New(backend, testLogger())
	return NewService(store, testDir, testLogger()), backend
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"sales", "sales", false},
		{"Sales Overview", "sales-overview", false},
		{"  Q3 / Revenue!! ", "q3-revenue", false},
		{"snake_case-ok", "snake_case-ok", false},
		{"ÜBER dashboard", "ber-dashboard", false},
		{strings.Repeat("a", 100), strings.Repeat("a", 64), false},
		{"", "", true},
		{"///", "", true},
		{"_index", "", true},
		{"!!!", "", true},
	}

	for _, tc := range tests {
		got, err := SanitizeID(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, common.ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestService_SaveAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	state := map[string]any{"widgets": []any{"chart", "table"}}
	saved, err := svc.Save(ctx, "sales", "Sales", state, "alice")
	require.NoError(t, err)
	assert.Equal(t, "sales", saved.Meta.ID)
	assert.Equal(t, "Sales", saved.Meta.Name)
	assert.False(t, saved.Meta.UpdatedAt.IsZero())

	got, err := svc.Get(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, state["widgets"], got.State["widgets"])
	assert.Equal(t, "alice", got.Meta.SavedBy)
	assert.NotContains(t, got.State, "__meta")

	// The paired index update ran: listing shows the dashboard.
	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sales", entries[0].ID)
	assert.Equal(t, "Sales", entries[0].Name)
}

func TestService_SaveKeepsCreatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, "sales", "Sales", map[string]any{"v": 1.0}, "alice")
	require.NoError(t, err)

	second, err := svc.Save(ctx, "sales", "Sales v2", map[string]any{"v": 2.0}, "bob")
	require.NoError(t, err)

	assert.Equal(t, first.Meta.CreatedAt, second.Meta.CreatedAt)
	assert.Equal(t, "Sales v2", second.Meta.Name)
	assert.Equal(t, "bob", second.Meta.SavedBy)
}

func TestService_SaveValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "!!!", "x", map[string]any{}, "alice")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Save(ctx, "sales", "Sales", nil, "alice")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestService_GetAbsent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "sales", "Sales", map[string]any{}, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "sales"))

	_, err = svc.Get(ctx, "sales")
	assert.ErrorIs(t, err, common.ErrNotFound)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_DeleteAbsent(t *testing.T) {
	svc, _ := newTestService(t)

	assert.ErrorIs(t, svc.Delete(context.Background(), "nope"), common.ErrNotFound)
}

func TestService_ListRebuildsMissingIndex(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "sales", "Sales", map[string]any{}, "alice")
	require.NoError(t, err)
	_, err = svc.Save(ctx, "ops", "Operations", map[string]any{}, "alice")
	require.NoError(t, err)

	// Drop the index out from under the service.
	_, rev, err := backend.Get(ctx, testDir+"/_index.json")
	require.NoError(t, err)
	require.NoError(t, backend.Delete(ctx, testDir+"/_index.json", rev, "drop"))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ops", entries[0].ID)
	assert.Equal(t, "sales", entries[1].ID)
}

// failingIndexBackend rejects every write to the index document.
type failingIndexBackend struct {
	*docstore.MemoryBackend
}

func (b *failingIndexBackend) Put(ctx context.Context, path string, content []byte, revision, message string) (string, error) {
	if strings.HasSuffix(path, "_index.json") {
		return "", fmt.Errorf("index write refused: %w", errors.New("backend down"))
	}
	return b.MemoryBackend.Put(ctx, path, content, revision, message)
}

func TestService_SaveSurvivesIndexFailure(t *testing.T) {
	// A failed index update after a successful document write is a bounded
	// inconsistency window, not an error for the triggering request.
	backend := &failingIndexBackend{MemoryBackend: docstore.NewMemoryBackend()}
	store := docstore.New(backend, testLogger())
	svc := NewService(store, testDir, testLogger())
	ctx := context.Background()

	_, err := svc.Save(ctx, "sales", "Sales", map[string]any{}, "alice")
	require.NoError(t, err)

	got, err := svc.Get(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", got.Meta.ID)
}

func TestIndex_RebuildConverges(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "sales", "Sales", map[string]any{}, "alice")
	require.NoError(t, err)
	_, err = svc.Save(ctx, "ops", "Operations", map[string]any{}, "alice")
	require.NoError(t, err)

	// Corrupt the index: a stale entry for a deleted dashboard plus a
	// missing entry for an existing one.
	_, rev, err := backend.Get(ctx, testDir+"/_index.json")
	require.NoError(t, err)
	stale := `{"dashboards":[{"id":"ghost","name":"Ghost"},{"id":"sales","name":"Stale name"}]}`
	_, err = backend.Put(ctx, testDir+"/_index.json", []byte(stale), rev, "corrupt")
	require.NoError(t, err)

	entries, err := svc.Index().Rebuild(ctx)
	require.NoError(t, err)

	// Exactly the set of existing dashboard documents, with names and
	// timestamps taken from the source documents.
	require.Len(t, entries, 2)
	assert.Equal(t, "ops", entries[0].ID)
	assert.Equal(t, "Operations", entries[0].Name)
	assert.Equal(t, "sales", entries[1].ID)
	assert.Equal(t, "Sales", entries[1].Name)

	sales, err := svc.Get(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, sales.Meta.UpdatedAt, entries[1].UpdatedAt)
}

func TestIndex_RebuildSkipsMalformedAndNonDashboards(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "sales", "Sales", map[string]any{}, "alice")
	require.NoError(t, err)

	_, err = backend.Put(ctx, testDir+"/broken.json", []byte("not json"), "", "seed")
	require.NoError(t, err)
	_, err = backend.Put(ctx, testDir+"/notes.txt", []byte("x"), "", "seed")
	require.NoError(t, err)

	entries, err := svc.Index().Rebuild(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sales", entries[0].ID)
}

func TestIndex_RemoveAbsentIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "sales", "Sales", map[string]any{}, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Index().Remove(ctx, "never-existed"))
	require.NoError(t, svc.Index().Remove(ctx, "never-existed"))
}
