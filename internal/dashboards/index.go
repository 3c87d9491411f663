package dashboards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/docstore"
	"github.com/mkalinins/dashvault/internal/logging"
)

// indexFile is the summary document stored next to the dashboards. The
// leading underscore keeps it out of the dashboard id namespace.
const indexFile = "_index.json"

// IndexEntry is the denormalized projection of one dashboard.
type IndexEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type indexDocument struct {
	Dashboards []IndexEntry `json:"dashboards"`
}

// Index maintains the summary document. Dashboard writes and index writes
// are two independent CAS operations, so a reader may transiently observe a
// dashboard that is not indexed or an index entry whose dashboard is gone;
// Rebuild is the authoritative repair for that window.
type Index struct {
	store  *docstore.Store
	dir    string
	logger logging.Logger
}

func NewIndex(store *docstore.Store, dir string, logger logging.Logger) *Index {
	return &Index{
		store:  store,
		dir:    strings.Trim(dir, "/"),
		logger: logger.With("component", "index"),
	}
}

func (ix *Index) path() string {
	return path.Join(ix.dir, indexFile)
}

func decodeIndex(content []byte) []IndexEntry {
	var doc indexDocument
	// A malformed index is a cache gone bad, not a fatal condition: start
	// from empty and let the next rebuild restore it.
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil
	}
	return doc.Dashboards
}

func encodeIndex(entries []IndexEntry) ([]byte, error) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return json.MarshalIndent(indexDocument{Dashboards: entries}, "", "  ")
}

// Entries returns the current index content. A missing index reads as
// common.ErrNotFound so the caller can decide to rebuild.
func (ix *Index) Entries(ctx context.Context) ([]IndexEntry, error) {
	content, _, err := ix.store.Read(ctx, ix.path())
	if err != nil {
		return nil, err
	}
	return decodeIndex(content), nil
}

// Upsert inserts or replaces the entry keyed by its id. The createdAt of an
// existing entry is preserved.
func (ix *Index) Upsert(ctx context.Context, entry IndexEntry) error {
	_, err := ix.store.Update(ctx, ix.path(), "Update dashboard index", func(current []byte, exists bool) ([]byte, error) {
		entries := decodeIndex(current)
		replaced := false
		for i := range entries {
			if entries[i].ID == entry.ID {
				if !entries[i].CreatedAt.IsZero() {
					entry.CreatedAt = entries[i].CreatedAt
				}
				entries[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, entry)
		}
		return encodeIndex(entries)
	})
	return err
}

// Remove deletes the entry keyed by id. Removing an id that is not indexed
// is a no-op, not an error.
func (ix *Index) Remove(ctx context.Context, id string) error {
	_, err := ix.store.Update(ctx, ix.path(), "Update dashboard index", func(current []byte, exists bool) ([]byte, error) {
		entries := decodeIndex(current)
		kept := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(entries) {
			return nil, docstore.ErrNoChange
		}
		return encodeIndex(kept)
	})
	return err
}

// Rebuild recomputes the index from the dashboard documents themselves and
// writes it as a single CAS write. This restores index/document consistency
// after partial failures, e.g. a dashboard write whose paired index update
// never landed.
func (ix *Index) Rebuild(ctx context.Context) ([]IndexEntry, error) {
	names, err := ix.store.List(ctx, ix.dir)
	if err != nil {
		return nil, err
	}

	var entries []IndexEntry
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "_") {
			continue
		}
		content, _, err := ix.store.Read(ctx, path.Join(ix.dir, name))
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// Deleted between the listing and the read.
				continue
			}
			return nil, err
		}
		dash, err := decodeDashboard(content)
		if err != nil {
			ix.logger.Warn(ctx, "skipping malformed dashboard during rebuild", "file", name, "error", err)
			continue
		}
		id := dash.Meta.ID
		if id == "" {
			id = strings.TrimSuffix(name, ".json")
		}
		nameField := dash.Meta.Name
		if nameField == "" {
			nameField = id
		}
		entries = append(entries, IndexEntry{
			ID:        id,
			Name:      nameField,
			CreatedAt: dash.Meta.CreatedAt,
			UpdatedAt: dash.Meta.UpdatedAt,
		})
	}

	_, err = ix.store.Update(ctx, ix.path(), "Rebuild dashboard index", func(_ []byte, _ bool) ([]byte, error) {
		return encodeIndex(entries)
	})
	if err != nil {
		return nil, fmt.Errorf("write rebuilt index: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}
