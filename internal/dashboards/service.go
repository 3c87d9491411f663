package dashboards

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/docstore"
	"github.com/mkalinins/dashvault/internal/logging"
)

// Service implements dashboard get/save/delete/list over the document store.
type Service struct {
	store  *docstore.Store
	index  *Index
	dir    string
	logger logging.Logger
}

func NewService(store *docstore.Store, dir string, logger logging.Logger) *Service {
	dir = strings.Trim(dir, "/")
	return &Service{
		store:  store,
		index:  NewIndex(store, dir, logger),
		dir:    dir,
		logger: logger.With("component", "dashboards"),
	}
}

// Index exposes the maintainer for administrative rebuilds.
func (s *Service) Index() *Index {
	return s.index
}

func (s *Service) docPath(id string) string {
	return path.Join(s.dir, id+".json")
}

// Get returns the dashboard with the given raw id. Absence is reported as
// common.ErrNotFound.
func (s *Service) Get(ctx context.Context, rawID string) (*Dashboard, error) {
	id, err := SanitizeID(rawID)
	if err != nil {
		return nil, err
	}
	content, _, err := s.store.Read(ctx, s.docPath(id))
	if err != nil {
		return nil, err
	}
	dash, err := decodeDashboard(content)
	if err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", id, err)
	}
	return dash, nil
}

// Save creates or overwrites a dashboard document through a CAS cycle and
// then updates the index entry as a best-effort follow-up. An index update
// that fails leaves a bounded inconsistency window repaired by Rebuild; it
// does not fail the save.
func (s *Service) Save(ctx context.Context, rawID, name string, state map[string]any, savedBy string) (*Dashboard, error) {
	id, err := SanitizeID(rawID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("dashboard state is required: %w", common.ErrValidation)
	}
	if name == "" {
		name = id
	}

	now := time.Now().UTC()
	var saved Dashboard
	_, err = s.store.Update(ctx, s.docPath(id), "Save dashboard "+id, func(current []byte, exists bool) ([]byte, error) {
		createdAt := now
		if exists {
			if previous, err := decodeDashboard(current); err == nil && !previous.Meta.CreatedAt.IsZero() {
				createdAt = previous.Meta.CreatedAt
			}
		}
		saved = Dashboard{
			Meta: Meta{
				ID:        id,
				Name:      name,
				CreatedAt: createdAt,
				UpdatedAt: now,
				SavedBy:   savedBy,
			},
			State: state,
		}
		return encodeDashboard(&saved)
	})
	if err != nil {
		return nil, err
	}

	if err := s.index.Upsert(ctx, IndexEntry{
		ID:        id,
		Name:      name,
		CreatedAt: saved.Meta.CreatedAt,
		UpdatedAt: saved.Meta.UpdatedAt,
	}); err != nil {
		s.logger.Warn(ctx, "index update failed after dashboard save", "id", id, "error", err)
	}

	return &saved, nil
}

// Delete removes the dashboard document and then its index entry. Like Save,
// the index follow-up is best-effort.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := SanitizeID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.docPath(id), "Delete dashboard "+id); err != nil {
		return err
	}

	if err := s.index.Remove(ctx, id); err != nil {
		s.logger.Warn(ctx, "index update failed after dashboard delete", "id", id, "error", err)
	}
	return nil
}

// List enumerates dashboards from the index, rebuilding it when it is
// missing or empty.
func (s *Service) List(ctx context.Context) ([]IndexEntry, error) {
	entries, err := s.index.Entries(ctx)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}
	return s.index.Rebuild(ctx)
}
