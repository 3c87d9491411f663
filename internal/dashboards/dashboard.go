// Package dashboards stores dashboard documents in a revisioned backend and
// keeps a denormalized index document alongside them for cheap listing.
// Dashboard documents are authoritative; the index is a rebuildable cache.
package dashboards

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mkalinins/dashvault/internal/common"
)

// metaKey is where the bookkeeping block lives inside a dashboard document.
const metaKey = "__meta"

// Meta is the bookkeeping block embedded in every dashboard document.
type Meta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	SavedBy   string    `json:"savedBy,omitempty"`
}

// Dashboard is a stored dashboard: arbitrary client state plus its meta.
type Dashboard struct {
	Meta  Meta
	State map[string]any
}

const maxIDLength = 64

// SanitizeID derives a storage-safe dashboard id from a user-supplied name:
// lowercased, limited to [a-z0-9_-], runs of other characters collapsed to a
// single dash. Names that leave nothing usable, or that collide with the
// reserved "_" prefix, are rejected before any backend call.
func SanitizeID(name string) (string, error) {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	id := strings.Trim(b.String(), "-")
	if len(id) > maxIDLength {
		id = strings.Trim(id[:maxIDLength], "-")
	}
	if id == "" {
		return "", fmt.Errorf("dashboard id %q is empty after sanitizing: %w", name, common.ErrValidation)
	}
	if strings.HasPrefix(id, "_") {
		return "", fmt.Errorf("dashboard id %q uses a reserved prefix: %w", name, common.ErrValidation)
	}
	return id, nil
}

// decodeDashboard splits a stored document into state and meta.
func decodeDashboard(content []byte) (*Dashboard, error) {
	var envelope struct {
		Meta Meta `json:"__meta"`
	}
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, fmt.Errorf("decode dashboard meta: %w", err)
	}

	var state map[string]any
	if err := json.Unmarshal(content, &state); err != nil {
		return nil, fmt.Errorf("decode dashboard state: %w", err)
	}
	delete(state, metaKey)

	return &Dashboard{Meta: envelope.Meta, State: state}, nil
}

// encodeDashboard flattens state and meta back into one document. Output is
// indented: the backing store is a git repository and the files are meant to
// be diffable.
func encodeDashboard(d *Dashboard) ([]byte, error) {
	doc := make(map[string]any, len(d.State)+1)
	for k, v := range d.State {
		if k == metaKey {
			continue
		}
		doc[k] = v
	}
	doc[metaKey] = d.Meta
	return json.MarshalIndent(doc, "", "  ")
}
