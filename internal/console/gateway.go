package console

import (
	"context"
	"encoding/json"
)

// Entity is the gateway's opaque view of one table row: enough for the
// controller to drive selection and transition checks, plus the raw record
// for rendering.
type Entity struct {
	ID     int64           `json:"id"`
	Status string          `json:"status,omitempty"`
	Flags  map[string]bool `json:"flags,omitempty"`
	Record json.RawMessage `json:"record"`
}

// PageEnvelope is one fetched page of entities.
type PageEnvelope struct {
	Items       []Entity `json:"items"`
	CurrentPage int      `json:"current_page"`
	LastPage    int      `json:"last_page"`
	Total       int      `json:"total"`
	PerPage     int      `json:"per_page"`
}

// VisibleIDs returns the IDs present on this page, in display order.
func (p *PageEnvelope) VisibleIDs() []int64 {
	if p == nil {
		return nil
	}
	ids := make([]int64, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Mutation describes a single state change: exactly one of Status or Flag
// is set.
type Mutation struct {
	Status string `json:"status,omitempty"`
	Flag   string `json:"flag,omitempty"`
	Value  bool   `json:"value,omitempty"`
}

// Gateway is the controller's boundary with the entity services. Fetch is
// idempotent; Mutate and Delete report domain-level rejections as errors so
// the executor can route both transport and validation failures to the same
// Failed branch.
type Gateway interface {
	Fetch(ctx context.Context, query Query) (*PageEnvelope, error)
	Mutate(ctx context.Context, id int64, change Mutation) (*Entity, error)
	Delete(ctx context.Context, id int64) error
}
