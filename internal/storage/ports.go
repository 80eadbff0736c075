// Package storage defines the uniform persistence contract every backend
// engine implements, plus the shared pieces of that contract: the
// export/import dump shape, legacy-field normalization and id generation.
package storage

import (
	"context"
	"encoding/json"

	"kiguca/internal/core"
)

// Store is the per-entity CRUD contract, identical across backends.
//
//   - List returns every record for the current owner, newest first; an empty
//     collection is an empty slice, never an error.
//   - Get returns (nil, nil) when the id does not exist or is not owned by
//     the caller.
//   - Create validates the draft, assigns id, timestamps and computed fields.
//   - Update merges a partial patch, re-derives computed fields when a
//     contributing field is present and refreshes updated_at; it fails with a
//     NotFoundError for unknown ids.
//   - Remove reports a missing id as (false, nil), not as an error.
type Store[T any, D any, P any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, draft D) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type (
	IncomeStore      = Store[core.Income, core.IncomeDraft, core.IncomePatch]
	FuelStore        = Store[core.Fuel, core.FuelDraft, core.FuelPatch]
	MaintenanceStore = Store[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]
	GoalStore        = Store[core.Goal, core.GoalDraft, core.GoalPatch]
)

// Engine is the pluggable persistence contract: one store per entity plus a
// whole-account export/import pair.
type Engine interface {
	Incomes() IncomeStore
	Fuel() FuelStore
	Maintenance() MaintenanceStore
	Goals() GoalStore

	// Export dumps all four collections for the current owner.
	Export(ctx context.Context) (*Dump, error)

	// Import applies a dump best-effort: per-record failures land in the
	// result's Errors, only systemic failures (no backend at all) error out.
	Import(ctx context.Context, dump *RawDump) (*ImportResult, error)
}

// Dump is the export format. Keys match the original app so old exports
// remain importable.
type Dump struct {
	Incomes     []core.Income      `json:"ingresos"`
	Fuel        []core.Fuel        `json:"combustible"`
	Maintenance []core.Maintenance `json:"mantenimiento"`
	Goals       []core.Goal        `json:"objetivos"`
}

// RawDump is the import format: records stay raw until per-record
// normalization and decoding, so one malformed record cannot sink the rest.
type RawDump struct {
	Incomes     []json.RawMessage `json:"ingresos"`
	Fuel        []json.RawMessage `json:"combustible"`
	Maintenance []json.RawMessage `json:"mantenimiento"`
	Goals       []json.RawMessage `json:"objetivos"`
}

// ImportResult reports what a best-effort import actually did.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// Raw converts an export dump back into import form, mostly for round-trip
// flows (restore a backup into another engine).
func (d *Dump) Raw() (*RawDump, error) {
	raw := &RawDump{}
	conv := func(items any) ([]json.RawMessage, error) {
		b, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		var out []json.RawMessage
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var err error
	if raw.Incomes, err = conv(d.Incomes); err != nil {
		return nil, err
	}
	if raw.Fuel, err = conv(d.Fuel); err != nil {
		return nil, err
	}
	if raw.Maintenance, err = conv(d.Maintenance); err != nil {
		return nil, err
	}
	if raw.Goals, err = conv(d.Goals); err != nil {
		return nil, err
	}
	return raw, nil
}
