package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"kiguca/internal/core"
	"kiguca/internal/storage"
)

// Columns the client must never send: identity and ownership are assigned by
// the backend, neto is a generated column recomputed server-side so a stale
// client value can never diverge from the summands.
var backendOwnedColumns = []string{"id", "neto", "created_at", "updated_at", "user_id"}

// Columns stripped from upserts, which do carry ids and timestamps.
var computedColumns = []string{"neto", "user_id"}

type tableOps[T any, D any, P any] struct {
	entity string
	order  string
	record func(D) (T, error) // draft -> validated record, computed fields applied
}

var incomeTable = tableOps[core.Income, core.IncomeDraft, core.IncomePatch]{
	entity: core.EntityIncomes,
	order:  "fecha.desc",
	record: func(d core.IncomeDraft) (core.Income, error) {
		rec := d.Record()
		return rec, rec.Validate()
	},
}

var fuelTable = tableOps[core.Fuel, core.FuelDraft, core.FuelPatch]{
	entity: core.EntityFuel,
	order:  "fecha.desc",
	record: func(d core.FuelDraft) (core.Fuel, error) {
		rec := d.Record()
		return rec, rec.Validate()
	},
}

var maintenanceTable = tableOps[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]{
	entity: core.EntityMaintenance,
	order:  "fecha.desc",
	record: func(d core.MaintenanceDraft) (core.Maintenance, error) {
		rec := d.Record()
		return rec, rec.Validate()
	},
}

var goalTable = tableOps[core.Goal, core.GoalDraft, core.GoalPatch]{
	entity: core.EntityGoals,
	order:  "created_at.desc",
	record: func(d core.GoalDraft) (core.Goal, error) {
		rec, err := d.Record()
		if err != nil {
			return rec, err
		}
		return rec, rec.Validate()
	},
}

type table[T any, D any, P any] struct {
	eng *Engine
	ops tableOps[T, D, P]
}

func (t *table[T, D, P]) List(ctx context.Context) ([]T, error) {
	data, status, err := t.eng.do(ctx, http.MethodGet, t.ops.entity,
		"select=*&order="+t.ops.order, "", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, backendError("list "+t.ops.entity, status, data)
	}
	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.Persistence("decode "+t.ops.entity, err)
	}
	return items, nil
}

// Get maps both "does not exist" and "not owned by this caller" to a nil
// record; row-level security already makes the two indistinguishable and
// keeping them so avoids leaking which ids exist.
func (t *table[T, D, P]) Get(ctx context.Context, id string) (*T, error) {
	data, status, err := t.eng.do(ctx, http.MethodGet, t.ops.entity,
		"select=*&id=eq."+url.QueryEscape(id), "", nil)
	if err != nil {
		return nil, err
	}
	if status >= 500 {
		return nil, backendError("get "+t.ops.entity, status, data)
	}
	if status < 200 || status > 299 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.Persistence("decode "+t.ops.entity, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (t *table[T, D, P]) Create(ctx context.Context, draft D) (*T, error) {
	rec, err := t.ops.record(draft)
	if err != nil {
		return nil, err
	}
	body, err := stripFields(rec, backendOwnedColumns...)
	if err != nil {
		return nil, core.Persistence("encode "+t.ops.entity, err)
	}
	data, status, err := t.eng.do(ctx, http.MethodPost, t.ops.entity,
		"select=*", "return=representation", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, backendError("create "+t.ops.entity, status, data)
	}
	return firstOf[T](t.ops.entity, data)
}

func (t *table[T, D, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	// Patch types carry no computed fields, but strip defensively in case a
	// caller round-trips full records through the patch path.
	body, err := stripFields(patch, computedColumns...)
	if err != nil {
		return nil, core.Persistence("encode "+t.ops.entity, err)
	}
	// PostgREST rejects a PATCH with an empty object; an all-nil patch
	// degrades to a read of the current row.
	if len(body) == 0 {
		rec, err := t.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, core.NotFound(t.ops.entity, id)
		}
		return rec, nil
	}
	data, status, err := t.eng.do(ctx, http.MethodPatch, t.ops.entity,
		"select=*&id=eq."+url.QueryEscape(id), "return=representation", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, backendError("update "+t.ops.entity, status, data)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.Persistence("decode "+t.ops.entity, err)
	}
	if len(items) == 0 {
		return nil, core.NotFound(t.ops.entity, id)
	}
	return &items[0], nil
}

func (t *table[T, D, P]) Remove(ctx context.Context, id string) (bool, error) {
	data, status, err := t.eng.do(ctx, http.MethodDelete, t.ops.entity,
		"id=eq."+url.QueryEscape(id), "return=representation", nil)
	if err != nil {
		return false, err
	}
	if status < 200 || status > 299 {
		return false, backendError("remove "+t.ops.entity, status, data)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return false, core.Persistence("decode "+t.ops.entity, err)
	}
	return len(items) > 0, nil
}

// upsertOne sends a single row keyed on id; hadID decides whether the result
// counts as an update or an insert.
func (t *table[T, D, P]) upsertOne(ctx context.Context, rec T) (hadID bool, err error) {
	body, err := stripFields(rec, computedColumns...)
	if err != nil {
		return false, core.Persistence("encode "+t.ops.entity, err)
	}
	_, hadID = body["id"]
	data, status, err := t.eng.do(ctx, http.MethodPost, t.ops.entity,
		"on_conflict=id", "resolution=merge-duplicates,return=minimal", []map[string]any{body})
	if err != nil {
		return hadID, err
	}
	if status < 200 || status > 299 {
		return hadID, backendError("import "+t.ops.entity, status, data)
	}
	return hadID, nil
}

func upsertList[T any, D any, P any](
	ctx context.Context,
	eng *Engine,
	o tableOps[T, D, P],
	raws []json.RawMessage,
	decode func(json.RawMessage) (T, error),
	res *storage.ImportResult,
) {
	tbl := &table[T, D, P]{eng: eng, ops: o}
	for i, raw := range raws {
		rec, err := decode(raw)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", o.entity, i, err))
			continue
		}
		hadID, err := tbl.upsertOne(ctx, rec)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", o.entity, i, err))
			continue
		}
		if hadID {
			res.Updated++
		} else {
			res.Created++
		}
	}
}

func firstOf[T any](entity string, data []byte) (*T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.Persistence("decode "+entity, err)
	}
	if len(items) == 0 {
		return nil, core.Persistence("decode "+entity, errEmptyResult)
	}
	return &items[0], nil
}
