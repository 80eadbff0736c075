// Package memory implements the storage engine entirely in process memory.
// It exists for tests and for running the app without any backend at all;
// semantics match the local engine (merge-style import, locally computed
// fields, locally generated ids) minus durability.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"kiguca/internal/core"
	"kiguca/internal/storage"
)

type Engine struct {
	mu          sync.Mutex
	incomes     []core.Income
	fuel        []core.Fuel
	maintenance []core.Maintenance
	goals       []core.Goal
}

var _ storage.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Incomes() storage.IncomeStore {
	return &col[core.Income, core.IncomeDraft, core.IncomePatch]{eng: e, items: &e.incomes, ops: storage.IncomeOps}
}

func (e *Engine) Fuel() storage.FuelStore {
	return &col[core.Fuel, core.FuelDraft, core.FuelPatch]{eng: e, items: &e.fuel, ops: storage.FuelOps}
}

func (e *Engine) Maintenance() storage.MaintenanceStore {
	return &col[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]{eng: e, items: &e.maintenance, ops: storage.MaintenanceOps}
}

func (e *Engine) Goals() storage.GoalStore {
	return &col[core.Goal, core.GoalDraft, core.GoalPatch]{eng: e, items: &e.goals, ops: storage.GoalOps}
}

func (e *Engine) Export(ctx context.Context) (*storage.Dump, error) {
	dump := &storage.Dump{}
	var err error
	if dump.Incomes, err = e.Incomes().List(ctx); err != nil {
		return nil, err
	}
	if dump.Fuel, err = e.Fuel().List(ctx); err != nil {
		return nil, err
	}
	if dump.Maintenance, err = e.Maintenance().List(ctx); err != nil {
		return nil, err
	}
	if dump.Goals, err = e.Goals().List(ctx); err != nil {
		return nil, err
	}
	return dump, nil
}

func (e *Engine) Import(ctx context.Context, dump *storage.RawDump) (*storage.ImportResult, error) {
	res := &storage.ImportResult{Errors: []string{}}
	importList(ctx, &col[core.Income, core.IncomeDraft, core.IncomePatch]{eng: e, items: &e.incomes, ops: storage.IncomeOps}, dump.Incomes, storage.DecodeIncome, res)
	importList(ctx, &col[core.Fuel, core.FuelDraft, core.FuelPatch]{eng: e, items: &e.fuel, ops: storage.FuelOps}, dump.Fuel, storage.DecodeFuel, res)
	importList(ctx, &col[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]{eng: e, items: &e.maintenance, ops: storage.MaintenanceOps}, dump.Maintenance, storage.DecodeMaintenance, res)
	importList(ctx, &col[core.Goal, core.GoalDraft, core.GoalPatch]{eng: e, items: &e.goals, ops: storage.GoalOps}, dump.Goals, storage.DecodeGoal, res)
	return res, nil
}

type col[T any, D any, P any] struct {
	eng   *Engine
	items *[]T
	ops   storage.EntityOps[T, D, P]
}

func (c *col[T, D, P]) List(context.Context) ([]T, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	out := append([]T{}, *c.items...)
	c.ops.SortDesc(out)
	return out, nil
}

func (c *col[T, D, P]) Get(_ context.Context, id string) (*T, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	for i := range *c.items {
		if *c.ops.ID(&(*c.items)[i]) == id {
			rec := (*c.items)[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (c *col[T, D, P]) Create(_ context.Context, draft D) (*T, error) {
	rec, err := c.ops.FromDraft(draft)
	if err != nil {
		return nil, err
	}
	now := core.NowTimestamp()
	*c.ops.ID(&rec) = storage.NewID()
	*c.ops.CreatedAt(&rec) = now
	*c.ops.UpdatedAt(&rec) = now

	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	*c.items = append(*c.items, rec)
	return &rec, nil
}

func (c *col[T, D, P]) Update(_ context.Context, id string, patch P) (*T, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	for i := range *c.items {
		if *c.ops.ID(&(*c.items)[i]) != id {
			continue
		}
		rec := (*c.items)[i]
		touched := c.ops.Apply(&rec, patch)
		if touched && c.ops.Recompute != nil {
			c.ops.Recompute(&rec)
		}
		if err := c.ops.Validate(rec); err != nil {
			return nil, err
		}
		*c.ops.UpdatedAt(&rec) = core.NowTimestamp()
		(*c.items)[i] = rec
		return &rec, nil
	}
	return nil, core.NotFound(c.ops.Entity, id)
}

func (c *col[T, D, P]) Remove(_ context.Context, id string) (bool, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	kept := make([]T, 0, len(*c.items))
	for i := range *c.items {
		if *c.ops.ID(&(*c.items)[i]) != id {
			kept = append(kept, (*c.items)[i])
		}
	}
	if len(kept) == len(*c.items) {
		return false, nil
	}
	*c.items = kept
	return true, nil
}

func (c *col[T, D, P]) importOne(rec T) (created bool, err error) {
	if c.ops.Recompute != nil {
		c.ops.Recompute(&rec)
	}
	if err := c.ops.Validate(rec); err != nil {
		return false, err
	}

	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	id := *c.ops.ID(&rec)
	if id != "" {
		for i := range *c.items {
			if *c.ops.ID(&(*c.items)[i]) != id {
				continue
			}
			if *c.ops.CreatedAt(&rec) == "" {
				*c.ops.CreatedAt(&rec) = *c.ops.CreatedAt(&(*c.items)[i])
			}
			if *c.ops.UpdatedAt(&rec) == "" {
				*c.ops.UpdatedAt(&rec) = core.NowTimestamp()
			}
			(*c.items)[i] = rec
			return false, nil
		}
	}

	if id == "" {
		*c.ops.ID(&rec) = storage.NewID()
	}
	now := core.NowTimestamp()
	if *c.ops.CreatedAt(&rec) == "" {
		*c.ops.CreatedAt(&rec) = now
	}
	if *c.ops.UpdatedAt(&rec) == "" {
		*c.ops.UpdatedAt(&rec) = now
	}
	*c.items = append(*c.items, rec)
	return true, nil
}

func importList[T any, D any, P any](
	_ context.Context,
	c *col[T, D, P],
	raws []json.RawMessage,
	decode func(json.RawMessage) (T, error),
	res *storage.ImportResult,
) {
	for i, raw := range raws {
		rec, err := decode(raw)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", c.ops.Entity, i, err))
			continue
		}
		created, err := c.importOne(rec)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", c.ops.Entity, i, err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
}
