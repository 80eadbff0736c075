package local

import (
	"context"
	"encoding/json"
	"fmt"

	"kiguca/internal/core"
	"kiguca/internal/storage"
)

type collection[T any, D any, P any] struct {
	eng *Engine
	ops storage.EntityOps[T, D, P]
}

func (c *collection[T, D, P]) List(ctx context.Context) ([]T, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.ops.SortDesc(items)
	return items, nil
}

func (c *collection[T, D, P]) Get(ctx context.Context, id string) (*T, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if *c.ops.ID(&items[i]) == id {
			rec := items[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (c *collection[T, D, P]) Create(ctx context.Context, draft D) (*T, error) {
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
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	items = append(items, rec)
	if err := c.store(ctx, items); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *collection[T, D, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if *c.ops.ID(&items[i]) != id {
			continue
		}
		rec := items[i]
		touched := c.ops.Apply(&rec, patch)
		if touched && c.ops.Recompute != nil {
			c.ops.Recompute(&rec)
		}
		if err := c.ops.Validate(rec); err != nil {
			return nil, err
		}
		*c.ops.UpdatedAt(&rec) = core.NowTimestamp()
		items[i] = rec
		if err := c.store(ctx, items); err != nil {
			return nil, err
		}
		return &rec, nil
	}
	return nil, core.NotFound(c.ops.Entity, id)
}

func (c *collection[T, D, P]) Remove(ctx context.Context, id string) (bool, error) {
	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]T, 0, len(items))
	for i := range items {
		if *c.ops.ID(&items[i]) != id {
			kept = append(kept, items[i])
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if err := c.store(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

// importOne applies one already-decoded record with merge semantics: update
// when the id exists, insert (preserving a provided id) otherwise. Computed
// fields are always re-derived, so an imported neto can never diverge from
// its summands.
func (c *collection[T, D, P]) importOne(ctx context.Context, rec T) (created bool, err error) {
	if c.ops.Recompute != nil {
		c.ops.Recompute(&rec)
	}
	if err := c.ops.Validate(rec); err != nil {
		return false, err
	}

	c.eng.mu.Lock()
	defer c.eng.mu.Unlock()
	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}

	id := *c.ops.ID(&rec)
	if id != "" {
		for i := range items {
			if *c.ops.ID(&items[i]) != id {
				continue
			}
			if *c.ops.CreatedAt(&rec) == "" {
				*c.ops.CreatedAt(&rec) = *c.ops.CreatedAt(&items[i])
			}
			if *c.ops.UpdatedAt(&rec) == "" {
				*c.ops.UpdatedAt(&rec) = core.NowTimestamp()
			}
			items[i] = rec
			return false, c.store(ctx, items)
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
	items = append(items, rec)
	return true, c.store(ctx, items)
}

func (c *collection[T, D, P]) load(ctx context.Context) ([]T, error) {
	data, err := c.eng.readList(ctx, c.ops.Entity)
	if err != nil {
		return nil, core.Persistence("read "+c.ops.Entity, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, core.Persistence("decode "+c.ops.Entity, err)
	}
	return items, nil
}

func (c *collection[T, D, P]) store(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return core.Persistence("encode "+c.ops.Entity, err)
	}
	if err := c.eng.writeList(ctx, c.ops.Entity, data); err != nil {
		return core.Persistence("write "+c.ops.Entity, err)
	}
	return nil
}

func importList[T any, D any, P any](
	ctx context.Context,
	eng *Engine,
	o storage.EntityOps[T, D, P],
	raws []json.RawMessage,
	decode func(json.RawMessage) (T, error),
	res *storage.ImportResult,
) {
	col := &collection[T, D, P]{eng: eng, ops: o}
	for i, raw := range raws {
		rec, err := decode(raw)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", o.Entity, i, err))
			continue
		}
		created, err := col.importOne(ctx, rec)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d]: %v", o.Entity, i, err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
}
