// Package local implements the storage engine backed by an on-device sqlite
// file used as a key-value store: one serialized JSON array per entity under
// a versioned key. The engine owns id generation and computed-field
// recalculation; every mutation rewrites the whole collection, so writes cost
// O(n) by design.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kiguca/internal/core"
	"kiguca/internal/storage"

	_ "modernc.org/sqlite"
)

const keyPrefix = "kiguca_v1_"

type Engine struct {
	db *sql.DB
	mu sync.Mutex
}

var _ storage.Engine = (*Engine)(nil)

// Open opens (creating if needed) the sqlite store at dbPath and runs the
// embedded migrations.
func Open(dbPath string) (*Engine, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Engine{db: db}, nil
}

func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

func (e *Engine) Incomes() storage.IncomeStore {
	return &collection[core.Income, core.IncomeDraft, core.IncomePatch]{eng: e, ops: storage.IncomeOps}
}

func (e *Engine) Fuel() storage.FuelStore {
	return &collection[core.Fuel, core.FuelDraft, core.FuelPatch]{eng: e, ops: storage.FuelOps}
}

func (e *Engine) Maintenance() storage.MaintenanceStore {
	return &collection[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]{eng: e, ops: storage.MaintenanceOps}
}

func (e *Engine) Goals() storage.GoalStore {
	return &collection[core.Goal, core.GoalDraft, core.GoalPatch]{eng: e, ops: storage.GoalOps}
}

// Export dumps all four collections in list order.
func (e *Engine) Export(ctx context.Context) (*storage.Dump, error) {
	dump := &storage.Dump{
		Incomes:     []core.Income{},
		Fuel:        []core.Fuel{},
		Maintenance: []core.Maintenance{},
		Goals:       []core.Goal{},
	}
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

// Import merges a dump into the store: records whose id already exists are
// updated in place, everything else is inserted, preserving caller-supplied
// ids so a restore reproduces the exported records. Failures are collected
// per record and never abort the remaining ones.
func (e *Engine) Import(ctx context.Context, dump *storage.RawDump) (*storage.ImportResult, error) {
	res := &storage.ImportResult{Errors: []string{}}
	importList(ctx, e, storage.IncomeOps, dump.Incomes, storage.DecodeIncome, res)
	importList(ctx, e, storage.FuelOps, dump.Fuel, storage.DecodeFuel, res)
	importList(ctx, e, storage.MaintenanceOps, dump.Maintenance, storage.DecodeMaintenance, res)
	importList(ctx, e, storage.GoalOps, dump.Goals, storage.DecodeGoal, res)
	return res, nil
}
