package storage

import "kiguca/internal/core"

// EntityOps bundles the per-entity behavior engines need to run the shared
// CRUD semantics generically: building a record from a draft, merging a
// patch, re-deriving computed fields and reaching the engine-owned metadata.
type EntityOps[T any, D any, P any] struct {
	Entity    string
	FromDraft func(D) (T, error)
	Apply     func(*T, P) bool // reports whether a computed-field summand changed
	Recompute func(*T)         // nil when the entity has no computed fields
	Validate  func(T) error
	SortDesc  func([]T)
	ID        func(*T) *string
	CreatedAt func(*T) *string
	UpdatedAt func(*T) *string
}

var IncomeOps = EntityOps[core.Income, core.IncomeDraft, core.IncomePatch]{
	Entity: core.EntityIncomes,
	FromDraft: func(d core.IncomeDraft) (core.Income, error) {
		rec := d.Record()
		return rec, rec.Validate()
	},
	Apply:     func(r *core.Income, p core.IncomePatch) bool { return p.Apply(r) },
	Recompute: func(r *core.Income) { r.RecomputeNet() },
	Validate:  core.Income.Validate,
	SortDesc:  SortIncomesDesc,
	ID:        func(r *core.Income) *string { return &r.ID },
	CreatedAt: func(r *core.Income) *string { return &r.CreatedAt },
	UpdatedAt: func(r *core.Income) *string { return &r.UpdatedAt },
}

var FuelOps = EntityOps[core.Fuel, core.FuelDraft, core.FuelPatch]{
	Entity: core.EntityFuel,
	FromDraft: func(d core.FuelDraft) (core.Fuel, error) {
		rec := d.Record()
		return rec, rec.Validate()
	},
	Apply:     func(r *core.Fuel, p core.FuelPatch) bool { return p.Apply(r) },
	Validate:  core.Fuel.Validate,
	SortDesc:  SortFuelDesc,
	ID:        func(r *core.Fuel) *string { return &r.ID },
	CreatedAt: func(r *core.Fuel) *string { return &r.CreatedAt },
	UpdatedAt: func(r *core.Fuel) *string { return &r.UpdatedAt },
}

var MaintenanceOps = EntityOps[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]{
	Entity: core.EntityMaintenance,
	FromDraft: func(d core.MaintenanceDraft) (core.Maintenance, error) {
		rec := d.Record()
		return rec, rec.Validate()
	},
	Apply:     func(r *core.Maintenance, p core.MaintenancePatch) bool { return p.Apply(r) },
	Validate:  core.Maintenance.Validate,
	SortDesc:  SortMaintenanceDesc,
	ID:        func(r *core.Maintenance) *string { return &r.ID },
	CreatedAt: func(r *core.Maintenance) *string { return &r.CreatedAt },
	UpdatedAt: func(r *core.Maintenance) *string { return &r.UpdatedAt },
}

var GoalOps = EntityOps[core.Goal, core.GoalDraft, core.GoalPatch]{
	Entity: core.EntityGoals,
	FromDraft: func(d core.GoalDraft) (core.Goal, error) {
		rec, err := d.Record()
		if err != nil {
			return rec, err
		}
		return rec, rec.Validate()
	},
	Apply:     func(r *core.Goal, p core.GoalPatch) bool { return p.Apply(r) },
	Validate:  core.Goal.Validate,
	SortDesc:  SortGoalsDesc,
	ID:        func(r *core.Goal) *string { return &r.ID },
	CreatedAt: func(r *core.Goal) *string { return &r.CreatedAt },
	UpdatedAt: func(r *core.Goal) *string { return &r.UpdatedAt },
}
