package storage

import (
	"sort"

	"kiguca/internal/core"
)

// List ordering is part of the contract: date descending, except goals which
// order by creation time. ISO dates compare correctly as strings.

func SortIncomesDesc(items []core.Income) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })
}

func SortFuelDesc(items []core.Fuel) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })
}

func SortMaintenanceDesc(items []core.Maintenance) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })
}

func SortGoalsDesc(items []core.Goal) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
}
