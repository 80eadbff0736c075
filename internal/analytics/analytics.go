// Package analytics derives the dashboard numbers from raw records. All
// functions here are pure; the Service wraps them around an engine.
package analytics

import (
	"sort"
	"time"

	"kiguca/internal/core"
	"kiguca/internal/period"
)

// DailyNet is the net income total for one calendar day.
type DailyNet struct {
	Date string `json:"fecha"`
	Net  int64  `json:"neto"`
}

// WeeklyNet is the net income total for one ISO week, keyed by its Monday.
type WeeklyNet struct {
	WeekStart string `json:"semana"`
	Net       int64  `json:"neto"`
}

// PlatformSummary holds per-platform net totals plus the grand total. Both
// platforms are always present, zero when no records exist.
type PlatformSummary struct {
	Uber  int64 `json:"uber"`
	Didi  int64 `json:"didi"`
	Total int64 `json:"total"`
}

// FuelStats aggregates refueling records over a period. CostPerKM is nil when
// no distance can be derived.
type FuelStats struct {
	TotalSpend int64    `json:"gasto_total"`
	DistanceKM int64    `json:"km_recorridos"`
	CostPerKM  *float64 `json:"costo_por_km"`
}

// FuelSnapshot is the most recent refueling plus its derived unit price.
type FuelSnapshot struct {
	Record    *core.Fuel `json:"registro"`
	UnitPrice *float64   `json:"precio_unitario"`
}

// IncomeRates are per-record efficiency figures. Each rate is nil when its
// denominator is zero.
type IncomeRates struct {
	NetPerHour *float64 `json:"neto_por_hora"`
	NetPerTrip *float64 `json:"neto_por_viaje"`
	PromoPct   *float64 `json:"promos_pct"`
	CostPct    *float64 `json:"costos_pct"`
}

// ActiveGoal returns the active goal created most recently, or nil when none
// is active. Timestamps sort lexicographically in the wire format.
func ActiveGoal(goals []core.Goal) *core.Goal {
	var best *core.Goal
	for i := range goals {
		g := &goals[i]
		if g.Status != core.GoalActive {
			continue
		}
		if best == nil || g.CreatedAt > best.CreatedAt {
			best = g
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// GoalRange is the goal's own start and end dates as an inclusive range.
func GoalRange(g core.Goal) (period.Range, error) {
	start, err := time.Parse(core.DateLayout, g.StartDate)
	if err != nil {
		return period.Range{}, err
	}
	end, err := time.Parse(core.DateLayout, g.EndDate)
	if err != nil {
		return period.Range{}, err
	}
	return period.Range{
		Start: start,
		End:   end.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}, nil
}

// FilterIncomes keeps the records whose date falls within r.
func FilterIncomes(incomes []core.Income, r period.Range) []core.Income {
	out := make([]core.Income, 0, len(incomes))
	for _, inc := range incomes {
		if period.IsWithin(inc.Date, r) {
			out = append(out, inc)
		}
	}
	return out
}

// FilterFuel keeps the records whose date falls within r.
func FilterFuel(fuel []core.Fuel, r period.Range) []core.Fuel {
	out := make([]core.Fuel, 0, len(fuel))
	for _, f := range fuel {
		if period.IsWithin(f.Date, r) {
			out = append(out, f)
		}
	}
	return out
}

// GroupByDay sums net income per calendar day, days ascending.
func GroupByDay(incomes []core.Income) []DailyNet {
	byDay := make(map[string]int64)
	for _, inc := range incomes {
		byDay[inc.Date] += inc.Net
	}
	out := make([]DailyNet, 0, len(byDay))
	for date, net := range byDay {
		out = append(out, DailyNet{Date: date, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// GroupByWeek sums net income per ISO week, keyed by the week's Monday and
// sorted ascending. Sunday counts as the seventh day of its week.
func GroupByWeek(incomes []core.Income) []WeeklyNet {
	byWeek := make(map[string]int64)
	for _, inc := range incomes {
		day, err := time.Parse(core.DateLayout, inc.Date)
		if err != nil {
			continue
		}
		monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		byWeek[monday.Format(core.DateLayout)] += inc.Net
	}
	out := make([]WeeklyNet, 0, len(byWeek))
	for week, net := range byWeek {
		out = append(out, WeeklyNet{WeekStart: week, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return out
}

// SumByPlatform totals net income per platform.
func SumByPlatform(incomes []core.Income) PlatformSummary {
	var s PlatformSummary
	for _, inc := range incomes {
		switch inc.Platform {
		case core.PlatformUber:
			s.Uber += inc.Net
		case core.PlatformDidi:
			s.Didi += inc.Net
		}
		s.Total += inc.Net
	}
	return s
}

// FuelStatsForPeriod totals fuel spend and distance within r. Distance is the
// sum of positive odometer deltas in date order; a decreasing reading (a
// correction, or a second car) contributes nothing.
func FuelStatsForPeriod(fuel []core.Fuel, r period.Range) FuelStats {
	records := FilterFuel(fuel, r)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })

	var stats FuelStats
	for i, f := range records {
		stats.TotalSpend += f.Amount
		if i == 0 {
			continue
		}
		if delta := f.Odometer - records[i-1].Odometer; delta > 0 {
			stats.DistanceKM += delta
		}
	}
	if stats.DistanceKM > 0 {
		perKM := float64(stats.TotalSpend) / float64(stats.DistanceKM)
		stats.CostPerKM = &perKM
	}
	return stats
}

// LastFuelRecord finds the most recent refueling and its unit price.
func LastFuelRecord(fuel []core.Fuel) FuelSnapshot {
	var last *core.Fuel
	for i := range fuel {
		f := &fuel[i]
		if last == nil || f.Date > last.Date ||
			(f.Date == last.Date && f.CreatedAt > last.CreatedAt) {
			last = f
		}
	}
	if last == nil {
		return FuelSnapshot{}
	}
	rec := *last
	snap := FuelSnapshot{Record: &rec}
	if rec.Quantity > 0 {
		price := float64(rec.Amount) / rec.Quantity
		snap.UnitPrice = &price
	}
	return snap
}

// RatesFor derives per-record efficiency figures for one income entry.
func RatesFor(inc core.Income) IncomeRates {
	var rates IncomeRates
	if inc.Hours > 0 {
		v := float64(inc.Net) / inc.Hours
		rates.NetPerHour = &v
	}
	if inc.Trips > 0 {
		v := float64(inc.Net) / float64(inc.Trips)
		rates.NetPerTrip = &v
	}
	if inc.Gross > 0 {
		promo := float64(inc.Promos) / float64(inc.Gross) * 100
		cost := float64(inc.Tolls+inc.OtherCosts) / float64(inc.Gross) * 100
		rates.PromoPct = &promo
		rates.CostPct = &cost
	}
	return rates
}
