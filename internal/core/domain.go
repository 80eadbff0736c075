package core

import (
	"strings"
	"time"
)

// Entity collection names, also used as export/import keys and remote table names.
const (
	EntityIncomes     = "ingresos"
	EntityFuel        = "combustible"
	EntityMaintenance = "mantenimiento"
	EntityGoals       = "objetivos"
)

const (
	PlatformUber Platform = "uber"
	PlatformDidi Platform = "didi"

	FuelLiquid FuelType = "nafta"
	FuelGas    FuelType = "gnc"

	UnitLiters     Unit = "L"
	UnitCubicMeter Unit = "m3"

	GoalWeekly  GoalPeriod = "semanal"
	GoalMonthly GoalPeriod = "mensual"

	GoalActive GoalStatus = "activo"
	GoalClosed GoalStatus = "cerrado"
)

type (
	Platform   string
	FuelType   string
	Unit       string
	GoalPeriod string
	GoalStatus string

	// Income is one day's earnings on a single platform. All amounts are
	// integer ARS. Neto is computed, never accepted from callers.
	Income struct {
		ID         string   `json:"id"`
		Date       string   `json:"fecha"` // YYYY-MM-DD
		Platform   Platform `json:"plataforma"`
		Hours      float64  `json:"horas"`
		Trips      int64    `json:"viajes"`
		Gross      int64    `json:"bruto"`
		Promos     int64    `json:"promos"`
		Tips       int64    `json:"propinas"`
		Tolls      int64    `json:"peajes"`
		OtherCosts int64    `json:"otros_costos"`
		Notes      string   `json:"notas,omitempty"`
		Net        int64    `json:"neto"`
		CreatedAt  string   `json:"created_at,omitempty"`
		UpdatedAt  string   `json:"updated_at,omitempty"`
	}

	// Fuel is a single refueling stop.
	Fuel struct {
		ID        string   `json:"id"`
		Date      string   `json:"fecha"`
		Type      FuelType `json:"tipo"`
		Quantity  float64  `json:"cantidad"` // liters or m3, per Unit
		Unit      Unit     `json:"unidad"`
		Amount    int64    `json:"monto"`
		Odometer  int64    `json:"odometro"` // km
		Station   string   `json:"estacion,omitempty"`
		Notes     string   `json:"notas,omitempty"`
		CreatedAt string   `json:"created_at,omitempty"`
		UpdatedAt string   `json:"updated_at,omitempty"`
	}

	Maintenance struct {
		ID            string `json:"id"`
		Date          string `json:"fecha"`
		Category      string `json:"categoria"`
		Detail        string `json:"detalle"`
		Odometer      int64  `json:"odometro"`
		Cost          int64  `json:"costo"`
		AttachmentURL string `json:"adjunto_url,omitempty"`
		CreatedAt     string `json:"created_at,omitempty"`
		UpdatedAt     string `json:"updated_at,omitempty"`
	}

	Goal struct {
		ID        string     `json:"id"`
		Name      string     `json:"nombre"`
		Amount    int64      `json:"monto"`
		Period    GoalPeriod `json:"periodo"`
		StartDate string     `json:"fecha_inicio"`
		EndDate   string     `json:"fecha_fin"`
		Status    GoalStatus `json:"estado"`
		Notes     string     `json:"notas,omitempty"`
		CreatedAt string     `json:"created_at,omitempty"`
		UpdatedAt string     `json:"updated_at,omitempty"`
	}
)

func (p Platform) IsValid() bool   { return p == PlatformUber || p == PlatformDidi }
func (f FuelType) IsValid() bool   { return f == FuelLiquid || f == FuelGas }
func (u Unit) IsValid() bool       { return u == UnitLiters || u == UnitCubicMeter }
func (p GoalPeriod) IsValid() bool { return p == GoalWeekly || p == GoalMonthly }
func (s GoalStatus) IsValid() bool { return s == GoalActive || s == GoalClosed }

// DateLayout is the wire format for entity dates.
const DateLayout = "2006-01-02"

// TimestampLayout matches the ISO timestamps the original exports carry.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// NowTimestamp returns the current UTC time in the wire timestamp format.
func NowTimestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// NetAmount is the single source of truth for Income.Net, applied identically
// by every engine: bruto + promos + propinas - (peajes + otros_costos).
func NetAmount(gross, promos, tips, tolls, otherCosts int64) int64 {
	return gross + promos + tips - (tolls + otherCosts)
}

// RecomputeNet re-derives Net from the record's own summands.
func (i *Income) RecomputeNet() {
	i.Net = NetAmount(i.Gross, i.Promos, i.Tips, i.Tolls, i.OtherCosts)
}

func (i Income) Validate() error {
	if !ValidDate(i.Date) {
		return validation(EntityIncomes, "fecha", "must be YYYY-MM-DD")
	}
	if !i.Platform.IsValid() {
		return validation(EntityIncomes, "plataforma", "must be uber or didi")
	}
	if i.Hours < 0 {
		return validation(EntityIncomes, "horas", "must be >= 0")
	}
	if i.Trips < 0 {
		return validation(EntityIncomes, "viajes", "must be >= 0")
	}
	if i.Gross < 0 {
		return validation(EntityIncomes, "bruto", "must be >= 0")
	}
	if i.Promos < 0 {
		return validation(EntityIncomes, "promos", "must be >= 0")
	}
	if i.Tips < 0 {
		return validation(EntityIncomes, "propinas", "must be >= 0")
	}
	if i.Tolls < 0 {
		return validation(EntityIncomes, "peajes", "must be >= 0")
	}
	if i.OtherCosts < 0 {
		return validation(EntityIncomes, "otros_costos", "must be >= 0")
	}
	return nil
}

func (f Fuel) Validate() error {
	if !ValidDate(f.Date) {
		return validation(EntityFuel, "fecha", "must be YYYY-MM-DD")
	}
	if !f.Type.IsValid() {
		return validation(EntityFuel, "tipo", "must be nafta or gnc")
	}
	if f.Quantity <= 0 {
		return validation(EntityFuel, "cantidad", "must be > 0")
	}
	if !f.Unit.IsValid() {
		return validation(EntityFuel, "unidad", "must be L or m3")
	}
	if f.Amount < 0 {
		return validation(EntityFuel, "monto", "must be >= 0")
	}
	if f.Odometer <= 0 {
		return validation(EntityFuel, "odometro", "must be > 0")
	}
	return nil
}

func (m Maintenance) Validate() error {
	if !ValidDate(m.Date) {
		return validation(EntityMaintenance, "fecha", "must be YYYY-MM-DD")
	}
	if strings.TrimSpace(m.Category) == "" {
		return validation(EntityMaintenance, "categoria", "is required")
	}
	if strings.TrimSpace(m.Detail) == "" {
		return validation(EntityMaintenance, "detalle", "is required")
	}
	if m.Odometer <= 0 {
		return validation(EntityMaintenance, "odometro", "must be > 0")
	}
	if m.Cost < 0 {
		return validation(EntityMaintenance, "costo", "must be >= 0")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return validation(EntityGoals, "nombre", "is required")
	}
	if g.Amount <= 0 {
		return validation(EntityGoals, "monto", "must be > 0")
	}
	if !g.Period.IsValid() {
		return validation(EntityGoals, "periodo", "must be semanal or mensual")
	}
	if !ValidDate(g.StartDate) {
		return validation(EntityGoals, "fecha_inicio", "must be YYYY-MM-DD")
	}
	if !ValidDate(g.EndDate) {
		return validation(EntityGoals, "fecha_fin", "must be YYYY-MM-DD")
	}
	if !g.Status.IsValid() {
		return validation(EntityGoals, "estado", "must be activo or cerrado")
	}
	return nil
}

// DeriveGoalEnd computes the last day of a goal period started at startDate:
// six days later for weekly goals, the day before the same day next month for
// monthly ones. A start day with no counterpart in the next month (the 31st,
// say) clamps to that month's last day before the day is subtracted, so a
// monthly goal opened on Jan 31 ends on Feb 27 and a successor goal starting
// the next day covers Feb 28 onward. Short months shorten the period, they
// never push the end into the month after next.
func DeriveGoalEnd(startDate string, period GoalPeriod) (string, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return "", validation(EntityGoals, "fecha_inicio", "must be YYYY-MM-DD")
	}
	switch period {
	case GoalWeekly:
		return start.AddDate(0, 0, 6).Format(DateLayout), nil
	case GoalMonthly:
		y, m, d := start.Date()
		nextY, nextM := y, m+1
		if nextM > time.December {
			nextY, nextM = y+1, time.January
		}
		if last := lastDayOfMonth(nextY, nextM); d > last {
			d = last
		}
		next := time.Date(nextY, nextM, d, 0, 0, 0, 0, time.UTC)
		return next.AddDate(0, 0, -1).Format(DateLayout), nil
	default:
		return "", validation(EntityGoals, "periodo", "must be semanal or mensual")
	}
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
