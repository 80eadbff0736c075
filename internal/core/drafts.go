package core

import "strings"

// Draft types are the create payloads: everything the caller may set, and
// nothing the engine owns (id, timestamps, computed fields). Record() turns a
// draft into a full entity, applying the computed-field and fallback rules;
// the engine then assigns id and timestamps.

type IncomeDraft struct {
	Date       string   `json:"fecha"`
	Platform   Platform `json:"plataforma"`
	Hours      float64  `json:"horas"`
	Trips      int64    `json:"viajes"`
	Gross      int64    `json:"bruto"`
	Promos     int64    `json:"promos"`
	Tips       int64    `json:"propinas"`
	Tolls      int64    `json:"peajes"`
	OtherCosts int64    `json:"otros_costos"`
	Notes      string   `json:"notas,omitempty"`
}

func (d IncomeDraft) Record() Income {
	rec := Income{
		Date:       d.Date,
		Platform:   d.Platform,
		Hours:      d.Hours,
		Trips:      d.Trips,
		Gross:      d.Gross,
		Promos:     d.Promos,
		Tips:       d.Tips,
		Tolls:      d.Tolls,
		OtherCosts: d.OtherCosts,
		Notes:      d.Notes,
	}
	rec.RecomputeNet()
	return rec
}

type FuelDraft struct {
	Date     string   `json:"fecha"`
	Type     FuelType `json:"tipo"`
	Quantity float64  `json:"cantidad"`
	Unit     Unit     `json:"unidad"`
	Amount   int64    `json:"monto"`
	Odometer int64    `json:"odometro"`
	Station  string   `json:"estacion,omitempty"`
	Notes    string   `json:"notas,omitempty"`
}

func (d FuelDraft) Record() Fuel {
	return Fuel{
		Date:     d.Date,
		Type:     d.Type,
		Quantity: d.Quantity,
		Unit:     d.Unit,
		Amount:   d.Amount,
		Odometer: d.Odometer,
		Station:  d.Station,
		Notes:    d.Notes,
	}
}

type MaintenanceDraft struct {
	Date          string `json:"fecha"`
	Category      string `json:"categoria"`
	Detail        string `json:"detalle"`
	Odometer      int64  `json:"odometro"`
	Cost          int64  `json:"costo"`
	AttachmentURL string `json:"adjunto_url,omitempty"`
}

func (d MaintenanceDraft) Record() Maintenance {
	detail := strings.TrimSpace(d.Detail)
	if detail == "" {
		detail = strings.TrimSpace(d.Category)
	}
	return Maintenance{
		Date:          d.Date,
		Category:      d.Category,
		Detail:        detail,
		Odometer:      d.Odometer,
		Cost:          d.Cost,
		AttachmentURL: d.AttachmentURL,
	}
}

type GoalDraft struct {
	Name      string     `json:"nombre"`
	Amount    int64      `json:"monto"`
	Period    GoalPeriod `json:"periodo"`
	StartDate string     `json:"fecha_inicio"`
	EndDate   string     `json:"fecha_fin,omitempty"` // derived from StartDate+Period when empty
	Status    GoalStatus `json:"estado,omitempty"`    // defaults to activo
	Notes     string     `json:"notas,omitempty"`
}

func (d GoalDraft) Record() (Goal, error) {
	end := d.EndDate
	if end == "" {
		derived, err := DeriveGoalEnd(d.StartDate, d.Period)
		if err != nil {
			return Goal{}, err
		}
		end = derived
	}
	status := d.Status
	if status == "" {
		status = GoalActive
	}
	return Goal{
		Name:      d.Name,
		Amount:    d.Amount,
		Period:    d.Period,
		StartDate: d.StartDate,
		EndDate:   end,
		Status:    status,
		Notes:     d.Notes,
	}, nil
}

// Patch types are partial updates: nil means "leave as is". Apply merges the
// patch into rec and reports whether a net-contributing field was touched
// (always false for entities without computed fields).

type IncomePatch struct {
	Date       *string   `json:"fecha,omitempty"`
	Platform   *Platform `json:"plataforma,omitempty"`
	Hours      *float64  `json:"horas,omitempty"`
	Trips      *int64    `json:"viajes,omitempty"`
	Gross      *int64    `json:"bruto,omitempty"`
	Promos     *int64    `json:"promos,omitempty"`
	Tips       *int64    `json:"propinas,omitempty"`
	Tolls      *int64    `json:"peajes,omitempty"`
	OtherCosts *int64    `json:"otros_costos,omitempty"`
	Notes      *string   `json:"notas,omitempty"`
}

func (p IncomePatch) Apply(rec *Income) bool {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Platform != nil {
		rec.Platform = *p.Platform
	}
	if p.Hours != nil {
		rec.Hours = *p.Hours
	}
	if p.Trips != nil {
		rec.Trips = *p.Trips
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	touched := false
	if p.Gross != nil {
		rec.Gross = *p.Gross
		touched = true
	}
	if p.Promos != nil {
		rec.Promos = *p.Promos
		touched = true
	}
	if p.Tips != nil {
		rec.Tips = *p.Tips
		touched = true
	}
	if p.Tolls != nil {
		rec.Tolls = *p.Tolls
		touched = true
	}
	if p.OtherCosts != nil {
		rec.OtherCosts = *p.OtherCosts
		touched = true
	}
	return touched
}

type FuelPatch struct {
	Date     *string   `json:"fecha,omitempty"`
	Type     *FuelType `json:"tipo,omitempty"`
	Quantity *float64  `json:"cantidad,omitempty"`
	Unit     *Unit     `json:"unidad,omitempty"`
	Amount   *int64    `json:"monto,omitempty"`
	Odometer *int64    `json:"odometro,omitempty"`
	Station  *string   `json:"estacion,omitempty"`
	Notes    *string   `json:"notas,omitempty"`
}

func (p FuelPatch) Apply(rec *Fuel) bool {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Type != nil {
		rec.Type = *p.Type
	}
	if p.Quantity != nil {
		rec.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		rec.Unit = *p.Unit
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Odometer != nil {
		rec.Odometer = *p.Odometer
	}
	if p.Station != nil {
		rec.Station = *p.Station
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	return false
}

type MaintenancePatch struct {
	Date          *string `json:"fecha,omitempty"`
	Category      *string `json:"categoria,omitempty"`
	Detail        *string `json:"detalle,omitempty"`
	Odometer      *int64  `json:"odometro,omitempty"`
	Cost          *int64  `json:"costo,omitempty"`
	AttachmentURL *string `json:"adjunto_url,omitempty"`
}

func (p MaintenancePatch) Apply(rec *Maintenance) bool {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Category != nil {
		rec.Category = *p.Category
	}
	if p.Detail != nil {
		rec.Detail = *p.Detail
	}
	if p.Odometer != nil {
		rec.Odometer = *p.Odometer
	}
	if p.Cost != nil {
		rec.Cost = *p.Cost
	}
	if p.AttachmentURL != nil {
		rec.AttachmentURL = *p.AttachmentURL
	}
	return false
}

type GoalPatch struct {
	Name      *string     `json:"nombre,omitempty"`
	Amount    *int64      `json:"monto,omitempty"`
	Period    *GoalPeriod `json:"periodo,omitempty"`
	StartDate *string     `json:"fecha_inicio,omitempty"`
	EndDate   *string     `json:"fecha_fin,omitempty"`
	Status    *GoalStatus `json:"estado,omitempty"`
	Notes     *string     `json:"notas,omitempty"`
}

func (p GoalPatch) Apply(rec *Goal) bool {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Period != nil {
		rec.Period = *p.Period
	}
	if p.StartDate != nil {
		rec.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		rec.EndDate = *p.EndDate
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	return false
}
