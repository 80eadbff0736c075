package analytics

import (
	"context"
	"time"

	"kiguca/internal/core"
	"kiguca/internal/period"
	"kiguca/internal/storage"
)

// GoalProgress pairs the active goal with the incomes earned inside its own
// period. Zero value (nil Goal) means no goal is active.
type GoalProgress struct {
	Goal    *core.Goal    `json:"objetivo"`
	Incomes []core.Income `json:"ingresos"`
	Range   period.Range  `json:"-"`
	Net     int64         `json:"neto_acumulado"`
}

// Dashboard is everything the summary view needs in one response.
type Dashboard struct {
	CycleStart    string          `json:"ciclo_inicio"`
	CycleEnd      string          `json:"ciclo_fin"`
	RemainingDays int             `json:"dias_restantes"`
	CycleNet      int64           `json:"neto_ciclo"`
	ByDay         []DailyNet      `json:"por_dia"`
	ByWeek        []WeeklyNet     `json:"por_semana"`
	ByPlatform    PlatformSummary `json:"por_plataforma"`
	Fuel          FuelStats       `json:"combustible"`
	LastFuel      FuelSnapshot    `json:"ultima_carga"`
	Goal          *GoalProgress   `json:"objetivo,omitempty"`
}

// Service computes metrics against whatever engine the process runs on.
type Service struct {
	engine    storage.Engine
	anchorDay int
}

func NewService(engine storage.Engine, anchorDay int) *Service {
	return &Service{engine: engine, anchorDay: anchorDay}
}

// ActiveGoal fetches goals and picks the active one, nil when none.
func (s *Service) ActiveGoal(ctx context.Context) (*core.Goal, error) {
	goals, err := s.engine.Goals().List(ctx)
	if err != nil {
		return nil, err
	}
	return ActiveGoal(goals), nil
}

// IncomesWithinGoalPeriod resolves the active goal and the incomes that fall
// inside its period. Returns the zero GoalProgress when no goal is active.
func (s *Service) IncomesWithinGoalPeriod(ctx context.Context) (GoalProgress, error) {
	goal, err := s.ActiveGoal(ctx)
	if err != nil {
		return GoalProgress{}, err
	}
	if goal == nil {
		return GoalProgress{Incomes: []core.Income{}}, nil
	}

	r, err := GoalRange(*goal)
	if err != nil {
		return GoalProgress{}, err
	}
	incomes, err := s.engine.Incomes().List(ctx)
	if err != nil {
		return GoalProgress{}, err
	}

	within := FilterIncomes(incomes, r)
	progress := GoalProgress{Goal: goal, Incomes: within, Range: r}
	for _, inc := range within {
		progress.Net += inc.Net
	}
	return progress, nil
}

// BuildDashboard assembles the summary for the billing cycle containing today.
func (s *Service) BuildDashboard(ctx context.Context, today string) (*Dashboard, error) {
	now, err := parseDay(today)
	if err != nil {
		return nil, err
	}
	cycle := period.AnchoredMonthRange(now, s.anchorDay)

	incomes, err := s.engine.Incomes().List(ctx)
	if err != nil {
		return nil, err
	}
	fuel, err := s.engine.Fuel().List(ctx)
	if err != nil {
		return nil, err
	}

	cycleIncomes := FilterIncomes(incomes, cycle)
	dash := &Dashboard{
		CycleStart:    cycle.Start.Format(core.DateLayout),
		CycleEnd:      cycle.End.Format(core.DateLayout),
		RemainingDays: period.RemainingDays(cycle, now),
		ByDay:         GroupByDay(cycleIncomes),
		ByWeek:        GroupByWeek(cycleIncomes),
		ByPlatform:    SumByPlatform(cycleIncomes),
		Fuel:          FuelStatsForPeriod(fuel, cycle),
		LastFuel:      LastFuelRecord(fuel),
	}
	dash.CycleNet = dash.ByPlatform.Total

	progress, err := s.IncomesWithinGoalPeriod(ctx)
	if err != nil {
		return nil, err
	}
	if progress.Goal != nil {
		dash.Goal = &progress
	}
	return dash, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Entity: "dashboard", Field: "fecha", Reason: "must be YYYY-MM-DD"}
	}
	return t, nil
}
