package local

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"kiguca/internal/core"
	"kiguca/internal/storage"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestCreateAndGet(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	rec, err := eng.Incomes().Create(ctx, core.IncomeDraft{
		Date:       "2025-10-05",
		Platform:   core.PlatformUber,
		Gross:      1000,
		Promos:     200,
		Tips:       100,
		Tolls:      150,
		OtherCosts: 150,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.Net != 1000 {
		t.Errorf("Net = %d, want 1000", rec.Net)
	}

	got, err := eng.Incomes().Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.ID != rec.ID {
		t.Errorf("Get() = %+v, want stored record", got)
	}

	missing, err := eng.Incomes().Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	eng, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rec, err := eng.Fuel().Create(ctx, core.FuelDraft{
		Date: "2025-10-04", Type: core.FuelGas, Quantity: 12, Unit: core.UnitCubicMeter, Amount: 8000, Odometer: 50000,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	eng2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer eng2.Close()

	got, err := eng2.Fuel().Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got == nil || got.Amount != 8000 {
		t.Errorf("Get() after reopen = %+v, want persisted record", got)
	}
}

func TestUpdateAndRemoveContract(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	rec, err := eng.Goals().Create(ctx, core.GoalDraft{
		Name: "mes tranquilo", Amount: 500000, Period: core.GoalMonthly, StartDate: "2025-10-10",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.EndDate != "2025-11-09" {
		t.Errorf("EndDate = %q, want derived 2025-11-09", rec.EndDate)
	}

	status := core.GoalClosed
	updated, err := eng.Goals().Update(ctx, rec.ID, core.GoalPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != core.GoalClosed {
		t.Errorf("Status = %q, want cerrado", updated.Status)
	}

	if _, err := eng.Goals().Update(ctx, "nope", core.GoalPatch{Status: &status}); !core.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want NotFoundError", err)
	}

	removed, err := eng.Goals().Remove(ctx, rec.ID)
	if err != nil || !removed {
		t.Errorf("Remove() = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = eng.Goals().Remove(ctx, rec.ID)
	if err != nil || removed {
		t.Errorf("Remove(again) = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := openTestEngine(t)
	ctx := context.Background()

	if _, err := src.Incomes().Create(ctx, core.IncomeDraft{Date: "2025-10-05", Platform: core.PlatformUber, Gross: 1000}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := src.Maintenance().Create(ctx, core.MaintenanceDraft{Date: "2025-10-01", Category: "frenos", Odometer: 118000, Cost: 80000}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dump, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	raw, err := dump.Raw()
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}

	dst := openTestEngine(t)
	res, err := dst.Import(ctx, raw)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Created != 2 || len(res.Errors) != 0 {
		t.Fatalf("Import() = %+v, want 2 created", res)
	}

	restored, err := dst.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if restored.Incomes[0].ID != dump.Incomes[0].ID {
		t.Errorf("round trip changed income id: %s -> %s", dump.Incomes[0].ID, restored.Incomes[0].ID)
	}
	if restored.Maintenance[0].Detail != "frenos" {
		t.Errorf("Detail = %q, want category fallback", restored.Maintenance[0].Detail)
	}
}

func TestImportLegacyFieldNames(t *testing.T) {
	eng := openTestEngine(t)
	raw := &storage.RawDump{
		Fuel: []json.RawMessage{
			json.RawMessage(`{"fecha":"2025-10-04","tipo":"nafta","litros":30,"unidad":"L","costo_total":45000,"km":120000}`),
		},
		Maintenance: []json.RawMessage{
			json.RawMessage(`{"fecha":"2025-10-01","categoria":"aceite","detalle":"cambio","km":119000,"costo":30000}`),
		},
	}
	res, err := eng.Import(context.Background(), raw)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Created != 2 || len(res.Errors) != 0 {
		t.Fatalf("Import() = %+v, want 2 created", res)
	}

	fuel, _ := eng.Fuel().List(context.Background())
	if fuel[0].Odometer != 120000 || fuel[0].Amount != 45000 {
		t.Errorf("legacy fuel not normalized: %+v", fuel[0])
	}
	maint, _ := eng.Maintenance().List(context.Background())
	if maint[0].Odometer != 119000 {
		t.Errorf("legacy maintenance not normalized: %+v", maint[0])
	}
}
