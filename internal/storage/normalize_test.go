package storage

import (
	"encoding/json"
	"testing"
)

func TestDecodeFuelLegacyFields(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "f1",
		"fecha": "2025-10-05",
		"tipo": "nafta",
		"litros": 30.5,
		"unidad": "L",
		"costo_total": 45000,
		"km": 120000
	}`)

	rec, err := DecodeFuel(raw)
	if err != nil {
		t.Fatalf("DecodeFuel() error = %v", err)
	}
	if rec.Quantity != 30.5 {
		t.Errorf("Quantity = %v, want 30.5 (from litros)", rec.Quantity)
	}
	if rec.Amount != 45000 {
		t.Errorf("Amount = %d, want 45000 (from costo_total)", rec.Amount)
	}
	if rec.Odometer != 120000 {
		t.Errorf("Odometer = %d, want 120000 (from km)", rec.Odometer)
	}
}

func TestDecodeFuelCurrentFieldsWin(t *testing.T) {
	// A record carrying both shapes keeps the current field's value.
	raw := json.RawMessage(`{"fecha":"2025-10-05","tipo":"gnc","cantidad":12,"litros":99,"unidad":"m3","monto":8000,"odometro":50000}`)

	rec, err := DecodeFuel(raw)
	if err != nil {
		t.Fatalf("DecodeFuel() error = %v", err)
	}
	if rec.Quantity != 12 {
		t.Errorf("Quantity = %v, want 12 (cantidad over litros)", rec.Quantity)
	}
}

func TestDecodeMaintenanceLegacyKm(t *testing.T) {
	raw := json.RawMessage(`{"fecha":"2025-10-05","categoria":"frenos","detalle":"pastillas","km":118000,"costo":80000}`)

	rec, err := DecodeMaintenance(raw)
	if err != nil {
		t.Fatalf("DecodeMaintenance() error = %v", err)
	}
	if rec.Odometer != 118000 {
		t.Errorf("Odometer = %d, want 118000 (from km)", rec.Odometer)
	}
}

func TestDecodeRecordMalformed(t *testing.T) {
	if _, err := DecodeIncome(json.RawMessage(`"not an object"`)); err == nil {
		t.Error("DecodeIncome accepted a non-object record")
	}
	if _, err := DecodeFuel(json.RawMessage(`{"cantidad": "thirty"}`)); err == nil {
		t.Error("DecodeFuel accepted a mistyped field")
	}
}

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) < 11 {
			t.Fatalf("NewID() = %q, too short", id)
		}
		if seen[id] {
			t.Fatalf("NewID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}
