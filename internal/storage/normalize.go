package storage

import (
	"encoding/json"
	"fmt"

	"kiguca/internal/core"
)

// Legacy exports used different field names for fuel and maintenance
// records. Imports translate them here, before validation, so the engines
// never see the old shapes. New legacy formats get a new rename entry, not a
// change to create/update logic.

var legacyFuelFields = map[string]string{
	"litros":      "cantidad",
	"costo_total": "monto",
	"km":          "odometro",
}

var legacyMaintenanceFields = map[string]string{
	"km": "odometro",
}

func renameFields(m map[string]any, renames map[string]string) {
	for old, current := range renames {
		v, ok := m[old]
		if !ok {
			continue
		}
		if _, taken := m[current]; !taken {
			m[current] = v
		}
		delete(m, old)
	}
}

func decodeRecord[T any](raw json.RawMessage, renames map[string]string) (T, error) {
	var rec T
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	if len(renames) > 0 {
		renameFields(m, renames)
		normalized, err := json.Marshal(m)
		if err != nil {
			return rec, fmt.Errorf("re-encode record: %w", err)
		}
		raw = normalized
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// DecodeIncome decodes an imported income record.
func DecodeIncome(raw json.RawMessage) (core.Income, error) {
	return decodeRecord[core.Income](raw, nil)
}

// DecodeFuel decodes an imported fuel record, translating the legacy
// litros/costo_total/km field names.
func DecodeFuel(raw json.RawMessage) (core.Fuel, error) {
	return decodeRecord[core.Fuel](raw, legacyFuelFields)
}

// DecodeMaintenance decodes an imported maintenance record, translating the
// legacy km field name.
func DecodeMaintenance(raw json.RawMessage) (core.Maintenance, error) {
	return decodeRecord[core.Maintenance](raw, legacyMaintenanceFields)
}

// DecodeGoal decodes an imported goal record.
func DecodeGoal(raw json.RawMessage) (core.Goal, error) {
	return decodeRecord[core.Goal](raw, nil)
}
