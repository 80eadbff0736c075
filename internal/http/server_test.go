package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kiguca/internal/analytics"
	"kiguca/internal/core"
	"kiguca/internal/events"
	"kiguca/internal/log"
	"kiguca/internal/storage"
	"kiguca/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Engine) {
	t.Helper()
	eng := memory.New()
	bus := events.NewBus()
	metrics := analytics.NewService(eng, 10)
	srv := NewServer(":0", eng, metrics, bus, log.New(log.DefaultConfig()))

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ts, eng
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func TestCreateIncomeComputesNet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/ingresos", core.IncomeDraft{
		Date:       "2025-10-05",
		Platform:   core.PlatformUber,
		Gross:      1000,
		Promos:     200,
		Tips:       100,
		Tolls:      150,
		OtherCosts: 150,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}
	var rec core.Income
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.Net != 1000 {
		t.Errorf("neto = %d, want 1000", rec.Net)
	}
	if rec.ID == "" {
		t.Error("response carries no id")
	}
}

func TestCreateInvalidDraftIs422(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/ingresos", core.IncomeDraft{
		Date: "bad", Platform: "cabify",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body %s", resp.StatusCode, data)
	}
}

func TestGetMissingIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/ingresos/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ts, eng := newTestServer(t)
	ctx := context.Background()

	rec, err := eng.Incomes().Create(ctx, core.IncomeDraft{Date: "2025-10-05", Platform: core.PlatformUber, Gross: 1000})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	gross := int64(3000)
	resp, data := doJSON(t, http.MethodPatch, ts.URL+"/api/ingresos/"+rec.ID, core.IncomePatch{Gross: &gross})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", resp.StatusCode, data)
	}
	var updated core.Income
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Net != 3000 {
		t.Errorf("neto after patch = %d, want 3000", updated.Net)
	}

	resp, _ = doJSON(t, http.MethodPatch, ts.URL+"/api/ingresos/nope", core.IncomePatch{Gross: &gross})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("patch missing status = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/ingresos/"+rec.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/ingresos/"+rec.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete again status = %d, want 404", resp.StatusCode)
	}
}

func TestListEmptyIsEmptyArray(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/combustible", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := string(bytes.TrimSpace(data)); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	ts, eng := newTestServer(t)
	ctx := context.Background()

	if _, err := eng.Incomes().Create(ctx, core.IncomeDraft{Date: "2025-10-05", Platform: core.PlatformUber, Gross: 1000}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	var dump storage.Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(dump.Incomes) != 1 {
		t.Fatalf("export incomes = %d, want 1", len(dump.Incomes))
	}

	var raw storage.RawDump
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("re-decode export: %v", err)
	}
	resp, data = doJSON(t, http.MethodPost, ts.URL+"/api/import", raw)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d, body %s", resp.StatusCode, data)
	}
	var result storage.ImportResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if result.Updated != 1 || result.Created != 0 {
		t.Errorf("import result = %+v, want 1 updated (same ids)", result)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	ts, eng := newTestServer(t)
	ctx := context.Background()

	if _, err := eng.Incomes().Create(ctx, core.IncomeDraft{Date: "2025-10-12", Platform: core.PlatformUber, Gross: 1000}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?fecha=2025-10-15", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, data)
	}
	var dash analytics.Dashboard
	if err := json.Unmarshal(data, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.CycleStart != "2025-10-10" || dash.CycleEnd != "2025-11-09" {
		t.Errorf("cycle = %s..%s", dash.CycleStart, dash.CycleEnd)
	}
	if dash.CycleNet != 1000 {
		t.Errorf("neto_ciclo = %d, want 1000", dash.CycleNet)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?fecha=15-10-2025", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad date status = %d, want 422", resp.StatusCode)
	}
}

func TestDashboardCacheInvalidatedByWrites(t *testing.T) {
	ts, _ := newTestServer(t)

	// Prime the cache with the empty dataset.
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?fecha=2025-10-15", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/ingresos", core.IncomeDraft{
		Date: "2025-10-12", Platform: core.PlatformUber, Gross: 1000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	// Invalidation rides the event bus, so give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, data := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?fecha=2025-10-15", nil)
		var dash analytics.Dashboard
		if err := json.Unmarshal(data, &dash); err != nil {
			t.Fatalf("decode dashboard: %v", err)
		}
		if dash.CycleNet == 1000 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("dashboard still stale after write: neto_ciclo = %d", dash.CycleNet)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDashboardCacheScopedToCredential(t *testing.T) {
	ts, eng := newTestServer(t)

	getDashboard := func(token, spoofedUser string) analytics.Dashboard {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/dashboard?fecha=2025-10-15", nil)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if spoofedUser != "" {
			req.Header.Set("X-User-ID", spoofedUser)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET dashboard: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var dash analytics.Dashboard
		if err := json.NewDecoder(resp.Body).Decode(&dash); err != nil {
			t.Fatalf("decode dashboard: %v", err)
		}
		return dash
	}

	// Prime the cache under the first credential.
	if got := getDashboard("token-one", "").CycleNet; got != 0 {
		t.Fatalf("initial neto_ciclo = %d, want 0", got)
	}

	// Write behind the cache's back: engine-direct creates publish no bus
	// event, so the primed entry stays.
	if _, err := eng.Incomes().Create(context.Background(), core.IncomeDraft{
		Date: "2025-10-12", Platform: core.PlatformUber, Gross: 1000,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := getDashboard("token-one", "").CycleNet; got != 0 {
		t.Fatalf("first credential neto_ciclo = %d, want cached 0", got)
	}

	// A different token, even one claiming the first caller's user id, must
	// miss that entry and reach the backend.
	if got := getDashboard("token-two", "user-one").CycleNet; got != 1000 {
		t.Errorf("second credential neto_ciclo = %d, want fresh 1000", got)
	}
}

func TestIncomeRatesEndpoint(t *testing.T) {
	ts, eng := newTestServer(t)
	rec, err := eng.Incomes().Create(context.Background(), core.IncomeDraft{
		Date: "2025-10-05", Platform: core.PlatformUber, Gross: 1000, Hours: 8, Trips: 20,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/ingresos/"+rec.ID+"/metricas", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rates analytics.IncomeRates
	if err := json.Unmarshal(data, &rates); err != nil {
		t.Fatalf("decode rates: %v", err)
	}
	if rates.NetPerHour == nil || *rates.NetPerHour != 125 {
		t.Errorf("neto_por_hora = %v, want 125", rates.NetPerHour)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/ingresos/nope/metricas", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", resp.StatusCode)
	}
}

func TestGoalProgressEndpoint(t *testing.T) {
	ts, eng := newTestServer(t)
	ctx := context.Background()

	if _, err := eng.Goals().Create(ctx, core.GoalDraft{
		Name: "semana", Amount: 100000, Period: core.GoalWeekly, StartDate: "2025-10-06",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := eng.Incomes().Create(ctx, core.IncomeDraft{Date: "2025-10-07", Platform: core.PlatformDidi, Gross: 500}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/objetivos/progreso", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var progress analytics.GoalProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if progress.Goal == nil || progress.Net != 500 {
		t.Errorf("progress = %+v, want goal with net 500", progress)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
