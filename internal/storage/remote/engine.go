// Package remote implements the storage engine backed by a hosted Postgres
// exposed over PostgREST. Rows are scoped to the caller's identity by
// row-level security on the backend; this client never filters by owner
// itself and cannot reach rows the attached token does not own. Identity
// fields and computed columns are backend-authoritative: create and update
// strip them before sending.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kiguca/internal/auth"
	"kiguca/internal/core"
	"kiguca/internal/storage"
)

type Engine struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ storage.Engine = (*Engine)(nil)

// New builds a remote engine for the given PostgREST endpoint and API key.
// Both are required; the factory treats the resulting ConfigurationError as
// a signal to fall back to the local engine.
func New(endpoint, apiKey string) (*Engine, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	apiKey = strings.TrimSpace(apiKey)
	if endpoint == "" || apiKey == "" {
		return nil, &core.ConfigurationError{Reason: "remote engine requires endpoint URL and API key"}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, &core.ConfigurationError{Reason: "invalid remote endpoint URL: " + err.Error()}
	}
	return &Engine{
		baseURL: endpoint,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (e *Engine) Incomes() storage.IncomeStore {
	return &table[core.Income, core.IncomeDraft, core.IncomePatch]{eng: e, ops: incomeTable}
}

func (e *Engine) Fuel() storage.FuelStore {
	return &table[core.Fuel, core.FuelDraft, core.FuelPatch]{eng: e, ops: fuelTable}
}

func (e *Engine) Maintenance() storage.MaintenanceStore {
	return &table[core.Maintenance, core.MaintenanceDraft, core.MaintenancePatch]{eng: e, ops: maintenanceTable}
}

func (e *Engine) Goals() storage.GoalStore {
	return &table[core.Goal, core.GoalDraft, core.GoalPatch]{eng: e, ops: goalTable}
}

// Export fetches all four collections concurrently; one failed fetch fails
// the export, a dump with silently missing collections would be worse than
// no dump.
func (e *Engine) Export(ctx context.Context) (*storage.Dump, error) {
	dump := &storage.Dump{
		Incomes:     []core.Income{},
		Fuel:        []core.Fuel{},
		Maintenance: []core.Maintenance{},
		Goals:       []core.Goal{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dump.Incomes, err = e.Incomes().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		dump.Fuel, err = e.Fuel().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		dump.Maintenance, err = e.Maintenance().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		dump.Goals, err = e.Goals().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dump, nil
}

// Import upserts the dump keyed by record id: rows carrying an id overwrite
// whatever the backend holds (counted as updated), rows without one are
// inserted (counted as created). This is last-write-wins, not a merge;
// concurrent edits lose to whichever import runs last. Per-record failures
// are collected and do not stop the rest; only a completely unreachable
// backend errors out of Import itself.
func (e *Engine) Import(ctx context.Context, dump *storage.RawDump) (*storage.ImportResult, error) {
	if _, ok := auth.FromContext(ctx); !ok {
		return nil, core.ErrNoIdentity
	}
	res := &storage.ImportResult{Errors: []string{}}
	upsertList(ctx, e, incomeTable, dump.Incomes, storage.DecodeIncome, res)
	upsertList(ctx, e, fuelTable, dump.Fuel, storage.DecodeFuel, res)
	upsertList(ctx, e, maintenanceTable, dump.Maintenance, storage.DecodeMaintenance, res)
	upsertList(ctx, e, goalTable, dump.Goals, storage.DecodeGoal, res)
	return res, nil
}

// do issues one authenticated PostgREST request. The API key travels in the
// apikey header, the caller's own token as the bearer credential the backend
// resolves row ownership from.
func (e *Engine) do(ctx context.Context, method, entity, query, prefer string, body any) ([]byte, int, error) {
	ident, ok := auth.FromContext(ctx)
	if !ok {
		return nil, 0, core.ErrNoIdentity
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, core.Persistence(method+" "+entity, err)
		}
		reader = bytes.NewReader(payload)
	}

	u := e.baseURL + "/rest/v1/" + entity
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, core.Persistence(method+" "+entity, err)
	}
	req.Header.Set("apikey", e.apiKey)
	req.Header.Set("Authorization", "Bearer "+ident.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, core.Persistence(method+" "+entity, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, core.Persistence(method+" "+entity, err)
	}
	return data, resp.StatusCode, nil
}

// backendError wraps a non-2xx response, keeping the backend's own message
// attached for the caller. A 401/403 means the token itself was refused and
// surfaces as unauthorized so the read path cannot soften it away.
func backendError(op string, status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return core.Unauthorized(op, status)
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return core.Persistence(op, fmt.Errorf("backend returned %d: %s", status, msg))
}

// stripFields flattens rec to a JSON object without the named keys. An empty
// id is treated as absent.
func stripFields(rec any, drop ...string) (map[string]any, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	for _, f := range drop {
		delete(m, f)
	}
	if id, ok := m["id"].(string); ok && id == "" {
		delete(m, "id")
	}
	return m, nil
}

var errEmptyResult = errors.New("empty result")
