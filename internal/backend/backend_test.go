package backend

import (
	"path/filepath"
	"testing"

	"kiguca/internal/config"
	"kiguca/internal/log"
)

func testConfig(t *testing.T, engine string) *config.Config {
	t.Helper()
	return &config.Config{
		Port:          "8081",
		StorageEngine: engine,
		LocalDBPath:   filepath.Join(t.TempDir(), "test.db"),
		AnchorDay:     10,
	}
}

func TestBuildMemory(t *testing.T) {
	result, err := Build(testConfig(t, "memory"), log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Type != Memory {
		t.Errorf("Type = %s, want memory", result.Type)
	}
	if result.Engine == nil {
		t.Error("Engine = nil")
	}
}

func TestBuildLocal(t *testing.T) {
	result, err := Build(testConfig(t, "local"), log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Type != Local {
		t.Errorf("Type = %s, want local", result.Type)
	}
	if result.Cleanup == nil {
		t.Fatal("Cleanup = nil, local engine needs one")
	}
	if err := result.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestBuildRemoteWithoutCredentialsFallsBackToLocal(t *testing.T) {
	cfg := testConfig(t, "remote") // no SUPABASE_URL / SUPABASE_ANON_KEY
	result, err := Build(cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer result.Cleanup()
	if result.Type != Local {
		t.Errorf("Type = %s, want degraded local", result.Type)
	}
}

func TestBuildRemoteWithCredentials(t *testing.T) {
	cfg := testConfig(t, "remote")
	cfg.SupabaseURL = "https://example.supabase.co"
	cfg.SupabaseAnonKey = "anon-key"
	result, err := Build(cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Type != Remote {
		t.Errorf("Type = %s, want remote", result.Type)
	}
}

func TestBuildRejectsUnknownEngine(t *testing.T) {
	if _, err := Build(testConfig(t, "cloud"), log.New(log.DefaultConfig())); err == nil {
		t.Error("Build(unknown engine) = nil error")
	}
}
