// Package backend selects and constructs the storage engine once at process
// start. The selection is immutable for the process lifetime; everything
// downstream receives the engine by injection, no global instance exists.
package backend

import (
	"errors"
	"fmt"

	"kiguca/internal/config"
	"kiguca/internal/core"
	"kiguca/internal/log"
	"kiguca/internal/storage"
	"kiguca/internal/storage/local"
	"kiguca/internal/storage/memory"
	"kiguca/internal/storage/remote"
)

type Type string

const (
	Local  Type = "local"
	Remote Type = "remote"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Local, Remote, Memory:
		return true
	default:
		return false
	}
}

// CleanupFunc releases whatever resources the engine holds.
type CleanupFunc func() error

// Result is the constructed engine plus the backend actually chosen, which
// may differ from the requested one after degradation.
type Result struct {
	Engine  storage.Engine
	Type    Type
	Cleanup CleanupFunc
}

// Build constructs the engine named by cfg.StorageEngine. A remote selection
// without usable connection parameters degrades to the local engine with a
// warning instead of failing: a missing credential should not brick the app.
func Build(cfg *config.Config, logger *log.Logger) (*Result, error) {
	t := Type(cfg.StorageEngine)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid storage engine: %s", cfg.StorageEngine)
	}

	switch t {
	case Remote:
		eng, err := remote.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			var confErr *core.ConfigurationError
			if errors.As(err, &confErr) {
				logger.Warn("Remote engine unusable, falling back to local",
					"reason", confErr.Reason)
				return buildLocal(cfg, logger)
			}
			return nil, err
		}
		logger.Info("Initialized remote engine", "endpoint", cfg.SupabaseURL)
		return &Result{Engine: eng, Type: Remote}, nil

	case Memory:
		logger.Info("Initialized memory engine")
		return &Result{Engine: memory.New(), Type: Memory}, nil

	default:
		return buildLocal(cfg, logger)
	}
}

func buildLocal(cfg *config.Config, logger *log.Logger) (*Result, error) {
	eng, err := local.Open(cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize local engine: %w", err)
	}
	logger.Info("Initialized local engine", "db_path", cfg.LocalDBPath)
	return &Result{Engine: eng, Type: Local, Cleanup: eng.Close}, nil
}
