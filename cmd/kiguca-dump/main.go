// kiguca-dump exports or imports the full dataset against whatever engine the
// environment selects, without going through the HTTP server.
//
//	kiguca-dump export > backup.json
//	kiguca-dump import backup.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kiguca/internal/backend"
	"kiguca/internal/config"
	"kiguca/internal/log"
	"kiguca/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s export|import [file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.Build(cfg, logger.WithComponent(log.ComponentBackend))
	if err != nil {
		logger.Error("Failed to initialize storage engine", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch flag.Arg(0) {
	case "export":
		err = runExport(ctx, result.Engine, os.Stdout)
	case "import":
		err = runImport(ctx, result.Engine, flag.Arg(1), logger)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", log.FieldError, err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, engine storage.Engine, out io.Writer) error {
	dump, err := engine.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

func runImport(ctx context.Context, engine storage.Engine, path string, logger *log.Logger) error {
	var in io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var dump storage.RawDump
	if err := json.NewDecoder(in).Decode(&dump); err != nil {
		return fmt.Errorf("decode import file: %w", err)
	}

	result, err := engine.Import(ctx, &dump)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	logger.Info("Import finished",
		"created", result.Created,
		"updated", result.Updated,
		"errors", len(result.Errors))
	for _, msg := range result.Errors {
		logger.Warn("Import record skipped", "detail", msg)
	}
	return nil
}
