package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"tessera/internal/config"
	"tessera/internal/decode"
	"tessera/internal/store"
)

func main() {
	configPath := flag.String("config", "", "config file path (overrides discovery)")
	dbName := flag.String("db", "data", "database to query: data or log")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tessera [-config file] [-db data|log] [-v] <query>")
		os.Exit(2)
	}
	query := flag.Arg(0)

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	configureLogging(cfg, *verbose)
	if path != "" {
		logrus.WithField("path", path).Debug("loaded config")
	}

	db, err := openDatabase(cfg, *dbName)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := run(context.Background(), db, query); err != nil {
		logrus.Fatalf("Query failed: %v", err)
	}
}

func run(ctx context.Context, db *sql.DB, query string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	decoded, err := decode.DynamicRows(rows)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func configureLogging(cfg *config.Config, verbose bool) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}

func openDatabase(cfg *config.Config, name string) (*sql.DB, error) {
	switch name {
	case "data":
		opts := store.Options{BusyTimeout: cfg.Data.EffectiveBusyTimeout()}
		return store.OpenData(cfg.Data.Path, opts)
	case "log":
		opts := store.Options{BusyTimeout: cfg.Log.EffectiveBusyTimeout()}
		return store.OpenLog(cfg.Log.Path, opts)
	}
	return nil, fmt.Errorf("unknown database %q (want data or log)", name)
}
