// Command taskboard is a terminal task manager with validated forms and
// persistent storage.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"taskboard/app"
	"taskboard/config"
	"taskboard/export"
	"taskboard/logging"
	"taskboard/store"
	"taskboard/tui"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file (default ~/.config/taskboard/config.toml)")
	backend := fs.String("backend", "", "storage backend: file, sqlite or memory")
	dataDir := fs.String("data-dir", "", "directory for stored tasks")
	key := fs.String("key", "", "storage key for the task snapshot")
	logFile := fs.String("log-file", "", "log file path")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	exportFormat := fs.String("export", "", "print tasks as json, yaml or toml and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if *key != "" {
		cfg.Storage.Key = *key
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Finalize(); err != nil {
		return err
	}

	logger, logCloser, err := logging.Open(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.LogFile(),
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slot, closeSlot, err := openSlot(cfg, logger)
	if err != nil {
		logger.Error("opening storage failed", "backend", cfg.Storage.Backend, "err", err)
		return err
	}
	defer closeSlot()

	svc := app.NewService(slot, app.WithLogger(logger), app.WithKey(cfg.Storage.Key))
	notice := svc.Restore()
	logger.Info("taskboard started", "backend", cfg.Storage.Backend, "tasks", svc.Len())

	if *exportFormat != "" {
		if notice != "" {
			fmt.Fprintln(os.Stderr, notice)
		}
		return export.Write(stdout, *exportFormat, svc.List())
	}

	p := tea.NewProgram(tui.NewModel(svc, notice), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("ui exited with error", "err", err)
		return err
	}
	return nil
}

// openSlot returns the configured storage backend and a function that
// releases it.
func openSlot(cfg *config.Config, logger *log.Logger) (store.Slot, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing sqlite store", "err", err)
			}
		}, nil
	case config.BackendMemory:
		return store.NewMemoryStore(), func() {}, nil
	default:
		fs, err := store.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
