package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"exifpipe/internal/config"
	"exifpipe/internal/journal"
	"exifpipe/internal/logging"
	"exifpipe/internal/services/exiftool"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// engineOverride short-circuits engine construction in tests.
	engineOverride *exiftool.Engine
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withEngine builds the engine and journal for one command invocation and
// tears them down afterwards.
func (c *commandContext) withEngine(fn func(engine *exiftool.Engine) error) error {
	if c.engineOverride != nil {
		return fn(c.engineOverride)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	opts := []exiftool.Option{
		exiftool.WithLogger(c.logger()),
		exiftool.WithTimeouts(cfg.RoundTripTimeout(), cfg.OneShotTimeout()),
	}
	if cfg.ExifTool.LockWrites {
		opts = append(opts, exiftool.WithWriteLockDir(cfg.WriteLockDir()))
	}

	var store *journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.JournalPath())
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, exiftool.WithRecorder(store))
	}

	engine, err := exiftool.New(cfg.ExifTool.Binary, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	return fn(engine)
}

func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.JournalPath())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
