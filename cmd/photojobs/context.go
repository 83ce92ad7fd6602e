package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"photojobs/internal/config"
	"photojobs/internal/history"
	"photojobs/internal/jobs"
	"photojobs/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	runID string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		runID:      uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = jobs.Wrap(jobs.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = jobs.Wrap(jobs.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, err := c.ensureConfig()
	if err != nil {
		def := config.Default()
		return &def
	}
	return cfg
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// commandLogger derives the per-command logger, tagged with the run ID and
// command name carried by ctx.
func (c *commandContext) commandLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, c.loggerValue())
}

// commandCtx tags the cobra context with the run ID and command name so log
// fields and journal rows line up.
func (c *commandContext) commandCtx(cmd *cobra.Command) context.Context {
	ctx := jobs.WithRunID(cmd.Context(), c.runID)
	return jobs.WithCommand(ctx, cmd.Name())
}

// recordRun journals a finished run. Best-effort: failures are logged and
// never propagate.
func (c *commandContext) recordRun(ctx context.Context, command, root string, started time.Time, succeeded, skipped, failed int) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		c.commandLogger(ctx).Warn("history journal unavailable", logging.Error(err))
		return
	}
	defer store.Close()

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	run := history.Run{
		ID:         c.runID,
		Command:    command,
		Root:       root,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Succeeded:  succeeded,
		Skipped:    skipped,
		Failed:     failed,
		Status:     status,
	}
	if err := store.Record(ctx, run); err != nil {
		c.commandLogger(ctx).Warn("could not record run in history", logging.Error(err))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
