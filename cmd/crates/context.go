package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"crates/internal/config"
	"crates/internal/logging"
)

type commandContext struct {
	configFlag *string

	batchSizeFlag  int
	maxBatchesFlag int
	dryRunFlag     bool
	jsonFlag       bool
	logFileFlag    string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once per invocation and layers the
// command-line overrides on top.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.batchSizeFlag > 0 {
			cfg.Batch.Size = c.batchSizeFlag
		}
		if c.maxBatchesFlag > 0 {
			cfg.Batch.MaxBatches = c.maxBatchesFlag
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	logFile := strings.TrimSpace(c.logFileFlag)
	if logFile == "" && cfg.Paths.LogDir != "" {
		logFile = filepath.Join(cfg.Paths.LogDir, "crates.log")
	}
	return logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		LogFile: logFile,
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
