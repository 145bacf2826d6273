package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBatch()
	c.normalizeMirror()
	c.normalizeSafety()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.StagingDirName = strings.TrimSpace(c.Paths.StagingDirName)
	if c.Paths.StagingDirName == "" {
		c.Paths.StagingDirName = defaultStagingDirName
	}
	return nil
}

func (c *Config) normalizeBatch() {
	if c.Batch.Size <= 0 {
		c.Batch.Size = defaultBatchSize
	}
	if c.Batch.MaxBatches <= 0 {
		c.Batch.MaxBatches = defaultMaxBatches
	}
}

func (c *Config) normalizeMirror() {
	if c.Mirror.ProgressInterval <= 0 {
		c.Mirror.ProgressInterval = defaultProgressInterval
	}
}

func (c *Config) normalizeSafety() {
	c.Safety.LockFileName = strings.TrimSpace(c.Safety.LockFileName)
	if c.Safety.LockFileName == "" {
		c.Safety.LockFileName = defaultLockFileName
	}
	if c.Safety.FreeSpaceMarginMiB < 0 {
		c.Safety.FreeSpaceMarginMiB = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
