package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBatch() error {
	if c.Batch.Size > 10000 {
		return fmt.Errorf("batch.size %d is unreasonably large (maximum 10000)", c.Batch.Size)
	}
	if c.Batch.MaxBatches > 10000 {
		return fmt.Errorf("batch.max_batches %d is unreasonably large (maximum 10000)", c.Batch.MaxBatches)
	}
	return nil
}

func (c *Config) validatePaths() error {
	name := c.Paths.StagingDirName
	if !strings.HasPrefix(name, ".") {
		return fmt.Errorf("paths.staging_dir_name %q must be hidden (start with a dot) so listings ignore it", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("paths.staging_dir_name %q must be a bare directory name", name)
	}
	if strings.Contains(name, " - ") {
		return fmt.Errorf("paths.staging_dir_name %q must not contain the batch folder separator", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
