package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Batch contains the partitioning limits.
type Batch struct {
	// Size is the maximum number of artists per batch folder.
	Size int `toml:"size"`
	// MaxBatches caps how many batch folders a run may create.
	MaxBatches int `toml:"max_batches"`
	// StrictCapacity turns the overflow warning into a fatal error when the
	// working set exceeds size * max_batches.
	StrictCapacity bool `toml:"strict_capacity"`
}

// Paths contains directory naming configuration.
type Paths struct {
	// StagingDirName is the hidden directory created under the destination
	// during sync and recovery runs. Its presence is the recovery signal, so
	// changing it mid-flight orphans an interrupted run's staging area.
	StagingDirName string `toml:"staging_dir_name"`
	LogDir         string `toml:"log_dir"`
}

// Mirror contains settings for the incremental tree copy.
type Mirror struct {
	PreserveTimes bool `toml:"preserve_times"`
	// ProgressInterval is the number of files between progress log lines.
	ProgressInterval int `toml:"progress_interval"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Safety contains guard-rail configuration.
type Safety struct {
	// FreeSpaceMarginMiB enables the fresh-mode free space preflight when
	// positive: destination free space must cover the source size plus this
	// margin. Zero disables the check.
	FreeSpaceMarginMiB int `toml:"free_space_margin_mib"`
	// LockFileName is the flock file created under the destination to keep
	// two runs from interleaving their staging protocols.
	LockFileName string `toml:"lock_file_name"`
}

// Config encapsulates all configuration values for crates.
type Config struct {
	Batch   Batch   `toml:"batch"`
	Paths   Paths   `toml:"paths"`
	Mirror  Mirror  `toml:"mirror"`
	Logging Logging `toml:"logging"`
	Safety  Safety  `toml:"safety"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/crates/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults apply. The returned path is where the config was (or
// would be) read, and exists reports whether a file was actually loaded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("crates.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ExpandPath expands a leading ~ and returns the cleaned absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
