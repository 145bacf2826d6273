package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crates/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists to be false for a missing file")
	}
	if cfg.Batch.Size != 100 || cfg.Batch.MaxBatches != 100 {
		t.Fatalf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if cfg.Paths.StagingDirName != ".artists_flat_temp" {
		t.Fatalf("unexpected staging dir name: %q", cfg.Paths.StagingDirName)
	}
	if !cfg.Mirror.PreserveTimes {
		t.Fatal("preserve_times should default to true")
	}
	if !filepath.IsAbs(cfg.Paths.LogDir) {
		t.Fatalf("log dir should be expanded to an absolute path, got %q", cfg.Paths.LogDir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "crates.toml")
	body := strings.Join([]string{
		"[batch]",
		"size = 25",
		"strict_capacity = true",
		"[logging]",
		`format = "JSON"`,
		"[safety]",
		"free_space_margin_mib = 512",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Batch.Size != 25 {
		t.Fatalf("expected batch size 25, got %d", cfg.Batch.Size)
	}
	if !cfg.Batch.StrictCapacity {
		t.Fatal("expected strict_capacity from file")
	}
	if cfg.Batch.MaxBatches != 100 {
		t.Fatalf("unset max_batches should keep its default, got %d", cfg.Batch.MaxBatches)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format should be lowercased, got %q", cfg.Logging.Format)
	}
	if cfg.Safety.FreeSpaceMarginMiB != 512 {
		t.Fatalf("expected margin 512, got %d", cfg.Safety.FreeSpaceMarginMiB)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"visible staging dir", "[paths]\nstaging_dir_name = \"flat_temp\"\n"},
		{"staging dir with separator", "[paths]\nstaging_dir_name = \".a - b\"\n"},
		{"staging dir with slash", "[paths]\nstaging_dir_name = \".x/y\"\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
		{"bad log level", "[logging]\nlevel = \"trace\"\n"},
		{"oversized batch", "[batch]\nsize = 100000\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "crates.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %q", tc.body)
			}
		})
	}
}

func TestNormalizeRecoversNonPositiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crates.toml")
	body := "[batch]\nsize = -3\nmax_batches = 0\n[safety]\nfree_space_margin_mib = -10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Batch.Size != 100 || cfg.Batch.MaxBatches != 100 {
		t.Fatalf("non-positive batch limits should reset to defaults: %+v", cfg.Batch)
	}
	if cfg.Safety.FreeSpaceMarginMiB != 0 {
		t.Fatalf("negative margin should clamp to 0, got %d", cfg.Safety.FreeSpaceMarginMiB)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	defaults := config.Default()
	if cfg.Batch.Size != defaults.Batch.Size || cfg.Paths.StagingDirName != defaults.Paths.StagingDirName {
		t.Fatalf("sample values should match defaults: %+v", cfg.Batch)
	}
}
