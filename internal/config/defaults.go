package config

const (
	defaultBatchSize        = 100
	defaultMaxBatches       = 100
	defaultStagingDirName   = ".artists_flat_temp"
	defaultLockFileName     = ".crates.lock"
	defaultLogDir           = "~/.local/share/crates/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultProgressInterval = 500
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Batch: Batch{
			Size:       defaultBatchSize,
			MaxBatches: defaultMaxBatches,
		},
		Paths: Paths{
			StagingDirName: defaultStagingDirName,
			LogDir:         defaultLogDir,
		},
		Mirror: Mirror{
			PreserveTimes:    true,
			ProgressInterval: defaultProgressInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Safety: Safety{
			LockFileName: defaultLockFileName,
		},
	}
}
