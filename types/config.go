package types

import "time"

// AppConfig is the unified application configuration, populated by viper
// from config file, environment (QUARRY_ prefix), and flags.
type AppConfig struct {
	Verbose bool          `mapstructure:"verbose"`
	Project ProjectConfig `mapstructure:"project" validate:"required"`
	Data    DataConfig    `mapstructure:"data" validate:"required"`
}

// ProjectConfig locates the on-disk data tree.
type ProjectConfig struct {
	// RootDir is the base directory holding all quarry data, e.g. ".quarry".
	RootDir string `mapstructure:"rootDir" validate:"required"`
	// FeaturesDir and BugsDir are subdirectory names under RootDir.
	FeaturesDir string `mapstructure:"featuresDir" validate:"required"`
	BugsDir     string `mapstructure:"bugsDir" validate:"required"`
}

// DataConfig tunes repository behavior.
type DataConfig struct {
	// CacheTTL bounds how long a read-cache entry stays fresh.
	CacheTTL time.Duration `mapstructure:"cacheTTL" validate:"min=0"`
	// LockTimeout bounds how long an operation waits on the per-item
	// advisory lock before failing with ErrLockTimeout.
	LockTimeout time.Duration `mapstructure:"lockTimeout" validate:"min=0"`
}
