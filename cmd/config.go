package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarryhq/quarry/repository"
	"github.com/quarryhq/quarry/store"
	"github.com/quarryhq/quarry/types"
)

const (
	configName = "quarry"
	envPrefix  = "QUARRY"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance; it caches struct info.
var validateCfg = validator.New()

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env first if present; missing is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g. QUARRY_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults are registered before config discovery so the root dir
	// used to locate the config file flows through viper like any other
	// setting instead of a hand-rolled fallback.
	viper.SetDefault("project.rootDir", ".quarry")
	viper.SetDefault("project.featuresDir", "features")
	viper.SetDefault("project.bugsDir", "bugs")
	viper.SetDefault("data.cacheTTL", repository.DefaultCacheTTL)
	viper.SetDefault("data.lockTimeout", repository.DefaultLockTimeout)

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		rootDir := viper.GetString("project.rootDir")
		if _, err := os.Stat(rootDir); !os.IsNotExist(err) {
			viper.AddConfigPath(rootDir) // ./.quarry/quarry.yaml
			viper.SetConfigName(configName)
		} else {
			home, err := os.UserHomeDir()
			cobra.CheckErr(err)
			viper.AddConfigPath(home) // $HOME/.quarry.yaml
			viper.AddConfigPath(".")
			viper.SetConfigName("." + configName)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: specified config file not found:", cfgFileFlag)
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}
	if err := validateCfg.Struct(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded application configuration.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

// The CLI shares one document store so all commands in a process see
// the same advisory lock table.
var (
	docsOnce sync.Once
	docs     *store.DocumentStore
)

func documentStore() *store.DocumentStore {
	docsOnce.Do(func() {
		docs = store.NewDocumentStore(afero.NewOsFs())
	})
	return docs
}

func featuresDir() string {
	cfg := GetConfig()
	return filepath.Join(cfg.Project.RootDir, cfg.Project.FeaturesDir)
}

func bugsDir() string {
	cfg := GetConfig()
	return filepath.Join(cfg.Project.RootDir, cfg.Project.BugsDir)
}

// featureRepo builds the feature repository from the loaded config.
func featureRepo() *repository.FeatureRepository {
	cfg := GetConfig()
	return repository.NewFeatureRepository(documentStore(), repository.Config{
		Dir:         featuresDir(),
		CacheTTL:    cfg.Data.CacheTTL,
		LockTimeout: cfg.Data.LockTimeout,
	})
}

// bugRepo builds the bug repository from the loaded config.
func bugRepo() *repository.BugRepository {
	cfg := GetConfig()
	return repository.NewBugRepository(documentStore(), repository.Config{
		Dir:         bugsDir(),
		CacheTTL:    cfg.Data.CacheTTL,
		LockTimeout: cfg.Data.LockTimeout,
	})
}

// currentUser resolves the createdBy attribution for CLI-created items.
func currentUser() string {
	if u := os.Getenv("QUARRY_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
