package application

import (
	"fmt"
	"os"
	"strings"

	zlog "github.com/lk2023060901/modelpng-go/pkg/log"
	zviper "github.com/lk2023060901/modelpng-go/pkg/util/viper"
)

// Application is the runtime container for the modelpng command line tool.
// It owns configuration loading and process-wide logger setup so that the
// command entry point only deals with codec work.
type Application struct {
	cfg *zviper.Config
}

// Settings is the file-backed configuration surface of the tool.
// Every field has a matching command line flag; flags win over the file.
type Settings struct {
	// Method selects the default codec method ("chunk" or "pixel").
	Method string `yaml:"method" json:"method" mapstructure:"method"`
	// ChunkKey overrides the default metadata key of the chunk method.
	ChunkKey string `yaml:"chunk-key" json:"chunk-key" mapstructure:"chunk-key"`
	// Compressor selects the compression backend ("zlib", "zstd" or "none").
	Compressor string `yaml:"compressor" json:"compressor" mapstructure:"compressor"`
	// Concurrency caps the number of parallel jobs in batch mode.
	Concurrency int `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	// Log configures the process-wide logger.
	Log zlog.Config `yaml:"log" json:"log" mapstructure:"log"`
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Setup loads configuration and initializes logging.
// Configuration file resolution priority:
//  1. Explicit path passed by the caller (the --config flag).
//  2. Env: MODELPNG_CONFIG_FILE_PATH.
//  3. Default: ./config.yaml, skipped silently when absent.
func (a *Application) Setup(configPath string) (*Settings, error) {
	settings := &Settings{}

	explicit := configPath != ""
	if !explicit {
		configPath = getenvDefault("MODELPNG_CONFIG_FILE_PATH", "")
		explicit = configPath != ""
	}
	if configPath == "" {
		configPath = "./config.yaml"
	}

	if explicit || fileExists(configPath) {
		cfg := zviper.New()
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
		}
		if err := cfg.Unmarshal(settings); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", configPath, err)
		}
		a.cfg = cfg
	}

	if err := a.initLogging(&settings.Log); err != nil {
		return nil, err
	}
	return settings, nil
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// initLogging configures the process-wide logger.
// The config file provides the base; MODELPNG_LOG_* env vars override it:
//   - MODELPNG_LOG_LEVEL: log level (default "warn"; the tool prints reports
//     to stdout, so logs stay on stderr and quiet by default).
//   - MODELPNG_LOG_FORMAT: "console" or "json".
//   - MODELPNG_LOG_FILE_DIR / MODELPNG_LOG_FILE: optional file output.
func (a *Application) initLogging(cfg *zlog.Config) error {
	if cfg.Level == "" {
		cfg.Level = "warn"
	}
	cfg.Level = getenvDefault("MODELPNG_LOG_LEVEL", cfg.Level)
	cfg.Format = getenvDefault("MODELPNG_LOG_FORMAT", cfg.Format)
	if dir := os.Getenv("MODELPNG_LOG_FILE_DIR"); dir != "" {
		cfg.File.RootPath = dir
	}
	if file := os.Getenv("MODELPNG_LOG_FILE"); file != "" {
		cfg.File.Filename = file
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}
