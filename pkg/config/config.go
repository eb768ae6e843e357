package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coldstore/pkg/anticache"
	"coldstore/pkg/logging"
	"coldstore/pkg/utils/validation"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. COLDSTORE_ANTICACHE_ENABLED.
const EnvPrefix = "COLDSTORE"

func init() {
	validation.Register("anticache_layout", func(fl validator.FieldLevel) bool {
		_, err := anticache.ParseLayoutMode(fl.Field().String())
		return err == nil
	})
}

// EngineConfig describes the execution contexts a catalog is applied to.
type EngineConfig struct {
	DatabaseID int32 `mapstructure:"database_id"`
	SiteID     int64 `mapstructure:"site_id"`
	Partitions int   `mapstructure:"partitions" validate:"min=1"`
}

// AntiCacheConfig controls whether evictable tables get an eviction directory
// and which directory layout is compiled for them.
type AntiCacheConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Layout          string `mapstructure:"layout" validate:"anticache_layout"`
	ColdColumnLimit int    `mapstructure:"cold_column_limit" validate:"min=0"`
}

// LayoutMode parses Layout.
func (c AntiCacheConfig) LayoutMode() (anticache.LayoutMode, error) {
	return anticache.ParseLayoutMode(c.Layout)
}

// Config is the full engine configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	AntiCache AntiCacheConfig `mapstructure:"anticache"`
	Logging   logging.Config  `mapstructure:"logging"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.database_id", 0)
	v.SetDefault("engine.site_id", 0)
	v.SetDefault("engine.partitions", 1)

	v.SetDefault("anticache.enabled", false)
	v.SetDefault("anticache.layout", anticache.LayoutTuple.String())
	v.SetDefault("anticache.cold_column_limit", anticache.DefaultColdColumnLimit)

	v.SetDefault("logging.level", string(logging.LevelInfo))
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "")
}

// New returns a viper instance with defaults, env overrides and the config
// search path (executable directory, then the working directory) set up.
// If cfgFile is non-empty it is used instead of searching.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v
	}

	if ex, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(ex))
	}
	v.AddConfigPath(".")
	v.SetConfigName("coldstore")
	v.SetConfigType("yaml")
	return v
}

// Load reads the configuration file if present and decodes it.
// A missing config file is not an error; defaults and env overrides still apply.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the value ranges declared in the struct tags.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %s", validation.Describe(err))
	}
	return nil
}
