// Package config loads dbdesigner settings from a config file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// Keys understood in dbdesigner.yaml and as DBDESIGNER_* variables
const (
	KeyEngine       = "engine"
	KeyDatabaseName = "database_name"
	KeyIDStrategy   = "id_strategy"
	KeyHistoryLimit = "history_limit"
	KeyStoreDir     = "store_dir"
	KeyListen       = "listen"
)

const envPrefix = "DBDESIGNER"

// Config is the resolved configuration
type Config struct {
	Engine       schema.Engine `mapstructure:"engine"`
	DatabaseName string        `mapstructure:"database_name"`
	IDStrategy   string        `mapstructure:"id_strategy"`
	HistoryLimit int           `mapstructure:"history_limit"`
	StoreDir     string        `mapstructure:"store_dir"`
	Listen       string        `mapstructure:"listen"`
}

// New returns a viper instance with defaults, environment binding and the
// standard config file search path
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyEngine, string(schema.EngineMySQL))
	v.SetDefault(KeyDatabaseName, schema.DefaultDatabaseName)
	v.SetDefault(KeyIDStrategy, "uuid")
	v.SetDefault(KeyHistoryLimit, 0)
	v.SetDefault(KeyStoreDir, defaultStoreDir())
	v.SetDefault(KeyListen, "127.0.0.1:8080")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("dbdesigner")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".dbdesigner"))
	}
	return v
}

// BindFlags binds flags named like the keys with dashes, e.g. --history-limit
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyEngine, KeyDatabaseName, KeyIDStrategy, KeyHistoryLimit, KeyStoreDir, KeyListen} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", flag.Name)
		}
	}
	return nil
}

// Load reads the config file, if any, and returns the validated configuration.
// An explicit file must exist; the default search path may come up empty.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "failed to read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and far from the config
func (c Config) Validate() error {
	var problems []string
	if !c.Engine.IsKnown() {
		problems = append(problems, "unknown engine "+string(c.Engine))
	}
	switch c.IDStrategy {
	case "uuid", "sequence":
	default:
		problems = append(problems, "unknown id_strategy "+c.IDStrategy)
	}
	if c.HistoryLimit < 0 {
		problems = append(problems, "history_limit must not be negative")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dbdesigner")
	}
	return ".dbdesigner"
}
