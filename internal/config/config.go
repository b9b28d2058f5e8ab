package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "TENSORCODE"
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultDatabaseDriver = "sqlite"
	defaultDatabaseDSN    = "tensorcode.db"
	defaultLogLevel       = "info"
	defaultFanoutLimit    = 8
)

var supportedDrivers = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mysql":    {},
}

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress        string
	APIToken           string
	DatabaseDriver     string
	DatabaseDSN        string
	LogLevel           string
	LogFile            string
	CORSAllowedOrigins []string
	StrictSlugs        bool
	CascadeDeletes     bool
	RoadmapFanoutLimit int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.dsn", defaultDatabaseDSN)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.file", "")
	configViper.SetDefault("cors.allowed_origins", []string{"*"})
	configViper.SetDefault("content.strict_slugs", false)
	configViper.SetDefault("content.cascade_deletes", false)
	configViper.SetDefault("roadmap.fanout_limit", defaultFanoutLimit)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		APIToken:           configViper.GetString("auth.api_token"),
		DatabaseDriver:     strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabaseDSN:        configViper.GetString("database.dsn"),
		LogLevel:           configViper.GetString("log.level"),
		LogFile:            configViper.GetString("log.file"),
		CORSAllowedOrigins: configViper.GetStringSlice("cors.allowed_origins"),
		StrictSlugs:        configViper.GetBool("content.strict_slugs"),
		CascadeDeletes:     configViper.GetBool("content.cascade_deletes"),
		RoadmapFanoutLimit: configViper.GetInt("roadmap.fanout_limit"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("auth.api_token is required")
	}
	if _, ok := supportedDrivers[c.DatabaseDriver]; !ok {
		return fmt.Errorf("database.driver %q is not supported", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.RoadmapFanoutLimit <= 0 {
		return fmt.Errorf("roadmap.fanout_limit must be positive")
	}
	return nil
}
