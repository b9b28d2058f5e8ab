package config

import (
	"strings"
	"testing"
)

func TestLoadAppliesDefaults(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.api_token", "secret-token")

	cfg, err := Load(configViper)
	if err != nil {
		testContext.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		testContext.Fatalf("expected default address %q, got %q", defaultHTTPAddress, cfg.HTTPAddress)
	}
	if cfg.DatabaseDriver != "sqlite" {
		testContext.Fatalf("expected sqlite driver, got %q", cfg.DatabaseDriver)
	}
	if cfg.RoadmapFanoutLimit != defaultFanoutLimit {
		testContext.Fatalf("expected fanout limit %d, got %d", defaultFanoutLimit, cfg.RoadmapFanoutLimit)
	}
	if cfg.StrictSlugs || cfg.CascadeDeletes {
		testContext.Fatalf("expected strictness options to default to false")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		testContext.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadRequiresAPIToken(testContext *testing.T) {
	configViper := NewViper()

	_, err := Load(configViper)
	if err == nil || !strings.Contains(err.Error(), "auth.api_token") {
		testContext.Fatalf("expected api token error, got %v", err)
	}
}

func TestLoadRejectsUnknownDriver(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.api_token", "secret-token")
	configViper.Set("database.driver", "oracle")

	_, err := Load(configViper)
	if err == nil || !strings.Contains(err.Error(), "database.driver") {
		testContext.Fatalf("expected driver error, got %v", err)
	}
}

func TestLoadReadsEnvironment(testContext *testing.T) {
	testContext.Setenv("TENSORCODE_AUTH_API_TOKEN", "env-token")
	testContext.Setenv("TENSORCODE_CONTENT_STRICT_SLUGS", "true")

	cfg, err := Load(NewViper())
	if err != nil {
		testContext.Fatalf("unexpected load error: %v", err)
	}
	if cfg.APIToken != "env-token" {
		testContext.Fatalf("expected token from environment, got %q", cfg.APIToken)
	}
	if !cfg.StrictSlugs {
		testContext.Fatalf("expected strict slugs from environment")
	}
}
