package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})
}

// chdirWithConfig creates a temp project root containing config/<env>.yaml
// with the given contents and chdirs into it for the duration of the test.
func chdirWithConfig(t *testing.T, env, yamlBody string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "config", env+".yaml"), []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, root)
	t.Setenv("ENV_NAME", env)
}

func writeSecrets(t *testing.T, yamlBody string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cwd, "config", "secrets.yaml"), []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirWithConfig(t, "dev", "server:\n  port: \"\"\n")
	t.Setenv("WEATHER_API_KEY", "testkey")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.WeatherAPIURL != "https://api.openweathermap.org/data/2.5/forecast" {
		t.Errorf("WeatherAPIURL = %q", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimeout != 5*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 5s", cfg.WeatherAPITimeout)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.DatabaseMaxOpenConns != 25 || cfg.DatabaseMaxIdleConns != 5 {
		t.Errorf("pool = %d/%d, want 25/5", cfg.DatabaseMaxOpenConns, cfg.DatabaseMaxIdleConns)
	}
	if !cfg.CircuitBreakerEnabled || cfg.CircuitBreakerFailureThreshold != 5 || cfg.CircuitBreakerSuccessThreshold != 2 {
		t.Errorf("breaker defaults wrong: %+v", cfg)
	}
	if cfg.ProviderHealthWindow != 60*time.Second || cfg.ProviderHealthErrorPct != 50 {
		t.Errorf("health defaults = %v/%d, want 60s/50", cfg.ProviderHealthWindow, cfg.ProviderHealthErrorPct)
	}
	if !strings.Contains(cfg.DatabaseDSN, "host=localhost") || !strings.Contains(cfg.DatabaseDSN, "dbname=weather") {
		t.Errorf("default DSN = %q", cfg.DatabaseDSN)
	}
}

func TestLoad_FileValues(t *testing.T) {
	chdirWithConfig(t, "prod", `
server:
  port: "9090"
weather_api:
  url: "https://weather.example.com/forecast"
  timeout: "3s"
request:
  timeout: "15s"
database:
  host: db.internal
  name: locations
  max_open_conns: 50
  max_idle_conns: 10
  conn_max_lifetime: "1h"
reliability:
  rate_limit_rps: 100
  rate_limit_burst: 40
circuit_breaker:
  enabled: false
health:
  provider_window: "2m"
  provider_error_pct: 25
`)
	t.Setenv("WEATHER_API_KEY", "testkey")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.WeatherAPIURL != "https://weather.example.com/forecast" || cfg.WeatherAPITimeout != 3*time.Second {
		t.Errorf("weather api = %q/%v", cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout)
	}
	if !strings.Contains(cfg.DatabaseDSN, "host=db.internal") || !strings.Contains(cfg.DatabaseDSN, "dbname=locations") {
		t.Errorf("DSN = %q", cfg.DatabaseDSN)
	}
	if cfg.DatabaseMaxOpenConns != 50 || cfg.DatabaseConnMaxLifetime != time.Hour {
		t.Errorf("pool = %d/%v", cfg.DatabaseMaxOpenConns, cfg.DatabaseConnMaxLifetime)
	}
	if cfg.RateLimitRPS != 100 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %d/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.CircuitBreakerEnabled {
		t.Error("circuit breaker should be disabled")
	}
	if cfg.ProviderHealthWindow != 2*time.Minute || cfg.ProviderHealthErrorPct != 25 {
		t.Errorf("health = %v/%d", cfg.ProviderHealthWindow, cfg.ProviderHealthErrorPct)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirWithConfig(t, "dev", "server:\n  port: \"9090\"\n")
	t.Setenv("WEATHER_API_KEY", "envkey")
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "host=envhost port=5432 user=u dbname=d sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want env override 7070", cfg.ServerPort)
	}
	if cfg.WeatherAPIKey != "envkey" {
		t.Errorf("WeatherAPIKey = %q, want envkey", cfg.WeatherAPIKey)
	}
	if cfg.DatabaseDSN != "host=envhost port=5432 user=u dbname=d sslmode=disable" {
		t.Errorf("DatabaseDSN = %q, want env override", cfg.DatabaseDSN)
	}
}

func TestLoad_SecretsFile(t *testing.T) {
	chdirWithConfig(t, "dev", "server:\n  port: \"8080\"\n")
	writeSecrets(t, "weather_api_key: secretkey\ndatabase_dsn: \"host=secret dbname=s\"\n")
	t.Setenv("WEATHER_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WeatherAPIKey != "secretkey" {
		t.Errorf("WeatherAPIKey = %q, want secretkey", cfg.WeatherAPIKey)
	}
	if cfg.DatabaseDSN != "host=secret dbname=s" {
		t.Errorf("DatabaseDSN = %q, want secrets value", cfg.DatabaseDSN)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	chdirWithConfig(t, "dev", "server:\n  port: \"8080\"\n")
	t.Setenv("WEATHER_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without an API key")
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "k")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without a config file")
	}
}

// The request timeout must leave room for at least one full provider call.
func TestLoad_RequestTimeoutFloor(t *testing.T) {
	chdirWithConfig(t, "dev", `
weather_api:
  timeout: "8s"
request:
  timeout: "2s"
`)
	t.Setenv("WEATHER_API_KEY", "k")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		t.Errorf("RequestTimeout %v not raised above provider timeout %v", cfg.RequestTimeout, cfg.WeatherAPITimeout)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		def   time.Duration
		want  time.Duration
	}{
		{"5s", time.Second, 5 * time.Second},
		{"", time.Second, time.Second},
		{"garbage", time.Second, time.Second},
		{"-3s", time.Second, time.Second},
		{" 250ms ", time.Second, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.input, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
