package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
areas:
  path: "areas.yaml"
telegram:
  bot_token: "${PORTALEN_TEST_TOKEN}"
booking:
  default_travel_fee: 250
  max_advance_days: 60
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv("PORTALEN_TEST_TOKEN", "test_token")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected expanded bot_token test_token, got %s", cfg.Telegram.BotToken)
	}
	if cfg.Booking.DefaultTravelFee != 250 {
		t.Errorf("expected default travel fee 250, got %v", cfg.Booking.DefaultTravelFee)
	}
	if cfg.Booking.MaxAdvanceDays != 60 {
		t.Errorf("expected max advance days 60, got %d", cfg.Booking.MaxAdvanceDays)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Database: DatabaseConfig{Path: "path"},
		Areas:    AreasConfig{Path: "areas.yaml"},
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing areas path",
			mutate:  func(c *Config) { c.Areas.Path = "" },
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			mutate: func(c *Config) {
				c.API.Auth.Enabled = true
				c.API.Auth.APIKeys = nil
			},
			wantErr: true,
		},
		{
			name: "auth enabled with keys",
			mutate: func(c *Config) {
				c.API.Auth.Enabled = true
				c.API.Auth.APIKeys = []APIClientKey{{Key: "k", Extra: "e", Name: "client"}}
			},
			wantErr: false,
		},
		{
			name:    "negative travel fee",
			mutate:  func(c *Config) { c.Booking.DefaultTravelFee = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.App.Name != "portalen" {
		t.Errorf("expected default app name portalen, got %s", cfg.App.Name)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.RateLimit.Burst != 5 {
		t.Errorf("expected default rate limit burst 5, got %d", cfg.API.RateLimit.Burst)
	}
	if cfg.Booking.MaxAdvanceDays != 365 {
		t.Errorf("expected default max advance days 365, got %d", cfg.Booking.MaxAdvanceDays)
	}

	cfg = &Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()
	if cfg.Monitoring.PrometheusPort != 9090 {
		t.Errorf("expected default prometheus port 9090, got %d", cfg.Monitoring.PrometheusPort)
	}
}
