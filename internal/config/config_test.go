package config

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Reservation: ReservationConfig{
				Window:        15 * time.Minute,
				SweepInterval: 30 * time.Second,
				PollInterval:  5 * time.Second,
				TickInterval:  time.Second,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"zero reservation window rejected", func(c *Config) { c.Reservation.Window = 0 }, true},
		{"negative reservation window rejected", func(c *Config) { c.Reservation.Window = -time.Minute }, true},
		{"zero poll interval rejected", func(c *Config) { c.Reservation.PollInterval = 0 }, true},
		{"zero tick interval rejected", func(c *Config) { c.Reservation.TickInterval = 0 }, true},
		{"zero sweep interval rejected", func(c *Config) { c.Reservation.SweepInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Errorf("getEnvAsDuration = %v, want 90s", got)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getEnvAsDuration fallback = %v, want 1m", got)
	}

	if got := getEnvAsDuration("TEST_DURATION_UNSET", 5*time.Second); got != 5*time.Second {
		t.Errorf("getEnvAsDuration default = %v, want 5s", got)
	}
}
