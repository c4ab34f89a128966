package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")
	cfg := Load()
	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.JWTAccessExpiry != 15*time.Minute {
		t.Fatalf("expected fallback expiry, got %v", cfg.JWTAccessExpiry)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"memory ok", Config{StoreDriver: DriverMemory, JWTSecret: "s"}, nil},
		{"postgres needs password", Config{StoreDriver: DriverPostgres, JWTSecret: "s"}, []string{"DB_PASSWORD"}},
		{"unknown driver and secret", Config{StoreDriver: "sqlite"}, []string{"JWT_SECRET", "STORE_DRIVER"}},
		{"half admin", Config{StoreDriver: DriverMemory, JWTSecret: "s", AdminEmail: "a@example.com"}, []string{"ADMIN_PASSWORD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %v", tt.want)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Fatalf("error %q does not mention %s", err, w)
				}
			}
		})
	}
}
