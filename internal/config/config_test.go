package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "GEMINI_API_KEY", "WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "OTP_TTL", "TIMEZONE", "JWT_EXPIRES_IN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.DBDriver)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("expected 10m OTP TTL, got %s", cfg.OTPTTL)
	}
	if cfg.JWTExpirationDur != 15*time.Minute {
		t.Errorf("expected 15m access token lifetime, got %s", cfg.JWTExpirationDur)
	}
	if cfg.LLMConfigured() {
		t.Error("expected LLM to be unconfigured without GEMINI_API_KEY")
	}
	if cfg.WhatsAppConfigured() {
		t.Error("expected WhatsApp to be unconfigured without credentials")
	}
	if cfg.Location == nil || cfg.Location.String() != "America/Sao_Paulo" {
		t.Errorf("expected America/Sao_Paulo location, got %v", cfg.Location)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.DBDriver)
	}
	if !cfg.LLMConfigured() || !cfg.WhatsAppConfigured() {
		t.Error("expected both collaborators to be configured")
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("expected 5m OTP TTL, got %s", cfg.OTPTTL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad_driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unsupported driver")
		}
	})

	t.Run("bad_timezone", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "")
		t.Setenv("TIMEZONE", "Mars/Olympus")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown timezone")
		}
	})

	t.Run("bad_duration_falls_back", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "")
		t.Setenv("TIMEZONE", "")
		t.Setenv("REQUEST_TIMEOUT", "soon")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected fallback 30s, got %s", cfg.RequestTimeout)
		}
	})
}
