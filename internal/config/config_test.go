package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080, PublicBaseURL: "https://dialer.example.com"},
		Twilio: TwilioConfig{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+15550001111"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AppliesDialerDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Dialer.PacingInterval != 3*time.Second {
		t.Fatalf("expected default pacing interval, got %v", c.Dialer.PacingInterval)
	}
	if c.Dialer.ProviderTimeout != 15*time.Second {
		t.Fatalf("expected default provider timeout, got %v", c.Dialer.ProviderTimeout)
	}
	if c.Dialer.HistoryLimit != 10 {
		t.Fatalf("expected default history limit, got %d", c.Dialer.HistoryLimit)
	}
}

func TestValidate_CountryCodeMustBePlusDigits(t *testing.T) {
	c := validConfig()
	c.Dialer.DefaultCountryCode = "1"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for country code without +")
	}

	c = validConfig()
	c.Dialer.DefaultCountryCode = "+1"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_DBOptionalUnlessHostSet(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error without DB config, got %v", err)
	}

	c = validConfig()
	c.DB = DBConfig{Host: "localhost", Port: 5432}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for DB host without user/name")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "dialer", SSLMode: ""}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig()
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "dialer", SSLMode: ""}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_PublicBaseURLMustBeHTTP(t *testing.T) {
	c := validConfig()
	c.App.PublicBaseURL = "dialer.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-http base url")
	}
}
