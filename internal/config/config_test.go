package config

import (
	"errors"
	"testing"
)

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "lowercase us", raw: "us", want: "US"},
		{name: "uppercase uk", raw: "UK", want: "UK"},
		{name: "padded", raw: " us ", want: "US"},
		{name: "unsupported", raw: "DE", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCountry(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeCountry(%q) expected error, got %q", tt.raw, got)
				}
				var cfgErr *Error
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected *config.Error, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeCountry(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeCountry(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("AFFILIATE_GCP_PROJECT", "test-project")
	t.Setenv("AFFILIATE_GCS_BUCKET", "test-bucket")
	t.Setenv("AFFILIATE_US_USER_ID", "12345")
	t.Setenv("AFFILIATE_US_ACCESS_TOKEN", "token-us")
	t.Setenv("AFFILIATE_UK_USER_ID", "")
	t.Setenv("AFFILIATE_UK_ACCESS_TOKEN", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() unexpected error: %v", err)
	}

	if cfg.ProjectID != "test-project" {
		t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "test-project")
	}
	if cfg.Dataset != DefaultDataset {
		t.Errorf("Dataset = %q, want default %q", cfg.Dataset, DefaultDataset)
	}
	if cfg.Network != DefaultNetwork {
		t.Errorf("Network = %q, want default %q", cfg.Network, DefaultNetwork)
	}
	if cfg.FeedBaseURL != DefaultFeedBaseURL {
		t.Errorf("FeedBaseURL = %q, want default %q", cfg.FeedBaseURL, DefaultFeedBaseURL)
	}

	creds, err := cfg.FeedCredentials("US")
	if err != nil {
		t.Fatalf("FeedCredentials(US) unexpected error: %v", err)
	}
	if creds.UserID != "12345" || creds.AccessToken != "token-us" {
		t.Errorf("FeedCredentials(US) = %+v, want user 12345 / token-us", creds)
	}
}

func TestFromEnv_MissingProject(t *testing.T) {
	t.Setenv("AFFILIATE_GCP_PROJECT", "")
	t.Setenv("AFFILIATE_GCS_BUCKET", "test-bucket")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv() expected error when project is unset")
	}
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %T", err)
	}
}

func TestFromEnv_PartialCredentials(t *testing.T) {
	t.Setenv("AFFILIATE_GCP_PROJECT", "test-project")
	t.Setenv("AFFILIATE_GCS_BUCKET", "test-bucket")
	t.Setenv("AFFILIATE_UK_USER_ID", "999")
	t.Setenv("AFFILIATE_UK_ACCESS_TOKEN", "")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv() expected error for partial UK credentials")
	}
}

func TestFeedCredentials_Missing(t *testing.T) {
	cfg := &Config{FeedAccounts: map[string]Credentials{}}

	_, err := cfg.FeedCredentials("UK")
	if err == nil {
		t.Fatal("FeedCredentials(UK) expected error when account is not configured")
	}
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *config.Error, got %T", err)
	}
}
