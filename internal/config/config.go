// Package config assembles every externally supplied setting for the
// affiliate ledger service in one place, so entrypoints receive an explicit
// configuration object instead of reaching for globals.
package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	envPrefix = "AFFILIATE_"

	// DefaultNetwork is the affiliate network identifier used for object
	// keys, table routing and the affiliate_network ledger column.
	DefaultNetwork = "awin"

	// DefaultFeedBaseURL is the production endpoint of the affiliate
	// network's publisher API.
	DefaultFeedBaseURL = "https://api.awin.com"

	// DefaultDataset is the BigQuery dataset holding the ledger tables.
	DefaultDataset = "affiliate"

	// DefaultOverridesRange is the sheet range holding the closed-retailer
	// override table (advertiser ID in column A, retailer name in column B).
	DefaultOverridesRange = "Closed Retailers!A:B"

	// DefaultModelName is the default Gemini model used for product tagging.
	DefaultModelName = "gemini-2.5-flash"
)

// SupportedCountries lists the markets the feed account is licensed for.
// Table routing and credential lookup both key off this set.
var SupportedCountries = []string{"US", "UK"}

// Error reports configuration that cannot drive a run, such as an unknown
// country code, missing credentials or an absent required setting.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Setting, e.Reason)
}

// Credentials identifies one publisher account on the affiliate network.
type Credentials struct {
	UserID      string
	AccessToken string
}

// Config carries the runtime settings shared by all entrypoints.
type Config struct {
	// ProjectID and Dataset locate the BigQuery ledger tables.
	ProjectID string
	Dataset   string

	// Bucket receives raw snapshots and load-ready report files.
	Bucket string

	// Network is the affiliate network identifier, e.g. "awin".
	Network string

	// FeedBaseURL is the root of the network's publisher API.
	FeedBaseURL string

	// FeedAccounts holds per-country publisher credentials.
	FeedAccounts map[string]Credentials

	// SlackWebhookURL receives run notifications. Empty disables them.
	SlackWebhookURL string

	// OverridesSheetID and OverridesRange locate the closed-retailer
	// override table. An empty sheet ID means no overrides.
	OverridesSheetID string
	OverridesRange   string

	// ModelName selects the Gemini model for product tagging.
	ModelName string
}

// FromEnv assembles a Config from AFFILIATE_* environment variables.
// Country credentials are collected for every supported country that has
// them set and validated lazily by FeedCredentials, so a US-only run does
// not demand UK secrets.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ProjectID:        os.Getenv(envPrefix + "GCP_PROJECT"),
		Dataset:          getenvDefault(envPrefix+"BQ_DATASET", DefaultDataset),
		Bucket:           os.Getenv(envPrefix + "GCS_BUCKET"),
		Network:          getenvDefault(envPrefix+"NETWORK", DefaultNetwork),
		FeedBaseURL:      getenvDefault(envPrefix+"FEED_BASE_URL", DefaultFeedBaseURL),
		SlackWebhookURL:  os.Getenv(envPrefix + "SLACK_WEBHOOK_URL"),
		OverridesSheetID: os.Getenv(envPrefix + "OVERRIDES_SHEET_ID"),
		OverridesRange:   getenvDefault(envPrefix+"OVERRIDES_RANGE", DefaultOverridesRange),
		ModelName:        getenvDefault(envPrefix+"GEMINI_MODEL", DefaultModelName),
		FeedAccounts:     map[string]Credentials{},
	}

	if cfg.ProjectID == "" {
		return nil, &Error{Setting: envPrefix + "GCP_PROJECT", Reason: "must be set"}
	}
	if cfg.Bucket == "" {
		return nil, &Error{Setting: envPrefix + "GCS_BUCKET", Reason: "must be set"}
	}

	for _, country := range SupportedCountries {
		userID := os.Getenv(fmt.Sprintf("%s%s_USER_ID", envPrefix, country))
		token := os.Getenv(fmt.Sprintf("%s%s_ACCESS_TOKEN", envPrefix, country))
		if userID == "" && token == "" {
			continue
		}
		if userID == "" || token == "" {
			return nil, &Error{
				Setting: country,
				Reason:  "feed credentials are incomplete, both user ID and access token are required",
			}
		}
		cfg.FeedAccounts[country] = Credentials{UserID: userID, AccessToken: token}
	}

	return cfg, nil
}

// NormalizeCountry upper-cases a requested country code and rejects codes
// outside the supported set before any remote work starts.
func NormalizeCountry(raw string) (string, error) {
	country := strings.ToUpper(strings.TrimSpace(raw))
	for _, c := range SupportedCountries {
		if c == country {
			return country, nil
		}
	}
	return "", &Error{Setting: "country", Reason: fmt.Sprintf("unsupported country code %q", raw)}
}

// FeedCredentials returns the publisher credentials for a country, or a
// configuration error when the account was never configured.
func (c *Config) FeedCredentials(country string) (Credentials, error) {
	creds, ok := c.FeedAccounts[country]
	if !ok {
		return Credentials{}, &Error{
			Setting: country,
			Reason: fmt.Sprintf("missing feed credentials, set %s%s_USER_ID and %s%s_ACCESS_TOKEN",
				envPrefix, country, envPrefix, country),
		}
	}
	return creds, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
