package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

const (
	ProviderGraph = "graph"
	ProviderIMAP  = "imap"
)

type Config struct {
	Provider string

	// Graph application credentials
	ClientID     string
	ClientSecret string
	TenantID     string

	// IMAP credentials (Provider == "imap")
	IMAPAddr     string
	IMAPUsername string
	IMAPPassword string

	// Completion provider
	OpenAIKey       string
	OpenAIModel     string
	ClassifierModel string

	DaysThreshold  int
	AllowedDomains []string
	EmailFolder    string
	DraftsFolder   string
	ScanInterval   time.Duration
	MaxEmails      int

	TrainingDir string

	// Optional scan history record
	ScanTable string
	AWSRegion string

	// Optional SMS summary
	TwilioAccountSid string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioToNumber   string

	// Long-running trigger server
	TriggerSecret string
	Port          string
}

// Load reads configuration from the process environment. It fails before
// any message is evaluated when a required credential is missing.
func Load() (*Config, error) {
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Provider:         strings.ToLower(envOr(getenv, "MAIL_PROVIDER", ProviderGraph)),
		ClientID:         getenv("CLIENT_ID"),
		ClientSecret:     getenv("CLIENT_SECRET"),
		TenantID:         getenv("TENANT_ID"),
		IMAPAddr:         getenv("IMAP_ADDR"),
		IMAPUsername:     getenv("IMAP_USERNAME"),
		IMAPPassword:     getenv("IMAP_PASSWORD"),
		OpenAIKey:        getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOr(getenv, "OPENAI_MODEL", "gpt-4"),
		ClassifierModel:  envOr(getenv, "CLASSIFIER_MODEL", "gpt-3.5-turbo"),
		EmailFolder:      envOr(getenv, "EMAIL_FOLDER", "Inbox"),
		DraftsFolder:     envOr(getenv, "PROCESSED_FOLDER", "Drafts"),
		TrainingDir:      envOr(getenv, "TRAINING_DIR", "."),
		ScanTable:        getenv("SCAN_TABLE"),
		AWSRegion:        envOr(getenv, "AWS_REGION", "us-east-1"),
		TwilioAccountSid: getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: getenv("TWILIO_FROM_NUMBER"),
		TwilioToNumber:   getenv("TWILIO_TO_NUMBER"),
		TriggerSecret:    getenv("TRIGGER_SECRET"),
		Port:             envOr(getenv, "PORT", "8080"),
	}

	var err error
	if cfg.DaysThreshold, err = envInt(getenv, "DAYS_THRESHOLD", 4); err != nil {
		return nil, err
	}
	if cfg.MaxEmails, err = envInt(getenv, "MAX_EMAILS_PER_SCAN", 100); err != nil {
		return nil, err
	}
	interval, err := envInt(getenv, "SCAN_INTERVAL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	cfg.ScanInterval = time.Duration(interval) * time.Minute
	cfg.AllowedDomains = splitDomains(getenv("ALLOWED_DOMAINS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderGraph:
		for key, val := range map[string]string{
			"CLIENT_ID":     c.ClientID,
			"CLIENT_SECRET": c.ClientSecret,
			"TENANT_ID":     c.TenantID,
		} {
			if val == "" {
				return fmt.Errorf("%w: %s is required", types.ErrConfiguration, key)
			}
		}
	case ProviderIMAP:
		for key, val := range map[string]string{
			"IMAP_ADDR":     c.IMAPAddr,
			"IMAP_USERNAME": c.IMAPUsername,
			"IMAP_PASSWORD": c.IMAPPassword,
		} {
			if val == "" {
				return fmt.Errorf("%w: %s is required", types.ErrConfiguration, key)
			}
		}
	default:
		return fmt.Errorf("%w: unknown MAIL_PROVIDER %q", types.ErrConfiguration, c.Provider)
	}

	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required", types.ErrConfiguration)
	}
	if c.DaysThreshold <= 0 {
		return fmt.Errorf("%w: DAYS_THRESHOLD must be positive", types.ErrConfiguration)
	}
	if c.MaxEmails <= 0 {
		return fmt.Errorf("%w: MAX_EMAILS_PER_SCAN must be positive", types.ErrConfiguration)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: SCAN_INTERVAL_MINUTES must be positive", types.ErrConfiguration)
	}

	return nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", types.ErrConfiguration, key, v)
	}
	return n, nil
}

func splitDomains(raw string) []string {
	if raw == "" {
		return nil
	}

	var domains []string
	for _, d := range strings.Split(raw, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}
