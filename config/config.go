package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxResultsLimit is the largest page size the volumes search accepts.
const MaxResultsLimit = 40

// DefaultTopics are the fixed query topics the dashboard is built from.
var DefaultTopics = []string{
	"Machine Learning",
	"Python Programming",
	"Data Science",
	"Data Analysis",
	"Data Engineering",
}

// Config holds dashboard configuration.
type Config struct {
	BaseURL          string
	APIKey           string
	Topics           []string
	MaxResults       int
	Timeout          time.Duration
	UserAgent        string
	Addr             string
	SessionCacheSize int
	HistogramBins    int
	TopAuthors       int
	SecretsFile      string
	Verbose          bool
}

// DefaultConfig returns defaults matching the public Google Books endpoint.
func DefaultConfig() *Config {
	topics := make([]string, len(DefaultTopics))
	copy(topics, DefaultTopics)
	return &Config{
		BaseURL:          "https://www.googleapis.com/books/v1",
		Topics:           topics,
		MaxResults:       MaxResultsLimit,
		Timeout:          10 * time.Second,
		UserAgent:        "go-books-dashboard/1.0",
		Addr:             ":8501",
		SessionCacheSize: 128,
		HistogramBins:    20,
		TopAuthors:       8,
		SecretsFile:      ".secrets/secrets.yaml",
		Verbose:          false,
	}
}

// FromEnv overlays DASHBOARD_* and BOOKS_* environment variables on cfg.
func (c *Config) FromEnv() error {
	if value, ok := EnvString("BOOKS_API_BASE_URL"); ok {
		c.BaseURL = value
	}
	if value, ok := EnvString("BOOKS_TOPICS"); ok {
		c.Topics = splitTopics(value)
	}
	if value, ok, err := EnvInt("BOOKS_MAX_RESULTS"); err != nil {
		return fmt.Errorf("invalid BOOKS_MAX_RESULTS: %w", err)
	} else if ok {
		c.MaxResults = value
	}
	if value, ok, err := EnvDuration("BOOKS_TIMEOUT"); err != nil {
		return fmt.Errorf("invalid BOOKS_TIMEOUT: %w", err)
	} else if ok {
		c.Timeout = value
	}
	if value, ok := EnvString("BOOKS_SECRETS_FILE"); ok {
		c.SecretsFile = value
	}
	if value, ok := EnvString("DASHBOARD_ADDR"); ok {
		c.Addr = value
	}
	if value, ok, err := EnvInt("DASHBOARD_SESSIONS"); err != nil {
		return fmt.Errorf("invalid DASHBOARD_SESSIONS: %w", err)
	} else if ok {
		c.SessionCacheSize = value
	}
	if value, ok, err := EnvBool("DASHBOARD_VERBOSE"); err != nil {
		return fmt.Errorf("invalid DASHBOARD_VERBOSE: %w", err)
	} else if ok {
		c.Verbose = value
	}
	return nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if len(c.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	seen := make(map[string]struct{}, len(c.Topics))
	for _, topic := range c.Topics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("topics cannot be blank")
		}
		if _, ok := seen[topic]; ok {
			return fmt.Errorf("duplicate topic %q", topic)
		}
		seen[topic] = struct{}{}
	}

	if c.MaxResults <= 0 || c.MaxResults > MaxResultsLimit {
		return fmt.Errorf("max results must be between 1 and %d", MaxResultsLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.SessionCacheSize <= 0 {
		return fmt.Errorf("session cache size must be positive")
	}
	if c.HistogramBins <= 0 {
		return fmt.Errorf("histogram bins must be positive")
	}
	if c.TopAuthors <= 0 {
		return fmt.Errorf("top authors must be positive")
	}

	return nil
}

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// EnvBool parses a boolean environment value.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, err
	}
	return b, true, nil
}

// EnvDuration parses a Go duration environment value such as "15s".
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, err
	}
	return d, true, nil
}

func splitTopics(value string) []string {
	parts := strings.Split(value, ";")
	topics := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			topics = append(topics, part)
		}
	}
	return topics
}
