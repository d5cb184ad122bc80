package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the developer key.
const APIKeyEnv = "GOOGLE_BOOKS_API_KEY"

// ErrMissingAPIKey is returned when neither the secret store nor the
// environment provides a developer key.
var ErrMissingAPIKey = errors.New("config: GOOGLE_BOOKS_API_KEY not found in secret store or environment")

type secretsFile struct {
	GoogleBooksAPIKey string `yaml:"google_books_api_key"`
}

// LoadDotEnv loads variables from .env files without overriding the
// process environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// LoadAPIKey resolves the developer key: secret store first, then the
// environment. It sets c.APIKey on success.
func (c *Config) LoadAPIKey() error {
	key, err := readSecretsFile(c.SecretsFile)
	if err != nil {
		return err
	}
	if key == "" {
		key, _ = EnvString(APIKeyEnv)
	}
	if key == "" {
		return ErrMissingAPIKey
	}
	c.APIKey = key
	return nil
}

func readSecretsFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read secrets file %q: %w", path, err)
	}

	var secrets secretsFile
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parse secrets file %q: %w", path, err)
	}
	return strings.TrimSpace(secrets.GoogleBooksAPIKey), nil
}
