// Package base holds configuration and debug plumbing shared by providers.
package base

import (
	"os"

	"github.com/inspirepan/golem"
	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the given .env files, or from
// .env in the working directory when none are given.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// Config contains common configuration for all providers.
type Config struct {
	APIKey  string
	BaseURL string

	// DebugPath writes JSONL debug records (request/chunk/response) when set.
	DebugPath string

	// Defaults used when a request leaves them unset.
	MaxOutputTokens *int
	Temperature     *float64

	ExtraHeaders map[string]string
}

// ApplyEnvDefaults fills empty values from the environment.
func ApplyEnvDefaults(cfg *Config, apiKeyEnv, baseURLEnv string) {
	if cfg.APIKey == "" && apiKeyEnv != "" {
		cfg.APIKey = os.Getenv(apiKeyEnv)
	}
	if cfg.BaseURL == "" && baseURLEnv != "" {
		cfg.BaseURL = os.Getenv(baseURLEnv)
	}
}

// Sampling returns the temperature and token limit for req, preferring the
// request's values over the configured defaults.
func (c Config) Sampling(req golem.GenerateRequest) (temperature *float64, maxTokens *int) {
	temperature, maxTokens = c.Temperature, c.MaxOutputTokens
	if req.Temperature != nil {
		temperature = req.Temperature
	}
	if req.MaxOutputTokens != nil {
		maxTokens = req.MaxOutputTokens
	}
	return temperature, maxTokens
}
