// Package config loads runtime configuration from the process environment,
// with optional .env file support. Missing or malformed required settings are
// a startup-fatal ConfigError, never a mid-run failure.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAPIKey                 = "OPENAI_API_KEY"
	EnvPremiumModel           = "PREMIUM_LLM_MODEL"
	EnvBudgetModel            = "BUDGET_LLM_MODEL"
	EnvPremiumReasoningEffort = "PREMIUM_LLM_REASONING_EFFORT"
	EnvBudgetReasoningEffort  = "BUDGET_LLM_REASONING_EFFORT"
	EnvAdditiveTemp           = "ADD_LLM_TEMP"
	EnvReductiveTemp          = "RED_LLM_TEMP"
	EnvVerboseLogging         = "VERBOSE_LLM_LOGGING"
	EnvVerboseLogMaxChars     = "VERBOSE_LLM_LOG_MAX_CHARS"
)

const (
	defaultVerboseLogMaxChars = 4000
	minVerboseLogMaxChars     = 100
)

// ConfigError reports a missing or malformed setting.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Setting, e.Reason)
}

// AppConfig carries every setting the engine and LLM client need.
type AppConfig struct {
	APIKey       string
	PremiumModel string
	BudgetModel  string

	// Optional per-tier reasoning effort; empty means "do not send".
	PremiumReasoningEffort string
	BudgetReasoningEffort  string

	// Optional per-phase sampling temperature overrides.
	AdditiveTemperature  *float64
	ReductiveTemperature *float64

	VerboseLLMLogging  bool
	VerboseLogMaxChars int
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment values win.
func Load() (AppConfig, error) {
	// godotenv.Load never overrides variables already set in the process.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds an AppConfig from a lookup function, so tests can supply a
// map instead of mutating the process environment.
func FromEnv(getenv func(string) string) (AppConfig, error) {
	cfg := AppConfig{
		APIKey:                 strings.TrimSpace(getenv(EnvAPIKey)),
		PremiumModel:           strings.TrimSpace(getenv(EnvPremiumModel)),
		BudgetModel:            strings.TrimSpace(getenv(EnvBudgetModel)),
		PremiumReasoningEffort: strings.TrimSpace(getenv(EnvPremiumReasoningEffort)),
		BudgetReasoningEffort:  strings.TrimSpace(getenv(EnvBudgetReasoningEffort)),
		VerboseLogMaxChars:     defaultVerboseLogMaxChars,
	}

	for _, req := range []struct{ name, value string }{
		{EnvAPIKey, cfg.APIKey},
		{EnvPremiumModel, cfg.PremiumModel},
		{EnvBudgetModel, cfg.BudgetModel},
	} {
		if req.value == "" {
			return AppConfig{}, &ConfigError{Setting: req.name, Reason: "required setting is missing"}
		}
	}

	var err error
	if cfg.AdditiveTemperature, err = optionalFloat(getenv, EnvAdditiveTemp); err != nil {
		return AppConfig{}, err
	}
	if cfg.ReductiveTemperature, err = optionalFloat(getenv, EnvReductiveTemp); err != nil {
		return AppConfig{}, err
	}

	if raw := strings.TrimSpace(getenv(EnvVerboseLogging)); raw != "" {
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			cfg.VerboseLLMLogging = true
		case "false", "0", "no":
			cfg.VerboseLLMLogging = false
		default:
			return AppConfig{}, &ConfigError{
				Setting: EnvVerboseLogging,
				Reason:  fmt.Sprintf("expected a boolean, got %q", raw),
			}
		}
	}

	if raw := strings.TrimSpace(getenv(EnvVerboseLogMaxChars)); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < minVerboseLogMaxChars {
			return AppConfig{}, &ConfigError{
				Setting: EnvVerboseLogMaxChars,
				Reason:  fmt.Sprintf("expected an integer >= %d, got %q", minVerboseLogMaxChars, raw),
			}
		}
		cfg.VerboseLogMaxChars = n
	}

	return cfg, nil
}

func optionalFloat(getenv func(string) string, name string) (*float64, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 2 {
		return nil, &ConfigError{
			Setting: name,
			Reason:  fmt.Sprintf("expected a temperature between 0 and 2, got %q", raw),
		}
	}
	return &f, nil
}
