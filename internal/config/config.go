package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
)

const (
	GeneratorGemini = "gemini"
	GeneratorLocal  = "local"
)

// Config represents the application configuration.
type Config struct {
	GeminiAPIKey      string        `json:"gemini_api_key"`
	GeminiModel       string        `json:"gemini_model"`
	Generator         string        `json:"generator"`
	LocalLLMURL       string        `json:"local_llm_url"`
	LocalLLMModel     string        `json:"local_llm_model"`
	Language          string        `json:"language"`
	DatabaseURL       string        `json:"DATABASE_URL"`
	Port              string        `json:"port"`
	AllowedOrigins    []string      `json:"allowed_origins"`
	GenerationTimeout time.Duration `json:"-"`
	Env               string        `json:"env"`
}

func defaults() Config {
	return Config{
		GeminiModel:       "gemini-2.0-flash",
		Generator:         GeneratorGemini,
		LocalLLMURL:       "http://localhost:1234/v1/chat/completions",
		LocalLLMModel:     "gemma-3-12b-it",
		Language:          locale.Default,
		Port:              "8080",
		AllowedOrigins:    []string{"http://localhost:5173"},
		GenerationTimeout: 60 * time.Second,
		Env:               "development",
	}
}

// Load builds the configuration from defaults, the optional JSON file at
// path, a .env file in the working directory and the environment, in that
// order of precedence. A missing API key is not an error here; it surfaces
// when a generation is attempted.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to unmarshal %s: %w", path, err)
			}
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg.GeminiAPIKey = envOrDefault("GEMINI_API_KEY", envOrDefault("API_KEY", cfg.GeminiAPIKey))
	cfg.GeminiModel = envOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.Generator = strings.ToLower(envOrDefault("GENERATOR", cfg.Generator))
	cfg.LocalLLMURL = envOrDefault("LOCAL_LLM_URL", cfg.LocalLLMURL)
	cfg.LocalLLMModel = envOrDefault("LOCAL_LLM_MODEL", cfg.LocalLLMModel)
	cfg.Language = envOrDefault("LANGUAGE", cfg.Language)
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.Port = envOrDefault("PORT", cfg.Port)
	cfg.Env = envOrDefault("ENV", cfg.Env)
	if origins := splitList(os.Getenv("ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if timeout := os.Getenv("GENERATION_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GENERATION_TIMEOUT %q: %w", timeout, err)
		}
		cfg.GenerationTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Generator {
	case GeneratorGemini:
		if c.GeminiModel == "" {
			return fmt.Errorf("GEMINI_MODEL must not be empty")
		}
	case GeneratorLocal:
		u, err := url.Parse(c.LocalLLMURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("LOCAL_LLM_URL %q is not an absolute URL", c.LocalLLMURL)
		}
	default:
		return fmt.Errorf("unknown GENERATOR %q (want %s or %s)", c.Generator, GeneratorGemini, GeneratorLocal)
	}
	if _, err := locale.Get(c.Language); err != nil {
		return fmt.Errorf("invalid LANGUAGE: %w", err)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS must list at least one origin")
	}
	for _, origin := range c.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", origin)
		}
	}
	if c.GenerationTimeout < 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must not be negative")
	}
	return nil
}

func envOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
