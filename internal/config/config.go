package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerRequestTimeout  = 120 * time.Second
	ServerShutdownTimeout = 10 * time.Second

	MaxRequestBodyBytes = 64 << 10
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"5000"`
	JWTSecret              string `env:"JWT_SECRET,required"`
	HuggingFaceToken       string `env:"HUGGINGFACE_TOKEN,required"`
	HuggingFaceModel       string `env:"HF_MODEL" envDefault:"stabilityai/stable-diffusion-2-1"`
	HuggingFaceBaseURL     string `env:"HF_BASE_URL" envDefault:"https://api-inference.huggingface.co"`
	ProviderTimeoutSeconds int    `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"60"`
	SignupTokens           int    `env:"SIGNUP_TOKENS" envDefault:"10"`
	RedisURL               string `env:"REDIS_URL"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.SignupTokens < 0 {
		return fmt.Errorf("SIGNUP_TOKENS must be >= 0, got %d", c.SignupTokens)
	}
	if c.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be > 0, got %d", c.ProviderTimeoutSeconds)
	}

	if isProduction {
		if len(c.JWTSecret) < 32 {
			log.Warn().Msg("JWT_SECRET is shorter than 32 bytes in production: session tokens are easier to forge")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: IP rate limiting disabled")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
