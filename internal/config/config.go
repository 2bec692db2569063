package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret        string   `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes  int      `mapstructure:"TOKEN_TTL_MINUTES"`
	GroqAPIKey       string   `mapstructure:"GROQ_API_KEY"`
	GroqBaseURL      string   `mapstructure:"GROQ_BASE_URL"`
	LLMModel         string   `mapstructure:"LLM_MODEL"`
	LLMTimeoutSecs   int      `mapstructure:"LLM_TIMEOUT_SECS"`
	LLMMaxRetries    int      `mapstructure:"LLM_MAX_RETRIES"`
	HFAPIURL         string   `mapstructure:"HF_API_URL"`
	HFAPIKey         string   `mapstructure:"HF_API_KEY"`
	NERClinicalModel string   `mapstructure:"NER_CLINICAL_MODEL"`
	NERGeneralModel  string   `mapstructure:"NER_GENERAL_MODEL"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TOKEN_TTL_MINUTES", 720)
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("LLM_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("LLM_TIMEOUT_SECS", 30)
	v.SetDefault("LLM_MAX_RETRIES", 2)
	v.SetDefault("HF_API_URL", "https://api-inference.huggingface.co")
	v.SetDefault("NER_CLINICAL_MODEL", "samrawal/bert-base-uncased_clinical-ner")
	v.SetDefault("NER_GENERAL_MODEL", "dslim/bert-base-NER")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_MINUTES")
	v.BindEnv("GROQ_API_KEY")
	v.BindEnv("GROQ_BASE_URL")
	v.BindEnv("LLM_MODEL")
	v.BindEnv("LLM_TIMEOUT_SECS")
	v.BindEnv("LLM_MAX_RETRIES")
	v.BindEnv("HF_API_URL")
	v.BindEnv("HF_API_KEY")
	v.BindEnv("NER_CLINICAL_MODEL")
	v.BindEnv("NER_GENERAL_MODEL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; using an insecure development secret.")
		log.Println("WARNING: Set JWT_SECRET before running outside development.")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenTTL returns the access-token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// LLMTimeout returns the per-call deadline for upstream model requests.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSecs) * time.Second
}

// Validate checks that the configuration is safe to run. Production refuses
// to start with the built-in development secret or without an upstream model
// credential, since the intake dialogue cannot function without one.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == "dev-secret-change-me" {
			return fmt.Errorf("JWT_SECRET must be set to a real secret in production")
		}
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required in production")
		}
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", c.TokenTTLMinutes)
	}
	if c.LLMTimeoutSecs <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECS must be positive, got %d", c.LLMTimeoutSecs)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative, got %d", c.LLMMaxRetries)
	}
	return nil
}
