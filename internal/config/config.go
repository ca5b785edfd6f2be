package config

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from the environment with a
// .env file as fallback.
type Config struct {
	Port            string  `mapstructure:"PORT"`
	PatientJSONPath string  `mapstructure:"PATIENT_JSON_PATH"`
	DatabaseURL     string  `mapstructure:"DATABASE_URL"`
	OpenAIAPIKey    string  `mapstructure:"OPENAI_API_KEY"`
	ModelName       string  `mapstructure:"MODEL_NAME"`
	EmbedModel      string  `mapstructure:"EMBED_MODEL"`
	Temperature     float32 `mapstructure:"TEMPERATURE"`
	TopK            int     `mapstructure:"TOP_K"`
	RAGEnabled      bool    `mapstructure:"RAG_ENABLED"`
	RAGIndexPath    string  `mapstructure:"RAG_INDEX_PATH"`
	RAGDocsDir      string  `mapstructure:"RAG_DOCS_DIR"`
	EmergencyPIN    string  `mapstructure:"EMERGENCY_PIN_HASH"`
	Persona         string  `mapstructure:"PERSONA"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("PATIENT_JSON_PATH", "data/patient.json")
	v.SetDefault("MODEL_NAME", "gpt-4o-mini")
	v.SetDefault("EMBED_MODEL", "text-embedding-3-small")
	v.SetDefault("TEMPERATURE", 0.5)
	v.SetDefault("TOP_K", 5)
	v.SetDefault("RAG_ENABLED", true)
	v.SetDefault("RAG_INDEX_PATH", "data/index.json")
	v.SetDefault("RAG_DOCS_DIR", "data/raw")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("PATIENT_JSON_PATH")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("MODEL_NAME")
	v.BindEnv("EMBED_MODEL")
	v.BindEnv("TEMPERATURE")
	v.BindEnv("TOP_K")
	v.BindEnv("RAG_ENABLED")
	v.BindEnv("RAG_INDEX_PATH")
	v.BindEnv("RAG_DOCS_DIR")
	v.BindEnv("EMERGENCY_PIN_HASH")
	v.BindEnv("PERSONA")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and the PIN digest shape. A missing OpenAI key
// is allowed: the server starts and every turn gets the degraded answer.
func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("TEMPERATURE must be in [0,1], got %v", c.Temperature)
	}
	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("TOP_K must be in [1,10], got %d", c.TopK)
	}
	if c.EmergencyPIN != "" {
		raw, err := hex.DecodeString(c.EmergencyPIN)
		if err != nil {
			return fmt.Errorf("EMERGENCY_PIN_HASH is not valid hex: %w", err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("EMERGENCY_PIN_HASH must be a SHA-256 digest (64 hex chars), got %d bytes", len(raw))
		}
	}
	return nil
}
