// Package config loads the deployment configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

const (
	keyKendraIndex    = "kendra_index"
	keyKendraRegion   = "kendra_region"
	keyModelProvider  = "model_provider"
	keyOpenAIAPIKey   = "openai_api_key"
	keyOpenAIModel    = "openai_model"
	keyOpenAIBaseURL  = "openai_base_url"
	keyBedrockModelID = "bedrock_model_id"
	keyBedrockRegion  = "bedrock_region"
	keyTemperature    = "model_temperature"
	keyMaxTokens      = "model_max_tokens"
	keyMaxIterations  = "agent_max_iterations"
	keyMemoryWindow   = "memory_window"
	keyLogLevel       = "log_level"
	keyLogFormat      = "log_format"
)

type Config struct {
	KendraIndexID string
	KendraRegion  string

	ModelProvider  string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	BedrockModelID string
	BedrockRegion  string
	Temperature    float32
	MaxTokens      int

	MaxIterations int
	MemoryWindow  int

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyModelProvider, ProviderOpenAI)
	v.SetDefault(keyOpenAIModel, "gpt-3.5-turbo")
	v.SetDefault(keyOpenAIBaseURL, "https://api.openai.com/v1")
	v.SetDefault(keyBedrockModelID, "anthropic.claude-v2")
	v.SetDefault(keyBedrockRegion, "us-east-1")
	v.SetDefault(keyTemperature, 0.0)
	v.SetDefault(keyMaxTokens, 512)
	v.SetDefault(keyMaxIterations, 15)
	v.SetDefault(keyMemoryWindow, 2)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
}

// LoadDotEnv loads variables from the given .env files, skipping files that
// do not exist. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		log.Debugf("loaded environment from %s", path)
	}
	return nil
}

// Load reads the configuration from environment variables named after the
// upper-cased keys, e.g. KENDRA_INDEX.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	cfg := &Config{
		KendraIndexID:  v.GetString(keyKendraIndex),
		KendraRegion:   v.GetString(keyKendraRegion),
		ModelProvider:  v.GetString(keyModelProvider),
		OpenAIAPIKey:   v.GetString(keyOpenAIAPIKey),
		OpenAIModel:    v.GetString(keyOpenAIModel),
		OpenAIBaseURL:  v.GetString(keyOpenAIBaseURL),
		BedrockModelID: v.GetString(keyBedrockModelID),
		BedrockRegion:  v.GetString(keyBedrockRegion),
		Temperature:    float32(v.GetFloat64(keyTemperature)),
		MaxTokens:      v.GetInt(keyMaxTokens),
		MaxIterations:  v.GetInt(keyMaxIterations),
		MemoryWindow:   v.GetInt(keyMemoryWindow),
		LogLevel:       v.GetString(keyLogLevel),
		LogFormat:      v.GetString(keyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var err *multierror.Error
	if c.KendraIndexID == "" {
		err = multierror.Append(err, errors.New("KENDRA_INDEX is required"))
	}
	if c.KendraRegion == "" {
		err = multierror.Append(err, errors.New("KENDRA_REGION is required"))
	}
	switch c.ModelProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			err = multierror.Append(err, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderBedrock:
		if c.BedrockModelID == "" {
			err = multierror.Append(err, errors.New("BEDROCK_MODEL_ID is required for the bedrock provider"))
		}
	default:
		err = multierror.Append(err, fmt.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider))
	}
	if c.MaxIterations < 1 {
		err = multierror.Append(err, fmt.Errorf("AGENT_MAX_ITERATIONS must be positive, got %d", c.MaxIterations))
	}
	if c.MemoryWindow < 1 {
		err = multierror.Append(err, fmt.Errorf("MEMORY_WINDOW must be at least 1, got %d", c.MemoryWindow))
	}
	if _, parseErr := log.ParseLevel(c.LogLevel); parseErr != nil {
		err = multierror.Append(err, fmt.Errorf("LOG_LEVEL: %w", parseErr))
	}
	return err.ErrorOrNil()
}

// SetupLogging applies the configured level and format to the standard
// logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
