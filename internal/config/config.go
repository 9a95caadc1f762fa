package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine binding kinds understood by the server.
const (
	EngineKindOpenAI   = "openai"
	EngineKindLlamaCpp = "llamacpp"
)

// Config represents the server configuration
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Model    ModelConfig  `yaml:"model"`
	Engine   EngineConfig `yaml:"engine"`
	LogLevel string       `yaml:"log_level,omitempty"`
}

// ServerConfig contains the HTTP listener settings
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key,omitempty"`
}

// ModelConfig identifies the served model and its prompt format
type ModelConfig struct {
	Name         string `yaml:"name"`
	PromptFormat string `yaml:"prompt_format,omitempty"`
}

// EngineConfig describes the generation backend binding
type EngineConfig struct {
	Kind          string                 `yaml:"kind"`
	APIBase       string                 `yaml:"api_base"`
	DefaultParams map[string]interface{} `yaml:"default_params,omitempty"`
}

// LoadConfig loads configuration from a YAML file and applies defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Engine.Kind == "" {
		cfg.Engine.Kind = EngineKindOpenAI
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine.Kind {
	case EngineKindOpenAI, EngineKindLlamaCpp:
	default:
		return fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}
