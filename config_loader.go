package pilotserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pilot_server/llm"
)

// fileConfig is the top-level structure of model.yaml.
type fileConfig struct {
	Model  llm.Config   `yaml:"model"`
	Server serverConfig `yaml:"server"`
}

type serverConfig struct {
	// InferTimeoutSeconds bounds one model call. 0 disables the timeout.
	InferTimeoutSeconds int    `yaml:"infer_timeout_seconds"`
	Locale              string `yaml:"locale"`
}

// defaultFileConfig matches a local vLLM deployment.
func defaultFileConfig() *fileConfig {
	temp := 0.1
	return &fileConfig{
		Model: llm.Config{
			BaseURL:     "http://localhost:8000/v1",
			ModelName:   "autoglm-phone-9b",
			Temperature: &temp,
		},
	}
}

// loadConfigFile reads model.yaml on top of the defaults.
func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Model.BaseURL == "" {
		return nil, fmt.Errorf("config: model.base_url must not be empty")
	}
	if cfg.Model.ModelName == "" {
		return nil, fmt.Errorf("config: model.model_name must not be empty")
	}
	return cfg, nil
}
