package models

type LLMConfiguration struct {
	Name        string `json:"name" yaml:"name"`
	Provider    string `json:"provider" yaml:"provider"`
	Model       string `json:"model" yaml:"model"`
	BaseURL     string `json:"base_url" yaml:"base_url"`
	APIKeyEnv   string `json:"api_key_env" yaml:"api_key_env"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
