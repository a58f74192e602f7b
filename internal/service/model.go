package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"

	"feedlens/internal/models"
)

const (
	OpenAIProvider   = "openai"
	DeepSeekProvider = "deepseek"
	ArkProvider      = "ark"
)

var (
	ErrConfigurationNotFound = errors.New("llm configuration not found")
	ErrConfigurationDisabled = errors.New("llm configuration is disabled")
)

type configurationFile struct {
	Default        string                     `yaml:"default"`
	Configurations []*models.LLMConfiguration `yaml:"configurations"`
}

var (
	configMu                sync.RWMutex
	availableConfigurations map[string]*models.LLMConfiguration
	defaultConfiguration    string
)

func init() {
	availableConfigurations, defaultConfiguration = builtinConfigurations()
}

func builtinConfigurations() (map[string]*models.LLMConfiguration, string) {
	configurations := []*models.LLMConfiguration{
		{
			Name:        "deepseek-chat",
			Provider:    DeepSeekProvider,
			Model:       "deepseek-chat",
			BaseURL:     "https://api.deepseek.com",
			APIKeyEnv:   "DEEPSEEK_API_KEY",
			Enabled:     true,
			Description: "Default filter/report generation backend",
		},
		{
			Name:        "gpt-4o",
			Provider:    OpenAIProvider,
			Model:       "gpt-4o",
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Enabled:     true,
			Description: "OpenAI backend",
		},
		{
			Name:        "doubao-seed",
			Provider:    ArkProvider,
			Model:       "doubao-seed-1-8-251215",
			BaseURL:     "https://ark.cn-beijing.volces.com/api/v3",
			APIKeyEnv:   "ARK_API_KEY",
			Enabled:     false,
			Description: "ByteDance Ark backend, disabled until an API key is provisioned",
		},
	}

	byName := make(map[string]*models.LLMConfiguration, len(configurations))
	for _, configuration := range configurations {
		byName[configuration.Name] = configuration
	}

	return byName, "deepseek-chat"
}

// LoadConfigurationsFromFile replaces the built-in configuration set with the
// contents of a YAML file.
func LoadConfigurationsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read llm configuration file: %w", err)
	}

	var file configurationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse llm configuration file: %w", err)
	}

	if len(file.Configurations) == 0 {
		return fmt.Errorf("llm configuration file %s defines no configurations", path)
	}

	byName := make(map[string]*models.LLMConfiguration, len(file.Configurations))
	for _, configuration := range file.Configurations {
		configuration.Name = strings.TrimSpace(configuration.Name)
		if configuration.Name == "" {
			return fmt.Errorf("llm configuration with empty name in %s", path)
		}
		if _, exists := byName[configuration.Name]; exists {
			return fmt.Errorf("duplicate llm configuration name: %s", configuration.Name)
		}
		byName[configuration.Name] = configuration
	}

	defaultName := strings.TrimSpace(file.Default)
	if defaultName == "" {
		defaultName = file.Configurations[0].Name
	}
	if _, exists := byName[defaultName]; !exists {
		return fmt.Errorf("default llm configuration not defined: %s", defaultName)
	}

	configMu.Lock()
	availableConfigurations = byName
	defaultConfiguration = defaultName
	configMu.Unlock()

	return nil
}

func ListConfigurations() []*models.LLMConfiguration {
	configMu.RLock()
	defer configMu.RUnlock()

	configurations := make([]*models.LLMConfiguration, 0, len(availableConfigurations))
	for _, configuration := range availableConfigurations {
		configurations = append(configurations, configuration)
	}

	sort.Slice(configurations, func(a, b int) bool {
		return configurations[a].Name < configurations[b].Name
	})

	return configurations
}

func DefaultConfiguration() string {
	configMu.RLock()
	defer configMu.RUnlock()
	return defaultConfiguration
}

func lookupConfiguration(name string) (*models.LLMConfiguration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultConfiguration()
	}

	configMu.RLock()
	configuration, exists := availableConfigurations[name]
	configMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationNotFound, name)
	}
	if !configuration.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationDisabled, name)
	}

	return configuration, nil
}

func newChatModel(ctx context.Context, configuration *models.LLMConfiguration) (model.BaseChatModel, error) {
	apiKey := os.Getenv(configuration.APIKeyEnv)

	switch configuration.Provider {
	case DeepSeekProvider:
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  apiKey,
			BaseURL: configuration.BaseURL,
			Model:   configuration.Model,
		})
	case ArkProvider:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:  apiKey,
			BaseURL: configuration.BaseURL,
			Model:   configuration.Model,
		})
	case OpenAIProvider:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  apiKey,
			BaseURL: configuration.BaseURL,
			Model:   configuration.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", configuration.Provider)
	}
}
