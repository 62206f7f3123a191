package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration
type Config struct {
	DefaultProject string                   `yaml:"default_project"`
	Projects       map[string]ProjectConfig `yaml:"projects"`
}

// ProjectConfig represents credentials for a single LaunchDarkly project
type ProjectConfig struct {
	SDKKey string `yaml:"sdk_key"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ldprobe", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				Projects: make(map[string]ProjectConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveCredentials returns the effective project name and SDK key.
// Priority: command flags > environment variables > config file.
// SDK keys are environment-scoped secrets, so the config file is the only
// place they are stored; they never appear in log output.
func ResolveCredentials(projectFlag, sdkKeyFlag string) (string, string, error) {
	// First check command line flags
	if projectFlag != "" && sdkKeyFlag != "" {
		return projectFlag, sdkKeyFlag, nil
	}

	// Then check environment variables
	envProject := os.Getenv("LDPROBE_PROJECT")
	envSDKKey := os.Getenv("LDPROBE_SDK_KEY")

	project := projectFlag
	if project == "" {
		project = envProject
	}
	sdkKey := sdkKeyFlag
	if sdkKey == "" {
		sdkKey = envSDKKey
	}
	if project != "" && sdkKey != "" {
		return project, sdkKey, nil
	}

	// Finally check config file
	cfg, err := LoadConfig()
	if err != nil {
		return "", "", err
	}

	// Use default project if not specified
	if project == "" {
		project = cfg.DefaultProject
	}
	if project == "" {
		return "", "", fmt.Errorf("--project is required (no default_project in config)")
	}

	if sdkKey == "" {
		projectCfg, ok := cfg.Projects[project]
		if !ok {
			return "", "", fmt.Errorf("project '%s' not found in config", project)
		}
		sdkKey = projectCfg.SDKKey
	}

	if sdkKey == "" {
		return "", "", fmt.Errorf("--sdk-key is required (no sdk_key configured for project '%s')", project)
	}

	return project, sdkKey, nil
}

// MaskSDKKey renders an SDK key safe for display, keeping only a short prefix
func MaskSDKKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "***"
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultProject: "demo",
		Projects: map[string]ProjectConfig{
			"demo": {
				SDKKey: "sdk-00000000-0000-0000-0000-000000000000",
			},
		},
	}

	return SaveConfig(cfg)
}
