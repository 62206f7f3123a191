package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/ldprobe/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the ldprobe configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a default configuration file at ~/.ldprobe/config.yaml

Example:
  ldprobe config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		configPath, _ := cli.GetConfigPath()
		fmt.Printf("Configuration file created at: %s\n", configPath)
		fmt.Println("\nPlease edit the file to set your SDK keys.")
		fmt.Println("Example:")
		fmt.Println("  vi ~/.ldprobe/config.yaml")

		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long: `Display the current configuration.

Example:
  ldprobe config list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Printf("Default Project: %s\n\n", cfg.DefaultProject)
		fmt.Println("Projects:")
		for name, projectCfg := range cfg.Projects {
			fmt.Printf("  %s:\n", name)
			// Mask SDK key for security
			fmt.Printf("    sdk_key: %s\n", cli.MaskSDKKey(projectCfg.SDKKey))
		}

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <project.key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Examples:
  ldprobe config set my-proj.sdk_key sdk-xxx
  ldprobe config set default_project my-proj`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if args[0] == "default_project" {
			cfg.DefaultProject = args[1]
			if err := cli.SaveConfig(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Println("Successfully set default_project")
			return nil
		}

		parts := strings.Split(args[0], ".")
		if len(parts) != 2 {
			return fmt.Errorf("invalid key format, expected 'project.key' (e.g., 'my-proj.sdk_key')")
		}

		projectName := parts[0]
		key := parts[1]
		value := args[1]

		// Create project if it doesn't exist
		if cfg.Projects == nil {
			cfg.Projects = make(map[string]cli.ProjectConfig)
		}

		projectCfg := cfg.Projects[projectName]

		switch key {
		case "sdk_key":
			projectCfg.SDKKey = value
		default:
			return fmt.Errorf("unknown key '%s', valid keys: sdk_key", key)
		}

		cfg.Projects[projectName] = projectCfg

		if err := cli.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Successfully set %s.%s\n", projectName, key)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
}
