package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"feedjournal/pkg/auth"
	"feedjournal/pkg/config"
	"feedjournal/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage feedjournal configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (FEEDJOURNAL_*, also read from .env)
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the defaults",
	Long: `Create a configuration file holding every option at its default value.

The file is written to ./.feedjournal.yaml unless --config names another path.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging all sources. The token is masked.`,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration and check it.

This command checks:
  - YAML syntax
  - Required fields and value ranges
  - That the watermark and log directories can be created
  - That the note command can be found`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".feedjournal.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Check watermark.path points into your Day One journal")
	fmt.Println("2. Run 'feedjournal config validate'")
	fmt.Println("3. Import with 'feedjournal <handle>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	display := *cfg
	if display.Feed.Token != "" {
		display.Feed.Token = auth.MaskToken(display.Feed.Token)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = "(none found)"
	}
	fmt.Println()
	ui.PrintInfo("Configuration file", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		ui.PrintInfo("Validating configuration", path)
	} else {
		ui.PrintInfo("Validating configuration", "defaults and environment")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var problems []string
	if err := os.MkdirAll(filepath.Dir(cfg.Watermark.Path), 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create watermark directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	var warnings []string
	if cfg.Exporter.Backend == config.BackendDayOne {
		if _, err := exec.LookPath(cfg.Exporter.Command); err != nil {
			warnings = append(warnings, fmt.Sprintf("Note command %q not found in PATH", cfg.Exporter.Command))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration is invalid")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Feed API: %s%s\n", cfg.Feed.BaseURL, cfg.Feed.TimelinePath)
	fmt.Printf("  Watermark: %s\n", cfg.Watermark.Path)
	fmt.Printf("  Exporter: %s\n", cfg.Exporter.Backend)
	fmt.Printf("  Max pages: %d\n", cfg.Feed.MaxPages)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
