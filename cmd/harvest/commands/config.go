package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/internal/logging"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
	"github.com/fivetwenty-io/harvest-client/pkg/harvestclient"
)

// Config represents the CLI configuration.
type Config struct {
	APIKey     string `json:"api_key,omitempty"      yaml:"api_key,omitempty"`
	APIVersion string `json:"api_version,omitempty"  yaml:"api_version,omitempty"`
	BaseURL    string `json:"base_url,omitempty"     yaml:"base_url,omitempty"`
	OnBehalfOf string `json:"on_behalf_of,omitempty" yaml:"on_behalf_of,omitempty"`
	Registry   string `json:"registry,omitempty"     yaml:"registry,omitempty"`
	Output     string `json:"output,omitempty"       yaml:"output,omitempty"`
}

// configKeys are the keys accepted by "config set" and "config unset".
var configKeys = []string{"api_key", "api_version", "base_url", "on_behalf_of", "registry", "output"}

// LoadEnvFiles reads .env and then .env.local from the working directory.
// Values from .env.local win; variables already in the environment win over .env.
func LoadEnvFiles() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	if _, err := os.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Display the configuration after flags, environment and config file are combined",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.APIKey = maskedKey(config.APIKey)

			switch viper.GetString("output") {
			case constants.FormatYAML:
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(config)
			case constants.FormatTable:
				return displayConfigTable(cmd.OutOrStdout(), config)
			default:
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  fmt.Sprintf("Set a configuration value. Valid keys: %v", configKeys),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := readConfigFile()
			if err != nil {
				return err
			}

			err = setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := readConfigFile()
			if err != nil {
				return err
			}

			err = setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api_key":
		config.APIKey = value
	case "api_version":
		config.APIVersion = value
	case "base_url":
		config.BaseURL = value
	case "on_behalf_of":
		config.OnBehalfOf = value
	case "registry":
		config.Registry = value
	case "output":
		if value != "" && !slices.Contains([]string{constants.FormatJSON, constants.FormatYAML, constants.FormatTable}, value) {
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, value)
		}

		config.Output = value
	default:
		return fmt.Errorf("%w: %s (valid keys: %v)", constants.ErrUnknownConfigKey, key, configKeys)
	}

	return nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append("API Key", orNone(config.APIKey))
	_ = table.Append("API Version", orNone(config.APIVersion))
	_ = table.Append("Base URL", orNone(config.BaseURL))
	_ = table.Append("On-Behalf-Of", orNone(config.OnBehalfOf))
	_ = table.Append("Registry", orNone(config.Registry))
	_ = table.Append("Output", orNone(config.Output))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func orNone(value string) string {
	if value == "" {
		return constants.None
	}

	return value
}

func maskedKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}

	return harvest.MaskAPIKey(apiKey)
}

// loadConfig returns the effective configuration: flags, then environment, then the config file.
func loadConfig() *Config {
	return &Config{
		APIKey:     viper.GetString("api_key"),
		APIVersion: viper.GetString("api_version"),
		BaseURL:    viper.GetString("base_url"),
		OnBehalfOf: viper.GetString("on_behalf_of"),
		Registry:   viper.GetString("registry"),
		Output:     viper.GetString("output"),
	}
}

// configFilePath is the file used by viper, or ~/.harvest/config.yml.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".harvest", "config.yml"), nil
}

// readConfigFile returns only what is stored on disk, so flags and
// environment values are never persisted by accident.
func readConfigFile() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	// configFile is either the --config flag or derived from the home directory
	// #nosec G304
	data, err := os.ReadFile(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	return config, nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func loadRegistryFile(path string) (harvest.Registry, error) {
	// #nosec G304
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	defer func() { _ = file.Close() }()

	return harvest.LoadRegistry(file)
}

// CreateClient builds a client from the effective configuration. An API key is required.
func CreateClient() (harvest.Client, error) {
	return newClient(true)
}

func newClient(requireKey bool) (harvest.Client, error) {
	config := loadConfig()

	if requireKey && config.APIKey == "" {
		return nil, constants.ErrNoAPIKey
	}

	verbose := viper.GetBool("verbose")

	clientConfig := &harvest.Config{
		APIKey:     config.APIKey,
		Version:    config.APIVersion,
		BaseURL:    config.BaseURL,
		OnBehalfOf: config.OnBehalfOf,
		Debug:      verbose,
		Logger:     logging.NewConsole(verbose),
	}

	if config.Registry != "" {
		registry, err := loadRegistryFile(config.Registry)
		if err != nil {
			return nil, err
		}

		clientConfig.Registry = registry
	}

	return harvestclient.New(clientConfig)
}
