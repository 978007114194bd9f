package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/harvest-client/cmd/harvest/commands"
	"github.com/fivetwenty-io/harvest-client/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest API CLI",
	Long: `A command-line interface for the Harvest (Greenhouse) API.

Any resource of the endpoint registry can be listed, fetched, created,
updated and exported page by page to a file, a NATS subject or S3.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.harvest/config.yml)")
	rootCmd.PersistentFlags().StringP("api-key", "k", "", "Harvest API key")
	rootCmd.PersistentFlags().String("api-version", "", "API version (default v1)")
	rootCmd.PersistentFlags().String("base-url", "", "override the API base URL")
	rootCmd.PersistentFlags().String("registry", "", "YAML or JSON endpoint registry file")
	rootCmd.PersistentFlags().String("on-behalf-of", "", "default user id for write operations")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatJSON, "output format (json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every request")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("api_version", rootCmd.PersistentFlags().Lookup("api-version"))
	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("registry", rootCmd.PersistentFlags().Lookup("registry"))
	_ = viper.BindPFlag("on_behalf_of", rootCmd.PersistentFlags().Lookup("on-behalf-of"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewVersionsCommand())
	rootCmd.AddCommand(commands.NewResourcesCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewPostCommand())
	rootCmd.AddCommand(commands.NewPatchCommand())
	rootCmd.AddCommand(commands.NewPutCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
}

func initConfig() {
	commands.LoadEnvFiles()

	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".harvest")

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// HARVEST_API_KEY, HARVEST_BASE_URL, ...
	viper.SetEnvPrefix("HARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
