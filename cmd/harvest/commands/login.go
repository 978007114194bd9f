package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a Harvest API key",
		Long: `Prompt for an API key, check it against the API and store it in the
configuration file. The key is taken from --api-key when given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := viper.GetString("api_key")

			if apiKey == "" {
				var err error

				apiKey, err = promptAPIKey(cmd)
				if err != nil {
					return err
				}
			}

			if apiKey == "" {
				return constants.ErrEmptyAPIKey
			}

			viper.Set("api_key", apiKey)

			if !skipVerify {
				err := verifyAPIKey(context.Background())
				if err != nil {
					return fmt.Errorf("API key rejected: %w", err)
				}
			}

			config, err := readConfigFile()
			if err != nil {
				return err
			}

			config.APIKey = apiKey

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in with key %s\n", harvest.MaskAPIKey(apiKey))

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the key without calling the API")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := readConfigFile()
			if err != nil {
				return err
			}

			config.APIKey = ""

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

// promptAPIKey reads the key without echo from a terminal, or as a line from piped input.
func promptAPIKey(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API key: ")

	fd := int(os.Stdin.Fd()) // #nosec G115
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}

		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// verifyAPIKey fetches one user, which every valid key can read.
func verifyAPIKey(ctx context.Context) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	users, err := client.Resolve("users")
	if err != nil {
		return err
	}

	_, err = users.Get(ctx, "", harvest.Params{"per_page": 1})

	return err
}
