package commands

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

type writeFunc func(ctx context.Context, resource harvest.Resource, data json.RawMessage) (json.RawMessage, error)

// NewPostCommand creates the post command.
func NewPostCommand() *cobra.Command {
	return createWriteCommand("post PATH", "Create an object", true,
		func(ctx context.Context, resource harvest.Resource, data json.RawMessage) (json.RawMessage, error) {
			return resource.Post(ctx, data, "")
		})
}

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	return createWriteCommand("patch PATH", "Update fields of an object", true,
		func(ctx context.Context, resource harvest.Resource, data json.RawMessage) (json.RawMessage, error) {
			return resource.Patch(ctx, data, "")
		})
}

// NewPutCommand creates the put command.
func NewPutCommand() *cobra.Command {
	return createWriteCommand("put PATH", "Replace an object", true,
		func(ctx context.Context, resource harvest.Resource, data json.RawMessage) (json.RawMessage, error) {
			return resource.Put(ctx, data, "")
		})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return createWriteCommand("delete PATH", "Delete an object", false,
		func(ctx context.Context, resource harvest.Resource, _ json.RawMessage) (json.RawMessage, error) {
			return resource.Delete(ctx, "")
		})
}

func createWriteCommand(use, short string, needsData bool, write writeFunc) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `. Writes are attributed to the user given by the global
--on-behalf-of flag or the on_behalf_of configuration value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload json.RawMessage

			if needsData {
				var err error

				payload, err = readData(data, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			resource, err := ResolvePath(client, args[0])
			if err != nil {
				return err
			}

			body, err := write(context.Background(), resource, payload)
			if err != nil {
				return err
			}

			return writeBody(cmd.OutOrStdout(), body)
		},
	}

	if needsData {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body, @file or @- for stdin")
	}

	return cmd
}
