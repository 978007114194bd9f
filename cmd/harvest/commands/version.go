package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the Harvest CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
			}

			info := VersionInfo{Version: version, Commit: commit, Built: date}

			return writeValue(cmd.OutOrStdout(), info, []string{"Property", "Value"}, [][]string{
				{"Version", version},
				{"Commit", commit},
				{"Built", date},
			})
		},
	}
}

// NewVersionsCommand lists the API versions of the registry.
func NewVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List API versions",
		Long:  "List the API versions declared in the endpoint registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(false)
			if err != nil {
				return err
			}

			versions := client.Versions()
			rows := make([][]string, 0, len(versions))

			for _, version := range versions {
				active := ""
				if version == client.Version() {
					active = "*"
				}

				rows = append(rows, []string{version, active})
			}

			return writeValue(cmd.OutOrStdout(), versions, []string{"Version", "Active"}, rows)
		},
	}
}

// NewResourcesCommand lists resources, or the related resources of one.
func NewResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources [NAME]",
		Short: "List API resources",
		Long:  "List the resources of the active API version, or the related resources of NAME",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(false)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				resource, err := client.Resolve(args[0])
				if err != nil {
					return err
				}

				related := resource.RelatedNames()
				rows := make([][]string, 0, len(related))

				for _, name := range related {
					rows = append(rows, []string{name, fmt.Sprintf("%s/{id}/%s", args[0], name)})
				}

				return writeValue(cmd.OutOrStdout(), related, []string{"Related", "Path"}, rows)
			}

			names := client.Resources()
			rows := make([][]string, 0, len(names))

			for _, name := range names {
				rows = append(rows, []string{name, strings.Join(client.RelatedResources(name), ", ")})
			}

			return writeValue(cmd.OutOrStdout(), names, []string{"Resource", "Related"}, rows)
		},
	}
}
