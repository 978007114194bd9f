package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		params []string
		all    bool
		last   bool
	)

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Fetch a resource",
		Long: `Fetch a list or a single object. PATH is resource[/id[/related[/id]]], e.g.

  harvest get candidates --param per_page=100
  harvest get candidates/42/activity_feed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && last {
				return constants.ErrConflictingFlags
			}

			query, err := harvest.ParseParams(params)
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			resource, err := ResolvePath(client, args[0])
			if err != nil {
				return err
			}

			resource.WithParams(query)

			ctx := context.Background()

			var body json.RawMessage

			switch {
			case all:
				body, err = fetchAllPages(ctx, resource)
			case last:
				body, err = fetchLastPage(ctx, resource)
			default:
				body, err = resource.Get(ctx, "", nil)
			}

			if err != nil {
				return err
			}

			return writeBody(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "follow next links and combine every page")
	cmd.Flags().BoolVar(&last, "last", false, "fetch the last page")

	return cmd
}

// fetchAllPages concatenates list pages into one array. Object pages are collected as elements.
func fetchAllPages(ctx context.Context, resource harvest.Resource) (json.RawMessage, error) {
	var records []json.RawMessage

	for page, err := range resource.Pages().All(ctx) {
		if err != nil {
			return nil, err
		}

		var items []json.RawMessage

		if json.Unmarshal(page, &items) == nil {
			records = append(records, items...)
		} else {
			records = append(records, page)
		}
	}

	if records == nil {
		records = []json.RawMessage{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to combine pages: %w", err)
	}

	return data, nil
}

// fetchLastPage reads the first page for its cursors, then the last one when there is more than one page.
func fetchLastPage(ctx context.Context, resource harvest.Resource) (json.RawMessage, error) {
	body, err := resource.Get(ctx, "", nil)
	if err != nil {
		return nil, err
	}

	if resource.LastURL() == "" {
		return body, nil
	}

	return resource.GetLast(ctx)
}
