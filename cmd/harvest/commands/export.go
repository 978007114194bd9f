package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/internal/export"
	"github.com/fivetwenty-io/harvest-client/internal/logging"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

type exportOptions struct {
	sink     string
	file     string
	natsURL  string
	subject  string
	bucket   string
	prefix   string
	region   string
	endpoint string
	maxPages    int
	concurrency int
	params      []string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export PATH...",
		Short: "Export every page of a resource",
		Long: `Follow the pages of one or more lists concurrently and write each page to a sink:

  jsonl  one JSON page per line to --file or stdout
  nats   one message per page on --subject
  s3     one object per page below s3://BUCKET/PREFIX/RESOURCE/RUN-ID/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := harvest.ParseParams(opts.params)
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			resources := make([]harvest.Resource, 0, len(args))

			for _, path := range args {
				resource, err := ResolvePath(client, path)
				if err != nil {
					return err
				}

				resources = append(resources, resource.WithParams(query))
			}

			ctx := context.Background()

			open, cleanup, err := openSinks(ctx, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			defer cleanup()

			exporter := &export.Exporter{
				MaxPages:    opts.maxPages,
				Concurrency: opts.concurrency,
				Logger:      logging.NewConsole(viper.GetBool("verbose")),
			}

			all, err := exporter.RunAll(ctx, resources, open)

			for i, stats := range all {
				if stats.RunID == "" {
					continue
				}

				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d pages (%d bytes) of %s, run %s\n",
					stats.Pages, stats.Bytes, resources[i].Name(), stats.RunID)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&opts.sink, "sink", constants.SinkJSONLines, "sink type (jsonl, nats, s3)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "output file for the jsonl sink (default stdout)")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "nats://127.0.0.1:4222", "NATS server URL")
	cmd.Flags().StringVar(&opts.subject, "subject", constants.DefaultNATSSubject, "NATS subject")
	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(&opts.prefix, "prefix", constants.DefaultS3Prefix, "S3 key prefix")
	cmd.Flags().StringVar(&opts.region, "region", "", "AWS region (default from the AWS environment)")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "stop each resource after this many pages (0 for all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "resources exported at the same time")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "query parameter KEY=VALUE (repeatable)")

	return cmd
}

// openSinks returns a factory for the selected sink type and a cleanup func for
// the connection or file shared by every resource.
func openSinks(ctx context.Context, opts *exportOptions, stdout io.Writer) (export.SinkFactory, func(), error) {
	switch opts.sink {
	case constants.SinkJSONLines:
		var (
			out     io.Writer = stdout
			cleanup           = func() {}
		)

		if opts.file != "" {
			file, err := os.Create(opts.file)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create %s: %w", opts.file, err)
			}

			out = file
			cleanup = func() { _ = file.Close() }
		}

		shared := export.NewSyncWriter(out)

		return func(string) (export.Sink, error) { return export.NewJSONLinesSink(shared), nil }, cleanup, nil
	case constants.SinkNATS:
		conn, err := export.ConnectNATS(opts.natsURL)
		if err != nil {
			return nil, nil, err
		}

		return func(string) (export.Sink, error) { return export.NewNATSSink(conn, opts.subject), nil }, conn.Close, nil
	case constants.SinkS3:
		if opts.bucket == "" {
			return nil, nil, constants.ErrBucketRequired
		}

		client, err := export.NewS3Client(ctx, opts.region, opts.endpoint)
		if err != nil {
			return nil, nil, err
		}

		return func(string) (export.Sink, error) { return export.NewS3Sink(client, opts.bucket, opts.prefix), nil }, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedSink, opts.sink)
	}
}
