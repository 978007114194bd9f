package export

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// Stats summarizes an export run.
type Stats struct {
	RunID string
	Pages int
	Bytes int
}

// Exporter copies the pages of a resource into a sink.
type Exporter struct {
	// RunID tags every page of the run. A random UUID is used when empty.
	RunID string
	// MaxPages stops the run after that many pages; 0 means no limit.
	MaxPages int
	// Concurrency bounds RunAll; 0 or less runs every resource at once.
	Concurrency int
	Logger      harvest.Logger
}

// SinkFactory opens the sink of one resource in RunAll.
type SinkFactory func(resource string) (Sink, error)

// Run iterates resource from its current configuration and writes every page to sink.
// It stops at the first error and always closes the sink.
func (e *Exporter) Run(ctx context.Context, resource harvest.Resource, sink Sink) (Stats, error) {
	return e.run(ctx, e.runID(), resource, sink)
}

// RunAll exports several resources concurrently under one run id. Every handle
// must be distinct. The first failure cancels the remaining exports.
func (e *Exporter) RunAll(ctx context.Context, resources []harvest.Resource, open SinkFactory) ([]Stats, error) {
	runID := e.runID()
	all := make([]Stats, len(resources))

	group, groupCtx := errgroup.WithContext(ctx)
	if e.Concurrency > 0 {
		group.SetLimit(e.Concurrency)
	}

	for i, resource := range resources {
		group.Go(func() error {
			sink, err := open(resource.Name())
			if err != nil {
				return fmt.Errorf("opening sink for %s: %w", resource.Name(), err)
			}

			all[i], err = e.run(groupCtx, runID, resource, sink)

			return err
		})
	}

	err := group.Wait()

	return all, err
}

func (e *Exporter) runID() string {
	if e.RunID != "" {
		return e.RunID
	}

	return uuid.NewString()
}

func (e *Exporter) run(ctx context.Context, runID string, resource harvest.Resource, sink Sink) (stats Stats, err error) {
	stats.RunID = runID

	defer func() {
		closeErr := sink.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("closing sink: %w", closeErr)
		}
	}()

	for body, iterErr := range resource.Pages().All(ctx) {
		if iterErr != nil {
			return stats, fmt.Errorf("exporting %s: %w", resource.Name(), iterErr)
		}

		page := Page{
			RunID:    stats.RunID,
			Resource: resource.Name(),
			Number:   stats.Pages + 1,
			Body:     body,
		}

		err = sink.Write(ctx, page)
		if err != nil {
			return stats, err
		}

		stats.Pages++
		stats.Bytes += len(body)

		e.log("Exported page", map[string]interface{}{
			"run_id":   stats.RunID,
			"resource": page.Resource,
			"page":     page.Number,
			"bytes":    len(body),
		})

		if e.MaxPages > 0 && stats.Pages >= e.MaxPages {
			break
		}
	}

	e.log("Export finished", map[string]interface{}{
		"run_id": stats.RunID,
		"pages":  stats.Pages,
		"bytes":  stats.Bytes,
	})

	return stats, nil
}

func (e *Exporter) log(msg string, fields map[string]interface{}) {
	if e.Logger != nil {
		e.Logger.Debug(msg, fields)
	}
}

// SyncWriter serializes writes so several JSON-lines sinks can share one stream.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
