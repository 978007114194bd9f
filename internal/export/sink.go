// Package export streams the pages of a resource into a sink: a JSON-lines
// writer, a NATS subject or an S3 bucket.
package export

import (
	"context"
	"encoding/json"
)

// Page is one response body produced while iterating a resource.
type Page struct {
	RunID    string
	Resource string
	Number   int
	Body     json.RawMessage
}

// Sink receives exported pages in order.
type Sink interface {
	Write(ctx context.Context, page Page) error
	Close() error
}
