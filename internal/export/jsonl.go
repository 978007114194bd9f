package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLinesSink writes every page as one compact JSON document per line.
type JSONLinesSink struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewJSONLinesSink creates a sink writing to w. Closing the sink does not close w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w}
}

// Write implements Sink.
func (s *JSONLinesSink) Write(_ context.Context, page Page) error {
	s.buf.Reset()

	err := json.Compact(&s.buf, page.Body)
	if err != nil {
		return fmt.Errorf("page %d of %s is not valid JSON: %w", page.Number, page.Resource, err)
	}

	s.buf.WriteByte('\n')

	_, err = s.w.Write(s.buf.Bytes())
	if err != nil {
		return fmt.Errorf("writing page %d: %w", page.Number, err)
	}

	return nil
}

// Close implements Sink.
func (s *JSONLinesSink) Close() error {
	return nil
}
