package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
)

// NATS message headers describing an exported page.
const (
	HeaderRunID    = "Harvest-Run-Id"
	HeaderResource = "Harvest-Resource"
	HeaderPage     = "Harvest-Page"
)

// Publisher is the part of *nats.Conn used by NATSSink.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
	Flush() error
}

// NATSSink publishes every page as one message on a subject.
type NATSSink struct {
	pub     Publisher
	subject string
}

// NewNATSSink creates a sink publishing on subject, or on the default subject when empty.
func NewNATSSink(pub Publisher, subject string) *NATSSink {
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	return &NATSSink{pub: pub, subject: subject}
}

// ConnectNATS opens a connection for a NATSSink.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("harvest-export"),
		nats.Timeout(constants.ShortHTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return conn, nil
}

// Write implements Sink.
func (s *NATSSink) Write(ctx context.Context, page Page) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = page.Body
	msg.Header.Set(HeaderRunID, page.RunID)
	msg.Header.Set(HeaderResource, page.Resource)
	msg.Header.Set(HeaderPage, strconv.Itoa(page.Number))

	err = s.pub.PublishMsg(msg)
	if err != nil {
		return fmt.Errorf("publishing page %d to %s: %w", page.Number, s.subject, err)
	}

	return nil
}

// Close flushes pending messages. The connection stays open.
func (s *NATSSink) Close() error {
	err := s.pub.Flush()
	if err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}

	return nil
}
