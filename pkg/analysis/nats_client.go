package analysis

import (
	"context"
	"fmt"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/commsutil"
)

const natsLogPrefix = "analysis:nats_client"

// NATSClient sends analysis requests to a backend listening on a COMMS subject.
type NATSClient struct {
	nc      *comms.Conn
	subject string
	timeout time.Duration
}

// NewNATSClient creates a NATSClient. timeout applies when ctx has no deadline.
func NewNATSClient(nc *comms.Conn, subject string, timeout time.Duration) *NATSClient {
	if subject == "" {
		subject = commsutil.DefaultAnalyzerSubject
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &NATSClient{nc: nc, subject: subject, timeout: timeout}
}

// Analyze sends query as a request and decodes the reply.
func (c *NATSClient) Analyze(ctx context.Context, query string) (*Analysis, error) {
	data, err := commsutil.EncodePayload(Request{Query: query})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode request: %w", natsLogPrefix, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	msg, err := c.nc.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		return nil, fmt.Errorf("%s - request on %s failed: %w", natsLogPrefix, c.subject, err)
	}
	return DecodeResult(msg.Data)
}
