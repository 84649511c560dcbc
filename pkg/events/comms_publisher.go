package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// SubjectPrefix overrides the subject root (SUBJECT_PREFIX).
	SubjectPrefix string
}

// CommsPublisher publishes capability change events to COMMS subjects.
type CommsPublisher struct {
	nc     *comms.Conn
	prefix string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	prefix := commsutil.DefaultSubjectPrefix
	if opts != nil && opts.SubjectPrefix != "" {
		prefix = opts.SubjectPrefix
	}
	return &CommsPublisher{nc: nc, prefix: prefix}
}

// PublishChanged publishes a CapabilityChangedEvent to both the per-capability
// and the agent-wide change subjects.
func (p *CommsPublisher) PublishChanged(_ context.Context, event *CapabilityChangedEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granularSubject := commsutil.BuildCapabilityChangeSubject(p.prefix, event.AgentID, event.CapabilityID)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	agentSubject := commsutil.BuildChangeSubject(p.prefix, event.AgentID)
	if err := p.nc.Publish(agentSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, agentSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %s event for %s/%s", commsPublisherLogPrefix, event.Action, event.AgentID, event.CapabilityID))
	return nil
}
