package server

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/commsutil"
)

const commsLogPrefix = "server:comms"

// subscribe binds the agent's request, task and manifest subjects. Replicas
// of one agent share a queue group so each message is answered once.
func (s *Server) subscribe(ctx context.Context) error {
	prefix := s.cfg.SubjectPrefix
	if prefix == "" {
		prefix = commsutil.DefaultSubjectPrefix
	}
	agentID := s.reg.AgentID()
	queue := s.cfg.COMMSName

	handlers := []struct {
		subject string
		handle  comms.MsgHandler
	}{
		{commsutil.BuildRequestSubject(prefix, agentID), s.onRequest(ctx)},
		{commsutil.BuildTaskSubject(prefix, agentID), s.onTask(ctx)},
		{commsutil.BuildManifestSubject(prefix, agentID), s.onManifest},
	}
	for _, h := range handlers {
		sub, err := s.nc.QueueSubscribe(h.subject, queue, h.handle)
		if err != nil {
			s.unsubscribe()
			return fmt.Errorf("%s - failed to subscribe to %s: %w", commsLogPrefix, h.subject, err)
		}
		s.subs = append(s.subs, sub)
		slog.Info(fmt.Sprintf("%s - Subscribed to %s", commsLogPrefix, h.subject))
	}
	return nil
}

func (s *Server) unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Debug(fmt.Sprintf("%s - unsubscribe %s: %v", commsLogPrefix, sub.Subject, err))
		}
	}
	s.subs = nil
}

// onRequest answers an A2A Request with a Response.
func (s *Server) onRequest(ctx context.Context) comms.MsgHandler {
	return func(msg *comms.Msg) {
		commsutil.Respond(msg, s.dispatch(ctx, msg.Data))
	}
}

// onTask answers a task payload with a task envelope.
func (s *Server) onTask(ctx context.Context) comms.MsgHandler {
	return func(msg *comms.Msg) {
		taskCtx, cancel := s.requestContext(ctx, 0)
		defer cancel()
		commsutil.Respond(msg, s.adapter.Run(taskCtx, string(msg.Data)))
	}
}

func (s *Server) onManifest(msg *comms.Msg) {
	commsutil.Respond(msg, s.reg.Manifest())
}
