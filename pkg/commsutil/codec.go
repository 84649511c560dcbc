package commsutil

import (
	"encoding/json"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"
)

const codecLogPrefix = "commsutil:codec"

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Respond encodes v and replies to msg. Failures are logged; a message
// without a reply subject is ignored.
func Respond(msg *comms.Msg, v interface{}) {
	if msg.Reply == "" {
		slog.Debug(fmt.Sprintf("%s - no reply subject on %s, dropping response", codecLogPrefix, msg.Subject))
		return
	}
	data, err := EncodePayload(v)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response on %s: %v", codecLogPrefix, msg.Subject, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond on %s: %v", codecLogPrefix, msg.Subject, err))
	}
}
