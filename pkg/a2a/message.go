package a2a

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// naiveISOLayout accepts naive ISO-8601 timestamps (no zone), read as UTC.
const naiveISOLayout = "2006-01-02T15:04:05.999999"

// Message carries the identity and correlation fields shared by every envelope.
// Empty agent and conversation ids are written as null.
type Message struct {
	MessageID       string
	Timestamp       time.Time
	SenderAgentID   string
	ReceiverAgentID string
	ConversationID  string
	Metadata        map[string]any
}

// NewMessage returns a Message with a fresh id and the current UTC time.
func NewMessage() Message {
	return Message{
		MessageID: NewMessageID(),
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]any{},
	}
}

// NewMessageID returns a globally unique message identifier.
func NewMessageID() string {
	return uuid.New().String()
}

// FormatTimestamp renders t the way envelopes carry it on the wire.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp reads RFC 3339 and zone-less ISO-8601 timestamps.
func ParseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(naiveISOLayout, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Request asks the receiving agent to run one capability.
type Request struct {
	Message
	CapabilityID string
	Parameters   map[string]any
	// TimeoutSeconds is advisory; transports may turn it into a deadline.
	TimeoutSeconds int
}

// NewRequest builds a request for capabilityID with the given parameters.
func NewRequest(capabilityID string, params map[string]any) *Request {
	if params == nil {
		params = map[string]any{}
	}
	return &Request{
		Message:        NewMessage(),
		CapabilityID:   capabilityID,
		Parameters:     params,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// Response answers exactly one Request. Error is set iff Success is false.
type Response struct {
	Message
	RequestID        string
	Success          bool
	Result           map[string]any
	Error            string
	ProcessingTimeMs int64
}

// NewSuccessResponse builds a successful response to req.
func NewSuccessResponse(req *Request, result map[string]any, processingTimeMs int64) *Response {
	if result == nil {
		result = map[string]any{}
	}
	return &Response{
		Message:          replyMessage(req),
		RequestID:        req.MessageID,
		Success:          true,
		Result:           result,
		ProcessingTimeMs: nonNegative(processingTimeMs),
	}
}

// NewErrorResponse builds a failed response to req carrying errMsg.
func NewErrorResponse(req *Request, errMsg string, processingTimeMs int64) *Response {
	if errMsg == "" {
		errMsg = "unknown error"
	}
	return &Response{
		Message:          replyMessage(req),
		RequestID:        req.MessageID,
		Success:          false,
		Result:           map[string]any{},
		Error:            errMsg,
		ProcessingTimeMs: nonNegative(processingTimeMs),
	}
}

// MessageType is response on success and error otherwise.
func (r *Response) MessageType() MessageType {
	if r.Success {
		return MessageTypeResponse
	}
	return MessageTypeError
}

func replyMessage(req *Request) Message {
	m := NewMessage()
	m.ReceiverAgentID = req.SenderAgentID
	m.ConversationID = req.ConversationID
	return m
}

func nonNegative(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// --- wire encoding ---

type requestWire struct {
	MessageID       string         `json:"message_id"`
	MessageType     MessageType    `json:"message_type"`
	Timestamp       string         `json:"timestamp"`
	SenderAgentID   *string        `json:"sender_agent_id"`
	ReceiverAgentID *string        `json:"receiver_agent_id"`
	ConversationID  *string        `json:"conversation_id"`
	Metadata        map[string]any `json:"metadata"`
	CapabilityID    string         `json:"capability_id"`
	Parameters      map[string]any `json:"parameters"`
	TimeoutSeconds  int            `json:"timeout_seconds"`
}

type responseWire struct {
	MessageID        string         `json:"message_id"`
	MessageType      MessageType    `json:"message_type"`
	Timestamp        string         `json:"timestamp"`
	SenderAgentID    *string        `json:"sender_agent_id"`
	ReceiverAgentID  *string        `json:"receiver_agent_id"`
	ConversationID   *string        `json:"conversation_id"`
	Metadata         map[string]any `json:"metadata"`
	RequestID        string         `json:"request_id"`
	Success          bool           `json:"success"`
	Result           map[string]any `json:"result"`
	Error            *string        `json:"error"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// messageIn holds the shared fields as read from untrusted input.
type messageIn struct {
	MessageID       *string        `json:"message_id"`
	Timestamp       *string        `json:"timestamp"`
	SenderAgentID   *string        `json:"sender_agent_id"`
	ReceiverAgentID *string        `json:"receiver_agent_id"`
	ConversationID  *string        `json:"conversation_id"`
	Metadata        map[string]any `json:"metadata"`
}

func (in messageIn) toMessage() Message {
	m := Message{
		SenderAgentID:   deref(in.SenderAgentID),
		ReceiverAgentID: deref(in.ReceiverAgentID),
		ConversationID:  deref(in.ConversationID),
		Metadata:        in.Metadata,
	}
	if in.MessageID != nil && *in.MessageID != "" {
		m.MessageID = *in.MessageID
	} else {
		m.MessageID = NewMessageID()
	}
	if in.Timestamp != nil {
		if t, ok := ParseTimestamp(*in.Timestamp); ok {
			m.Timestamp = t
		}
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	return m
}

// MarshalJSON writes the flat request wire shape; message_type is always request.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(requestWire{
		MessageID:       r.MessageID,
		MessageType:     MessageTypeRequest,
		Timestamp:       FormatTimestamp(r.Timestamp),
		SenderAgentID:   nullable(r.SenderAgentID),
		ReceiverAgentID: nullable(r.ReceiverAgentID),
		ConversationID:  nullable(r.ConversationID),
		Metadata:        orEmpty(r.Metadata),
		CapabilityID:    r.CapabilityID,
		Parameters:      orEmpty(r.Parameters),
		TimeoutSeconds:  r.TimeoutSeconds,
	})
}

// UnmarshalJSON reads a request, defaulting every optional field.
// Any incoming message_type is ignored.
func (r *Request) UnmarshalJSON(data []byte) error {
	var in struct {
		messageIn
		CapabilityID   string         `json:"capability_id"`
		Parameters     map[string]any `json:"parameters"`
		TimeoutSeconds *int           `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Message = in.messageIn.toMessage()
	r.CapabilityID = in.CapabilityID
	r.Parameters = orEmpty(in.Parameters)
	r.TimeoutSeconds = DefaultTimeoutSeconds
	if in.TimeoutSeconds != nil {
		r.TimeoutSeconds = *in.TimeoutSeconds
	}
	return nil
}

// MarshalJSON writes the flat response wire shape. error is null on success.
func (r Response) MarshalJSON() ([]byte, error) {
	var errPtr *string
	if !r.Success {
		e := r.Error
		errPtr = &e
	}
	return json.Marshal(responseWire{
		MessageID:        r.MessageID,
		MessageType:      r.MessageType(),
		Timestamp:        FormatTimestamp(r.Timestamp),
		SenderAgentID:    nullable(r.SenderAgentID),
		ReceiverAgentID:  nullable(r.ReceiverAgentID),
		ConversationID:   nullable(r.ConversationID),
		Metadata:         orEmpty(r.Metadata),
		RequestID:        r.RequestID,
		Success:          r.Success,
		Result:           orEmpty(r.Result),
		Error:            errPtr,
		ProcessingTimeMs: r.ProcessingTimeMs,
	})
}

// UnmarshalJSON reads a response; a missing success field means true.
func (r *Response) UnmarshalJSON(data []byte) error {
	var in struct {
		messageIn
		RequestID        string         `json:"request_id"`
		Success          *bool          `json:"success"`
		Result           map[string]any `json:"result"`
		Error            *string        `json:"error"`
		ProcessingTimeMs int64          `json:"processing_time_ms"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Message = in.messageIn.toMessage()
	r.RequestID = in.RequestID
	r.Success = true
	if in.Success != nil {
		r.Success = *in.Success
	}
	r.Result = orEmpty(in.Result)
	r.Error = deref(in.Error)
	r.ProcessingTimeMs = nonNegative(in.ProcessingTimeMs)
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
