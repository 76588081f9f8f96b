package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Well-known sender identities for synthetic messages.
const (
	SystemSenderID    = "SYSTEM"
	AssistantSenderID = "AI_ASSISTANT"
)

// Presence notification payloads broadcast by the router.
const (
	ContentUserConnected    = "USER_CONNECTED"
	ContentUserDisconnected = "USER_DISCONNECTED"
)

// Message is the wire model for a chat message: one JSON object per text frame.
// ReceiverID is empty for global messages; ID is empty until the store assigns one.
type Message struct {
	ID         string    `json:"id,omitempty"`
	SenderID   string    `json:"senderId"`
	UserName   string    `json:"userName"`
	ReceiverID string    `json:"receiverId,omitempty"`
	Content    string    `json:"content"`
	Timestamp  Timestamp `json:"timestamp"`
	Global     bool      `json:"global"`
}

// ParseMessage decodes a single inbound frame. Unknown extra fields are
// ignored; validation of the decoded message is left to Validate.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// Validate checks that the message is deliverable: non-blank content and
// exactly one of {global, receiverId set}.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}
	if !m.Global && m.ReceiverID == "" {
		return ErrNoRecipient
	}
	if m.Global && m.ReceiverID != "" {
		return ErrAmbiguousTarget
	}
	return nil
}

// Encode serializes the message into its wire frame.
func (m *Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

const wireTimeLayout = "2006-01-02T15:04:05"

// Timestamp is the wire form of a message time. It marshals as
// "YYYY-MM-DDTHH:MM:SS" and accepts that form, RFC 3339, or the structured
// field list [year,month,day,hour,minute,second,nanosecond] that some peers
// emit for local date-times.
type Timestamp struct {
	time.Time
}

// Now returns the current time as a wire timestamp.
func Now() Timestamp {
	return Timestamp{time.Now().UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(wireTimeLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		t.Time = time.Time{}
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		return t.unmarshalFieldList(data)
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	for _, layout := range []string{wireTimeLayout, time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("decode timestamp: unrecognized format %q", s)
}

func (t *Timestamp) unmarshalFieldList(data []byte) error {
	var fields []int64
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode timestamp fields: %w", err)
	}
	if len(fields) < 6 {
		return fmt.Errorf("decode timestamp fields: want at least 6 values, got %d", len(fields))
	}
	var nanos int64
	if len(fields) > 6 {
		nanos = fields[6]
	}
	t.Time = time.Date(
		int(fields[0]), time.Month(fields[1]), int(fields[2]),
		int(fields[3]), int(fields[4]), int(fields[5]),
		int(nanos), time.UTC,
	)
	return nil
}
