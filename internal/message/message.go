package message

import (
	"encoding/json"
	"fmt"
)

// Tag is the discriminant of a user-defined block. The set of tags is open:
// producers may send tags this version does not know about.
type Tag string

const (
	// TagReferenceDocsButton renders a button listing the documents an answer cites.
	TagReferenceDocsButton Tag = "reference_docs_button"
	// TagFeedbackHubWidget renders the embedded feedback collector.
	TagFeedbackHubWidget Tag = "feedback_hub_widget"
)

// typeKey is the wire key carrying the tag inside the user_defined object.
const typeKey = "user_defined_type"

// ChatMessage is a single turn produced by the conversation layer.
// Only UserDefined is interpreted here; everything else is carried opaquely.
//
// Decoding is lenient: a field of an unexpected JSON type reads as its zero
// value, and a user_defined value that is not an object reads as no block.
type ChatMessage struct {
	ID          string            `json:"id,omitempty"`
	Role        string            `json:"role,omitempty"`
	Text        string            `json:"text,omitempty"`
	UserDefined *UserDefinedBlock `json:"user_defined,omitempty"`
}

// UserDefinedBlock is the structured payload attached to a message.
// An empty Type means "no custom rendering".
type UserDefinedBlock struct {
	Type   Tag
	Fields map[string]any
}

// HasType reports whether the block names a tag.
func (b *UserDefinedBlock) HasType() bool {
	return b != nil && b.Type != ""
}

// String returns a string field, or "" when it is absent or not a string.
func (b *UserDefinedBlock) String(key string) string {
	if b == nil {
		return ""
	}
	s, _ := b.Fields[key].(string)
	return s
}

// UnmarshalJSON decodes the flat wire form, where the tag sits next to the fields:
//
//	{"user_defined_type": "feedback_hub_widget", "userInput": "...", ...}
//
// A non-string tag is treated as absent rather than rejected, since the payload is untrusted.
func (b *UserDefinedBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode user_defined block: %w", err)
	}
	b.Type = ""
	if t, ok := raw[typeKey].(string); ok {
		b.Type = Tag(t)
	}
	delete(raw, typeKey)
	b.Fields = raw
	return nil
}

// MarshalJSON encodes the block back into its flat wire form.
func (b UserDefinedBlock) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Fields)+1)
	for k, v := range b.Fields {
		out[k] = v
	}
	if b.Type != "" {
		out[typeKey] = string(b.Type)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a message, dropping ill-typed fields instead of failing.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ChatMessage{
		ID:   rawString(raw["id"]),
		Role: rawString(raw["role"]),
		Text: rawString(raw["text"]),
	}
	if data, ok := raw["user_defined"]; ok {
		m.UserDefined = rawBlock(data)
	}
	return nil
}

func rawString(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

// rawBlock returns nil for null or any non-object value.
func rawBlock(data json.RawMessage) *UserDefinedBlock {
	b := new(UserDefinedBlock)
	if b.UnmarshalJSON(data) != nil || b.Fields == nil {
		return nil
	}
	return b
}

// Decode parses a chat message from JSON. Only syntactically invalid JSON
// or a top-level value that is not an object is an error.
func Decode(data []byte) (ChatMessage, error) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat message: %w", err)
	}
	return msg, nil
}
