package types

import "time"

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a conversation message sent to or received from a
// generation provider.
type Message struct {
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content,omitempty" yaml:"content,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// NewMessage creates a new message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// MessageBuilder accumulates an ordered message list fluently.
//
//	msgs := types.NewMessageBuilder().
//	    System("You are a YAML healing expert.").
//	    User(prompt).
//	    Build()
type MessageBuilder struct {
	messages []Message
}

// NewMessageBuilder creates an empty MessageBuilder.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

// System appends a system message.
func (b *MessageBuilder) System(content string) *MessageBuilder {
	b.messages = append(b.messages, NewSystemMessage(content))
	return b
}

// User appends a user message.
func (b *MessageBuilder) User(content string) *MessageBuilder {
	b.messages = append(b.messages, NewUserMessage(content))
	return b
}

// Assistant appends an assistant message.
func (b *MessageBuilder) Assistant(content string) *MessageBuilder {
	b.messages = append(b.messages, NewAssistantMessage(content))
	return b
}

// Add appends an arbitrary message.
func (b *MessageBuilder) Add(msg Message) *MessageBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// Build returns the accumulated message list.
func (b *MessageBuilder) Build() []Message {
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}
