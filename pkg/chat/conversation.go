// Package chat holds a session's conversation and the streaming renderer that
// turns a provider's chunk stream into live redraws and, on success, exactly
// one committed assistant message.
package chat

import (
	"sync"

	"github.com/papercomputeco/cortex/pkg/llm"
)

// Conversation is an append-only, ordered log of messages. Its first element
// is always the system instruction it was created with.
type Conversation struct {
	mu       sync.RWMutex
	messages []llm.Message
}

// NewConversation creates a conversation seeded with the system instruction.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		messages: []llm.Message{llm.System(systemPrompt)},
	}
}

// Append adds msg to the end of the conversation.
func (c *Conversation) Append(msg llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// All returns a copy of every message, system instruction first.
func (c *Conversation) All() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]llm.Message(nil), c.messages...)
}

// History returns the displayable messages: everything but the system instruction.
func (c *Conversation) History() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]llm.Message{}, c.messages[1:]...)
}

// Len returns the number of messages including the system instruction.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// SystemPrompt returns the instruction the conversation was seeded with.
func (c *Conversation) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[0].Content
}

// Reset drops everything but the system instruction.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:1:1]
}
