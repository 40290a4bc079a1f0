package chat

import "github.com/papercomputeco/cortex/pkg/llm"

// HistoryPolicy decides which part of a conversation is sent upstream.
// The conversation itself is never modified.
type HistoryPolicy interface {
	Window(messages []llm.Message) []llm.Message
}

// KeepAll resends the entire conversation every turn.
type KeepAll struct{}

// Window implements HistoryPolicy.
func (KeepAll) Window(messages []llm.Message) []llm.Message {
	return append([]llm.Message(nil), messages...)
}

// LastN keeps the system instruction plus the most recent N messages. The
// window never opens on an assistant reply whose question was cut off.
type LastN struct {
	N int
}

// Window implements HistoryPolicy.
func (p LastN) Window(messages []llm.Message) []llm.Message {
	if p.N <= 0 || len(messages) <= p.N+1 {
		return KeepAll{}.Window(messages)
	}

	tail := messages[len(messages)-p.N:]
	for len(tail) > 0 && tail[0].Role == llm.RoleAssistant {
		tail = tail[1:]
	}

	window := make([]llm.Message, 0, len(tail)+1)
	window = append(window, messages[0])
	return append(window, tail...)
}

// PolicyFor returns LastN{n} for a positive n and KeepAll otherwise.
func PolicyFor(n int) HistoryPolicy {
	if n > 0 {
		return LastN{N: n}
	}
	return KeepAll{}
}
