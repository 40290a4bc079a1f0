package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/provider"
)

// Session is one user's interaction: a single Conversation plus the guard
// that keeps turns sequential.
type Session struct {
	ID      string
	Created time.Time

	conv       *Conversation
	busy       sync.Mutex
	lastActive atomic.Int64
}

// NewSession creates a session with a fresh conversation.
func NewSession(systemPrompt string) *Session {
	now := time.Now()
	s := &Session{
		ID:      uuid.NewString(),
		Created: now,
		conv:    NewConversation(systemPrompt),
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Conversation returns the session's conversation.
func (s *Session) Conversation() *Conversation { return s.conv }

// Touch records activity.
func (s *Session) Touch() { s.lastActive.Store(time.Now().UnixNano()) }

// LastActive returns the time of the last recorded activity.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	if s.busy.TryLock() {
		s.busy.Unlock()
		return false
	}
	return true
}

// Reset clears the conversation back to its system prompt. It returns ErrBusy
// instead of clearing while a turn is in flight.
func (s *Session) Reset() error {
	if !s.busy.TryLock() {
		return ErrBusy
	}
	defer s.busy.Unlock()
	s.conv.Reset()
	s.Touch()
	return nil
}

// Settings are the per-turn knobs that may change while the process runs.
type Settings struct {
	Model   string
	Policy  HistoryPolicy
	Options *llm.Options
}

// CommitHook runs after an assistant message has been appended.
type CommitHook func(ctx context.Context, turn llm.Turn) error

// Engine runs turns against a provider.
type Engine struct {
	renderer *Renderer
	settings atomic.Pointer[Settings]
	hooks    []CommitHook
	logger   *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(p provider.Provider, settings Settings, logger *zap.Logger, hooks ...CommitHook) *Engine {
	e := &Engine{
		renderer: NewRenderer(p, logger),
		hooks:    hooks,
		logger:   logger,
	}
	e.SetSettings(settings)
	return e
}

// SetSettings swaps the settings used by subsequent turns.
func (e *Engine) SetSettings(s Settings) {
	if s.Policy == nil {
		s.Policy = KeepAll{}
	}
	e.settings.Store(&s)
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings { return *e.settings.Load() }

// Send runs one turn: the user message is appended, the windowed history is
// streamed through d, and the assistant reply is appended only if the stream
// completed. The returned message is that reply.
func (e *Engine) Send(ctx context.Context, s *Session, content string, d Display) (llm.Message, error) {
	if strings.TrimSpace(content) == "" {
		return llm.Message{}, ErrEmptyMessage
	}
	if !s.busy.TryLock() {
		return llm.Message{}, ErrBusy
	}
	defer s.busy.Unlock()
	s.Touch()

	settings := e.Settings()

	s.conv.Append(llm.User(content))
	window := settings.Policy.Window(s.conv.All())

	e.logger.Debug("starting turn",
		zap.String("session", s.ID),
		zap.String("model", settings.Model),
		zap.Int("conversation_len", s.conv.Len()),
		zap.Int("window_len", len(window)),
	)

	reply, err := e.renderer.Render(ctx, provider.Request{
		Model:    settings.Model,
		Messages: window,
		Options:  settings.Options,
	}, d)
	if err != nil {
		return llm.Message{}, err
	}

	s.conv.Append(reply)
	s.Touch()

	turn := llm.Turn{
		SessionID: s.ID,
		Model:     settings.Model,
		Messages:  window,
		Reply:     reply,
	}
	for _, hook := range e.hooks {
		if err := hook(ctx, turn); err != nil {
			// The reply is already committed; hooks only observe it.
			e.logger.Error("commit hook failed", zap.String("session", s.ID), zap.Error(err))
		}
	}

	return reply, nil
}
