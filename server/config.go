package server

import (
	"time"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/image"
	"github.com/papercomputeco/cortex/pkg/provider"
)

// Config is the web server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Provider streams chat completions. Nil means chat is not configured:
	// the server then serves SetupError everywhere and never builds an engine.
	Provider provider.Provider

	// SetupError is the message shown when Provider is nil.
	SetupError string

	// Chat holds the per-turn settings (model, history window).
	Chat chat.Settings

	// SystemPrompt seeds every new session's conversation.
	SystemPrompt string

	// Image configures the image panel.
	Image image.Config

	// SessionTTL evicts sessions idle for longer. Zero keeps them forever.
	SessionTTL time.Duration

	// DBPath is the path to the SQLite transcript archive.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	DBPath string

	// Debug mounts /debug/pprof.
	Debug bool
}
