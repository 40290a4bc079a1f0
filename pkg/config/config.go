// Package config loads cortex settings from an optional TOML file and the
// environment. Environment variables win over the file; unset values fall back
// to the defaults declared on the struct tags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "cortex.toml"

// MissingKeyMessage is shown by every surface when the chat provider has no key.
const MissingKeyMessage = "GROQ_API_KEY is missing. Add it to the environment or cortex.toml and restart."

// ErrMissingAPIKey is returned by Validate when the groq provider has no key.
var ErrMissingAPIKey = errors.New("groq api key is not configured")

// Chat provider names accepted in [chat] provider.
const (
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// Config is the whole cortex configuration, read from TOML and the environment.
type Config struct {
	Debug     bool   `toml:"debug" env:"CORTEX_DEBUG"`
	LogFormat string `toml:"log_format" env:"CORTEX_LOG_FORMAT" env-default:"console"`

	Chat       Chat       `toml:"chat"`
	Groq       Groq       `toml:"groq"`
	Ollama     Ollama     `toml:"ollama"`
	Image      Image      `toml:"image"`
	Server     Server     `toml:"server"`
	Transcript Transcript `toml:"transcript"`
}

// Chat selects the provider and model and shapes each turn.
type Chat struct {
	Provider     string `toml:"provider" env:"CORTEX_PROVIDER" env-default:"groq"`
	Model        string `toml:"model" env:"CORTEX_MODEL" env-default:"llama-3.3-70b-versatile"`
	SystemPrompt string `toml:"system_prompt" env:"CORTEX_SYSTEM_PROMPT" env-default:"You are a helpful and friendly assistant."`

	// HistoryWindow bounds how many messages after the system prompt are
	// resent each turn. Zero resends the whole conversation.
	HistoryWindow int `toml:"history_window" env:"CORTEX_HISTORY_WINDOW"`
}

// Groq holds the hosted provider credentials and limits.
type Groq struct {
	APIKeys           []string `toml:"api_keys" env:"GROQ_API_KEY" env-separator:","`
	BaseURL           string   `toml:"base_url" env:"GROQ_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	RequestsPerMinute int      `toml:"requests_per_minute" env:"GROQ_REQUESTS_PER_MINUTE" env-default:"30"`
}

// Ollama points at a local daemon.
type Ollama struct {
	Host string `toml:"host" env:"OLLAMA_HOST" env-default:"http://localhost:11434"`
}

// Image configures the image generation panel.
type Image struct {
	BaseURL string        `toml:"base_url" env:"CORTEX_IMAGE_BASE_URL" env-default:"https://image.pollinations.ai/prompt/"`
	Width   int           `toml:"width" env:"CORTEX_IMAGE_WIDTH" env-default:"1024"`
	Height  int           `toml:"height" env:"CORTEX_IMAGE_HEIGHT" env-default:"1024"`
	Timeout time.Duration `toml:"timeout" env:"CORTEX_IMAGE_TIMEOUT" env-default:"60s"`
}

// Server configures the web front end.
type Server struct {
	Listen     string        `toml:"listen" env:"CORTEX_LISTEN" env-default:":8080"`
	SessionTTL time.Duration `toml:"session_ttl" env:"CORTEX_SESSION_TTL" env-default:"2h"`
}

// Transcript configures the transcript archive.
type Transcript struct {
	// DB is the SQLite archive path. Empty keeps the archive in memory.
	DB string `toml:"db" env:"CORTEX_TRANSCRIPT_DB"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogFormat: "console",
		Chat: Chat{
			Provider:     ProviderGroq,
			Model:        "llama-3.3-70b-versatile",
			SystemPrompt: "You are a helpful and friendly assistant.",
		},
		Groq: Groq{
			BaseURL:           "https://api.groq.com/openai/v1",
			RequestsPerMinute: 30,
		},
		Ollama: Ollama{Host: "http://localhost:11434"},
		Image: Image{
			BaseURL: "https://image.pollinations.ai/prompt/",
			Width:   1024,
			Height:  1024,
			Timeout: 60 * time.Second,
		},
		Server: Server{
			Listen:     ":8080",
			SessionTTL: 2 * time.Hour,
		},
	}
}

// ResolvePath picks the config file to read: the flag value when set,
// otherwise DefaultPath if it exists, otherwise none.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// Load reads the file at path (if any) and applies the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return &cfg, nil
}

// Keys returns the configured Groq keys with blanks removed.
func (c *Config) Keys() []string {
	var keys []string
	for _, k := range c.Groq.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate reports configuration errors. ErrMissingAPIKey is the only one a
// caller is expected to survive: the process keeps running and shows
// MissingKeyMessage instead of chatting.
func (c *Config) Validate() error {
	switch c.Chat.Provider {
	case ProviderGroq:
		if len(c.Keys()) == 0 {
			return ErrMissingAPIKey
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown chat provider %q (want %s or %s)", c.Chat.Provider, ProviderGroq, ProviderOllama)
	}

	if c.Chat.HistoryWindow < 0 {
		return fmt.Errorf("history_window must not be negative, got %d", c.Chat.HistoryWindow)
	}
	return nil
}

// MarshalLogObject implements zapcore.ObjectMarshaler. Keys are never logged,
// only their count.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("provider", c.Chat.Provider)
	enc.AddString("model", c.Chat.Model)
	enc.AddInt("history_window", c.Chat.HistoryWindow)
	enc.AddInt("groq_keys", len(c.Keys()))
	enc.AddString("groq_base_url", c.Groq.BaseURL)
	enc.AddInt("groq_rpm", c.Groq.RequestsPerMinute)
	enc.AddString("ollama_host", c.Ollama.Host)
	enc.AddString("image_base_url", c.Image.BaseURL)
	enc.AddString("listen", c.Server.Listen)
	enc.AddDuration("session_ttl", c.Server.SessionTTL)
	enc.AddString("transcript_db", c.Transcript.DB)
	return nil
}

const defaultHeader = `# cortex configuration.
#
# Every value can be overridden by an environment variable, e.g.
# CORTEX_MODEL, CORTEX_SYSTEM_PROMPT, GROQ_REQUESTS_PER_MINUTE.
# Prefer GROQ_API_KEY (comma-separated for several keys) over writing
# keys into [groq] api_keys.

`

// WriteDefault writes the default configuration as commented TOML.
func WriteDefault(w io.Writer) error {
	if _, err := io.WriteString(w, defaultHeader); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(Default())
}
