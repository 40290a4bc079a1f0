// Package bootstrap turns the loaded configuration into the collaborators
// every cortex command needs: a logger, a chat provider and engine, and the
// image panel settings.
package bootstrap

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/config"
	"github.com/papercomputeco/cortex/pkg/image"
	"github.com/papercomputeco/cortex/pkg/logger"
	"github.com/papercomputeco/cortex/pkg/provider"
)

// Flag names shared by the root command and its subcommands.
const (
	ConfigFlag = "config"
	DebugFlag  = "debug"
)

// ConfigPath returns the config file selected by --config, falling back to
// config.DefaultPath when it exists.
func ConfigPath(cmd *cobra.Command) string {
	var flagValue string
	if f := cmd.Flags().Lookup(ConfigFlag); f != nil {
		flagValue = f.Value.String()
	}
	return config.ResolvePath(flagValue)
}

// Load reads the configuration for cmd. --debug overrides the file and
// environment.
func Load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(ConfigPath(cmd))
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup(DebugFlag); f != nil && f.Changed {
		cfg.Debug = f.Value.String() == "true"
	}
	return cfg, nil
}

// NewLogger builds the logger described by cfg writing to out.
func NewLogger(cfg *config.Config, out io.Writer) (*zap.Logger, error) {
	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logger.New(logger.Options{Debug: cfg.Debug, Format: format, Output: out}), nil
}

// NewProvider builds the configured chat provider. It returns an error
// wrapping config.ErrMissingAPIKey, without touching the network, when groq
// is selected and no key is set.
func NewProvider(cfg *config.Config, log *zap.Logger) (provider.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Chat.Provider {
	case config.ProviderOllama:
		return provider.NewOllama(cfg.Ollama.Host, log)
	default:
		g, err := provider.NewGroq(provider.GroqConfig{
			BaseURL:           cfg.Groq.BaseURL,
			Keys:              cfg.Keys(),
			RequestsPerMinute: cfg.Groq.RequestsPerMinute,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrMissingAPIKey, err)
		}
		return g, nil
	}
}

// ChatSettings returns the per-turn settings described by cfg.
func ChatSettings(cfg *config.Config) chat.Settings {
	return chat.Settings{
		Model:  cfg.Chat.Model,
		Policy: chat.PolicyFor(cfg.Chat.HistoryWindow),
	}
}

// ImageConfig returns the image panel settings described by cfg.
func ImageConfig(cfg *config.Config) image.Config {
	return image.Config{
		BaseURL: cfg.Image.BaseURL,
		Width:   cfg.Image.Width,
		Height:  cfg.Image.Height,
		Timeout: cfg.Image.Timeout,
	}
}

// NewEngine builds a chat engine over the configured provider.
func NewEngine(cfg *config.Config, log *zap.Logger, hooks ...chat.CommitHook) (*chat.Engine, error) {
	p, err := NewProvider(cfg, log)
	if err != nil {
		return nil, err
	}
	return chat.NewEngine(p, ChatSettings(cfg), log, hooks...), nil
}

// ArchivePath picks the transcript database for archive commands: the flag
// value when set, otherwise transcript.db from the configuration.
func ArchivePath(flagValue string, cfg *config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.Transcript.DB != "" {
		return cfg.Transcript.DB, nil
	}
	return "", errors.New("no transcript database: pass --db or set CORTEX_TRANSCRIPT_DB")
}
