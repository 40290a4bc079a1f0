package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/cmd/cortex/bootstrap"
	"github.com/papercomputeco/cortex/pkg/config"
	"github.com/papercomputeco/cortex/server"
)

const serveLongDesc string = `Run the cortex web server.

Serves the chat page on /, the chat and image API under /api, and the
transcript archive under /transcript. Without a Groq API key the server
still starts and shows the configuration error instead of the chat.

Examples:
  cortex serve
  cortex serve --listen :9000 --watch
  GROQ_API_KEY=gsk_... cortex serve --debug`

const serveShortDesc string = "Run the web server"

type serveCommander struct {
	listen string
	watch  bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides server.listen)")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Reload chat settings when the config file changes")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.Load(cmd)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}

	log, err := bootstrap.NewLogger(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("cortex starting", zap.Object("config", cfg))

	srvCfg := server.Config{
		ListenAddr:   cfg.Server.Listen,
		Chat:         bootstrap.ChatSettings(cfg),
		SystemPrompt: cfg.Chat.SystemPrompt,
		Image:        bootstrap.ImageConfig(cfg),
		SessionTTL:   cfg.Server.SessionTTL,
		DBPath:       cfg.Transcript.DB,
		Debug:        cfg.Debug,
	}

	srvCfg.Provider, err = bootstrap.NewProvider(cfg, log)
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		srvCfg.SetupError = config.MissingKeyMessage
	case err != nil:
		return err
	}

	srv, err := server.New(srvCfg, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	if c.watch {
		path := bootstrap.ConfigPath(cmd)
		if path == "" {
			return errors.New("--watch needs a config file (--config or ./cortex.toml)")
		}
		go func() {
			err := config.Watch(ctx, path, log, func(next *config.Config) {
				srv.Reload(bootstrap.ChatSettings(next), next.Chat.SystemPrompt)
			})
			if err != nil {
				log.Error("config watch stopped", zap.Error(err))
			}
		}()
	}

	return srv.Run(ctx)
}
