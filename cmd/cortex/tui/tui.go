package tuicmder

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cortex/cmd/cortex/bootstrap"
	"github.com/papercomputeco/cortex/pkg/config"
	"github.com/papercomputeco/cortex/pkg/image"
	"github.com/papercomputeco/cortex/tui"
)

const tuiLongDesc string = `Open the cortex terminal UI.

The sidebar switches between chat and image generation (tab). Ctrl+N
starts a new conversation; Esc quits. Logs are discarded unless --debug
is set, in which case they go to stderr.`

const tuiShortDesc string = "Open the terminal UI"

type tuiCommander struct{}

func NewTUICmd() *cobra.Command {
	cmder := &tuiCommander{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	return cmd
}

func (c *tuiCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.Load(cmd)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if cfg.Debug {
		logOut = cmd.ErrOrStderr()
	}
	log, err := bootstrap.NewLogger(cfg, logOut)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := tui.Options{
		SystemPrompt: cfg.Chat.SystemPrompt,
		Panel:        image.NewPanel(bootstrap.ImageConfig(cfg), log),
	}

	opts.Engine, err = bootstrap.NewEngine(cfg, log)
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		opts.SetupError = config.MissingKeyMessage
	case err != nil:
		return err
	}

	return tui.Run(ctx, opts)
}
