package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/cortex/cmd/cortex/bootstrap"
	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/config"
)

const chatLongDesc string = `Chat with the configured model from the terminal.

Each answer streams in as it is generated. Type /new to start a new
conversation and /quit (or Ctrl+D) to leave.

Examples:
  cortex chat
  CORTEX_MODEL=llama-3.1-8b-instant cortex chat`

const chatShortDesc string = "Chat from the terminal"

type chatCommander struct{}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.Load(cmd)
	if err != nil {
		return err
	}

	// Logs go to stderr so they never interleave with the streamed answer.
	log, err := bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	engine, err := bootstrap.NewEngine(cfg, log)
	if errors.Is(err, config.ErrMissingAPIKey) {
		fmt.Fprintln(cmd.ErrOrStderr(), config.MissingKeyMessage)
		return err
	}
	if err != nil {
		return err
	}

	return repl(ctx, engine, chat.NewSession(cfg.Chat.SystemPrompt), cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Chat.Model)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func repl(ctx context.Context, engine *chat.Engine, session *chat.Session, in io.Reader, out io.Writer, model string) error {
	userLabel := color.New(color.FgGreen, color.Bold).SprintFunc()
	assistantLabel := color.New(color.FgCyan, color.Bold).SprintFunc()
	errorText := color.New(color.FgRed).SprintFunc()
	tty := isTerminal(out)

	fmt.Fprintf(out, "Chatting with %s. Type /new for a new conversation, /quit to leave.\n\n", assistantLabel(model))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userLabel("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := scanner.Text()

		switch strings.TrimSpace(input) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			if err := session.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Started a new conversation.")
			fmt.Fprintln(out)
			continue
		}

		fmt.Fprint(out, assistantLabel("Assistant: "))
		display := &terminalDisplay{w: out, tty: tty}
		if _, err := engine.Send(ctx, session, input, display); err != nil {
			display.abort()
			fmt.Fprintln(out, errorText(chat.UserMessage(err)))
			if ctx.Err() != nil {
				return nil
			}
		}
		fmt.Fprintln(out)
	}
}
