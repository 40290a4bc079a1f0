package mcpcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/cmd/cortex/bootstrap"
	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/config"
	"github.com/papercomputeco/cortex/pkg/image"
)

const mcpLongDesc string = `Serve cortex tools over the Model Context Protocol on stdio.

Tools:
  generate_image_url  build a text-to-image URL with a fresh seed
  ask                 ask the configured chat model a single question

Logs are written to stderr; stdout carries the protocol.`

const mcpShortDesc string = "Serve cortex tools over MCP (stdio)"

// Version is reported to MCP clients.
const Version = "v0.1.0"

type mcpCommander struct{}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd)
		},
	}

	return cmd
}

func (c *mcpCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := bootstrap.Load(cmd)
	if err != nil {
		return err
	}

	log, err := bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	tools := &toolset{
		panel:        image.NewPanel(bootstrap.ImageConfig(cfg), log),
		systemPrompt: cfg.Chat.SystemPrompt,
		logger:       log,
	}
	tools.engine, err = bootstrap.NewEngine(cfg, log)
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		log.Warn("ask tool disabled", zap.String("reason", config.MissingKeyMessage))
	case err != nil:
		return err
	}

	return newServer(tools).Run(ctx, &mcp.StdioTransport{})
}

// toolset backs the MCP tools.
type toolset struct {
	engine       *chat.Engine // nil when chat is not configured
	panel        *image.Panel
	systemPrompt string
	logger       *zap.Logger
}

type imageURLInput struct {
	Description string `json:"description" jsonschema:"what the image should show"`
	Width       int    `json:"width,omitempty" jsonschema:"image width in pixels"`
	Height      int    `json:"height,omitempty" jsonschema:"image height in pixels"`
}

type imageURLOutput struct {
	URL  string `json:"url"`
	Seed int    `json:"seed"`
}

type askInput struct {
	Question string `json:"question" jsonschema:"the question to ask"`
}

type askOutput struct {
	Answer string `json:"answer"`
}

func newServer(t *toolset) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "cortex", Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_image_url",
		Description: "Build a text-to-image URL for a description. Each call uses a new random seed.",
	}, t.generateImageURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask the configured chat model a single question and return its full answer.",
	}, t.ask)

	return server
}

func (t *toolset) generateImageURL(_ context.Context, _ *mcp.CallToolRequest, in imageURLInput) (*mcp.CallToolResult, imageURLOutput, error) {
	url, seed, err := t.panel.NewURL(image.Request{Description: in.Description, Width: in.Width, Height: in.Height})
	if err != nil {
		return nil, imageURLOutput{}, err
	}
	return nil, imageURLOutput{URL: url, Seed: seed}, nil
}

// ask runs one turn in a throwaway session.
func (t *toolset) ask(ctx context.Context, _ *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, askOutput, error) {
	if t.engine == nil {
		return nil, askOutput{}, errors.New(config.MissingKeyMessage)
	}

	reply, err := t.engine.Send(ctx, chat.NewSession(t.systemPrompt), in.Question, chat.Discard)
	if err != nil {
		t.logger.Warn("ask failed", zap.Error(err))
		return nil, askOutput{}, fmt.Errorf("%s", chat.UserMessage(err))
	}
	return nil, askOutput{Answer: reply.Content}, nil
}
