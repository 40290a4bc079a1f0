package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/logger"
	"github.com/papercomputeco/cortex/pkg/provider"
)

// Cursor is appended to the text of every non-final frame.
const Cursor = "▌"

// Frame is one redraw of the assistant area.
type Frame struct {
	Text  string
	Final bool
}

// Display returns what the user sees for this frame.
func (f Frame) Display() string {
	if f.Final {
		return f.Text
	}
	return f.Text + Cursor
}

// Display redraws the assistant area. Returning an error aborts the turn.
type Display interface {
	Render(Frame) error
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(Frame) error

// Render implements Display.
func (f DisplayFunc) Render(frame Frame) error { return f(frame) }

// Discard is a Display that ignores every frame.
var Discard Display = DisplayFunc(func(Frame) error { return nil })

// Renderer folds a provider's chunk stream into a growing response and
// redraws it after every non-empty chunk.
type Renderer struct {
	provider provider.Provider
	logger   *zap.Logger
}

// NewRenderer creates a Renderer over p.
func NewRenderer(p provider.Provider, logger *zap.Logger) *Renderer {
	return &Renderer{provider: p, logger: logger}
}

// Render streams req and returns the assistant message once the provider
// reports end-of-stream. On any failure it returns a *StreamError and the
// partial text is discarded.
func (r *Renderer) Render(ctx context.Context, req provider.Request, d Display) (llm.Message, error) {
	startTime := time.Now()

	var acc strings.Builder
	redraws := 0

	err := r.provider.Stream(ctx, req, func(c provider.Chunk) error {
		if c.Content == "" {
			return nil
		}
		acc.WriteString(c.Content)
		redraws++
		return d.Render(Frame{Text: acc.String()})
	})
	if err != nil {
		r.logger.Warn("stream failed",
			zap.String("provider", r.provider.Name()),
			zap.Int("partial_bytes", acc.Len()),
			zap.Error(err),
		)
		return llm.Message{}, &StreamError{Partial: acc.Len(), Err: err}
	}

	text := acc.String()
	if err := d.Render(Frame{Text: text, Final: true}); err != nil {
		return llm.Message{}, &StreamError{Partial: acc.Len(), Err: err}
	}

	r.logger.Debug("stream complete",
		zap.String("provider", r.provider.Name()),
		zap.Int("redraws", redraws+1),
		zap.String("content_preview", logger.Preview(text, 200)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return llm.Assistant(text), nil
}
