package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/logger"
)

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Content string `json:"content"`
}

// frameEvent is one redraw of the assistant area.
type frameEvent struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// doneEvent closes a successful turn. Length is the number of rendered
// history messages after the reply was committed.
type doneEvent struct {
	Message llm.Message `json:"message"`
	Length  int         `json:"length"`
}

// sseDisplay writes every frame as a server-sent event and flushes it, so a
// frame reaches the browser before the next chunk is awaited.
type sseDisplay struct {
	w *bufio.Writer
}

func (d *sseDisplay) Render(f chat.Frame) error {
	return writeEvent(d.w, "frame", frameEvent{Text: f.Display(), Final: f.Final})
}

func writeEvent(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

// handleChat runs one turn for the caller's session and streams the redraws
// as server-sent events. The reply only enters the conversation if the
// upstream stream completes.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req chatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: chat.UserMessage(chat.ErrEmptyMessage)})
	}

	sess := session(c)
	if sess.Busy() {
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: chat.ErrBusy.Error()})
	}

	s.logger.Debug("received chat message",
		zap.String("session", sess.ID),
		zap.String("content_preview", logger.Preview(req.Content, 50)),
	)

	// Set up streaming response headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The request context is recycled once the handler returns, so the turn
	// gets its own. A client that goes away surfaces as a failed flush.
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		reply, err := s.engine.Send(context.Background(), sess, req.Content, &sseDisplay{w: w})
		if err != nil {
			s.logger.Warn("chat turn failed",
				zap.String("session", sess.ID),
				zap.Duration("duration", time.Since(startTime)),
				zap.Error(err),
			)
			if errors.Is(err, chat.ErrBusy) {
				_ = writeEvent(w, "error", llm.ErrorResponse{Error: chat.ErrBusy.Error()})
				return
			}
			_ = writeEvent(w, "error", llm.ErrorResponse{Error: chat.UserMessage(err)})
			return
		}

		s.logger.Info("chat turn complete",
			zap.String("session", sess.ID),
			zap.Int("reply_bytes", len(reply.Content)),
			zap.Duration("duration", time.Since(startTime)),
		)
		_ = writeEvent(w, "done", doneEvent{Message: reply, Length: len(sess.Conversation().History())})
	}))

	return nil
}
