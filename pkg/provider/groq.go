package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/logger"
)

// DefaultGroqBaseURL is Groq's OpenAI-compatible API root.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// doneSentinel terminates an OpenAI-compatible event stream.
var doneSentinel = []byte("[DONE]")

// GroqConfig configures a Groq provider.
type GroqConfig struct {
	// BaseURL of the OpenAI-compatible API (default DefaultGroqBaseURL)
	BaseURL string

	// Keys are used round-robin, one per request.
	Keys []string

	// RequestsPerMinute caps outbound requests across all keys. Zero disables the limit.
	RequestsPerMinute int

	// HTTPClient overrides the transport. Chat streams carry no client-side
	// timeout; cancellation comes from the request context.
	HTTPClient *http.Client
}

// Groq streams chat completions from Groq's OpenAI-compatible endpoint.
type Groq struct {
	baseURL string
	keys    *KeyRing
	limiter *rate.Limiter
	client  *http.Client
	logger  *zap.Logger
}

// NewGroq creates a Groq provider. It returns ErrNoAPIKey when cfg has no
// usable key, before any request is ever made.
func NewGroq(cfg GroqConfig, logger *zap.Logger) (*Groq, error) {
	keys := NewKeyRing(cfg.Keys...)
	if keys == nil {
		return nil, ErrNoAPIKey
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Groq{
		baseURL: baseURL,
		keys:    keys,
		limiter: limiter,
		client:  client,
		logger:  logger,
	}, nil
}

// Name implements Provider.
func (g *Groq) Name() string { return "groq" }

// Stream implements Provider.
func (g *Groq) Stream(ctx context.Context, req Request, fn ChunkFunc) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	body, err := json.Marshal(llm.ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
		Options:  req.Options,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := g.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	key := g.keys.Next()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	g.logger.Debug("sending chat request",
		zap.String("url", url),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.String("key", Mask(key)),
	)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		g.logger.Warn("upstream returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.Preview(string(respBody), 200)),
		)
		return errorFromResponse(resp.StatusCode, respBody)
	}

	return g.readStream(ctx, resp.Body, fn)
}

// readStream decodes SSE events until the [DONE] sentinel.
func (g *Groq) readStream(ctx context.Context, body io.Reader, fn ChunkFunc) error {
	reader := NewSSEReader(body)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrTruncatedStream
			}
			return fmt.Errorf("reading stream: %w", err)
		}

		if bytes.Equal(data, doneSentinel) {
			return nil
		}

		var chunk llm.StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedChunk, err)
		}

		if chunk.Error != nil {
			return &APIError{
				Status:  http.StatusOK,
				Code:    chunk.Error.Code,
				Message: chunk.Error.Message,
			}
		}

		c := Chunk{Content: chunk.Content(), Model: chunk.Model}
		if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason != nil {
			c.FinishReason = *chunk.Choices[0].FinishReason
		}

		if err := fn(c); err != nil {
			return err
		}
	}
}
