package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// DefaultOllamaHost is where a local Ollama daemon listens.
const DefaultOllamaHost = "http://localhost:11434"

// Ollama streams chat completions from an Ollama daemon.
type Ollama struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

// NewOllama creates an Ollama provider for the daemon at host.
func NewOllama(host string, logger *zap.Logger) (*Ollama, error) {
	if host == "" {
		host = DefaultOllamaHost
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}

	return &Ollama{
		base:   u,
		http:   http.DefaultClient,
		logger: logger,
	}, nil
}

// Name implements Provider.
func (o *Ollama) Name() string { return "ollama" }

// statusRecorder remembers the status of the response it carried. The ollama
// client reports error bodies as plain errors, so the status has to be taken
// from the transport.
type statusRecorder struct {
	next   http.RoundTripper
	status int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if resp != nil {
		r.status = resp.StatusCode
	}
	return resp, err
}

// Stream implements Provider.
func (o *Ollama) Stream(ctx context.Context, req Request, fn ChunkFunc) error {
	stream := true
	chatReq := &ollamaapi.ChatRequest{
		Model:    req.Model,
		Messages: make([]ollamaapi.Message, len(req.Messages)),
		Stream:   &stream,
		Options:  ollamaOptions(req),
	}
	for i, m := range req.Messages {
		chatReq.Messages[i] = ollamaapi.Message{Role: string(m.Role), Content: m.Content}
	}

	o.logger.Debug("sending chat request",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	next := o.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rec := &statusRecorder{next: next}
	client := ollamaapi.NewClient(o.base, &http.Client{Transport: rec, Timeout: o.http.Timeout})

	done := false
	err := client.Chat(ctx, chatReq, func(resp ollamaapi.ChatResponse) error {
		c := Chunk{Content: resp.Message.Content, Model: resp.Model}
		if resp.Done {
			done = true
			c.FinishReason = "stop"
		}
		return fn(c)
	})

	var statusErr ollamaapi.StatusError
	switch {
	case err != nil && errors.As(err, &statusErr):
		return errorFromStatus(&APIError{Status: statusErr.StatusCode, Message: statusErr.ErrorMessage})
	case rec.status >= http.StatusBadRequest:
		message := http.StatusText(rec.status)
		if err != nil {
			message = err.Error()
		}
		o.logger.Warn("upstream returned error",
			zap.Int("status", rec.status),
			zap.String("message", message),
		)
		return errorFromStatus(&APIError{Status: rec.status, Message: message})
	case err != nil:
		return fmt.Errorf("ollama chat: %w", err)
	case !done:
		return ErrTruncatedStream
	}
	return nil
}

func ollamaOptions(req Request) map[string]any {
	if req.Options == nil {
		return nil
	}

	opts := map[string]any{}
	if req.Options.Temperature != nil {
		opts["temperature"] = *req.Options.Temperature
	}
	if req.Options.TopP != nil {
		opts["top_p"] = *req.Options.TopP
	}
	if req.Options.MaxTokens != nil {
		opts["num_predict"] = *req.Options.MaxTokens
	}
	if req.Options.Seed != nil {
		opts["seed"] = *req.Options.Seed
	}
	if len(req.Options.Stop) > 0 {
		opts["stop"] = req.Options.Stop
	}
	return opts
}
