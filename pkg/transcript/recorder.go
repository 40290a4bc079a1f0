package transcript

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/llm"
)

// Recorder archives committed turns into a Storer.
type Recorder struct {
	storer Storer
	logger *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(storer Storer, logger *zap.Logger) *Recorder {
	return &Recorder{storer: storer, logger: logger}
}

// Record stores every message of the turn's window followed by the reply and
// returns the hash of the reply node. Messages already archived by an earlier
// turn of the same conversation deduplicate by hash.
func (r *Recorder) Record(ctx context.Context, turn llm.Turn) (string, error) {
	var parent *Node
	newNodes := 0

	for _, msg := range append(append([]llm.Message(nil), turn.Messages...), turn.Reply) {
		rec := Record{Role: msg.Role, Content: msg.Content}
		if msg.Role == llm.RoleAssistant {
			rec.Model = turn.Model
		}

		node := NewNode(rec, parent)
		isNew, err := r.storer.Put(ctx, node)
		if err != nil {
			return "", fmt.Errorf("storing %s message: %w", msg.Role, err)
		}
		if isNew {
			newNodes++
		}
		parent = node
	}

	r.logger.Info("turn archived",
		zap.String("session", turn.SessionID),
		zap.String("head_hash", parent.Hash[:16]),
		zap.Int("new_nodes", newNodes),
	)
	return parent.Hash, nil
}

// Hook adapts Record to the chat engine's commit hook signature.
func (r *Recorder) Hook(ctx context.Context, turn llm.Turn) error {
	_, err := r.Record(ctx, turn)
	return err
}
