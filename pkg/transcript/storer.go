package transcript

import (
	"context"
	"errors"
)

// Storer persists and traverses archive nodes. Put is idempotent: a node
// whose hash already exists is not stored twice.
type Storer interface {
	// Put stores a node and reports whether it was new.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get retrieves a node by hash. Returns an error wrapping ErrNotFound if absent.
	Get(ctx context.Context, hash string) (*Node, error)

	// List returns all nodes.
	List(ctx context.Context) ([]*Node, error)

	// Roots returns nodes without a parent.
	Roots(ctx context.Context) ([]*Node, error)

	// Leaves returns nodes without children: the heads of archived conversations.
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Close releases the store's resources.
	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
var ErrNotFound = errors.New("node not found")

// ancestry walks parent links using get.
func ancestry(ctx context.Context, hash string, get func(context.Context, string) (*Node, error)) ([]*Node, error) {
	var path []*Node
	for {
		node, err := get(ctx, hash)
		if err != nil {
			return nil, err
		}
		path = append(path, node)
		if node.ParentHash == nil {
			return path, nil
		}
		hash = *node.ParentHash
	}
}
