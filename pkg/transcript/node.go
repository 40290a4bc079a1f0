// Package transcript archives committed chat turns as a content-addressed
// chain of messages. Each message is a node whose hash covers its record and
// its parent's hash, so identical conversation prefixes share nodes and
// diverging replies branch from their common ancestor.
package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/papercomputeco/cortex/pkg/llm"
)

// Record is the archived content of one message.
type Record struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
	Model   string   `json:"model,omitempty"`
}

// Node is a single content-addressed message in the archive.
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous message; nil for the first message of a conversation.
	ParentHash *string `json:"parent_hash"`

	Record Record `json:"record"`
}

// hashInput is the canonical form that is hashed.
type hashInput struct {
	Record Record `json:"record"`
	Parent string `json:"parent,omitempty"`
}

// NewNode creates a node for rec chained after parent.
func NewNode(rec Record, parent *Node) *Node {
	n := &Node{Record: rec}
	if parent != nil {
		h := parent.Hash
		n.ParentHash = &h
	}
	n.Hash = n.computeHash()
	return n
}

func (n *Node) computeHash() string {
	in := hashInput{Record: n.Record}
	if n.ParentHash != nil {
		in.Parent = *n.ParentHash
	}

	// Record holds only strings, so marshalling cannot fail.
	data, _ := json.Marshal(in)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Verify reports whether Hash matches the node's record and parent link.
func (n *Node) Verify() bool {
	return n.Hash == n.computeHash()
}
