package llm

// Options contains optional sampling parameters. Nil fields are omitted from
// the wire request so the provider applies its own defaults.
type Options struct {
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	MaxTokens   *int     `json:"max_tokens,omitempty"`  // Max tokens to generate
	Seed        *int     `json:"seed,omitempty"`        // Random seed for reproducibility

	// Stop generation at these sequences
	Stop []string `json:"stop,omitempty"`
}
