package llm

import "context"

// Provider is the abstraction over the text-generation backend. The
// engine treats it as an opaque call with latency and failure; the
// explanation layer consumes it in both one-shot and streaming form.
type Provider interface {
	// Generate sends a prompt and returns the full response text with
	// token usage.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream sends a prompt and emits response text incrementally
	// through emit. It returns the accumulated response, including final
	// usage, once the stream completes. A non-nil error from emit aborts
	// the stream.
	GenerateStream(ctx context.Context, req Request, emit func(Chunk) error) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes what to send to the backend.
type Request struct {
	// System is the system prompt. Optional.
	System string

	// Messages is the conversation history. For explanation generation
	// this is a single user message.
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chunk is one streamed text fragment.
type Chunk struct {
	Text string
}

// Response holds the backend's output.
type Response struct {
	// Text is the generated explanation text.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	// If not in the map, use as-is (allows direct model IDs).
	return name
}
