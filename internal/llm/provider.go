package llm

import "context"

// Message roles on the upstream wire
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation sent upstream
type Message struct {
	Role string
	Text string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool result messages.
	ToolCallID string
	ToolName   string
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolParam describes one parameter of a tool
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolSchema describes one callable tool to the model
type ToolSchema struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ChatRequest contains one upstream model call. The credential travels with
// the request because keys are per tenant, never process-wide.
type ChatRequest struct {
	Credential string
	Model      string
	System     string
	Messages   []Message
	Tools      []ToolSchema
}

// ChatResponse contains the model's reply: final text, or tool calls to run
type ChatResponse struct {
	Text       string
	ToolCalls  []ToolCall
	Model      string
	TokensUsed int
}

// Provider defines the interface for upstream model providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// Chat runs one model call over the full conversation so far
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
