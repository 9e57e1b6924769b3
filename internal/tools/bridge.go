package tools

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/llm"
	"github.com/poctrail/assistant/internal/metrics"
)

// Tool is one read-only function the model may call
type Tool interface {
	// Name returns the tool identifier sent to the model
	Name() string

	// Description tells the model when to use the tool
	Description() string

	// Params returns the tool's parameter schema
	Params() []llm.ToolParam

	// Call runs the tool for the caller. Anything it returns, including
	// error text, goes back to the model as the tool result.
	Call(ctx context.Context, caller domain.Identity, input string) (string, error)
}

// Bridge exposes the fixed tool surface to the model. The set is closed at
// construction; nothing can be registered afterwards.
type Bridge struct {
	tools   map[string]Tool
	order   []string
	metrics *metrics.Metrics
}

// NewBridge creates the bridge with the full read-only tool set
func NewBridge(pocs domain.POCRepository, users domain.UserRepository, m *metrics.Metrics) *Bridge {
	b := &Bridge{
		tools:   make(map[string]Tool),
		metrics: m,
	}
	b.register(&listActivePOCsTool{pocs: pocs})
	b.register(&listPOCTasksTool{pocs: pocs})
	b.register(&listEligibleUsersTool{users: users})
	return b
}

func (b *Bridge) register(t Tool) {
	b.tools[t.Name()] = t
	b.order = append(b.order, t.Name())
}

// Schemas returns the tool definitions sent to the model, in stable order
func (b *Bridge) Schemas() []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, 0, len(b.order))
	for _, name := range b.order {
		t := b.tools[name]
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Params:      t.Params(),
		})
	}
	return schemas
}

// Execute runs one tool call on behalf of the caller. A failing or unknown
// tool never aborts the turn; the model always gets a readable result.
func (b *Bridge) Execute(ctx context.Context, caller domain.Identity, name, input string) string {
	t, ok := b.tools[name]
	if !ok {
		log.Warn().Str("tool", name).Msg("model requested unknown tool")
		b.metrics.ToolCallsTotal.WithLabelValues("unknown", "rejected").Inc()
		return "Unknown tool: " + name
	}

	if !caller.CanUseAssistant() {
		b.metrics.ToolCallsTotal.WithLabelValues(name, "rejected").Inc()
		return "Error: unauthorized."
	}

	result, err := t.Call(ctx, caller, input)
	if err != nil {
		log.Error().Err(err).Str("tool", name).Msg("tool execution failed")
		b.metrics.ToolCallsTotal.WithLabelValues(name, "error").Inc()
		return "Error: the lookup failed. Tell the user to try again in a moment."
	}

	b.metrics.ToolCallsTotal.WithLabelValues(name, "ok").Inc()
	return result
}
