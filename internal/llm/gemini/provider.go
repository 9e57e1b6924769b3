package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/poctrail/assistant/internal/config"
	"github.com/poctrail/assistant/internal/domain"
	"github.com/poctrail/assistant/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

// Provider implements llm.Provider for Google Gemini. It holds no
// credential; every call carries the tenant's own key.
type Provider struct {
	model string
}

// NewProvider creates a new Gemini provider
func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		model: cfg.Model,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "gemini"
}

// Chat runs one model call over the full conversation so far
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if req.Credential == "" {
		return nil, fmt.Errorf("%w: missing upstream credential", domain.ErrAssistantNotConfigured)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(req.Credential))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	var temperature float32 = 0.2
	generativeModel.Temperature = &temperature

	if req.System != "" {
		generativeModel.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if len(req.Tools) > 0 {
		generativeModel.Tools = toTools(req.Tools)
	}

	contents := toContents(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("empty conversation")
	}

	chat := generativeModel.StartChat()
	chat.History = contents[:len(contents)-1]

	resp, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	out := &llm.ChatResponse{Model: model}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			out.Text += string(v)
		case genai.FunctionCall:
			args, _ := json.Marshal(v.Args)
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				Name:      v.Name,
				Arguments: string(args),
			})
		}
	}

	if resp.UsageMetadata != nil {
		out.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return out, nil
}

// toContents rebuilds the wire history. Gemini wants parallel tool results
// in a single content, so consecutive tool messages are merged.
func toContents(messages []llm.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Text)},
			})
		case llm.RoleAssistant:
			content := &genai.Content{Role: "model"}
			if m.Text != "" {
				content.Parts = append(content.Parts, genai.Text(m.Text))
			}
			for _, tc := range m.ToolCalls {
				content.Parts = append(content.Parts, genai.FunctionCall{
					Name: tc.Name,
					Args: toArgs(tc.Arguments),
				})
			}
			if len(content.Parts) > 0 {
				contents = append(contents, content)
			}
		case llm.RoleTool:
			part := genai.FunctionResponse{
				Name:     m.ToolName,
				Response: toResponse(m.Text),
			}
			if n := len(contents); n > 0 && contents[n-1].Role == "user" && isFunctionResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
			} else {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []genai.Part{part},
				})
			}
		}
	}
	return contents
}

func isFunctionResponse(c *genai.Content) bool {
	if len(c.Parts) == 0 {
		return false
	}
	_, ok := c.Parts[0].(genai.FunctionResponse)
	return ok
}

func toTools(schemas []llm.ToolSchema) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  toSchema(s.Params),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toSchema returns nil for parameterless tools; Gemini rejects an object
// schema with no properties.
func toSchema(params []llm.ToolParam) *genai.Schema {
	if len(params) == 0 {
		return nil
	}

	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params)),
	}
	for _, p := range params {
		schema.Properties[p.Name] = &genai.Schema{
			Type:        toType(p.Type),
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func toType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func toArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &args)
	}
	return args
}

// toResponse keeps structured tool output structured when it parses as an
// object, otherwise wraps it.
func toResponse(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj
	}
	return map[string]any{"result": text}
}

// classify folds the upstream status into the error taxonomy. Context
// cancellation passes through untouched.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", domain.ErrUpstreamAuth, gerr.Message)
		case gerr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(gerr.Message), "api key"):
			return fmt.Errorf("%w: %s", domain.ErrUpstreamAuth, gerr.Message)
		case gerr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", domain.ErrUpstreamRateLimited, gerr.Message)
		case gerr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: gemini status %d", domain.ErrUpstreamUnavailable, gerr.Code)
		}
		return fmt.Errorf("gemini error: status %d", gerr.Code)
	}

	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}
