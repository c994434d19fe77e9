package gemini

import (
	"context"
	"fmt"
	"strings"

	"mentorio/pkg/llm"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/genai"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GeminiClient Google Gemini API client
type GeminiClient struct {
	client  *genai.Client
	model   string
	options map[string]any
}

// NewGeminiClient creates a Gemini client with a single model and API key
func NewGeminiClient(apiKey string, model string, options map[string]any) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		options: options,
	}, nil
}

func (g *GeminiClient) Provider() string {
	return "gemini"
}

// Chat implements llm.Client
func (g *GeminiClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	contents, systemInstruction := g.convertMessages(messages)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Tools:             g.convertTools(tools),
	}
	if t, ok := g.options["temperature"].(float64); ok {
		temp := float32(t)
		cfg.Temperature = &temp
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	var toolCalls []llm.ToolCall

	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			argsB, _ := json.Marshal(part.FunctionCall.Args)
			// Gemini omits call IDs; the function name doubles as one within a turn
			id := part.FunctionCall.ID
			if id == "" {
				id = part.FunctionCall.Name
			}
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:   id,
				Name: part.FunctionCall.Name,
				Function: llm.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: string(argsB),
				},
			})
		}
	}

	msg := llm.NewAssistantMessage(text.String())
	msg.ToolCalls = toolCalls

	finishReason := normalizeStopReason(string(candidate.FinishReason), len(toolCalls) > 0)
	completion := &llm.Completion{
		Message:      msg,
		FinishReason: finishReason,
	}
	if u := resp.UsageMetadata; u != nil {
		completion.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
			StopReason:       finishReason,
		}
	}
	return completion, nil
}

// convertMessages converts message list to GenAI format
func (g *GeminiClient) convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// System role as SystemInstruction
			if msg.Content != "" {
				systemInstruction = &genai.Content{
					Parts: []*genai.Part{{Text: msg.Content}},
				}
			}

		case llm.RoleTool:
			// Tool results are part of user role in Gemini
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					genai.NewPartFromFunctionResponse(msg.ToolName, map[string]any{
						"result": msg.Content,
					}),
				},
			})

		case llm.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			// Gemini requires echoing previous function calls before their responses
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				json.Unmarshal([]byte(tc.Function.Arguments), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: tc.Function.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		default:
			if msg.Content != "" {
				contents = append(contents, &genai.Content{
					Role:  genai.RoleUser,
					Parts: []*genai.Part{{Text: msg.Content}},
				})
			}
		}
	}

	return contents, systemInstruction
}

func (g *GeminiClient) convertTools(tools []llm.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	var fds []*genai.FunctionDeclaration
	for _, t := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		}
		schema := llm.FunctionSchema(t)
		if funcMap, ok := schema["function"].(map[string]any); ok {
			if params, ok := funcMap["parameters"].(map[string]any); ok {
				// JSON round-trip converts the generic schema map into genai.Schema
				schemaB, _ := json.Marshal(params)
				var s genai.Schema
				json.Unmarshal(schemaB, &s)
				fd.Parameters = &s
			}
		}
		fds = append(fds, fd)
	}

	return []*genai.Tool{{FunctionDeclarations: fds}}
}

func normalizeStopReason(reason string, hasToolCalls bool) string {
	if hasToolCalls {
		return llm.StopReasonToolCalls
	}
	switch reason {
	case string(genai.FinishReasonMaxTokens):
		return llm.StopReasonLength
	case string(genai.FinishReasonStop), "":
		return llm.StopReasonStop
	default:
		return strings.ToLower(reason)
	}
}

// IsTransientError implements the llm.Client interface
func (g *GeminiClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	// 1. Google API common 503 Service Unavailable / Overloaded
	if strings.Contains(errMsg, "503") || strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}

	// 2. 429 Too Many Requests (Rate Limit)
	if strings.Contains(errMsg, "429") || strings.Contains(strings.ToLower(errMsg), "resource exhausted") {
		return true
	}

	// 3. 500 Internal Error (Occasional Google Gemini crashes)
	if strings.Contains(errMsg, "500") || strings.Contains(strings.ToLower(errMsg), "internal error") {
		return true
	}

	return false
}
