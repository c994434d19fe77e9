package agent_test

import (
	"context"
	"errors"
	"testing"

	"mentorio/pkg/agent"
	"mentorio/pkg/api"
	"mentorio/pkg/config"
	"mentorio/pkg/llm"
	"mentorio/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	calls     int
	responses []*llm.Completion
	errs      []error
	seen      [][]llm.Message
}

func (s *scriptedClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	s.seen = append(s.seen, messages)
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return nil, errors.New("script exhausted")
}

func (s *scriptedClient) IsTransientError(err error) bool { return false }

type recordingTool struct {
	name     string
	output   string
	details  map[string]any
	err      error
	panics   bool
	lastArgs map[string]any
	calls    int
}

func (r *recordingTool) Name() string                 { return r.name }
func (r *recordingTool) Description() string          { return "test tool" }
func (r *recordingTool) Parameters() map[string]any   { return map[string]any{} }
func (r *recordingTool) RequiredParameters() []string { return nil }

func (r *recordingTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	r.calls++
	r.lastArgs = args
	if r.panics {
		panic("tool exploded")
	}
	if r.err != nil {
		return nil, r.err
	}
	return &api.ToolResult{Output: r.output, Details: r.details}, nil
}

func sysCfg() *config.SystemConfig {
	cfg := config.DefaultSystemConfig()
	cfg.RetryDelayMs = 1
	cfg.LLMTimeoutMs = 1000
	return cfg
}

func toolCallCompletion(name, args string) *llm.Completion {
	msg := llm.NewAssistantMessage("")
	msg.ToolCalls = []llm.ToolCall{{
		ID:       "call_1",
		Name:     name,
		Function: llm.FunctionCall{Name: name, Arguments: args},
	}}
	return &llm.Completion{Message: msg, FinishReason: llm.StopReasonToolCalls}
}

func finalCompletion(text string) *llm.Completion {
	return &llm.Completion{
		Message:      llm.NewAssistantMessage(text),
		FinishReason: llm.StopReasonStop,
		Usage:        &llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func TestRunToolLoop(t *testing.T) {
	tool := &recordingTool{name: "log_weight", output: `{"success":true}`}
	client := &scriptedClient{responses: []*llm.Completion{
		toolCallCompletion("log_weight", `{"kg": 82}`),
		finalCompletion("Vekten er logget!"),
	}}

	runner := agent.NewRunner(client, sysCfg())
	ag := &agent.Agent{Name: "Coach", Instructions: "Du er en coach.", Tools: tools.NewRegistry(tool)}

	result, err := runner.Run(context.Background(), ag, []llm.Message{llm.NewUserMessage("jeg veier 82 kg")})
	require.NoError(t, err)

	assert.Equal(t, "Vekten er logget!", result.FinalOutput)
	assert.Equal(t, []string{"log_weight"}, result.ToolsCalled)
	assert.Equal(t, 2, result.Turns)
	assert.Equal(t, 1, tool.calls)
	assert.Equal(t, 82.0, tool.lastArgs["kg"])

	// Second round trip must carry system, user, assistant and tool messages.
	require.Len(t, client.seen, 2)
	second := client.seen[1]
	assert.Equal(t, llm.RoleSystem, second[0].Role)
	assert.Equal(t, llm.RoleTool, second[len(second)-1].Role)
	assert.Equal(t, "call_1", second[len(second)-1].ToolCallID)
}

func TestRunCollectsNestedToolNames(t *testing.T) {
	delegate := &recordingTool{
		name:    "delegate_body_tracking",
		output:  "Vekt logget.",
		details: map[string]any{agent.DetailToolsCalled: []string{"log_weight"}},
	}
	client := &scriptedClient{responses: []*llm.Completion{
		toolCallCompletion("delegate_body_tracking", `{"task":"logg vekt 82"}`),
		finalCompletion("Ferdig!"),
	}}

	runner := agent.NewRunner(client, sysCfg())
	ag := &agent.Agent{Name: "Coach", Tools: tools.NewRegistry(delegate)}

	result, err := runner.Run(context.Background(), ag, []llm.Message{llm.NewUserMessage("logg vekt")})
	require.NoError(t, err)
	assert.Equal(t, []string{"delegate_body_tracking", "log_weight"}, result.ToolsCalled)
}

func TestRunUnknownToolFeedsErrorBack(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Completion{
		toolCallCompletion("no_such_tool", `{}`),
		finalCompletion("Beklager, noe gikk galt."),
	}}

	runner := agent.NewRunner(client, sysCfg())
	ag := &agent.Agent{Name: "Coach"}

	result, err := runner.Run(context.Background(), ag, []llm.Message{llm.NewUserMessage("hei")})
	require.NoError(t, err)

	// The unknown tool becomes an error tool message, not a run failure.
	second := client.seen[1]
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Contains(t, last.Content, "Unknown tool")
	assert.Equal(t, "Beklager, noe gikk galt.", result.FinalOutput)
}

func TestRunToolPanicIsContained(t *testing.T) {
	tool := &recordingTool{name: "boom", panics: true}
	client := &scriptedClient{responses: []*llm.Completion{
		toolCallCompletion("boom", `{}`),
		finalCompletion("Noe gikk galt, prøv igjen."),
	}}

	runner := agent.NewRunner(client, sysCfg())
	ag := &agent.Agent{Name: "Coach", Tools: tools.NewRegistry(tool)}

	result, err := runner.Run(context.Background(), ag, []llm.Message{llm.NewUserMessage("hei")})
	require.NoError(t, err)
	assert.Equal(t, "Noe gikk galt, prøv igjen.", result.FinalOutput)

	second := client.seen[1]
	assert.Contains(t, second[len(second)-1].Content, "Internal processing panic")
}

func TestRunMaxTurnsExceeded(t *testing.T) {
	tool := &recordingTool{name: "loop", output: "again"}
	cfg := sysCfg()
	cfg.MaxTurns = 2

	client := &scriptedClient{responses: []*llm.Completion{
		toolCallCompletion("loop", `{}`),
		toolCallCompletion("loop", `{}`),
		finalCompletion("never reached"),
	}}

	runner := agent.NewRunner(client, cfg)
	ag := &agent.Agent{Name: "Coach", Tools: tools.NewRegistry(tool)}

	_, err := runner.Run(context.Background(), ag, []llm.Message{llm.NewUserMessage("hei")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded max turns")
}

func TestRunAggregatesUsage(t *testing.T) {
	tool := &recordingTool{name: "t", output: "ok"}
	first := toolCallCompletion("t", `{}`)
	first.Usage = &llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}

	client := &scriptedClient{responses: []*llm.Completion{first, finalCompletion("done")}}
	runner := agent.NewRunner(client, sysCfg())
	ag := &agent.Agent{Name: "Coach", Tools: tools.NewRegistry(tool)}

	result, err := runner.Run(context.Background(), ag, []llm.Message{llm.NewUserMessage("hei")})
	require.NoError(t, err)
	assert.Equal(t, 135, result.Usage.TotalTokens)
}

func TestRunContextRoundTrip(t *testing.T) {
	rc := &agent.RunContext{UserID: "u1", MentorID: "m1", UserName: "Ola"}
	ctx := agent.WithRunContext(context.Background(), rc)

	got, ok := agent.RunContextFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)

	_, ok = agent.RunContextFrom(context.Background())
	assert.False(t, ok)
}

func TestSystemPromptPrefersFunc(t *testing.T) {
	ag := &agent.Agent{
		Instructions:     "static",
		InstructionsFunc: func(rc *agent.RunContext) string { return "dynamic for " + rc.UserName },
	}
	assert.Equal(t, "dynamic for Kari", ag.SystemPrompt(&agent.RunContext{UserName: "Kari"}))

	ag.InstructionsFunc = nil
	assert.Equal(t, "static", ag.SystemPrompt(nil))
}

func TestFindToolWithoutRegistry(t *testing.T) {
	ag := &agent.Agent{Name: "Safety Checker"}

	_, ok := ag.FindTool("anything")
	assert.False(t, ok)
}
