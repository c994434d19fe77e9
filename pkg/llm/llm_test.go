package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name     string
	desc     string
	params   map[string]any
	required []string
}

func (f *fakeTool) Name() string                 { return f.name }
func (f *fakeTool) Description() string          { return f.desc }
func (f *fakeTool) Parameters() map[string]any   { return f.params }
func (f *fakeTool) RequiredParameters() []string { return f.required }

type scriptedClient struct {
	calls     int
	responses []*Completion
	errs      []error
	transient bool
}

func (s *scriptedClient) Chat(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
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

func (s *scriptedClient) IsTransientError(err error) bool { return s.transient }

func TestFunctionSchema(t *testing.T) {
	tool := &fakeTool{
		name: "log_weight",
		desc: "Log the user's body weight.",
		params: map[string]any{
			"kg": map[string]any{"type": "number"},
		},
		required: []string{"kg"},
	}

	schema := FunctionSchema(tool)
	assert.Equal(t, "function", schema["type"])

	fn, ok := schema["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "log_weight", fn["name"])

	params, ok := fn["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []string{"kg"}, params["required"])
}

func TestFunctionSchemaEmptyRequired(t *testing.T) {
	schema := FunctionSchema(&fakeTool{name: "noop", params: map[string]any{}})
	fn := schema["function"].(map[string]any)
	params := fn["parameters"].(map[string]any)

	// Providers reject null for required; it must always be a list.
	assert.Equal(t, []string{}, params["required"])
}

func TestFallbackClientFirstSucceeds(t *testing.T) {
	primary := &scriptedClient{responses: []*Completion{{FinishReason: StopReasonStop, Message: NewAssistantMessage("hei")}}}
	backup := &scriptedClient{}

	fc := &FallbackClient{Clients: []Client{primary, backup}, MaxRetries: 2, RetryDelay: time.Millisecond}
	res, err := fc.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hei", res.Message.Content)
	assert.Equal(t, 0, backup.calls)
}

func TestFallbackClientRetriesTransient(t *testing.T) {
	flaky := &scriptedClient{
		errs:      []error{errors.New("503 service unavailable")},
		responses: []*Completion{nil, {FinishReason: StopReasonStop, Message: NewAssistantMessage("ok")}},
		transient: true,
	}

	fc := &FallbackClient{Clients: []Client{flaky}, MaxRetries: 3, RetryDelay: time.Millisecond}
	res, err := fc.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message.Content)
	assert.Equal(t, 2, flaky.calls)
}

func TestFallbackClientFallsThrough(t *testing.T) {
	dead := &scriptedClient{errs: []error{errors.New("401 unauthorized")}}
	backup := &scriptedClient{responses: []*Completion{{FinishReason: StopReasonStop, Message: NewAssistantMessage("fallback")}}}

	fc := &FallbackClient{Clients: []Client{dead, backup}, MaxRetries: 1, RetryDelay: time.Millisecond}
	res, err := fc.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Message.Content)
	// Non-transient error must not be retried on the same client.
	assert.Equal(t, 1, dead.calls)
}

func TestFallbackClientAllFail(t *testing.T) {
	dead := &scriptedClient{errs: []error{errors.New("boom")}}

	fc := &FallbackClient{Clients: []Client{dead}, MaxRetries: 1, RetryDelay: time.Millisecond}
	_, err := fc.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all fallback providers failed")
	assert.False(t, fc.IsTransientError(err))
}

func TestNewToolMessage(t *testing.T) {
	msg := NewToolMessage("call_1", "log_weight", `{"success":true}`)
	assert.Equal(t, RoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Equal(t, "log_weight", msg.ToolName)
	assert.False(t, msg.HasToolCalls())
}
