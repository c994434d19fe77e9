package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mentorio/pkg/api"
	"mentorio/pkg/config"
	"mentorio/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DetailToolsCalled is the ToolResult detail key under which a tool may
// report nested tool invocations (delegate tools use it to surface the
// sub-agent's writes in the response bookkeeping).
const DetailToolsCalled = "tools_called"

// RunResult summarizes one completed agent run.
type RunResult struct {
	// FinalOutput is the agent's last text reply.
	FinalOutput string
	// ToolsCalled lists every tool invoked during the run, in call order,
	// including tools reported by delegate tools.
	ToolsCalled []string
	// Usage aggregates token counts over all LLM round trips.
	Usage llm.Usage
	// Turns is the number of LLM round trips consumed.
	Turns int
}

// Runner manages the core reasoning loop: LLM communication, tool execution
// and recursive turn handling for a single agent.
type Runner struct {
	client llm.Client
	sysCfg *config.SystemConfig
}

// NewRunner creates a Runner bound to an LLM client and system settings.
func NewRunner(client llm.Client, sysCfg *config.SystemConfig) *Runner {
	return &Runner{client: client, sysCfg: sysCfg}
}

// Run executes the agent against the given input messages until the model
// produces a reply without tool calls, or MaxTurns is reached.
func (r *Runner) Run(ctx context.Context, ag *Agent, input []llm.Message) (*RunResult, error) {
	rc, _ := RunContextFrom(ctx)

	msgs := make([]llm.Message, 0, len(input)+1)
	if prompt := ag.SystemPrompt(rc); prompt != "" {
		msgs = append(msgs, llm.NewSystemMessage(prompt))
	}
	msgs = append(msgs, input...)

	var tools []llm.Tool
	if ag.Tools != nil {
		for _, t := range ag.Tools.GetAll() {
			tools = append(tools, t)
		}
	}

	result := &RunResult{}

	maxTurns := r.sysCfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 8
	}

	for turn := 0; turn < maxTurns; turn++ {
		comp, err := r.chatWithRetry(ctx, msgs, tools)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", ag.Name, err)
		}

		result.Turns++
		if comp.Usage != nil {
			result.Usage.PromptTokens += comp.Usage.PromptTokens
			result.Usage.CompletionTokens += comp.Usage.CompletionTokens
			result.Usage.TotalTokens += comp.Usage.TotalTokens
		}

		msgs = append(msgs, comp.Message)

		if !comp.Message.HasToolCalls() {
			if comp.FinishReason == llm.StopReasonLength {
				slog.WarnContext(ctx, "Response truncated by length limit", "agent", ag.Name)
			}
			result.FinalOutput = comp.Message.Content
			return result, nil
		}

		for _, tc := range comp.Message.ToolCalls {
			toolMsg, nested := r.resolveToolCall(ctx, ag, tc)
			result.ToolsCalled = append(result.ToolsCalled, tc.Name)
			result.ToolsCalled = append(result.ToolsCalled, nested...)
			msgs = append(msgs, toolMsg)
		}
	}

	return nil, fmt.Errorf("agent %q exceeded max turns (%d)", ag.Name, maxTurns)
}

// chatWithRetry performs one LLM round trip, retrying transient failures
// up to the configured limit.
func (r *Runner) chatWithRetry(ctx context.Context, msgs []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	timeout := time.Duration(r.sysCfg.LLMTimeoutMs) * time.Millisecond

	var lastErr error
	maxRetries := r.sysCfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			slog.WarnContext(ctx, "Abnormal response, retrying",
				"error", lastErr,
				"retry", fmt.Sprintf("%d/%d", attempt, maxRetries),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(r.sysCfg.RetryDelayMs) * time.Millisecond):
			}
		}

		runCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		comp, err := r.client.Chat(runCtx, msgs, tools)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return comp, nil
		}

		lastErr = err
		if !r.client.IsTransientError(err) {
			slog.ErrorContext(ctx, "Non-transient error, skipping retry", "error", err)
			return nil, err
		}
	}

	return nil, lastErr
}

// resolveToolCall is a resilience wrapper that ensures every tool call
// results in a tool message, even if the tool panics. It returns the tool
// message plus any nested tool names the tool reported.
func (r *Runner) resolveToolCall(ctx context.Context, ag *Agent, tc llm.ToolCall) (msg llm.Message, nested []string) {
	var output string
	var details map[string]any

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(ctx, "Tool execution panicked", "tool", tc.Name, "error", rec)
				output = "Error: Internal processing panic"
			}
		}()
		output, details = r.executeToolCall(ctx, ag, tc)
	}()

	if details != nil {
		if reported, ok := details[DetailToolsCalled].([]string); ok {
			nested = reported
		}
	}

	return llm.NewToolMessage(tc.ID, tc.Name, output), nested
}

// executeToolCall looks up, parses and executes an individual tool call.
// Failures are rendered as error text handed back to the model; they never
// abort the run.
func (r *Runner) executeToolCall(ctx context.Context, ag *Agent, tc llm.ToolCall) (string, map[string]any) {
	cleanName := strings.TrimPrefix(tc.Name, "functions.")

	tool, ok := ag.FindTool(cleanName)
	if !ok {
		slog.ErrorContext(ctx, "Unknown tool call", "agent", ag.Name, "name", tc.Name)
		return fmt.Sprintf("Error: Unknown tool '%s'", tc.Name), nil
	}

	args := make(map[string]any)
	if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			slog.ErrorContext(ctx, "Failed to parse tool args", "tool", tc.Name, "error", err)
			return fmt.Sprintf("Error: Failed to parse tool arguments: %v", err), nil
		}
	}

	slog.InfoContext(ctx, "Executing tool", "agent", ag.Name, "name", cleanName)
	res, err := tool.Execute(ctx, args)
	if err != nil {
		slog.ErrorContext(ctx, "Tool execution error", "name", cleanName, "error", err)
		return fmt.Sprintf("Error: Tool execution failed: %v", err), nil
	}

	return toolOutput(res), res.Details
}

func toolOutput(res *api.ToolResult) string {
	if res == nil || res.Output == "" {
		return "(No output)"
	}
	return res.Output
}
