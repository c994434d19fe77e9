package coach

import (
	"context"
	"log/slog"
	"time"

	"mentorio/pkg/agent"
	"mentorio/pkg/api"
	"mentorio/pkg/llm"
)

// DelegateTool exposes a sub-agent as a tool on the master coach. The coach
// sends a task description; the sub-agent runs its own tool loop and returns
// a short report. Tool names the sub-agent invoked are surfaced through the
// result details so the response bookkeeping sees them.
type DelegateTool struct {
	ToolName    string
	ToolDesc    string
	TaskExample string
	Sub         *agent.Agent
	Runner      *agent.Runner
	Timeout     time.Duration
}

func (d *DelegateTool) Name() string { return d.ToolName }

func (d *DelegateTool) Description() string { return d.ToolDesc }

func (d *DelegateTool) Parameters() map[string]any {
	return map[string]any{
		"task": map[string]any{
			"type":        "string",
			"description": "What to do. " + d.TaskExample,
		},
	}
}

func (d *DelegateTool) RequiredParameters() []string { return []string{"task"} }

func (d *DelegateTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	task, _ := args["task"].(string)
	if task == "" {
		return &api.ToolResult{Output: "Error: task is required"}, nil
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if d.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	slog.InfoContext(ctx, "Delegating to sub-agent",
		"tool", d.ToolName, "agent", d.Sub.Name, "task_len", len(task))

	result, err := d.Runner.Run(runCtx, d.Sub, []llm.Message{llm.NewUserMessage(task)})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Sub-agent finished",
		"tool", d.ToolName, "sub_tools_called", result.ToolsCalled, "output_len", len(result.FinalOutput))

	return &api.ToolResult{
		Output: result.FinalOutput,
		Details: map[string]any{
			agent.DetailToolsCalled: result.ToolsCalled,
		},
	}, nil
}
