package tools

import (
	"context"
	"fmt"

	"mentorio/pkg/agent"
	"mentorio/pkg/api"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// success renders the standard {"success":true,"message":…} tool output.
func success(message string) *api.ToolResult {
	return jsonResult(map[string]any{"success": true, "message": message})
}

// failure renders the standard {"success":false,"error":…} tool output.
// Validation failures go back to the model as data, not as Go errors.
func failure(errMsg string) *api.ToolResult {
	return jsonResult(map[string]any{"success": false, "error": errMsg})
}

// jsonResult marshals v into the tool output string.
func jsonResult(v any) *api.ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return &api.ToolResult{Output: fmt.Sprintf("Error: failed to encode tool result: %v", err)}
	}
	return &api.ToolResult{Output: string(data)}
}

// requireUser extracts the acting user from the run context.
func requireUser(ctx context.Context) (*agent.RunContext, error) {
	rc, ok := agent.RunContextFrom(ctx)
	if !ok || rc.UserID == "" {
		return nil, fmt.Errorf("no run context attached; tool called outside an agent run")
	}
	return rc, nil
}

// ── Argument extraction ────────────────────────────────────────────
// Tool arguments arrive as a generic map decoded from the model's JSON;
// numbers are always float64.

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func argInt(args map[string]any, key string) (int, bool) {
	f, ok := argFloat(args, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}
