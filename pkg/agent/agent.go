package agent

import (
	"mentorio/pkg/api"
)

// InstructionsFunc builds an agent's system prompt from the run context.
// Used by agents whose instructions embed per-request user data.
type InstructionsFunc func(rc *RunContext) string

// Agent is a declarative agent configuration: a name, instructions and the
// tools the model may call. The Runner interprets it against an LLM client.
type Agent struct {
	Name string

	// Instructions is the static system prompt. Ignored when
	// InstructionsFunc is set.
	Instructions string

	// InstructionsFunc builds the system prompt dynamically per run.
	InstructionsFunc InstructionsFunc

	// Tools is the registry of capabilities exposed to the model for this
	// agent. Nil for agents that never call tools (classifiers).
	Tools api.ToolRegistry
}

// SystemPrompt resolves the effective instructions for a run.
func (a *Agent) SystemPrompt(rc *RunContext) string {
	if a.InstructionsFunc != nil {
		return a.InstructionsFunc(rc)
	}
	return a.Instructions
}

// FindTool returns the agent tool with the given name.
func (a *Agent) FindTool(name string) (api.Tool, bool) {
	if a.Tools == nil {
		return nil, false
	}
	return a.Tools.Get(name)
}
