package tools

import (
	"sync"

	"mentorio/pkg/api"
)

// Re-export types from api package via aliases so tool implementations only
// need this package.
type Tool = api.Tool
type ToolResult = api.ToolResult

// Registry acts as a central inventory for all tools available to the agents.
type Registry struct {
	mu    sync.RWMutex    // Protects concurrent access to the tools map
	tools map[string]Tool // Internal map of tool name to implementation
}

// NewRegistry creates a new tool registry pre-populated with the given tools.
func NewRegistry(initial ...Tool) *Registry {
	tr := &Registry{
		tools: make(map[string]Tool, len(initial)),
	}
	for _, tool := range initial {
		tr.tools[tool.Name()] = tool
	}
	return tr
}

// Register adds a tool to the registry
func (tr *Registry) Register(tool Tool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.tools[tool.Name()] = tool
}

// Unregister removes a tool from the registry
func (tr *Registry) Unregister(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.tools, name)
}

// Get retrieves a tool by name
func (tr *Registry) Get(name string) (Tool, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tool, ok := tr.tools[name]
	return tool, ok
}

// GetAll returns all registered tools
func (tr *Registry) GetAll() []Tool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tools := make([]Tool, 0, len(tr.tools))
	for _, tool := range tr.tools {
		tools = append(tools, tool)
	}
	return tools
}
