package tools

import (
	"strings"
	"sync"

	"github.com/solchat-ai/solchat/pkg/llmutils"
)

// Registry holds the closed set of tools available to one assistant.
// Dispatch is by name lookup; adding a tool means registering one more
// implementation, not editing the orchestrator.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ITool
	names  []string
	list   []ITool
}

func NewRegistry(list ...ITool) *Registry {
	r := &Registry{
		byName: make(map[string]ITool, len(list)),
	}
	r.Register(list...)
	return r
}

// Register adds new tools to the registry, existing tools are not replaced.
func (r *Registry) Register(list ...ITool) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range list {
		name := tool.Name()
		// use lowercase for the key
		nameLowerCase := strings.ToLower(name)
		if r.byName[nameLowerCase] == nil {
			r.byName[nameLowerCase] = tool
			r.names = append(r.names, name)
			r.list = append(r.list, tool)
		}
	}
	return r
}

// Get returns the tool with the given name, case-insensitive.
func (r *Registry) Get(name string) ITool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[strings.ToLower(name)]
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.names...)
}

// List returns the registered tools in registration order.
func (r *Registry) List() []ITool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ITool{}, r.list...)
}

// Catalog renders all registered tools with their parameter contracts,
// for injection into the tool-selection prompt.
func (r *Registry) Catalog() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, tool := range r.list {
		sb.WriteString("## ")
		sb.WriteString(tool.Name())
		sb.WriteString("\n")
		sb.WriteString(tool.Description())
		sb.WriteString("\nParameters:")
		sb.WriteString(llmutils.BackticksJSON(llmutils.ToJSONIndent(tool.Parameters())))
	}
	return sb.String()
}
