package agent

import (
	"context"
	"encoding/json"
	"sync"
)

// Outcome is the structured result a tool handler returns. It is what the
// model sees as the tool result, and what the chat endpoint reports back
// to the caller.
type Outcome struct {
	Success bool          `json:"success"`
	Task    *TaskPayload  `json:"task,omitempty"`
	Tasks   []TaskPayload `json:"tasks,omitempty"`
	Deleted bool          `json:"deleted,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// TaskPayload is the task shape exposed to the model and chat clients.
type TaskPayload struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Tool identifies one of the known tools. Model-supplied names are parsed
// into this type before dispatch; an unrecognized name never reaches a
// handler.
type Tool string

const (
	ToolAddTask      Tool = "add_task"
	ToolListTasks    Tool = "list_tasks"
	ToolCompleteTask Tool = "complete_task"
	ToolDeleteTask   Tool = "delete_task"
	ToolUpdateTask   Tool = "update_task"
)

// ParseTool maps a model-supplied name onto a known tool.
func ParseTool(name string) (Tool, bool) {
	switch t := Tool(name); t {
	case ToolAddTask, ToolListTasks, ToolCompleteTask, ToolDeleteTask, ToolUpdateTask:
		return t, true
	}
	return "", false
}

// Handler executes one tool call on behalf of the given user. The user
// identity always comes from the dispatcher, never from model arguments.
type Handler func(ctx context.Context, userID int64, args json.RawMessage) Outcome

// Registry maps tools to handlers. Registration is last-write-wins;
// registering a tool twice replaces the earlier handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Tool]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Tool]Handler)}
}

func (r *Registry) Register(tool Tool, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tool] = h
}

// Dispatch runs the named tool. A tool with no handler yields a failure
// Outcome rather than an error so a bad model call never aborts the turn.
func (r *Registry) Dispatch(ctx context.Context, tool Tool, userID int64, args json.RawMessage) Outcome {
	r.mu.RLock()
	h, ok := r.handlers[tool]
	r.mu.RUnlock()
	if !ok {
		return Outcome{Success: false, Error: "unknown tool: " + string(tool)}
	}
	return h(ctx, userID, args)
}

// Names returns the registered tools, unordered.
func (r *Registry) Names() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Tool, 0, len(r.handlers))
	for tool := range r.handlers {
		names = append(names, tool)
	}
	return names
}
