package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/tidytask/tidytask/internal/llm"
	"github.com/tidytask/tidytask/internal/models"
	"github.com/tidytask/tidytask/internal/store"
)

// BuildTaskToolDefs returns the tool schemas advertised to the model for
// task management.
func BuildTaskToolDefs() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        string(ToolAddTask),
				Description: "Create a new task for the user",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"title": {"type": "string", "description": "The task title"},
						"description": {"type": "string", "description": "Optional details about the task"}
					},
					"required": ["title"]
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        string(ToolListTasks),
				Description: "List the user's tasks, optionally filtered by completion status",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"completed": {"type": "boolean", "description": "If set, only return tasks with this completion status"}
					}
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        string(ToolCompleteTask),
				Description: "Mark a task as completed",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"task_id": {"type": "integer", "description": "The id of the task to complete"}
					},
					"required": ["task_id"]
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        string(ToolDeleteTask),
				Description: "Delete a task",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"task_id": {"type": "integer", "description": "The id of the task to delete"}
					},
					"required": ["task_id"]
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        string(ToolUpdateTask),
				Description: "Update a task's title, description, or completion status",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"task_id": {"type": "integer", "description": "The id of the task to update"},
						"title": {"type": "string", "description": "New title"},
						"description": {"type": "string", "description": "New description"},
						"completed": {"type": "boolean", "description": "New completion status"}
					},
					"required": ["task_id"]
				}`),
			},
		},
	}
}

// RegisterTaskTools wires the five task tools into the registry, each
// closing over the task store. The user id is supplied by the dispatcher.
func RegisterTaskTools(reg *Registry, tasks *store.TaskStore) {
	reg.Register(ToolAddTask, func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		var params struct {
			Title       string  `json:"title"`
			Description *string `json:"description"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return Outcome{Success: false, Error: "invalid arguments: " + err.Error()}
		}
		params.Title = strings.TrimSpace(params.Title)
		if params.Title == "" {
			return Outcome{Success: false, Error: "title is required"}
		}
		task, err := tasks.Create(ctx, userID, params.Title, params.Description)
		if err != nil {
			return Outcome{Success: false, Error: "failed to create task"}
		}
		return Outcome{Success: true, Task: payload(task)}
	})

	reg.Register(ToolListTasks, func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		var params struct {
			Completed *bool `json:"completed"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &params); err != nil {
				return Outcome{Success: false, Error: "invalid arguments: " + err.Error()}
			}
		}
		list, err := tasks.List(ctx, userID, params.Completed)
		if err != nil {
			return Outcome{Success: false, Error: "failed to list tasks"}
		}
		payloads := make([]TaskPayload, 0, len(list))
		for i := range list {
			payloads = append(payloads, *payload(&list[i]))
		}
		return Outcome{Success: true, Tasks: payloads}
	})

	reg.Register(ToolCompleteTask, func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		id, out := taskIDArg(args)
		if out != nil {
			return *out
		}
		task, err := tasks.Complete(ctx, userID, id)
		if err != nil {
			return taskFailure(err)
		}
		return Outcome{Success: true, Task: payload(task)}
	})

	reg.Register(ToolDeleteTask, func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		id, out := taskIDArg(args)
		if out != nil {
			return *out
		}
		if err := tasks.Delete(ctx, userID, id); err != nil {
			return taskFailure(err)
		}
		return Outcome{Success: true, Deleted: true}
	})

	reg.Register(ToolUpdateTask, func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		var params struct {
			TaskID      *int64  `json:"task_id"`
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Completed   *bool   `json:"completed"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return Outcome{Success: false, Error: "invalid arguments: " + err.Error()}
		}
		if params.TaskID == nil {
			return Outcome{Success: false, Error: "task_id is required"}
		}
		if params.Title != nil && strings.TrimSpace(*params.Title) == "" {
			return Outcome{Success: false, Error: "title cannot be empty"}
		}
		upd := store.TaskUpdate{
			Title:       params.Title,
			Description: params.Description,
			Completed:   params.Completed,
		}
		task, err := tasks.Update(ctx, userID, *params.TaskID, upd)
		if err != nil {
			return taskFailure(err)
		}
		return Outcome{Success: true, Task: payload(task)}
	})
}

func taskIDArg(args json.RawMessage) (int64, *Outcome) {
	var params struct {
		TaskID *int64 `json:"task_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return 0, &Outcome{Success: false, Error: "invalid arguments: " + err.Error()}
	}
	if params.TaskID == nil {
		return 0, &Outcome{Success: false, Error: "task_id is required"}
	}
	return *params.TaskID, nil
}

func taskFailure(err error) Outcome {
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{Success: false, Error: "task not found"}
	}
	return Outcome{Success: false, Error: "task operation failed"}
}

func payload(t *models.Task) *TaskPayload {
	return &TaskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
