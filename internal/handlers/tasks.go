package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/middleware"
	"github.com/tidytask/tidytask/internal/store"
)

type TasksHandler struct {
	db    *database.DB
	tasks *store.TaskStore
}

func NewTasksHandler(db *database.DB, tasks *store.TaskStore) *TasksHandler {
	return &TasksHandler{db: db, tasks: tasks}
}

func taskIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var completed *bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed must be true or false")
			return
		}
		completed = &v
	}

	tasks, err := h.tasks.List(r.Context(), userID, completed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.db.LogAudit(userID, "task_created", "tasks", "task", strconv.FormatInt(task.ID, 10), task.Title)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"task": task})
}

func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"task": task})
}

func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, store.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.db.LogAudit(userID, "task_updated", "tasks", "task", strconv.FormatInt(task.ID, 10), "")
	writeJSON(w, http.StatusOK, map[string]interface{}{"task": task})
}

func (h *TasksHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.tasks.Complete(r.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}

	h.db.LogAudit(userID, "task_completed", "tasks", "task", strconv.FormatInt(task.ID, 10), "")
	writeJSON(w, http.StatusOK, map[string]interface{}{"task": task})
}

func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	taskID, err := taskIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.db.LogAudit(userID, "task_deleted", "tasks", "task", strconv.FormatInt(taskID, 10), "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}
