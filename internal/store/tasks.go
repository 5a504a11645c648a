package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/models"
)

// ErrNotFound covers both a missing task and a task owned by someone else.
// Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("task not found")

// TaskUpdate carries the optional fields of an update. Nil means "leave as is".
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

func (u TaskUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}

type TaskStore struct {
	db *database.DB
}

func NewTaskStore(db *database.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Create(ctx context.Context, userID int64, title string, description *string) (*models.Task, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)",
		userID, title, nullString(description), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &models.Task{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// List returns the user's tasks, optionally filtered by completion state.
// An empty result is a valid, non-error outcome.
func (s *TaskStore) List(ctx context.Context, userID int64, completed *bool) ([]models.Task, error) {
	query := "SELECT id, user_id, title, description, completed, created_at, updated_at FROM tasks WHERE user_id = ?"
	args := []interface{}{userID}
	if completed != nil {
		query += " AND completed = ?"
		args = append(args, boolToInt(*completed))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Get(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, description, completed, created_at, updated_at FROM tasks WHERE id = ? AND user_id = ?",
		taskID, userID,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Update applies only the supplied fields. An update with no fields is a
// no-op success: the task is returned unchanged and updated_at keeps its
// previous value.
func (s *TaskStore) Update(ctx context.Context, userID, taskID int64, upd TaskUpdate) (*models.Task, error) {
	if upd.empty() {
		return s.Get(ctx, userID, taskID)
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*upd.Completed))
	}
	args = append(args, taskID, userID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, taskID)
}

// Complete marks the task done. Completing an already-completed task is
// still a success.
func (s *TaskStore) Complete(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = 1, updated_at = ? WHERE id = ? AND user_id = ?",
		time.Now().UTC(), taskID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, taskID)
}

func (s *TaskStore) Delete(ctx context.Context, userID, taskID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description sql.NullString
	var completed int
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &description, &completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	task.Completed = completed == 1
	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
