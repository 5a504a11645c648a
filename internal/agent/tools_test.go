package agent

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/store"
)

func newToolEnv(t *testing.T) (*Registry, *store.TaskStore, *database.DB) {
	t.Helper()

	db, err := database.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tasks := store.NewTaskStore(db)
	reg := NewRegistry()
	RegisterTaskTools(reg, tasks)
	return reg, tasks, db
}

func seedUser(t *testing.T, db *database.DB, username string) int64 {
	t.Helper()

	now := time.Now().UTC()
	res, err := db.Exec(
		"INSERT INTO users (username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)",
		username, "x", now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get user id: %v", err)
	}
	return id
}

func TestAddTaskTool(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	out := reg.Dispatch(context.Background(), ToolAddTask, userID,
		json.RawMessage(`{"title":"Buy milk","description":"2 liters"}`))
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Task == nil {
		t.Fatal("expected task in outcome")
	}
	if out.Task.Title != "Buy milk" {
		t.Errorf("expected title 'Buy milk', got %q", out.Task.Title)
	}
	if out.Task.Description == nil || *out.Task.Description != "2 liters" {
		t.Errorf("unexpected description: %v", out.Task.Description)
	}
	if out.Task.ID <= 0 {
		t.Errorf("expected positive task id, got %d", out.Task.ID)
	}
}

func TestAddTaskToolRequiresTitle(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	ctx := context.Background()
	for _, args := range []string{`{}`, `{"title":""}`, `{"title":"   "}`, `{"title":"\t\n"}`} {
		out := reg.Dispatch(ctx, ToolAddTask, userID, json.RawMessage(args))
		if out.Success {
			t.Errorf("args %s: expected failure", args)
		}
	}

	// Nothing was persisted by the rejected calls.
	list := reg.Dispatch(ctx, ToolListTasks, userID, json.RawMessage(`{}`))
	if !list.Success || len(list.Tasks) != 0 {
		t.Errorf("expected no tasks after rejected creates, got %+v", list)
	}
}

func TestAddTaskToolTrimsTitle(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	out := reg.Dispatch(context.Background(), ToolAddTask, userID,
		json.RawMessage(`{"title":"  Buy milk  "}`))
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Task.Title != "Buy milk" {
		t.Errorf("expected trimmed title, got %q", out.Task.Title)
	}
}

func TestListTasksToolFilter(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	ctx := context.Background()
	first := reg.Dispatch(ctx, ToolAddTask, userID, json.RawMessage(`{"title":"one"}`))
	reg.Dispatch(ctx, ToolAddTask, userID, json.RawMessage(`{"title":"two"}`))
	reg.Dispatch(ctx, ToolCompleteTask, userID,
		json.RawMessage(`{"task_id":`+itoa(first.Task.ID)+`}`))

	all := reg.Dispatch(ctx, ToolListTasks, userID, json.RawMessage(`{}`))
	if !all.Success || len(all.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %+v", all)
	}

	done := reg.Dispatch(ctx, ToolListTasks, userID, json.RawMessage(`{"completed":true}`))
	if !done.Success || len(done.Tasks) != 1 {
		t.Fatalf("expected 1 completed task, got %+v", done)
	}
	if done.Tasks[0].Title != "one" {
		t.Errorf("expected completed task 'one', got %q", done.Tasks[0].Title)
	}
}

func TestCompleteTaskToolNotFound(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	out := reg.Dispatch(context.Background(), ToolCompleteTask, userID,
		json.RawMessage(`{"task_id":9999}`))
	if out.Success {
		t.Error("expected failure for unknown task id")
	}
	if out.Error != "task not found" {
		t.Errorf("expected 'task not found', got %q", out.Error)
	}
}

func TestToolsEnforceOwnership(t *testing.T) {
	reg, _, db := newToolEnv(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	ctx := context.Background()
	created := reg.Dispatch(ctx, ToolAddTask, alice, json.RawMessage(`{"title":"private"}`))
	if !created.Success {
		t.Fatalf("setup failed: %+v", created)
	}
	target := `{"task_id":` + itoa(created.Task.ID) + `}`

	for _, tool := range []Tool{ToolCompleteTask, ToolDeleteTask, ToolUpdateTask} {
		out := reg.Dispatch(ctx, tool, bob, json.RawMessage(target))
		if out.Success {
			t.Errorf("%s: expected failure across owners", tool)
		}
		if out.Error != "task not found" {
			t.Errorf("%s: expected 'task not found', got %q", tool, out.Error)
		}
	}

	list := reg.Dispatch(ctx, ToolListTasks, bob, json.RawMessage(`{}`))
	if !list.Success || len(list.Tasks) != 0 {
		t.Errorf("expected bob to see no tasks, got %+v", list)
	}
}

func TestDeleteTaskTool(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	ctx := context.Background()
	created := reg.Dispatch(ctx, ToolAddTask, userID, json.RawMessage(`{"title":"gone soon"}`))
	target := `{"task_id":` + itoa(created.Task.ID) + `}`

	out := reg.Dispatch(ctx, ToolDeleteTask, userID, json.RawMessage(target))
	if !out.Success || !out.Deleted {
		t.Fatalf("expected deleted outcome, got %+v", out)
	}

	again := reg.Dispatch(ctx, ToolDeleteTask, userID, json.RawMessage(target))
	if again.Success {
		t.Error("expected second delete to fail")
	}
}

func TestUpdateTaskTool(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	ctx := context.Background()
	created := reg.Dispatch(ctx, ToolAddTask, userID, json.RawMessage(`{"title":"draft"}`))

	out := reg.Dispatch(ctx, ToolUpdateTask, userID,
		json.RawMessage(`{"task_id":`+itoa(created.Task.ID)+`,"title":"final","completed":true}`))
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Task.Title != "final" || !out.Task.Completed {
		t.Errorf("update not applied: %+v", out.Task)
	}
	if out.Task.Description != nil {
		t.Errorf("description should stay unset, got %v", *out.Task.Description)
	}
}

func TestUpdateTaskToolRejectsEmptyTitle(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	ctx := context.Background()
	created := reg.Dispatch(ctx, ToolAddTask, userID, json.RawMessage(`{"title":"draft"}`))

	for _, args := range []string{
		`{"task_id":` + itoa(created.Task.ID) + `,"title":""}`,
		`{"task_id":` + itoa(created.Task.ID) + `,"title":"   "}`,
	} {
		out := reg.Dispatch(ctx, ToolUpdateTask, userID, json.RawMessage(args))
		if out.Success {
			t.Errorf("args %s: expected failure", args)
		}
	}

	list := reg.Dispatch(ctx, ToolListTasks, userID, json.RawMessage(`{}`))
	if len(list.Tasks) != 1 || list.Tasks[0].Title != "draft" {
		t.Errorf("title should be unchanged after rejected updates, got %+v", list.Tasks)
	}
}

func TestUpdateTaskToolRequiresID(t *testing.T) {
	reg, _, db := newToolEnv(t)
	userID := seedUser(t, db, "alice")

	out := reg.Dispatch(context.Background(), ToolUpdateTask, userID,
		json.RawMessage(`{"title":"no target"}`))
	if out.Success {
		t.Error("expected failure without task_id")
	}
}

func TestToolDefsCoverRegistry(t *testing.T) {
	reg, _, _ := newToolEnv(t)

	defs := BuildTaskToolDefs()
	byName := map[string]bool{}
	for _, d := range defs {
		if d.Type != "function" {
			t.Errorf("tool %s: expected type 'function', got %q", d.Function.Name, d.Type)
		}
		var schema map[string]any
		if err := json.Unmarshal(d.Function.Parameters, &schema); err != nil {
			t.Errorf("tool %s: parameters not valid JSON: %v", d.Function.Name, err)
		}
		byName[d.Function.Name] = true
	}
	for _, name := range reg.Names() {
		if !byName[string(name)] {
			t.Errorf("registered tool %s has no schema", name)
		}
	}
	if len(defs) != len(reg.Names()) {
		t.Errorf("expected %d schemas, got %d", len(reg.Names()), len(defs))
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
