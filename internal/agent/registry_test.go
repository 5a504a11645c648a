package agent

import (
	"context"
	"encoding/json"
	"testing"
)

func TestDispatchKnownTool(t *testing.T) {
	reg := NewRegistry()
	reg.Register("echo", func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		if userID != 7 {
			t.Errorf("expected userID 7, got %d", userID)
		}
		return Outcome{Success: true}
	})

	out := reg.Dispatch(context.Background(), "echo", 7, json.RawMessage(`{}`))
	if !out.Success {
		t.Errorf("expected success, got %+v", out)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	reg := NewRegistry()

	out := reg.Dispatch(context.Background(), "no_such_tool", 1, json.RawMessage(`{}`))
	if out.Success {
		t.Error("expected failure for unknown tool")
	}
	if out.Error == "" {
		t.Error("expected error message for unknown tool")
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("tool", func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		return Outcome{Success: false, Error: "first"}
	})
	reg.Register("tool", func(ctx context.Context, userID int64, args json.RawMessage) Outcome {
		return Outcome{Success: true}
	})

	out := reg.Dispatch(context.Background(), "tool", 1, nil)
	if !out.Success {
		t.Errorf("expected replacement handler to run, got %+v", out)
	}
	if len(reg.Names()) != 1 {
		t.Errorf("expected 1 registered name, got %d", len(reg.Names()))
	}
}
