package llm

import (
	"context"
	"testing"
	"time"
)

func TestIsConfigured(t *testing.T) {
	if NewClient("", time.Second).IsConfigured() {
		t.Error("client without key should not report configured")
	}
	if !NewClient("sk-test", time.Second).IsConfigured() {
		t.Error("client with key should report configured")
	}
}

func TestCreateChatCompletionRequiresKey(t *testing.T) {
	c := NewClient("", time.Second)
	_, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "test"})
	if err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}
