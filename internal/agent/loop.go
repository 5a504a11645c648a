package agent

import (
	"context"
	"encoding/json"

	"github.com/tidytask/tidytask/internal/llm"
	"github.com/tidytask/tidytask/internal/logger"
	"github.com/tidytask/tidytask/internal/models"
	"github.com/tidytask/tidytask/internal/store"
)

const systemPrompt = `You are a helpful assistant that manages tasks for users. You can add, list, complete, update, and delete tasks using the tools available to you. When the user asks about their tasks, use the tools rather than guessing. After acting, confirm what you did in plain language. Keep replies short and friendly.`

// fallbackText is used when the model acted through tools but produced no
// reply text of its own.
const fallbackText = "I processed your request."

// degradedText is returned when the model or the conversation store is
// unavailable. The turn still produces a well-formed response.
const degradedText = "Sorry, I couldn't process that right now. Please try again in a moment."

// Completer is the single model capability the runner needs. Tests
// substitute a fake.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error)
}

// ToolCallRecord reports one executed tool call within a turn.
type ToolCallRecord struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Result     Outcome        `json:"result"`
}

// Response is the outcome of one agent turn. Run never fails; degraded
// turns carry an apologetic ResponseText and no tool calls.
type Response struct {
	ResponseText string           `json:"response"`
	ToolCalls    []ToolCallRecord `json:"tool_calls"`
}

// Runner drives one model turn per user message: build context from the
// transcript, call the model, and execute any tool calls in the order the
// model issued them. It persists nothing; recording the turn in the
// conversation is the caller's job.
type Runner struct {
	client        Completer
	registry      *Registry
	conversations *store.ConversationStore
	model         string
	summarize     bool
	toolDefs      []llm.ToolDef
}

func NewRunner(client Completer, registry *Registry, conversations *store.ConversationStore, model string, summarize bool) *Runner {
	return &Runner{
		client:        client,
		registry:      registry,
		conversations: conversations,
		model:         model,
		summarize:     summarize,
		toolDefs:      BuildTaskToolDefs(),
	}
}

// Run executes one turn for the given user message: prior transcript plus
// the new message go to the model, requested tool calls run sequentially
// with the caller's identity bound in, and the reply text comes back with
// the ordered tool call records.
func (r *Runner) Run(ctx context.Context, userID, conversationID int64, userMessage string) *Response {
	history, err := r.conversations.History(ctx, conversationID)
	if err != nil {
		logger.Error("Failed to load conversation history: %v", err)
		return &Response{ResponseText: degradedText, ToolCalls: []ToolCallRecord{}}
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: models.RoleUser, Content: userMessage})

	resp, err := r.client.CreateChatCompletion(ctx, llm.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		Tools:    r.toolDefs,
	})
	if err != nil {
		logger.Error("Model call failed: %v", err)
		return &Response{ResponseText: degradedText, ToolCalls: []ToolCallRecord{}}
	}
	if len(resp.Choices) == 0 {
		logger.Error("Model returned no choices")
		return &Response{ResponseText: degradedText, ToolCalls: []ToolCallRecord{}}
	}

	assistant := resp.Choices[0].Message
	records := r.executeToolCalls(ctx, userID, assistant.ToolCalls)

	text := assistant.Content
	if len(records) > 0 && r.summarize {
		if summarized, ok := r.summarizeTurn(ctx, messages, assistant, records); ok {
			text = summarized
		}
	}
	if text == "" {
		text = fallbackText
	}

	return &Response{ResponseText: text, ToolCalls: records}
}

// executeToolCalls dispatches each call in model order. A failing call is
// recorded and the turn continues; nothing here aborts the loop.
func (r *Runner) executeToolCalls(ctx context.Context, userID int64, calls []llm.ToolCall) []ToolCallRecord {
	records := make([]ToolCallRecord, 0, len(calls))
	for _, call := range calls {
		args := json.RawMessage(call.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}

		var outcome Outcome
		if tool, ok := ParseTool(call.Function.Name); ok {
			outcome = r.registry.Dispatch(ctx, tool, userID, args)
		} else {
			outcome = Outcome{Success: false, Error: "unknown tool: " + call.Function.Name}
		}

		params := map[string]any{}
		if err := json.Unmarshal(args, &params); err != nil {
			params = map[string]any{}
		}

		if outcome.Success {
			logger.Agent(call.Function.Name, "ok")
		} else {
			logger.Agent(call.Function.Name, "failed: "+outcome.Error)
		}

		records = append(records, ToolCallRecord{
			ToolName:   call.Function.Name,
			Parameters: params,
			Result:     outcome,
		})
	}
	return records
}

// summarizeTurn asks the model to narrate the tool results in a second
// round trip. Any failure falls back to single round trip behavior.
func (r *Runner) summarizeTurn(ctx context.Context, messages []llm.ChatMessage, assistant llm.ChatMessage, records []ToolCallRecord) (string, bool) {
	followup := append(messages, assistant)
	for i, call := range assistant.ToolCalls {
		if i >= len(records) {
			break
		}
		result, err := json.Marshal(records[i].Result)
		if err != nil {
			result = []byte(`{"success":false,"error":"unserializable result"}`)
		}
		followup = append(followup, llm.ChatMessage{
			Role:       "tool",
			Content:    string(result),
			ToolCallID: call.ID,
		})
	}

	resp, err := r.client.CreateChatCompletion(ctx, llm.ChatCompletionRequest{
		Model:    r.model,
		Messages: followup,
	})
	if err != nil {
		logger.Warn("Summary call failed, using direct reply: %v", err)
		return "", false
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", false
	}
	return resp.Choices[0].Message.Content, true
}
