// Package assist drives AI-backed page drafting: it holds per-session
// conversations with a language model, teaches the model the component
// vocabulary through a generated system prompt, and turns model replies
// into validated page drafts. The model call itself sits behind the
// Invoker interface so the package stays testable without network access.
package assist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eringen/siteforge/builder"
)

// Message is one turn of a drafting conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Reply is a model response plus its token accounting.
type Reply struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Invoker sends one conversation to a model and returns its reply.
type Invoker interface {
	Invoke(ctx context.Context, modelID, system string, messages []Message) (Reply, error)
}

// ModelInfo describes a selectable model and its per-1k-token pricing.
type ModelInfo struct {
	Key          string  `json:"key"`
	ModelID      string  `json:"-"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	InputCostPer1K  float64 `json:"-"`
	OutputCostPer1K float64 `json:"-"`
	CostIndicator string `json:"cost_indicator"`
}

// DefaultModel is the model key used when a chat request names none.
const DefaultModel = "haiku"

var models = map[string]ModelInfo{
	"haiku": {
		Key:             "haiku",
		ModelID:         "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		Name:            "Claude 4.5 Haiku",
		Description:     "Fast and cost-effective page generation",
		InputCostPer1K:  0.001,
		OutputCostPer1K: 0.005,
		CostIndicator:   "$",
	},
}

// AvailableModels lists the selectable models for the UI, sorted by key.
func AvailableModels() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, info := range models {
		out = append(out, info)
	}
	return out
}

// Usage is the token and cost accounting for one chat turn.
type Usage struct {
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// ChatResult is the outcome of one successful chat turn. Draft is non-nil
// only when the model's reply carried a parsable page structure.
type ChatResult struct {
	Message            string `json:"message"`
	Draft              *Draft `json:"draft,omitempty"`
	Usage              Usage  `json:"usage"`
	Model              string `json:"model"`
	ConversationLength int    `json:"conversation_length"`
}

// Generator manages drafting conversations. Conversations live in process
// memory keyed by session id; they do not survive a restart, which is
// acceptable for a drafting aid.
type Generator struct {
	invoker Invoker
	catalog *builder.Catalog

	mu            sync.Mutex
	conversations map[string][]Message

	now func() time.Time
}

// NewGenerator creates a Generator over the given model invoker and
// component catalog.
func NewGenerator(invoker Invoker, catalog *builder.Catalog) *Generator {
	return &Generator{
		invoker:       invoker,
		catalog:       catalog,
		conversations: make(map[string][]Message),
		now:           time.Now,
	}
}

// Conversation returns a copy of the session's message history.
func (g *Generator) Conversation(sessionID string) []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	history := g.conversations[sessionID]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// ClearConversation drops the session's message history.
func (g *Generator) ClearConversation(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conversations, sessionID)
}

// Chat appends the user message to the session's conversation, invokes the
// model, records its reply, and extracts any page draft it contains. The
// site config feeds the system prompt; currentPage, when editing, is shown
// to the model on the conversation's first turn only.
func (g *Generator) Chat(ctx context.Context, sessionID, userMessage, modelKey string, site *builder.SiteConfig, currentPage *builder.PageConfig) (ChatResult, error) {
	model, ok := models[modelKey]
	if !ok {
		model = models[DefaultModel]
	}

	g.mu.Lock()
	history := g.conversations[sessionID]
	if currentPage != nil && len(history) == 0 {
		userMessage = userMessage + pageContextSuffix(currentPage)
	}
	history = append(history, Message{Role: "user", Content: userMessage})
	messages := make([]Message, len(history))
	copy(messages, history)
	g.mu.Unlock()

	reply, err := g.invoker.Invoke(ctx, model.ModelID, BuildSystemPrompt(g.catalog, site), messages)
	if err != nil {
		return ChatResult{}, fmt.Errorf("assist: model invocation: %w", err)
	}

	g.mu.Lock()
	history = append(history, Message{Role: "assistant", Content: reply.Text})
	g.conversations[sessionID] = history
	length := len(history)
	g.mu.Unlock()

	cost := float64(reply.InputTokens)/1000*model.InputCostPer1K +
		float64(reply.OutputTokens)/1000*model.OutputCostPer1K

	return ChatResult{
		Message: reply.Text,
		Draft:   ParseResponse(reply.Text),
		Usage: Usage{
			InputTokens:   reply.InputTokens,
			OutputTokens:  reply.OutputTokens,
			EstimatedCost: cost,
		},
		Model:              model.Name,
		ConversationLength: length,
	}, nil
}
