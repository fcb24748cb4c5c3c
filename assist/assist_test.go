package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eringen/siteforge/builder"
)

// stubInvoker replays canned replies and records what it was asked.
type stubInvoker struct {
	replies []Reply
	err     error

	calls    int
	system   string
	messages []Message
}

func (s *stubInvoker) Invoke(_ context.Context, _, system string, messages []Message) (Reply, error) {
	s.calls++
	s.system = system
	s.messages = messages
	if s.err != nil {
		return Reply{}, s.err
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func testCatalog(t *testing.T) *builder.Catalog {
	t.Helper()
	cat, err := builder.NewCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return cat
}

func TestChatRecordsConversation(t *testing.T) {
	stub := &stubInvoker{replies: []Reply{
		{Text: "What is the page about?", InputTokens: 100, OutputTokens: 20},
		{Text: "Sounds good, drafting now.", InputTokens: 200, OutputTokens: 30},
	}}
	g := NewGenerator(stub, testCatalog(t))
	ctx := context.Background()

	res, err := g.Chat(ctx, "sess-1", "Make me a page", DefaultModel, nil, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if res.Message != "What is the page about?" {
		t.Errorf("Message = %q", res.Message)
	}
	if res.Draft != nil {
		t.Error("a clarifying question should carry no draft")
	}
	if res.ConversationLength != 2 {
		t.Errorf("ConversationLength = %d, want 2", res.ConversationLength)
	}

	if _, err := g.Chat(ctx, "sess-1", "About our bakery", DefaultModel, nil, nil); err != nil {
		t.Fatalf("second Chat failed: %v", err)
	}
	if len(stub.messages) != 3 {
		t.Errorf("model saw %d messages, want full 3-turn history", len(stub.messages))
	}
	if stub.messages[1].Role != "assistant" {
		t.Errorf("middle turn role = %q, want assistant", stub.messages[1].Role)
	}

	history := g.Conversation("sess-1")
	if len(history) != 4 {
		t.Errorf("stored history has %d turns, want 4", len(history))
	}

	g.ClearConversation("sess-1")
	if len(g.Conversation("sess-1")) != 0 {
		t.Error("ClearConversation should drop the history")
	}
}

func TestChatUsageCost(t *testing.T) {
	stub := &stubInvoker{replies: []Reply{{Text: "ok", InputTokens: 1000, OutputTokens: 2000}}}
	g := NewGenerator(stub, testCatalog(t))

	res, err := g.Chat(context.Background(), "s", "hi", "haiku", nil, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	// 1000 in at 0.001/1k + 2000 out at 0.005/1k.
	want := 0.001 + 2*0.005
	if diff := res.Usage.EstimatedCost - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EstimatedCost = %v, want %v", res.Usage.EstimatedCost, want)
	}
}

func TestChatInvokerError(t *testing.T) {
	wantErr := errors.New("throttled")
	stub := &stubInvoker{err: wantErr}
	g := NewGenerator(stub, testCatalog(t))

	_, err := g.Chat(context.Background(), "s", "hi", DefaultModel, nil, nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped invoker error", err)
	}
}

func TestChatFirstTurnPageContext(t *testing.T) {
	stub := &stubInvoker{replies: []Reply{{Text: "ok"}, {Text: "ok"}}}
	g := NewGenerator(stub, testCatalog(t))
	ctx := context.Background()

	page := &builder.PageConfig{
		Title: "About Us",
		Slots: map[string][]builder.PageComponent{
			"main": {{ID: "comp-0", Type: "text-heading", Data: map[string]any{"heading": "Hi"}}},
		},
	}

	if _, err := g.Chat(ctx, "s", "tweak the heading", DefaultModel, nil, page); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !strings.Contains(stub.messages[0].Content, "Currently editing page: About Us") {
		t.Error("first turn should embed the page being edited")
	}
	if !strings.Contains(stub.messages[0].Content, "text-heading") {
		t.Error("first turn should embed the current components")
	}

	if _, err := g.Chat(ctx, "s", "more", DefaultModel, nil, page); err != nil {
		t.Fatalf("second Chat failed: %v", err)
	}
	if strings.Contains(stub.messages[2].Content, "Currently editing page") {
		t.Error("page context should only be injected on the first turn")
	}
}

func TestBuildSystemPromptExcludesSiteWideComponents(t *testing.T) {
	prompt := BuildSystemPrompt(testCatalog(t), nil)

	if !strings.Contains(prompt, `type: "text-heading"`) {
		t.Error("prompt should document page-level components")
	}
	if strings.Contains(prompt, `type: "nav-main"`) {
		t.Error("prompt should not offer navigation components")
	}
	if strings.Contains(prompt, `type: "footer-simple"`) {
		t.Error("prompt should not offer footer components")
	}
	if !strings.Contains(prompt, "[REQUIRED]") {
		t.Error("prompt should flag required fields")
	}
	if strings.Contains(prompt, "Current Site Context") {
		t.Error("no site context section without a site config")
	}
}

func TestBuildSystemPromptSiteContext(t *testing.T) {
	site := &builder.SiteConfig{
		SiteName:      "Acme Co",
		ColorSchemeID: "ocean-blue",
		Pages:         []string{"index", "about"},
	}
	prompt := BuildSystemPrompt(testCatalog(t), site)

	if !strings.Contains(prompt, "Site name: Acme Co") {
		t.Error("prompt should carry the site name")
	}
	if !strings.Contains(prompt, "Existing pages: index, about") {
		t.Error("prompt should list existing pages")
	}
}
