package chat

import (
	"strings"
	"testing"

	"finhelp/internal/core"
)

func testChatOptions() Options {
	return Options{
		TokenBudget:       8000,
		CharsPerToken:     4,
		TranscriptExcerpt: 3000,
		SearchResults:     5,
	}
}

func TestBuildRequestGuardrailsAlwaysPresent(t *testing.T) {
	request := BuildRequest("What is a P/E ratio?", nil, nil, testChatOptions())

	if !strings.Contains(request.System, "ONLY answer questions related to") {
		t.Error("Expected guardrail instructions in system prompt")
	}
	if !strings.Contains(request.System, "politely decline") {
		t.Error("Expected refusal instructions in system prompt")
	}
}

func TestBuildRequestEndsWithUserMessage(t *testing.T) {
	conversation := []core.Message{
		{Role: core.RoleUser, Content: "hello"},
		{Role: core.RoleAssistant, Content: "hi"},
	}

	request := BuildRequest("What is revenue?", conversation, nil, testChatOptions())

	if len(request.Messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(request.Messages))
	}
	last := request.Messages[len(request.Messages)-1]
	if last.Role != core.RoleUser || last.Content != "What is revenue?" {
		t.Errorf("Expected final message to be the new user turn, got %+v", last)
	}
}

func TestBuildRequestContextInjection(t *testing.T) {
	contexts := []core.EarningsContext{
		{Ticker: "AAPL", Quarter: "Q3", Year: "2024", Summary: "Revenue grew 5%."},
		{Ticker: "MSFT", Quarter: "Q1", Year: "2025", Summary: "Cloud revenue accelerated."},
	}

	request := BuildRequest("Compare their growth", nil, contexts, testChatOptions())

	if !strings.Contains(request.System, "AAPL Q3 2024") {
		t.Error("Expected first context identity in system prompt")
	}
	if !strings.Contains(request.System, "MSFT Q1 2025") {
		t.Error("Expected second context identity in system prompt")
	}
	if !strings.Contains(request.System, "Revenue grew 5%.") {
		t.Error("Expected first context summary in system prompt")
	}
	if !strings.Contains(request.System, "comparisons across companies") {
		t.Error("Expected cross-context comparison instruction")
	}
}

func TestBuildRequestNoContextBlockWhenEmpty(t *testing.T) {
	request := BuildRequest("What is EBITDA?", nil, nil, testChatOptions())

	if strings.Contains(request.System, "earnings call analyses") {
		t.Error("Expected no context block for an empty context list")
	}
}

func TestBuildRequestTruncationDropsOldestFirst(t *testing.T) {
	opts := testChatOptions()

	// Each message estimates to 1000 tokens; ten of them blow the budget.
	filler := strings.Repeat("x", 1000*opts.CharsPerToken)
	var conversation []core.Message
	for i := 0; i < 10; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		conversation = append(conversation, core.Message{Role: role, Content: filler})
	}

	request := BuildRequest("final question about margin", conversation, nil, opts)

	if request.Dropped == 0 {
		t.Fatal("Expected truncation to drop messages")
	}
	if len(request.Messages)+request.Dropped != 11 {
		t.Errorf("Expected dropped+kept to account for all 11 messages, got %d+%d",
			len(request.Messages), request.Dropped)
	}
	// Kept messages must be the newest suffix of the conversation.
	last := request.Messages[len(request.Messages)-1]
	if last.Content != "final question about margin" {
		t.Errorf("Expected final user message preserved, got %q", last.Content)
	}
	total := estimateTokens(request.System, opts) + estimateMessages(request.Messages, opts)
	if total > opts.TokenBudget {
		t.Errorf("Expected estimate within budget, got %d > %d", total, opts.TokenBudget)
	}
}

func TestBuildRequestNeverDropsFinalUserMessage(t *testing.T) {
	opts := testChatOptions()

	// The new message alone exceeds the budget. It must still survive.
	huge := strings.Repeat("y", (opts.TokenBudget+100)*opts.CharsPerToken)
	conversation := []core.Message{
		{Role: core.RoleUser, Content: "earlier"},
		{Role: core.RoleAssistant, Content: "reply"},
	}

	request := BuildRequest(huge, conversation, nil, opts)

	if len(request.Messages) != 1 {
		t.Fatalf("Expected all history dropped, got %d messages", len(request.Messages))
	}
	if request.Messages[0].Content != huge {
		t.Error("Expected the oversized final user message to be preserved")
	}
}

func TestBuildRequestTruncationDeterministic(t *testing.T) {
	opts := testChatOptions()
	filler := strings.Repeat("z", 6000*opts.CharsPerToken)
	conversation := []core.Message{
		{Role: core.RoleUser, Content: filler},
		{Role: core.RoleAssistant, Content: filler},
	}

	first := BuildRequest("question", conversation, nil, opts)
	second := BuildRequest("question", conversation, nil, opts)

	if first.Dropped != second.Dropped || len(first.Messages) != len(second.Messages) {
		t.Errorf("Expected identical truncation across runs: %d/%d vs %d/%d",
			first.Dropped, len(first.Messages), second.Dropped, len(second.Messages))
	}
}

func TestBuildRequestTranscriptExcerptWithinBudget(t *testing.T) {
	opts := testChatOptions()
	contexts := []core.EarningsContext{
		{
			Ticker:     "AAPL",
			Quarter:    "Q3",
			Year:       "2024",
			Summary:    "Revenue grew.",
			Transcript: strings.Repeat("operator remarks ", 500),
		},
	}

	request := BuildRequest("What did the CEO say?", nil, contexts, opts)

	if !strings.Contains(request.System, "Transcript excerpt (AAPL Q3 2024)") {
		t.Error("Expected transcript excerpt when budget allows")
	}

	// With the budget consumed by conversation, the excerpt is omitted but
	// the summary block survives.
	filler := strings.Repeat("w", (opts.TokenBudget-50)*opts.CharsPerToken)
	tight := BuildRequest(filler, nil, contexts, opts)
	if strings.Contains(tight.System, "Transcript excerpt") {
		t.Error("Expected transcript excerpt omitted when over budget")
	}
	if !strings.Contains(tight.System, "AAPL Q3 2024") {
		t.Error("Expected context summary retained even when excerpt is omitted")
	}
}

func TestBuildRequestTranscriptExcerptCapped(t *testing.T) {
	opts := testChatOptions()
	opts.TranscriptExcerpt = 100
	contexts := []core.EarningsContext{
		{Ticker: "AAPL", Quarter: "Q3", Year: "2024", Summary: "s", Transcript: strings.Repeat("a", 5000)},
	}

	request := BuildRequest("question", nil, contexts, opts)

	if strings.Contains(request.System, strings.Repeat("a", 101)) {
		t.Error("Expected transcript excerpt capped at the configured length")
	}
	if !strings.Contains(request.System, strings.Repeat("a", 100)) {
		t.Error("Expected the capped excerpt to be present")
	}
}

func TestPromptRendersRolesAndSystem(t *testing.T) {
	request := Request{
		System: "SYSTEM TEXT",
		Messages: []core.Message{
			{Role: core.RoleUser, Content: "one"},
			{Role: core.RoleAssistant, Content: "two"},
			{Role: core.RoleUser, Content: "three"},
		},
	}

	prompt := request.Prompt()

	if !strings.HasPrefix(prompt, "SYSTEM TEXT") {
		t.Error("Expected prompt to open with the system text")
	}
	if !strings.Contains(prompt, "User: one") || !strings.Contains(prompt, "Assistant: two") {
		t.Error("Expected role-labelled turns in the prompt")
	}
	if !strings.HasSuffix(prompt, "Assistant:") {
		t.Error("Expected prompt to end with the assistant cue")
	}
}

func TestNeedsSearch(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"What is Apple's current stock price?", true},
		{"Any news on NVDA today?", true},
		{"What's the latest on the Fed?", true},
		{"What is TSLA trading at right now?", true},
		{"Explain what EBITDA means", false},
		{"How did revenue compare across the loaded quarters?", false},
		{"What is a P/E ratio?", false},
	}

	for _, tt := range tests {
		if got := NeedsSearch(tt.message); got != tt.want {
			t.Errorf("NeedsSearch(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}
