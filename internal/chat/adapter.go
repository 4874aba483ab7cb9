package chat

import (
	"fmt"
	"strings"

	"finhelp/internal/config"
	"finhelp/internal/core"
)

// Finance guardrails: the assistant answers finance questions only and
// redirects everything else with a fixed, polite refusal.
const financeSystemPrompt = `You are a helpful finance assistant. You ONLY answer questions related to:
- Finance, investing, trading, stocks, bonds, ETFs
- Companies, business models, corporate finance
- Economic concepts, markets, GDP, inflation
- Personal finance, budgeting, retirement planning
- Financial ratios, analysis, accounting

If someone asks about non-finance topics (sports, entertainment, politics, cooking, etc.), politely decline and say:
"I'm specialized in finance topics. I can help you with questions about investing, companies, markets, or economic concepts. How can I assist you with finance?"

When answering finance questions:
- Cite your sources when search results are provided
- Be clear and professional
- Explain complex concepts simply`

// Options controls prompt assembly and the truncation policy.
type Options struct {
	TokenBudget       int // Conversation ceiling in estimated tokens
	CharsPerToken     int // Divisor for the character-count token estimate
	TranscriptExcerpt int // Max characters of transcript injected per context
	SearchResults     int // Results requested when the service searches
}

// OptionsFromConfig builds chat options from loaded configuration.
func OptionsFromConfig(cfg config.Chat) Options {
	return Options{
		TokenBudget:       cfg.TokenBudget,
		CharsPerToken:     cfg.CharsPerToken,
		TranscriptExcerpt: cfg.TranscriptExcerpt,
		SearchResults:     cfg.SearchResults,
	}
}

// Request is a provider-ready chat completion request. Messages always end
// with the user message that triggered the turn.
type Request struct {
	System   string
	Messages []core.Message
	Dropped  int // Conversation messages removed by the truncation policy
}

// Prompt renders the request as a single completion prompt.
func (r Request) Prompt() string {
	var b strings.Builder
	b.WriteString(r.System)
	b.WriteString("\n\n")
	for _, msg := range r.Messages {
		switch msg.Role {
		case core.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// BuildRequest assembles the system prompt and conversation for one chat
// turn. Earnings contexts are injected as structured system blocks so the
// model can answer cross-context comparison questions. The conversation is
// truncated oldest-first to the token budget; the final user message is
// never dropped. The whole assembly is deterministic.
func BuildRequest(message string, conversation []core.Message, contexts []core.EarningsContext, opts Options) Request {
	messages := make([]core.Message, 0, len(conversation)+1)
	messages = append(messages, conversation...)
	messages = append(messages, core.Message{Role: core.RoleUser, Content: message})

	system := buildSystemBase(contexts)

	dropped := 0
	for len(messages) > 1 && estimateTokens(system, opts)+estimateMessages(messages, opts) > opts.TokenBudget {
		messages = messages[1:]
		dropped++
	}

	// Transcript excerpts ride along only when the trimmed conversation
	// leaves headroom under the same budget.
	system = addTranscriptExcerpts(system, contexts, opts,
		opts.TokenBudget-estimateMessages(messages, opts))

	return Request{System: system, Messages: messages, Dropped: dropped}
}

// buildSystemBase renders the guardrail prompt plus each context's
// identifying fields and summary.
func buildSystemBase(contexts []core.EarningsContext) string {
	if len(contexts) == 0 {
		return financeSystemPrompt
	}

	var b strings.Builder
	b.WriteString(financeSystemPrompt)
	b.WriteString("\n\nYou have the following earnings call analyses loaded. Use them to answer questions, including comparisons across companies and quarters.\n")
	for i, ec := range contexts {
		fmt.Fprintf(&b, "\n--- Context %d: %s %s %s ---\nSummary:\n%s\n", i+1, ec.Ticker, ec.Quarter, ec.Year, ec.Summary)
	}
	return b.String()
}

// addTranscriptExcerpts appends transcript excerpts while the running
// estimate stays within the remaining budget.
func addTranscriptExcerpts(system string, contexts []core.EarningsContext, opts Options, remaining int) string {
	var b strings.Builder
	b.WriteString(system)
	for _, ec := range contexts {
		if ec.Transcript == "" {
			continue
		}
		excerpt := ec.Transcript
		if opts.TranscriptExcerpt > 0 && len(excerpt) > opts.TranscriptExcerpt {
			excerpt = excerpt[:opts.TranscriptExcerpt]
		}
		block := fmt.Sprintf("\nTranscript excerpt (%s %s %s):\n%s\n", ec.Ticker, ec.Quarter, ec.Year, excerpt)
		if estimateTokens(b.String(), opts)+estimateTokens(block, opts) > remaining {
			break
		}
		b.WriteString(block)
	}
	return b.String()
}

// estimateTokens approximates token count as character count divided by a
// fixed factor, independent of any provider tokenizer.
func estimateTokens(text string, opts Options) int {
	return len(text) / opts.CharsPerToken
}

func estimateMessages(messages []core.Message, opts Options) int {
	total := 0
	for _, msg := range messages {
		total += estimateTokens(msg.Content, opts)
	}
	return total
}
