package chat

import (
	"context"
	"fmt"
	"strings"

	"finhelp/internal/core"
	"finhelp/internal/llm"
	"finhelp/internal/logger"
	"finhelp/internal/search"
)

// Completer generates text from a prompt. *llm.Client satisfies it.
type Completer interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Service runs one finance-chat turn: decide whether to search, assemble the
// provider request, and call the completion capability.
type Service struct {
	searcher  search.Provider
	completer Completer
	opts      Options
}

// NewService creates a chat service. The searcher may be nil, in which case
// no turn ever searches.
func NewService(searcher search.Provider, completer Completer, opts Options) *Service {
	return &Service{
		searcher:  searcher,
		completer: completer,
		opts:      opts,
	}
}

// Respond answers one user message. It returns the assistant message (with
// any search sources attached) and the updated conversation including both
// new turns. A search failure is not fatal: the turn proceeds without
// results.
func (s *Service) Respond(ctx context.Context, message string, conversation []core.Message, contexts []core.EarningsContext) (core.Message, []core.Message, error) {
	var sources []string
	var resultsBlock string

	if s.searcher != nil && NeedsSearch(message) {
		results, err := s.searcher.Search(ctx, message, search.Config{MaxResults: s.opts.SearchResults})
		if err != nil {
			logger.Warn("Chat search failed, answering without results", "error", err)
		} else {
			resultsBlock = formatSearchResults(results)
			for _, r := range results {
				if r.URL != "" {
					sources = append(sources, r.URL)
				}
			}
		}
	}

	request := BuildRequest(message, conversation, contexts, s.opts)
	if resultsBlock != "" {
		request.System += "\n\nWeb search results for the current question:\n" + resultsBlock
	}

	response, err := s.completer.GenerateText(ctx, request.Prompt(), llm.TextGenerationOptions{
		Temperature: 0.3,
	})
	if err != nil {
		return core.Message{}, conversation, fmt.Errorf("chat completion failed: %w", err)
	}

	assistant := core.Message{
		Role:    core.RoleAssistant,
		Content: strings.TrimSpace(response),
		Sources: sources,
	}
	updated := append(append([]core.Message(nil), conversation...),
		core.Message{Role: core.RoleUser, Content: message},
		assistant,
	)
	return assistant, updated, nil
}

// formatSearchResults renders results the way the model consumes them.
func formatSearchResults(results []search.Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		snippet := r.Snippet
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nSnippet: %s", r.Title, r.URL, snippet))
	}
	return strings.Join(blocks, "\n\n")
}
