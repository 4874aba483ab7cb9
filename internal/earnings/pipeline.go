package earnings

import (
	"context"
	"errors"
	"strings"

	"finhelp/internal/config"
	"finhelp/internal/core"
	"finhelp/internal/extract"
	"finhelp/internal/llm"
	"finhelp/internal/logger"
	"finhelp/internal/search"
)

// Completer is the completion capability consumed by the summarization stage.
// llm.Client satisfies it.
type Completer interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Options holds pipeline tuning derived from configuration.
type Options struct {
	MaxRetries        int      // Retry budget for the search/extract loop
	MaxResults        int      // Search results requested per query
	SearchDepth       string   // Provider depth hint
	MinContentLength  int      // Minimum chars of usable transcript content
	MaxContentLength  int      // Transcript truncation bound (beginning preserved)
	FinancialKeywords []string // At least one must appear in usable content
	Temperature       float32
	MaxTokens         int32
}

// OptionsFromConfig builds pipeline options from loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxRetries:        cfg.Pipeline.MaxRetries,
		MaxResults:        cfg.Search.MaxResults,
		SearchDepth:       cfg.Search.Providers.Tavily.SearchDepth,
		MinContentLength:  cfg.Pipeline.MinContentLength,
		MaxContentLength:  cfg.Pipeline.MaxContentLength,
		FinancialKeywords: cfg.Pipeline.FinancialKeywords,
		Temperature:       cfg.AI.Gemini.Temperature,
		MaxTokens:         cfg.AI.Gemini.MaxTokens,
	}
}

// Pipeline locates, extracts, and summarizes one earnings-call transcript.
// A Pipeline is reusable across requests; each Run owns its own core.State
// and runs its stages strictly in sequence.
type Pipeline struct {
	searcher  search.Provider
	extractor extract.Extractor
	completer Completer
	scorer    *Scorer
	opts      Options
}

// New creates a pipeline from its capability collaborators.
func New(searcher search.Provider, extractor extract.Extractor, completer Completer, scorer *Scorer, opts Options) *Pipeline {
	return &Pipeline{
		searcher:  searcher,
		extractor: extractor,
		completer: completer,
		scorer:    scorer,
		opts:      opts,
	}
}

// Run executes the pipeline for a request and returns the terminal result.
// It never returns an error: all failures are converted into the result's
// error field, and the step trace is always populated.
func (p *Pipeline) Run(ctx context.Context, req core.Request) core.Result {
	state := core.NewState(req)
	queries := BuildQueries(req)

	for !state.Phase.Terminal() {
		// Cancellation is checked at stage boundaries only; the external
		// calls are opaque.
		if ctx.Err() != nil {
			state.Phase = core.PhaseCancelled
			state.ErrKind = core.ErrKindCancelled
			state.ErrMessage = "analysis cancelled"
			state.AddStep("Cancelled")
			break
		}

		switch state.Phase {
		case core.PhaseStart:
			state.AddStep("Analyzing %s %s", req.Ticker, req.TimePeriod())
			state.Phase = core.PhaseSearching

		case core.PhaseSearching:
			p.searchStage(ctx, state, queries)
			if state.CandidateURL != "" {
				state.Phase = core.PhaseExtracting
			} else {
				p.retryOrFail(state, queries, core.ErrKindNotFound)
			}

		case core.PhaseRetrying:
			p.advanceRetry(state, queries)
			state.Phase = core.PhaseSearching

		case core.PhaseExtracting:
			p.extractStage(ctx, state)
			if state.Transcript != "" {
				state.Phase = core.PhaseSummarizing
			} else {
				p.retryOrFail(state, queries, core.ErrKindExtractionFailed)
			}

		case core.PhaseSummarizing:
			p.summarizeStage(ctx, state)
		}
	}

	logger.Info("pipeline finished",
		"ticker", req.Ticker,
		"period", req.TimePeriod(),
		"phase", string(state.Phase),
		"retries", state.RetryCount,
	)

	return state.Result()
}

// searchStage issues exactly one search call for the current query variant,
// scores the candidates, and selects the best URL. A transport failure is
// logged distinctly but routed the same way as an empty result set.
func (p *Pipeline) searchStage(ctx context.Context, state *core.State, queries []string) {
	query := queries[state.QueryIndex]
	state.AddStep("Searching web for %s transcript (query %d: %q)", state.Request.TimePeriod(), state.QueryIndex+1, query)

	results, err := p.searcher.Search(ctx, query, search.Config{
		MaxResults:  p.opts.MaxResults,
		SearchDepth: p.opts.SearchDepth,
	})
	if err != nil {
		if errors.Is(err, search.ErrProviderUnavailable) {
			state.AddStep("Search provider unavailable: %v", err)
		} else {
			state.AddStep("Search failed: %v", err)
		}
		state.AttemptErr = err.Error()
		return
	}

	candidates := make([]core.Candidate, 0, len(results))
	for i, r := range results {
		candidates = append(candidates, core.Candidate{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Snippet,
			Rank:    i,
		})
	}

	best := p.scorer.SelectBest(candidates, state.Request)
	if best == nil {
		state.AddStep("No acceptable transcript among %d results", len(results))
		state.AttemptErr = "no acceptable candidate"
		return
	}

	state.CandidateURL = best.URL
	state.SourceLabel = SourceLabel(best.URL)
	state.AddStep("Found transcript on %s: %s", state.SourceLabel, best.URL)
}

// extractStage fetches the selected URL and validates the content. If the
// primary field fails validation but the raw-content field independently
// passes, the raw content is used instead.
func (p *Pipeline) extractStage(ctx context.Context, state *core.State) {
	state.AddStep("Extracting content from %s", state.CandidateURL)

	extraction, err := p.extractor.Extract(ctx, state.CandidateURL)
	if err != nil {
		if errors.Is(err, extract.ErrExtractorUnavailable) {
			state.AddStep("Extractor unavailable: %v", err)
		} else {
			state.AddStep("Extraction failed: %v", err)
		}
		state.AttemptErr = err.Error()
		state.CandidateURL = ""
		return
	}

	content := extraction.Content
	if !p.contentUsable(content) && p.contentUsable(extraction.RawContent) {
		state.AddStep("Primary content unusable, falling back to raw content")
		content = extraction.RawContent
	}

	if !p.contentUsable(content) {
		state.AddStep("Extracted content too short or off-topic (%d chars)", len(content))
		state.AttemptErr = "content failed validation"
		state.CandidateURL = ""
		return
	}

	if len(content) > p.opts.MaxContentLength {
		// Keep the beginning: headline figures cluster there.
		content = content[:p.opts.MaxContentLength]
	}

	state.Transcript = content
	state.AddStep("Extracted %d characters of transcript content", len(content))
}

// contentUsable checks the extraction validation rules: minimum length and at
// least one financial-domain keyword.
func (p *Pipeline) contentUsable(content string) bool {
	if len(content) < p.opts.MinContentLength {
		return false
	}
	lower := strings.ToLower(content)
	for _, kw := range p.opts.FinancialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// summarizeStage sends the validated transcript to the completion capability.
// This stage is never retried; a completion failure is terminal.
func (p *Pipeline) summarizeStage(ctx context.Context, state *core.State) {
	state.AddStep("Analyzing transcript")

	prompt := BuildSummaryPrompt(state.Request, state.Transcript)
	summary, err := p.completer.GenerateText(ctx, prompt, llm.TextGenerationOptions{
		Temperature: p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		state.Phase = core.PhaseFailed
		state.ErrKind = core.ErrKindCompletionFailed
		state.ErrMessage = terminalMessage(core.ErrKindCompletionFailed, state.Request)
		if err != nil {
			state.AddStep("Summarization failed: %v", err)
		} else {
			state.AddStep("Summarization returned empty output")
		}
		return
	}

	state.Summary = strings.TrimSpace(summary)
	state.Phase = core.PhaseDone
	state.AddStep("Summary complete")
}

// shouldRetry reports whether another attempt is permitted: the retry budget
// must not be exhausted and an untried query variant must remain. Variants
// never wrap.
func (p *Pipeline) shouldRetry(state *core.State, queries []string) bool {
	return state.RetryCount < p.opts.MaxRetries && state.QueryIndex+1 < len(queries)
}

// advanceRetry moves to the next query variant, clearing per-attempt fields.
func (p *Pipeline) advanceRetry(state *core.State, queries []string) {
	state.RetryCount++
	state.QueryIndex++
	state.AttemptErr = ""
	state.CandidateURL = ""
	state.SourceLabel = ""
	state.Transcript = ""
	state.AddStep("Retrying with broader query: %q", queries[state.QueryIndex])
}

// retryOrFail routes a failed search or extraction attempt to the retry
// controller, or to the terminal failure state once the budget or the query
// variants are exhausted.
func (p *Pipeline) retryOrFail(state *core.State, queries []string, kind core.ErrorKind) {
	if p.shouldRetry(state, queries) {
		state.Phase = core.PhaseRetrying
		return
	}
	state.Phase = core.PhaseFailed
	state.ErrKind = kind
	state.ErrMessage = terminalMessage(kind, state.Request)
	state.AddStep("Giving up after %d retries", state.RetryCount)
}

// terminalMessage renders the user-readable error so callers never need to
// inspect the step trace for an actionable message.
func terminalMessage(kind core.ErrorKind, req core.Request) string {
	switch kind {
	case core.ErrKindNotFound:
		return "No " + req.TimePeriod() + " earnings call transcript found for " + req.Ticker
	case core.ErrKindExtractionFailed:
		return "Found a transcript for " + req.Ticker + " " + req.TimePeriod() + " but could not extract usable content"
	case core.ErrKindCompletionFailed:
		return "Could not summarize the " + req.Ticker + " " + req.TimePeriod() + " transcript"
	default:
		return "Analysis failed"
	}
}
