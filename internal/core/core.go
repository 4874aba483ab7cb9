package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quarter identifies a calendar quarter (Q1-Q4).
type Quarter string

const (
	QuarterQ1 Quarter = "Q1"
	QuarterQ2 Quarter = "Q2"
	QuarterQ3 Quarter = "Q3"
	QuarterQ4 Quarter = "Q4"
)

// Request identifies the earnings call to locate and summarize.
// Build one with NewRequest so the validation invariants hold.
type Request struct {
	Ticker  string  `json:"ticker"`  // Upper-cased stock ticker, e.g. "AAPL"
	Quarter Quarter `json:"quarter"` // Calendar quarter Q1-Q4
	Year    int     `json:"year"`    // Four-digit calendar year
}

// NewRequest validates and normalizes pipeline input. The year may come in as
// a string from callers that pass it through JSON.
func NewRequest(ticker, quarter, year string) (Request, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Request{}, fmt.Errorf("%w: ticker is required", ErrInvalidRequest)
	}

	q := Quarter(strings.ToUpper(strings.TrimSpace(quarter)))
	switch q {
	case QuarterQ1, QuarterQ2, QuarterQ3, QuarterQ4:
	default:
		return Request{}, fmt.Errorf("%w: quarter must be Q1, Q2, Q3, or Q4 (got %q)", ErrInvalidRequest, quarter)
	}

	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1900 || y > 2200 {
		return Request{}, fmt.Errorf("%w: year must be a four-digit year (got %q)", ErrInvalidRequest, year)
	}

	return Request{Ticker: ticker, Quarter: q, Year: y}, nil
}

// TimePeriod renders the request period as shown to users, e.g. "Q3 2024".
func (r Request) TimePeriod() string {
	return fmt.Sprintf("%s %d", r.Quarter, r.Year)
}

// Candidate is a search-result URL considered as a possible transcript source.
// Candidates are ephemeral; they live only for the duration of one search stage.
type Candidate struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"` // Original position in search results, used for stable tie-breaks
}

// Phase tracks the orchestrator's position in the pipeline state machine.
type Phase string

const (
	PhaseStart       Phase = "start"
	PhaseSearching   Phase = "searching"
	PhaseRetrying    Phase = "retrying"
	PhaseExtracting  Phase = "extracting"
	PhaseSummarizing Phase = "summarizing"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
	PhaseCancelled   Phase = "cancelled"
)

// Terminal reports whether the phase ends a pipeline run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseCancelled
}

// ErrorKind classifies terminal pipeline failures so callers get an
// actionable message without inspecting the step trace.
type ErrorKind string

const (
	ErrKindNone             ErrorKind = ""
	ErrKindNotFound         ErrorKind = "not_found"
	ErrKindExtractionFailed ErrorKind = "extraction_failed"
	ErrKindCompletionFailed ErrorKind = "completion_failed"
	ErrKindCancelled        ErrorKind = "cancelled"
)

// State is the single mutable record threaded through pipeline stages.
// It is owned exclusively by one orchestrator run and never shared across
// requests. Steps are append-only.
type State struct {
	Request      Request
	Phase        Phase
	QueryIndex   int    // Index into the query-variant list for the current attempt
	CandidateURL string // Best-scoring transcript URL selected by the search stage
	SourceLabel  string // Publisher label for the selected URL, e.g. "Seeking Alpha"
	Transcript   string // Validated (possibly truncated) transcript content
	Summary      string
	Steps        []string
	RetryCount   int
	AttemptErr   string    // Per-attempt failure note, cleared by the retry controller
	ErrKind      ErrorKind // Set only at terminal failure
	ErrMessage   string    // Human-readable terminal error
	StartedAt    time.Time
}

// NewState creates the pipeline state for one request.
func NewState(req Request) *State {
	return &State{
		Request:   req,
		Phase:     PhaseStart,
		StartedAt: time.Now().UTC(),
	}
}

// AddStep appends a human-readable progress message to the trace.
func (s *State) AddStep(format string, args ...any) {
	s.Steps = append(s.Steps, fmt.Sprintf(format, args...))
}

// Result converts the terminal state into the caller-facing result record.
func (s *State) Result() Result {
	return Result{
		Ticker:     s.Request.Ticker,
		TimePeriod: s.Request.TimePeriod(),
		Summary:    s.Summary,
		SourceURL:  s.CandidateURL,
		Source:     s.SourceLabel,
		Transcript: s.Transcript,
		Steps:      append([]string(nil), s.Steps...),
		ErrorKind:  s.ErrKind,
		Error:      s.ErrMessage,
	}
}

// Result is the pipeline's terminal output: exactly one of Summary or Error
// is set, and Steps always carries the full trace regardless of outcome.
type Result struct {
	Ticker     string    `json:"ticker"`
	TimePeriod string    `json:"time_period"`
	Summary    string    `json:"summary,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	Source     string    `json:"source,omitempty"`
	Transcript string    `json:"transcript_content,omitempty"`
	Steps      []string  `json:"steps"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// OK reports whether the run produced a summary.
func (r Result) OK() bool {
	return r.Error == "" && r.Summary != ""
}

// EarningsContext is the durable artifact exported from a pipeline run into
// the chat feature. The pipeline holds no reference to it after returning.
type EarningsContext struct {
	Ticker     string `json:"ticker"`
	Quarter    string `json:"quarter"`
	Year       string `json:"year"`
	Summary    string `json:"summary"`
	Transcript string `json:"transcript_content,omitempty"` // May be truncated
}

// ContextFromResult builds an EarningsContext from a successful pipeline run.
func ContextFromResult(req Request, res Result) EarningsContext {
	return EarningsContext{
		Ticker:     req.Ticker,
		Quarter:    string(req.Quarter),
		Year:       strconv.Itoa(req.Year),
		Summary:    res.Summary,
		Transcript: res.Transcript,
	}
}

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string   `json:"role"` // "user" or "assistant"
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"` // URLs cited by an assistant turn
}

// Session is a persisted chat conversation with its attached earnings contexts.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Messages  []Message         `json:"messages"`
	Contexts  []EarningsContext `json:"earnings_contexts"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SessionSummary is the listing row returned by the session store.
type SessionSummary struct {
	ID           string    `json:"id"`
	Preview      string    `json:"preview"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}
