package core

import (
	"errors"
	"testing"
)

func TestNewRequestNormalizes(t *testing.T) {
	req, err := NewRequest("  aapl ", "q3", "2024")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if req.Ticker != "AAPL" {
		t.Errorf("Expected ticker uppercased to AAPL, got %s", req.Ticker)
	}
	if req.Quarter != QuarterQ3 {
		t.Errorf("Expected quarter Q3, got %s", req.Quarter)
	}
	if req.Year != 2024 {
		t.Errorf("Expected year 2024, got %d", req.Year)
	}
}

func TestNewRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		ticker  string
		quarter string
		year    string
	}{
		{"empty ticker", "", "Q1", "2024"},
		{"bad quarter", "AAPL", "Q5", "2024"},
		{"quarter not a quarter", "AAPL", "H1", "2024"},
		{"non-numeric year", "AAPL", "Q1", "twenty24"},
		{"year out of range", "AAPL", "Q1", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.ticker, tt.quarter, tt.year)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestTimePeriod(t *testing.T) {
	req := Request{Ticker: "MSFT", Quarter: QuarterQ1, Year: 2025}
	if got := req.TimePeriod(); got != "Q1 2025" {
		t.Errorf("Expected %q, got %q", "Q1 2025", got)
	}
}

func TestPhaseTerminal(t *testing.T) {
	terminal := []Phase{PhaseDone, PhaseFailed, PhaseCancelled}
	for _, p := range terminal {
		if !p.Terminal() {
			t.Errorf("Expected %s to be terminal", p)
		}
	}

	active := []Phase{PhaseStart, PhaseSearching, PhaseRetrying, PhaseExtracting, PhaseSummarizing}
	for _, p := range active {
		if p.Terminal() {
			t.Errorf("Expected %s to be non-terminal", p)
		}
	}
}

func TestAddStepAppendsInOrder(t *testing.T) {
	state := NewState(Request{Ticker: "AAPL", Quarter: QuarterQ3, Year: 2024})
	state.AddStep("first")
	state.AddStep("second %d", 2)
	state.AddStep("third")

	if len(state.Steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(state.Steps))
	}
	if state.Steps[0] != "first" || state.Steps[1] != "second 2" || state.Steps[2] != "third" {
		t.Errorf("Steps out of order or malformed: %v", state.Steps)
	}
}

func TestResultConversion(t *testing.T) {
	state := NewState(Request{Ticker: "AAPL", Quarter: QuarterQ3, Year: 2024})
	state.Summary = "summary text"
	state.CandidateURL = "https://seekingalpha.com/article/x"
	state.SourceLabel = "Seeking Alpha"
	state.AddStep("a step")

	result := state.Result()

	if result.Ticker != "AAPL" || result.TimePeriod != "Q3 2024" {
		t.Errorf("Unexpected identity fields: %s %s", result.Ticker, result.TimePeriod)
	}
	if !result.OK() {
		t.Error("Expected OK for a summarized result")
	}

	// The result owns its own copy of the trace.
	state.AddStep("a later step")
	if len(result.Steps) != 1 {
		t.Errorf("Expected result steps isolated from state, got %d", len(result.Steps))
	}
}

func TestResultOK(t *testing.T) {
	if (Result{Summary: "s"}).OK() != true {
		t.Error("Expected OK with summary and no error")
	}
	if (Result{Error: "e"}).OK() != false {
		t.Error("Expected not OK with error")
	}
	if (Result{}).OK() != false {
		t.Error("Expected not OK with neither set")
	}
}

func TestContextFromResult(t *testing.T) {
	req := Request{Ticker: "AAPL", Quarter: QuarterQ3, Year: 2024}
	res := Result{Summary: "summary", Transcript: "transcript"}

	ec := ContextFromResult(req, res)

	if ec.Ticker != "AAPL" || ec.Quarter != "Q3" || ec.Year != "2024" {
		t.Errorf("Unexpected context identity: %+v", ec)
	}
	if ec.Summary != "summary" || ec.Transcript != "transcript" {
		t.Errorf("Unexpected context content: %+v", ec)
	}
}
