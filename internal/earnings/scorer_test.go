package earnings

import (
	"testing"

	"finhelp/internal/config"
	"finhelp/internal/core"
)

func testPipelineConfig() config.Pipeline {
	return config.Pipeline{
		MaxRetries:       2,
		MinContentLength: 1000,
		MaxContentLength: 15000,
		AcceptThreshold:  4.0,
		FinancialKeywords: []string{
			"revenue", "earnings", "eps", "guidance", "margin", "income", "quarter",
		},
		TrustedDomains: []string{
			"seekingalpha.com", "fool.com", "finance.yahoo.com",
			"investing.com", "insidermonkey.com",
		},
		ExcludePatterns: []string{
			"/video/", "/webcast", "/press-release", "/slides", "youtube.com",
		},
		Weights: config.Weights{
			PeriodMatch:   3.0,
			TrustedDomain: 2.0,
			InvestorPage:  1.0,
			TranscriptHit: 2.0,
			ExcludeHit:    -5.0,
			FiscalYearHit: -3.0,
		},
	}
}

var scorerReq = core.Request{Ticker: "AAPL", Quarter: core.QuarterQ3, Year: 2024}

func TestScorePeriodMatchMonotonic(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	without := core.Candidate{
		URL:   "https://seekingalpha.com/article/apple-earnings-call-transcript",
		Title: "Apple Earnings Call Transcript",
	}
	with := without
	with.URL = "https://seekingalpha.com/article/apple-q3-2024-earnings-call-transcript"

	scoreWithout := scorer.Score(without, scorerReq)
	scoreWith := scorer.Score(with, scorerReq)

	if scoreWith < scoreWithout {
		t.Errorf("Adding a period token must never decrease the score: %f < %f", scoreWith, scoreWithout)
	}
	if scoreWith != scoreWithout+3.0 {
		t.Errorf("Expected period match to add 3.0, got %f vs %f", scoreWith, scoreWithout)
	}
}

func TestScoreTrustedDomain(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	trusted := core.Candidate{URL: "https://www.fool.com/earnings/call-transcripts/apple-q3-2024"}
	unknown := core.Candidate{URL: "https://randomblog.example.com/apple-q3-2024"}

	if scorer.Score(trusted, scorerReq) <= scorer.Score(unknown, scorerReq) {
		t.Errorf("Expected trusted domain to outscore an unknown domain")
	}
}

func TestScoreInvestorRelationsPage(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	ir := core.Candidate{URL: "https://investor.apple.com/q3-2024-earnings"}
	plain := core.Candidate{URL: "https://example.com/q3-2024-earnings"}

	diff := scorer.Score(ir, scorerReq) - scorer.Score(plain, scorerReq)
	if diff != 1.0 {
		t.Errorf("Expected investor-relations bonus of 1.0, got %f", diff)
	}
}

func TestScoreExcludePattern(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	video := core.Candidate{
		URL:   "https://seekingalpha.com/video/apple-q3-2024-earnings-call-transcript",
		Title: "Apple Q3 2024 Earnings Call Transcript (Video)",
	}
	article := core.Candidate{
		URL:   "https://seekingalpha.com/article/apple-q3-2024-earnings-call-transcript",
		Title: "Apple Q3 2024 Earnings Call Transcript",
	}

	if scorer.Score(video, scorerReq) >= scorer.Score(article, scorerReq) {
		t.Errorf("Expected video page penalty to apply")
	}
}

func TestScoreMonthBasedPeriodMatch(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	monthly := core.Candidate{
		URL:   "https://example.com/apple-earnings",
		Title: "Apple July 2024 earnings call",
	}
	bare := core.Candidate{
		URL:   "https://example.com/apple-earnings",
		Title: "Apple earnings call",
	}

	diff := scorer.Score(monthly, scorerReq) - scorer.Score(bare, scorerReq)
	if diff != 3.0 {
		t.Errorf("Expected month-name period match to add 3.0, got %f", diff)
	}
}

func TestSelectBestBelowThreshold(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	// One weak candidate: no period, no trust, no transcript mention.
	candidates := []core.Candidate{
		{URL: "https://example.com/apple-news", Title: "Apple in the news"},
	}

	if best := scorer.SelectBest(candidates, scorerReq); best != nil {
		t.Errorf("Expected no selection below threshold, got %q", best.URL)
	}
}

func TestSelectBestPicksHighestScore(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	candidates := []core.Candidate{
		{URL: "https://example.com/apple-news", Title: "Apple in the news", Rank: 0},
		{URL: "https://seekingalpha.com/article/apple-q3-2024-earnings-call-transcript", Title: "Apple Q3 2024 Earnings Call Transcript", Rank: 1},
		{URL: "https://randomblog.example.com/apple", Title: "Apple blog", Rank: 2},
	}

	best := scorer.SelectBest(candidates, scorerReq)
	if best == nil {
		t.Fatal("Expected a selection")
	}
	if best.URL != candidates[1].URL {
		t.Errorf("Expected the transcript candidate to win, got %q", best.URL)
	}
}

func TestSelectBestStableTieBreak(t *testing.T) {
	scorer := NewScorer(testPipelineConfig())

	// Two identically scoring candidates: original order wins.
	candidates := []core.Candidate{
		{URL: "https://seekingalpha.com/article/apple-q3-2024-earnings-call-transcript-a", Title: "Apple Q3 2024 Earnings Call Transcript", Rank: 0},
		{URL: "https://seekingalpha.com/article/apple-q3-2024-earnings-call-transcript-b", Title: "Apple Q3 2024 Earnings Call Transcript", Rank: 1},
	}

	best := scorer.SelectBest(candidates, scorerReq)
	if best == nil {
		t.Fatal("Expected a selection")
	}
	if best.URL != candidates[0].URL {
		t.Errorf("Expected stable tie-break to keep the first result, got %q", best.URL)
	}
}

func TestSourceLabel(t *testing.T) {
	cases := []struct {
		url      string
		expected string
	}{
		{"https://seekingalpha.com/article/123", "Seeking Alpha"},
		{"https://www.fool.com/earnings/call-transcripts/x", "The Motley Fool"},
		{"https://finance.yahoo.com/news/x", "Yahoo Finance"},
		{"https://investor.apple.com/earnings", "Company IR"},
		{"https://example.com/earnings", "Web"},
	}

	for _, tc := range cases {
		if got := SourceLabel(tc.url); got != tc.expected {
			t.Errorf("SourceLabel(%q) = %q, expected %q", tc.url, got, tc.expected)
		}
	}
}
