package earnings

import (
	"fmt"
	"sort"
	"strings"

	"finhelp/internal/config"
	"finhelp/internal/core"
)

// Scorer ranks search candidates by transcript-ness, period match, and source
// trust. Weights and lexicons come from configuration; the defaults mirror
// the reference scheme in config.setDefaults.
type Scorer struct {
	weights         config.Weights
	trustedDomains  []string
	excludePatterns []string
	threshold       float64
}

// NewScorer creates a scorer from pipeline configuration
func NewScorer(cfg config.Pipeline) *Scorer {
	return &Scorer{
		weights:         cfg.Weights,
		trustedDomains:  cfg.TrustedDomains,
		excludePatterns: cfg.ExcludePatterns,
		threshold:       cfg.AcceptThreshold,
	}
}

// Score computes the additive relevance score for one candidate.
func (s *Scorer) Score(c core.Candidate, req core.Request) float64 {
	urlLower := strings.ToLower(c.URL)
	titleLower := strings.ToLower(c.Title)
	combined := urlLower + " " + titleLower + " " + strings.ToLower(c.Snippet)

	score := 0.0

	if matchesPeriod(combined, req) {
		score += s.weights.PeriodMatch
	}

	trusted := false
	for _, domain := range s.trustedDomains {
		if strings.Contains(urlLower, domain) {
			score += s.weights.TrustedDomain
			trusted = true
			break
		}
	}
	if !trusted && isInvestorPage(urlLower) {
		score += s.weights.InvestorPage
	}

	if strings.Contains(urlLower, "transcript") || strings.Contains(titleLower, "transcript") {
		score += s.weights.TranscriptHit
	}

	for _, pattern := range s.excludePatterns {
		if strings.Contains(urlLower, pattern) {
			score += s.weights.ExcludeHit
			break
		}
	}

	// Fiscal-year results describe a different period than the calendar
	// quarter the caller asked for.
	if mentionsFiscalYear(combined, req.Year) && !matchesPeriod(combined, req) {
		score += s.weights.FiscalYearHit
	}

	return score
}

// SelectBest scores all candidates and returns the highest-scoring one, or
// nil when no candidate reaches the acceptance threshold. Ties are broken by
// original search-result order (stable sort).
func (s *Scorer) SelectBest(candidates []core.Candidate, req core.Request) *core.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]core.Candidate, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		scored[i].Score = s.Score(scored[i], req)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if scored[0].Score < s.threshold {
		return nil
	}

	best := scored[0]
	return &best
}

// matchesPeriod reports whether the text mentions the requested calendar
// quarter: an explicit quarter/year token ("q3 2024", "q3-2024", a "-q3-2024-"
// URL slug), or a month belonging to the quarter alongside the year.
func matchesPeriod(text string, req core.Request) bool {
	q := strings.ToLower(string(req.Quarter))
	year := fmt.Sprintf("%d", req.Year)

	patterns := []string{
		q + " " + year,
		q + ", " + year,
		q + "-" + year,
		q + "_" + year,
	}
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}

	if strings.Contains(text, year) {
		for _, month := range quarterMonths[req.Quarter] {
			if strings.Contains(text, month) {
				return true
			}
		}
	}

	return false
}

// mentionsFiscalYear detects fiscal-year phrasing like "fy24" or "fy2024".
func mentionsFiscalYear(text string, year int) bool {
	yy := fmt.Sprintf("%d", year%100)
	full := fmt.Sprintf("%d", year)
	compact := strings.ReplaceAll(text, " ", "")
	return strings.Contains(compact, "fy"+yy) || strings.Contains(compact, "fy"+full)
}

// isInvestorPage detects investor-relations style URLs.
func isInvestorPage(urlLower string) bool {
	return strings.Contains(urlLower, "investor") || strings.Contains(urlLower, "//ir.") || strings.Contains(urlLower, ".ir.")
}

// SourceLabel names the publisher behind a transcript URL for step messages
// and result metadata.
func SourceLabel(url string) string {
	urlLower := strings.ToLower(url)
	switch {
	case strings.Contains(urlLower, "seekingalpha.com"):
		return "Seeking Alpha"
	case strings.Contains(urlLower, "fool.com"):
		return "The Motley Fool"
	case strings.Contains(urlLower, "finance.yahoo.com"):
		return "Yahoo Finance"
	case strings.Contains(urlLower, "insidermonkey.com"):
		return "Insider Monkey"
	case strings.Contains(urlLower, "investing.com"):
		return "Investing.com"
	case isInvestorPage(urlLower):
		return "Company IR"
	default:
		return "Web"
	}
}
