package earnings

import (
	"fmt"

	"finhelp/internal/core"
)

// quarterMonths maps each calendar quarter to its month names, long form
// first. The first month seeds the month-based query variant; the full list
// feeds period matching in the scorer.
var quarterMonths = map[core.Quarter][]string{
	core.QuarterQ1: {"january", "february", "march", "jan", "feb", "mar"},
	core.QuarterQ2: {"april", "may", "june", "apr", "jun"},
	core.QuarterQ3: {"july", "august", "september", "jul", "aug", "sep"},
	core.QuarterQ4: {"october", "november", "december", "oct", "nov", "dec"},
}

// firstMonthOf returns the display name of the quarter's opening month.
var firstMonthOf = map[core.Quarter]string{
	core.QuarterQ1: "January",
	core.QuarterQ2: "April",
	core.QuarterQ3: "July",
	core.QuarterQ4: "October",
}

// BuildQueries generates the ranked search-query variants for a request,
// most specific first. The output is deterministic: identical requests always
// produce identical query text, so retry strategies are reproducible.
func BuildQueries(req core.Request) []string {
	return []string{
		fmt.Sprintf("%s %s %d earnings call transcript", req.Ticker, req.Quarter, req.Year),
		fmt.Sprintf("%s earnings call transcript %s %d", req.Ticker, req.Quarter, req.Year),
		fmt.Sprintf("%s %s %d earnings", req.Ticker, firstMonthOf[req.Quarter], req.Year),
		fmt.Sprintf("%s earnings call", req.Ticker),
	}
}
