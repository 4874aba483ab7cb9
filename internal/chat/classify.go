package chat

import "strings"

// searchTriggers flag questions that need current market data rather than
// reasoning over loaded contexts or general knowledge.
var searchTriggers = []string{
	"current",
	"today",
	"latest",
	"right now",
	"this week",
	"this month",
	"stock price",
	"share price",
	"price of",
	"trading at",
	"news",
	"recent",
	"market cap",
	"52-week",
	"after hours",
	"premarket",
	"pre-market",
}

// NeedsSearch decides whether a user message requires a live web search
// before answering. A lightweight keyword rule keeps the decision
// deterministic and avoids a second model round trip.
func NeedsSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range searchTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
