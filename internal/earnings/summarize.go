package earnings

import (
	"fmt"

	"finhelp/internal/core"
)

// summaryPromptTemplate asks for the structured financial analysis the chat
// feature depends on: headline figures, comparisons, guidance, commentary,
// risks, and strategy, organized under fixed headings.
const summaryPromptTemplate = `Analyze this %s %s earnings information.

Content:
%s

Provide a detailed summary with:

**Financial Performance**
- Revenue, EPS, margins (exact numbers)
- Year-over-year growth
- Beat/miss vs expectations

**Key Highlights**
- Major announcements
- Executive commentary
- Segment performance

**Forward Guidance**
- Next quarter/year expectations
- Growth projections
- Strategic priorities

**Risks & Concerns**
- Challenges mentioned
- Headwinds
- Competitive pressures

**Strategic Initiatives**
- New investments
- Market expansion
- Operational changes

Be specific with numbers and details.`

// BuildSummaryPrompt renders the structured financial-analysis prompt for a
// transcript. The content is assumed to be pre-truncated by the extraction
// stage.
func BuildSummaryPrompt(req core.Request, transcript string) string {
	return fmt.Sprintf(summaryPromptTemplate, req.Ticker, req.TimePeriod(), transcript)
}
