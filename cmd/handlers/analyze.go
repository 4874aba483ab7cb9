package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"finhelp/internal/config"
	"finhelp/internal/core"
	"finhelp/internal/earnings"
	"finhelp/internal/extract"
	"finhelp/internal/llm"
	"finhelp/internal/logger"
	"finhelp/internal/search"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle    = lipgloss.NewStyle().Faint(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1, 2)
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find and summarize a quarterly earnings call transcript",
		Long: `Search the web for a company's earnings call transcript, extract and
validate its content, and produce a structured financial summary.

Example:
  finhelp analyze --ticker AAPL --quarter Q3 --year 2024
  finhelp analyze -t MSFT -q Q1 -y 2025 --json`,
		Run: func(cmd *cobra.Command, args []string) {
			ticker, _ := cmd.Flags().GetString("ticker")
			quarter, _ := cmd.Flags().GetString("quarter")
			year, _ := cmd.Flags().GetString("year")
			asJSON, _ := cmd.Flags().GetBool("json")

			if err := runAnalyze(ticker, quarter, year, asJSON); err != nil {
				logger.Error("Analysis failed", err)
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
				os.Exit(1)
			}
		},
	}

	analyzeCmd.Flags().StringP("ticker", "t", "", "Stock ticker symbol, e.g. AAPL (required)")
	analyzeCmd.Flags().StringP("quarter", "q", "", "Calendar quarter: Q1, Q2, Q3, or Q4 (required)")
	analyzeCmd.Flags().StringP("year", "y", "", "Four-digit year, e.g. 2024 (required)")
	analyzeCmd.Flags().Bool("json", false, "Emit the full result as JSON")
	_ = analyzeCmd.MarkFlagRequired("ticker")
	_ = analyzeCmd.MarkFlagRequired("quarter")
	_ = analyzeCmd.MarkFlagRequired("year")

	return analyzeCmd
}

func runAnalyze(ticker, quarter, year string, asJSON bool) error {
	req, err := core.NewRequest(ticker, quarter, year)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !asJSON {
		fmt.Println(titleStyle.Render(fmt.Sprintf("🔍 Analyzing %s %s", req.Ticker, req.TimePeriod())))
	}

	result := pipeline.Run(ctx, req)

	if asJSON {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(encoded))
		if !result.OK() {
			os.Exit(1)
		}
		return nil
	}

	for _, step := range result.Steps {
		fmt.Println(stepStyle.Render("  • " + step))
	}
	fmt.Println()

	if !result.OK() {
		return fmt.Errorf("%s", result.Error)
	}

	fmt.Println(summaryStyle.Render(result.Summary))
	fmt.Println()
	fmt.Println(sourceStyle.Render(fmt.Sprintf("Source (%s): %s", result.Source, result.SourceURL)))
	return nil
}

// newPipeline wires the earnings pipeline from configuration.
func newPipeline() (*earnings.Pipeline, error) {
	cfg := config.Get()

	searcher, err := newSearchProvider(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	scorer := earnings.NewScorer(cfg.Pipeline)
	return earnings.New(searcher, extractor, llmClient, scorer, earnings.OptionsFromConfig(cfg)), nil
}

func newSearchProvider(cfg *config.Config) (search.Provider, error) {
	providerType := search.ProviderType(cfg.Search.DefaultProvider)

	providerConfig := map[string]string{}
	switch providerType {
	case search.ProviderTypeTavily:
		providerConfig["api_key"] = cfg.Search.Providers.Tavily.APIKey
	case search.ProviderTypeSerpAPI:
		providerConfig["api_key"] = cfg.Search.Providers.SerpAPI.APIKey
	}

	provider, err := search.NewProviderFactory().CreateProvider(providerType, providerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s search provider: %w", providerType, err)
	}
	return provider, nil
}

func newExtractor(cfg *config.Config) (extract.Extractor, error) {
	extractorType := extract.ExtractorType(cfg.Extract.DefaultProvider)

	extractorConfig := map[string]string{
		"user_agent": cfg.Extract.UserAgent,
	}
	if extractorType == extract.ExtractorTypeTavily {
		extractorConfig["api_key"] = cfg.Search.Providers.Tavily.APIKey
	}

	extractor, err := extract.NewFactory().CreateExtractor(extractorType, extractorConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s extractor: %w", extractorType, err)
	}
	return extractor, nil
}
