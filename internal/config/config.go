package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Search   Search   `mapstructure:"search"`
	Extract  Extract  `mapstructure:"extract"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Chat     Chat     `mapstructure:"chat"`
	Sessions Sessions `mapstructure:"sessions"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	LogLevel   string `mapstructure:"log_level"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"-"` // Path of the config file actually read, if any
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// Search holds search provider configuration
type Search struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	MaxResults      int             `mapstructure:"max_results"`
	Timeout         string          `mapstructure:"timeout"`
	Providers       SearchProviders `mapstructure:"providers"`
}

// SearchProviders holds configuration for all search providers
type SearchProviders struct {
	Tavily  TavilyConfig  `mapstructure:"tavily"`
	SerpAPI SerpAPIConfig `mapstructure:"serpapi"`
}

// TavilyConfig holds Tavily API configuration
type TavilyConfig struct {
	APIKey      string `mapstructure:"api_key"`
	SearchDepth string `mapstructure:"search_depth"`
}

// SerpAPIConfig holds SerpAPI configuration
type SerpAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Extract holds extraction capability configuration
type Extract struct {
	DefaultProvider string `mapstructure:"default_provider"`
	Timeout         string `mapstructure:"timeout"`
	UserAgent       string `mapstructure:"user_agent"`
}

// Pipeline holds earnings-pipeline tuning. Scoring weights and keyword
// lexicons are configuration rather than hard-coded constants.
type Pipeline struct {
	MaxRetries         int      `mapstructure:"max_retries"`
	MinContentLength   int      `mapstructure:"min_content_length"`
	MaxContentLength   int      `mapstructure:"max_content_length"`
	AcceptThreshold    float64  `mapstructure:"accept_threshold"`
	FinancialKeywords  []string `mapstructure:"financial_keywords"`
	TrustedDomains     []string `mapstructure:"trusted_domains"`
	ExcludePatterns    []string `mapstructure:"exclude_patterns"`
	Weights            Weights  `mapstructure:"weights"`
}

// Weights holds the additive candidate-scoring weights
type Weights struct {
	PeriodMatch   float64 `mapstructure:"period_match"`
	TrustedDomain float64 `mapstructure:"trusted_domain"`
	InvestorPage  float64 `mapstructure:"investor_page"`
	TranscriptHit float64 `mapstructure:"transcript_hit"`
	ExcludeHit    float64 `mapstructure:"exclude_hit"` // Negative
	FiscalYearHit float64 `mapstructure:"fiscal_year_hit"` // Negative
}

// Chat holds finance-chat configuration
type Chat struct {
	TokenBudget       int    `mapstructure:"token_budget"`
	CharsPerToken     int    `mapstructure:"chars_per_token"`
	TranscriptExcerpt int    `mapstructure:"transcript_excerpt"`
	SearchResults     int    `mapstructure:"search_results"`
	SaveInterval      string `mapstructure:"save_interval"`
}

// Sessions holds session-store configuration
type Sessions struct {
	Directory    string `mapstructure:"directory"`
	MaxPerUser   int    `mapstructure:"max_per_user"`
	UpdateWindow string `mapstructure:"update_window"`
}

var globalConfig *Config

// Load reads configuration from file, environment, and defaults.
// Follows precedence: env vars > config file > defaults.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".finhelp")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the loaded configuration. Test hook.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".finhelp")

	// AI defaults
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 2048)
	viper.SetDefault("ai.gemini.temperature", 0.2)

	// Search defaults
	viper.SetDefault("search.default_provider", "tavily")
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("search.providers.tavily.search_depth", "advanced")

	// Extract defaults
	viper.SetDefault("extract.default_provider", "tavily")
	viper.SetDefault("extract.timeout", "30s")
	viper.SetDefault("extract.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	// Pipeline defaults. Weights mirror the reference scoring scheme and are
	// tunable per deployment.
	viper.SetDefault("pipeline.max_retries", 2)
	viper.SetDefault("pipeline.min_content_length", 1000)
	viper.SetDefault("pipeline.max_content_length", 15000)
	viper.SetDefault("pipeline.accept_threshold", 4.0)
	viper.SetDefault("pipeline.financial_keywords", []string{
		"revenue", "earnings", "eps", "guidance", "margin", "income", "quarter",
	})
	viper.SetDefault("pipeline.trusted_domains", []string{
		"seekingalpha.com", "fool.com", "finance.yahoo.com",
		"investing.com", "insidermonkey.com",
	})
	viper.SetDefault("pipeline.exclude_patterns", []string{
		"/video/", "/webcast", "/press-release", "/slides", "youtube.com",
	})
	viper.SetDefault("pipeline.weights.period_match", 3.0)
	viper.SetDefault("pipeline.weights.trusted_domain", 2.0)
	viper.SetDefault("pipeline.weights.investor_page", 1.0)
	viper.SetDefault("pipeline.weights.transcript_hit", 2.0)
	viper.SetDefault("pipeline.weights.exclude_hit", -5.0)
	viper.SetDefault("pipeline.weights.fiscal_year_hit", -3.0)

	// Chat defaults
	viper.SetDefault("chat.token_budget", 8000)
	viper.SetDefault("chat.chars_per_token", 4)
	viper.SetDefault("chat.transcript_excerpt", 3000)
	viper.SetDefault("chat.search_results", 5)
	viper.SetDefault("chat.save_interval", "30s")

	// Session defaults
	viper.SetDefault("sessions.directory", ".finhelp")
	viper.SetDefault("sessions.max_per_user", 5)
	viper.SetDefault("sessions.update_window", "1h")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("search.providers.tavily.api_key", []string{
		"TAVILY_API_KEY",
	})

	bindEnvKeys("search.providers.serpapi.api_key", []string{
		"SERPAPI_API_KEY",
		"SERP_API_KEY",
	})
}

// bindEnvKeys binds a viper key to multiple possible environment variable names
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// validateConfig checks configuration invariants that would otherwise surface
// as confusing runtime behavior.
func validateConfig(config *Config) error {
	if config.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline.max_retries must be >= 0")
	}
	if config.Pipeline.MinContentLength <= 0 {
		return fmt.Errorf("pipeline.min_content_length must be > 0")
	}
	if config.Pipeline.MaxContentLength < config.Pipeline.MinContentLength {
		return fmt.Errorf("pipeline.max_content_length must be >= pipeline.min_content_length")
	}
	if config.Chat.TokenBudget <= 0 {
		return fmt.Errorf("chat.token_budget must be > 0")
	}
	if config.Chat.CharsPerToken <= 0 {
		return fmt.Errorf("chat.chars_per_token must be > 0")
	}
	if config.Sessions.MaxPerUser <= 0 {
		return fmt.Errorf("sessions.max_per_user must be > 0")
	}
	return nil
}

// Convenience accessors for commonly used values
func GetApp() App           { return Get().App }
func GetAI() AI             { return Get().AI }
func GetSearch() Search     { return Get().Search }
func GetExtract() Extract   { return Get().Extract }
func GetPipeline() Pipeline { return Get().Pipeline }
func GetChat() Chat         { return Get().Chat }
func GetSessions() Sessions { return Get().Sessions }

func GetGeminiAPIKey() string   { return Get().AI.Gemini.APIKey }
func GetGeminiModel() string    { return Get().AI.Gemini.Model }
func GetTavilyAPIKey() string   { return Get().Search.Providers.Tavily.APIKey }
func GetSerpAPIKey() string     { return Get().Search.Providers.SerpAPI.APIKey }
func GetSearchProvider() string { return Get().Search.DefaultProvider }
func IsDebugMode() bool         { return Get().App.Debug }
