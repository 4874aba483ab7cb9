package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model used for completions.
	DefaultModel = "gemini-2.0-flash"
)

// Client wraps the Gemini API for text completion and chat.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens   int32   // Maximum number of tokens to generate
	Temperature float32 // Temperature for randomness (0.0 to 1.0)
	Model       string  // Model to use (optional, defaults to client's model)
}

// NewClient creates a new LLM client.
// It supports multiple ways to get the API key (in order of preference):
// 1. Environment variable: GEMINI_API_KEY (or alternatives)
// 2. Viper configuration: ai.gemini.api_key
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		gClient:   gClient,
	}, nil
}

// GetModelName returns the model this client targets.
func (c *Client) GetModelName() string {
	return c.modelName
}

// GenerateText generates text from a prompt with the given options.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	modelName := options.Model
	if modelName == "" {
		modelName = c.modelName
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	config := &genai.GenerateContentConfig{}
	if options.Temperature > 0 {
		config.Temperature = genai.Ptr(options.Temperature)
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = options.MaxTokens
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// ChatSession represents an active chat session with the LLM, with manual
// history management.
type ChatSession struct {
	history   []*genai.Content
	modelName string
}

// StartChatSession initializes a new chat session seeded with system context.
func (c *Client) StartChatSession(ctx context.Context, systemContext string) *ChatSession {
	history := []*genai.Content{{
		Parts: []*genai.Part{{Text: systemContext}},
		Role:  "user",
	}, {
		Parts: []*genai.Part{{Text: "Understood."}},
		Role:  "model",
	}}

	return &ChatSession{
		history:   history,
		modelName: c.modelName,
	}
}

// SendChatMessage sends a message to the chat session and returns the response
func (c *Client) SendChatMessage(ctx context.Context, session *ChatSession, message string) (string, error) {
	if session == nil {
		return "", fmt.Errorf("invalid chat session")
	}

	session.history = append(session.history, &genai.Content{
		Parts: []*genai.Part{{Text: message}},
		Role:  "user",
	})

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.3)),
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, session.modelName, session.history, config)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty response from model")
	}

	session.history = append(session.history, &genai.Content{
		Parts: []*genai.Part{{Text: responseText}},
		Role:  "model",
	})

	return strings.TrimSpace(responseText), nil
}
