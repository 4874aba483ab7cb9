package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"finhelp/internal/chat"
	"finhelp/internal/config"
	"finhelp/internal/interactive"
	"finhelp/internal/llm"
	"finhelp/internal/logger"
	"finhelp/internal/session"

	"github.com/spf13/cobra"
)

// defaultUserID identifies the local CLI user in the session store.
const defaultUserID = "local"

// NewChatCmd creates the interactive chat command
func NewChatCmd() *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive finance chat",
		Long: `Start an interactive finance chat session. The assistant answers
finance questions, searches the web for current market data when needed, and
can run the earnings pipeline inline with /analyze to load call summaries as
conversation context.

Example:
  finhelp chat
  finhelp chat --session 4f7c2a1e`,
		Run: func(cmd *cobra.Command, args []string) {
			sessionID, _ := cmd.Flags().GetString("session")

			if err := runChat(sessionID); err != nil {
				logger.Error("Chat session failed", err)
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	chatCmd.Flags().StringP("session", "s", "", "Resume a saved session by id")

	return chatCmd
}

func runChat(sessionID string) error {
	cfg := config.Get()

	llmClient, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	// The chat searcher is optional: without a key the assistant still
	// answers from its own knowledge and loaded contexts.
	searcher, err := newSearchProvider(cfg)
	if err != nil {
		logger.Warn("Search unavailable for chat", "error", err)
		searcher = nil
	}

	service := chat.NewService(searcher, llmClient, chat.OptionsFromConfig(cfg.Chat))

	pipeline, err := newPipeline()
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Sessions.Directory, session.OptionsFromConfig(cfg.Sessions))
	if err != nil {
		logger.Warn("Session store unavailable, conversation will not be saved", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	saveEvery, err := time.ParseDuration(cfg.Chat.SaveInterval)
	if err != nil {
		saveEvery = 30 * time.Second
	}

	handler := interactive.NewChatHandler(service, pipeline, store, defaultUserID, saveEvery)

	if sessionID != "" {
		if store == nil {
			return fmt.Errorf("cannot resume session %s: session store unavailable", sessionID)
		}
		saved, err := store.Load(sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if saved == nil {
			return fmt.Errorf("session %s not found", sessionID)
		}
		handler.Resume(saved)
		fmt.Printf("Resumed session %s (%d messages, %d contexts)\n", saved.ID, len(saved.Messages), len(saved.Contexts))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return handler.Run(ctx)
}
