package handlers

import (
	"fmt"
	"os"

	"finhelp/internal/config"
	"finhelp/internal/session"

	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the session maintenance command
func NewSessionsCmd() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List, inspect, and delete saved chat sessions",
		Long: `Maintain the saved chat sessions.

Example:
  finhelp sessions --list
  finhelp sessions --show 4f7c2a1e-...
  finhelp sessions --delete 4f7c2a1e-...`,
		Run: func(cmd *cobra.Command, args []string) {
			list, _ := cmd.Flags().GetBool("list")
			show, _ := cmd.Flags().GetString("show")
			remove, _ := cmd.Flags().GetString("delete")

			if err := runSessions(list, show, remove); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	sessionsCmd.Flags().Bool("list", false, "List saved sessions, newest first")
	sessionsCmd.Flags().String("show", "", "Show a session's conversation by id")
	sessionsCmd.Flags().String("delete", "", "Delete a session by id")

	return sessionsCmd
}

func runSessions(list bool, show, remove string) error {
	cfg := config.Get()

	store, err := session.NewStore(cfg.Sessions.Directory, session.OptionsFromConfig(cfg.Sessions))
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	switch {
	case show != "":
		return showSession(store, show)
	case remove != "":
		if err := store.Delete(remove); err != nil {
			return err
		}
		fmt.Printf("✅ Session %s deleted\n", remove)
		return nil
	case list:
		fallthrough
	default:
		return listSessions(store)
	}
}

func listSessions(store *session.Store) error {
	summaries, err := store.ListRecent(defaultUserID, 0)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No saved sessions. Start one with 'finhelp chat'.")
		return nil
	}

	fmt.Println("Saved Sessions:")
	fmt.Println("===============")
	for _, summary := range summaries {
		fmt.Printf("%s  %s\n", summary.ID, summary.UpdatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("   %d messages | %s\n\n", summary.MessageCount, summary.Preview)
	}
	fmt.Println("Resume with: finhelp chat --session <id>")
	return nil
}

func showSession(store *session.Store, sessionID string) error {
	saved, err := store.Load(sessionID)
	if err != nil {
		return err
	}
	if saved == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	fmt.Printf("Session %s (updated %s)\n", saved.ID, saved.UpdatedAt.Format("2006-01-02 15:04"))
	if len(saved.Contexts) > 0 {
		fmt.Println("\nLoaded contexts:")
		for _, ec := range saved.Contexts {
			fmt.Printf("  - %s %s %s\n", ec.Ticker, ec.Quarter, ec.Year)
		}
	}

	fmt.Println("\nConversation:")
	fmt.Println("=============")
	for _, msg := range saved.Messages {
		label := "You"
		if msg.Role == "assistant" {
			label = "Assistant"
		}
		fmt.Printf("%s: %s\n\n", label, msg.Content)
	}
	return nil
}
