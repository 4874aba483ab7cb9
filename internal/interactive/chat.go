package interactive

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"finhelp/internal/chat"
	"finhelp/internal/core"
	"finhelp/internal/earnings"
	"finhelp/internal/logger"
	"finhelp/internal/session"
)

// ChatHandler manages an interactive finance chat session.
type ChatHandler struct {
	service   *chat.Service
	pipeline  *earnings.Pipeline
	store     *session.Store // nil disables persistence
	scanner   *bufio.Scanner
	userID    string
	saveEvery time.Duration

	mu           sync.Mutex
	sessionID    string
	conversation []core.Message
	contexts     []core.EarningsContext
}

// NewChatHandler creates a chat handler. The pipeline powers the /analyze
// command; the store, when present, powers /save and the periodic
// background save.
func NewChatHandler(service *chat.Service, pipeline *earnings.Pipeline, store *session.Store, userID string, saveEvery time.Duration) *ChatHandler {
	return &ChatHandler{
		service:   service,
		pipeline:  pipeline,
		store:     store,
		scanner:   bufio.NewScanner(os.Stdin),
		userID:    userID,
		saveEvery: saveEvery,
	}
}

// Resume preloads a previously saved session's conversation and contexts.
func (h *ChatHandler) Resume(sess *core.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = sess.ID
	h.conversation = append([]core.Message(nil), sess.Messages...)
	h.contexts = append([]core.EarningsContext(nil), sess.Contexts...)
}

// Run starts the interactive loop and blocks until the user exits or stdin
// closes. The in-memory conversation is authoritative; saves are advisory.
func (h *ChatHandler) Run(ctx context.Context) error {
	h.showBanner()

	stopSaver := h.startBackgroundSaver()
	defer stopSaver()

	for {
		fmt.Print("You: ")
		if !h.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(h.scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if h.handleCommand(ctx, input) {
				break
			}
			continue
		}

		if strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit") {
			break
		}

		if err := h.processUserInput(ctx, input); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	h.saveNow()
	fmt.Println("\n👋 Chat session ended. Goodbye!")
	return nil
}

// processUserInput sends the user's message through the chat service and
// displays the response.
func (h *ChatHandler) processUserInput(ctx context.Context, input string) error {
	h.mu.Lock()
	conversation := append([]core.Message(nil), h.conversation...)
	contexts := append([]core.EarningsContext(nil), h.contexts...)
	h.mu.Unlock()

	assistant, updated, err := h.service.Respond(ctx, input, conversation, contexts)
	if err != nil {
		return fmt.Errorf("failed to get response: %w", err)
	}

	h.mu.Lock()
	h.conversation = updated
	h.mu.Unlock()

	fmt.Printf("\nAssistant: %s\n", assistant.Content)
	if len(assistant.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range assistant.Sources {
			fmt.Printf("  - %s\n", src)
		}
	}
	fmt.Println()
	return nil
}

// handleCommand processes chat commands. Returns true when the loop should
// exit.
func (h *ChatHandler) handleCommand(ctx context.Context, command string) bool {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "/help":
		h.showHelp()
	case "/save":
		h.saveNow()
	case "/contexts":
		h.showContexts()
	case "/analyze":
		if len(parts) != 4 {
			fmt.Println("Usage: /analyze TICKER QUARTER YEAR (e.g. /analyze AAPL Q3 2024)")
			return false
		}
		if err := h.runAnalysis(ctx, parts[1], parts[2], parts[3]); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case "/exit":
		return true
	default:
		fmt.Printf("Unknown command: %s. Type /help for available commands.\n", parts[0])
	}

	return false
}

// runAnalysis runs the earnings pipeline inline and attaches the produced
// context to the conversation on success.
func (h *ChatHandler) runAnalysis(ctx context.Context, ticker, quarter, year string) error {
	req, err := core.NewRequest(ticker, quarter, year)
	if err != nil {
		return err
	}

	fmt.Printf("\n🔍 Analyzing %s %s...\n", req.Ticker, req.TimePeriod())
	result := h.pipeline.Run(ctx, req)

	for _, step := range result.Steps {
		fmt.Printf("  • %s\n", step)
	}

	if !result.OK() {
		return fmt.Errorf("%s", result.Error)
	}

	fmt.Printf("\n%s\n\n", result.Summary)
	if result.SourceURL != "" {
		fmt.Printf("Source: %s\n\n", result.SourceURL)
	}

	h.mu.Lock()
	h.contexts = append(h.contexts, core.ContextFromResult(req, result))
	count := len(h.contexts)
	h.mu.Unlock()

	fmt.Printf("📎 Context attached (%d loaded). Ask follow-up questions or compare quarters.\n\n", count)
	return nil
}

// saveNow persists the conversation. Failures are logged, never fatal: the
// in-memory conversation stays authoritative.
func (h *ChatHandler) saveNow() {
	if h.store == nil {
		return
	}

	h.mu.Lock()
	messages := append([]core.Message(nil), h.conversation...)
	contexts := append([]core.EarningsContext(nil), h.contexts...)
	sessionID := h.sessionID
	h.mu.Unlock()

	if len(messages) == 0 {
		return
	}

	id, err := h.store.Save(h.userID, sessionID, messages, contexts)
	if err != nil {
		logger.Warn("Session save failed", "error", err)
		return
	}

	h.mu.Lock()
	h.sessionID = id
	h.mu.Unlock()
}

// startBackgroundSaver runs the periodic advisory save. The returned stop
// function must be called before the handler is discarded.
func (h *ChatHandler) startBackgroundSaver() func() {
	if h.store == nil || h.saveEvery <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(h.saveEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.saveNow()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// showBanner displays the chat introduction.
func (h *ChatHandler) showBanner() {
	fmt.Printf("\n💬 Finance Chat Session Started\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("Ask about companies, markets, or economic concepts.\n")
	fmt.Printf("\nCommands:\n")
	fmt.Printf("  /help                     - Show available commands\n")
	fmt.Printf("  /analyze TICKER Qn YYYY   - Analyze an earnings call and attach it\n")
	fmt.Printf("  /contexts                 - Show loaded earnings contexts\n")
	fmt.Printf("  /save                     - Save conversation now\n")
	fmt.Printf("  /exit                     - End chat session\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
}

// showHelp displays available commands.
func (h *ChatHandler) showHelp() {
	fmt.Println("\n📚 Available Commands:")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  /help                     - Show this help message")
	fmt.Println("  /analyze TICKER Qn YYYY   - Run the earnings pipeline and attach its context")
	fmt.Println("  /contexts                 - Show loaded earnings contexts")
	fmt.Println("  /save                     - Save conversation to the session store")
	fmt.Println("  /exit                     - End chat session")
	fmt.Println("  quit                      - End chat session")
	fmt.Println("\nYou can ask questions about:")
	fmt.Println("  - Companies, earnings, and financial performance")
	fmt.Println("  - Comparisons across loaded earnings contexts")
	fmt.Println("  - Markets, economic concepts, and personal finance")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

// showContexts displays the loaded earnings contexts.
func (h *ChatHandler) showContexts() {
	h.mu.Lock()
	contexts := append([]core.EarningsContext(nil), h.contexts...)
	messageCount := len(h.conversation)
	h.mu.Unlock()

	fmt.Println("\n📋 Loaded Contexts:")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if len(contexts) == 0 {
		fmt.Println("  (none; use /analyze to load an earnings call)")
	}
	for i, ec := range contexts {
		fmt.Printf("  %d. %s %s %s (%d chars of transcript)\n", i+1, ec.Ticker, ec.Quarter, ec.Year, len(ec.Transcript))
	}
	fmt.Printf("Chat messages: %d\n", messageCount)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}
