package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finhelp/internal/config"
	"finhelp/internal/core"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const previewLength = 80

// Options controls the retention policy.
type Options struct {
	MaxPerUser   int           // Sessions retained per user; oldest beyond this are deleted
	UpdateWindow time.Duration // A save within this window updates the last session instead of creating one
}

// OptionsFromConfig builds store options from loaded configuration.
func OptionsFromConfig(cfg config.Sessions) Options {
	window, err := time.ParseDuration(cfg.UpdateWindow)
	if err != nil {
		window = time.Hour
	}
	return Options{
		MaxPerUser:   cfg.MaxPerUser,
		UpdateWindow: window,
	}
}

// Store persists chat sessions in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	opts Options
}

// NewStore opens (creating if needed) the session database under dataDir.
func NewStore(dataDir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "finhelp.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
		opts: opts,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	sessionsTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		preview TEXT,
		messages TEXT,
		earnings_contexts TEXT,
		message_count INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	);`

	if _, err := s.db.Exec(sessionsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a conversation and returns the session id it landed in.
// An explicit sessionID updates that session. Otherwise the user's most
// recent session is updated when its last save falls within the update
// window; a new session is created when it does not. After every create the
// per-user retention cap is enforced by deleting the oldest sessions.
func (s *Store) Save(userID, sessionID string, messages []core.Message, contexts []core.EarningsContext) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("nothing to save: empty conversation")
	}

	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	contextsJSON, err := json.Marshal(contexts)
	if err != nil {
		return "", fmt.Errorf("failed to encode contexts: %w", err)
	}

	now := time.Now().UTC()

	if sessionID == "" {
		sessionID = s.recentSessionWithin(userID, now.Add(-s.opts.UpdateWindow))
	}

	if sessionID != "" {
		query := `
		UPDATE sessions
		SET preview = ?, messages = ?, earnings_contexts = ?, message_count = ?, updated_at = ?
		WHERE id = ?`

		result, err := s.db.Exec(query,
			preview(messages),
			string(messagesJSON),
			string(contextsJSON),
			len(messages),
			now,
			sessionID,
		)
		if err != nil {
			return "", fmt.Errorf("failed to update session: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			return sessionID, nil
		}
		// Unknown id: fall through and create it fresh.
	}

	sessionID = uuid.New().String()
	query := `
	INSERT INTO sessions
	(id, user_id, preview, messages, earnings_contexts, message_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		sessionID,
		userID,
		preview(messages),
		string(messagesJSON),
		string(contextsJSON),
		len(messages),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	if err := s.enforceRetention(userID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// recentSessionWithin returns the id of the user's most recently updated
// session if its last update is after cutoff, else the empty string.
func (s *Store) recentSessionWithin(userID string, cutoff time.Time) string {
	query := `
	SELECT id FROM sessions
	WHERE user_id = ? AND updated_at > ?
	ORDER BY updated_at DESC
	LIMIT 1`

	var id string
	err := s.db.QueryRow(query, userID, cutoff).Scan(&id)
	if err != nil {
		return ""
	}
	return id
}

// enforceRetention deletes the user's oldest sessions beyond the cap.
func (s *Store) enforceRetention(userID string) error {
	query := `
	DELETE FROM sessions
	WHERE user_id = ? AND id NOT IN (
		SELECT id FROM sessions
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ?
	)`

	_, err := s.db.Exec(query, userID, userID, s.opts.MaxPerUser)
	if err != nil {
		return fmt.Errorf("failed to enforce session retention: %w", err)
	}
	return nil
}

// ListRecent returns the user's sessions, newest first.
func (s *Store) ListRecent(userID string, limit int) ([]core.SessionSummary, error) {
	if limit <= 0 {
		limit = s.opts.MaxPerUser
	}

	query := `
	SELECT id, preview, message_count, updated_at
	FROM sessions
	WHERE user_id = ?
	ORDER BY updated_at DESC
	LIMIT ?`

	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []core.SessionSummary
	for rows.Next() {
		var summary core.SessionSummary
		if err := rows.Scan(&summary.ID, &summary.Preview, &summary.MessageCount, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Load retrieves a full session by id. Returns nil when the id is unknown.
func (s *Store) Load(sessionID string) (*core.Session, error) {
	query := `
	SELECT id, user_id, messages, earnings_contexts, created_at, updated_at
	FROM sessions
	WHERE id = ?`

	row := s.db.QueryRow(query, sessionID)

	var session core.Session
	var messagesJSON, contextsJSON string

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&messagesJSON,
		&contextsJSON,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if contextsJSON != "" {
		if err := json.Unmarshal([]byte(contextsJSON), &session.Contexts); err != nil {
			return nil, fmt.Errorf("failed to decode contexts: %w", err)
		}
	}
	return &session, nil
}

// Delete removes a session by id.
func (s *Store) Delete(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// preview derives the listing preview from the first user message.
func preview(messages []core.Message) string {
	for _, msg := range messages {
		if msg.Role != core.RoleUser {
			continue
		}
		text := strings.TrimSpace(msg.Content)
		if len(text) > previewLength {
			return text[:previewLength] + "..."
		}
		return text
	}
	return "(no user messages)"
}
