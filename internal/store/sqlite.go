// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/conversation/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat is the storage format for timestamps. Nanosecond precision keeps
// message ordering stable for writes within the same second.
const timeFormat = time.RFC3339Nano

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist and the default
// language catalog is seeded into an empty database.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := seedLanguages(context.Background(), s); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding languages: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email TEXT,
			first_name TEXT,
			last_name TEXT,
			avatar TEXT,
			role TEXT NOT NULL DEFAULT 'user',
			preferred_language TEXT NOT NULL DEFAULT 'eng',
			created_at TEXT NOT NULL,

			CHECK (role IN ('user', 'admin'))
		);

		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			language TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			translation TEXT,
			is_user_message INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			file_url TEXT,
			audio_url TEXT,

			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages(conversation_id, created_at);

		CREATE TABLE IF NOT EXISTS api_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			key_value TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_api_keys_provider ON api_keys(provider);

		CREATE TABLE IF NOT EXISTS languages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			code TEXT NOT NULL UNIQUE,
			is_active INTEGER NOT NULL DEFAULT 1,
			region TEXT
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		// Fall back to second precision for rows written by older versions
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

// CreateUser inserts a new user and assigns its ID.
// Returns ErrDuplicateUsername if the username is taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.Role == "" {
		user.Role = RoleUser
	}
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "eng"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (username, password_hash, email, first_name, last_name, avatar, role, preferred_language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Avatar,
		user.Role,
		user.PreferredLanguage,
		user.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "username", user.Username)
	return nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var createdAt string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Avatar,
		&user.Role,
		&user.PreferredLanguage,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.CreatedAt = parseTime(createdAt)
	return &user, nil
}

const userColumns = `id, username, password_hash, COALESCE(email, ''), COALESCE(first_name, ''),
	COALESCE(last_name, ''), COALESCE(avatar, ''), role, preferred_language, created_at`

// GetUser retrieves a user by ID. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateUser applies the given field changes to a user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	var sets []string
	var args []any

	if update.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *update.Role)
	}
	if update.PreferredLanguage != nil {
		sets = append(sets, "preferred_language = ?")
		args = append(args, *update.PreferredLanguage)
	}
	if update.Avatar != nil {
		sets = append(sets, "avatar = ?")
		args = append(args, *update.Avatar)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetUser(ctx, id)
}

// CreateConversation inserts a new conversation and assigns its ID.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = conv.CreatedAt

	query := `
		INSERT INTO conversations (user_id, title, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		conv.UserID,
		conv.Title,
		conv.Language,
		conv.CreatedAt.UTC().Format(timeFormat),
		conv.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	conv.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading conversation id: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID, "user_id", conv.UserID)
	return nil
}

func scanConversation(scan func(...any) error) (*Conversation, error) {
	var conv Conversation
	var createdAt, updatedAt string

	err := scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Language, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	conv.CreatedAt = parseTime(createdAt)
	conv.UpdatedAt = parseTime(updatedAt)
	return &conv, nil
}

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	query := `
		SELECT id, user_id, title, language, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanConversation(row.Scan)
}

// GetConversationsByUserID returns the user's conversations, most recently
// updated first.
func (s *SQLiteStore) GetConversationsByUserID(ctx context.Context, userID int64) ([]*Conversation, error) {
	query := `
		SELECT id, user_id, title, language, created_at, updated_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY updated_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// UpdateConversation applies the given field changes and bumps UpdatedAt.
func (s *SQLiteStore) UpdateConversation(ctx context.Context, id int64, update ConversationUpdate) (*Conversation, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(timeFormat)}

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Language != nil {
		sets = append(sets, "language = ?")
		args = append(args, *update.Language)
	}

	args = append(args, id)
	query := "UPDATE conversations SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.GetConversation(ctx, id)
}

// DeleteConversation removes a conversation and, via cascade, its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// CreateMessage inserts a new message and bumps the owning conversation's
// updated_at. Returns ErrConversationNotFound if the conversation is missing.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM conversations WHERE id = ?`, msg.ConversationID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("checking conversation: %w", err)
	}

	createdAt := msg.CreatedAt.UTC().Format(timeFormat)

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, content, translation, is_user_message, created_at, file_url, audio_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		msg.ConversationID,
		msg.Content,
		msg.Translation,
		msg.IsUserMessage,
		createdAt,
		msg.FileURL,
		msg.AudioURL,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	msg.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading message id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, createdAt, msg.ConversationID); err != nil {
		return fmt.Errorf("bumping conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message: %w", err)
	}

	s.logger.Debug("created message",
		"id", msg.ID,
		"conversation_id", msg.ConversationID,
		"is_user_message", msg.IsUserMessage)
	return nil
}

func scanMessage(scan func(...any) error) (*Message, error) {
	var msg Message
	var createdAt string
	var isUser int64

	err := scan(&msg.ID, &msg.ConversationID, &msg.Content, &msg.Translation, &isUser, &createdAt, &msg.FileURL, &msg.AudioURL)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	msg.IsUserMessage = isUser != 0
	msg.CreatedAt = parseTime(createdAt)
	return &msg, nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	query := `
		SELECT id, conversation_id, content, translation, is_user_message, created_at, file_url, audio_url
		FROM messages
		WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanMessage(row.Scan)
}

// GetMessagesByConversationID returns a conversation's messages sorted
// ascending by creation time, with id as tiebreak.
func (s *SQLiteStore) GetMessagesByConversationID(ctx context.Context, conversationID int64) ([]*Message, error) {
	query := `
		SELECT id, conversation_id, content, translation, is_user_message, created_at, file_url, audio_url
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// CreateAPIKey inserts a new API key and assigns its ID.
func (s *SQLiteStore) CreateAPIKey(ctx context.Context, key *ApiKey) error {
	now := time.Now()
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	key.UpdatedAt = key.CreatedAt

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (provider, key_value, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		key.Provider,
		key.KeyValue,
		key.IsActive,
		key.CreatedAt.UTC().Format(timeFormat),
		key.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}

	key.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading api key id: %w", err)
	}
	return nil
}

func scanAPIKey(scan func(...any) error) (*ApiKey, error) {
	var key ApiKey
	var createdAt, updatedAt string
	var active int64

	err := scan(&key.ID, &key.Provider, &key.KeyValue, &active, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning api key: %w", err)
	}

	key.IsActive = active != 0
	key.CreatedAt = parseTime(createdAt)
	key.UpdatedAt = parseTime(updatedAt)
	return &key, nil
}

// GetAPIKeys returns all API keys.
func (s *SQLiteStore) GetAPIKeys(ctx context.Context) ([]*ApiKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, key_value, is_active, created_at, updated_at
		FROM api_keys
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying api keys: %w", err)
	}
	defer rows.Close()

	var keys []*ApiKey
	for rows.Next() {
		key, err := scanAPIKey(rows.Scan)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// GetAPIKeyByProvider returns the active key for a provider.
func (s *SQLiteStore) GetAPIKeyByProvider(ctx context.Context, provider string) (*ApiKey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, key_value, is_active, created_at, updated_at
		FROM api_keys
		WHERE provider = ? AND is_active = 1
		ORDER BY updated_at DESC
		LIMIT 1
	`, provider)
	return scanAPIKey(row.Scan)
}

// UpdateAPIKey applies the given field changes and bumps updated_at.
func (s *SQLiteStore) UpdateAPIKey(ctx context.Context, id int64, update ApiKeyUpdate) (*ApiKey, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(timeFormat)}

	if update.KeyValue != nil {
		sets = append(sets, "key_value = ?")
		args = append(args, *update.KeyValue)
	}
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *update.IsActive)
	}

	args = append(args, id)
	query := "UPDATE api_keys SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, key_value, is_active, created_at, updated_at
		FROM api_keys WHERE id = ?
	`, id)
	return scanAPIKey(row.Scan)
}

// DeleteAPIKey removes an API key.
func (s *SQLiteStore) DeleteAPIKey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLanguage inserts a new language and assigns its ID.
// Returns ErrDuplicateLanguage if the name or code is taken.
func (s *SQLiteStore) CreateLanguage(ctx context.Context, lang *Language) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO languages (name, code, is_active, region)
		VALUES (?, ?, ?, ?)
	`,
		lang.Name,
		lang.Code,
		lang.IsActive,
		lang.Region,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateLanguage
		}
		return fmt.Errorf("inserting language: %w", err)
	}

	lang.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading language id: %w", err)
	}
	return nil
}

func scanLanguage(scan func(...any) error) (*Language, error) {
	var lang Language
	var active int64

	err := scan(&lang.ID, &lang.Name, &lang.Code, &active, &lang.Region)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning language: %w", err)
	}

	lang.IsActive = active != 0
	return &lang, nil
}

// GetLanguages returns all languages.
func (s *SQLiteStore) GetLanguages(ctx context.Context) ([]*Language, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, code, is_active, COALESCE(region, '')
		FROM languages
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying languages: %w", err)
	}
	defer rows.Close()

	var langs []*Language
	for rows.Next() {
		lang, err := scanLanguage(rows.Scan)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, rows.Err()
}

// GetLanguageByCode retrieves a language by its unique code.
func (s *SQLiteStore) GetLanguageByCode(ctx context.Context, code string) (*Language, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, code, is_active, COALESCE(region, '')
		FROM languages
		WHERE code = ?
	`, code)
	return scanLanguage(row.Scan)
}

// UpdateLanguage applies the given field changes to a language.
func (s *SQLiteStore) UpdateLanguage(ctx context.Context, id int64, update LanguageUpdate) (*Language, error) {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Code != nil {
		sets = append(sets, "code = ?")
		args = append(args, *update.Code)
	}
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *update.IsActive)
	}
	if update.Region != nil {
		sets = append(sets, "region = ?")
		args = append(args, *update.Region)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := "UPDATE languages SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if isConstraintViolation(err) {
				return nil, ErrDuplicateLanguage
			}
			return nil, fmt.Errorf("updating language: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, code, is_active, COALESCE(region, '')
		FROM languages WHERE id = ?
	`, id)
	return scanLanguage(row.Scan)
}

// CreateSession inserts a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.CreatedAt.UTC().Format(timeFormat),
		session.ExpiresAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Expired sessions are treated as
// missing and removed.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	var createdAt, expiresAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(&session.ID, &session.UserID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.CreatedAt = parseTime(createdAt)
	session.ExpiresAt = parseTime(expiresAt)

	if time.Now().After(session.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return nil, ErrNotFound
	}
	return &session, nil
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
