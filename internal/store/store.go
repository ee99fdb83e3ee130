// ABOUTME: Store interface and data types for lugha-gateway persistence
// ABOUTME: Defines User, Conversation, Message, ApiKey, Language and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConversationNotFound is returned when a message references a missing conversation
var ErrConversationNotFound = errors.New("conversation not found")

// ErrDuplicateUsername is returned when registering an already-taken username
var ErrDuplicateUsername = errors.New("username already exists")

// ErrDuplicateLanguage is returned when creating a language whose code or name is taken
var ErrDuplicateLanguage = errors.New("language already exists")

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account
type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"-"`
	Email             string    `json:"email,omitempty"`
	FirstName         string    `json:"firstName,omitempty"`
	LastName          string    `json:"lastName,omitempty"`
	Avatar            string    `json:"avatar,omitempty"`
	Role              string    `json:"role"`
	PreferredLanguage string    `json:"preferredLanguage"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Conversation represents a chat conversation owned by a single user.
// UpdatedAt is bumped every time a message is written to it.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is a single turn in a conversation. Messages are immutable once
// created; there are no update or delete operations.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Content        string    `json:"content"`
	Translation    *string   `json:"translation"`
	IsUserMessage  bool      `json:"isUserMessage"`
	CreatedAt      time.Time `json:"createdAt"`
	FileURL        *string   `json:"fileUrl"`
	AudioURL       *string   `json:"audioUrl"`
}

// ApiKey holds an upstream provider credential. At most one active key per
// provider is expected; the AI service looks keys up by provider name.
type ApiKey struct {
	ID        int64     `json:"id"`
	Provider  string    `json:"provider"`
	KeyValue  string    `json:"keyValue"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Language is read-mostly reference data; the relay uses only the code
type Language struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive bool   `json:"isActive"`
	Region   string `json:"region,omitempty"`
}

// Session is a server-side HTTP session record
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UserUpdate carries optional field changes for UpdateUser
type UserUpdate struct {
	Role              *string
	PreferredLanguage *string
	Avatar            *string
}

// ConversationUpdate carries optional field changes for UpdateConversation
type ConversationUpdate struct {
	Title    *string
	Language *string
}

// ApiKeyUpdate carries optional field changes for UpdateAPIKey
type ApiKeyUpdate struct {
	KeyValue *string
	IsActive *bool
}

// LanguageUpdate carries optional field changes for UpdateLanguage
type LanguageUpdate struct {
	Name     *string
	Code     *string
	IsActive *bool
	Region   *string
}

// Store defines the interface for lugha-gateway persistence.
// Implementations must be safe for concurrent use; the relay and the HTTP
// layer share one instance.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error)

	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id int64) (*Conversation, error)
	GetConversationsByUserID(ctx context.Context, userID int64) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, id int64, update ConversationUpdate) (*Conversation, error)
	DeleteConversation(ctx context.Context, id int64) error

	// Messages
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id int64) (*Message, error)
	GetMessagesByConversationID(ctx context.Context, conversationID int64) ([]*Message, error)

	// API keys
	CreateAPIKey(ctx context.Context, key *ApiKey) error
	GetAPIKeys(ctx context.Context) ([]*ApiKey, error)
	GetAPIKeyByProvider(ctx context.Context, provider string) (*ApiKey, error)
	UpdateAPIKey(ctx context.Context, id int64, update ApiKeyUpdate) (*ApiKey, error)
	DeleteAPIKey(ctx context.Context, id int64) error

	// Languages
	CreateLanguage(ctx context.Context, lang *Language) error
	GetLanguages(ctx context.Context) ([]*Language, error)
	GetLanguageByCode(ctx context.Context, code string) (*Language, error)
	UpdateLanguage(ctx context.Context, id int64, update LanguageUpdate) (*Language, error)

	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error

	// Close releases any resources held by the store
	Close() error
}
