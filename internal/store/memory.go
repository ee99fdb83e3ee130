// ABOUTME: In-memory Store implementation with mutex-guarded maps
// ABOUTME: Used for tests and the "memory" database driver

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store implementation. Entities live in maps keyed
// by id, with per-entity counters assigning ids. All methods are safe for
// concurrent use.
type MemStore struct {
	mu            sync.RWMutex
	users         map[int64]*User
	conversations map[int64]*Conversation
	messages      map[int64]*Message
	apiKeys       map[int64]*ApiKey
	languages     map[int64]*Language
	sessions      map[string]*Session

	nextID struct {
		users         int64
		conversations int64
		messages      int64
		apiKeys       int64
		languages     int64
	}
}

// NewMemStore creates a MemStore seeded with the default language catalog.
func NewMemStore() (*MemStore, error) {
	m := &MemStore{
		users:         make(map[int64]*User),
		conversations: make(map[int64]*Conversation),
		messages:      make(map[int64]*Message),
		apiKeys:       make(map[int64]*ApiKey),
		languages:     make(map[int64]*Language),
		sessions:      make(map[string]*Session),
	}
	m.nextID.users = 1
	m.nextID.conversations = 1
	m.nextID.messages = 1
	m.nextID.apiKeys = 1
	m.nextID.languages = 1

	if err := seedLanguages(context.Background(), m); err != nil {
		return nil, fmt.Errorf("seeding languages: %w", err)
	}
	return m, nil
}

// CreateUser stores a new user, assigning its ID and creation time.
func (m *MemStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return ErrDuplicateUsername
		}
	}

	user.ID = m.nextID.users
	m.nextID.users++
	if user.Role == "" {
		user.Role = RoleUser
	}
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = "eng"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	u := *user
	m.users[u.ID] = &u
	return nil
}

// GetUser retrieves a user by ID.
func (m *MemStore) GetUser(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *u
	return &result, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateUser applies the given field changes to a user.
func (m *MemStore) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	if update.PreferredLanguage != nil {
		u.PreferredLanguage = *update.PreferredLanguage
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	result := *u
	return &result, nil
}

// CreateConversation stores a new conversation.
func (m *MemStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv.ID = m.nextID.conversations
	m.nextID.conversations++
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = conv.CreatedAt

	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

// GetConversation retrieves a conversation by ID.
func (m *MemStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// GetConversationsByUserID returns the user's conversations, most recently
// updated first.
func (m *MemStore) GetConversationsByUserID(ctx context.Context, userID int64) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			copied := *c
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// UpdateConversation applies the given field changes and bumps UpdatedAt.
func (m *MemStore) UpdateConversation(ctx context.Context, id int64, update ConversationUpdate) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.Language != nil {
		c.Language = *update.Language
	}
	c.UpdatedAt = time.Now()
	result := *c
	return &result, nil
}

// DeleteConversation removes a conversation and all of its messages.
func (m *MemStore) DeleteConversation(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	for msgID, msg := range m.messages {
		if msg.ConversationID == id {
			delete(m.messages, msgID)
		}
	}
	return nil
}

// CreateMessage stores a new message and bumps the owning conversation's
// UpdatedAt. Returns ErrConversationNotFound if the conversation is missing.
func (m *MemStore) CreateMessage(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[msg.ConversationID]
	if !ok {
		return ErrConversationNotFound
	}

	msg.ID = m.nextID.messages
	m.nextID.messages++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	stored := *msg
	m.messages[stored.ID] = &stored
	conv.UpdatedAt = stored.CreatedAt
	return nil
}

// GetMessage retrieves a message by ID.
func (m *MemStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *msg
	return &result, nil
}

// GetMessagesByConversationID returns a conversation's messages sorted
// ascending by creation time, with id as tiebreak.
func (m *MemStore) GetMessagesByConversationID(ctx context.Context, conversationID int64) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			copied := *msg
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// CreateAPIKey stores a new API key.
func (m *MemStore) CreateAPIKey(ctx context.Context, key *ApiKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key.ID = m.nextID.apiKeys
	m.nextID.apiKeys++
	now := time.Now()
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	key.UpdatedAt = key.CreatedAt

	k := *key
	m.apiKeys[k.ID] = &k
	return nil
}

// GetAPIKeys returns all API keys sorted by id.
func (m *MemStore) GetAPIKeys(ctx context.Context) ([]*ApiKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*ApiKey, 0, len(m.apiKeys))
	for _, k := range m.apiKeys {
		copied := *k
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetAPIKeyByProvider returns the active key for a provider.
func (m *MemStore) GetAPIKeyByProvider(ctx context.Context, provider string) (*ApiKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, k := range m.apiKeys {
		if k.Provider == provider && k.IsActive {
			result := *k
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateAPIKey applies the given field changes and bumps UpdatedAt.
func (m *MemStore) UpdateAPIKey(ctx context.Context, id int64, update ApiKeyUpdate) (*ApiKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.apiKeys[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.KeyValue != nil {
		k.KeyValue = *update.KeyValue
	}
	if update.IsActive != nil {
		k.IsActive = *update.IsActive
	}
	k.UpdatedAt = time.Now()
	result := *k
	return &result, nil
}

// DeleteAPIKey removes an API key.
func (m *MemStore) DeleteAPIKey(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apiKeys[id]; !ok {
		return ErrNotFound
	}
	delete(m.apiKeys, id)
	return nil
}

// CreateLanguage stores a new language.
func (m *MemStore) CreateLanguage(ctx context.Context, lang *Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.languages {
		if l.Code == lang.Code || l.Name == lang.Name {
			return ErrDuplicateLanguage
		}
	}

	lang.ID = m.nextID.languages
	m.nextID.languages++

	l := *lang
	m.languages[l.ID] = &l
	return nil
}

// GetLanguages returns all languages sorted by id.
func (m *MemStore) GetLanguages(ctx context.Context) ([]*Language, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Language, 0, len(m.languages))
	for _, l := range m.languages {
		copied := *l
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetLanguageByCode retrieves a language by its unique code.
func (m *MemStore) GetLanguageByCode(ctx context.Context, code string) (*Language, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.languages {
		if l.Code == code {
			result := *l
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateLanguage applies the given field changes to a language.
func (m *MemStore) UpdateLanguage(ctx context.Context, id int64, update LanguageUpdate) (*Language, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.languages[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Name != nil {
		l.Name = *update.Name
	}
	if update.Code != nil {
		l.Code = *update.Code
	}
	if update.IsActive != nil {
		l.IsActive = *update.IsActive
	}
	if update.Region != nil {
		l.Region = *update.Region
	}
	result := *l
	return &result, nil
}

// CreateSession stores a new session.
func (m *MemStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves a session by ID. Expired sessions are treated as
// missing and removed.
func (m *MemStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	result := *s
	return &result, nil
}

// DeleteSession removes a session.
func (m *MemStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
