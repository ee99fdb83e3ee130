// ABOUTME: Conformance tests run against both Store implementations
// ABOUTME: Covers CRUD, ordering guarantees, seeding and session expiry

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachStore runs fn as a subtest against the SQLite and in-memory
// implementations so both uphold the same contract.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})

	t.Run("memory", func(t *testing.T) {
		s, err := NewMemStore()
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func createTestUser(t *testing.T, s Store, username string) *User {
	t.Helper()
	user := &User{
		Username:          username,
		PasswordHash:      "not-a-real-hash",
		PreferredLanguage: "swa",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestConversation(t *testing.T, s Store, userID int64, title string) *Conversation {
	t.Helper()
	conv := &Conversation{
		UserID:   userID,
		Title:    title,
		Language: "swahili",
	}
	require.NoError(t, s.CreateConversation(context.Background(), conv))
	return conv
}

func TestUserLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		user := createTestUser(t, s, "wanjiku")
		assert.NotZero(t, user.ID)
		assert.Equal(t, RoleUser, user.Role)
		assert.False(t, user.CreatedAt.IsZero())

		got, err := s.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "wanjiku", got.Username)
		assert.Equal(t, "swahili", got.PreferredLanguage)

		byName, err := s.GetUserByUsername(ctx, "wanjiku")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		_, err = s.GetUser(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		createTestUser(t, s, "wanjiku")

		dup := &User{Username: "wanjiku", PasswordHash: "x", PreferredLanguage: "eng"}
		err := s.CreateUser(context.Background(), dup)
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})
}

func TestCreateUser_DefaultsPreferredLanguage(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		user := &User{Username: "otieno", PasswordHash: "x"}
		require.NoError(t, s.CreateUser(context.Background(), user))

		// The default is the seeded English language code, not a prose name.
		got, err := s.GetUser(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "eng", got.PreferredLanguage)
	})
}

func TestUpdateUser(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")

		role := RoleAdmin
		lang := "maasai"
		updated, err := s.UpdateUser(ctx, user.ID, UserUpdate{Role: &role, PreferredLanguage: &lang})
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, updated.Role)
		assert.Equal(t, "maasai", updated.PreferredLanguage)
		assert.Equal(t, "wanjiku", updated.Username)

		_, err = s.UpdateUser(ctx, 9999, UserUpdate{Role: &role})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConversationLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")

		conv := createTestConversation(t, s, user.ID, "Greetings practice")
		assert.NotZero(t, conv.ID)
		assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, "Greetings practice", got.Title)
		assert.Equal(t, user.ID, got.UserID)

		title := "Market phrases"
		updated, err := s.UpdateConversation(ctx, conv.ID, ConversationUpdate{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Market phrases", updated.Title)
		assert.Equal(t, "swahili", updated.Language)

		require.NoError(t, s.DeleteConversation(ctx, conv.ID))
		_, err = s.GetConversation(ctx, conv.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.DeleteConversation(ctx, conv.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetConversationsByUserID_RecentFirst(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")
		other := createTestUser(t, s, "otieno")

		first := createTestConversation(t, s, user.ID, "first")
		second := createTestConversation(t, s, user.ID, "second")
		createTestConversation(t, s, other.ID, "not-mine")

		// A new message bumps the conversation to the top of the list.
		msg := &Message{
			ConversationID: first.ID,
			Content:        "habari",
			IsUserMessage:  true,
			CreatedAt:      time.Now().Add(time.Minute),
		}
		require.NoError(t, s.CreateMessage(ctx, msg))

		convs, err := s.GetConversationsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, convs, 2)
		assert.Equal(t, first.ID, convs[0].ID)
		assert.Equal(t, second.ID, convs[1].ID)
	})
}

func TestCreateMessage_MissingConversation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		msg := &Message{ConversationID: 424242, Content: "hello", IsUserMessage: true}
		err := s.CreateMessage(context.Background(), msg)
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})
}

func TestGetMessagesByConversationID_Ordering(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")
		conv := createTestConversation(t, s, user.ID, "ordering")

		base := time.Now()
		contents := []string{"sopa", "supa", "how do I greet elders?"}
		for i, content := range contents {
			msg := &Message{
				ConversationID: conv.ID,
				Content:        content,
				IsUserMessage:  i%2 == 0,
				CreatedAt:      base.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, s.CreateMessage(ctx, msg))
		}

		msgs, err := s.GetMessagesByConversationID(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		for i, content := range contents {
			assert.Equal(t, content, msgs[i].Content)
		}
		assert.True(t, msgs[0].IsUserMessage)
		assert.False(t, msgs[1].IsUserMessage)
	})
}

func TestMessageOptionalFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")
		conv := createTestConversation(t, s, user.ID, "attachments")

		translation := "Hello"
		fileURL := "/uploads/abc123-notes.pdf"
		msg := &Message{
			ConversationID: conv.ID,
			Content:        "Sopa",
			Translation:    &translation,
			IsUserMessage:  false,
			FileURL:        &fileURL,
		}
		require.NoError(t, s.CreateMessage(ctx, msg))

		got, err := s.GetMessage(ctx, msg.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Translation)
		assert.Equal(t, "Hello", *got.Translation)
		require.NotNil(t, got.FileURL)
		assert.Equal(t, fileURL, *got.FileURL)
		assert.Nil(t, got.AudioURL)
	})
}

func TestAPIKeyLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		key := &ApiKey{Provider: "gemini", KeyValue: "test-key-1", IsActive: true}
		require.NoError(t, s.CreateAPIKey(ctx, key))
		assert.NotZero(t, key.ID)

		got, err := s.GetAPIKeyByProvider(ctx, "gemini")
		require.NoError(t, err)
		assert.Equal(t, "test-key-1", got.KeyValue)

		inactive := false
		_, err = s.UpdateAPIKey(ctx, key.ID, ApiKeyUpdate{IsActive: &inactive})
		require.NoError(t, err)

		// Deactivated keys are not returned by provider lookup.
		_, err = s.GetAPIKeyByProvider(ctx, "gemini")
		assert.ErrorIs(t, err, ErrNotFound)

		keys, err := s.GetAPIKeys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 1)

		require.NoError(t, s.DeleteAPIKey(ctx, key.ID))
		keys, err = s.GetAPIKeys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestLanguagesSeededByDefault(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		langs, err := s.GetLanguages(ctx)
		require.NoError(t, err)
		assert.Len(t, langs, 6)

		maasai, err := s.GetLanguageByCode(ctx, "mas")
		require.NoError(t, err)
		assert.Equal(t, "Maasai", maasai.Name)
		assert.True(t, maasai.IsActive)
		assert.Equal(t, "Kenya", maasai.Region)

		eng, err := s.GetLanguageByCode(ctx, "eng")
		require.NoError(t, err)
		assert.Equal(t, "English", eng.Name)
	})
}

func TestCreateLanguage_Duplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		lang := &Language{Name: "Turkana", Code: "tuv", IsActive: true, Region: "Kenya"}
		require.NoError(t, s.CreateLanguage(ctx, lang))

		dup := &Language{Name: "Turkana", Code: "tuv2", IsActive: true}
		assert.ErrorIs(t, s.CreateLanguage(ctx, dup), ErrDuplicateLanguage)

		dupCode := &Language{Name: "Turkana2", Code: "tuv", IsActive: true}
		assert.ErrorIs(t, s.CreateLanguage(ctx, dupCode), ErrDuplicateLanguage)
	})
}

func TestUpdateLanguage(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		kik, err := s.GetLanguageByCode(ctx, "kik")
		require.NoError(t, err)

		inactive := false
		updated, err := s.UpdateLanguage(ctx, kik.ID, LanguageUpdate{IsActive: &inactive})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "Kikuyu", updated.Name)
	})
}

func TestSessionLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")

		session := &Session{
			ID:        "session-abc",
			UserID:    user.ID,
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, s.CreateSession(ctx, session))

		got, err := s.GetSession(ctx, "session-abc")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.UserID)

		require.NoError(t, s.DeleteSession(ctx, "session-abc"))
		_, err = s.GetSession(ctx, "session-abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetSession_Expired(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := createTestUser(t, s, "wanjiku")

		session := &Session{
			ID:        "stale",
			UserID:    user.ID,
			CreatedAt: time.Now().Add(-2 * time.Hour),
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		require.NoError(t, s.CreateSession(ctx, session))

		_, err := s.GetSession(ctx, "stale")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	user := createTestUser(t, s, "wanjiku")
	conv := createTestConversation(t, s, user.ID, "persisted")
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)

	// Languages are seeded once, not on every open.
	langs, err := s2.GetLanguages(ctx)
	require.NoError(t, err)
	assert.Len(t, langs, 6)
}
