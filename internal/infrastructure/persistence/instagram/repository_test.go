package instagram

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAESKey = "000102030405060708090a0b0c0d0e0f"

func newTestCipher(t *testing.T, key string) *security.TokenCipher {
	t.Helper()
	c, err := security.NewTokenCipher(key)
	require.NoError(t, err)
	return c
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewConnection(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewTableCreator(logging.NewDiscardLogger()).CreateSchema(context.Background(), db))
	return db
}

func TestSessionRepository_SaveFindDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLSessionRepository(db, newTestCipher(t, testAESKey), logging.NewDiscardLogger())
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	profile := session.InstagramProfile{ID: "17841400001", Username: "vibes", AccountType: "PERSONAL", MediaCount: 12}
	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("visitor-1", "IGQVJ-secret", profile, now, 60*24*time.Hour)))

	var stored string
	require.NoError(t, db.QueryRow(`SELECT encrypted_token FROM instagram_sessions WHERE visitor_id = ?`, "visitor-1").Scan(&stored))
	assert.NotEqual(t, "IGQVJ-secret", stored)

	found, err := repo.Find(ctx, "visitor-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "IGQVJ-secret", found.AccessToken)
	assert.Equal(t, profile, found.Profile)
	assert.True(t, now.Add(60*24*time.Hour).Equal(found.ExpiresAt))

	require.NoError(t, repo.Delete(ctx, "visitor-1"))
	found, err = repo.Find(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, repo.Delete(ctx, "visitor-1"))
}

func TestSessionRepository_SaveReplaces(t *testing.T) {
	repo := NewSQLSessionRepository(newTestDB(t), newTestCipher(t, testAESKey), logging.NewDiscardLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("visitor-1", "first", session.InstagramProfile{ID: "1", Username: "a"}, now, time.Hour)))
	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("visitor-1", "second", session.InstagramProfile{ID: "1", Username: "b"}, now, time.Hour)))

	found, err := repo.Find(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, "second", found.AccessToken)
	assert.Equal(t, "b", found.Profile.Username)
}

func TestSessionRepository_UndecryptableRowIsDiscarded(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	writer := NewSQLSessionRepository(db, newTestCipher(t, testAESKey), logging.NewDiscardLogger())
	require.NoError(t, writer.Save(ctx, session.NewOAuthSession("visitor-1", "token", session.InstagramProfile{ID: "1"}, now, time.Hour)))

	reader := NewSQLSessionRepository(db, newTestCipher(t, "ffeeddccbbaa99887766554433221100"), logging.NewDiscardLogger())
	found, err := reader.Find(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM instagram_sessions`).Scan(&count))
	assert.Zero(t, count)
}

func TestSessionRepository_DeleteByProfileID(t *testing.T) {
	repo := NewSQLSessionRepository(newTestDB(t), newTestCipher(t, testAESKey), logging.NewDiscardLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("visitor-1", "t1", session.InstagramProfile{ID: "42"}, now, time.Hour)))
	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("visitor-2", "t2", session.InstagramProfile{ID: "42"}, now, time.Hour)))
	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("visitor-3", "t3", session.InstagramProfile{ID: "7"}, now, time.Hour)))

	removed, err := repo.DeleteByProfileID(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := repo.Find(ctx, "visitor-3")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo := NewSQLSessionRepository(newTestDB(t), newTestCipher(t, testAESKey), logging.NewDiscardLogger())
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("stale", "t1", session.InstagramProfile{ID: "1"}, now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, repo.Save(ctx, session.NewOAuthSession("live", "t2", session.InstagramProfile{ID: "2"}, now, time.Hour)))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	live, err := repo.Find(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestDeletionRepository_StoreAndFind(t *testing.T) {
	repo := NewSQLDeletionRepository(newTestDB(t), logging.NewDiscardLogger())
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Store(ctx, &session.DeletionRequest{
		ConfirmationCode: "01hzabc",
		Status:           session.DeletionStatusCompleted,
		CreatedAt:        now,
	}))

	found, err := repo.FindByCode(ctx, "01hzabc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, session.DeletionStatusCompleted, found.Status)
	assert.Empty(t, found.UserID)
	assert.True(t, now.Equal(found.CreatedAt))

	missing, err := repo.FindByCode(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
