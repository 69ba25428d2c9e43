package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitebot/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Ping(context.Background()))
}

// --- Companies ---

func TestSQLite_SaveCompany_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.SaveCompany(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Acme", first.Name)
	assert.Equal(t, "https://acme.com", first.WebsiteURL)

	second, err := st.SaveCompany(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same name and url reuse the row")
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	other, err := st.SaveCompany(ctx, "Acme", "https://acme.org")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestSQLite_GetCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := st.SaveCompany(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)

	got, err := st.GetCompany(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Acme", got.Name)

	_, err = st.GetCompany(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_LatestCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.LatestCompany(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := st.SaveCompany(ctx, "A", "https://a.com")
	require.NoError(t, err)
	_, err = st.SaveCompany(ctx, "B", "https://b.com")
	require.NoError(t, err)
	_, err = st.SaveCompany(ctx, "A", "https://a.com")
	require.NoError(t, err)

	latest, err := st.LatestCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, latest.ID)
}

// --- Scraped data ---

func TestSQLite_ScrapedData_SaveGetClear(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.SaveCompany(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)

	require.NoError(t, st.SaveScrapedData(ctx, c.ID, model.ContentTitle, "Acme Digital"))
	require.NoError(t, st.SaveScrapedData(ctx, c.ID, model.ContentContext, "COMPANY: Acme Digital"))

	d, err := st.GetScrapedData(ctx, c.ID, model.ContentContext)
	require.NoError(t, err)
	assert.Equal(t, "COMPANY: Acme Digital", d.ContentText)
	assert.Equal(t, model.ContentContext, d.ContentType)
	assert.Equal(t, c.ID, d.CompanyID)

	require.NoError(t, st.ClearCompanyData(ctx, c.ID))

	_, err = st.GetScrapedData(ctx, c.ID, model.ContentContext)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetScrapedData(ctx, c.ID, model.ContentTitle)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ScrapedData_RequiresCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.SaveScrapedData(context.Background(), "no-such-company", model.ContentTitle, "x")
	assert.Error(t, err)
}

// --- Chat history ---

func TestSQLite_ChatHistory(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.SaveCompany(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		msg := &model.ChatMessage{
			CompanyID:      c.ID,
			Question:       fmt.Sprintf("question %d", i),
			Response:       "answer",
			ResponseTimeMS: int64(10 * i),
			Source:         model.AnswerSourceFallback,
		}
		require.NoError(t, st.SaveChatMessage(ctx, msg))
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.CreatedAt.IsZero())
	}

	msgs, err := st.ListChatHistory(ctx, c.ID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "question 4", msgs[0].Question, "newest first")
	assert.Equal(t, int64(40), msgs[0].ResponseTimeMS)
	assert.Equal(t, model.AnswerSourceFallback, msgs[0].Source)

	all, err := st.ListChatHistory(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := st.ListChatHistory(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
