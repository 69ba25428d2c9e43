package chatbot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitebot/internal/model"
	"github.com/sells-group/sitebot/internal/scrape"
	"github.com/sells-group/sitebot/internal/store"
)

const acmeHTML = `<html>
<head><title>Acme Digital</title><meta name="description" content="Digital agency for growing teams"></head>
<body>
  <h1>Welcome to Acme</h1>
  <ul><li>Web Development</li><li>Mobile Apps</li><li>Cloud Hosting</li></ul>
  <p>We build web and mobile applications for ambitious teams.</p>
  <a href="mailto:hello@acme.com">hello@acme.com</a>
</body>
</html>`

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "chatbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestService(t *testing.T, st store.Store, sc scrape.Scraper) *Service {
	t.Helper()
	return NewService(sc, st, NewResponder(nil, nil, nil, testResponderConfig), scrape.DefaultFormatLimits())
}

func TestService_CreateChatbot(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, &stubScraper{html: acmeHTML})
	ctx := context.Background()

	res, err := svc.CreateChatbot(ctx, " Acme ", "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "Acme Digital", res.Title)
	assert.Equal(t, 3, res.ServicesCount)
	assert.True(t, res.HasContactInfo)
	assert.Equal(t, "Acme", res.Session.CompanyName)
	assert.Equal(t, "https://acme.com", res.Session.WebsiteURL)
	assert.Contains(t, res.Session.Context, "COMPANY: Acme Digital")
	assert.Contains(t, res.Session.Context, "• Web Development")

	company, err := st.GetCompany(ctx, res.Session.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", company.Name)

	for ct, want := range map[model.ContentType]string{
		model.ContentTitle:       "Acme Digital",
		model.ContentDescription: "Digital agency for growing teams",
		model.ContentServices:    "Web Development, Mobile Apps, Cloud Hosting",
		model.ContentContext:     res.Session.Context,
	} {
		d, err := st.GetScrapedData(ctx, company.ID, ct)
		require.NoError(t, err, ct)
		assert.Equal(t, want, d.ContentText, ct)
	}
	contact, err := st.GetScrapedData(ctx, company.ID, model.ContentContactInfo)
	require.NoError(t, err)
	assert.Contains(t, contact.ContentText, "hello@acme.com")
}

func TestService_CreateChatbot_RebuildReusesCompany(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, &stubScraper{html: acmeHTML})
	ctx := context.Background()

	first, err := svc.CreateChatbot(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)
	second, err := svc.CreateChatbot(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, first.Session.CompanyID, second.Session.CompanyID)
}

func TestService_SessionsCountsLiveChatbots(t *testing.T) {
	svc := newTestService(t, nil, &stubScraper{html: acmeHTML})
	ctx := context.Background()
	assert.Equal(t, 0, svc.Sessions())

	_, err := svc.CreateChatbot(ctx, "Acme", "https://acme.com")
	require.NoError(t, err)
	_, err = svc.CreateChatbot(ctx, "Globex", "https://globex.example")
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Sessions())
}

func TestService_CreateChatbot_Validation(t *testing.T) {
	svc := newTestService(t, nil, &stubScraper{html: acmeHTML})

	_, err := svc.CreateChatbot(context.Background(), "", "acme.com")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateChatbot(context.Background(), "Acme", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_CreateChatbot_ScrapeFailure(t *testing.T) {
	sc := &stubScraper{err: scrape.ErrBlocked}
	svc := newTestService(t, nil, sc)

	_, err := svc.CreateChatbot(context.Background(), "Acme", "acme.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, scrape.ErrBlocked)
	assert.Equal(t, 0, svc.registry.Len())
}

func TestService_WorksWithoutStore(t *testing.T) {
	svc := newTestService(t, nil, &stubScraper{html: acmeHTML})
	ctx := context.Background()

	res, err := svc.CreateChatbot(ctx, "Acme", "acme.com")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.CompanyID)

	ans, err := svc.Ask(ctx, res.Session.CompanyID, "What services do you offer?")
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "Web Development")

	_, err = svc.History(ctx, res.Session.CompanyID, 10)
	assert.Error(t, err)
}

func TestService_Ask_RecordsHistory(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, &stubScraper{html: acmeHTML})
	ctx := context.Background()

	res, err := svc.CreateChatbot(ctx, "Acme", "acme.com")
	require.NoError(t, err)
	id := res.Session.CompanyID

	ans, err := svc.Ask(ctx, id, "How do I contact you?")
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "hello@acme.com")

	_, err = svc.Ask(ctx, id, "How do I contact you?")
	require.NoError(t, err)

	msgs, err := svc.History(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.AnswerSourceCache, msgs[0].Source)
	assert.Equal(t, model.AnswerSourceFallback, msgs[1].Source)
	assert.Equal(t, "How do I contact you?", msgs[1].Question)
}

func TestService_Ask_UnknownCompany(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, &stubScraper{html: acmeHTML})

	_, err := svc.Ask(context.Background(), "nope", "hello?")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	svcNoStore := newTestService(t, nil, &stubScraper{html: acmeHTML})
	_, err = svcNoStore.Ask(context.Background(), "nope", "hello?")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_Ask_Validation(t *testing.T) {
	svc := newTestService(t, nil, &stubScraper{html: acmeHTML})
	_, err := svc.Ask(context.Background(), "", "hello?")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Ask(context.Background(), "c1", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Ask_RestoresSessionFromStore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	built, err := newTestService(t, st, &stubScraper{html: acmeHTML}).CreateChatbot(ctx, "Acme", "acme.com")
	require.NoError(t, err)

	// A fresh service simulates a restart: its registry is empty.
	restarted := newTestService(t, st, &stubScraper{err: errors.New("must not scrape")})
	ans, err := restarted.Ask(ctx, built.Session.CompanyID, "What services do you offer?")
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "Mobile Apps")
	assert.Equal(t, 1, restarted.registry.Len())
}

func TestService_Status(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, st, &stubScraper{html: acmeHTML})
	ctx := context.Background()

	assert.False(t, svc.Status(ctx, "").Ready)

	res, err := svc.CreateChatbot(ctx, "Acme", "acme.com")
	require.NoError(t, err)

	latest := svc.Status(ctx, "")
	assert.True(t, latest.Ready)
	assert.Equal(t, "Acme", latest.CompanyName)
	assert.Equal(t, res.Session.CompanyID, latest.CompanyID)

	byID := svc.Status(ctx, res.Session.CompanyID)
	assert.True(t, byID.Ready)
	assert.Equal(t, "https://acme.com", byID.WebsiteURL)

	assert.False(t, svc.Status(ctx, "unknown").Ready)

	restarted := newTestService(t, st, &stubScraper{})
	assert.True(t, restarted.Status(ctx, "").Ready, "latest company is restored from the store")
}

// failingStore fails every call so tolerance of persistence errors can be
// checked.
type failingStore struct{ store.Store }

var errStoreDown = errors.New("database unavailable")

func (failingStore) SaveCompany(context.Context, string, string) (*model.Company, error) {
	return nil, errStoreDown
}
func (failingStore) GetCompany(context.Context, string) (*model.Company, error) {
	return nil, errStoreDown
}
func (failingStore) SaveChatMessage(context.Context, *model.ChatMessage) error { return errStoreDown }

func TestService_ToleratesStoreFailures(t *testing.T) {
	svc := newTestService(t, failingStore{}, &stubScraper{html: acmeHTML})
	ctx := context.Background()

	res, err := svc.CreateChatbot(ctx, "Acme", "acme.com")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.CompanyID)

	ans, err := svc.Ask(ctx, res.Session.CompanyID, "What services do you offer?")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.Text)
}
