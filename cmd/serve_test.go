package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitebot/internal/chatbot"
	"github.com/sells-group/sitebot/internal/scrape"
	"github.com/sells-group/sitebot/internal/store"
)

const acmeSite = `<html>
<head><title>Acme Digital</title><meta name="description" content="Digital agency for growing teams"></head>
<body>
  <h1>Welcome to Acme</h1>
  <ul><li>Web Development</li><li>Mobile Apps</li><li>Cloud Hosting</li></ul>
  <p>We build web and mobile applications for ambitious teams.</p>
  <a href="mailto:hello@acme.com">hello@acme.com</a>
</body>
</html>`

// newTestSite serves acmeSite on / and 403 on /blocked.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(acmeSite))
	})
	mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, withStore bool) *chatbot.Service {
	t.Helper()
	var st store.Store
	if withStore {
		s, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		require.NoError(t, s.Migrate(context.Background()))
		st = s
	}
	chain := scrape.DefaultChain(scrape.HTTPOptions{MaxAttempts: 1}, 0)
	responder := chatbot.NewResponder(nil, nil, nil, chatbot.ResponderConfig{})
	return chatbot.NewService(chain, st, responder, scrape.DefaultFormatLimits())
}

func newTestRouter(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	return newRouter(newTestService(t, withStore), routerOptions{})
}

func doJSON(t *testing.T, h http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func createAcme(t *testing.T, h http.Handler, siteURL string) string {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/create-chatbot", map[string]string{
		"company_name": "Acme",
		"website_url":  siteURL,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	id, _ := body["company_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestHealthEndpoint_CountsSessions(t *testing.T) {
	site := newTestSite(t)
	h := newTestRouter(t, false)
	createAcme(t, h, site.URL)

	rr := doJSON(t, h, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decodeBody(t, rr)["sessions"])
}

func TestHomeEndpoint(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "online", body["status"])
	endpoints, ok := body["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/chat [POST]", endpoints["chat"])
}

func TestCreateChatbot_Valid(t *testing.T) {
	site := newTestSite(t)
	h := newTestRouter(t, true)

	rr := doJSON(t, h, http.MethodPost, "/create-chatbot", map[string]string{
		"company_name": "Acme",
		"website_url":  site.URL,
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Chatbot created for Acme", body["message"])
	assert.NotEmpty(t, body["company_id"])

	extracted, ok := body["data_extracted"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme Digital", extracted["title"])
	assert.Equal(t, float64(3), extracted["services_count"])
	assert.Equal(t, true, extracted["has_contact_info"])
}

func TestCreateChatbot_MissingFields(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodPost, "/create-chatbot", map[string]string{"company_name": "Acme"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Both company_name and website_url are required", body["error"])
}

func TestCreateChatbot_InvalidJSON(t *testing.T) {
	h := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/create-chatbot", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No data provided", decodeBody(t, rr)["error"])
}

func TestCreateChatbot_Blocked(t *testing.T) {
	site := newTestSite(t)
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodPost, "/create-chatbot", map[string]string{
		"company_name": "Acme",
		"website_url":  site.URL + "/blocked",
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "website blocked access")
}

func TestChat_FallbackAnswer(t *testing.T) {
	site := newTestSite(t)
	h := newTestRouter(t, true)
	id := createAcme(t, h, site.URL)

	rr := doJSON(t, h, http.MethodPost, "/chat", map[string]string{
		"company_id": id,
		"question":   "What services do you offer?",
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["fallback"])
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, "fallback", body["source"])
	assert.Contains(t, body["response"], "Web Development")
	assert.Contains(t, body, "response_time_ms")

	// Same question again is served from the cache.
	rr = doJSON(t, h, http.MethodPost, "/chat", map[string]string{
		"company_id": id,
		"question":   "what services do you offer?  ",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body = decodeBody(t, rr)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "cache", body["source"])
}

func TestChat_MissingFields(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodPost, "/chat", map[string]string{"question": "hello"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Both company_id and question are required", decodeBody(t, rr)["error"])
}

func TestChat_UnknownCompany(t *testing.T) {
	h := newTestRouter(t, true)

	rr := doJSON(t, h, http.MethodPost, "/chat", map[string]string{
		"company_id": "does-not-exist",
		"question":   "hello",
	})

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["success"])
}

func TestChatbotStatus(t *testing.T) {
	site := newTestSite(t)
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodGet, "/chatbot-status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["ready"])

	id := createAcme(t, h, site.URL)

	rr = doJSON(t, h, http.MethodGet, "/chatbot-status", nil)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "Acme", body["company_name"])
	assert.Equal(t, id, body["company_id"])

	rr = doJSON(t, h, http.MethodGet, "/chatbot-status?company_id="+id, nil)
	assert.Equal(t, true, decodeBody(t, rr)["ready"])

	rr = doJSON(t, h, http.MethodGet, "/chatbot-status?company_id=other", nil)
	assert.Equal(t, false, decodeBody(t, rr)["ready"])
}

func TestChatHistory(t *testing.T) {
	site := newTestSite(t)
	h := newTestRouter(t, true)
	id := createAcme(t, h, site.URL)

	for _, q := range []string{"What services do you offer?", "How can I contact you?"} {
		rr := doJSON(t, h, http.MethodPost, "/chat", map[string]string{"company_id": id, "question": q})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doJSON(t, h, http.MethodGet, "/chat-history?company_id="+id+"&limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first, ok := msgs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "How can I contact you?", first["user_question"])
}

func TestChatHistory_Validation(t *testing.T) {
	h := newTestRouter(t, true)

	rr := doJSON(t, h, http.MethodGet, "/chat-history", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/chat-history?company_id=x&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/chat-history?company_id=x", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, decodeBody(t, rr)["messages"])
}

func TestChatHistory_NoStore(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodGet, "/chat-history?company_id=x", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestTestAI_NoModel(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodGet, "/test-ai", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "no model API key configured", body["error"])
}

func TestTestDB(t *testing.T) {
	rr := doJSON(t, newTestRouter(t, true), http.MethodGet, "/test-db", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["success"])

	rr = doJSON(t, newTestRouter(t, false), http.MethodGet, "/test-db", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to connect to database", decodeBody(t, rr)["error"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newRouter(newTestService(t, false), routerOptions{AllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	h := newRouter(newTestService(t, false), routerOptions{RateLimitPerMin: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, doJSON(t, h, http.MethodGet, "/health", nil).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, false)

	rr := doJSON(t, h, http.MethodGet, "/chat", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
