package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter-service/internal/domain"
	"github.com/ignite/newsletter-service/internal/service/subscription"
)

// stubRepo is an in-memory repository for handler tests.
type stubRepo struct {
	mu          sync.Mutex
	subscribers map[string]*domain.Subscriber
	tokens      map[string]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		subscribers: make(map[string]*domain.Subscriber),
		tokens:      make(map[string]string),
	}
}

func (s *stubRepo) CreateSubscriber(_ context.Context, sub *domain.Subscriber, token domain.SubscriptionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.subscribers[cp.ID] = &cp
	s.tokens[token.String()] = cp.ID
	return nil
}

func (s *stubRepo) FindSubscriberIDByToken(_ context.Context, token domain.SubscriptionToken) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token.String()]
	return id, ok, nil
}

func (s *stubRepo) SetStatus(_ context.Context, id string, status domain.SubscriberStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscribers[id]
	if !ok {
		return fmt.Errorf("no subscriber %s", id)
	}
	sub.Status = status
	return nil
}

func (s *stubRepo) ListConfirmed(_ context.Context) ([]subscription.ContactRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscription.ContactRow
	for _, sub := range s.subscribers {
		if sub.Status == domain.SubscriberConfirmed {
			out = append(out, subscription.ContactRow{Email: sub.Email, Name: sub.Name})
		}
	}
	return out, nil
}

// stubDispatcher records outgoing emails; failWith makes every Send fail.
type stubDispatcher struct {
	mu       sync.Mutex
	sent     []string // recipients
	lastHTML string
	failWith error
}

func (d *stubDispatcher) Send(_ context.Context, recipient domain.SubscriberEmail, _, htmlBody, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.sent = append(d.sent, recipient.String())
	d.lastHTML = htmlBody
	return nil
}

// stubRenderer echoes the template name plus its variables.
type stubRenderer struct{}

func (stubRenderer) Render(name string, vars map[string]string) (string, error) {
	out := name
	for k, v := range vars {
		out += " " + k + "=" + v
	}
	return out, nil
}

func setupTestServer(t *testing.T) (http.Handler, *stubRepo, *stubDispatcher) {
	t.Helper()
	repo := newStubRepo()
	dispatcher := &stubDispatcher{}
	svc := subscription.NewService(repo, dispatcher, stubRenderer{}, "https://newsletter.example.com")
	return SetupRoutes(NewHandlers(svc)), repo, dispatcher
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postJSON(handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// mintedToken pulls the single stored confirmation token out of the repo.
func mintedToken(t *testing.T, repo *stubRepo) string {
	t.Helper()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.tokens, 1)
	for token := range repo.tokens {
		return token
	}
	return ""
}

func TestHealthCheck(t *testing.T) {
	handler, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestSubscribe(t *testing.T) {
	handler, repo, dispatcher := setupTestServer(t)

	rec := postForm(handler, "/subscriptions", url.Values{
		"name":  {"Jane Doe"},
		"email": {"jane@example.com"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"jane@example.com"}, dispatcher.sent)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.subscribers, 1)
	for _, sub := range repo.subscribers {
		assert.Equal(t, domain.SubscriberPending, sub.Status)
		assert.Equal(t, "jane@example.com", sub.Email)
	}
}

func TestSubscribeInvalidInput(t *testing.T) {
	handler, repo, _ := setupTestServer(t)

	cases := []struct {
		label string
		form  url.Values
	}{
		{"empty name", url.Values{"name": {"   "}, "email": {"jane@example.com"}}},
		{"forbidden character in name", url.Values{"name": {"Jane/Doe"}, "email": {"jane@example.com"}}},
		{"malformed email", url.Values{"name": {"Jane"}, "email": {"not-an-email"}}},
		{"missing fields", url.Values{}},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			rec := postForm(handler, "/subscriptions", tc.form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.subscribers)
}

func TestSubscribeDispatchFailure(t *testing.T) {
	handler, repo, dispatcher := setupTestServer(t)
	dispatcher.failWith = errors.New("sendgrid unavailable")

	rec := postForm(handler, "/subscriptions", url.Values{
		"name":  {"Jane Doe"},
		"email": {"jane@example.com"},
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The generic message must not leak the upstream error.
	assert.NotContains(t, rec.Body.String(), "sendgrid")

	// The subscriber row survives the failed send.
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.subscribers, 1)
}

func TestConfirm(t *testing.T) {
	handler, repo, _ := setupTestServer(t)

	rec := postForm(handler, "/subscriptions", url.Values{
		"name":  {"Jane Doe"},
		"email": {"jane@example.com"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := mintedToken(t, repo)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token="+token, nil)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	repo.mu.Lock()
	for _, sub := range repo.subscribers {
		assert.Equal(t, domain.SubscriberConfirmed, sub.Status)
	}
	repo.mu.Unlock()

	// Confirming again is a no-op, not an error.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token="+token, nil)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfirmMalformedToken(t *testing.T) {
	handler, _, _ := setupTestServer(t)

	for _, token := range []string{"", "short", strings.Repeat("a", 26), strings.Repeat("!", 25)} {
		req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token="+url.QueryEscape(token), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "token %q", token)
	}
}

func TestConfirmUnknownToken(t *testing.T) {
	handler, _, _ := setupTestServer(t)

	// Well-formed but bound to nobody.
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token="+strings.Repeat("a", 25), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDistributeNewsletter(t *testing.T) {
	handler, repo, dispatcher := setupTestServer(t)
	repo.subscribers["id-1"] = &domain.Subscriber{
		ID: "id-1", Email: "jane@example.com", Name: "Jane", Status: domain.SubscriberConfirmed,
	}
	repo.subscribers["id-2"] = &domain.Subscriber{
		ID: "id-2", Email: "pending@example.com", Name: "Pat", Status: domain.SubscriberPending,
	}

	body := newsletterBody{Title: "Issue #1"}
	body.Content.Text = "plain text"
	body.Content.HTML = "<p>html</p>"
	rec := postJSON(handler, "/newsletters", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"jane@example.com"}, dispatcher.sent)
}

func TestDistributeNewsletterSkipsCorruptedRow(t *testing.T) {
	handler, repo, dispatcher := setupTestServer(t)
	repo.subscribers["id-1"] = &domain.Subscriber{
		ID: "id-1", Email: "not-an-email", Name: "Broken", Status: domain.SubscriberConfirmed,
	}
	repo.subscribers["id-2"] = &domain.Subscriber{
		ID: "id-2", Email: "jane@example.com", Name: "Jane", Status: domain.SubscriberConfirmed,
	}

	body := newsletterBody{Title: "Issue #1"}
	body.Content.Text = "plain text"
	body.Content.HTML = "<p>html</p>"
	rec := postJSON(handler, "/newsletters", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"jane@example.com"}, dispatcher.sent)
}

func TestDistributeNewsletterInvalidBody(t *testing.T) {
	handler, _, _ := setupTestServer(t)

	t.Run("not json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/newsletters", strings.NewReader("not-json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		body := newsletterBody{}
		body.Content.Text = "text"
		body.Content.HTML = "<p>html</p>"
		rec := postJSON(handler, "/newsletters", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing html content", func(t *testing.T) {
		body := newsletterBody{Title: "Issue #1"}
		body.Content.Text = "text"
		rec := postJSON(handler, "/newsletters", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDistributeNewsletterDispatchFailure(t *testing.T) {
	handler, repo, dispatcher := setupTestServer(t)
	repo.subscribers["id-1"] = &domain.Subscriber{
		ID: "id-1", Email: "jane@example.com", Name: "Jane", Status: domain.SubscriberConfirmed,
	}
	dispatcher.failWith = errors.New("sendgrid unavailable")

	body := newsletterBody{Title: "Issue #1"}
	body.Content.Text = "plain text"
	body.Content.HTML = "<p>html</p>"
	rec := postJSON(handler, "/newsletters", body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sendgrid")
}
