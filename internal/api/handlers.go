package api

import (
	"errors"
	"net/http"

	"github.com/ignite/newsletter-service/internal/domain"
	"github.com/ignite/newsletter-service/internal/pkg/httputil"
	"github.com/ignite/newsletter-service/internal/service/subscription"
)

// Handlers bundles the HTTP handlers for the subscription API.
type Handlers struct {
	subscriptions *subscription.Service
}

// NewHandlers creates the handler set backed by the given service.
func NewHandlers(svc *subscription.Service) *Handlers {
	return &Handlers{subscriptions: svc}
}

// HealthCheck reports process liveness.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// Subscribe records a new pending subscriber from url-encoded form fields
// `name` and `email` and sends the confirmation email.
//
//	POST /subscriptions
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "invalid form data")
		return
	}

	err := h.subscriptions.Subscribe(r.Context(), r.PostFormValue("name"), r.PostFormValue("email"))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "pending confirmation"})
}

// Confirm flips a pending subscriber to confirmed. Malformed tokens are a
// 400; well-formed tokens bound to nobody are a 401, not a 404 — the shape
// was valid but the token is unrecognized. Re-confirming succeeds.
//
//	GET /subscriptions/confirm?subscription_token=<25-char-alphanumeric>
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	err := h.subscriptions.Confirm(r.Context(), r.URL.Query().Get("subscription_token"))
	switch {
	case err == nil:
		httputil.OK(w, map[string]string{"status": "confirmed"})
	case errors.Is(err, subscription.ErrTokenNotFound):
		httputil.Unauthorized(w, "unknown subscription token")
	default:
		writeWorkflowError(w, err)
	}
}

// newsletterBody is the JSON body for POST /newsletters.
type newsletterBody struct {
	Title   string `json:"title"`
	Content struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	} `json:"content"`
}

// DistributeNewsletter fans the newsletter out to all confirmed subscribers.
//
//	POST /newsletters
func (h *Handlers) DistributeNewsletter(w http.ResponseWriter, r *http.Request) {
	var body newsletterBody
	if !httputil.Decode(w, r, &body) {
		return
	}
	if body.Title == "" {
		httputil.BadRequest(w, "title is required")
		return
	}
	if body.Content.Text == "" || body.Content.HTML == "" {
		httputil.BadRequest(w, "content.text and content.html are required")
		return
	}

	if err := h.subscriptions.Distribute(r.Context(), body.Title, body.Content.HTML, body.Content.Text); err != nil {
		writeWorkflowError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "sent"})
}

// writeWorkflowError maps workflow errors to HTTP statuses. Validation
// failures surface their message (it names the offending field); storage
// and delivery failures stay generic so no internal detail leaks.
func writeWorkflowError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		httputil.BadRequest(w, vErr.Message)
		return
	}
	httputil.InternalError(w, err)
}
