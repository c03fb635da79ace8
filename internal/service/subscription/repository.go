package subscription

import (
	"context"

	"github.com/ignite/newsletter-service/internal/domain"
)

// Repository defines the storage contract for subscriptions.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateSubscriber inserts the subscriber row and its confirmation
	// token in a single transaction. Neither is observable unless both
	// inserts commit: a subscriber without a confirmable token would be
	// unrecoverable.
	CreateSubscriber(ctx context.Context, sub *domain.Subscriber, token domain.SubscriptionToken) error

	// FindSubscriberIDByToken resolves a token to a subscriber id.
	// found is false when the token is bound to no subscriber.
	FindSubscriberIDByToken(ctx context.Context, token domain.SubscriptionToken) (id string, found bool, err error)

	// SetStatus updates a subscriber's status.
	SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) error

	// ListConfirmed returns the contact details of every confirmed
	// subscriber, as stored and without validation.
	ListConfirmed(ctx context.Context) ([]ContactRow, error)
}

// ContactRow is a subscriber contact as stored. The values may have become
// invalid after storage (manual edits, migrations) and must be re-parsed
// before use.
type ContactRow struct {
	Email string
	Name  string
}

// EmailDispatcher sends a single templated message to one recipient.
type EmailDispatcher interface {
	Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}

// TemplateRenderer renders a named template with string variables. It fails
// on a missing template or an unresolved variable.
type TemplateRenderer interface {
	Render(name string, vars map[string]string) (string, error)
}
