package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/newsletter-service/internal/domain"
	"github.com/ignite/newsletter-service/internal/service/subscription"
)

// SubscriptionRepo implements subscription.Repository against PostgreSQL.
type SubscriptionRepo struct{ db *sql.DB }

// NewSubscriptionRepo creates a Postgres-backed subscription repository.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// CreateSubscriber inserts the subscriber and its token in one transaction.
// If the commit fails neither row is observable.
func (r *SubscriptionRepo) CreateSubscriber(ctx context.Context, sub *domain.Subscriber, token domain.SubscriptionToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (id, email, name, status, subscribed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sub.ID, sub.Email, sub.Name, string(sub.Status), sub.SubscribedAt); err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`, token.String(), sub.ID); err != nil {
		return fmt.Errorf("insert subscription token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) FindSubscriberIDByToken(ctx context.Context, token domain.SubscriptionToken) (string, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1
	`, token.String()).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find subscriber by token: %w", err)
	}
	return id, true, nil
}

func (r *SubscriptionRepo) SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1 WHERE id = $2
	`, string(status), id); err != nil {
		return fmt.Errorf("update subscriber status: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) ListConfirmed(ctx context.Context) ([]subscription.ContactRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, name FROM subscriptions WHERE status = 'CONFIRMED'
	`)
	if err != nil {
		return nil, fmt.Errorf("list confirmed subscribers: %w", err)
	}
	defer rows.Close()

	var out []subscription.ContactRow
	for rows.Next() {
		var c subscription.ContactRow
		if err := rows.Scan(&c.Email, &c.Name); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
