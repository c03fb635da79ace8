package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/newsletter-service/internal/domain"
	"github.com/ignite/newsletter-service/internal/pkg/logger"
)

// Template names resolved through the renderer.
const (
	confirmationHTMLTemplate = "confirmation_email.html"
	confirmationTextTemplate = "confirmation_email.txt"
	newsletterHTMLTemplate   = "newsletter.html"
	newsletterTextTemplate   = "newsletter.txt"
)

const confirmationSubject = "Please confirm your subscription"

// Service implements the subscription workflows. All public methods are
// safe for concurrent use if the collaborators are concurrency-safe; the
// service itself holds no per-request state.
type Service struct {
	repo     Repository
	mailer   EmailDispatcher
	renderer TemplateRenderer
	baseURL  string
}

// NewService creates a subscription service. baseURL is the public URL the
// confirmation links point back to, without a trailing slash.
func NewService(repo Repository, mailer EmailDispatcher, renderer TemplateRenderer, baseURL string) *Service {
	return &Service{repo: repo, mailer: mailer, renderer: renderer, baseURL: baseURL}
}

// Subscribe records a new pending subscriber and emails their confirmation
// link. The subscriber and token are committed before the email goes out;
// a failed send leaves both in place (the persisted state is the source of
// truth, delivery is best-effort) and surfaces as a DeliveryError.
func (s *Service) Subscribe(ctx context.Context, rawName, rawEmail string) error {
	sub, err := domain.ParseNewSubscriber(rawName, rawEmail)
	if err != nil {
		return err
	}

	token, err := domain.GenerateSubscriptionToken()
	if err != nil {
		return err
	}

	record := &domain.Subscriber{
		ID:           uuid.New().String(),
		Email:        sub.Email.String(),
		Name:         sub.Name.String(),
		Status:       domain.SubscriberPending,
		SubscribedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateSubscriber(ctx, record, token); err != nil {
		return fmt.Errorf("storing subscriber: %w", err)
	}

	if err := s.sendConfirmation(ctx, sub, token); err != nil {
		// The pending row and its token stay valid; the subscriber just
		// never received the link.
		logger.Warn("confirmation email failed, subscriber left pending",
			"subscriber_email", sub.Email.String(),
			"error", err.Error())
		return &DeliveryError{Recipient: sub.Email.String(), Err: err}
	}
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, sub domain.NewSubscriber, token domain.SubscriptionToken) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
	vars := map[string]string{
		"subscriber_name":   sub.Name.String(),
		"confirmation_link": link,
	}

	htmlBody, err := s.renderer.Render(confirmationHTMLTemplate, vars)
	if err != nil {
		return fmt.Errorf("rendering confirmation email: %w", err)
	}
	textBody, err := s.renderer.Render(confirmationTextTemplate, vars)
	if err != nil {
		return fmt.Errorf("rendering confirmation email: %w", err)
	}

	return s.mailer.Send(ctx, sub.Email, confirmationSubject, htmlBody, textBody)
}

// Confirm flips the subscriber bound to the token to CONFIRMED. Confirming
// an already confirmed subscriber succeeds: re-clicking a link must not
// fail. A well-formed but unknown token returns ErrTokenNotFound.
func (s *Service) Confirm(ctx context.Context, rawToken string) error {
	token, err := domain.ParseSubscriptionToken(rawToken)
	if err != nil {
		return err
	}

	id, found, err := s.repo.FindSubscriberIDByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("resolving subscription token: %w", err)
	}
	if !found {
		return ErrTokenNotFound
	}

	if err := s.repo.SetStatus(ctx, id, domain.SubscriberConfirmed); err != nil {
		return fmt.Errorf("confirming subscriber: %w", err)
	}
	return nil
}

// Distribute sends the newsletter to every confirmed subscriber, one at a
// time in storage order. Rows whose stored contact details no longer parse
// are skipped with a warning so one corrupted row cannot block the rest of
// the list; the first failed send aborts the remaining fan-out.
func (s *Service) Distribute(ctx context.Context, title, htmlContent, textContent string) error {
	rows, err := s.repo.ListConfirmed(ctx)
	if err != nil {
		return fmt.Errorf("listing confirmed subscribers: %w", err)
	}

	for _, row := range rows {
		sub, err := domain.ParseNewSubscriber(row.Name, row.Email)
		if err != nil {
			logger.Warn("skipping subscriber with invalid stored contact details",
				"subscriber_email", row.Email,
				"error", err.Error())
			continue
		}
		if err := s.sendNewsletter(ctx, sub, title, htmlContent, textContent); err != nil {
			return &DeliveryError{Recipient: sub.Email.String(), Err: err}
		}
	}
	return nil
}

func (s *Service) sendNewsletter(ctx context.Context, sub domain.NewSubscriber, title, htmlContent, textContent string) error {
	vars := map[string]string{
		"subscriber_name": sub.Name.String(),
		"html_newsletter": htmlContent,
		"text_newsletter": textContent,
	}

	htmlBody, err := s.renderer.Render(newsletterHTMLTemplate, vars)
	if err != nil {
		return fmt.Errorf("rendering newsletter: %w", err)
	}
	textBody, err := s.renderer.Render(newsletterTextTemplate, vars)
	if err != nil {
		return fmt.Errorf("rendering newsletter: %w", err)
	}

	return s.mailer.Send(ctx, sub.Email, title, htmlBody, textBody)
}
