package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rivo/uniseg"
)

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberPending   SubscriberStatus = "PENDING"
	SubscriberConfirmed SubscriberStatus = "CONFIRMED"
)

// Subscriber is the persisted representation of a newsletter recipient.
type Subscriber struct {
	ID           string           `json:"id" db:"id"`
	Email        string           `json:"email" db:"email"`
	Name         string           `json:"name" db:"name"`
	Status       SubscriberStatus `json:"status" db:"status"`
	SubscribedAt time.Time        `json:"subscribed_at" db:"subscribed_at"`
}

// NewSubscriber is a validated (name, email) pair parsed from untrusted
// input. It is the input to persistence, never stored as its own entity.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// ValidationError reports malformed input. It always maps to a client error
// and its message is safe to return to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ParseNewSubscriber validates raw form input into a NewSubscriber.
// The name is checked before the email, so when both are invalid the
// name error is the one reported.
func ParseNewSubscriber(rawName, rawEmail string) (NewSubscriber, error) {
	name, err := ParseSubscriberName(rawName)
	if err != nil {
		return NewSubscriber{}, err
	}
	email, err := ParseSubscriberEmail(rawEmail)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Name: name, Email: email}, nil
}

// maxNameGraphemes bounds the display name length, counted in grapheme
// clusters rather than bytes or runes.
const maxNameGraphemes = 256

const forbiddenNameCharacters = `/()"<>\{}`

// SubscriberName is a display name that passed validation. The zero value
// is invalid; instances come from ParseSubscriberName only.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates a raw display name. Names must be non-empty
// after trimming, at most 256 grapheme clusters, and free of characters that
// could break out of markup or queries.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, &ValidationError{Field: "name", Message: "subscriber name must not be empty"}
	}
	if uniseg.GraphemeClusterCount(raw) > maxNameGraphemes {
		return SubscriberName{}, &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("subscriber name is longer than %d characters", maxNameGraphemes),
		}
	}
	if strings.ContainsAny(raw, forbiddenNameCharacters) {
		return SubscriberName{}, &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("%q is not a valid subscriber name", raw),
		}
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string { return n.value }

var validate = validator.New()

// SubscriberEmail is an email address that passed validation. The zero
// value is invalid; instances come from ParseSubscriberEmail only.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates a raw address against the standard
// local-part@domain grammar.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if err := validate.Var(raw, "required,email"); err != nil {
		return SubscriberEmail{}, &ValidationError{
			Field:   "email",
			Message: fmt.Sprintf("%q is not a valid email address", raw),
		}
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string { return e.value }
