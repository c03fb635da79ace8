package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	tokenLength   = 25
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// SubscriptionToken is a single-use confirmation token binding a
// confirmation request to one subscriber. The zero value is invalid;
// instances come from ParseSubscriptionToken or GenerateSubscriptionToken.
type SubscriptionToken struct {
	value string
}

// ParseSubscriptionToken validates a raw token. Anything other than exactly
// 25 alphanumeric characters is rejected before any lookup happens.
func ParseSubscriptionToken(raw string) (SubscriptionToken, error) {
	if len(raw) != tokenLength || !isAlphanumeric(raw) {
		return SubscriptionToken{}, &ValidationError{
			Field:   "subscription_token",
			Message: fmt.Sprintf("%q is not a valid subscription token", raw),
		}
	}
	return SubscriptionToken{value: raw}, nil
}

// GenerateSubscriptionToken mints a fresh token from crypto/rand over the
// 62-character alphanumeric alphabet.
func GenerateSubscriptionToken() (SubscriptionToken, error) {
	buf := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return SubscriptionToken{}, fmt.Errorf("generating subscription token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return SubscriptionToken{value: string(buf)}, nil
}

func (t SubscriptionToken) String() string { return t.value }

func isAlphanumeric(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
