// Package httputil provides small helpers for writing consistent JSON
// responses and error envelopes across all HTTP handlers.
package httputil
