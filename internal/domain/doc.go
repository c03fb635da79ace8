// Package domain defines the core business types for the newsletter service.
//
// The parse-don't-validate value objects (SubscriberName, SubscriberEmail,
// SubscriptionToken) make "validated input" and "arbitrary string" distinct
// types at every call boundary: a function that takes a SubscriberEmail never
// has to re-validate it, and nothing malformed can reach it by construction.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation lives in the Parse constructors; there is no other way to
//     obtain a value object
package domain
