// Package subscription implements the double-opt-in workflows: recording a
// pending subscriber and mailing their confirmation link, confirming a
// subscriber from a token, and fanning a newsletter out to every confirmed
// address.
//
// The service depends only on the Repository, EmailDispatcher, and
// TemplateRenderer interfaces; concrete implementations live in
// internal/repository/postgres, internal/sendgrid, and internal/templates.
package subscription
