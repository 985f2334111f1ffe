// Package notify provides the outbound SMS and email sender collaborators.
// Senders return errors; swallowing delivery failures is the caller's decision.
package notify

import "context"

// SMSSender delivers a short text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, destination, message string) error
}

// EmailSender delivers an email to a single recipient.
type EmailSender interface {
	Send(ctx context.Context, destination, subject, body string) error
}
