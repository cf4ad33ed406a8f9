// Package notify wraps the optional outbound providers: SendGrid for email,
// Twilio for SMS and Mixpanel for analytics. A provider whose credentials are
// not configured is represented by a nil interface value and skipped by callers.
package notify

import "context"

type Mailer interface {
	Send(ctx context.Context, to []string, subject, text string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type Tracker interface {
	Track(ctx context.Context, event, distinctID string, props map[string]any) error
}

// Providers groups whatever is configured. Any field may be nil.
type Providers struct {
	Mailer  Mailer
	SMS     SMSSender
	Tracker Tracker
}
