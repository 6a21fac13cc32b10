package mailer

import "context"

// Message is a rendered email. HTML is optional; Text is always sent.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a message synchronously. Errors are returned to the
// caller; nothing is queued or retried.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
