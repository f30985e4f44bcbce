package mailer

import "context"

// Email is one outgoing message to a single recipient.
type Email struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	// Send delivers e and returns the provider's message id when it has one.
	Send(ctx context.Context, e Email) (string, error)
}
