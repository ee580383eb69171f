package folio

import "context"

// Message is an outgoing notification email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers notification email. A nil error means the message was
// handed off successfully.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
