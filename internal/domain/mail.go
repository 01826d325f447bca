package domain

import "context"

// PasswordResetMail is the job handed to the external mailer when a user asks
// to recover a password
type PasswordResetMail struct {
	To   string `json:"to"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// MailPublisher queues outgoing mail for delivery by another process
type MailPublisher interface {
	PublishPasswordReset(ctx context.Context, mail PasswordResetMail) error
}
