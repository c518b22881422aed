// Package mail delivers outgoing messages such as registration codes. The
// server ships two backends: LogMailer, which only logs, and S3DropMailer,
// which writes each message as an .eml object into a bucket that an
// external relay picks up.
package mail

import (
	"context"

	"github.com/dmitrijs2005/oclus/internal/logging"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Meant for
// development, where the registration code is read from the server log.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info(ctx, "outgoing mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
