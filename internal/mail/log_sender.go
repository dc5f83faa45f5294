package mail

import (
	"context"
	"log"
)

// LogSender writes messages to the process log instead of a mailbox.
// Used in local setups where SMTP is not configured; the outbox still
// records every message, so nothing is lost.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, body, attachmentPath string) error {
	s.logger.Printf("mail (log only) to=%s subject=%q attachment=%s\n%s", to, subject, attachmentPath, body)
	return nil
}
