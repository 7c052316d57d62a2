package mailer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// SendmailSink hands the fully formed message to the local MTA via the
// sendmail binary. Useful on hosts that relay mail themselves.
type SendmailSink struct {
	path string
	from string
}

func NewSendmailSink(from string) *SendmailSink {
	return &SendmailSink{path: "sendmail", from: from}
}

func (s *SendmailSink) Send(ctx context.Context, msg Message) error {
	e, err := buildEmail(s.from, msg)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	raw, err := e.Bytes()
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("could not serialize message: %w", err)}
	}

	cmd := exec.CommandContext(ctx, s.path, "-t")
	cmd.Stdin = bytes.NewReader(raw)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &DeliveryError{Err: fmt.Errorf("sendmail: %w: %s", err, stderr.String())}
	}
	return nil
}
