// Package mailer delivers report artifacts over email. The SMTP sink
// speaks to a configured relay; the sendmail sink hands the message to
// the local MTA.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Attachment is a file to attach to the outgoing message, held in
// memory so delivery does not depend on scratch files surviving.
type Attachment struct {
	Filename string
	Data     []byte
}

// Message is one outgoing email.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sink delivers messages. Implementations wrap their transport errors
// in a DeliveryError so callers can report failed delivery without
// retracting the artifacts that were already produced.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError means the message could not be handed off to the
// transport. The report artifacts themselves are fine.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver email: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// TLSMode selects how the SMTP connection is secured.
type TLSMode string

const (
	TLSModeNone     TLSMode = "none"
	TLSModeStartTLS TLSMode = "starttls"
	TLSModeImplicit TLSMode = "tls"
)

type SMTPConfig struct {
	Host     string  `json:"host"`
	Port     int     `json:"port"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	From     string  `json:"from"`
	TLS      TLSMode `json:"tls"`
}

// Validate checks the settings a relay connection cannot do without.
// Meant to run before any scraping starts, so an unconfigured relay
// does not surface only after a long run.
func (c SMTPConfig) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Port == 0 {
		missing = append(missing, "port")
	}
	if c.From == "" {
		missing = append(missing, "from")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete smtp settings, missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// SMTPSink sends through an SMTP relay.
type SMTPSink struct {
	config SMTPConfig
}

func NewSMTPSink(config SMTPConfig) *SMTPSink {
	if config.TLS == "" {
		config.TLS = TLSModeStartTLS
	}
	return &SMTPSink{config: config}
}

func (s *SMTPSink) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e, err := buildEmail(s.config.From, msg)
	if err != nil {
		return &DeliveryError{Err: err}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	switch s.config.TLS {
	case TLSModeImplicit:
		err = e.SendWithTLS(addr, auth, nil)
	case TLSModeStartTLS:
		err = e.SendWithStartTLS(addr, auth, nil)
	default:
		err = e.Send(addr, auth)
	}
	if err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

func buildEmail(from string, msg Message) (*email.Email, error) {
	e := email.NewEmail()
	e.From = from
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)
	for _, a := range msg.Attachments {
		_, err := e.Attach(bytes.NewReader(a.Data), a.Filename, contentType(a.Filename))
		if err != nil {
			return nil, fmt.Errorf("could not attach %q: %w", a.Filename, err)
		}
	}
	return e, nil
}

func contentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(filename, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
