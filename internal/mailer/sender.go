package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	mail "gopkg.in/gomail.v2"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename string
	Data     []byte
}

// Message is a single-recipient HTML email.
type Message struct {
	From       string
	To         string
	Subject    string
	HTML       string
	Attachment *Attachment
}

// Sender delivers one message to one address.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	SSL           bool
	SkipTLSVerify bool
}

// SMTPSender sends mail through an SMTP relay. Attachments are base64
// encoded by the MIME writer.
type SMTPSender struct {
	dialer *mail.Dialer
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	if cfg.SkipTLSVerify {
		log.Warn().Str("host", cfg.Host).Msg("TLS certificate verification is disabled for SMTP")
	}
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(buildMessage(msg)); err != nil {
		return fmt.Errorf("could not send email: %w", err)
	}
	return nil
}

// Check opens and closes an SMTP session without sending anything.
func (s *SMTPSender) Check() error {
	closer, err := s.dialer.Dial()
	if err != nil {
		return fmt.Errorf("dial SMTP %s:%d: %w", s.dialer.Host, s.dialer.Port, err)
	}
	return closer.Close()
}

func buildMessage(msg Message) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if a := msg.Attachment; a != nil {
		data := a.Data
		m.Attach(a.Filename, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}
