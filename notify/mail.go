// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package notify

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"boardfarm/errors"
	"boardfarm/internal/logging"
)

const (
	// DefaultServer is the SMTP server used when none is configured.
	DefaultServer = "smtp.office365.com:587"

	defaultMailTimeout = 30 * time.Second
)

// ErrInvalidSettings is returned for incomplete mail settings.
var ErrInvalidSettings = errors.New("invalid mail settings")

// Settings holds SMTP and address settings.
type Settings struct {
	// Server is the SMTP server as host:port.
	Server string
	// From is the sender address. It is also the SMTP login user.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Password string
	// Timeout bounds connecting to the server.
	Timeout time.Duration
}

// Validate checks that all required settings are present.
func (s *Settings) Validate() error {
	var missing []string
	if len(s.To) == 0 {
		missing = append(missing, "to address")
	}
	if s.From == "" {
		missing = append(missing, "from address")
	}
	if s.Password == "" {
		missing = append(missing, "smtp password")
	}
	if s.Server == "" {
		missing = append(missing, "smtp server")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidSettings, "%s not set", strings.Join(missing, ", "))
	}
	return nil
}

// Mailer is a Notifier that sends failure reports by e-mail.
type Mailer struct {
	settings    Settings
	attachments []string
}

// NewMailer returns a Mailer. The files in attachments are attached to every
// mail, e.g. console logs; files that cannot be read are skipped.
func NewMailer(s *Settings, attachments ...string) (*Mailer, error) {
	settings := *s
	if settings.Server == "" {
		settings.Server = DefaultServer
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultMailTimeout
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if _, _, err := splitServer(settings.Server); err != nil {
		return nil, errors.Wrapf(ErrInvalidSettings, "bad smtp server %q: %v", settings.Server, err)
	}
	return &Mailer{settings: settings, attachments: attachments}, nil
}

// NotifyFailure sends a mail describing r.
func (m *Mailer) NotifyFailure(ctx context.Context, r *Report) error {
	msg, err := m.compose(ctx, r)
	if err != nil {
		return err
	}
	c, err := m.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to send mail")
	}
	return nil
}

// compose builds the mail for r.
func (m *Mailer) compose(ctx context.Context, r *Report) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.settings.From); err != nil {
		return nil, errors.Wrapf(err, "bad from address %q", m.settings.From)
	}
	if err := msg.To(m.settings.To...); err != nil {
		return nil, errors.Wrap(err, "bad to address")
	}
	if len(m.settings.Cc) > 0 {
		if err := msg.Cc(m.settings.Cc...); err != nil {
			return nil, errors.Wrap(err, "bad cc address")
		}
	}
	if len(m.settings.Bcc) > 0 {
		if err := msg.Bcc(m.settings.Bcc...); err != nil {
			return nil, errors.Wrap(err, "bad bcc address")
		}
	}
	msg.Subject(r.Subject())
	msg.SetDateWithValue(r.Time)
	msg.SetBodyString(mail.TypeTextPlain, r.Body())

	for _, path := range m.attachments {
		if _, err := os.Stat(path); err != nil {
			logging.Infof(ctx, "Could not read file for attachment: %v", err)
			continue
		}
		msg.AttachFile(path)
	}
	return msg, nil
}

// client returns an SMTP client that upgrades to TLS when the server
// offers STARTTLS and logs in with PLAIN auth.
func (m *Mailer) client() (*mail.Client, error) {
	host, port, err := splitServer(m.settings.Server)
	if err != nil {
		return nil, err
	}
	return mail.NewClient(host,
		mail.WithPort(port),
		mail.WithTimeout(m.settings.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.settings.From),
		mail.WithPassword(m.settings.Password),
	)
}

// splitServer splits a "host:port" server address.
func splitServer(server string) (host string, port int, err error) {
	host, p, err := net.SplitHostPort(server)
	if err != nil {
		return "", 0, err
	}
	port, err = strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, errors.Errorf("bad port %q", p)
	}
	return host, port, nil
}
