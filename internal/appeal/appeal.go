// Package appeal composes and sends account unblock appeals by mail. Each
// appeal is rendered from a template carrying a {nomor} placeholder for the
// affected identifier, with the sender persona varied per message so repeated
// appeals do not read identically.
package appeal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/smtp"
	"strings"
	"time"

	"numcheck/internal/config"
	"numcheck/internal/logging"
)

// Placeholder is replaced with the appealed identifier in templates.
const Placeholder = "{nomor}"

// ErrNotConfigured indicates mail credentials are missing from the config.
var ErrNotConfigured = errors.New("appeal: mail not configured")

// Template is one appeal letter with the identifier placeholder in its body.
// To overrides the sender's default destination when set.
type Template struct {
	To      string
	Subject string
	Body    string
}

// DefaultTemplates are the built-in appeal letters.
var DefaultTemplates = []Template{
	{
		Subject: "Request to review my account " + Placeholder,
		Body: "Hello,\n\nMy account " + Placeholder + " was blocked and I believe this was a mistake. " +
			"I use this account to stay in touch with my family and for my small business. " +
			"Please review my account and restore access.\n\nThank you,\n{name}",
	},
	{
		Subject: "Appeal for blocked number " + Placeholder,
		Body: "Dear support team,\n\nI am writing about my number " + Placeholder + " which can no longer " +
			"connect. I have not violated the terms of service and I depend on this number daily. " +
			"Kindly check what happened and lift the block.\n\nBest regards,\n{name}",
	},
	{
		Subject: "Account " + Placeholder + " unable to connect",
		Body: "Hi,\n\nSince this morning my number " + Placeholder + " has been unable to log in. " +
			"If my account was flagged, please re-check it, as I only use it for personal messages.\n\n" +
			"Sincerely,\n{name}",
	},
}

var personaNames = []string{
	"Andi Saputra", "Budi Santoso", "Citra Lestari", "Dewi Anggraini",
	"Eko Prasetyo", "Fitri Handayani", "Gita Permata", "Hendra Wijaya",
	"Indah Sari", "Joko Susilo", "Kartika Putri", "Lukman Hakim",
}

// Message is a rendered appeal ready to send. To is empty when the sender's
// default destination applies.
type Message struct {
	To      string
	Subject string
	Body    string
	Persona string
}

// Composer renders appeal messages with a seeded source so tests are
// deterministic.
type Composer struct {
	templates []Template
	rng       *rand.Rand
}

// NewComposer builds a composer over templates. Nil templates selects the
// built-ins.
func NewComposer(templates []Template, seed int64) *Composer {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	return &Composer{
		templates: templates,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Compose picks one of the composer's templates and renders it for id.
func (c *Composer) Compose(id string) Message {
	return c.Render(c.templates[c.rng.Intn(len(c.templates))], id)
}

// Render fills tpl's placeholders for id with a random persona.
func (c *Composer) Render(tpl Template, id string) Message {
	persona := personaNames[c.rng.Intn(len(personaNames))]
	render := func(s string) string {
		s = strings.ReplaceAll(s, Placeholder, id)
		return strings.ReplaceAll(s, "{name}", persona)
	}
	return Message{
		To:      tpl.To,
		Subject: render(tpl.Subject),
		Body:    render(tpl.Body),
		Persona: persona,
	}
}

// Transport delivers one composed mail message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

type smtpTransport struct {
	addr string
	auth smtp.Auth
}

// NewSMTPTransport builds a Transport over the configured mail account.
func NewSMTPTransport(cfg config.Mail) (Transport, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, ErrNotConfigured
	}
	return &smtpTransport{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}, nil
}

func (t *smtpTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(t.addr, t.auth, from, to, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Sender ties a composer to a transport and destination.
type Sender struct {
	transport Transport
	composer  *Composer
	active    func() (Template, bool)
	from      string
	to        []string
	logger    *slog.Logger
	now       func() time.Time
}

// SenderOptions configures a Sender. Transport, From and To are required.
// ActiveTemplate, when set and returning true, selects the letter appeals
// are rendered from; otherwise the composer picks among the built-ins.
type SenderOptions struct {
	Transport      Transport
	Composer       *Composer
	ActiveTemplate func() (Template, bool)
	From           string
	To             []string
	Logger         *slog.Logger
	Now            func() time.Time
}

// NewSender constructs a Sender.
func NewSender(opts SenderOptions) (*Sender, error) {
	if opts.Transport == nil {
		return nil, errors.New("appeal: transport required")
	}
	if opts.From == "" || len(opts.To) == 0 {
		return nil, errors.New("appeal: from and to addresses required")
	}
	composer := opts.Composer
	if composer == nil {
		composer = NewComposer(nil, time.Now().UnixNano())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Sender{
		transport: opts.Transport,
		composer:  composer,
		active:    opts.ActiveTemplate,
		from:      opts.From,
		to:        opts.To,
		logger:    logging.NewComponentLogger(opts.Logger, "appeal"),
		now:       now,
	}, nil
}

// Appeal composes and sends one appeal for id, returning the rendered
// message. An active template takes precedence over the built-in letters.
func (s *Sender) Appeal(ctx context.Context, id string) (Message, error) {
	var msg Message
	if s.active != nil {
		if tpl, ok := s.active(); ok {
			msg = s.composer.Render(tpl, id)
		}
	}
	if msg.Subject == "" && msg.Body == "" {
		msg = s.composer.Compose(id)
	}
	to := s.to
	if msg.To != "" {
		to = []string{msg.To}
	}
	raw := s.encode(msg, to)
	if err := s.transport.Send(ctx, s.from, to, raw); err != nil {
		return Message{}, fmt.Errorf("appeal for %s: %w", id, err)
	}
	s.logger.Info("appeal sent",
		logging.String("id", id),
		logging.String("persona", msg.Persona))
	return msg, nil
}

func (s *Sender) encode(msg Message, to []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
