package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/locale"
)

// Mail is a rendered plain-text e-mail.
type Mail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers a rendered e-mail. A returned error makes the queue retry.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Render builds the e-mail for action about a, in language t. a must have
// its guest and offering (nutritionist, service, location) loaded.
func Render(t language.Tag, action Action, from string, a *domain.Appointment) (Mail, error) {
	o := a.NutritionistService
	nutritionist := strings.TrimSpace(o.Nutritionist.Title + " " + o.Nutritionist.Name)
	service := o.Service.Name
	when := a.EventDate.UTC().Format("2006-01-02 15:04 UTC")

	var subject, lead string
	switch action {
	case ActionConfirmation:
		subject = locale.T(t, "mail.confirmation.subject", service, nutritionist)
		lead = locale.T(t, "mail.confirmation.body", service, nutritionist, when)
	case ActionAccepted:
		subject = locale.T(t, "mail.accepted.subject", nutritionist)
		lead = locale.T(t, "mail.accepted.body", nutritionist, service, when)
	case ActionRejected:
		subject = locale.T(t, "mail.rejected.subject", nutritionist)
		lead = locale.T(t, "mail.rejected.body", nutritionist, service, when)
	default:
		return Mail{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	var b strings.Builder
	b.WriteString(locale.T(t, "mail.greeting", a.Guest.Name))
	b.WriteString("\n\n")
	b.WriteString(lead)
	b.WriteString("\n\n")
	if o.DeliveryMethod == domain.DeliveryInPerson && o.Location.FullAddress != "" {
		b.WriteString(locale.T(t, "mail.location", o.Location.FullAddress))
		b.WriteString("\n")
	}
	b.WriteString(locale.T(t, "mail.price", o.Pricing.StringFixed(2)))
	b.WriteString("\n\n")
	b.WriteString(locale.T(t, "mail.signature"))
	b.WriteString("\n")

	return Mail{From: from, To: a.Guest.Email, Subject: subject, Body: b.String()}, nil
}

// LogMailer writes e-mails to the log instead of sending them.
type LogMailer struct{}

// Send implements Mailer.
func (LogMailer) Send(ctx context.Context, m Mail) error {
	zerolog.Ctx(ctx).Info().
		Str("subject", m.Subject).
		Int("body_bytes", len(m.Body)).
		Msg("mail delivered (log backend)")
	return nil
}

// SMTPMailer sends e-mails through an SMTP relay. Auth is PLAIN when a
// username is configured.
type SMTPMailer struct {
	Addr     string
	Username string
	Password string

	// send is smtp.SendMail; tests replace it.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for the relay at addr (host:port).
func NewSMTPMailer(addr, username, password string) *SMTPMailer {
	return &SMTPMailer{Addr: addr, Username: username, Password: password, send: smtp.SendMail}
}

// Send implements Mailer.
func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.Username != "" {
		host := s.Addr
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	return send(s.Addr, auth, m.From, []string{m.To}, buildMessage(m, time.Now()))
}

// buildMessage renders RFC 5322 headers and a UTF-8 plain-text body.
func buildMessage(m Mail, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeHeader(m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// encodeHeader applies RFC 2047 Q-encoding when s is not plain ASCII.
func encodeHeader(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return mime.QEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
