package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ContactLookup resolves a user's email address. An empty address means
// the user has none on file.
type ContactLookup interface {
	FindEmailByUserID(ctx context.Context, userID uuid.UUID) (string, error)
}

type MailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends plain-text email through an SMTP relay.
type Mailer struct {
	sender   MailSender
	contacts ContactLookup
	from     string
	log      *zap.Logger
}

func NewSMTPClient(cfg MailConfig) (*mail.Client, error) {
	c, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}
	return c, nil
}

func NewMailer(sender MailSender, contacts ContactLookup, from string, log *zap.Logger) *Mailer {
	return &Mailer{
		sender:   sender,
		contacts: contacts,
		from:     from,
		log:      log.With(zap.String("notifier", "mail")),
	}
}

func (m *Mailer) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	email, err := m.contacts.FindEmailByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up email for user %s: %w", userID.String(), err)
	}
	if email == "" {
		m.log.Debug("No email on file, skipping", zap.String("user_id", userID.String()))
		return nil
	}

	out, err := m.build(email, msg)
	if err != nil {
		return err
	}

	if err := m.sender.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("send %s mail to user %s: %w", msg.Event, userID.String(), err)
	}
	return nil
}

func (m *Mailer) build(to string, msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := out.To(to); err != nil {
		return nil, fmt.Errorf("set to address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}
