package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

var ErrNotConfigured = errors.New("email is not configured")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	// TopDeals is the number of deals listed in the body.
	TopDeals int
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && len(c.To) > 0
}

// Sender delivers built messages; *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	config Config
	sender Sender
	logger *slog.Logger
}

// NewMailer dials implicit TLS (port 465) or STARTTLS on any other port.
func NewMailer(cfg Config, logger *slog.Logger) (*Mailer, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return NewMailerWithSender(cfg, client, logger), nil
}

func NewMailerWithSender(cfg Config, sender Sender, logger *slog.Logger) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.TopDeals <= 0 {
		cfg.TopDeals = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{config: cfg, sender: sender, logger: logger}
}

// BuildMessage creates the HTML report email with a plain-text alternative
// and the full report attached as JSON.
func (m *Mailer) BuildMessage(r models.Report) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.config.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(report.Subject(r))
	msg.SetDateWithValue(r.Metadata.GeneratedAt)

	body, err := report.RenderHTML(r, m.config.TopDeals)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain, plainText(r))

	var attachment bytes.Buffer
	if err := report.Encode(&attachment, r); err != nil {
		return nil, fmt.Errorf("encode attachment: %w", err)
	}
	name := "flight_data_" + r.Metadata.GeneratedAt.UTC().Format("20060102_1504") + ".json"
	if err := msg.AttachReader(name, &attachment, mail.WithFileContentType(mail.TypeAppOctetStream)); err != nil {
		return nil, fmt.Errorf("attach report: %w", err)
	}
	return msg, nil
}

func (m *Mailer) Send(ctx context.Context, r models.Report) error {
	msg, err := m.BuildMessage(r)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	m.logger.Info("report email sent", "to", m.config.To, "run_id", r.Metadata.RunID)
	return nil
}

func plainText(r models.Report) string {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, report.Subject(r))
	fmt.Fprintln(&buf, report.DiagnosticsLine(r.Diagnostics))
	for i, q := range r.Quotes {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&buf, "%d. %s %s -> %s %s (%s)\n", i+1,
			q.DestinationCity,
			report.DateLabel(q.OutboundDate),
			report.DateLabel(q.ReturnDate),
			report.PriceLabel(q.Price.Amount, q.Price.Currency),
			q.CarrierNames(),
		)
	}
	return buf.String()
}
