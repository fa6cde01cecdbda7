package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"

	gomail "github.com/wneessen/go-mail"
)

const defaultSMTPTimeout = 15 * time.Second

// EmailConfig holds SMTP credentials for the fallback channel.
type EmailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// EmailDispatcher sends the relance directly to the contact over SMTP.
type EmailDispatcher struct {
	cfg EmailConfig
}

func NewEmailDispatcher(cfg EmailConfig) *EmailDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &EmailDispatcher{cfg: cfg}
}

func (d *EmailDispatcher) Channel() string { return ChannelEmail }

func (d *EmailDispatcher) Dispatch(ctx context.Context, payload domain.RelancePayload) error {
	msg, err := d.buildMessage(payload)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(d.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(d.cfg.Timeout),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp", addr)
		}),
	}
	if d.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(d.cfg.Username),
			gomail.WithPassword(d.cfg.Password),
		)
	}

	client, err := gomail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (d *EmailDispatcher) buildMessage(payload domain.RelancePayload) (*gomail.Msg, error) {
	body, err := renderRelance(payload)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(d.cfg.FromName, d.cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.AddToFormat(payload.ContactName, payload.ContactEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(relanceSubject(payload))
	msg.SetGenHeader(gomail.HeaderMessageID, "<"+payload.IdempotencyKey()+"@relance>")
	msg.SetBodyString(gomail.TypeTextHTML, body)
	return msg, nil
}

func relanceSubject(p domain.RelancePayload) string {
	return fmt.Sprintf("%s: invoice %s", domain.LevelLabel(p.EscalationLevel), p.InvoiceNumber)
}

var relanceTemplate = template.Must(template.New("relance").Parse(`<p>Dear {{if .ContactName}}{{.ContactName}}{{else}}customer{{end}},</p>
<p>Invoice <strong>{{.InvoiceNumber}}</strong> for {{.AccountName}} was due on {{.DueDate}} and is now {{.DaysOverdue}} day(s) overdue.</p>
<p>Amount due: {{.AmountInclTax}} (excl. tax {{.AmountExclTax}}).</p>
{{if eq .EscalationLevel 3}}<p>This is our final notice before further collection steps.</p>{{end}}
<p>If you have already paid, please disregard this message.</p>`))

type relanceView struct {
	domain.RelancePayload
	AmountExclTax string
	AmountInclTax string
}

func renderRelance(p domain.RelancePayload) (string, error) {
	var buf bytes.Buffer
	err := relanceTemplate.Execute(&buf, relanceView{
		RelancePayload: p,
		AmountExclTax:  formatCurrencyEUR(p.AmountExclTaxCents),
		AmountInclTax:  formatCurrencyEUR(p.AmountInclTaxCents),
	})
	if err != nil {
		return "", fmt.Errorf("render relance email: %w", err)
	}
	return buf.String(), nil
}

func formatCurrencyEUR(cents int64) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}

var _ Dispatcher = (*EmailDispatcher)(nil)
