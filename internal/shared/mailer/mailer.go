// Package mailer sends templated customer email over SMTP. Delivery is fire
// and forget: the triggering mutation never waits on or fails with the mail.
package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/pedalworks/shop-backend/internal/config"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"go.uber.org/zap"
)

var templates = map[string]*template.Template{
	"receipt": template.Must(template.New("receipt").Parse(
		"Hi {{.FirstName}},\r\n\r\n" +
			"Thanks for your payment of ${{printf \"%.2f\" .TotalCost}} on ticket #{{.TicketID}}.\r\n" +
			"Keep this email as your receipt.\r\n\r\n" +
			"{{.ShopName}}\r\n")),
	"ticket_ready": template.Must(template.New("ticket_ready").Parse(
		"Hi {{.FirstName}},\r\n\r\n" +
			"Your ticket #{{.TicketID}} is finished and ready for pickup.\r\n" +
			"The total comes to ${{printf \"%.2f\" .TotalCost}}.\r\n\r\n" +
			"{{.ShopName}}\r\n")),
}

var subjects = map[string]string{
	"receipt":      "Your receipt",
	"ticket_ready": "Your bike is ready",
}

// Mailer delivers templated ticket email. Implements service.Notifier.
type Mailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// SendTicketEmail renders the named template for the ticket and sends it to
// the customer in the background. Failures are logged, never returned.
func (m *Mailer) SendTicketEmail(trx *entity.Transaction, customer *entity.Customer, templateName string) {
	go func() {
		if err := m.send(trx, customer, templateName); err != nil {
			m.logger.Error("ticket email failed",
				zap.Int64("ticket_id", trx.ID),
				zap.String("template", templateName),
				zap.Error(err))
		}
	}()
}

func (m *Mailer) send(trx *entity.Transaction, customer *entity.Customer, templateName string) error {
	tmpl, ok := templates[templateName]
	if !ok {
		return fmt.Errorf("unknown mail template %q", templateName)
	}
	if customer.Email == "" {
		return fmt.Errorf("customer %s has no email address", customer.ID)
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, map[string]interface{}{
		"FirstName": customer.FirstName,
		"TicketID":  trx.ID,
		"TotalCost": trx.TotalCost,
		"ShopName":  m.cfg.FromName,
	})
	if err != nil {
		return fmt.Errorf("render mail template: %w", err)
	}

	if m.cfg.Mode != "smtp" {
		m.logger.Info("mail (log mode)",
			zap.String("to", customer.Email),
			zap.String("subject", subjects[templateName]),
			zap.String("body", body.String()))
		return nil
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromAddress, customer.Email, subjects[templateName], body.String())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{customer.Email}, []byte(msg))
}
