package utils

import (
	"ClinicDesk/config"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

// PaymentReceipt is the content of the email sent after an invoice is paid.
type PaymentReceipt struct {
	PatientName   string
	PatientEmail  string
	InvoiceNumber string
	Amount        string
	Currency      string
	BalanceAfter  string
	PaidAt        time.Time
}

// Mailer sends transactional email over SMTP. A zero Host disables it.
type Mailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.dialer != nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`
	<!DOCTYPE html>
	<html>
	<head>
		<title>Payment Receipt</title>
		<style>
			body {
				font-family: Arial, sans-serif;
				background-color: #f4f4f4;
				margin: 0;
				padding: 0;
			}
			.container {
				background-color: #ffffff;
				margin: 20px auto;
				padding: 20px;
				border-radius: 8px;
				max-width: 600px;
			}
			.amount {
				font-weight: bold;
				color: #007bff;
			}
		</style>
	</head>
	<body>
		<div class="container">
			<h1>Payment Receipt</h1>
			<p>Dear {{.PatientName}},</p>
			<p>We received <span class="amount">{{.Currency}} {{.Amount}}</span> from your wallet for invoice {{.InvoiceNumber}}.</p>
			<p>Remaining wallet balance: {{.Currency}} {{.BalanceAfter}}</p>
			<p>Paid at {{.PaidAt.Format "2006-01-02 15:04"}}.</p>
		</div>
	</body>
	</html>
`))

// BuildReceiptMessage renders the receipt into a gomail message.
func BuildReceiptMessage(from string, receipt PaymentReceipt) (*gomail.Message, error) {
	var html strings.Builder
	if err := receiptTemplate.Execute(&html, receipt); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", receipt.PatientEmail)
	m.SetHeader("Subject", "Payment Receipt "+receipt.InvoiceNumber)
	m.SetBody("text/plain", fmt.Sprintf("Payment of %s %s received for invoice %s. Remaining balance: %s %s.",
		receipt.Currency, receipt.Amount, receipt.InvoiceNumber, receipt.Currency, receipt.BalanceAfter))
	m.AddAlternative("text/html", html.String())
	return m, nil
}

// SendPaymentReceipt is a no-op when mail is disabled or the patient has no email.
func (m *Mailer) SendPaymentReceipt(receipt PaymentReceipt) error {
	if !m.Enabled() || receipt.PatientEmail == "" {
		return nil
	}
	msg, err := BuildReceiptMessage(m.cfg.User, receipt)
	if err != nil {
		return err
	}
	return m.dialer.DialAndSend(msg)
}
