package utils

import (
	"ClinicDesk/config"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReceiptMessage(t *testing.T) {
	receipt := PaymentReceipt{
		PatientName:   "Ada <Obi>",
		PatientEmail:  "ada@example.com",
		InvoiceNumber: "INV202503120001",
		Amount:        "180.00",
		Currency:      "NGN",
		BalanceAfter:  "320.00",
		PaidAt:        time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC),
	}
	msg, err := BuildReceiptMessage("billing@clinic.example", receipt)
	require.NoError(t, err)

	assert.Equal(t, []string{"ada@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Payment Receipt INV202503120001"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	body := buf.String()
	assert.Contains(t, body, "Remaining wallet balance: NGN 320.00")
	assert.Contains(t, body, "Ada &lt;Obi&gt;")
}

func TestMailerDisabled(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	assert.False(t, m.Enabled())
	assert.NoError(t, m.SendPaymentReceipt(PaymentReceipt{PatientEmail: "ada@example.com"}))

	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())

	enabled := NewMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587})
	assert.True(t, enabled.Enabled())
	assert.NoError(t, enabled.SendPaymentReceipt(PaymentReceipt{}))
}
