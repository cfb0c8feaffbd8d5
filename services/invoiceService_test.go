package services

import (
	"ClinicDesk/models"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func consultationItems() []CreateInvoiceItemRequest {
	return []CreateInvoiceItemRequest{
		{ServiceName: "Consultation", Quantity: 2, UnitPrice: money("100")},
	}
}

func TestComputeTotals(t *testing.T) {
	items := []CreateInvoiceItemRequest{
		{ServiceName: "Consultation", Quantity: 1, UnitPrice: money("150.005")},
		{ServiceName: "Lab test", Quantity: 3, UnitPrice: money("33.33")},
	}
	lines, totals := computeTotals(items, money("12.5"))

	require.Len(t, lines, 2)
	assert.Equal(t, "150.01", lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "99.99", lines[1].TotalPrice.StringFixed(2))
	assert.Equal(t, "250.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "31.25", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "218.75", totals.TotalAmount.StringFixed(2))
}

func TestInvoiceCreate(t *testing.T) {
	t.Run("computes totals and marks the appointment invoiced", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")

		invoice, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{
			AppointmentID:      appointment.ID,
			DiscountPercentage: money("10"),
			Items:              consultationItems(),
		})
		require.NoError(t, err)

		assert.Equal(t, "INV202503120001", invoice.InvoiceNumber)
		assert.Equal(t, models.InvoiceUnpaid, invoice.Status)
		assert.Equal(t, "200.00", invoice.Subtotal.StringFixed(2))
		assert.Equal(t, "20.00", invoice.DiscountAmount.StringFixed(2))
		assert.Equal(t, "180.00", invoice.TotalAmount.StringFixed(2))
		assert.Equal(t, "Ada Obi", invoice.PatientName)
		require.Len(t, invoice.Items, 1)
		assert.Equal(t, "200.00", invoice.Items[0].TotalPrice.StringFixed(2))

		assert.Equal(t, models.AppointmentInvoiced, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("numbers invoices sequentially per day", func(t *testing.T) {
		f := newFixture(t, "500")
		first := f.book(t, "10:00")
		second := f.book(t, "10:30")

		a, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: first.ID, Items: consultationItems()})
		require.NoError(t, err)
		b, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: second.ID, Items: consultationItems()})
		require.NoError(t, err)

		assert.Equal(t, "INV202503120001", a.InvoiceNumber)
		assert.Equal(t, "INV202503120002", b.InvoiceNumber)
	})

	t.Run("rejects a second invoice for the same appointment", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")
		req := CreateInvoiceRequest{AppointmentID: appointment.ID, Items: consultationItems()}

		_, err := f.invoices.Create(f.ctx, f.facility.ID, req)
		require.NoError(t, err)

		_, err = f.invoices.Create(f.ctx, f.facility.ID, req)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvalidState))
		assert.Contains(t, err.Error(), "already exists")
		assert.Equal(t, models.AppointmentInvoiced, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("requires at least one item", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")

		_, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: appointment.ID})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindValidation))
		assert.Equal(t, models.AppointmentScheduled, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("rejects a discount above 100 percent", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")

		_, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{
			AppointmentID:      appointment.ID,
			DiscountPercentage: money("100.5"),
			Items:              consultationItems(),
		})
		assert.True(t, IsKind(err, KindValidation))
	})

	t.Run("hides appointments of other facilities", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")
		other := &models.Facility{Name: "Hilltop Clinic", Code: "HTC", IsActive: true}
		require.NoError(t, f.uow.Facilities.Create(f.ctx, other))

		_, err := f.invoices.Create(f.ctx, other.ID, CreateInvoiceRequest{AppointmentID: appointment.ID, Items: consultationItems()})
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("retries when the invoice number is taken during insert", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")
		collisions := takeInvoiceNumberOnInsert(t, f, appointment.ID, 1)

		invoice, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: appointment.ID, Items: consultationItems()})
		require.NoError(t, err)
		assert.Equal(t, 1, *collisions)
		assert.Equal(t, "INV202503120001", invoice.InvoiceNumber)
		assert.Equal(t, models.AppointmentInvoiced, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("gives up after repeated invoice number collisions", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")
		collisions := takeInvoiceNumberOnInsert(t, f, appointment.ID, createInvoiceTries+1)

		_, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: appointment.ID, Items: consultationItems()})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvalidState))
		assert.Equal(t, createInvoiceTries, *collisions)
		assert.Equal(t, models.AppointmentScheduled, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("rolls back the invoice when an item insert fails", func(t *testing.T) {
		f := newFixture(t, "500")
		appointment := f.book(t, "10:00")
		err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_items", func(tx *gorm.DB) {
			if tx.Statement.Table == "invoice_items" {
				_ = tx.AddError(errors.New("items down"))
			}
		})
		require.NoError(t, err)

		_, err = f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: appointment.ID, Items: consultationItems()})
		require.Error(t, err)
		_, known := KindOf(err)
		assert.False(t, known)

		var invoices, items int64
		require.NoError(t, f.db.Unscoped().Model(&models.Invoice{}).Count(&invoices).Error)
		require.NoError(t, f.db.Unscoped().Model(&models.InvoiceItem{}).Count(&items).Error)
		assert.Zero(t, invoices)
		assert.Zero(t, items)
		assert.Equal(t, models.AppointmentScheduled, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("refuses when the daily counter is exhausted", func(t *testing.T) {
		f := newFixture(t, "500")
		blocker := f.book(t, "08:00")
		require.NoError(t, f.uow.Invoices.Create(f.ctx, &models.Invoice{
			FacilityID:    f.facility.ID,
			PatientID:     f.patient.ID,
			AppointmentID: blocker.ID,
			InvoiceNumber: "INV202503129999",
			Status:        models.InvoiceUnpaid,
		}))
		appointment := f.book(t, "10:00")

		_, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{AppointmentID: appointment.ID, Items: consultationItems()})
		assert.True(t, IsKind(err, KindInvalidState))
		assert.Equal(t, models.AppointmentScheduled, f.reloadAppointment(t, appointment.ID).Status)
	})
}

// takeInvoiceNumberOnInsert makes another appointment's invoice claim the
// same number just before the invoice for appointmentID is inserted, up to
// times attempts. The returned counter reports how many collisions it caused.
func takeInvoiceNumberOnInsert(t *testing.T, f *fixture, appointmentID string, times int) *int {
	t.Helper()
	other := f.book(t, "11:00")
	collisions := 0
	err := f.db.Callback().Create().Before("gorm:create").Register("test:rival_invoice", func(tx *gorm.DB) {
		invoice, ok := tx.Statement.Dest.(*models.Invoice)
		if !ok || invoice.AppointmentID != appointmentID || collisions >= times {
			return
		}
		collisions++
		_ = tx.AddError(tx.Session(&gorm.Session{NewDB: true}).Create(&models.Invoice{
			FacilityID:    f.facility.ID,
			PatientID:     f.patient.ID,
			AppointmentID: other.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			Status:        models.InvoiceUnpaid,
		}).Error)
	})
	require.NoError(t, err)
	return &collisions
}

func TestInvoicePay(t *testing.T) {
	invoiced := func(t *testing.T, balance string) (*fixture, *AppointmentDetails, *InvoiceDetails) {
		f := newFixture(t, balance)
		appointment := f.book(t, "10:00")
		invoice, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{
			AppointmentID:      appointment.ID,
			DiscountPercentage: money("10"),
			Items:              consultationItems(),
		})
		require.NoError(t, err)
		return f, appointment, invoice
	}

	t.Run("debits the wallet and settles invoice and appointment", func(t *testing.T) {
		f, appointment, invoice := invoiced(t, "500")

		result, err := f.invoices.Pay(f.ctx, f.facility.ID, invoice.ID)
		require.NoError(t, err)

		assert.Equal(t, models.InvoicePaid, result.Invoice.Status)
		require.NotNil(t, result.Invoice.PaidAt)
		assert.Equal(t, "ada@example.com", result.PatientEmail)
		assert.Equal(t, "NGN", result.Currency)

		entry := result.Transaction
		assert.Equal(t, "180.00", entry.Amount.StringFixed(2))
		assert.Equal(t, models.TransactionTypePayment, entry.TransactionType)
		assert.Equal(t, invoice.InvoiceNumber, entry.Reference)
		assert.Equal(t, "500.00", entry.BalanceBefore.StringFixed(2))
		assert.Equal(t, "320.00", entry.BalanceAfter.StringFixed(2))
		require.NotNil(t, entry.InvoiceID)
		assert.Equal(t, invoice.ID, *entry.InvoiceID)

		wallet := f.reloadWallet(t)
		assert.Equal(t, "320.00", wallet.Balance.StringFixed(2))

		ledger, err := f.patients.WalletTransactions(f.ctx, f.facility.ID, f.patient.ID)
		require.NoError(t, err)
		require.Len(t, ledger, 1)
		assert.Equal(t, "320.00", ledger[0].BalanceAfter.StringFixed(2))

		stored, err := f.invoices.GetByID(f.ctx, invoice.ID, f.facility.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoicePaid, stored.Status)
		assert.Equal(t, models.AppointmentPaid, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("refuses a balance that does not cover the total", func(t *testing.T) {
		f := newFixture(t, "100")
		appointment := f.book(t, "10:00")
		invoice, err := f.invoices.Create(f.ctx, f.facility.ID, CreateInvoiceRequest{
			AppointmentID: appointment.ID,
			Items:         []CreateInvoiceItemRequest{{ServiceName: "Scan", Quantity: 1, UnitPrice: money("150")}},
		})
		require.NoError(t, err)

		_, err = f.invoices.Pay(f.ctx, f.facility.ID, invoice.ID)
		require.Error(t, err)
		var insufficient *InsufficientFundsError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, "100.00", insufficient.Available.StringFixed(2))
		assert.Equal(t, "150.00", insufficient.Required.StringFixed(2))
		assert.True(t, IsKind(err, KindInvalidState))

		assert.Equal(t, "100.00", f.reloadWallet(t).Balance.StringFixed(2))
		stored, err := f.uow.Invoices.GetByID(f.ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceUnpaid, stored.Status)
		assert.Equal(t, models.AppointmentInvoiced, f.reloadAppointment(t, appointment.ID).Status)
	})

	t.Run("pays an invoice equal to the whole balance", func(t *testing.T) {
		f, _, invoice := invoiced(t, "180")

		_, err := f.invoices.Pay(f.ctx, f.facility.ID, invoice.ID)
		require.NoError(t, err)
		assert.True(t, f.reloadWallet(t).Balance.IsZero())
	})

	t.Run("refuses to pay twice", func(t *testing.T) {
		f, _, invoice := invoiced(t, "500")

		_, err := f.invoices.Pay(f.ctx, f.facility.ID, invoice.ID)
		require.NoError(t, err)
		_, err = f.invoices.Pay(f.ctx, f.facility.ID, invoice.ID)
		assert.True(t, IsKind(err, KindInvalidState))
		assert.Equal(t, "320.00", f.reloadWallet(t).Balance.StringFixed(2))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		f := newFixture(t, "500")
		_, err := f.invoices.Pay(f.ctx, f.facility.ID, "00000000-0000-0000-0000-000000000000")
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("rolls back every write when the ledger insert fails", func(t *testing.T) {
		f, appointment, invoice := invoiced(t, "500")
		err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_ledger", func(tx *gorm.DB) {
			if tx.Statement.Table == "wallet_transactions" {
				_ = tx.AddError(errors.New("ledger unavailable"))
			}
		})
		require.NoError(t, err)

		_, err = f.invoices.Pay(f.ctx, f.facility.ID, invoice.ID)
		require.Error(t, err)
		_, known := KindOf(err)
		assert.False(t, known)

		assert.Equal(t, "500.00", f.reloadWallet(t).Balance.StringFixed(2))
		stored, err := f.uow.Invoices.GetByID(f.ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceUnpaid, stored.Status)
		assert.Nil(t, stored.PaidAt)
		assert.Equal(t, models.AppointmentInvoiced, f.reloadAppointment(t, appointment.ID).Status)
	})
}
