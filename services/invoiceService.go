package services

import (
	"ClinicDesk/cache"
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	invoiceNumberPrefix = "INV"
	invoiceDateLayout   = "20060102"
	maxDailyInvoices    = 9999
	createInvoiceTries  = 3
)

type CreateInvoiceItemRequest struct {
	ServiceName string          `json:"service_name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (r CreateInvoiceItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ServiceName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.UnitPrice, validation.By(nonNegativeAmount)),
	)
}

type CreateInvoiceRequest struct {
	AppointmentID      string                     `json:"appointment_id"`
	DiscountPercentage decimal.Decimal            `json:"discount_percentage"`
	Items              []CreateInvoiceItemRequest `json:"items"`
}

func (r CreateInvoiceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AppointmentID, validation.Required, is.UUID),
		validation.Field(&r.DiscountPercentage, validation.By(percentage)),
		validation.Field(&r.Items, validation.Required.Error("at least one invoice item is required")),
	)
}

func percentage(value interface{}) error {
	pct, _ := value.(decimal.Decimal)
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return errors.New("must be between 0 and 100")
	}
	return nil
}

// InvoiceDetails is an invoice with its items and the patient's name.
type InvoiceDetails struct {
	models.Invoice
	PatientName string `json:"patient_name"`
}

// PaymentResult is returned by Pay. Transaction is the ledger entry that
// recorded the debit.
type PaymentResult struct {
	Invoice      InvoiceDetails           `json:"invoice"`
	Transaction  models.WalletTransaction `json:"transaction"`
	Currency     string                   `json:"currency"`
	PatientEmail string                   `json:"-"`
}

type InvoiceService interface {
	Create(ctx context.Context, facilityID string, req CreateInvoiceRequest) (*InvoiceDetails, error)
	Pay(ctx context.Context, facilityID, invoiceID string) (*PaymentResult, error)
	GetByID(ctx context.Context, invoiceID, facilityID string) (*InvoiceDetails, error)
}

type invoiceService struct {
	uow   *repositories.UnitOfWork
	cache *cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

func NewInvoiceService(uow *repositories.UnitOfWork, cache *cache.Cache, log *zap.Logger) InvoiceService {
	return &invoiceService{uow: uow, cache: cache, log: log, now: time.Now}
}

// invoiceTotals holds the derived amounts of an invoice.
type invoiceTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// computeTotals prices every item and derives subtotal, discount and total,
// each rounded to cents.
func computeTotals(items []CreateInvoiceItemRequest, discountPercentage decimal.Decimal) ([]models.InvoiceItem, invoiceTotals) {
	lines := make([]models.InvoiceItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		unit := roundMoney(item.UnitPrice)
		total := roundMoney(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		subtotal = subtotal.Add(total)
		lines = append(lines, models.InvoiceItem{
			ServiceName: strings.TrimSpace(item.ServiceName),
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			TotalPrice:  total,
		})
	}
	subtotal = roundMoney(subtotal)
	discount := roundMoney(subtotal.Mul(discountPercentage).Div(hundred))
	return lines, invoiceTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TotalAmount:    roundMoney(subtotal.Sub(discount)),
	}
}

// nextInvoiceNumber returns INV + UTC date + a 4-digit counter one above the
// highest number issued that day, deleted invoices included.
func nextInvoiceNumber(ctx context.Context, tx *repositories.UnitOfWork, now time.Time) (string, error) {
	prefix := invoiceNumberPrefix + now.UTC().Format(invoiceDateLayout)
	last, err := tx.Invoices.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	next := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", last, err)
		}
		next = n + 1
	}
	if next > maxDailyInvoices {
		return "", invalidState("Daily invoice limit reached")
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

func (s *invoiceService) Create(ctx context.Context, facilityID string, req CreateInvoiceRequest) (*InvoiceDetails, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := requireActiveFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}

	appointment, err := s.uow.Appointments.GetByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appointment == nil || appointment.FacilityID != facilityID {
		return nil, notFound("Appointment not found or doesn't belong to this facility")
	}
	exists, err := s.uow.Invoices.ExistsForAppointment(ctx, appointment.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.log.Warn("duplicate invoice refused", zap.String("appointment_id", appointment.ID))
		return nil, invalidState("Invoice already exists for this appointment")
	}
	if appointment.Status != models.AppointmentScheduled {
		return nil, invalidState("Cannot create invoice for appointment with status %s", appointment.Status)
	}

	discountPercentage := req.DiscountPercentage.Round(2)
	var invoice *models.Invoice
	for attempt := 1; ; attempt++ {
		items, totals := computeTotals(req.Items, discountPercentage)
		invoice = &models.Invoice{
			FacilityID:         facilityID,
			PatientID:          appointment.PatientID,
			AppointmentID:      appointment.ID,
			Subtotal:           totals.Subtotal,
			DiscountPercentage: discountPercentage,
			DiscountAmount:     totals.DiscountAmount,
			TotalAmount:        totals.TotalAmount,
			Status:             models.InvoiceUnpaid,
			Items:              items,
		}
		err = s.uow.Transaction(ctx, func(tx *repositories.UnitOfWork) error {
			return s.createInTx(ctx, tx, invoice)
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == createInvoiceTries {
			break
		}
		// The unique key that fired is either the invoice number, which a
		// retry can fix, or the appointment, which it cannot.
		if exists, checkErr := s.uow.Invoices.ExistsForAppointment(ctx, appointment.ID); checkErr == nil && exists {
			return nil, invalidState("Invoice already exists for this appointment")
		}
		s.log.Warn("invoice number collision, retrying",
			zap.String("appointment_id", appointment.ID),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidState("Could not allocate an invoice number, please retry")
		}
		return nil, err
	}

	s.log.Info("invoice created",
		zap.String("facility_id", facilityID),
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("appointment_id", appointment.ID),
		zap.String("total", invoice.TotalAmount.StringFixed(2)))

	details := &InvoiceDetails{Invoice: *invoice}
	if patient, err := s.uow.Patients.GetByID(ctx, invoice.PatientID); err == nil && patient != nil {
		details.PatientName = patient.FullName()
	}
	return details, nil
}

// createInTx re-reads the appointment under a row lock, then writes the
// invoice with its items and flips the appointment to Invoiced.
func (s *invoiceService) createInTx(ctx context.Context, tx *repositories.UnitOfWork, invoice *models.Invoice) error {
	appointment, err := tx.Appointments.GetByIDForUpdate(ctx, invoice.AppointmentID)
	if err != nil {
		return err
	}
	if appointment == nil {
		return notFound("Appointment not found or doesn't belong to this facility")
	}
	if appointment.Status != models.AppointmentScheduled {
		return invalidState("Cannot create invoice for appointment with status %s", appointment.Status)
	}
	exists, err := tx.Invoices.ExistsForAppointment(ctx, appointment.ID)
	if err != nil {
		return err
	}
	if exists {
		return invalidState("Invoice already exists for this appointment")
	}

	number, err := nextInvoiceNumber(ctx, tx, s.now())
	if err != nil {
		return err
	}
	invoice.InvoiceNumber = number
	if err := tx.Invoices.Create(ctx, invoice); err != nil {
		return err
	}

	updated, err := tx.Appointments.UpdateStatus(ctx, appointment.ID, models.AppointmentScheduled, models.AppointmentInvoiced)
	if err != nil {
		return err
	}
	if !updated {
		return invalidState("Appointment status changed, please reload")
	}
	return nil
}

// Pay settles an invoice from the patient's wallet: debit, ledger entry,
// invoice and appointment status all commit in one transaction.
func (s *invoiceService) Pay(ctx context.Context, facilityID, invoiceID string) (*PaymentResult, error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}

	var (
		invoice *models.Invoice
		wallet  *models.Wallet
		entry   *models.WalletTransaction
	)
	err := s.uow.Transaction(ctx, func(tx *repositories.UnitOfWork) error {
		var err error
		invoice, err = tx.Invoices.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil || invoice.FacilityID != facilityID {
			return notFound("Invoice not found")
		}
		if invoice.Status != models.InvoiceUnpaid {
			return invalidState("Invoice is already %s", invoice.Status)
		}

		wallet, err = tx.Wallets.GetByPatientIDForUpdate(ctx, invoice.PatientID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return notFound("Patient wallet not found")
		}
		if wallet.Balance.LessThan(invoice.TotalAmount) {
			return &InsufficientFundsError{Available: wallet.Balance, Required: invoice.TotalAmount}
		}

		now := s.now()
		before := wallet.Balance
		after := roundMoney(before.Sub(invoice.TotalAmount))
		updated, err := tx.Wallets.SetBalance(ctx, wallet.ID, before, after, now)
		if err != nil {
			return err
		}
		if !updated {
			return invalidState("Wallet balance changed, please retry")
		}
		wallet.Balance = after
		wallet.LastTransactionDate = now

		entry = &models.WalletTransaction{
			WalletID:        wallet.ID,
			Amount:          invoice.TotalAmount,
			TransactionType: models.TransactionTypePayment,
			Description:     "Payment for invoice " + invoice.InvoiceNumber,
			Reference:       invoice.InvoiceNumber,
			BalanceBefore:   before,
			BalanceAfter:    after,
			InvoiceID:       &invoice.ID,
		}
		if err := tx.Wallets.AddTransaction(ctx, entry); err != nil {
			return err
		}

		updated, err = tx.Invoices.MarkPaid(ctx, invoice.ID, now)
		if err != nil {
			return err
		}
		if !updated {
			return invalidState("Invoice is no longer unpaid")
		}
		invoice.Status = models.InvoicePaid
		invoice.PaidAt = &now

		updated, err = tx.Appointments.UpdateStatus(ctx, invoice.AppointmentID, models.AppointmentInvoiced, models.AppointmentPaid)
		if err != nil {
			return err
		}
		if !updated {
			return invalidState("Appointment is not awaiting payment")
		}
		return nil
	})
	if err != nil {
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			s.log.Warn("payment refused: insufficient funds",
				zap.String("invoice_id", invoiceID),
				zap.String("available", insufficient.Available.StringFixed(2)),
				zap.String("required", insufficient.Required.StringFixed(2)))
		}
		return nil, err
	}
	invalidate(ctx, s.cache, s.log, invoiceCacheKey(invoice.ID))

	s.log.Info("invoice paid",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("amount", invoice.TotalAmount.StringFixed(2)),
		zap.String("balance_after", wallet.Balance.StringFixed(2)))

	result := &PaymentResult{
		Invoice:     InvoiceDetails{Invoice: *invoice},
		Transaction: *entry,
		Currency:    wallet.Currency,
	}
	if full, err := s.uow.Invoices.GetByID(ctx, invoice.ID); err == nil && full != nil {
		result.Invoice.Invoice = *full
	}
	if patient, err := s.uow.Patients.GetByID(ctx, invoice.PatientID); err == nil && patient != nil {
		result.Invoice.PatientName = patient.FullName()
		result.PatientEmail = patient.Email
	}
	return result, nil
}

func (s *invoiceService) GetByID(ctx context.Context, invoiceID, facilityID string) (*InvoiceDetails, error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}
	invoice, err := readThrough(ctx, s.cache, s.log, invoiceCacheKey(invoiceID), func() (*models.Invoice, error) {
		return s.uow.Invoices.GetByID(ctx, invoiceID)
	})
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.FacilityID != facilityID {
		return nil, notFound("Invoice not found")
	}

	details := &InvoiceDetails{Invoice: *invoice}
	patient, err := s.uow.Patients.GetByID(ctx, invoice.PatientID)
	if err != nil {
		return nil, err
	}
	if patient != nil {
		details.PatientName = patient.FullName()
	}
	return details, nil
}
