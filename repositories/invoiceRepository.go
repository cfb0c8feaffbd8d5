package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Invoice, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Invoice, error)
	ExistsForAppointment(ctx context.Context, appointmentID string) (bool, error)
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create inserts the invoice together with its items.
func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) get(db *gorm.DB, query string, args ...interface{}) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.Where(query, args...).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("invoice_items.created_at ASC")
	})
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return r.get(r.withItems(ctx), "id = ?", id)
}

// GetByIDForUpdate locks the invoice row without loading items.
func (r *invoiceRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Invoice, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), "id = ?", id)
}

func (r *invoiceRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Invoice, error) {
	return r.get(r.withItems(ctx), "appointment_id = ?", appointmentID)
}

// ExistsForAppointment includes soft-deleted invoices, matching the
// unique index on appointment_id.
func (r *invoiceRepository) ExistsForAppointment(ctx context.Context, appointmentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Invoice{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check invoice for appointment: %w", err)
	}
	return count > 0, nil
}

// LastNumberWithPrefix returns the highest invoice number starting with
// prefix, or "" when there is none.
func (r *invoiceRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("failed to get last invoice number: %w", err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// MarkPaid flips an Unpaid invoice to Paid. It reports false when the
// invoice was no longer Unpaid.
func (r *invoiceRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, models.InvoiceUnpaid).
		Updates(map[string]interface{}{
			"status":  models.InvoicePaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark invoice paid: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
