package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AppointmentQuery filters a facility's appointments by calendar date.
// Dates use the YYYY-MM-DD layout so string comparison orders them.
type AppointmentQuery struct {
	FacilityID string
	FromDate   string
	ToDate     string
	ClinicID   string
	Search     string
	Ascending  bool
	Offset     int
	Limit      int
}

// AppointmentRow is an appointment joined with the patient, clinic,
// wallet and invoice data shown on the front-desk list.
type AppointmentRow struct {
	models.Appointment
	PatientFirstName string
	PatientLastName  string
	PatientCode      string
	PatientPhone     string
	ClinicName       string
	WalletBalance    decimal.NullDecimal
	WalletCurrency   *string
	InvoiceID        *string
	InvoiceNumber    *string
	InvoiceStatus    *string
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Appointment, error)
	SlotTaken(ctx context.Context, clinicID, date, clock string) (bool, error)
	UpdateStatus(ctx context.Context, id string, from, to models.AppointmentStatus) (bool, error)
	CountByClinic(ctx context.Context, clinicID string, statuses []models.AppointmentStatus) (int64, error)
	List(ctx context.Context, query AppointmentQuery) ([]AppointmentRow, int64, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create returns the raw gorm error so callers can detect
// gorm.ErrDuplicatedKey from the slot index.
func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if err := r.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) get(db *gorm.DB, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *appointmentRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Appointment, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), id)
}

// SlotTaken matches the exact clinic, date and time; overlapping
// durations are not considered.
func (r *appointmentRepository) SlotTaken(ctx context.Context, clinicID, date, clock string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("clinic_id = ? AND appointment_date = ? AND appointment_time = ?", clinicID, date, clock).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check appointment slot: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus moves the appointment to `to` only if it is still in `from`.
// Transitions outside the appointment state machine are refused.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, from, to models.AppointmentStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal appointment transition %s -> %s", from, to)
	}
	result := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *appointmentRepository) CountByClinic(ctx context.Context, clinicID string, statuses []models.AppointmentStatus) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Appointment{}).Where("clinic_id = ?", clinicID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count clinic appointments: %w", err)
	}
	return count, nil
}

const appointmentRowColumns = `appointments.*,
	patients.first_name AS patient_first_name,
	patients.last_name AS patient_last_name,
	patients.patient_code AS patient_code,
	patients.phone AS patient_phone,
	clinics.name AS clinic_name,
	patient_wallets.balance AS wallet_balance,
	patient_wallets.currency AS wallet_currency,
	invoices.id AS invoice_id,
	invoices.invoice_number AS invoice_number,
	invoices.status AS invoice_status`

func (r *appointmentRepository) filtered(ctx context.Context, query AppointmentQuery) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Joins("JOIN patients ON patients.id = appointments.patient_id AND patients.deleted_at IS NULL").
		Joins("JOIN clinics ON clinics.id = appointments.clinic_id").
		Where("appointments.facility_id = ?", query.FacilityID).
		Where("appointments.appointment_date >= ? AND appointments.appointment_date <= ?", query.FromDate, query.ToDate)
	if query.ClinicID != "" {
		q = q.Where("appointments.clinic_id = ?", query.ClinicID)
	}
	if query.Search != "" {
		pattern := likePattern(query.Search)
		q = q.Where("(LOWER(patients.first_name) LIKE ? OR LOWER(patients.last_name) LIKE ? OR LOWER(patients.patient_code) LIKE ? OR patients.phone LIKE ?)",
			pattern, pattern, pattern, pattern)
	}
	return q
}

func (r *appointmentRepository) List(ctx context.Context, query AppointmentQuery) ([]AppointmentRow, int64, error) {
	var total int64
	if err := r.filtered(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	direction := orderDirection(query.Ascending)
	var rows []AppointmentRow
	err := r.filtered(ctx, query).
		Joins("LEFT JOIN patient_wallets ON patient_wallets.patient_id = appointments.patient_id AND patient_wallets.deleted_at IS NULL").
		Joins("LEFT JOIN invoices ON invoices.appointment_id = appointments.id AND invoices.deleted_at IS NULL").
		Select(appointmentRowColumns).
		Order("appointments.appointment_date " + direction).
		Order("appointments.appointment_time " + direction).
		Offset(query.Offset).
		Limit(query.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return rows, total, nil
}
