package services

import (
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"ClinicDesk/utils"
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	ClinicID        string `json:"clinic_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	AppointmentType string `json:"appointment_type"`
	Notes           string `json:"notes"`
}

func (r CreateAppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PatientID, validation.Required, is.UUID),
		validation.Field(&r.ClinicID, validation.Required, is.UUID),
		validation.Field(&r.AppointmentDate, validation.Required, utils.DateLayout(models.AppointmentDateLayout, "must be a date in YYYY-MM-DD format")),
		validation.Field(&r.AppointmentTime, validation.Required, utils.DateLayout(models.AppointmentTimeLayout, "must be a time in HH:MM format")),
		validation.Field(&r.AppointmentType, validation.Length(0, 50)),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

// AppointmentFilter selects appointments dated between StartDate and EndDate
// inclusive. Both default to today.
type AppointmentFilter struct {
	PageRequest
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	ClinicID   string `form:"clinic_id"`
	Search     string `form:"search"`
	Descending bool   `form:"descending"`
}

type AppointmentDetails struct {
	models.Appointment
	PatientName         string          `json:"patient_name"`
	PatientCode         string          `json:"patient_code"`
	ClinicName          string          `json:"clinic_name"`
	AppointmentDateTime time.Time       `json:"appointment_date_time"`
	WalletBalance       decimal.Decimal `json:"wallet_balance"`
	Currency            string          `json:"currency"`
	Invoice             *InvoiceDetails `json:"invoice,omitempty"`
}

type AppointmentListItem struct {
	ID                     string                   `json:"id"`
	PatientID              string                   `json:"patient_id"`
	PatientName            string                   `json:"patient_name"`
	PatientCode            string                   `json:"patient_code"`
	PatientPhone           string                   `json:"patient_phone"`
	ClinicID               string                   `json:"clinic_id"`
	ClinicName             string                   `json:"clinic_name"`
	AppointmentDate        string                   `json:"appointment_date"`
	AppointmentTime        string                   `json:"appointment_time"`
	AppointmentDateTime    time.Time                `json:"appointment_date_time"`
	AppointmentType        string                   `json:"appointment_type"`
	Status                 models.AppointmentStatus `json:"status"`
	WalletBalance          decimal.Decimal          `json:"wallet_balance"`
	Currency               string                   `json:"currency"`
	WalletBalanceFormatted string                   `json:"wallet_balance_formatted"`
	HasInvoice             bool                     `json:"has_invoice"`
	InvoiceID              *string                  `json:"invoice_id,omitempty"`
	InvoiceNumber          *string                  `json:"invoice_number,omitempty"`
}

type AppointmentService interface {
	Create(ctx context.Context, facilityID string, req CreateAppointmentRequest) (*AppointmentDetails, error)
	AdvanceToAwaitingVitals(ctx context.Context, appointmentID, facilityID string) error
	GetByID(ctx context.Context, appointmentID, facilityID string) (*AppointmentDetails, error)
	List(ctx context.Context, facilityID string, filter AppointmentFilter) (PagedResult[AppointmentListItem], error)
}

type appointmentService struct {
	uow      *repositories.UnitOfWork
	log      *zap.Logger
	currency string
	now      func() time.Time
}

func NewAppointmentService(uow *repositories.UnitOfWork, log *zap.Logger, currency string) AppointmentService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &appointmentService{uow: uow, log: log, currency: currency, now: time.Now}
}

// Create books an exact clinic/date/time slot. The pre-check rejects the
// common case early; the partial unique index on the slot decides races.
func (s *appointmentService) Create(ctx context.Context, facilityID string, req CreateAppointmentRequest) (*AppointmentDetails, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := requireActiveFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}

	patient, err := s.uow.Patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient == nil || patient.FacilityID != facilityID {
		return nil, notFound("Patient not found or doesn't belong to this facility")
	}

	clinic, err := s.uow.Clinics.GetByID(ctx, req.ClinicID)
	if err != nil {
		return nil, err
	}
	if clinic == nil || clinic.FacilityID != facilityID {
		return nil, notFound("Clinic not found or doesn't belong to this facility")
	}
	if !clinic.IsActive {
		return nil, invalidState("Clinic is not active")
	}

	now := s.now()
	at, err := models.ParseAppointmentDateTime(req.AppointmentDate, req.AppointmentTime, now.Location())
	if err != nil {
		return nil, invalid("Invalid appointment date or time")
	}
	if !at.After(now) {
		return nil, invalid("Appointment date and time must be in the future")
	}

	// Canonical forms keep the slot comparison exact ("9:00" == "09:00").
	date := at.Format(models.AppointmentDateLayout)
	clock := at.Format(models.AppointmentTimeLayout)

	taken, err := s.uow.Appointments.SlotTaken(ctx, clinic.ID, date, clock)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalidState("An appointment already exists at this time slot")
	}

	appointment := &models.Appointment{
		FacilityID:      facilityID,
		PatientID:       patient.ID,
		ClinicID:        clinic.ID,
		AppointmentDate: date,
		AppointmentTime: clock,
		AppointmentType: strings.TrimSpace(req.AppointmentType),
		Status:          models.AppointmentScheduled,
		Notes:           strings.TrimSpace(req.Notes),
	}
	err = s.uow.Transaction(ctx, func(tx *repositories.UnitOfWork) error {
		return tx.Appointments.Create(ctx, appointment)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Warn("appointment slot taken concurrently",
				zap.String("clinic_id", clinic.ID),
				zap.String("date", date),
				zap.String("time", clock))
			return nil, invalidState("An appointment already exists at this time slot")
		}
		return nil, err
	}

	s.log.Info("appointment created",
		zap.String("facility_id", facilityID),
		zap.String("appointment_id", appointment.ID),
		zap.String("patient_id", patient.ID),
		zap.String("clinic_id", clinic.ID))

	return &AppointmentDetails{
		Appointment:         *appointment,
		PatientName:         patient.FullName(),
		PatientCode:         patient.PatientCode,
		ClinicName:          clinic.Name,
		AppointmentDateTime: at,
		Currency:            s.currency,
	}, nil
}

// AdvanceToAwaitingVitals is only legal from Paid.
func (s *appointmentService) AdvanceToAwaitingVitals(ctx context.Context, appointmentID, facilityID string) error {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return err
	}
	appointment, err := s.uow.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment == nil || appointment.FacilityID != facilityID {
		return notFound("Appointment not found or doesn't belong to this facility")
	}
	if appointment.Status != models.AppointmentPaid {
		s.log.Warn("awaiting vitals transition refused",
			zap.String("appointment_id", appointment.ID),
			zap.String("status", string(appointment.Status)))
		return invalidState("Appointment must be in Paid status before transitioning to AwaitingVitals")
	}

	updated, err := s.uow.Appointments.UpdateStatus(ctx, appointment.ID, models.AppointmentPaid, models.AppointmentAwaitingVitals)
	if err != nil {
		return err
	}
	if !updated {
		return invalidState("Appointment status changed, please reload")
	}
	s.log.Info("appointment awaiting vitals", zap.String("appointment_id", appointment.ID))
	return nil
}

func (s *appointmentService) GetByID(ctx context.Context, appointmentID, facilityID string) (*AppointmentDetails, error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}
	appointment, err := s.uow.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment == nil || appointment.FacilityID != facilityID {
		return nil, notFound("Appointment not found or doesn't belong to this facility")
	}

	details := &AppointmentDetails{Appointment: *appointment, Currency: s.currency}
	if at, err := appointment.DateTime(s.now().Location()); err == nil {
		details.AppointmentDateTime = at
	}

	patient, err := s.uow.Patients.GetByID(ctx, appointment.PatientID)
	if err != nil {
		return nil, err
	}
	if patient != nil {
		details.PatientName = patient.FullName()
		details.PatientCode = patient.PatientCode
	}

	clinic, err := s.uow.Clinics.GetByID(ctx, appointment.ClinicID)
	if err != nil {
		return nil, err
	}
	if clinic != nil {
		details.ClinicName = clinic.Name
	}

	wallet, err := s.uow.Wallets.GetByPatientID(ctx, appointment.PatientID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		details.WalletBalance = wallet.Balance
		details.Currency = wallet.Currency
	}

	invoice, err := s.uow.Invoices.GetByAppointmentID(ctx, appointment.ID)
	if err != nil {
		return nil, err
	}
	if invoice != nil {
		details.Invoice = &InvoiceDetails{Invoice: *invoice, PatientName: details.PatientName}
	}
	return details, nil
}

func (s *appointmentService) List(ctx context.Context, facilityID string, filter AppointmentFilter) (PagedResult[AppointmentListItem], error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return PagedResult[AppointmentListItem]{}, err
	}
	now := s.now()
	from, to, err := dateRange(filter.StartDate, filter.EndDate, now)
	if err != nil {
		return PagedResult[AppointmentListItem]{}, err
	}

	page := filter.PageRequest.Normalize()
	rows, total, err := s.uow.Appointments.List(ctx, repositories.AppointmentQuery{
		FacilityID: facilityID,
		FromDate:   from.Format(models.AppointmentDateLayout),
		ToDate:     to.Format(models.AppointmentDateLayout),
		ClinicID:   strings.TrimSpace(filter.ClinicID),
		Search:     filter.Search,
		Ascending:  !filter.Descending,
		Offset:     page.Offset(),
		Limit:      page.PageSize,
	})
	if err != nil {
		return PagedResult[AppointmentListItem]{}, err
	}

	items := make([]AppointmentListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.listItem(row, now.Location()))
	}
	return NewPagedResult(items, total, page), nil
}

func (s *appointmentService) listItem(row repositories.AppointmentRow, loc *time.Location) AppointmentListItem {
	balance := decimal.Zero
	if row.WalletBalance.Valid {
		balance = row.WalletBalance.Decimal
	}
	currency := s.currency
	if row.WalletCurrency != nil && *row.WalletCurrency != "" {
		currency = *row.WalletCurrency
	}
	item := AppointmentListItem{
		ID:                     row.ID,
		PatientID:              row.PatientID,
		PatientName:            row.PatientFirstName + " " + row.PatientLastName,
		PatientCode:            row.PatientCode,
		PatientPhone:           row.PatientPhone,
		ClinicID:               row.ClinicID,
		ClinicName:             row.ClinicName,
		AppointmentDate:        row.AppointmentDate,
		AppointmentTime:        row.AppointmentTime,
		AppointmentType:        row.AppointmentType,
		Status:                 row.Status,
		WalletBalance:          balance,
		Currency:               currency,
		WalletBalanceFormatted: formatMoney(currency, balance),
		HasInvoice:             row.InvoiceID != nil,
		InvoiceID:              row.InvoiceID,
		InvoiceNumber:          row.InvoiceNumber,
	}
	if at, err := row.DateTime(loc); err == nil {
		item.AppointmentDateTime = at
	}
	return item
}
