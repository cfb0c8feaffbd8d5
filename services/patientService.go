package services

import (
	"ClinicDesk/cache"
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"ClinicDesk/utils"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const patientCodeLockKey = "patient_code_lock"

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)

type CreatePatientRequest struct {
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	Phone                string          `json:"phone"`
	Email                string          `json:"email"`
	DateOfBirth          string          `json:"date_of_birth"`
	Gender               string          `json:"gender"`
	Address              string          `json:"address"`
	InitialWalletBalance decimal.Decimal `json:"initial_wallet_balance"`
}

func (r CreatePatientRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern).Error("must be a valid phone number")),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.EmailFormat),
		validation.Field(&r.DateOfBirth, validation.Required, utils.DateLayout(models.AppointmentDateLayout, "must be a date in YYYY-MM-DD format")),
		validation.Field(&r.Gender, validation.Required, validation.Length(1, 10)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.InitialWalletBalance, validation.By(nonNegativeAmount)),
	)
}

func nonNegativeAmount(value interface{}) error {
	amount, _ := value.(decimal.Decimal)
	if amount.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// PatientFilter selects patients registered between StartDate and EndDate
// inclusive. Both default to today.
type PatientFilter struct {
	PageRequest
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	Gender     string `form:"gender"`
	Search     string `form:"search"`
	Descending bool   `form:"descending"`
}

// PatientDetails is a patient with their wallet summary.
type PatientDetails struct {
	models.Patient
	FullName               string          `json:"full_name"`
	Age                    int             `json:"age"`
	FacilityName           string          `json:"facility_name"`
	WalletBalance          decimal.Decimal `json:"wallet_balance"`
	Currency               string          `json:"currency"`
	WalletBalanceFormatted string          `json:"wallet_balance_formatted"`
}

type PatientService interface {
	Create(ctx context.Context, facilityID string, req CreatePatientRequest) (*PatientDetails, error)
	GetByID(ctx context.Context, facilityID, patientID string) (*PatientDetails, error)
	GetByCode(ctx context.Context, facilityID, code string) (*PatientDetails, error)
	GetByEmail(ctx context.Context, facilityID, email string) (*PatientDetails, error)
	List(ctx context.Context, facilityID string, filter PatientFilter) (PagedResult[PatientDetails], error)
	WalletTransactions(ctx context.Context, facilityID, patientID string) ([]models.WalletTransaction, error)
}

type patientService struct {
	uow      *repositories.UnitOfWork
	cache    *cache.Cache
	log      *zap.Logger
	currency string
	now      func() time.Time
}

func NewPatientService(uow *repositories.UnitOfWork, cache *cache.Cache, log *zap.Logger, currency string) PatientService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &patientService{uow: uow, cache: cache, log: log, currency: currency, now: time.Now}
}

func (s *patientService) Create(ctx context.Context, facilityID string, req CreatePatientRequest) (*PatientDetails, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	facility, err := requireActiveFacility(ctx, s.uow, facilityID)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	exists, err := s.uow.Patients.EmailExists(ctx, facilityID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidState("A patient with email %s already exists in this facility", email)
	}

	patient := &models.Patient{
		FacilityID:  facilityID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       strings.TrimSpace(req.Phone),
		Email:       email,
		DateOfBirth: req.DateOfBirth,
		Gender:      strings.TrimSpace(req.Gender),
		Address:     strings.TrimSpace(req.Address),
	}
	wallet := &models.Wallet{
		Balance:             roundMoney(req.InitialWalletBalance),
		Currency:            s.currency,
		LastTransactionDate: s.now(),
	}

	// Code allocation reads the current maximum, so concurrent creators are
	// serialised on a Redis lock. The unique index still has the last word.
	err = withLock(ctx, s.cache, s.log, patientCodeLockKey, func() error {
		return s.uow.Transaction(ctx, func(tx *repositories.UnitOfWork) error {
			code, err := nextPatientCode(ctx, tx, facilityID)
			if err != nil {
				return err
			}
			patient.PatientCode = code
			if err := tx.Patients.Create(ctx, patient); err != nil {
				return err
			}
			wallet.PatientID = patient.ID
			return tx.Wallets.Create(ctx, wallet)
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidState("Patient code collision, please retry")
		}
		return nil, err
	}

	s.log.Info("patient created",
		zap.String("facility_id", facilityID),
		zap.String("patient_id", patient.ID),
		zap.String("patient_code", patient.PatientCode),
		zap.String("initial_balance", wallet.Balance.StringFixed(2)))
	return s.details(*patient, facility.Name, wallet), nil
}

// nextPatientCode starts at the facility's patient count plus one and
// walks forward past codes already taken anywhere, including deleted rows.
func nextPatientCode(ctx context.Context, tx *repositories.UnitOfWork, facilityID string) (string, error) {
	count, err := tx.Patients.CountByFacility(ctx, facilityID)
	if err != nil {
		return "", err
	}
	for n := count + 1; ; n++ {
		code := fmt.Sprintf("PAT%06d", n)
		taken, err := tx.Patients.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

func (s *patientService) GetByID(ctx context.Context, facilityID, patientID string) (*PatientDetails, error) {
	facility, err := requireFacility(ctx, s.uow, facilityID)
	if err != nil {
		return nil, err
	}
	patient, err := readThrough(ctx, s.cache, s.log, patientCacheKey(patientID), func() (*models.Patient, error) {
		return s.uow.Patients.GetByID(ctx, patientID)
	})
	if err != nil {
		return nil, err
	}
	if patient == nil || patient.FacilityID != facilityID {
		s.log.Warn("patient not found in facility",
			zap.String("patient_id", patientID),
			zap.String("facility_id", facilityID))
		return nil, notFound("Patient not found")
	}
	return s.withWallet(ctx, patient, facility.Name)
}

func (s *patientService) GetByCode(ctx context.Context, facilityID, code string) (*PatientDetails, error) {
	facility, err := requireFacility(ctx, s.uow, facilityID)
	if err != nil {
		return nil, err
	}
	patient, err := s.uow.Patients.GetByCode(ctx, facilityID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, notFound("Patient with code %s not found", code)
	}
	return s.withWallet(ctx, patient, facility.Name)
}

func (s *patientService) GetByEmail(ctx context.Context, facilityID, email string) (*PatientDetails, error) {
	facility, err := requireFacility(ctx, s.uow, facilityID)
	if err != nil {
		return nil, err
	}
	patient, err := s.uow.Patients.GetByEmail(ctx, facilityID, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, notFound("Patient with email %s not found", email)
	}
	return s.withWallet(ctx, patient, facility.Name)
}

func (s *patientService) List(ctx context.Context, facilityID string, filter PatientFilter) (PagedResult[PatientDetails], error) {
	facility, err := requireFacility(ctx, s.uow, facilityID)
	if err != nil {
		return PagedResult[PatientDetails]{}, err
	}
	from, to, err := dateRange(filter.StartDate, filter.EndDate, s.now())
	if err != nil {
		return PagedResult[PatientDetails]{}, err
	}

	page := filter.PageRequest.Normalize()
	patients, total, err := s.uow.Patients.List(ctx, repositories.PatientQuery{
		FacilityID:  facilityID,
		CreatedFrom: from,
		CreatedTo:   to.AddDate(0, 0, 1),
		Gender:      strings.TrimSpace(filter.Gender),
		Search:      filter.Search,
		Ascending:   !filter.Descending,
		Offset:      page.Offset(),
		Limit:       page.PageSize,
	})
	if err != nil {
		return PagedResult[PatientDetails]{}, err
	}

	ids := make([]string, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}
	wallets, err := s.uow.Wallets.GetByPatientIDs(ctx, ids)
	if err != nil {
		return PagedResult[PatientDetails]{}, err
	}

	items := make([]PatientDetails, 0, len(patients))
	for _, p := range patients {
		var wallet *models.Wallet
		if w, ok := wallets[p.ID]; ok {
			wallet = &w
		}
		items = append(items, *s.details(p, facility.Name, wallet))
	}
	return NewPagedResult(items, total, page), nil
}

// WalletTransactions returns the patient's ledger, oldest entry first.
func (s *patientService) WalletTransactions(ctx context.Context, facilityID, patientID string) ([]models.WalletTransaction, error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}
	patient, err := s.uow.Patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil || patient.FacilityID != facilityID {
		return nil, notFound("Patient not found")
	}
	wallet, err := s.uow.Wallets.GetByPatientID(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, notFound("Patient wallet not found")
	}
	entries, err := s.uow.Wallets.ListTransactions(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.WalletTransaction{}
	}
	return entries, nil
}

func (s *patientService) withWallet(ctx context.Context, patient *models.Patient, facilityName string) (*PatientDetails, error) {
	wallet, err := s.uow.Wallets.GetByPatientID(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	return s.details(*patient, facilityName, wallet), nil
}

func (s *patientService) details(patient models.Patient, facilityName string, wallet *models.Wallet) *PatientDetails {
	balance := decimal.Zero
	currency := s.currency
	if wallet != nil {
		balance = wallet.Balance
		currency = wallet.Currency
	}
	return &PatientDetails{
		Patient:                patient,
		FullName:               patient.FullName(),
		Age:                    ageOn(patient.DateOfBirth, s.now()),
		FacilityName:           facilityName,
		WalletBalance:          balance,
		Currency:               currency,
		WalletBalanceFormatted: formatMoney(currency, balance),
	}
}

// ageOn returns completed years between a YYYY-MM-DD birth date and today,
// or 0 when the date does not parse.
func ageOn(dateOfBirth string, today time.Time) int {
	dob, err := time.Parse(models.AppointmentDateLayout, dateOfBirth)
	if err != nil {
		return 0
	}
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// dateRange parses optional YYYY-MM-DD bounds in now's location. Missing
// bounds default to today; the returned times are both at midnight.
func dateRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	from, to := today, today
	if start != "" {
		t, err := time.ParseInLocation(models.AppointmentDateLayout, start, loc)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("start_date must be in YYYY-MM-DD format")
		}
		from = t
	}
	if end != "" {
		t, err := time.ParseInLocation(models.AppointmentDateLayout, end, loc)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("end_date must be in YYYY-MM-DD format")
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid("end_date must not be before start_date")
	}
	return from, to, nil
}
