package services

import (
	"ClinicDesk/cache"
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateClinicRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (r CreateClinicRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 50)),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

type UpdateClinicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r UpdateClinicRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

// ClinicFilter selects clinics for a list page. Sorting is by name.
type ClinicFilter struct {
	PageRequest
	Search     string `form:"search"`
	IsActive   *bool  `form:"is_active"`
	Descending bool   `form:"descending"`
}

type ClinicService interface {
	Create(ctx context.Context, facilityID string, req CreateClinicRequest) (*models.Clinic, error)
	Update(ctx context.Context, facilityID, clinicID string, req UpdateClinicRequest) (*models.Clinic, error)
	GetByID(ctx context.Context, facilityID, clinicID string) (*models.Clinic, error)
	GetByCode(ctx context.Context, facilityID, code string) (*models.Clinic, error)
	GetByName(ctx context.Context, facilityID, name string) (*models.Clinic, error)
	List(ctx context.Context, facilityID string, filter ClinicFilter) (PagedResult[models.Clinic], error)
	Deactivate(ctx context.Context, facilityID, clinicID string) error
	Activate(ctx context.Context, facilityID, clinicID string) error
}

type clinicService struct {
	uow   *repositories.UnitOfWork
	cache *cache.Cache
	log   *zap.Logger
}

func NewClinicService(uow *repositories.UnitOfWork, cache *cache.Cache, log *zap.Logger) ClinicService {
	return &clinicService{uow: uow, cache: cache, log: log}
}

func (s *clinicService) Create(ctx context.Context, facilityID string, req CreateClinicRequest) (*models.Clinic, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := requireActiveFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	name := strings.TrimSpace(req.Name)

	exists, err := s.uow.Clinics.CodeExists(ctx, facilityID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidState("Clinic with code '%s' already exists", code)
	}
	exists, err = s.uow.Clinics.NameExists(ctx, facilityID, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidState("Clinic with name '%s' already exists", name)
	}

	clinic := &models.Clinic{
		FacilityID:  facilityID,
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	if err := s.uow.Clinics.Create(ctx, clinic); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidState("Clinic with code '%s' already exists", code)
		}
		return nil, err
	}
	s.log.Info("clinic created",
		zap.String("facility_id", facilityID),
		zap.String("clinic_id", clinic.ID),
		zap.String("code", clinic.Code))
	return clinic, nil
}

func (s *clinicService) Update(ctx context.Context, facilityID, clinicID string, req UpdateClinicRequest) (*models.Clinic, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	clinic, err := s.load(ctx, facilityID, clinicID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.uow.Clinics.NameExists(ctx, facilityID, name, clinic.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidState("Clinic with name '%s' already exists", name)
	}

	clinic.Name = name
	clinic.Description = strings.TrimSpace(req.Description)
	if err := s.uow.Clinics.Update(ctx, clinic); err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.log, clinicCacheKey(clinic.ID))
	return clinic, nil
}

// load reads the clinic from the database and hides other tenants' clinics.
func (s *clinicService) load(ctx context.Context, facilityID, clinicID string) (*models.Clinic, error) {
	clinic, err := s.uow.Clinics.GetByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if clinic == nil || clinic.FacilityID != facilityID {
		return nil, notFound("Clinic not found")
	}
	return clinic, nil
}

func (s *clinicService) GetByID(ctx context.Context, facilityID, clinicID string) (*models.Clinic, error) {
	clinic, err := readThrough(ctx, s.cache, s.log, clinicCacheKey(clinicID), func() (*models.Clinic, error) {
		return s.uow.Clinics.GetByID(ctx, clinicID)
	})
	if err != nil {
		return nil, err
	}
	if clinic == nil || clinic.FacilityID != facilityID {
		return nil, notFound("Clinic not found")
	}
	return clinic, nil
}

func (s *clinicService) GetByCode(ctx context.Context, facilityID, code string) (*models.Clinic, error) {
	clinic, err := s.uow.Clinics.GetByCode(ctx, facilityID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, notFound("Clinic with code '%s' not found", code)
	}
	return clinic, nil
}

func (s *clinicService) GetByName(ctx context.Context, facilityID, name string) (*models.Clinic, error) {
	clinic, err := s.uow.Clinics.GetByName(ctx, facilityID, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, notFound("Clinic with name '%s' not found", name)
	}
	return clinic, nil
}

func (s *clinicService) List(ctx context.Context, facilityID string, filter ClinicFilter) (PagedResult[models.Clinic], error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return PagedResult[models.Clinic]{}, err
	}
	page := filter.PageRequest.Normalize()
	clinics, total, err := s.uow.Clinics.List(ctx, repositories.ClinicQuery{
		FacilityID: facilityID,
		Search:     filter.Search,
		IsActive:   filter.IsActive,
		Ascending:  !filter.Descending,
		Offset:     page.Offset(),
		Limit:      page.PageSize,
	})
	if err != nil {
		return PagedResult[models.Clinic]{}, err
	}
	return NewPagedResult(clinics, total, page), nil
}

// Deactivate refuses while the clinic still has appointments in an active
// status.
func (s *clinicService) Deactivate(ctx context.Context, facilityID, clinicID string) error {
	clinic, err := s.load(ctx, facilityID, clinicID)
	if err != nil {
		return err
	}
	if !clinic.IsActive {
		return invalidState("Clinic is already inactive")
	}

	active, err := s.uow.Appointments.CountByClinic(ctx, clinic.ID, models.ActiveAppointmentStatuses)
	if err != nil {
		return err
	}
	if active > 0 {
		s.log.Warn("clinic deactivation refused",
			zap.String("clinic_id", clinic.ID),
			zap.Int64("active_appointments", active))
		return invalidState("Cannot deactivate clinic with %d active appointment(s)", active)
	}

	if err := s.uow.Clinics.SetActive(ctx, clinic.ID, false); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, clinicCacheKey(clinic.ID))
	s.log.Info("clinic deactivated", zap.String("clinic_id", clinic.ID))
	return nil
}

func (s *clinicService) Activate(ctx context.Context, facilityID, clinicID string) error {
	clinic, err := s.load(ctx, facilityID, clinicID)
	if err != nil {
		return err
	}
	if clinic.IsActive {
		return invalidState("Clinic is already active")
	}
	if err := s.uow.Clinics.SetActive(ctx, clinic.ID, true); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, clinicCacheKey(clinic.ID))
	s.log.Info("clinic activated", zap.String("clinic_id", clinic.ID))
	return nil
}
