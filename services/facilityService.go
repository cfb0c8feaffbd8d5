package services

import (
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateFacilityRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (r CreateFacilityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 50)),
		validation.Field(&r.Email, is.EmailFormat),
	)
}

type FacilityService interface {
	Get(ctx context.Context, facilityID string) (*models.Facility, error)
	Create(ctx context.Context, req CreateFacilityRequest) (*models.Facility, error)
}

type facilityService struct {
	uow *repositories.UnitOfWork
	log *zap.Logger
}

func NewFacilityService(uow *repositories.UnitOfWork, log *zap.Logger) FacilityService {
	return &facilityService{uow: uow, log: log}
}

func (s *facilityService) Get(ctx context.Context, facilityID string) (*models.Facility, error) {
	return requireFacility(ctx, s.uow, facilityID)
}

func (s *facilityService) Create(ctx context.Context, req CreateFacilityRequest) (*models.Facility, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	existing, err := s.uow.Facilities.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalidState("Facility with code '%s' already exists", code)
	}

	facility := &models.Facility{
		Name:     strings.TrimSpace(req.Name),
		Code:     code,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}
	if err := s.uow.Facilities.Create(ctx, facility); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidState("Facility with code '%s' already exists", code)
		}
		return nil, err
	}
	s.log.Info("facility created", zap.String("facility_id", facility.ID), zap.String("code", facility.Code))
	return facility, nil
}

// requireFacility is the tenant lookup shared by every service.
func requireFacility(ctx context.Context, uow *repositories.UnitOfWork, facilityID string) (*models.Facility, error) {
	facility, err := uow.Facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("facility lookup: %w", err)
	}
	if facility == nil {
		return nil, notFound("Facility not found")
	}
	return facility, nil
}

func requireActiveFacility(ctx context.Context, uow *repositories.UnitOfWork, facilityID string) (*models.Facility, error) {
	facility, err := requireFacility(ctx, uow, facilityID)
	if err != nil {
		return nil, err
	}
	if !facility.IsActive {
		return nil, invalidState("Facility is not active")
	}
	return facility, nil
}
