// Package services – CatalogService
//
// CatalogService validates and stores catalog entries: nutritionists,
// services, locations and offerings. Every operation is find-or-create on
// the entity's natural key, so the seeder can run repeatedly.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
)

// NutritionistInput describes a nutritionist to ensure.
type NutritionistInput struct {
	Name          string `json:"name"           validate:"required,max=255"`
	Title         string `json:"title"          validate:"required,max=255"`
	LicenseNumber string `json:"license_number" validate:"required,max=64"`
}

// ServiceInput describes a catalog service to ensure.
type ServiceInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// LocationInput describes a practice location to ensure.
type LocationInput struct {
	City        string  `json:"city"         validate:"required,max=255"`
	FullAddress string  `json:"full_address" validate:"required"`
	Latitude    float64 `json:"latitude"     validate:"latitude"`
	Longitude   float64 `json:"longitude"    validate:"longitude"`
}

// OfferingInput describes an offering to ensure.
type OfferingInput struct {
	NutritionistID string          `json:"nutritionist_id" validate:"required"`
	ServiceID      string          `json:"service_id"      validate:"required"`
	LocationID     string          `json:"location_id"     validate:"required"`
	DeliveryMethod string          `json:"delivery_method" validate:"required,oneof=in_person online"`
	Pricing        decimal.Decimal `json:"pricing"         validate:"-"`
}

// CatalogService writes the catalog.
type CatalogService struct {
	DB *gorm.DB
}

// EnsureNutritionist validates in and returns the nutritionist holding its
// license number, creating it when absent.
func (s *CatalogService) EnsureNutritionist(ctx context.Context, in NutritionistInput) (*domain.Nutritionist, error) {
	in.Name, in.Title, in.LicenseNumber = strings.TrimSpace(in.Name), strings.TrimSpace(in.Title), strings.TrimSpace(in.LicenseNumber)
	if ve := validateEntity(EntityNutritionist, in); ve != nil {
		return nil, ve
	}
	return repo.EnsureNutritionist(ctx, s.DB, in.Name, in.Title, in.LicenseNumber)
}

// EnsureService validates in and returns the service with its name.
func (s *CatalogService) EnsureService(ctx context.Context, in ServiceInput) (*domain.Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	if ve := validateEntity(EntityService, in); ve != nil {
		return nil, ve
	}
	return repo.EnsureService(ctx, s.DB, in.Name)
}

// EnsureLocation validates in and returns the location at its address.
func (s *CatalogService) EnsureLocation(ctx context.Context, in LocationInput) (*domain.Location, error) {
	in.City, in.FullAddress = strings.TrimSpace(in.City), strings.TrimSpace(in.FullAddress)
	if ve := validateEntity(EntityLocation, in); ve != nil {
		return nil, ve
	}
	return repo.EnsureLocation(ctx, s.DB, in.City, in.FullAddress, in.Latitude, in.Longitude)
}

// EnsureOffering validates in and returns the offering for its tuple. The
// referenced nutritionist, service and location must exist.
func (s *CatalogService) EnsureOffering(ctx context.Context, in OfferingInput) (*domain.NutritionistService, error) {
	ve := validateEntity(EntityNutritionistService, in)
	if ve == nil {
		ve = NewValidationError(EntityNutritionistService)
	}
	if !in.Pricing.IsPositive() {
		ve.Add("pricing", MsgPositive)
	}
	if !ve.Empty() {
		return nil, ve
	}

	if _, err := repo.GetNutritionist(ctx, s.DB, in.NutritionistID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, &NotFoundError{Entity: EntityNutritionist, ID: in.NutritionistID}
		}
		return nil, err
	}

	o, err := repo.EnsureOffering(ctx, s.DB, in.NutritionistID, in.ServiceID, in.LocationID,
		domain.DeliveryMethod(in.DeliveryMethod), in.Pricing.Round(2))
	if errors.Is(err, repo.ErrDuplicate) {
		ve := NewValidationError(EntityNutritionistService)
		ve.Add("delivery_method", MsgAlreadyTaken)
		return nil, ve
	}
	return o, err
}
