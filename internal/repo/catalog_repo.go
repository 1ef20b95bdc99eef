// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the catalog side: nutritionists,
// services, locations and their offerings (NutritionistService).
//
// The Ensure* helpers are find-or-create operations keyed by each entity's
// natural key and are used by the seeder, so running it twice is harmless.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
)

// GetNutritionist fetches a nutritionist by id or returns ErrNotFound.
func GetNutritionist(ctx context.Context, db *gorm.DB, id string) (*domain.Nutritionist, error) {
	var n domain.Nutritionist
	if err := db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// GetOffering fetches an offering with its nutritionist, service and
// location loaded, or returns ErrNotFound.
func GetOffering(ctx context.Context, db *gorm.DB, id string) (*domain.NutritionistService, error) {
	var o domain.NutritionistService
	err := db.WithContext(ctx).
		Preload("Nutritionist").
		Preload("Service").
		Preload("Location").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// EnsureNutritionist returns the nutritionist holding licenseNumber,
// creating it when absent.
func EnsureNutritionist(ctx context.Context, db *gorm.DB, name, title, licenseNumber string) (*domain.Nutritionist, error) {
	var n domain.Nutritionist
	err := db.WithContext(ctx).Where("license_number = ?", licenseNumber).First(&n).Error
	if err == nil {
		return &n, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	n = domain.Nutritionist{ID: uuid.NewString(), Name: name, Title: title, LicenseNumber: licenseNumber}
	if err := db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// EnsureService returns the catalog service with the given name, creating it
// when absent.
func EnsureService(ctx context.Context, db *gorm.DB, name string) (*domain.Service, error) {
	var s domain.Service
	err := db.WithContext(ctx).Where("name = ?", name).First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	s = domain.Service{ID: uuid.NewString(), Name: name}
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureLocation returns the location at (city, fullAddress), creating it
// with the given coordinates when absent.
func EnsureLocation(ctx context.Context, db *gorm.DB, city, fullAddress string, lat, lng float64) (*domain.Location, error) {
	var l domain.Location
	err := db.WithContext(ctx).Where("city = ? AND full_address = ?", city, fullAddress).First(&l).Error
	if err == nil {
		return &l, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	l = domain.Location{ID: uuid.NewString(), City: city, FullAddress: fullAddress, Coordinates: domain.NewPoint(lat, lng)}
	if err := db.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// EnsureOffering returns the offering for the unique tuple
// (nutritionist, service, location, method). An existing row keeps its price.
func EnsureOffering(ctx context.Context, db *gorm.DB, nutritionistID, serviceID, locationID string, method domain.DeliveryMethod, pricing decimal.Decimal) (*domain.NutritionistService, error) {
	var o domain.NutritionistService
	err := db.WithContext(ctx).
		Where("nutritionist_id = ? AND service_id = ? AND location_id = ? AND delivery_method = ?",
			nutritionistID, serviceID, locationID, method).
		First(&o).Error
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	o = domain.NutritionistService{
		ID:             uuid.NewString(),
		NutritionistID: nutritionistID,
		ServiceID:      serviceID,
		LocationID:     locationID,
		DeliveryMethod: method,
		Pricing:        pricing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(&o).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &o, nil
}
