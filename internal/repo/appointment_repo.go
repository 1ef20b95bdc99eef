// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Appointment model.
//
// State changes are conditional updates (WHERE state = <from>) so that two
// concurrent decisions on the same row cannot both succeed: the loser sees
// zero affected rows. Cascades select their targets with a row lock on
// PostgreSQL; SQLite serializes writers on its own.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
)

// CreateAppointment inserts a pending appointment for guestID on the given
// offering. eventDate is normalized to UTC seconds.
func CreateAppointment(ctx context.Context, db *gorm.DB, guestID, offeringID string, eventDate time.Time) (*domain.Appointment, error) {
	now := time.Now().UTC()
	a := &domain.Appointment{
		ID:                    uuid.NewString(),
		GuestID:               guestID,
		NutritionistServiceID: offeringID,
		State:                 domain.StatePending,
		EventDate:             domain.NormalizeEventDate(eventDate),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// GetAppointment fetches a bare appointment row or returns ErrNotFound.
func GetAppointment(ctx context.Context, db *gorm.DB, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// preloadAppointmentDetails loads everything the appointment view and the
// notification templates need.
func preloadAppointmentDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Guest").
		Preload("NutritionistService.Nutritionist").
		Preload("NutritionistService.Service").
		Preload("NutritionistService.Location")
}

// GetAppointmentDetailed fetches an appointment with its guest and offering
// (nutritionist, service, location) loaded, or returns ErrNotFound.
func GetAppointmentDetailed(ctx context.Context, db *gorm.DB, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := preloadAppointmentDetails(db.WithContext(ctx)).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// TransitionAppointment moves one appointment from state from to state to.
// It returns the number of affected rows: 0 means the row is missing or is
// no longer in state from.
func TransitionAppointment(ctx context.Context, db *gorm.DB, id string, from, to domain.AppointmentState) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]any{"state": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// lockForUpdate adds FOR UPDATE OF appointments on PostgreSQL.
func lockForUpdate(q *gorm.DB) *gorm.DB {
	if IsPostgres(q) {
		return q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "appointments"}})
	}
	return q
}

// PendingSlotSiblingIDs returns the ids of pending appointments booked with
// nutritionistID (through any of their offerings) at exactly eventDate,
// excluding excludeID. The rows are locked on PostgreSQL.
func PendingSlotSiblingIDs(ctx context.Context, db *gorm.DB, nutritionistID string, eventDate time.Time, excludeID string) ([]string, error) {
	var ids []string
	q := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Joins("JOIN nutritionist_services ON nutritionist_services.id = appointments.nutritionist_service_id").
		Where("nutritionist_services.nutritionist_id = ?", nutritionistID).
		Where("appointments.state = ?", domain.StatePending).
		Where("appointments.event_date = ?", domain.NormalizeEventDate(eventDate)).
		Where("appointments.id <> ?", excludeID).
		Order("appointments.created_at ASC, appointments.id ASC")
	err := lockForUpdate(q).Pluck("appointments.id", &ids).Error
	return ids, err
}

// PendingGuestAppointmentIDs returns the ids of guestID's pending
// appointments. The rows are locked on PostgreSQL.
func PendingGuestAppointmentIDs(ctx context.Context, db *gorm.DB, guestID string) ([]string, error) {
	var ids []string
	q := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("appointments.guest_id = ? AND appointments.state = ?", guestID, domain.StatePending).
		Order("appointments.created_at ASC, appointments.id ASC")
	err := lockForUpdate(q).Pluck("appointments.id", &ids).Error
	return ids, err
}

// RejectPendingAppointments sets every still-pending appointment in ids to
// rejected and returns the number of rows changed.
func RejectPendingAppointments(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id IN ? AND state = ?", ids, domain.StatePending).
		Updates(map[string]any{"state": domain.StateRejected, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// CountPendingForNutritionist returns how many pending appointments the
// nutritionist has across all offerings.
func CountPendingForNutritionist(ctx context.Context, db *gorm.DB, nutritionistID string) (int64, error) {
	var total int64
	err := pendingForNutritionist(ctx, db, nutritionistID).Count(&total).Error
	return total, err
}

// ListPendingForNutritionistPage returns one page of the nutritionist's
// pending appointments, soonest first, with details loaded.
func ListPendingForNutritionistPage(ctx context.Context, db *gorm.DB, nutritionistID string, offset, limit int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := preloadAppointmentDetails(pendingForNutritionist(ctx, db, nutritionistID)).
		Order("appointments.event_date ASC, appointments.created_at ASC, appointments.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func pendingForNutritionist(ctx context.Context, db *gorm.DB, nutritionistID string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Joins("JOIN nutritionist_services ON nutritionist_services.id = appointments.nutritionist_service_id").
		Where("nutritionist_services.nutritionist_id = ? AND appointments.state = ?", nutritionistID, domain.StatePending)
}
