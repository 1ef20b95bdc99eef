// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PendingAppointmentsStats returns the number of pending appointments of a
// nutritionist and the greatest UpdatedAt among them. When there are none,
// count is 0 and maxUpdatedAt is nil.
//
// Any accept, reject or new booking touches updated_at or the count, so the
// pair is a cheap validator for the pending listing.
func PendingAppointmentsStats(ctx context.Context, db *gorm.DB, nutritionistID string) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = pendingForNutritionist(ctx, db, nutritionistID).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	err = pendingForNutritionist(ctx, db, nutritionistID).
		Select("appointments.updated_at AS updated_at").
		Order("appointments.updated_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
