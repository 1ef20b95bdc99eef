// Package services – PendingService
//
// PendingService lists a nutritionist's pending appointments, soonest
// first, with guest and offering details. It is read-only.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PendingService backs GET /nutritionists/:id/appointments.
type PendingService struct {
	DB *gorm.DB

	DefaultPerPage int
	MaxPerPage     int
}

// List returns one page of pending appointments for nutritionistID.
// A missing nutritionist yields *NotFoundError.
func (s *PendingService) List(ctx context.Context, nutritionistID string, page, perPage int) ([]domain.Appointment, utils.Pagination, error) {
	tr := otel.Tracer("services/PendingService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("nutritionist.id", nutritionistID)),
	)
	defer span.End()

	if err := s.requireNutritionist(ctx, nutritionistID); err != nil {
		span.RecordError(err)
		return nil, utils.Pagination{}, err
	}

	page, perPage = utils.ClampPage(page, perPage, orDefault(s.DefaultPerPage, 10), orDefault(s.MaxPerPage, 100))
	total, err := repo.CountPendingForNutritionist(ctx, s.DB, nutritionistID)
	if err != nil {
		span.RecordError(err)
		return nil, utils.Pagination{}, err
	}
	pg := utils.NewPagination(page, perPage, total)
	if total == 0 {
		return []domain.Appointment{}, pg, nil
	}

	items, err := repo.ListPendingForNutritionistPage(ctx, s.DB, nutritionistID, utils.Offset(page, perPage), perPage)
	if err != nil {
		span.RecordError(err)
		return nil, pg, err
	}
	return items, pg, nil
}

// Stats returns the pending count and latest update of nutritionistID's
// pending appointments, for conditional GETs. A missing nutritionist yields
// *NotFoundError, so a stale validator never turns a 404 into a 304.
func (s *PendingService) Stats(ctx context.Context, nutritionistID string) (int64, *time.Time, error) {
	if err := s.requireNutritionist(ctx, nutritionistID); err != nil {
		return 0, nil, err
	}
	return repo.PendingAppointmentsStats(ctx, s.DB, nutritionistID)
}

func (s *PendingService) requireNutritionist(ctx context.Context, id string) error {
	_, err := repo.GetNutritionist(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return &NotFoundError{Entity: EntityNutritionist, ID: id}
	}
	return err
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
