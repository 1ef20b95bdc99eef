// Package services – OfferingService
//
// OfferingService answers the public offering search. Results are grouped
// by nutritionist and paginated by nutritionist: a page of size N holds N
// nutritionists together with all of their matching offerings, and the
// pagination total counts nutritionists, not offerings.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OfferingRepo defines the repository contract required by OfferingService.
type OfferingRepo interface {
	// CountOfferingGroups returns the number of nutritionists with a match.
	CountOfferingGroups(ctx context.Context, db *gorm.DB, f repo.OfferingFilter) (int64, error)

	// ListOfferingGroupIDs returns one page of nutritionist ids with a match.
	ListOfferingGroupIDs(ctx context.Context, db *gorm.DB, f repo.OfferingFilter, offset, limit int) ([]string, error)

	// ListOfferingsForNutritionists returns the matching offerings of the
	// given nutritionists with associations loaded.
	ListOfferingsForNutritionists(ctx context.Context, db *gorm.DB, f repo.OfferingFilter, ids []string) ([]domain.NutritionistService, error)
}

// OfferingGroup is one nutritionist and their matching offerings.
type OfferingGroup struct {
	Nutritionist domain.Nutritionist
	Offerings    []domain.NutritionistService
}

// OfferingService searches the catalog.
type OfferingService struct {
	DB   *gorm.DB
	Repo OfferingRepo

	// DefaultPerPage and MaxPerPage bound the page size.
	DefaultPerPage int
	MaxPerPage     int
}

// NewOfferingService constructs an OfferingService with default paging.
func NewOfferingService(db *gorm.DB, r OfferingRepo) *OfferingService {
	return &OfferingService{DB: db, Repo: r, DefaultPerPage: 10, MaxPerPage: 100}
}

// Search returns one page of nutritionist groups matching f. Empty filter
// fields match everything. page and perPage are clamped to sane values and
// the returned Pagination reflects the values actually used.
func (s *OfferingService) Search(ctx context.Context, f repo.OfferingFilter, page, perPage int) ([]OfferingGroup, utils.Pagination, error) {
	tr := otel.Tracer("services/OfferingService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.Bool("filter.search", f.Search != ""),
			attribute.Bool("filter.location", f.Location != ""),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	page, perPage = utils.ClampPage(page, perPage, s.DefaultPerPage, s.MaxPerPage)

	total, err := s.Repo.CountOfferingGroups(ctx, s.DB, f)
	if err != nil {
		span.RecordError(err)
		return nil, utils.Pagination{}, err
	}
	pg := utils.NewPagination(page, perPage, total)
	if total == 0 {
		return []OfferingGroup{}, pg, nil
	}

	ids, err := s.Repo.ListOfferingGroupIDs(ctx, s.DB, f, utils.Offset(page, perPage), perPage)
	if err != nil {
		span.RecordError(err)
		return nil, pg, err
	}
	rows, err := s.Repo.ListOfferingsForNutritionists(ctx, s.DB, f, ids)
	if err != nil {
		span.RecordError(err)
		return nil, pg, err
	}
	span.SetAttributes(attribute.Int64("result.total", total), attribute.Int("result.groups", len(ids)))
	return groupOfferings(ids, rows), pg, nil
}

// groupOfferings buckets rows by nutritionist, keeping the order of ids.
func groupOfferings(ids []string, rows []domain.NutritionistService) []OfferingGroup {
	pos := make(map[string]int, len(ids))
	groups := make([]OfferingGroup, 0, len(ids))
	for _, id := range ids {
		pos[id] = len(groups)
		groups = append(groups, OfferingGroup{})
	}
	for _, o := range rows {
		i, ok := pos[o.NutritionistID]
		if !ok {
			continue
		}
		if groups[i].Nutritionist.ID == "" {
			groups[i].Nutritionist = o.Nutritionist
		}
		groups[i].Offerings = append(groups[i].Offerings, o)
	}
	// A nutritionist counted on this page always has at least one row, but
	// never hand out a group without its nutritionist.
	out := groups[:0]
	for _, g := range groups {
		if g.Nutritionist.ID != "" {
			out = append(out, g)
		}
	}
	return out
}
