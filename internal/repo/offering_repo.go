package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
)

// OfferingFilter narrows the offering search. Search matches the
// nutritionist name or the service name; Location matches the city or the
// full address. Both are case-insensitive substrings and combine with AND.
// Empty fields do not filter.
type OfferingFilter struct {
	Search   string
	Location string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern for a lower-cased substring match
// with wildcard characters in term taken literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// offeringQuery returns a fresh statement over nutritionist_services joined
// to its nutritionist, service and location with f applied.
func offeringQuery(ctx context.Context, db *gorm.DB, f OfferingFilter) *gorm.DB {
	q := db.WithContext(ctx).
		Model(&domain.NutritionistService{}).
		Joins("JOIN nutritionists ON nutritionists.id = nutritionist_services.nutritionist_id").
		Joins("JOIN services ON services.id = nutritionist_services.service_id").
		Joins("JOIN locations ON locations.id = nutritionist_services.location_id")

	if strings.TrimSpace(f.Search) != "" {
		p := containsPattern(f.Search)
		q = q.Where(`(LOWER(nutritionists.name) LIKE ? ESCAPE '\' OR LOWER(services.name) LIKE ? ESCAPE '\')`, p, p)
	}
	if strings.TrimSpace(f.Location) != "" {
		p := containsPattern(f.Location)
		q = q.Where(`(LOWER(locations.city) LIKE ? ESCAPE '\' OR LOWER(locations.full_address) LIKE ? ESCAPE '\')`, p, p)
	}
	return q
}

// CountOfferingGroups returns the number of distinct nutritionists having at
// least one offering that matches f. Search results are paginated by
// nutritionist, so this is the pagination total.
func CountOfferingGroups(ctx context.Context, db *gorm.DB, f OfferingFilter) (int64, error) {
	var total int64
	err := offeringQuery(ctx, db, f).
		Distinct("nutritionist_services.nutritionist_id").
		Count(&total).Error
	return total, err
}

// ListOfferingGroupIDs returns one page of nutritionist ids with matching
// offerings, ordered by nutritionist name then id.
func ListOfferingGroupIDs(ctx context.Context, db *gorm.DB, f OfferingFilter, offset, limit int) ([]string, error) {
	var rows []struct{ ID string }
	err := offeringQuery(ctx, db, f).
		Select("nutritionists.id AS id").
		Group("nutritionists.id, nutritionists.name").
		Order("nutritionists.name ASC, nutritionists.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ListOfferingsForNutritionists returns every offering matching f that
// belongs to one of nutritionistIDs, with associations loaded. Rows come
// grouped by nutritionist in the same order as ListOfferingGroupIDs.
func ListOfferingsForNutritionists(ctx context.Context, db *gorm.DB, f OfferingFilter, nutritionistIDs []string) ([]domain.NutritionistService, error) {
	if len(nutritionistIDs) == 0 {
		return []domain.NutritionistService{}, nil
	}
	var out []domain.NutritionistService
	err := offeringQuery(ctx, db, f).
		Where("nutritionist_services.nutritionist_id IN ?", nutritionistIDs).
		Preload("Nutritionist").
		Preload("Service").
		Preload("Location").
		Order("nutritionists.name ASC, nutritionists.id ASC, services.name ASC, nutritionist_services.id ASC").
		Find(&out).Error
	return out, err
}
