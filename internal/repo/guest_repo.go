package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
)

// NormalizeEmail trims and lower-cases an address. Guests are identified by
// e-mail case-insensitively, so every read and write goes through here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindGuestByEmail returns the guest with the given address or ErrNotFound.
func FindGuestByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Guest, error) {
	var g domain.Guest
	err := db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGuest inserts a guest with a fresh UUID. A concurrent insert of the
// same address surfaces as ErrDuplicate.
func CreateGuest(ctx context.Context, db *gorm.DB, name, email string) (*domain.Guest, error) {
	now := time.Now().UTC()
	g := &domain.Guest{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return g, nil
}

// UpdateGuestName renames a guest. Returns ErrNotFound if no row matched.
func UpdateGuestName(ctx context.Context, db *gorm.DB, id, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.Guest{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": strings.TrimSpace(name), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
