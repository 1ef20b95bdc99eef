package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
)

// newTestDB opens a private in-memory database with foreign keys on.
// With migrate == nil nothing is created; pass AutoMigrate to get the full
// schema including the partial index.
func newTestDB(t *testing.T, migrate func(*gorm.DB) error) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if migrate != nil {
		if err := migrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

type catalog struct {
	Ana, Bruno       *domain.Nutritionist
	Sports, Weight   *domain.Service
	Lisboa, Porto    *domain.Location
	AnaSportsLisboa  *domain.NutritionistService
	AnaWeightOnline  *domain.NutritionistService
	BrunoSportsPorto *domain.NutritionistService
}

// seedCatalog creates two nutritionists with three offerings between them.
func seedCatalog(t *testing.T, db *gorm.DB) catalog {
	t.Helper()
	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	var c catalog
	var err error
	c.Ana, err = EnsureNutritionist(ctx, db, "Ana Silva", "Dr.", "PT-0001")
	must(err)
	c.Bruno, err = EnsureNutritionist(ctx, db, "Bruno Costa", "Nutritionist", "PT-0002")
	must(err)
	c.Sports, err = EnsureService(ctx, db, "Sports Nutrition")
	must(err)
	c.Weight, err = EnsureService(ctx, db, "Weight Loss")
	must(err)
	c.Lisboa, err = EnsureLocation(ctx, db, "Lisboa", "Rua Augusta 100, Lisboa", 38.7223, -9.1393)
	must(err)
	c.Porto, err = EnsureLocation(ctx, db, "Porto", "Avenida dos Aliados 50, Porto", 41.1579, -8.6291)
	must(err)
	c.AnaSportsLisboa, err = EnsureOffering(ctx, db, c.Ana.ID, c.Sports.ID, c.Lisboa.ID, domain.DeliveryInPerson, decimal.RequireFromString("50.00"))
	must(err)
	c.AnaWeightOnline, err = EnsureOffering(ctx, db, c.Ana.ID, c.Weight.ID, c.Lisboa.ID, domain.DeliveryOnline, decimal.RequireFromString("35.50"))
	must(err)
	c.BrunoSportsPorto, err = EnsureOffering(ctx, db, c.Bruno.ID, c.Sports.ID, c.Porto.ID, domain.DeliveryInPerson, decimal.RequireFromString("45.00"))
	must(err)
	return c
}

func seedGuest(t *testing.T, db *gorm.DB, name, email string) *domain.Guest {
	t.Helper()
	g, err := CreateGuest(context.Background(), db, name, email)
	if err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	return g
}

func seedAppointment(t *testing.T, db *gorm.DB, guestID, offeringID string, at time.Time, state domain.AppointmentState) *domain.Appointment {
	t.Helper()
	a := &domain.Appointment{
		ID:                    uuid.NewString(),
		GuestID:               guestID,
		NutritionistServiceID: offeringID,
		State:                 state,
		EventDate:             domain.NormalizeEventDate(at),
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func stateOf(t *testing.T, db *gorm.DB, id string) domain.AppointmentState {
	t.Helper()
	a, err := GetAppointment(context.Background(), db, id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return a.State
}
