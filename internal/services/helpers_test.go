package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/notify"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
)

// ---------- test helpers ----------

// testNow is the fixed clock used by lifecycle tests.
var testNow = time.Date(2029, 6, 1, 12, 0, 0, 0, time.UTC)

// slot is a future event date shared by cascade tests.
var slot = time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, uuid.NewString())
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
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fixture struct {
	DB  *gorm.DB
	Rec *notify.Recorder
	Svc *AppointmentService

	Ana, Bruno *domain.Nutritionist
	// Ana offers two services; Bruno one.
	AnaSports, AnaWeight, BrunoSports *domain.NutritionistService
}

// newFileDB opens a file-backed SQLite database so several connections
// can write concurrently (shared-cache memory databases lock per table).
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "booking.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return seedFixture(t, newSvcDB(t))
}

func seedFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	ctx := context.Background()
	cat := &CatalogService{DB: db}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	f := &fixture{DB: db, Rec: &notify.Recorder{}}
	f.Svc = &AppointmentService{DB: db, Notifier: f.Rec, Now: func() time.Time { return testNow }}

	var err error
	f.Ana, err = cat.EnsureNutritionist(ctx, NutritionistInput{Name: "Ana Silva", Title: "Dr.", LicenseNumber: "PT-0001"})
	must(err)
	f.Bruno, err = cat.EnsureNutritionist(ctx, NutritionistInput{Name: "Bruno Costa", Title: "Nutritionist", LicenseNumber: "PT-0002"})
	must(err)
	sports, err := cat.EnsureService(ctx, ServiceInput{Name: "Sports Nutrition"})
	must(err)
	weight, err := cat.EnsureService(ctx, ServiceInput{Name: "Weight Loss"})
	must(err)
	lisboa, err := cat.EnsureLocation(ctx, LocationInput{City: "Lisboa", FullAddress: "Rua Augusta 100, Lisboa", Latitude: 38.7223, Longitude: -9.1393})
	must(err)
	porto, err := cat.EnsureLocation(ctx, LocationInput{City: "Porto", FullAddress: "Avenida dos Aliados 50, Porto", Latitude: 41.1579, Longitude: -8.6291})
	must(err)

	f.AnaSports, err = cat.EnsureOffering(ctx, OfferingInput{
		NutritionistID: f.Ana.ID, ServiceID: sports.ID, LocationID: lisboa.ID,
		DeliveryMethod: "in_person", Pricing: decimal.RequireFromString("50.00"),
	})
	must(err)
	f.AnaWeight, err = cat.EnsureOffering(ctx, OfferingInput{
		NutritionistID: f.Ana.ID, ServiceID: weight.ID, LocationID: lisboa.ID,
		DeliveryMethod: "online", Pricing: decimal.RequireFromString("35.50"),
	})
	must(err)
	f.BrunoSports, err = cat.EnsureOffering(ctx, OfferingInput{
		NutritionistID: f.Bruno.ID, ServiceID: sports.ID, LocationID: porto.ID,
		DeliveryMethod: "in_person", Pricing: decimal.RequireFromString("45.00"),
	})
	must(err)
	return f
}

// book creates a pending appointment through the service and clears the
// recorder so tests only see the notifications of the call under test.
func (f *fixture) book(t *testing.T, name, email string, offering *domain.NutritionistService, at time.Time) *domain.Appointment {
	t.Helper()
	a, err := f.Svc.Create(context.Background(), CreateAppointmentInput{
		GuestName: name, GuestEmail: email, NutritionistServiceID: offering.ID, EventDate: at,
	})
	if err != nil {
		t.Fatalf("book %s: %v", email, err)
	}
	f.Rec.Reset()
	return a
}

func (f *fixture) state(t *testing.T, id string) domain.AppointmentState {
	t.Helper()
	a, err := repo.GetAppointment(context.Background(), f.DB, id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return a.State
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.DB.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// wantCalls asserts the recorded notifications, ignoring order.
func wantCalls(t *testing.T, rec *notify.Recorder, want ...notify.Notification) {
	t.Helper()
	got := rec.Calls()
	if len(got) != len(want) {
		t.Fatalf("notifications = %+v; want %+v", got, want)
	}
	seen := map[string]int{}
	for _, n := range got {
		seen[n.AppointmentID+"/"+string(n.Action)]++
	}
	for _, n := range want {
		k := n.AppointmentID + "/" + string(n.Action)
		if seen[k] == 0 {
			t.Fatalf("missing notification %s in %+v", k, got)
		}
		seen[k]--
	}
}

func note(id string, a notify.Action) notify.Notification {
	return notify.Notification{AppointmentID: id, Action: a}
}
