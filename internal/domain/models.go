// Package domain defines the persistence models of the booking marketplace:
// guests, nutritionists, the service catalog, locations, offerings
// (NutritionistService) and appointments. These types are mapped with GORM
// and shared by the repository, service and HTTP layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Guest is the person requesting an appointment. Guests never log in; they
// are resolved by e-mail on every booking request.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Name: display name, required.
//   - Email: stored lower-cased; unique, so lookups are case-insensitive.
//   - Appointments: history, cascade-deleted with the guest.
type Guest struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_guests_email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Appointments []Appointment `json:"-" gorm:"foreignKey:GuestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Guest.
func (Guest) TableName() string { return "guests" }

// Nutritionist is a professional listing offerings on the marketplace.
// LicenseNumber is unique across the platform.
type Nutritionist struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	Name          string    `json:"name"           gorm:"type:varchar(255);not null;index:idx_nutritionists_name"`
	Title         string    `json:"title"          gorm:"type:varchar(255);not null"`
	LicenseNumber string    `json:"license_number" gorm:"type:varchar(64);not null;uniqueIndex:ux_nutritionists_license"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Offerings []NutritionistService `json:"-" gorm:"foreignKey:NutritionistID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Nutritionist.
func (Nutritionist) TableName() string { return "nutritionists" }

// Service is a catalog entry such as "Sports Nutrition".
type Service struct {
	ID        string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Service.
func (Service) TableName() string { return "services" }

// Location is a physical practice address.
type Location struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	FullAddress string    `json:"full_address" gorm:"type:text;not null"`
	City        string    `json:"city"         gorm:"type:varchar(255);not null;index:idx_locations_city"`
	Coordinates Point     `json:"coordinates"  gorm:"type:point"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Location.
func (Location) TableName() string { return "locations" }

// Latitude is derived from Coordinates.
func (l Location) Latitude() float64 { return l.Coordinates.Lat() }

// Longitude is derived from Coordinates.
func (l Location) Longitude() float64 { return l.Coordinates.Lng() }

// DeliveryMethod tells whether an offering happens on site or remotely.
type DeliveryMethod string

const (
	DeliveryInPerson DeliveryMethod = "in_person"
	DeliveryOnline   DeliveryMethod = "online"
)

// Valid reports whether d is a known delivery method.
func (d DeliveryMethod) Valid() bool {
	return d == DeliveryInPerson || d == DeliveryOnline
}

// NutritionistService is an offering: one nutritionist's service at a
// location with a delivery method and a price. The tuple
// (nutritionist, service, location, delivery_method) is unique.
type NutritionistService struct {
	ID             string          `json:"id"              gorm:"type:char(36);primaryKey"`
	NutritionistID string          `json:"nutritionist_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_offering,priority:1"`
	ServiceID      string          `json:"service_id"      gorm:"type:char(36);not null;index;uniqueIndex:ux_offering,priority:2"`
	LocationID     string          `json:"location_id"     gorm:"type:char(36);not null;index;uniqueIndex:ux_offering,priority:3"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method" gorm:"type:varchar(16);not null;default:'in_person';uniqueIndex:ux_offering,priority:4;check:delivery_method IN ('in_person','online')"`
	Pricing        decimal.Decimal `json:"pricing"         gorm:"type:decimal(8,2);not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Nutritionist Nutritionist  `json:"nutritionist" gorm:"foreignKey:NutritionistID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service      Service       `json:"service"      gorm:"foreignKey:ServiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Location     Location      `json:"location"     gorm:"foreignKey:LocationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Appointments []Appointment `json:"-"            gorm:"foreignKey:NutritionistServiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for NutritionistService.
func (NutritionistService) TableName() string { return "nutritionist_services" }

// Appointment is a guest's request for an offering at an exact timestamp.
// It starts pending and ends either accepted or rejected.
//
// A unique partial index (see repo.AutoMigrate) guarantees that a guest has
// at most one pending appointment at any time.
type Appointment struct {
	ID                    string           `json:"id"                      gorm:"type:char(36);primaryKey"`
	GuestID               string           `json:"guest_id"                gorm:"type:char(36);not null;index"`
	NutritionistServiceID string           `json:"nutritionist_service_id" gorm:"type:char(36);not null;index"`
	State                 AppointmentState `json:"state"                   gorm:"type:varchar(16);not null;default:'pending';index;check:state IN ('pending','accepted','rejected')"`
	EventDate             time.Time        `json:"event_date"              gorm:"not null;index"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`

	Guest               Guest               `json:"-" gorm:"foreignKey:GuestID;references:ID"`
	NutritionistService NutritionistService `json:"-" gorm:"foreignKey:NutritionistServiceID;references:ID"`
}

// TableName returns the database table name for Appointment.
func (Appointment) TableName() string { return "appointments" }

// NormalizeEventDate converts t to UTC at whole-second precision. Slot
// equality is exact, so every write and comparison goes through here.
func NormalizeEventDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
