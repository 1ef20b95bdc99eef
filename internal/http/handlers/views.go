// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the JSON views. Models are never serialized directly:
// views add the translated enum labels, render prices with two decimals and
// expose coordinates as latitude/longitude.
package handlers

import (
	"time"

	"golang.org/x/text/language"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/locale"
	"github.com/tbourn/go-nutrition-booking/internal/services"
	"github.com/tbourn/go-nutrition-booking/internal/utils"
)

// GuestView is the public shape of a guest.
type GuestView struct {
	ID    string `json:"id"    example:"7d3c5c1e-2f0a-4b8e-9d62-0b1f1c9e2a11"`
	Name  string `json:"name"  example:"Maria Santos"`
	Email string `json:"email" example:"maria@example.com"`
}

// NutritionistView is the public shape of a nutritionist.
type NutritionistView struct {
	ID            string `json:"id"`
	Name          string `json:"name"           example:"Ana Silva"`
	Title         string `json:"title"          example:"Dr."`
	LicenseNumber string `json:"license_number" example:"PT-0001"`
}

// ServiceView is the public shape of a catalog service.
type ServiceView struct {
	ID   string `json:"id"`
	Name string `json:"name" example:"Sports Nutrition"`
}

// LocationView is the public shape of a location.
type LocationView struct {
	ID          string  `json:"id"`
	City        string  `json:"city"         example:"Lisboa"`
	FullAddress string  `json:"full_address" example:"Rua Augusta 100, Lisboa"`
	Latitude    float64 `json:"latitude"     example:"38.7223"`
	Longitude   float64 `json:"longitude"    example:"-9.1393"`
}

// OfferingView is the public shape of a NutritionistService.
type OfferingView struct {
	ID                  string            `json:"id"`
	Pricing             string            `json:"pricing"               example:"50.00"`
	DeliveryMethod      string            `json:"delivery_method"       example:"in_person"`
	DeliveryMethodLabel string            `json:"delivery_method_label" example:"In person"`
	Nutritionist        *NutritionistView `json:"nutritionist,omitempty"`
	Service             ServiceView       `json:"service"`
	Location            LocationView      `json:"location"`
}

// AppointmentView is the public shape of an appointment.
type AppointmentView struct {
	ID                    string       `json:"id"`
	State                 string       `json:"state"       example:"pending"`
	StateLabel            string       `json:"state_label" example:"Pending"`
	EventDate             string       `json:"event_date"  example:"2030-01-01T10:00:00Z"`
	CreatedAt             string       `json:"created_at"`
	GuestID               string       `json:"guest_id"`
	NutritionistServiceID string       `json:"nutritionist_service_id"`
	Guest                 GuestView    `json:"guest"`
	NutritionistService   OfferingView `json:"nutritionist_service"`
}

// NutritionistGroupView is one search result group.
type NutritionistGroupView struct {
	Nutritionist NutritionistView `json:"nutritionist"`
	Services     []OfferingView   `json:"services"`
}

// SearchResponse is the body of GET /nutritionist_services.
type SearchResponse struct {
	Nutritionists []NutritionistGroupView `json:"nutritionists"`
	Pagination    utils.Pagination        `json:"pagination"`
}

// PendingResponse is the body of GET /nutritionists/{id}/appointments.
type PendingResponse struct {
	Appointments []AppointmentView `json:"appointments"`
	Pagination   utils.Pagination  `json:"pagination"`
}

// LocalesResponse is the body of GET /locales.
type LocalesResponse struct {
	AvailableLocales []string `json:"available_locales" example:"en,fr,pt"`
	CurrentLocale    string   `json:"current_locale"    example:"en"`
}

func nutritionistView(n domain.Nutritionist) NutritionistView {
	return NutritionistView{ID: n.ID, Name: n.Name, Title: n.Title, LicenseNumber: n.LicenseNumber}
}

func offeringView(t language.Tag, o domain.NutritionistService, withNutritionist bool) OfferingView {
	v := OfferingView{
		ID:                  o.ID,
		Pricing:             o.Pricing.StringFixed(2),
		DeliveryMethod:      string(o.DeliveryMethod),
		DeliveryMethodLabel: locale.T(t, "delivery_method."+string(o.DeliveryMethod)),
		Service:             ServiceView{ID: o.Service.ID, Name: o.Service.Name},
		Location: LocationView{
			ID:          o.Location.ID,
			City:        o.Location.City,
			FullAddress: o.Location.FullAddress,
			Latitude:    o.Location.Latitude(),
			Longitude:   o.Location.Longitude(),
		},
	}
	if withNutritionist {
		n := nutritionistView(o.Nutritionist)
		v.Nutritionist = &n
	}
	return v
}

func appointmentView(t language.Tag, a *domain.Appointment) AppointmentView {
	return AppointmentView{
		ID:                    a.ID,
		State:                 string(a.State),
		StateLabel:            locale.T(t, "state."+string(a.State)),
		EventDate:             a.EventDate.UTC().Format(time.RFC3339),
		CreatedAt:             a.CreatedAt.UTC().Format(time.RFC3339),
		GuestID:               a.GuestID,
		NutritionistServiceID: a.NutritionistServiceID,
		Guest:                 GuestView{ID: a.Guest.ID, Name: a.Guest.Name, Email: a.Guest.Email},
		NutritionistService:   offeringView(t, a.NutritionistService, true),
	}
}

func appointmentViews(t language.Tag, items []domain.Appointment) []AppointmentView {
	out := make([]AppointmentView, 0, len(items))
	for i := range items {
		out = append(out, appointmentView(t, &items[i]))
	}
	return out
}

func groupViews(t language.Tag, groups []services.OfferingGroup) []NutritionistGroupView {
	out := make([]NutritionistGroupView, 0, len(groups))
	for _, g := range groups {
		gv := NutritionistGroupView{
			Nutritionist: nutritionistView(g.Nutritionist),
			Services:     make([]OfferingView, 0, len(g.Offerings)),
		}
		for _, o := range g.Offerings {
			gv.Services = append(gv.Services, offeringView(t, o, false))
		}
		out = append(out, gv)
	}
	return out
}
