package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/http/middleware"
	"github.com/tbourn/go-nutrition-booking/internal/notify"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/services"
)

// ---------- test DB + repo shims ----------

var (
	testNow = time.Date(2029, 6, 1, 12, 0, 0, 0, time.UTC)
	slot    = "2030-01-01T10:00:00Z"
)

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
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
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Minimal shim implementing services.OfferingRepo using repo package (like router.go)
type testOfferingRepo struct{}

func (testOfferingRepo) CountOfferingGroups(ctx context.Context, db *gorm.DB, f repo.OfferingFilter) (int64, error) {
	return repo.CountOfferingGroups(ctx, db, f)
}

func (testOfferingRepo) ListOfferingGroupIDs(ctx context.Context, db *gorm.DB, f repo.OfferingFilter, offset, limit int) ([]string, error) {
	return repo.ListOfferingGroupIDs(ctx, db, f, offset, limit)
}

func (testOfferingRepo) ListOfferingsForNutritionists(ctx context.Context, db *gorm.DB, f repo.OfferingFilter, ids []string) ([]domain.NutritionistService, error) {
	return repo.ListOfferingsForNutritionists(ctx, db, f, ids)
}

type testIdemStore struct{ db *gorm.DB }

func (s testIdemStore) Save(ctx context.Context, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, scope, key, resourceID, status, time.Hour)
	return err
}

func (s testIdemStore) lookup(ctx context.Context, scope, key string, now time.Time) (middleware.Replay, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return middleware.Replay{}, false, nil
	}
	if err != nil {
		return middleware.Replay{}, false, err
	}
	return middleware.Replay{ResourceID: rec.ResourceID, Status: rec.Status}, true, nil
}

// ---------- env ----------

type env struct {
	db  *gorm.DB
	rec *notify.Recorder
	r   *gin.Engine

	ana, bruno          *domain.Nutritionist
	anaSports, brunoOff *domain.NutritionistService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	ctx := context.Background()
	e := &env{db: db, rec: &notify.Recorder{}}

	cat := &services.CatalogService{DB: db}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	var err error
	e.ana, err = cat.EnsureNutritionist(ctx, services.NutritionistInput{Name: "Ana Silva", Title: "Dr.", LicenseNumber: "PT-0001"})
	must(err)
	e.bruno, err = cat.EnsureNutritionist(ctx, services.NutritionistInput{Name: "Bruno Costa", Title: "Nutritionist", LicenseNumber: "PT-0002"})
	must(err)
	sports, err := cat.EnsureService(ctx, services.ServiceInput{Name: "Sports Nutrition"})
	must(err)
	lisboa, err := cat.EnsureLocation(ctx, services.LocationInput{City: "Lisboa", FullAddress: "Rua Augusta 100, Lisboa", Latitude: 38.7223, Longitude: -9.1393})
	must(err)
	porto, err := cat.EnsureLocation(ctx, services.LocationInput{City: "Porto", FullAddress: "Avenida dos Aliados 50, Porto", Latitude: 41.1579, Longitude: -8.6291})
	must(err)
	e.anaSports, err = cat.EnsureOffering(ctx, services.OfferingInput{
		NutritionistID: e.ana.ID, ServiceID: sports.ID, LocationID: lisboa.ID,
		DeliveryMethod: "in_person", Pricing: decimal.RequireFromString("50"),
	})
	must(err)
	e.brunoOff, err = cat.EnsureOffering(ctx, services.OfferingInput{
		NutritionistID: e.bruno.ID, ServiceID: sports.ID, LocationID: porto.ID,
		DeliveryMethod: "online", Pricing: decimal.RequireFromString("45.5"),
	})
	must(err)

	appts := &services.AppointmentService{DB: db, Notifier: e.rec, Now: func() time.Time { return testNow }}
	idem := testIdemStore{db: db}
	h := New(appts, services.NewOfferingService(db, testOfferingRepo{}), &services.PendingService{DB: db}).
		WithIdempotency(idem).
		WithReadiness(Check{Name: "db", Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Locale(language.English))
	r.POST("/appointments", middleware.Idempotency(ScopeCreateAppointment, middleware.IdempotencyOptions{}, idem.lookup), h.CreateAppointment)
	r.PATCH("/appointments/:id/accept", h.AcceptAppointment)
	r.PATCH("/appointments/:id/reject", h.RejectAppointment)
	r.GET("/nutritionist_services", h.ListOfferings)
	r.GET("/nutritionists/:id/appointments", h.ListPendingAppointments)
	r.GET("/locales", h.Locales)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	e.r = r
	return e
}

func (e *env) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func bookingBody(name, email, offeringID, at string) CreateAppointmentRequest {
	return CreateAppointmentRequest{Appointment: AppointmentParams{
		GuestAttributes:       GuestAttributes{Name: name, Email: email},
		NutritionistServiceID: offeringID,
		EventDate:             at,
	}}
}

func (e *env) book(t *testing.T, email, offeringID string) AppointmentView {
	t.Helper()
	w := e.do(http.MethodPost, "/appointments", bookingBody("Guest", email, offeringID, slot))
	if w.Code != http.StatusCreated {
		t.Fatalf("book %s: %d %s", email, w.Code, w.Body.String())
	}
	var v AppointmentView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v", err)
	}
	e.rec.Reset()
	return v
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return v
}

// ---------- POST /appointments ----------

func TestCreateAppointment_201(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/appointments?locale=pt",
		bookingBody("Maria", "Maria@Example.com", e.anaSports.ID, slot))

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	v := decode[AppointmentView](t, w)
	if v.State != "pending" || v.StateLabel != "Pendente" {
		t.Fatalf("state=%q label=%q", v.State, v.StateLabel)
	}
	if v.EventDate != slot || v.Guest.Email != "maria@example.com" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.NutritionistService.Pricing != "50.00" || v.NutritionistService.Nutritionist == nil ||
		v.NutritionistService.Nutritionist.Name != "Ana Silva" {
		t.Fatalf("offering view: %+v", v.NutritionistService)
	}
	if v.NutritionistService.Location.Latitude != 38.7223 {
		t.Fatalf("latitude=%v", v.NutritionistService.Location.Latitude)
	}
	if loc := w.Header().Get("Location"); loc != "/appointments/"+v.ID {
		t.Fatalf("Location=%q", loc)
	}
	calls := e.rec.Calls()
	if len(calls) != 1 || calls[0].Action != notify.ActionConfirmation || calls[0].Locale != "pt" {
		t.Fatalf("notifications=%+v", calls)
	}
}

func TestCreateAppointment_OffsetlessDateIsUTC(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/appointments", bookingBody("Maria", "m@x.com", e.anaSports.ID, "2030-01-01 10:00"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if v := decode[AppointmentView](t, w); v.EventDate != slot {
		t.Fatalf("event_date=%q", v.EventDate)
	}
}

func TestCreateAppointment_422_ErrorsByEntity(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name   string
		body   CreateAppointmentRequest
		entity string
		field  string
		msg    string
	}{
		{"blank guest name", bookingBody("", "m@x.com", e.anaSports.ID, slot), "guest", "name", "can't be blank"},
		{"bad email", bookingBody("M", "not-an-email", e.anaSports.ID, slot), "guest", "email", "is invalid"},
		{"past date", bookingBody("M", "m@x.com", e.anaSports.ID, "2020-01-01T10:00:00Z"), "appointment", "event_date", "must be in the future"},
		{"missing date", bookingBody("M", "m@x.com", e.anaSports.ID, ""), "appointment", "event_date", "can't be blank"},
		{"garbage date", bookingBody("M", "m@x.com", e.anaSports.ID, "next tuesday"), "appointment", "event_date", "is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/appointments", tc.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			body := decode[map[string]any](t, w)
			errs, ok := body["errors"].(map[string]any)[tc.entity].(map[string]any)
			if !ok {
				t.Fatalf("no %s errors: %v", tc.entity, body)
			}
			if got := errs[tc.field].([]any)[0]; got != tc.msg {
				t.Fatalf("%s=%v", tc.field, got)
			}
		})
	}

	var n int64
	e.db.Model(&domain.Appointment{}).Count(&n)
	if n != 0 || len(e.rec.Calls()) != 0 {
		t.Fatalf("rows=%d notifications=%d after failures", n, len(e.rec.Calls()))
	}
}

func TestCreateAppointment_404_UnknownOffering(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/appointments", bookingBody("M", "m@x.com", uuid.NewString(), slot))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if body := decode[ErrorResponse](t, w); body.Code != ErrCodeNotFound || body.Message != "nutritionist service not found" {
		t.Fatalf("body=%+v", body)
	}
}

func TestCreateAppointment_400_MalformedJSON(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(`{"appointment":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if body := decode[ErrorResponse](t, w); body.RequestID == "" || body.Code != ErrCodeBadRequest {
		t.Fatalf("body=%+v", body)
	}
}

func TestCreateAppointment_IdempotentReplay(t *testing.T) {
	e := newEnv(t)
	body := bookingBody("Maria", "m@x.com", e.anaSports.ID, slot)

	first := e.do(http.MethodPost, "/appointments", body, middleware.HeaderIdempotencyKey, "booking-42")
	if first.Code != http.StatusCreated {
		t.Fatalf("first: %d %s", first.Code, first.Body.String())
	}
	second := e.do(http.MethodPost, "/appointments", body, middleware.HeaderIdempotencyKey, "booking-42")
	if second.Code != http.StatusCreated || second.Header().Get(middleware.HeaderIdempotentReplay) != "true" {
		t.Fatalf("second: %d replay=%q", second.Code, second.Header().Get(middleware.HeaderIdempotentReplay))
	}
	if a, b := decode[AppointmentView](t, first), decode[AppointmentView](t, second); a.ID != b.ID {
		t.Fatalf("replay returned %s, want %s", b.ID, a.ID)
	}

	var n int64
	e.db.Model(&domain.Appointment{}).Count(&n)
	if n != 1 || len(e.rec.Calls()) != 1 {
		t.Fatalf("rows=%d notifications=%d, want 1/1", n, len(e.rec.Calls()))
	}

	bad := e.do(http.MethodPost, "/appointments", body, middleware.HeaderIdempotencyKey, "has spaces")
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("bad key: %d", bad.Code)
	}
}

// ---------- PATCH accept / reject ----------

func TestAcceptAppointment_CascadesOverHTTP(t *testing.T) {
	e := newEnv(t)
	a1 := e.book(t, "a@x.com", e.anaSports.ID)
	a2 := e.book(t, "b@x.com", e.anaSports.ID)
	other := e.book(t, "c@x.com", e.brunoOff.ID)

	w := e.do(http.MethodPatch, "/appointments/"+a1.ID+"/accept", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if v := decode[AppointmentView](t, w); v.State != "accepted" {
		t.Fatalf("state=%q", v.State)
	}

	states := map[string]domain.AppointmentState{}
	for _, id := range []string{a2.ID, other.ID} {
		a, err := repo.GetAppointment(context.Background(), e.db, id)
		if err != nil {
			t.Fatal(err)
		}
		states[id] = a.State
	}
	if states[a2.ID] != domain.StateRejected || states[other.ID] != domain.StatePending {
		t.Fatalf("states=%v", states)
	}
	if got := len(e.rec.Calls()); got != 2 {
		t.Fatalf("notifications=%d, want accepted+rejected", got)
	}
}

func TestDecisions_ErrorsAreFlatLists(t *testing.T) {
	e := newEnv(t)
	a := e.book(t, "a@x.com", e.anaSports.ID)
	if w := e.do(http.MethodPatch, "/appointments/"+a.ID+"/reject", nil); w.Code != http.StatusOK {
		t.Fatalf("reject: %d %s", w.Code, w.Body.String())
	}

	cases := []struct {
		name, path string
		status     int
		code       string
	}{
		{"accept rejected", "/appointments/" + a.ID + "/accept", http.StatusConflict, ErrCodeInvalidStateTransition},
		{"reject rejected", "/appointments/" + a.ID + "/reject", http.StatusConflict, ErrCodeInvalidStateTransition},
		{"unknown", "/appointments/" + uuid.NewString() + "/accept", http.StatusNotFound, ErrCodeNotFound},
		{"bad id", "/appointments/nope/reject", http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPatch, tc.path, nil)
			if w.Code != tc.status {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			body := decode[map[string]any](t, w)
			if body["code"] != tc.code {
				t.Fatalf("code=%v", body["code"])
			}
			if list, ok := body["errors"].([]any); !ok || len(list) != 1 {
				t.Fatalf("errors=%v", body["errors"])
			}
		})
	}
}

// ---------- GET listings ----------

func TestListOfferings_FiltersAndGroups(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/nutritionist_services?search=sports&location=PORTO", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	res := decode[SearchResponse](t, w)
	if len(res.Nutritionists) != 1 || res.Nutritionists[0].Nutritionist.ID != e.bruno.ID {
		t.Fatalf("groups=%+v", res.Nutritionists)
	}
	svc := res.Nutritionists[0].Services
	if len(svc) != 1 || svc[0].Pricing != "45.50" || svc[0].Nutritionist != nil {
		t.Fatalf("services=%+v", svc)
	}

	all := decode[SearchResponse](t, e.do(http.MethodGet, "/nutritionist_services?per_page=1&locale=fr", nil))
	if all.Pagination.TotalCount != 2 || all.Pagination.TotalPages != 2 || len(all.Nutritionists) != 1 {
		t.Fatalf("pagination=%+v groups=%d", all.Pagination, len(all.Nutritionists))
	}
	if lbl := all.Nutritionists[0].Services[0].DeliveryMethodLabel; lbl != "En personne" {
		t.Fatalf("label=%q", lbl)
	}
}

func TestListPendingAppointments_ETag(t *testing.T) {
	e := newEnv(t)
	a := e.book(t, "a@x.com", e.anaSports.ID)
	e.book(t, "b@x.com", e.brunoOff.ID)

	path := "/nutritionists/" + e.ana.ID + "/appointments"
	w := e.do(http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	res := decode[PendingResponse](t, w)
	if len(res.Appointments) != 1 || res.Appointments[0].ID != a.ID || res.Pagination.TotalCount != 1 {
		t.Fatalf("res=%+v", res)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"pending:`) {
		t.Fatalf("etag=%q", etag)
	}

	if w := e.do(http.MethodGet, path, nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("revalidate: %d", w.Code)
	}

	e.do(http.MethodPatch, "/appointments/"+a.ID+"/reject", nil)
	w = e.do(http.MethodGet, path, nil, "If-None-Match", etag)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("after change: %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
	if res := decode[PendingResponse](t, w); len(res.Appointments) != 0 {
		t.Fatalf("still pending: %+v", res.Appointments)
	}
}

func TestListPendingAppointments_Errors(t *testing.T) {
	e := newEnv(t)
	if w := e.do(http.MethodGet, "/nutritionists/xyz/appointments", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
	if w := e.do(http.MethodGet, "/nutritionists/"+uuid.NewString()+"/appointments", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown: %d", w.Code)
	}

	// an empty-set validator for an unknown id must not revalidate
	ghost := uuid.NewString()
	stale := `W/"pending:` + ghost + `:0:0:1:0:en"`
	if w := e.do(http.MethodGet, "/nutritionists/"+ghost+"/appointments", nil, "If-None-Match", stale); w.Code != http.StatusNotFound {
		t.Fatalf("unknown with etag: %d", w.Code)
	}
}

// ---------- meta ----------

func TestLocalesAndProbes(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/locales", nil, "Accept-Language", "fr-CA,fr;q=0.9")
	res := decode[LocalesResponse](t, w)
	if res.CurrentLocale != "fr" || strings.Join(res.AvailableLocales, ",") != "en,fr,pt" {
		t.Fatalf("locales=%+v", res)
	}

	if w := e.do(http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("health=%d", w.Code)
	}
	w = e.do(http.MethodGet, "/ready", nil)
	if w.Code != http.StatusOK || decode[HealthResponse](t, w).Checks["db"] != "ok" {
		t.Fatalf("ready=%d %s", w.Code, w.Body.String())
	}
}

func TestReady_503WhenCheckFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, nil).WithReadiness(Check{Name: "redis", Ping: func(context.Context) error {
		return errors.New("connection refused")
	}})
	r := gin.New()
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if res := decode[HealthResponse](t, w); res.Status != ErrCodeUnavailable || res.Checks["redis"] != "down" {
		t.Fatalf("res=%+v", res)
	}
}

func TestParseEventDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{"2030-01-01T10:00:00+01:00", "2030-01-01T09:00:00Z", true},
		{"2030-01-01T10:00", "2030-01-01T10:00:00Z", true},
		{"2030-01-01 10:00:05", "2030-01-01T10:00:05Z", true},
		{"01/01/2030", "", false},
	}
	for _, tc := range cases {
		got, ok := parseEventDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v", tc.in, ok)
		}
		if tc.want != "" && got.UTC().Format(time.RFC3339) != tc.want {
			t.Fatalf("%q: got %s", tc.in, got.UTC().Format(time.RFC3339))
		}
	}
}
