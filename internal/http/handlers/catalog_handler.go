// Read-only listing handlers.
//
//   - GET /nutritionist_services           grouped offering search
//   - GET /nutritionists/{id}/appointments pending appointments (ETag aware)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-nutrition-booking/internal/locale"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
)

// ListOfferings godoc
// @ID          listOfferings
// @Summary     Search offerings
// @Description Matches search against nutritionist or service name and location against city or address (case-insensitive substrings, combined with AND). Results are grouped by nutritionist; pagination counts nutritionists.
// @Tags        Catalog
// @Produce     json
//
// @Param       search    query  string  false  "Nutritionist or service name"  example(sports)
// @Param       location  query  string  false  "City or address"               example(lisboa)
// @Param       page      query  int     false  "Page number (1-based)"         minimum(1) default(1)
// @Param       per_page  query  int     false  "Nutritionists per page"        minimum(1) maximum(100) default(10)
// @Param       locale    query  string  false  "Response language"             Enums(en, fr, pt)
//
// @Success     200  {object}  handlers.SearchResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /nutritionist_services [get]
func (h *Handlers) ListOfferings(c *gin.Context) {
	page, perPage := pageParams(c)
	f := repo.OfferingFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Location: strings.TrimSpace(c.Query("location")),
	}
	groups, pg, err := h.offerings.Search(c.Request.Context(), f, page, perPage)
	if err != nil {
		h.failService(c, err, byEntity)
		return
	}
	ok(c, http.StatusOK, SearchResponse{Nutritionists: groupViews(h.lang(c), groups), Pagination: pg})
}

// ListPendingAppointments godoc
// @ID          listPendingAppointments
// @Summary     List a nutritionist's pending appointments
// @Description Pending appointments with guest and offering details, earliest event first. Sends a weak ETag derived from the pending set; If-None-Match short-circuits with 304.
// @Tags        Nutritionists
// @Produce     json
//
// @Param       id             path    string  true   "Nutritionist ID (UUID)"  format(uuid)
// @Param       page           query   int     false  "Page number (1-based)"   minimum(1) default(1)
// @Param       per_page       query   int     false  "Items per page"          minimum(1) maximum(100) default(10)
// @Param       locale         query   string  false  "Response language"       Enums(en, fr, pt)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
//
// @Success     200  {object}  handlers.PendingResponse
// @Success     304  "Not Modified"
// @Header      200  {string}  ETag  "Weak validator of the pending set"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Nutritionist not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /nutritionists/{id}/appointments [get]
func (h *Handlers) ListPendingAppointments(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, h.tr(c, "invalid id"), nil)
		return
	}
	ctx := c.Request.Context()
	page, perPage := pageParams(c)

	count, last, err := h.pending.Stats(ctx, id)
	if err != nil {
		h.failService(c, err, byEntity)
		return
	}
	var ts int64
	if last != nil {
		ts = last.UTC().UnixNano()
	}
	// page and per_page are echoed raw; two spellings of the same page
	// simply miss the cache.
	etag := fmt.Sprintf(`W/"pending:%s:%d:%d:%d:%d:%s"`, id, count, ts, page, perPage, locale.Code(h.lang(c)))
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Header("ETag", etag)
		c.Status(http.StatusNotModified)
		return
	}

	items, pg, err := h.pending.List(ctx, id, page, perPage)
	if err != nil {
		h.failService(c, err, byEntity)
		return
	}
	c.Header("ETag", etag)
	ok(c, http.StatusOK, PendingResponse{Appointments: appointmentViews(h.lang(c), items), Pagination: pg})
}
