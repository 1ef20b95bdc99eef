// Service metadata handlers: locales, liveness and readiness.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-nutrition-booking/internal/http/middleware"
	"github.com/tbourn/go-nutrition-booking/internal/locale"
)

const readyTimeout = 2 * time.Second

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status string            `json:"status"           example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Locales godoc
// @ID          listLocales
// @Summary     Supported languages
// @Description Lists the languages responses can be rendered in and the one chosen for this request (?locale= wins over Accept-Language).
// @Tags        Meta
// @Produce     json
// @Param       locale  query  string  false  "Response language"  Enums(en, fr, pt)
// @Success     200  {object}  handlers.LocalesResponse
// @Router      /locales [get]
func (h *Handlers) Locales(c *gin.Context) {
	ok(c, http.StatusOK, LocalesResponse{
		AvailableLocales: locale.Codes(),
		CurrentLocale:    locale.Code(h.lang(c)),
	})
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready godoc
// @ID          ready
// @Summary     Readiness probe
// @Description Pings the database and, when configured, the notification broker.
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     503  {object}  handlers.HealthResponse
// @Router      /ready [get]
func (h *Handlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("check", chk.Name).Msg("readiness check failed")
			resp.Checks[chk.Name] = "down"
			resp.Status = ErrCodeUnavailable
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[chk.Name] = "ok"
	}
	c.JSON(status, resp)
}
