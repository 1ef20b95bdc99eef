// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope and the mapping from service
// errors to HTTP results:
//
//	*services.ValidationError   422 validation_failed
//	*services.NotFoundError     404 not_found
//	*services.TransitionError   409 invalid_state_transition
//	anything else               500 internal_error
//
// Creation failures carry field errors keyed by entity so a form can
// attribute them ({"errors": {"guest": {"email": ["is invalid"]}}}); accept
// and reject failures carry a flat list ({"errors": ["..."]}).
package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-nutrition-booking/internal/http/middleware"
	"github.com/tbourn/go-nutrition-booking/internal/locale"
	"github.com/tbourn/go-nutrition-booking/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message in the request language
	Message string `json:"message" example:"appointment not found"`
	// Field errors by entity (creation) or a flat list (decisions)
	Errors any `json:"errors,omitempty" swaggertype:"object"`
}

// errorStyle selects the shape of the "errors" member.
type errorStyle int

const (
	byEntity errorStyle = iota
	flatList
)

// fail aborts the request with a structured error. 5xx responses are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string, errs any) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get(middleware.HeaderRequestID),
		Code:      code,
		Message:   msg,
		Errors:    errs,
	})
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg, nil) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// tr translates key into the request language.
func (h *Handlers) tr(c *gin.Context, key string, args ...any) string {
	return locale.T(h.lang(c), key, args...)
}

func (h *Handlers) lang(c *gin.Context) language.Tag {
	return middleware.LocaleFrom(c, h.fallback)
}

// failService maps a service error onto the envelope.
func (h *Handlers) failService(c *gin.Context, err error, style errorStyle) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		var errs any = map[string]map[string][]string{ve.Entity: h.translateFields(c, ve.Fields)}
		if style == flatList {
			errs = h.flatten(c, ve.Fields)
		}
		fail(c, http.StatusUnprocessableEntity, ErrCodeValidationFailed, h.tr(c, "validation failed"), errs)
	case errors.As(err, &nf):
		msg := h.tr(c, notFoundKey(nf.Entity))
		fail(c, http.StatusNotFound, ErrCodeNotFound, msg, h.listFor(style, msg))
	case errors.Is(err, services.ErrInvalidStateTransition):
		msg := h.tr(c, "appointment is no longer pending")
		fail(c, http.StatusConflict, ErrCodeInvalidStateTransition, msg, h.listFor(style, msg))
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, h.tr(c, "internal server error"), nil)
	}
}

func (h *Handlers) listFor(style errorStyle, msg string) any {
	if style == flatList {
		return []string{msg}
	}
	return nil
}

func (h *Handlers) translateFields(c *gin.Context, fields map[string][]string) map[string][]string {
	out := make(map[string][]string, len(fields))
	for f, msgs := range fields {
		for _, m := range msgs {
			out[f] = append(out[f], h.tr(c, m))
		}
	}
	return out
}

// flatten renders "field message" pairs, fields sorted.
func (h *Handlers) flatten(c *gin.Context, fields map[string][]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		for _, m := range fields[k] {
			out = append(out, k+" "+h.tr(c, m))
		}
	}
	return out
}

func notFoundKey(entity string) string {
	switch entity {
	case services.EntityNutritionistService:
		return "nutritionist service not found"
	case services.EntityNutritionist:
		return "nutritionist not found"
	default:
		return "appointment not found"
	}
}
