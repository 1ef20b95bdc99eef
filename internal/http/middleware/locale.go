// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the request language. The ?locale= query parameter
// wins over Accept-Language; anything unsupported falls back to the
// configured default. The chosen tag is stored in the request
// context.Context, never in process-wide state, and echoed in
// Content-Language.
package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-nutrition-booking/internal/locale"
)

// Locale returns the language-resolution middleware.
func Locale(fallback language.Tag) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag := locale.Resolve(c.Query("locale"), c.GetHeader("Accept-Language"), fallback)
		c.Request = c.Request.WithContext(locale.WithTag(c.Request.Context(), tag))
		c.Header("Content-Language", locale.Code(tag))
		c.Next()
	}
}

// LocaleFrom returns the request language, or fallback before Locale ran.
func LocaleFrom(c *gin.Context, fallback language.Tag) language.Tag {
	return locale.FromContextOr(c.Request.Context(), fallback)
}
