// Package locale resolves the language of a request and translates the
// user-facing strings of the booking API and its e-mails.
//
// The selected language travels explicitly in a context.Context (WithTag /
// FromContext) so that nothing in the process holds per-request locale
// state. Translations live in the golang.org/x/text message catalog and are
// keyed by their English text or by a dotted label key.
package locale

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported lists the available languages; the first entry is the
// fallback used by the matcher.
var Supported = []language.Tag{
	language.English,
	language.French,
	language.Portuguese,
}

var matcher = language.NewMatcher(Supported)

// Codes returns the two-letter codes of the supported languages.
func Codes() []string {
	out := make([]string, 0, len(Supported))
	for _, t := range Supported {
		out = append(out, Code(t))
	}
	return out
}

// Code returns the base language code of t, e.g. "pt" for pt-BR.
func Code(t language.Tag) string {
	base, _ := t.Base()
	return base.String()
}

// Parse maps a code such as "fr" or "pt-PT" onto a supported tag. It
// reports false when the code is malformed or unsupported.
func Parse(code string) (language.Tag, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.Und, false
	}
	t, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return language.Und, false
	}
	return Supported[idx], true
}

// Resolve picks the language for a request. An explicit code (the ?locale=
// parameter) wins; otherwise the Accept-Language header is matched; when
// neither yields a supported language, fallback is returned.
func Resolve(explicit, acceptLanguage string, fallback language.Tag) language.Tag {
	if t, ok := Parse(explicit); ok {
		return t
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return Supported[idx]
			}
		}
	}
	return fallback
}

type ctxKey struct{}

// WithTag returns a copy of ctx carrying t.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the tag stored by WithTag, if any.
func FromContext(ctx context.Context) (language.Tag, bool) {
	t, ok := ctx.Value(ctxKey{}).(language.Tag)
	return t, ok
}

// FromContextOr returns the context tag or fallback.
func FromContextOr(ctx context.Context, fallback language.Tag) language.Tag {
	if t, ok := FromContext(ctx); ok {
		return t
	}
	return fallback
}

// T translates key into t's language, formatting args like fmt.Sprintf.
// Unknown keys are used verbatim as the format string.
func T(t language.Tag, key string, args ...any) string {
	return message.NewPrinter(t).Sprintf(key, args...)
}
