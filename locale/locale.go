// Package locale resolves the active locale for a navigation from the URL
// segment, the persisted preference or the default, in that order.
package locale

import (
	"net/http"
	"strings"

	"github.com/mtarnavskyi/quiz-webclient/credentials"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// DefaultLocale is used when neither the URL nor the persisted preference
// carries a supported locale.
const DefaultLocale = "en"

// Locale codes as they appear in URL path segments and the persisted
// preference record. "ua" is the platform's historical code for Ukrainian.
var supportedCodes = []string{"en", "ua"}

var supportedTags = []language.Tag{language.English, language.Ukrainian}

var matcher = language.NewMatcher(supportedTags)

// Resolver decides the locale for each navigation and persists the choice.
type Resolver struct {
	store credentials.Store
}

func NewResolver(store credentials.Store) *Resolver {
	return &Resolver{store: store}
}

// Supported returns the supported locale codes.
func Supported() []string {
	codes := make([]string, len(supportedCodes))
	copy(codes, supportedCodes)
	return codes
}

// IsSupported reports whether code is a supported locale.
func IsSupported(code string) bool {
	for _, supported := range supportedCodes {
		if code == supported {
			return true
		}
	}
	return false
}

// SplitPath separates the leading locale segment from the rest of the path.
// ok is false when the first segment is not a supported locale; rest always
// keeps its leading slash.
func SplitPath(path string) (code, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, remainder, _ := strings.Cut(trimmed, "/")
	if !IsSupported(segment) {
		return "", path, false
	}
	return segment, "/" + remainder, true
}

// Resolve returns the locale for a navigation. A supported explicit segment
// wins; otherwise the persisted preference, then the request's
// Accept-Language, then the default. The result is always supported.
func (r *Resolver) Resolve(req *http.Request, segment string) string {
	if IsSupported(segment) {
		return segment
	}
	if persisted := r.persisted(); persisted != "" {
		return persisted
	}
	if req != nil {
		if guessed := guessFromAcceptLanguage(req.Header.Get("Accept-Language")); guessed != "" {
			return guessed
		}
	}
	return DefaultLocale
}

// Persist records code as the last-used locale. Unsupported codes are
// dropped rather than persisted.
func (r *Resolver) Persist(code string) {
	if !IsSupported(code) {
		return
	}
	if err := r.store.SaveLocale(code); err != nil {
		log.Error().Err(err).Str("locale", code).Msg("Failed to persist locale")
	}
}

func (r *Resolver) persisted() string {
	code, err := r.store.Locale()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read persisted locale")
		return ""
	}
	if !IsSupported(code) {
		return ""
	}
	return code
}

func guessFromAcceptLanguage(accept string) string {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return ""
	}
	preferred, _, err := language.ParseAcceptLanguage(accept)
	if err != nil {
		return ""
	}
	_, index, confidence := matcher.Match(preferred...)
	if confidence == language.No {
		return ""
	}
	return supportedCodes[index]
}
