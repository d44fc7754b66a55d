package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/mtarnavskyi/quiz-webclient/locale"
	"github.com/mtarnavskyi/quiz-webclient/session"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyLocale stores the resolved locale for the navigation
const ContextKeyLocale ContextKey = "locale"

// routeClass partitions routes for the auth gate.
type routeClass int

const (
	routeProtected     routeClass = iota // default: active session required
	routePublic                          // no session required
	routeAnonymousOnly                   // session must be absent
)

// localeExempt reports whether the path sits outside the locale prefix.
// The OAuth entry points do, because the provider redirect URL is fixed.
func localeExempt(path string) bool {
	return strings.HasPrefix(path, RouteGoogleLogin)
}

// classifyRoute maps the locale-stripped path to its route class.
func classifyRoute(rest string) routeClass {
	rest = strings.TrimSuffix(rest, "/")
	switch rest {
	case RouteHome, RouteAbout, RouteNotFound:
		return routePublic
	case RouteLogin, RouteRegister:
		return routeAnonymousOnly
	}
	if strings.HasPrefix(rest, RouteGoogleLogin) {
		return routeAnonymousOnly
	}
	return routeProtected
}

// LocaleMiddleware resolves the locale segment before matching continues.
// A missing or unsupported segment triggers a redirect that injects the
// resolved locale into the path; resolution on an already-prefixed
// supported path is a pass-through, so it is idempotent.
func (s *Server) LocaleMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if localeExempt(path) {
			next(w, r)
			return
		}

		// Canonical paths carry no trailing slash except the root. A path
		// of only slashes trims down to the root itself.
		if path != "/" && strings.HasSuffix(path, "/") {
			target := strings.TrimRight(path, "/")
			if target == "" {
				target = "/"
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}

		code, _, ok := locale.SplitPath(path)
		if !ok {
			resolved := s.locales.Resolve(r, "")
			target := "/" + resolved
			if path != "/" {
				target += path
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		s.locales.Persist(code)
		ctx := context.WithValue(r.Context(), ContextKeyLocale, code)
		next(w, r.WithContext(ctx))
	}
}

// AuthGateMiddleware enforces the route classes after locale resolution.
func (s *Server) AuthGateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rest := path
		if !localeExempt(path) {
			_, rest, _ = locale.SplitPath(path)
		}

		loc := localeFromContext(r.Context())
		authenticated := s.sessions.Current().State == session.Authenticated

		switch classifyRoute(rest) {
		case routeAnonymousOnly:
			if authenticated {
				http.Redirect(w, r, "/"+loc, http.StatusFound)
				return
			}
		case routePublic:
			// always reachable
		default:
			if !authenticated {
				http.Redirect(w, r, "/"+loc+RouteLogin, http.StatusFound)
				return
			}
		}
		next(w, r)
	}
}

// RequireCompanyMembership guards company-nested quiz routes with an
// asynchronous membership check. Non-members land on the not-found route so
// the resource's existence stays hidden; backend failures are treated the
// same way.
func (s *Server) RequireCompanyMembership() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			loc := localeFromContext(r.Context())

			companyID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
			if err != nil {
				http.Redirect(w, r, "/"+loc+RouteNotFound, http.StatusFound)
				return
			}

			var userID int64
			if snapshot := s.sessions.Current(); snapshot.Session != nil && snapshot.Session.Profile != nil {
				userID = snapshot.Session.Profile.ID
			}

			member, err := s.platform.IsMember(r.Context(), companyID, userID)
			if err != nil {
				log.Warn().Err(err).Int64("company_id", companyID).Msg("Membership check failed")
			}
			if !member {
				http.Redirect(w, r, "/"+loc+RouteNotFound, http.StatusFound)
				return
			}

			next(w, r)
		}
	}
}

func localeFromContext(ctx context.Context) string {
	if code, ok := ctx.Value(ContextKeyLocale).(string); ok && code != "" {
		return code
	}
	return locale.DefaultLocale
}
