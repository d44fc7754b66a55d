package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	apperrors "github.com/mtarnavskyi/quiz-webclient/internal/errors"
	"github.com/mtarnavskyi/quiz-webclient/internal/utils"
	"github.com/mtarnavskyi/quiz-webclient/platform"
	"github.com/mtarnavskyi/quiz-webclient/session"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// The view layer is intentionally minimal: handlers expose the page model
// as JSON and leave rendering to whatever front end sits on top.

func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.sessions.Current()
		page := map[string]any{
			"route":  "home",
			"locale": localeFromContext(r.Context()),
			"state":  snapshot.State.String(),
		}
		if snapshot.Session != nil && snapshot.Session.Profile != nil {
			page["email"] = snapshot.Session.Profile.Email
			if claims, err := session.TokenClaims(snapshot.Session.Access); err == nil && claims.ExpiresAt != nil {
				page["token_expires_at"] = claims.ExpiresAt.Format(time.RFC3339)
			}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) AboutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"route":  "about",
			"locale": localeFromContext(r.Context()),
			"name":   s.config.GetAppName(),
		})
	}
}

func (s *Server) UsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, total, err := s.platform.Users(r.Context())
		if err != nil {
			// Read-oriented collaborators degrade to an empty result.
			users, total = []platform.User{}, 0
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"route": "usersList",
			"users": users,
			"count": total,
		})
	}
}

func (s *Server) UserProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.redirectNotFound(w, r)
			return
		}
		// On lookup failure utils.Value yields the zero profile and the
		// page renders empty.
		user, _ := s.platform.UserByID(r.Context(), id)
		writeJSON(w, http.StatusOK, map[string]any{
			"route": "userProfile",
			"user":  utils.Value(user),
		})
	}
}

func (s *Server) CompaniesListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"route":  "companiesList",
			"locale": localeFromContext(r.Context()),
		})
	}
}

func (s *Server) CompanyProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.redirectNotFound(w, r)
			return
		}
		company, _ := s.platform.CompanyByID(r.Context(), id)
		writeJSON(w, http.StatusOK, map[string]any{
			"route":   "companyProfile",
			"company": utils.Value(company),
		})
	}
}

func (s *Server) CompanyQuizzesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.redirectNotFound(w, r)
			return
		}
		quizzes, err := s.platform.CompanyQuizzes(r.Context(), id)
		if err != nil {
			quizzes = []platform.Quiz{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"route":   "companyQuizzes",
			"quizzes": quizzes,
		})
	}
}

func (s *Server) QuizProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := strconv.ParseInt(r.PathValue("quizID"), 10, 64)
		if err != nil {
			s.redirectNotFound(w, r)
			return
		}
		quiz, _ := s.platform.QuizByID(r.Context(), quizID)
		writeJSON(w, http.StatusOK, map[string]any{
			"route": "quizProfile",
			"quiz":  utils.Value(quiz),
		})
	}
}

func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"route":  "login",
			"locale": localeFromContext(r.Context()),
			"error":  r.URL.Query().Get("error"),
		})
	}
}

func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := decodeCredentials(r)
		if err != nil {
			http.Error(w, "Invalid login payload", http.StatusBadRequest)
			return
		}

		if _, err := s.sessions.Login(r.Context(), creds); err != nil {
			log.Warn().Err(err).Str("email", creds.Email).Msg("Login failed")
			message := "Login failed"
			if apperrors.Is(err, apperrors.ErrInvalidCredentials) ||
				apiclient.StatusCode(err) == http.StatusUnauthorized {
				message = "Invalid credentials"
			}
			loc := localeFromContext(r.Context())
			http.Redirect(w, r, "/"+loc+RouteLogin+"?error="+url.QueryEscape(message), http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, "/"+localeFromContext(r.Context()), http.StatusSeeOther)
	}
}

func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"route":  "register",
			"locale": localeFromContext(r.Context()),
			"error":  r.URL.Query().Get("error"),
		})
	}
}

func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := decodeCredentials(r)
		if err != nil {
			http.Error(w, "Invalid registration payload", http.StatusBadRequest)
			return
		}

		loc := localeFromContext(r.Context())
		if _, err := s.sessions.Register(r.Context(), creds); err != nil {
			log.Warn().Err(err).Str("email", creds.Email).Msg("Registration failed")
			http.Redirect(w, r, "/"+loc+RouteRegister+"?error=Registration+failed", http.StatusSeeOther)
			return
		}

		// Account created; the user still has to log in.
		http.Redirect(w, r, "/"+loc+RouteLogin, http.StatusSeeOther)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Logout()
		http.Redirect(w, r, "/"+localeFromContext(r.Context())+RouteLogin, http.StatusSeeOther)
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"route":  "notFound",
			"locale": localeFromContext(r.Context()),
		})
	}
}

func (s *Server) redirectNotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+localeFromContext(r.Context())+RouteNotFound, http.StatusFound)
}

// decodeCredentials accepts either a JSON body or a form submission.
func decodeCredentials(r *http.Request) (session.Credentials, error) {
	var creds session.Credentials
	contentType := r.Header.Get("Content-Type")
	if contentType == "application/json" || contentType == contentTypeJSON {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return session.Credentials{}, err
		}
		return creds, nil
	}
	if err := r.ParseForm(); err != nil {
		return session.Credentials{}, err
	}
	creds.Email = r.FormValue("email")
	creds.Password = r.FormValue("password")
	return creds, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
