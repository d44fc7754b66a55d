package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/mtarnavskyi/quiz-webclient/credentials"
	fakecredstore "github.com/mtarnavskyi/quiz-webclient/credentials/repofakes"
	"github.com/mtarnavskyi/quiz-webclient/internal/config"
	"github.com/mtarnavskyi/quiz-webclient/internal/utils"
	"github.com/mtarnavskyi/quiz-webclient/locale"
	"github.com/mtarnavskyi/quiz-webclient/platform"
	"github.com/mtarnavskyi/quiz-webclient/server"
	"github.com/mtarnavskyi/quiz-webclient/session"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server  *server.Server
	store   *fakecredstore.FakeStore
	backend *http.ServeMux
}

// newFixture builds the full stack over an httptest backend. When
// authenticated is true the store is seeded before the controller is
// constructed, so the server comes up with an active session.
func newFixture(t *testing.T, authenticated bool) *fixture {
	t.Helper()

	f := &fixture{
		store:   fakecredstore.NewFakeStore(),
		backend: http.NewServeMux(),
	}
	backendServer := httptest.NewServer(f.backend)
	t.Cleanup(backendServer.Close)

	if authenticated {
		require.NoError(t, f.store.Save(credentials.Session{
			Access:  "access-1",
			Refresh: "refresh-1",
			Profile: utils.Ptr(credentials.Profile{ID: 7, Email: "john.doe@example.com"}),
		}))
	}

	api := apiclient.New(backendServer.URL, f.store)
	controller, err := session.NewController(api, f.store)
	require.NoError(t, err)

	srv, err := server.New(config.New(), api, controller, platform.NewService(api), locale.NewResolver(f.store))
	require.NoError(t, err)
	f.server = srv
	return f
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestRootRedirectsToDefaultLocale(t *testing.T) {
	f := newFixture(t, false)

	resp := f.get(t, "/")
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/en", resp.Header().Get("Location"))
}

func TestMissingLocaleIsInjected(t *testing.T) {
	f := newFixture(t, false)

	resp := f.get(t, "/users")
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/en/users", resp.Header().Get("Location"))
}

func TestPersistedLocaleIsInjected(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.store.SaveLocale("ua"))

	resp := f.get(t, "/users")
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/ua/users", resp.Header().Get("Location"))
}

func TestSupportedLocalePathPassesThrough(t *testing.T) {
	f := newFixture(t, false)

	resp := f.get(t, "/ua/about")
	require.Equal(t, http.StatusOK, resp.Code)

	// Navigating persists the applied locale.
	persisted, err := f.store.Locale()
	require.NoError(t, err)
	require.Equal(t, "ua", persisted)
}

func TestProtectedRouteRedirectsAnonymousToLogin(t *testing.T) {
	f := newFixture(t, false)

	resp := f.get(t, "/ua/users")
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/ua/login", resp.Header().Get("Location"))
}

func TestLoginRedirectsAuthenticatedToHome(t *testing.T) {
	f := newFixture(t, true)

	resp := f.get(t, "/en/login")
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/en", resp.Header().Get("Location"))
}

func TestPublicRoutesReachableAnonymously(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/en", "/en/about", "/en/login", "/en/register"} {
		resp := f.get(t, path)
		require.Equal(t, http.StatusOK, resp.Code, "path %s", path)
	}
}

func TestMemberEntersCompanyQuizRoute(t *testing.T) {
	f := newFixture(t, true)
	f.backend.HandleFunc("GET /api/companies/5/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 5, "owner": 1, "members": []int64{7}})
	})
	f.backend.HandleFunc("GET /api/quizzes/9/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 9, "company": 5, "title": "weekly"})
	})

	resp := f.get(t, "/en/companies/5/quizzes/9")
	require.Equal(t, http.StatusOK, resp.Code)

	var page map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Equal(t, "quizProfile", page["route"])
}

func TestNonMemberLandsOnNotFound(t *testing.T) {
	f := newFixture(t, true)
	f.backend.HandleFunc("GET /api/companies/5/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 5, "owner": 1, "members": []int64{}})
	})

	resp := f.get(t, "/en/companies/5/quizzes/9")
	require.Equal(t, http.StatusFound, resp.Code)
	// Existence stays hidden: the redirect targets not-found, not an
	// authorization error page.
	require.Equal(t, "/en/not-found", resp.Header().Get("Location"))
}

func TestMembershipCheckFailureHidesResource(t *testing.T) {
	f := newFixture(t, true)
	f.backend.HandleFunc("GET /api/companies/5/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	resp := f.get(t, "/en/companies/5/quizzes/9")
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/en/not-found", resp.Header().Get("Location"))
}

func TestTrailingSlashIsCanonicalized(t *testing.T) {
	f := newFixture(t, false)

	resp := f.get(t, "/en/about/")
	require.Equal(t, http.StatusMovedPermanently, resp.Code)
	require.Equal(t, "/en/about", resp.Header().Get("Location"))
}

func TestSlashOnlyPathCanonicalizesToRoot(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "//"
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusMovedPermanently, recorder.Code)
	require.Equal(t, "/", recorder.Header().Get("Location"))
}

func TestUnknownLocalizedPathIsNotFound(t *testing.T) {
	f := newFixture(t, true)

	resp := f.get(t, "/en/nonsense")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var page map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Equal(t, "notFound", page["route"])
}
