package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/mtarnavskyi/quiz-webclient/credentials"
	fakecredstore "github.com/mtarnavskyi/quiz-webclient/credentials/repofakes"
	"github.com/stretchr/testify/require"
)

const (
	testAccessToken   = "access-token-1"
	testRefreshToken  = "refresh-token-1"
	refreshedToken    = "access-token-2"
	testPayload       = `{"ok":true}`
	testProtectedPath = "/api/quizzes/1/"
)

type testBackend struct {
	mux          *http.ServeMux
	server       *httptest.Server
	refreshCalls atomic.Int64
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	backend := &testBackend{mux: http.NewServeMux()}
	backend.server = httptest.NewServer(backend.mux)
	t.Cleanup(backend.server.Close)
	return backend
}

// serveRefresh registers a refresh endpoint answering with the supplied
// envelope and status.
func (tb *testBackend) serveRefresh(t *testing.T, status int, envelope map[string]string) {
	t.Helper()
	tb.mux.HandleFunc("POST "+apiclient.TokenRefreshPath, func(w http.ResponseWriter, r *http.Request) {
		tb.refreshCalls.Add(1)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, testRefreshToken, body["refresh"])

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(envelope)
	})
}

func storeWithSession(t *testing.T) *fakecredstore.FakeStore {
	t.Helper()
	store := fakecredstore.NewFakeStore()
	require.NoError(t, store.Save(credentials.Session{
		Access:  testAccessToken,
		Refresh: testRefreshToken,
		Profile: &credentials.Profile{ID: 1, Email: "john.doe@example.com"},
	}))
	return store
}

func TestAuthorizationHeaderUsesStoredToken(t *testing.T) {
	backend := newTestBackend(t)
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "JWT "+testAccessToken, r.Header.Get("Authorization"))
		w.Write([]byte(testPayload))
	})

	client := apiclient.New(backend.server.URL, storeWithSession(t))
	resp, err := client.Get(context.Background(), testProtectedPath)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.JSONEq(t, testPayload, string(resp.Body))
}

func TestNoAuthorizationHeaderWhenAnonymous(t *testing.T) {
	backend := newTestBackend(t)
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(testPayload))
	})

	client := apiclient.New(backend.server.URL, fakecredstore.NewFakeStore())
	_, err := client.Get(context.Background(), testProtectedPath)
	require.NoError(t, err)
}

func TestUnauthorizedTriggersSingleRefreshAndRetry(t *testing.T) {
	backend := newTestBackend(t)
	backend.serveRefresh(t, http.StatusOK, map[string]string{"access": refreshedToken})

	var calls atomic.Int64
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// The retried request must carry the refreshed token.
		require.Equal(t, "JWT "+refreshedToken, r.Header.Get("Authorization"))
		w.Write([]byte(testPayload))
	})

	store := storeWithSession(t)
	client := apiclient.New(backend.server.URL, store)

	resp, err := client.Get(context.Background(), testProtectedPath)
	require.NoError(t, err)
	// The caller sees the original endpoint's payload, not the refresh one.
	require.JSONEq(t, testPayload, string(resp.Body))
	require.EqualValues(t, 1, backend.refreshCalls.Load())

	session, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, refreshedToken, session.Access)
	require.Equal(t, testRefreshToken, session.Refresh)
}

func TestSecondUnauthorizedAfterRetryIsTerminal(t *testing.T) {
	backend := newTestBackend(t)
	backend.serveRefresh(t, http.StatusOK, map[string]string{"access": refreshedToken})
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	store := storeWithSession(t)
	client := apiclient.New(backend.server.URL, store)

	_, err := client.Get(context.Background(), testProtectedPath)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	require.EqualValues(t, 1, backend.refreshCalls.Load())
}

func TestRefreshWithoutAccessFieldClearsSession(t *testing.T) {
	backend := newTestBackend(t)
	backend.serveRefresh(t, http.StatusOK, map[string]string{})
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	store := storeWithSession(t)
	client := apiclient.New(backend.server.URL, store)

	_, err := client.Get(context.Background(), testProtectedPath)
	require.Error(t, err)
	// The caller observes the original 401, not a refresh-specific error.
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))

	session, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.Nil(t, session)
}

func TestRefreshFailureClearsSession(t *testing.T) {
	backend := newTestBackend(t)
	backend.serveRefresh(t, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	store := storeWithSession(t)
	client := apiclient.New(backend.server.URL, store)

	_, err := client.Get(context.Background(), testProtectedPath)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))

	session, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.Nil(t, session)
}

func TestCredentialIssuanceErrorsAreNeverRefreshed(t *testing.T) {
	backend := newTestBackend(t)
	backend.serveRefresh(t, http.StatusOK, map[string]string{"access": refreshedToken})
	backend.mux.HandleFunc("POST "+apiclient.TokenCreatePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	store := storeWithSession(t)
	client := apiclient.New(backend.server.URL, store)

	_, err := client.Post(context.Background(), apiclient.TokenCreatePath, map[string]string{
		"email":    "john.doe@example.com",
		"password": "wrong",
	})
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	require.EqualValues(t, 0, backend.refreshCalls.Load())

	// Bad login credentials must not destroy an existing session.
	session, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.NotNil(t, session)
}

func TestNonUnauthorizedErrorsPassThrough(t *testing.T) {
	backend := newTestBackend(t)
	backend.serveRefresh(t, http.StatusOK, map[string]string{"access": refreshedToken})
	backend.mux.HandleFunc("GET "+testProtectedPath, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := apiclient.New(backend.server.URL, storeWithSession(t))
	_, err := client.Get(context.Background(), testProtectedPath)
	require.Error(t, err)
	require.Equal(t, http.StatusInternalServerError, apiclient.StatusCode(err))
	require.EqualValues(t, 0, backend.refreshCalls.Load())
}

func TestAbsoluteURLsAreUsedAsIs(t *testing.T) {
	backend := newTestBackend(t)
	backend.mux.HandleFunc("GET /api/users/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPayload))
	})

	client := apiclient.New("http://unreachable.invalid", storeWithSession(t))
	resp, err := client.Get(context.Background(), backend.server.URL+"/api/users/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
}
