package locale_test

import (
	"net/http/httptest"
	"testing"

	fakecredstore "github.com/mtarnavskyi/quiz-webclient/credentials/repofakes"
	"github.com/mtarnavskyi/quiz-webclient/locale"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
		rest string
		ok   bool
	}{
		{name: "supported locale with rest", path: "/en/users/1", code: "en", rest: "/users/1", ok: true},
		{name: "supported locale alone", path: "/ua", code: "ua", rest: "/", ok: true},
		{name: "missing locale", path: "/users/1", rest: "/users/1", ok: false},
		{name: "unsupported locale", path: "/de/users", rest: "/de/users", ok: false},
		{name: "root", path: "/", rest: "/", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, rest, ok := locale.SplitPath(tc.path)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.code, code)
			require.Equal(t, tc.rest, rest)
		})
	}
}

func TestResolveExplicitSegmentWins(t *testing.T) {
	store := fakecredstore.NewFakeStore()
	require.NoError(t, store.SaveLocale("en"))
	resolver := locale.NewResolver(store)

	req := httptest.NewRequest("GET", "/ua/users", nil)
	require.Equal(t, "ua", resolver.Resolve(req, "ua"))
}

func TestResolveIsIdempotent(t *testing.T) {
	resolver := locale.NewResolver(fakecredstore.NewFakeStore())
	req := httptest.NewRequest("GET", "/en/users", nil)

	first := resolver.Resolve(req, "en")
	require.Equal(t, first, resolver.Resolve(req, first))
}

func TestResolveFallsBackToPersistedPreference(t *testing.T) {
	store := fakecredstore.NewFakeStore()
	require.NoError(t, store.SaveLocale("ua"))
	resolver := locale.NewResolver(store)

	req := httptest.NewRequest("GET", "/users", nil)
	require.Equal(t, "ua", resolver.Resolve(req, ""))
}

func TestResolveIgnoresUnsupportedPersistedPreference(t *testing.T) {
	store := fakecredstore.NewFakeStore()
	require.NoError(t, store.SaveLocale("de"))
	resolver := locale.NewResolver(store)

	req := httptest.NewRequest("GET", "/users", nil)
	require.Equal(t, locale.DefaultLocale, resolver.Resolve(req, ""))
}

func TestResolveGuessesFromAcceptLanguage(t *testing.T) {
	resolver := locale.NewResolver(fakecredstore.NewFakeStore())

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Accept-Language", "uk-UA,uk;q=0.9,en;q=0.5")
	require.Equal(t, "ua", resolver.Resolve(req, ""))
}

func TestResolveDefaultsWhenNothingMatches(t *testing.T) {
	resolver := locale.NewResolver(fakecredstore.NewFakeStore())

	req := httptest.NewRequest("GET", "/users", nil)
	require.Equal(t, locale.DefaultLocale, resolver.Resolve(req, ""))
}

func TestPersistDropsUnsupportedCodes(t *testing.T) {
	store := fakecredstore.NewFakeStore()
	resolver := locale.NewResolver(store)

	resolver.Persist("de")
	persisted, err := store.Locale()
	require.NoError(t, err)
	require.Empty(t, persisted)

	resolver.Persist("ua")
	persisted, err = store.Locale()
	require.NoError(t, err)
	require.Equal(t, "ua", persisted)
}
