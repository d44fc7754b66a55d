package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/mtarnavskyi/quiz-webclient/server/authflowrepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type googleOidc struct {
	provider *oidc.Provider
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// getGoogleOidc lazily discovers the provider the first time the flow runs.
func (s *Server) getGoogleOidc(ctx context.Context) (*googleOidc, error) {
	s.googleOidcLock.Lock()
	defer s.googleOidcLock.Unlock()

	if s.googleOidc != nil {
		return s.googleOidc, nil
	}
	if s.config.GetGoogleClientID() == "" {
		return nil, errors.New("[getGoogleOidc] Google client ID not configured")
	}

	provider, err := oidc.NewProvider(ctx, s.config.GetGoogleIssuer())
	if err != nil {
		return nil, errors.Wrap(err, "[getGoogleOidc] provider discovery")
	}

	s.googleOidc = &googleOidc{
		provider: provider,
		config: &oauth2.Config{
			ClientID:     s.config.GetGoogleClientID(),
			ClientSecret: s.config.GetGoogleClientSecret(),
			RedirectURL:  s.config.GetGoogleRedirectURL(),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: s.config.GetGoogleClientID()}),
	}
	return s.googleOidc, nil
}

// GoogleLoginHandler starts the Google OIDC flow.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oidcConfig, err := s.getGoogleOidc(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Google login unavailable")
			http.Error(w, "Google login is not configured", http.StatusNotFound)
			return
		}

		state := generateRandomString(32)
		nonce := generateRandomString(32)
		if err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			Nonce:     nonce,
			ReturnURL: safeReturnPath(r.URL.Query().Get("return")),
			CreatedAt: time.Now(),
		}); err != nil {
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		authURL := oidcConfig.config.AuthCodeURL(state, oidc.Nonce(nonce))
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// GoogleCallbackHandler completes the OAuth entry. Two variants arrive here:
// the backend-driven one already carrying platform access/refresh tokens as
// query params, and the provider-driven one carrying code/state, in which
// case the verified ID token is exchanged with the backend for a platform
// token pair.
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			s.redirectLoginError(w, r, "Authorization failed")
			return
		}

		// Backend-driven variant: tokens minted upstream.
		access := r.URL.Query().Get("access")
		refresh := r.URL.Query().Get("refresh")
		if access != "" && refresh != "" {
			s.finishGoogleLogin(w, r, access, refresh, "")
			return
		}

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		flowState, err := s.authState.Get(state)
		if err != nil || flowState == nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		if err := s.authState.Delete(state); err != nil {
			http.Error(w, "Invalid state parameter", http.StatusInternalServerError)
			return
		}

		oidcConfig, err := s.getGoogleOidc(r.Context())
		if err != nil {
			http.Error(w, "Google login is not configured", http.StatusNotFound)
			return
		}

		oauth2Token, err := oidcConfig.config.Exchange(r.Context(), code)
		if err != nil {
			log.Warn().Err(err).Msg("Google code exchange failed")
			s.redirectLoginError(w, r, "Authorization failed")
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			s.redirectLoginError(w, r, "Authorization failed")
			return
		}

		idToken, err := oidcConfig.verifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			log.Warn().Err(err).Msg("Google ID token verification failed")
			s.redirectLoginError(w, r, "Authorization failed")
			return
		}

		var claims struct {
			Nonce string `json:"nonce"`
		}
		if err := idToken.Claims(&claims); err != nil || claims.Nonce != flowState.Nonce {
			s.redirectLoginError(w, r, "Authorization failed")
			return
		}

		// Swap the verified Google identity for platform tokens.
		access, refresh, err = s.exchangeGoogleToken(r.Context(), rawIDToken)
		if err != nil {
			log.Warn().Err(err).Msg("Backend rejected Google identity")
			s.redirectLoginError(w, r, "Authorization failed")
			return
		}

		s.finishGoogleLogin(w, r, access, refresh, flowState.ReturnURL)
	}
}

func (s *Server) exchangeGoogleToken(ctx context.Context, rawIDToken string) (access, refresh string, err error) {
	resp, err := s.api.Post(ctx, apiclient.TokenGooglePath, map[string]string{"id_token": rawIDToken})
	if err != nil {
		return "", "", errors.Wrap(err, "[exchangeGoogleToken] backend exchange")
	}
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := resp.Decode(&tokens); err != nil {
		return "", "", errors.Wrap(err, "[exchangeGoogleToken] decode tokens")
	}
	return tokens.Access, tokens.Refresh, nil
}

func (s *Server) finishGoogleLogin(w http.ResponseWriter, r *http.Request, access, refresh, returnPath string) {
	if _, err := s.sessions.AuthenticateViaGoogle(r.Context(), access, refresh); err != nil {
		log.Warn().Err(err).Msg("Google authentication failed")
		s.redirectLoginError(w, r, "Authorization failed")
		return
	}
	if returnPath == "" {
		returnPath = "/" + s.locales.Resolve(r, "")
	}
	http.Redirect(w, r, returnPath, http.StatusSeeOther)
}

func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, message string) {
	loc := s.locales.Resolve(r, "")
	target := "/" + loc + RouteLogin + "?error=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeReturnPath accepts only local absolute paths for the post-login
// redirect. Anything else, including protocol-relative "//host" forms, is
// discarded so the callback cannot be steered off-site.
func safeReturnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return ""
	}
	return p
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
