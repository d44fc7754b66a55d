// Package apiclient wraps outbound calls to the quiz platform REST backend.
// Every request is enriched with the stored access token and runs through an
// inbound recovery pipeline that performs at most one silent refresh-and-retry
// on a 401 before surfacing the failure.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mtarnavskyi/quiz-webclient/credentials"
	apperrors "github.com/mtarnavskyi/quiz-webclient/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend auth endpoints. Errors from the credential-issuance endpoint are
// surfaced immediately and never trigger a refresh.
const (
	TokenCreatePath  = "/api/jwt/create/"
	TokenRefreshPath = "/api/jwt/refresh/"
	TokenGooglePath  = "/api/jwt/google/"
)

const authScheme = "JWT"

// SessionState is the shared observable session the client publishes token
// changes to. It is implemented by the session controller.
type SessionState interface {
	// RefreshToken replaces the access token in shared state.
	RefreshToken(access string)
	// Invalidate forces a logout after a fatal refresh failure.
	Invalidate()
}

// Client issues authenticated requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credentials.Store
	state      SessionState
}

// ClientOption modifies the Client during construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying transport (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client against baseURL, reading tokens from store.
func New(baseURL string, store credentials.Store, options ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		store:      store,
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// BindSessionState attaches the shared session state the client publishes
// refreshed tokens and forced logouts to. The session controller binds
// itself here; until then fatal refresh failures clear the store directly.
func (c *Client) BindSessionState(state SessionState) {
	c.state = state
}

// Response is a completed backend response.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	return json.Unmarshal(r.Body, out)
}

// pendingRequest is one logical outbound call. The retried flag transitions
// false to true at most once; a second 401 after the retry is terminal.
type pendingRequest struct {
	id      string
	method  string
	path    string
	body    any
	retried bool
}

// Do issues one logical request. Paths are resolved against the base URL;
// absolute URLs (paginated "next" links) are used as-is.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	pending := &pendingRequest{
		id:     uuid.New().String(),
		method: method,
		path:   path,
		body:   body,
	}
	return c.send(ctx, pending)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// GetJSON issues a GET request and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) send(ctx context.Context, pending *pendingRequest) (*Response, error) {
	req, err := c.buildRequest(ctx, pending)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] transport")
	}
	body, err := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] read body")
	}

	if httpResp.StatusCode < http.StatusBadRequest {
		return &Response{Status: httpResp.StatusCode, Body: body}, nil
	}

	apiErr := &Error{Status: httpResp.StatusCode, Path: pending.path, Body: body}

	// Bad credentials on the issuance endpoint must never loop into a
	// refresh attempt.
	if pending.path == TokenCreatePath || pending.path == TokenRefreshPath || pending.path == TokenGooglePath {
		return nil, apiErr
	}

	if httpResp.StatusCode == http.StatusUnauthorized && !pending.retried {
		pending.retried = true
		return c.refreshAndRetry(ctx, pending, apiErr)
	}

	return nil, apiErr
}

// refreshAndRetry performs the single silent refresh for a 401 and re-issues
// the original request. Any refresh failure invalidates the session and
// surfaces the original error, never a refresh-specific one.
func (c *Client) refreshAndRetry(ctx context.Context, pending *pendingRequest, original *Error) (*Response, error) {
	access, err := c.refresh(ctx)
	if err != nil {
		log.Warn().
			Str("request_id", pending.id).
			Str("path", pending.path).
			Err(err).
			Msg("Token refresh failed, invalidating session")
		c.invalidate()
		return nil, original
	}

	if err := c.store.UpdateAccessToken(access); err != nil {
		log.Error().Str("request_id", pending.id).Err(err).Msg("Failed to persist refreshed access token")
		c.invalidate()
		return nil, original
	}
	if c.state != nil {
		c.state.RefreshToken(access)
	}

	log.Debug().
		Str("request_id", pending.id).
		Str("path", pending.path).
		Msg("Access token refreshed, retrying request")

	return c.send(ctx, pending)
}

// refresh exchanges the stored refresh token for a new access token. The
// response envelope must expose a non-empty "access" field.
func (c *Client) refresh(ctx context.Context) (string, error) {
	session, err := c.store.Load()
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] load session")
	}
	if session == nil {
		return "", apperrors.ErrNoSession
	}
	if session.Refresh == "" {
		return "", apperrors.ErrNoRefreshToken
	}

	payload, err := json.Marshal(map[string]string{"refresh": session.Refresh})
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+TokenRefreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] transport")
	}
	body, err := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if err != nil {
		return "", errors.Wrap(err, "[Client.refresh] read body")
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return "", errors.Wrapf(apperrors.ErrRefreshRejected, "status %d", httpResp.StatusCode)
	}

	var envelope struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", errors.Wrap(err, "[Client.refresh] decode envelope")
	}
	if envelope.Access == "" {
		return "", apperrors.ErrNoAccessToken
	}
	return envelope.Access, nil
}

func (c *Client) invalidate() {
	if c.state != nil {
		c.state.Invalidate()
		return
	}
	if err := c.store.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear credential store")
	}
}

func (c *Client) buildRequest(ctx context.Context, pending *pendingRequest) (*http.Request, error) {
	url := pending.path
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + pending.path
	}

	var reader io.Reader
	if pending.body != nil {
		payload, err := json.Marshal(pending.body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.buildRequest] marshal body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, pending.method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.buildRequest] new request")
	}
	if pending.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The token is read from durable storage on every attempt so a retry
	// after refresh picks up the replacement.
	session, err := c.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.buildRequest] load session")
	}
	if session != nil && session.Access != "" {
		req.Header.Set("Authorization", authScheme+" "+session.Access)
	}
	return req, nil
}
