// Package session owns the login/logout lifecycle and mirrors the stored
// session into an explicit observable that guards and the view layer
// subscribe to. The credential store stays the single source of truth; the
// controller only holds a read-through copy.
package session

import (
	"context"
	"sync"

	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/mtarnavskyi/quiz-webclient/credentials"
	apperrors "github.com/mtarnavskyi/quiz-webclient/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const currentUserPath = "/api/users/me/"
const registerPath = "/api/users/"

// Credentials is an email/password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Snapshot is one published view of the session state.
type Snapshot struct {
	State   State
	Session *credentials.Session
}

// Controller drives the Anonymous -> Authenticating -> Authenticated state
// machine and publishes every transition to its subscribers.
type Controller struct {
	client *apiclient.Client
	creds  credentials.Store

	mu          sync.Mutex
	state       State
	session     *credentials.Session
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

var _ apiclient.SessionState = (*Controller)(nil)

// NewController builds a Controller over its dependencies and binds itself
// to the client as the shared session state. The initial state is read from
// the credential store, so a restart with a persisted session comes up
// Authenticated.
func NewController(client *apiclient.Client, creds credentials.Store) (*Controller, error) {
	if client == nil {
		return nil, errors.New("[NewController] client is required")
	}
	if creds == nil {
		return nil, errors.New("[NewController] credential store is required")
	}

	controller := &Controller{
		client:      client,
		creds:       creds,
		subscribers: make(map[int]func(Snapshot)),
	}

	stored, err := creds.Load()
	if err != nil {
		return nil, errors.Wrap(err, "[NewController] load stored session")
	}
	if !stored.Anonymous() {
		controller.state = Authenticated
		controller.session = stored
	}

	client.BindSessionState(controller)
	return controller, nil
}

// Current returns the latest snapshot.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Session: c.session}
}

// Subscribe registers fn for every future transition and returns an
// unsubscribe function.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Login exchanges credentials for a token pair, fetches the owning profile
// and transitions to Authenticated. Any failure clears partial session
// artifacts, returns to Anonymous and propagates the failure.
func (c *Controller) Login(ctx context.Context, creds Credentials) (*credentials.Session, error) {
	c.setState(Authenticating, nil)

	resp, err := c.client.Post(ctx, apiclient.TokenCreatePath, creds)
	if err != nil {
		c.setState(Anonymous, nil)
		return nil, errors.Wrap(err, "[Controller.Login] credential issuance")
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := resp.Decode(&tokens); err != nil {
		c.setState(Anonymous, nil)
		return nil, errors.Wrap(err, "[Controller.Login] decode token response")
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		c.setState(Anonymous, nil)
		return nil, apperrors.ErrInvalidCredentials
	}

	session, err := c.completeLogin(ctx, tokens.Access, tokens.Refresh)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Login] complete login")
	}
	return session, nil
}

// AuthenticateViaGoogle enters the authenticated state from an external
// OAuth callback that already carries a platform token pair. Same success
// post-condition as Login.
func (c *Controller) AuthenticateViaGoogle(ctx context.Context, access, refresh string) (*credentials.Session, error) {
	if access == "" || refresh == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	c.setState(Authenticating, nil)

	session, err := c.completeLogin(ctx, access, refresh)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.AuthenticateViaGoogle] complete login")
	}
	return session, nil
}

// completeLogin persists the token pair, fetches the profile with the fresh
// access token and merges both into the stored session.
func (c *Controller) completeLogin(ctx context.Context, access, refresh string) (*credentials.Session, error) {
	// Persist tokens first so the profile fetch carries the new access
	// token and a refresh is possible if it races expiry.
	if err := c.creds.Save(credentials.Session{Access: access, Refresh: refresh}); err != nil {
		c.setState(Anonymous, nil)
		return nil, errors.Wrap(err, "save token pair")
	}

	var profile credentials.Profile
	if err := c.client.GetJSON(ctx, currentUserPath, &profile); err != nil {
		c.clearPartialSession()
		return nil, errors.Wrap(err, "fetch current user")
	}

	session := credentials.Session{Access: access, Refresh: refresh, Profile: &profile}
	if err := c.creds.Save(session); err != nil {
		c.clearPartialSession()
		return nil, errors.Wrap(err, "save session")
	}

	c.setState(Authenticated, &session)
	log.Info().Str("email", profile.Email).Msg("Session authenticated")
	return &session, nil
}

// Register creates an account through the side channel. It never
// authenticates: the state is at Anonymous on both outcomes and the created
// account (or the failure) goes back to the caller.
func (c *Controller) Register(ctx context.Context, creds Credentials) (*credentials.Profile, error) {
	defer c.setState(Anonymous, nil)

	resp, err := c.client.Post(ctx, registerPath, creds)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Register] create account")
	}
	var account credentials.Profile
	if err := resp.Decode(&account); err != nil {
		return nil, errors.Wrap(err, "[Controller.Register] decode account")
	}
	return &account, nil
}

// Logout unconditionally clears the credential store and shared state.
// Idempotent.
func (c *Controller) Logout() {
	if err := c.creds.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear credential store on logout")
	}
	c.setState(Anonymous, nil)
}

// RefreshToken replaces the access token in shared state and storage
// without touching the profile or refresh token. Only valid while
// Authenticated; it implements apiclient.SessionState.
func (c *Controller) RefreshToken(access string) {
	c.mu.Lock()
	if c.state != Authenticated || c.session == nil {
		c.mu.Unlock()
		return
	}
	updated := *c.session
	updated.Access = access
	c.session = &updated
	snapshot := Snapshot{State: c.state, Session: c.session}
	subs := c.copySubscribers()
	c.mu.Unlock()

	if err := c.creds.UpdateAccessToken(access); err != nil {
		log.Error().Err(err).Msg("Failed to persist refreshed access token")
	}
	for _, fn := range subs {
		fn(snapshot)
	}
}

// Invalidate implements apiclient.SessionState: a fatal refresh failure
// terminates in a cleared session.
func (c *Controller) Invalidate() {
	c.Logout()
}

func (c *Controller) clearPartialSession() {
	if err := c.creds.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear partial session")
	}
	c.setState(Anonymous, nil)
}

func (c *Controller) setState(state State, session *credentials.Session) {
	c.mu.Lock()
	c.state = state
	c.session = session
	snapshot := Snapshot{State: state, Session: session}
	subs := c.copySubscribers()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (c *Controller) copySubscribers() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
