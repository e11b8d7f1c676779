package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/api"
	"github.com/chaitanya-699/url-shortener/internal/domain"
	"github.com/chaitanya-699/url-shortener/internal/storage"
	"github.com/chaitanya-699/url-shortener/internal/validate"
)

// Session errors.
var (
	ErrAuthenticated = errors.New("session is authenticated") // guest operations need an unauthenticated session
	ErrExpiredToken  = errors.New("token is expired")
)

const defaultAuthCheckTimeout = 10 * time.Second

// State is the session lifecycle phase.
type State int

const (
	Initializing State = iota
	Anonymous
	Guest
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Guest:
		return "guest"
	case Authenticated:
		return "authenticated"
	default:
		return "initializing"
	}
}

// Store owns the session identity and its persisted keys. It starts in
// Initializing and settles after Init; every later transition is local,
// with login/logout network calls affecting only the returned message.
type Store struct {
	mu               sync.Mutex
	state            State
	identity         domain.Identity
	api              *api.Client
	storage          *storage.Adapter
	logger           *zap.Logger
	subscribers      []func(domain.Identity)
	authCheckTimeout time.Duration
	demo             bool
}

// Option configures the session store.
type Option func(*Store)

// WithAuthCheckTimeout bounds the single identity-resolution call at startup.
func WithAuthCheckTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.authCheckTimeout = d
	}
}

// WithDemoMode runs the session without a backend: the signed-in user is
// kept under its own storage key and no network calls are made.
func WithDemoMode() Option {
	return func(s *Store) {
		s.demo = true
	}
}

// New creates a session store over the given client and storage adapter.
func New(client *api.Client, adapter *storage.Adapter, logger *zap.Logger, options ...Option) *Store {
	s := &Store{
		state:            Initializing,
		identity:         domain.Anonymous(),
		api:              client,
		storage:          adapter,
		logger:           logger,
		authCheckTimeout: defaultAuthCheckTimeout,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// State returns the current lifecycle phase.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the current session actor.
func (s *Store) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Subscribe registers a callback invoked after every identity transition.
func (s *Store) Subscribe(fn func(domain.Identity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) transition(state State, identity domain.Identity) {
	s.mu.Lock()
	s.state = state
	s.identity = identity
	subscribers := make([]func(domain.Identity), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(identity)
	}
}

// Init resolves the startup identity. It makes exactly one bounded network
// call; any transport failure degrades to the stored-guest or anonymous
// fallback, never to an error state.
func (s *Store) Init(ctx context.Context) {
	if s.demo {
		var user domain.User
		if s.storage.Read(ctx, domain.CurrentUserKey, &user) && user.ID != "" {
			s.transition(Authenticated, domain.AsUser(user))
			return
		}
		s.fallback(ctx)
		return
	}

	var token string
	if s.storage.Read(ctx, domain.AuthTokenKey, &token) && token != "" {
		s.api.SetAuthToken(token)
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.authCheckTimeout)
	defer cancel()

	user, err := s.api.Me(checkCtx)
	if err != nil {
		s.logger.Debug("auth check failed, falling back", zap.Error(err))
		s.fallback(ctx)
		return
	}

	if user == nil {
		s.fallback(ctx)
		return
	}

	// An authenticated session supersedes any stored guest id.
	s.storage.Remove(ctx, domain.GuestIDKey)
	s.persistToken(ctx)
	s.transition(Authenticated, domain.AsUser(*user))
}

func (s *Store) fallback(ctx context.Context) {
	var guestID string
	if s.storage.Read(ctx, domain.GuestIDKey, &guestID) && domain.IsGuestID(guestID) {
		s.transition(Guest, domain.AsGuest(guestID))
		return
	}
	s.transition(Anonymous, domain.Anonymous())
}

func (s *Store) persistToken(ctx context.Context) {
	if token := s.api.AuthToken(); token != "" {
		s.storage.Write(ctx, domain.AuthTokenKey, token)
	}
}

// Login enters the Authenticated state with the given user. Any persisted
// guest id is cleared: it is superseded, not kept for later.
func (s *Store) Login(ctx context.Context, user domain.User) {
	s.storage.Remove(ctx, domain.GuestIDKey)

	if s.demo {
		s.storage.Write(ctx, domain.CurrentUserKey, user)
	} else {
		s.persistToken(ctx)
	}

	s.transition(Authenticated, domain.AsUser(user))
}

// SignIn authenticates against the remote API. Credentials are validated
// locally first, so malformed input never costs a network call.
func (s *Store) SignIn(ctx context.Context, email, password string) (string, error) {
	const op = "sign in"

	if err := validate.Credentials(email, password); err != nil {
		return "", errors.Wrap(err, op)
	}

	user, message, err := s.api.Login(ctx, email, password)
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	s.Login(ctx, *user)
	return message, nil
}

// Register creates an account and enters the Authenticated state.
func (s *Store) Register(ctx context.Context, email, password string) (string, error) {
	const op = "register"

	if err := validate.Credentials(email, password); err != nil {
		return "", errors.Wrap(err, op)
	}
	if err := validate.RegistrationPassword(password); err != nil {
		return "", errors.Wrap(err, op)
	}

	user, message, err := s.api.Register(ctx, email, password)
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	s.Login(ctx, *user)
	return message, nil
}

// CreateOrAdoptGuestSession enters the Guest state. With an empty id a fresh
// one is generated; a supplied (server-issued) id is adopted verbatim. The
// active id is returned.
func (s *Store) CreateOrAdoptGuestSession(ctx context.Context, id string) (string, error) {
	const op = "create or adopt guest session"

	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	if identity.IsAuthenticated() {
		return "", errors.Wrap(ErrAuthenticated, op)
	}

	if id == "" {
		if identity.IsGuest() {
			return identity.GuestID, nil
		}
		id = domain.NewGuestID()
	} else if !domain.IsGuestID(id) {
		return "", errors.Wrap(domain.ErrInvalidGuestID, op)
	}

	s.storage.Write(ctx, domain.GuestIDKey, id)
	s.transition(Guest, domain.AsGuest(id))
	return id, nil
}

// Logout clears the session. The server call is best-effort: its failure is
// logged and the local state is cleared regardless.
func (s *Store) Logout(ctx context.Context) string {
	message := "Logged out"

	if !s.demo {
		serverMessage, err := s.api.Logout(ctx)
		if err != nil {
			s.logger.Warn("server logout failed", zap.Error(err))
		} else if serverMessage != "" {
			message = serverMessage
		}
	}

	// Whichever guest was active loses its cache along with its id.
	var guestID string
	s.storage.Read(ctx, domain.GuestIDKey, &guestID)
	if guestID != "" {
		s.storage.Remove(ctx, domain.GuestCacheKey(guestID))
	}
	s.storage.Remove(ctx, domain.GuestIDKey)
	s.storage.Remove(ctx, domain.CurrentUserKey)
	s.storage.Remove(ctx, domain.AuthTokenKey)
	s.api.SetAuthToken("")

	s.transition(Anonymous, domain.Anonymous())
	return message
}

// GuestSignout drops the active guest session locally. No network call is
// made; the guest's persisted id and link cache are removed.
func (s *Store) GuestSignout(ctx context.Context) error {
	const op = "guest signout"

	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	if !identity.IsGuest() {
		return errors.Wrap(domain.ErrNotGuest, op)
	}

	s.storage.Remove(ctx, domain.GuestCacheKey(identity.GuestID))
	s.storage.Remove(ctx, domain.GuestIDKey)
	s.transition(Anonymous, domain.Anonymous())
	return nil
}

// LoginWithGuest binds the session to a previously known guest id via the
// server. On rejection the session is unchanged; a new guest is never
// created here.
func (s *Store) LoginWithGuest(ctx context.Context, id string) (string, error) {
	const op = "login with guest"

	if err := validate.GuestID(id); err != nil {
		return "", errors.Wrap(err, op)
	}

	message, err := s.api.GuestLogin(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	s.storage.Write(ctx, domain.GuestIDKey, id)
	s.transition(Guest, domain.AsGuest(id))
	return message, nil
}

// AdoptToken accepts a token handed over by an OAuth redirect. The client
// holds no signing secret, so only the token's structure and expiry are
// checked locally; the server confirms it through the profile call.
func (s *Store) AdoptToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "adopt token"

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, errors.Wrap(err, op)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.Wrap(ErrExpiredToken, op)
	}

	previous := s.api.AuthToken()
	s.api.SetAuthToken(token)

	user, err := s.api.Me(ctx)
	if err != nil {
		s.api.SetAuthToken(previous)
		return nil, errors.Wrap(err, op)
	}
	if user == nil {
		s.api.SetAuthToken(previous)
		return nil, errors.Wrap(errors.New("token rejected by server"), op)
	}

	s.Login(ctx, *user)
	return user, nil
}
