// Package session owns the client's view of who is signed in. A Manager is
// created per client process, initialised by one server round trip and then
// mutated only by explicit actions.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"cms-platform/client"
)

// ErrClosed is returned by actions after Teardown.
var ErrClosed = errors.New("session manager closed")

// ErrSuperseded is returned by a login whose result arrived after a logout or teardown.
var ErrSuperseded = errors.New("session changed while the request was in flight")

// Status is the tri-state authentication status.
type Status int

const (
	// StatusUnknown means the initial current-user fetch has not finished.
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "unknown"
}

type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	}
	return "anonymous"
}

// ParseRole maps the server's role string. Anything other than "admin" signs in as a user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), "admin") {
		return RoleAdmin
	}
	return RoleUser
}

// Snapshot is a copy of the session state. Whenever Status is not
// StatusAuthenticated, Role is RoleAnonymous and User is nil.
type Snapshot struct {
	Status Status
	Role   Role
	User   *client.Profile
	Error  string
}

func (s Snapshot) IsAuthenticated() bool { return s.Status == StatusAuthenticated }

func (s Snapshot) IsAdmin() bool { return s.IsAuthenticated() && s.Role == RoleAdmin }

// loggedOut is the state every logout and failed fetch resets to.
func loggedOut() Snapshot {
	return Snapshot{Status: StatusAnonymous, Role: RoleAnonymous}
}

// AuthAPI is the part of the backend the manager talks to. *client.Client implements it.
type AuthAPI interface {
	Login(ctx context.Context, cred client.Credentials) (client.LoginResult, error)
	AdminLogin(ctx context.Context, cred client.Credentials) (client.LoginResult, error)
	Logout(ctx context.Context) error
	UserDetails(ctx context.Context) (client.Profile, error)
}

type Option func(*Manager)

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager guards the session state with a mutex so it can be shared across goroutines.
type Manager struct {
	auth   AuthAPI
	logger *log.Logger

	mu     sync.Mutex
	state  Snapshot
	gen    uint64
	closed bool
}

// NewManager returns a manager in StatusUnknown. Call Init to resolve it.
func NewManager(auth AuthAPI, opts ...Option) *Manager {
	m := &Manager{auth: auth, logger: log.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyState()
}

func (m *Manager) copyState() Snapshot {
	s := m.state
	if s.User != nil {
		u := *s.User
		u.Interests = append([]client.Category(nil), s.User.Interests...)
		s.User = &u
	}
	return s
}

// begin records the generation an action started in.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	return m.gen, nil
}

// commit stores next unless the manager was closed or reset since gen.
// It reports whether next was stored.
func (m *Manager) commit(gen uint64, next Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.gen != gen {
		return false
	}
	m.state = next
	return true
}

// reset moves to the logged-out value and invalidates requests in flight.
func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if !m.closed {
		m.state = loggedOut()
	}
}

// Init resolves the initial Unknown status.
func (m *Manager) Init(ctx context.Context) Snapshot {
	return m.FetchCurrentUser(ctx)
}

// FetchCurrentUser asks the server who is signed in. It never fails: any error
// leaves the logged-out value.
func (m *Manager) FetchCurrentUser(ctx context.Context) Snapshot {
	gen, err := m.begin()
	if err != nil {
		return m.Snapshot()
	}
	next := loggedOut()
	profile, err := m.auth.UserDetails(ctx)
	if err != nil {
		m.logger.Printf("session: fetch current user: %v", err)
	} else {
		next = Snapshot{Status: StatusAuthenticated, Role: ParseRole(profile.Role), User: &profile}
	}
	m.commit(gen, next)
	return m.Snapshot()
}

// Login signs in through the user endpoint.
func (m *Manager) Login(ctx context.Context, cred client.Credentials) (Snapshot, error) {
	return m.login(ctx, cred, m.auth.Login, false)
}

// AdminLogin signs in through the admin endpoint and requires the admin role.
func (m *Manager) AdminLogin(ctx context.Context, cred client.Credentials) (Snapshot, error) {
	return m.login(ctx, cred, m.auth.AdminLogin, true)
}

type loginFunc func(context.Context, client.Credentials) (client.LoginResult, error)

// ErrNotAdmin is returned when an admin login succeeds for a non-admin account.
var ErrNotAdmin = errors.New("account is not an administrator")

func (m *Manager) login(ctx context.Context, cred client.Credentials, call loginFunc, admin bool) (Snapshot, error) {
	gen, err := m.begin()
	if err != nil {
		return Snapshot{}, err
	}
	res, err := call(ctx, cred)
	if err == nil && admin && ParseRole(res.Role) != RoleAdmin {
		err = ErrNotAdmin
	}
	if err != nil {
		failed := loggedOut()
		failed.Error = client.Message(err)
		m.commit(gen, failed)
		return m.Snapshot(), err
	}
	next := Snapshot{
		Status: StatusAuthenticated,
		Role:   ParseRole(res.Role),
		User: &client.Profile{
			ID:       res.User.ID,
			Email:    res.User.Email,
			Username: res.User.Username,
			Role:     res.Role,
		},
	}
	if !m.commit(gen, next) {
		return m.Snapshot(), ErrSuperseded
	}
	return m.Snapshot(), nil
}

// Logout tells the server best-effort and always ends in the logged-out value.
func (m *Manager) Logout(ctx context.Context) error {
	if _, err := m.begin(); err != nil {
		return err
	}
	m.reset()
	if err := m.auth.Logout(ctx); err != nil {
		m.logger.Printf("session: logout: %v", err)
	}
	return nil
}

// HandleError logs out locally when err means the server no longer accepts
// the session. It reports whether it did.
func (m *Manager) HandleError(err error) bool {
	if !errors.Is(err, client.ErrAuthExpired) {
		return false
	}
	m.reset()
	return true
}

// Teardown discards the state. Results of requests still in flight are ignored.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.gen++
	m.state = Snapshot{}
}
