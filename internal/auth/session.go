package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

// SessionName is the cookie holding the login session
const SessionName = "session"

const (
	sessionUserID = "user_id"
	// LoginPath is where unauthenticated page requests are redirected
	LoginPath = "/login"
)

type contextKey struct{}

// NewCookieStore creates the session store used by the server
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// Registration is the input to Register
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsStaff   bool
}

// Manager authenticates users and tracks them in a cookie session
type Manager struct {
	sessions sessions.Store
	users    store.UserStore
}

// NewManager creates a session manager
func NewManager(sessionStore sessions.Store, users store.UserStore) *Manager {
	return &Manager{sessions: sessionStore, users: users}
}

// Register validates and creates a user. A taken username returns
// store.ErrConflict.
func (m *Manager) Register(ctx context.Context, reg Registration) (models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Username == "" {
		return models.User{}, ErrUsernameRequired
	}
	if err := ValidatePassword(reg.Password); err != nil {
		return models.User{}, err
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return m.users.CreateUser(ctx, models.User{
		Username:     reg.Username,
		Email:        strings.TrimSpace(reg.Email),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
		IsStaff:      reg.IsStaff,
	})
}

// Authenticate checks a username and password
func (m *Manager) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := m.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login starts a session for user
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user models.User) error {
	session, _ := m.sessions.Get(r, SessionName)
	session.Values[sessionUserID] = user.ID
	return session.Save(r, w)
}

// Logout ends the current session
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.sessions.Get(r, SessionName)
	delete(session.Values, sessionUserID)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// LoadUser puts the session's user, if any, into the request context.
// Sessions pointing at a deleted user are treated as anonymous.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessions.Get(r, SessionName)
		if err != nil {
			logrus.Debugf("Ignoring unreadable session cookie: %v", err)
		}

		if session == nil {
			next.ServeHTTP(w, r)
			return
		}

		if id, ok := session.Values[sessionUserID].(int64); ok {
			user, err := m.users.GetUser(r.Context(), id)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), user))
			case errors.Is(err, store.ErrNotFound):
				logrus.Debugf("Session refers to missing user %d", id)
			default:
				logrus.Errorf("Failed to load session user %d: %v", id, err)
			}
		}

		next.ServeHTTP(w, r)
	})
}

// WithUser returns a context carrying user
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(models.User)
	return user, ok
}

// RequireAuth rejects anonymous requests. Browser page loads are redirected
// to the login page; everything else gets a 401 envelope.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			if wantsPage(r) {
				http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			respond.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects requests from users who are not officials
func RequireStaff(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if !user.IsStaff {
			respond.Error(w, http.StatusForbidden, "Staff access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func wantsPage(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}
