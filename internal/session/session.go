// Package session resolves who is calling and gates views on it.
package session

import (
	"context"
	"net/http"
	"strings"
)

type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Identity is the signed-in user as the auth provider reports it.
type Identity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the identity carries role, case-insensitively.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range i.Roles {
		if strings.ToLower(strings.TrimSpace(r)) == role {
			return true
		}
	}
	return false
}

// Session is read-only for everything except the provider that produced it.
type Session struct {
	Status      Status    `json:"status"`
	Identity    *Identity `json:"identity,omitempty"`
	AccessToken string    `json:"-"`
}

func Unauthenticated() Session { return Session{Status: StatusUnauthenticated} }

func Loading() Session { return Session{Status: StatusLoading} }

func Authenticated(id Identity, token string) Session {
	return Session{Status: StatusAuthenticated, Identity: &id, AccessToken: token}
}

// UserID is the identity id, or "" when not signed in.
func (s Session) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

// Provider resolves the session carried by a request. Any failure to
// resolve is reported as unauthenticated, never as an error.
type Provider interface {
	Resolve(ctx context.Context, r *http.Request) Session
}

type ProviderFunc func(ctx context.Context, r *http.Request) Session

func (f ProviderFunc) Resolve(ctx context.Context, r *http.Request) Session { return f(ctx, r) }

// TokenFromRequest reads the access token from the session cookie, falling
// back to an Authorization: Bearer header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if ck, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(ck.Value) != "" {
			return strings.TrimSpace(ck.Value)
		}
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
