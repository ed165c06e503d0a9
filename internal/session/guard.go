package session

import (
	"net/http"
	"net/url"
	"strings"

	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
)

const contextKey = "session"

// View is a page that only makes sense for a signed-in user. The session is
// passed in explicitly; views never look it up themselves.
type View interface {
	Render(c *gin.Context, s Session)
}

type ViewFunc func(c *gin.Context, s Session)

func (f ViewFunc) Render(c *gin.Context, s Session) { f(c, s) }

// Guard defers a view until the session resolves and sends anyone not
// signed in to SignInPath.
type Guard struct {
	Provider   Provider
	SignInPath string
}

// Wrap gates view on the request's session.
func (g Guard) Wrap(view View) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := g.resolve(c)
		switch s.Status {
		case StatusAuthenticated:
			c.Set(contextKey, s)
			view.Render(c, s)
		case StatusLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": string(StatusLoading)})
		default:
			g.redirect(c)
		}
	}
}

// Middleware is Wrap for route groups: it aborts the chain instead of
// rendering a view.
func (g Guard) Middleware() gin.HandlerFunc {
	return g.Wrap(ViewFunc(func(c *gin.Context, s Session) { c.Next() }))
}

func (g Guard) resolve(c *gin.Context) Session {
	if s, ok := FromContext(c); ok {
		return s
	}
	if g.Provider == nil {
		return Unauthenticated()
	}
	return g.Provider.Resolve(c.Request.Context(), c.Request)
}

func (g Guard) redirect(c *gin.Context) {
	target := signInURL(g.SignInPath, c.Request.URL.RequestURI())

	utils.LogEvent(c.GetString("request_id"), "session", "redirect", "unauthenticated request to "+c.Request.URL.Path)
	if wantsJSON(c.Request) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"message":    "sign in required",
			"redirect":   target,
			"request_id": c.GetString("request_id"),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// signInURL adds next to the sign-in path, keeping any query it already has.
func signInURL(path, next string) string {
	u, err := url.Parse(path)
	if path == "" || err != nil {
		u = &url.URL{Path: "/auth/signin"}
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// FromContext returns the session a Guard attached to c.
func FromContext(c *gin.Context) (Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok && s.Status == StatusAuthenticated
}

// RequireRoles lets the request through only when the guarded session holds
// one of allowedRoles. Use after a Guard.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message":    "unauthorized: no session on context",
				"request_id": c.GetString("request_id"),
			})
			return
		}
		for _, r := range allowedRoles {
			if s.Identity.HasRole(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message":    "forbidden: role not allowed",
			"request_id": c.GetString("request_id"),
		})
	}
}
