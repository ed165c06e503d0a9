package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"frontend/internal/apiclient"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestTokenProviderReadsCookieClaims(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"user_id": float64(42), "role": "driver", "exp": time.Now().Add(time.Hour).Unix()})
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: tok})

	s := TokenProvider{Secret: secret, CookieName: "session_token"}.Resolve(context.Background(), req)

	require.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "42", s.UserID())
	assert.True(t, s.Identity.HasRole("DRIVER"))
	assert.Equal(t, tok, s.AccessToken)
}

func TestTokenProviderReadsBearerAndRoleList(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "u-1", "roles": []any{"admin", "sender"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	s := TokenProvider{Secret: secret}.Resolve(context.Background(), req)

	require.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "u-1", s.UserID())
	assert.ElementsMatch(t, []string{"admin", "sender"}, s.Identity.Roles)
}

func TestTokenProviderFailuresAreUnauthenticated(t *testing.T) {
	expired := sign(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()})
	noSubject := sign(t, jwt.MapClaims{"role": "admin"})
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("other"))
	require.NoError(t, err)

	for name, tok := range map[string]string{"missing": "", "garbage": "abc.def", "expired": expired, "no subject": noSubject, "wrong key": otherKey} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tok != "" {
			req.AddCookie(&http.Cookie{Name: "session_token", Value: tok})
		}
		s := TokenProvider{Secret: secret, CookieName: "session_token"}.Resolve(context.Background(), req)
		assert.Equal(t, StatusUnauthenticated, s.Status, name)
	}
}

func fixed(s Session) Provider {
	return ProviderFunc(func(ctx context.Context, r *http.Request) Session { return s })
}

func guardedRouter(p Provider, mounted *int32) *gin.Engine {
	r := gin.New()
	g := Guard{Provider: p, SignInPath: "/auth/signin"}
	view := ViewFunc(func(c *gin.Context, s Session) {
		atomic.AddInt32(mounted, 1)
		c.JSON(http.StatusOK, gin.H{"user": s.UserID()})
	})
	r.GET("/orders", g.Wrap(view))
	r.GET("/api/orders", g.Wrap(view))
	admin := r.Group("/api/admin", g.Middleware(), RequireRoles("admin"))
	admin.GET("/users", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestUnauthenticatedRedirectsWithoutMounting(t *testing.T) {
	var mounted int32
	r := guardedRouter(fixed(Unauthenticated()), &mounted)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders?page=2", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/signin?next=%2Forders%3Fpage%3D2", w.Header().Get("Location"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&mounted))
}

func TestUnauthenticatedJSONGets401WithRedirect(t *testing.T) {
	var mounted int32
	r := guardedRouter(fixed(Unauthenticated()), &mounted)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/auth/signin?next=%2Fapi%2Forders"`)
	assert.Equal(t, int32(0), atomic.LoadInt32(&mounted))
}

func TestSignInPathKeepsItsQuery(t *testing.T) {
	r := gin.New()
	g := Guard{Provider: fixed(Unauthenticated()), SignInPath: "/login?lang=en"}
	r.GET("/orders", g.Wrap(ViewFunc(func(c *gin.Context, s Session) { c.Status(http.StatusOK) })))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders?page=2", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?lang=en&next=%2Forders%3Fpage%3D2", w.Header().Get("Location"))
}

func TestSignInURL(t *testing.T) {
	cases := []struct{ path, next, want string }{
		{"", "/orders", "/auth/signin?next=%2Forders"},
		{"/auth/signin", "/trips?page=3", "/auth/signin?next=%2Ftrips%3Fpage%3D3"},
		{"/login?lang=en", "/", "/login?lang=en&next=%2F"},
		{"/login?next=%2Fold", "/new", "/login?next=%2Fnew"},
		{"https://accounts.example.com/signin", "/me", "https://accounts.example.com/signin?next=%2Fme"},
	}
	for _, tc := range cases {
		if got := signInURL(tc.path, tc.next); got != tc.want {
			t.Fatalf("signInURL(%q, %q) = %q, want %q", tc.path, tc.next, got, tc.want)
		}
	}
}

func TestLoadingRendersPlaceholder(t *testing.T) {
	var mounted int32
	r := guardedRouter(fixed(Loading()), &mounted)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"loading"}`, w.Body.String())
	assert.Equal(t, int32(0), atomic.LoadInt32(&mounted))
}

func TestAuthenticatedMountsViewWithSession(t *testing.T) {
	var mounted int32
	r := guardedRouter(fixed(Authenticated(Identity{ID: "u7"}, "tok")), &mounted)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u7"}`, w.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&mounted))
}

func TestRequireRoles(t *testing.T) {
	var mounted int32
	admin := guardedRouter(fixed(Authenticated(Identity{ID: "a", Roles: []string{"Admin"}}, "tok")), &mounted)
	w := httptest.NewRecorder()
	admin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	user := guardedRouter(fixed(Authenticated(Identity{ID: "u", Roles: []string{"driver"}}, "tok")), &mounted)
	w = httptest.NewRecorder()
	user.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRemoteProviderReportsLoadingUntilLookupLands(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/auth/me", r.URL.Path)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"u1","role":"sender"}}`))
	}))
	defer srv.Close()

	p := NewRemoteProvider(apiclient.New(srv.URL, apiclient.Options{}), "session_token", 20*time.Millisecond, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")

	assert.Equal(t, StatusLoading, p.Resolve(context.Background(), req).Status)
	assert.Equal(t, StatusLoading, p.Resolve(context.Background(), req).Status)
	close(release)

	require.Eventually(t, func() bool {
		return p.Resolve(context.Background(), req).Status == StatusAuthenticated
	}, 2*time.Second, 10*time.Millisecond)

	s := p.Resolve(context.Background(), req)
	assert.Equal(t, "u1", s.UserID())
	assert.True(t, s.Identity.HasRole("sender"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRemoteProviderRejectedTokenIsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"token expired"}`))
	}))
	defer srv.Close()

	p := NewRemoteProvider(apiclient.New(srv.URL, apiclient.Options{}), "session_token", time.Second, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "tok"})

	assert.Equal(t, StatusUnauthenticated, p.Resolve(context.Background(), req).Status)
	assert.Equal(t, StatusUnauthenticated, p.Resolve(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil)).Status)
}
