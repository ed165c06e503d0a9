package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"frontend/internal/apiclient"
	intconfig "frontend/internal/config"
	h "frontend/internal/http/handlers"
	"frontend/internal/session"
	"frontend/internal/transitions"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"data":[],"pagination":{"totalPages":1}}}`)
	}))
	t.Cleanup(upstream.Close)

	env := intconfig.FromViper(viper.New())
	env.ClientRateLimit = 0
	client := apiclient.New(upstream.URL, apiclient.Options{})
	hs := &h.Handlers{
		API:      client,
		InFlight: transitions.NewInFlight(),
		Mutator:  transitions.APIMutator(client),
	}
	guard := session.Guard{
		Provider: session.ProviderFunc(func(ctx context.Context, r *http.Request) session.Session {
			id := r.Header.Get("X-Test-User")
			if id == "" {
				return session.Unauthenticated()
			}
			return session.Authenticated(session.Identity{ID: id, Roles: strings.Split(r.Header.Get("X-Test-Roles"), ",")}, "tok")
		}),
		SignInPath: env.SignInPath,
	}
	return NewRouter(env, hs, guard, nil)
}

func serve(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicRoutes(t *testing.T) {
	r := testRouter(t)

	w := serve(r, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, "GET", "/api/news", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"empty"`)

	w = serve(r, "GET", "/api/consent", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Consent-Required"))

	w = serve(r, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardedRouteSendsAnonymousToSignIn(t *testing.T) {
	r := testRouter(t)

	w := serve(r, "GET", "/api/orders?page=2", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `/auth/signin?next=%2Fapi%2Forders%3Fpage%3D2`)

	w = serve(r, "GET", "/api/orders", map[string]string{"X-Test-User": "u1", "X-Test-Roles": "sender"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesNeedRole(t *testing.T) {
	r := testRouter(t)

	w := serve(r, "GET", "/api/admin/vehicles", map[string]string{"X-Test-User": "u1", "X-Test-Roles": "driver"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, "GET", "/api/admin/vehicles?status=pending", map[string]string{"X-Test-User": "a1", "X-Test-Roles": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	r := testRouter(t)

	w := serve(r, "GET", "/api/spaceships", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestFlowsListed(t *testing.T) {
	r := testRouter(t)

	w := serve(r, "GET", "/api/forms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vehicle")
}
