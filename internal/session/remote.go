package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"frontend/internal/apiclient"

	"golang.org/x/sync/singleflight"
)

type me struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

type cachedIdentity struct {
	id      Identity
	expires time.Time
}

// RemoteProvider asks the API who owns a token (GET auth/me). Lookups are
// shared between concurrent requests for the same token and cached for TTL.
// A lookup still running after Wait resolves as loading; the caller retries
// and picks up the cached answer once it lands.
type RemoteProvider struct {
	Client     *apiclient.Client
	CookieName string
	Wait       time.Duration
	TTL        time.Duration

	now   func() time.Time
	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cachedIdentity
}

func NewRemoteProvider(c *apiclient.Client, cookieName string, wait, ttl time.Duration) *RemoteProvider {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RemoteProvider{
		Client:     c,
		CookieName: cookieName,
		Wait:       wait,
		TTL:        ttl,
		now:        time.Now,
		cache:      map[string]cachedIdentity{},
	}
}

func (p *RemoteProvider) Resolve(ctx context.Context, r *http.Request) Session {
	token := TokenFromRequest(r, p.CookieName)
	if token == "" {
		return Unauthenticated()
	}
	key := tokenKey(token)
	if id, ok := p.cached(key); ok {
		return Authenticated(id, token)
	}

	lookup := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		return p.lookup(lookup, key, token)
	})

	timer := time.NewTimer(p.Wait)
	defer timer.Stop()
	select {
	case res := <-ch:
		if res.Err != nil {
			return Unauthenticated()
		}
		return Authenticated(res.Val.(Identity), token)
	case <-timer.C:
		return Loading()
	case <-ctx.Done():
		return Loading()
	}
}

func (p *RemoteProvider) lookup(ctx context.Context, key, token string) (Identity, error) {
	res := apiclient.Get[me](ctx, p.Client, token, "auth", "me")
	if !res.OK() {
		return Identity{}, res.Err
	}
	id := Identity{ID: res.Value.ID, Name: res.Value.Name, Roles: res.Value.Roles}
	if res.Value.Role != "" && !id.HasRole(res.Value.Role) {
		id.Roles = append(id.Roles, res.Value.Role)
	}

	p.mu.Lock()
	p.cache[key] = cachedIdentity{id: id, expires: p.now().Add(p.TTL)}
	p.mu.Unlock()
	return id, nil
}

func (p *RemoteProvider) cached(key string) (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cache[key]
	if !ok {
		return Identity{}, false
	}
	if p.now().After(c.expires) {
		delete(p.cache, key)
		return Identity{}, false
	}
	return c.id, true
}

// Forget drops the cached identity of token, e.g. on sign-out.
func (p *RemoteProvider) Forget(token string) {
	p.mu.Lock()
	delete(p.cache, tokenKey(token))
	p.mu.Unlock()
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
