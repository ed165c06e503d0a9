package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider verifies the HS256 token the API issued at sign-in and reads
// the identity straight from its claims.
type TokenProvider struct {
	Secret     []byte
	CookieName string
}

func (p TokenProvider) Resolve(ctx context.Context, r *http.Request) Session {
	raw := TokenFromRequest(r, p.CookieName)
	if raw == "" || len(p.Secret) == 0 {
		return Unauthenticated()
	}
	id, err := p.Parse(raw)
	if err != nil {
		return Unauthenticated()
	}
	return Authenticated(id, raw)
}

// Parse validates the signature and expiry of raw and maps its claims.
func (p TokenProvider) Parse(raw string) (Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return p.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	return identityFromClaims(claims)
}

func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	var id Identity
	for _, key := range []string{"sub", "user_id", "id"} {
		if v := claimString(claims[key]); v != "" {
			id.ID = v
			break
		}
	}
	if id.ID == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	id.Name = claimString(claims["name"])

	switch roles := claims["roles"].(type) {
	case []any:
		for _, r := range roles {
			if s := claimString(r); s != "" {
				id.Roles = append(id.Roles, s)
			}
		}
	case string:
		for _, r := range strings.Split(roles, ",") {
			if s := strings.TrimSpace(r); s != "" {
				id.Roles = append(id.Roles, s)
			}
		}
	}
	if role := claimString(claims["role"]); role != "" && !id.HasRole(role) {
		id.Roles = append(id.Roles, role)
	}
	return id, nil
}

func claimString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return fmt.Sprintf("%.0f", x)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
