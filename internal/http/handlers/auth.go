package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/domain/models"
	"frontend/internal/http/middleware"
	"frontend/internal/session"
	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
)

const sessionMaxAge = 24 * 60 * 60

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

type signInResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// safeNext keeps redirects on this site: only absolute paths, never
// protocol-relative ones.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" {
		return "/"
	}
	return next
}

// GET /auth/signin?next=
// The page itself is rendered by the client; this tells it where to go after.
func (h *Handlers) SignInPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"signIn": utils.Fallback(h.SignInPath, "/auth/signin"),
		"next":   safeNext(c.Query("next")),
	})
}

// POST /auth/signin
func (h *Handlers) SignIn(c *gin.Context) {
	var req signInRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		RespondDomainError(c, domain.ValidationError{Field: "email", Msg: "email and password are required"})
		return
	}

	res := apiclient.PostJSON[signInResult](c.Request.Context(), h.API, "", "auth/login", gin.H{
		"email":    req.Email,
		"password": req.Password,
	})
	if !res.OK() {
		utils.LogFailure(middleware.GetRequestID(c), "auth", "signin", res.Err)
		RespondDomainError(c, res.Err)
		return
	}
	if res.Value.Token == "" {
		RespondDomainError(c, domain.RemoteError{Status: http.StatusBadGateway, Msg: "sign in returned no token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName(), res.Value.Token, sessionMaxAge, "/", "", h.CookieSecure, true)
	utils.LogEvent(middleware.GetRequestID(c), "auth", "signin", "user_id="+res.Value.User.ID)
	c.JSON(http.StatusOK, gin.H{
		"user":     res.Value.User,
		"redirect": safeNext(req.Next),
	})
}

// POST /auth/signout
func (h *Handlers) SignOut(c *gin.Context) {
	if token := session.TokenFromRequest(c.Request, h.cookieName()); token != "" && h.OnSignOut != nil {
		h.OnSignOut(token)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName(), "", -1, "/", "", h.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"redirect": utils.Fallback(h.SignInPath, "/auth/signin")})
}

// GET /api/me
func (h *Handlers) Me(c *gin.Context, s session.Session) {
	c.JSON(http.StatusOK, gin.H{"status": s.Status, "user": s.Identity})
}

func (h *Handlers) cookieName() string {
	return utils.Fallback(h.SessionCookie, "session_token")
}
