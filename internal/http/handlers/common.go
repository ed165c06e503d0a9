package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"frontend/internal/address"
	"frontend/internal/apiclient"
	"frontend/internal/forms"
	"frontend/internal/http/middleware"
	"frontend/internal/transitions"

	"github.com/gin-gonic/gin"
)

// Handlers holds what the route handlers need. One instance serves the
// whole router.
type Handlers struct {
	API            *apiclient.Client
	PageSize       int
	InFlight       *transitions.InFlight
	Mutator        transitions.Mutator
	Drafts         forms.DraftStore
	Submitter      forms.Submitter
	Address        address.Service
	MaxUploadBytes int64

	SessionCookie string
	CookieSecure  bool
	SignInPath    string
	// OnSignOut lets session providers drop what they cached for a token.
	OnSignOut func(token string)
}

func (h *Handlers) pageSize() int {
	if h.PageSize > 0 {
		return h.PageSize
	}
	return 10
}

// RespondError sends standard error payload with request_id included.
// Keeps backward compatibility by always providing "message".
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}

// pageParam reads ?page=n, defaulting to 1.
func pageParam(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
