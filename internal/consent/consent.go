// Package consent tracks whether the visitor answered the cookie banner.
package consent

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	contextKey = "consent"
	maxAge     = 365 * 24 * time.Hour
)

type Choice string

const (
	Unset    Choice = ""
	Accepted Choice = "accepted"
	Declined Choice = "declined"
)

// Banner is what the page needs to decide whether to show the banner.
type Banner struct {
	Required bool   `json:"required"`
	Choice   Choice `json:"choice,omitempty"`
}

// Middleware reads the consent cookie and leaves the Banner on the context.
func Middleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKey, read(c, cookieName))
		c.Next()
	}
}

func read(c *gin.Context, cookieName string) Banner {
	v, err := c.Cookie(cookieName)
	if err != nil {
		return Banner{Required: true}
	}
	switch Choice(v) {
	case Accepted, Declined:
		return Banner{Choice: Choice(v)}
	default:
		return Banner{Required: true}
	}
}

// FromContext returns the banner state set by Middleware. Without the
// middleware the banner is required.
func FromContext(c *gin.Context) Banner {
	if v, ok := c.Get(contextKey); ok {
		if b, ok := v.(Banner); ok {
			return b
		}
	}
	return Banner{Required: true}
}

type answer struct {
	Accepted *bool `json:"accepted"`
}

// Handler stores the visitor's answer for a year.
func Handler(cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req answer
		if err := c.ShouldBindJSON(&req); err != nil || req.Accepted == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message":    "accepted must be true or false",
				"request_id": c.GetString("request_id"),
			})
			return
		}
		choice := Declined
		if *req.Accepted {
			choice = Accepted
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, string(choice), int(maxAge.Seconds()), "/", "", secure, false)
		c.JSON(http.StatusOK, Banner{Choice: choice})
	}
}

// Status reports the banner state for the current visitor.
func Status(c *gin.Context) {
	b := FromContext(c)
	c.Header("X-Consent-Required", strconv.FormatBool(b.Required))
	c.JSON(http.StatusOK, b)
}
