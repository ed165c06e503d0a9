package handlers

import (
	"net/http"

	"frontend/internal/address"
	"frontend/internal/http/middleware"
	"frontend/internal/session"
	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/address/search?q=
// A geocoder failure answers with no candidates so the form stays usable.
func (h *Handlers) SearchAddress(c *gin.Context, _ session.Session) {
	svc := h.Address
	if svc == nil {
		svc = address.Noop{}
	}
	found, err := svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.LogFailure(middleware.GetRequestID(c), "address", "search", err)
		found = nil
	}
	if found == nil {
		found = []address.Candidate{}
	}
	c.JSON(http.StatusOK, gin.H{"candidates": found})
}
