package handlers

import (
	"net/http"

	"frontend/internal/http/middleware"
	"frontend/internal/services"
	"frontend/internal/session"

	"github.com/gin-gonic/gin"
)

// GET /api/profile/:id (or /api/profile for the caller)
func (h *Handlers) Profile(c *gin.Context, s session.Session) {
	id := c.Param("id")
	if id == "" {
		id = s.UserID()
	}
	svc := services.ProfileService{
		Client:    h.API,
		Token:     s.AccessToken,
		RequestID: middleware.GetRequestID(c),
		PageSize:  h.pageSize(),
	}
	p, err := svc.Load(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/orders/:id/waybill
func (h *Handlers) Waybill(c *gin.Context, s session.Session) {
	svc := services.WaybillService{
		Client:    h.API,
		Token:     s.AccessToken,
		RequestID: middleware.GetRequestID(c),
	}
	pdf, filename, err := svc.Generate(c.Request.Context(), c.Param("id"), s.UserID(), s.Identity.HasRole("admin"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
