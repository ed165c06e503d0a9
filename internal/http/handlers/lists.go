package handlers

import (
	"net/http"
	"strings"

	"frontend/internal/domain"
	"frontend/internal/domain/models"
	"frontend/internal/http/middleware"
	"frontend/internal/listing"
	"frontend/internal/session"
	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
)

// serveList mounts a list controller at ?page=n and renders its view. A
// failed fetch still renders, as the failed state with a retry flag.
func serveList[T domain.Record](h *Handlers, c *gin.Context, token, resource string, cfg listing.Config) {
	cfg.PageSize = h.pageSize()
	ctrl := listing.New(listing.Remote[T](h.API, token, resource), cfg)
	defer ctrl.Close()

	if err := ctrl.MountAt(c.Request.Context(), pageParam(c)); err != nil {
		utils.LogFailure(middleware.GetRequestID(c), resource, "list", err)
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// ownerKey picks the filter orders are scoped by: drivers see what they
// carry, everyone else what they sent.
func ownerKey(s session.Session) string {
	if s.Identity.HasRole("driver") {
		return "driverId"
	}
	return "senderId"
}

// GET /api/news
func (h *Handlers) News(c *gin.Context) {
	serveList[models.Article](h, c, "", "news", listing.Config{})
}

// GET /api/trips
func (h *Handlers) Trips(c *gin.Context, s session.Session) {
	serveList[models.Trip](h, c, s.AccessToken, "trips", listing.Config{DependentKey: "driverId", DependentID: s.UserID()})
}

// GET /api/trips/:id/offers
func (h *Handlers) TripOffers(c *gin.Context, s session.Session) {
	serveList[models.Offer](h, c, s.AccessToken, "offers", listing.Config{Filters: map[string]string{"tripId": c.Param("id")}})
}

// GET /api/orders
func (h *Handlers) Orders(c *gin.Context, s session.Session) {
	serveList[models.Order](h, c, s.AccessToken, "orders", listing.Config{DependentKey: ownerKey(s), DependentID: s.UserID()})
}

// GET /api/offers
func (h *Handlers) Offers(c *gin.Context, s session.Session) {
	serveList[models.Offer](h, c, s.AccessToken, "offers", listing.Config{DependentKey: "senderId", DependentID: s.UserID()})
}

// GET /api/delivery-requests
func (h *Handlers) DeliveryRequests(c *gin.Context, s session.Session) {
	serveList[models.DeliveryRequest](h, c, s.AccessToken, "delivery-requests", listing.Config{DependentKey: "senderId", DependentID: s.UserID()})
}

// GET /api/reviews?userId=
func (h *Handlers) Reviews(c *gin.Context, s session.Session) {
	target := utils.Fallback(c.Query("userId"), s.UserID())
	serveList[models.Review](h, c, s.AccessToken, "reviews", listing.Config{DependentKey: "targetId", DependentID: target})
}

// GET /api/messages
func (h *Handlers) Messages(c *gin.Context, s session.Session) {
	serveList[models.Message](h, c, s.AccessToken, "messages", listing.Config{
		DependentKey: "userId",
		DependentID:  s.UserID(),
		Filters:      map[string]string{"orderId": strings.TrimSpace(c.Query("orderId"))},
	})
}

// GET /api/admin/vehicles?status=
func (h *Handlers) AdminVehicles(c *gin.Context, s session.Session) {
	serveList[models.Vehicle](h, c, s.AccessToken, "vehicles", listing.Config{Filters: map[string]string{"status": strings.TrimSpace(c.Query("status"))}})
}

// GET /api/admin/users?role=
func (h *Handlers) AdminUsers(c *gin.Context, s session.Session) {
	serveList[models.User](h, c, s.AccessToken, "users", listing.Config{Filters: map[string]string{"role": strings.TrimSpace(c.Query("role"))}})
}
