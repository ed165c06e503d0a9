package api

import (
	stdhttp "net/http"
	"time"

	"frontend/internal/consent"
	intconfig "frontend/internal/config"
	"frontend/internal/domain"
	h "frontend/internal/http/handlers"
	"frontend/internal/http/middleware"
	"frontend/internal/metrics"
	"frontend/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(env intconfig.Env, hs *h.Handlers, guard session.Guard, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		metrics.Middleware(),
		middleware.CORS(env.CORSAllowedOrigins),
	)
	if env.ClientRateLimit > 0 {
		r.Use(middleware.RateLimit(middleware.NewClientLimiter(env.ClientRateLimit, 0, 10*time.Minute)))
	}
	r.Use(consent.Middleware(env.ConsentCookie))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	view := func(f session.ViewFunc) gin.HandlerFunc { return guard.Wrap(f) }

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/auth")
	auth.GET("/signin", hs.SignInPage)
	auth.POST("/signin", hs.SignIn)
	auth.POST("/signout", hs.SignOut)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/ready", h.Ready)
		api.GET("/routes", h.Routes)
		api.GET("/news", hs.News)
		api.GET("/consent", consent.Status)
		api.POST("/consent", consent.Handler(env.ConsentCookie, env.CookieSecure))

		api.GET("/me", view(hs.Me))
		api.GET("/profile", view(hs.Profile))
		api.GET("/profile/:id", view(hs.Profile))
		api.GET("/address/search", view(hs.SearchAddress))

		trips := api.Group("/trips")
		trips.GET("", view(hs.Trips))
		trips.POST("/:id/start", view(hs.TripAction(domain.ActionStart)))
		trips.POST("/:id/complete", view(hs.TripAction(domain.ActionComplete)))
		trips.GET("/:id/offers", view(hs.TripOffers))
		trips.POST("/:id/offers/:offerId/accept", view(hs.OfferAction(domain.ActionAccept)))
		trips.POST("/:id/offers/:offerId/decline", view(hs.OfferAction(domain.ActionDecline)))

		orders := api.Group("/orders")
		orders.GET("", view(hs.Orders))
		orders.GET("/:id/waybill", view(hs.Waybill))
		orders.POST("/:id/pickup", view(hs.OrderAction(domain.ActionPickup)))
		orders.POST("/:id/deliver", view(hs.OrderAction(domain.ActionDeliver)))

		api.GET("/offers", view(hs.Offers))
		api.GET("/delivery-requests", view(hs.DeliveryRequests))
		api.GET("/reviews", view(hs.Reviews))
		api.GET("/messages", view(hs.Messages))
		api.POST("/messages", view(hs.SendMessage))

		forms := api.Group("/forms")
		forms.GET("", h.Flows)
		forms.POST("/:flow", view(hs.StartForm))
		forms.GET("/:flow/:id", view(hs.GetForm))
		forms.PATCH("/:flow/:id", view(hs.UpdateForm))
		forms.DELETE("/:flow/:id", view(hs.DiscardForm))
		forms.POST("/:flow/:id/files/:field", view(hs.AttachFile))
		forms.POST("/:flow/:id/advance", view(hs.AdvanceForm))
		forms.POST("/:flow/:id/submit", view(hs.SubmitForm))

		admin := api.Group("/admin", guard.Middleware(), session.RequireRoles("admin"))
		admin.GET("/vehicles", view(hs.AdminVehicles))
		admin.POST("/vehicles/:id/approve", view(hs.VehicleAction(domain.ActionApprove)))
		admin.POST("/vehicles/:id/reject", view(hs.VehicleAction(domain.ActionReject)))
		admin.GET("/users", view(hs.AdminUsers))
	}

	h.SetRouter(r)
	return r
}
