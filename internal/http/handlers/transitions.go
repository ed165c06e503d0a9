package handlers

import (
	"context"
	"net/http"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/domain/models"
	"frontend/internal/http/middleware"
	"frontend/internal/listing"
	"frontend/internal/session"
	"frontend/internal/transitions"

	"github.com/gin-gonic/gin"
)

const actionFailedMessage = "The action could not be completed, please try again"

// ActionResponse is the refreshed list plus the outcome of the action.
// Record is the acted-on record as refetched, when it is still on the page.
type ActionResponse[T any] struct {
	List        listing.View[T] `json:"list"`
	Action      domain.Action   `json:"action"`
	RecordID    string          `json:"recordId"`
	Record      *T              `json:"record,omitempty"`
	ActionError string          `json:"actionError,omitempty"`
}

// pageRefresher refetches the page the user was looking at, with exactly one
// request even when that page is now past the end.
type pageRefresher[T domain.Record] struct {
	ctrl *listing.Controller[T]
	page int
}

func (p pageRefresher[T]) SetLoading(loading bool) { p.ctrl.SetLoading(loading) }

func (p pageRefresher[T]) Refetch(ctx context.Context) error {
	return p.ctrl.Open(ctx, p.page)
}

// runTransition loads the record, performs action on it and answers with the
// list refetched once. A failed mutation is reported in actionError next to
// the refreshed list; a rejected one (not offered, already running) is an
// error response and the list is left alone.
func runTransition[T domain.Record](h *Handlers, c *gin.Context, s session.Session, resource string, cfg listing.Config, id string, action domain.Action) {
	ctx := c.Request.Context()
	rec := apiclient.Get[T](ctx, h.API, s.AccessToken, resource, id)
	if !rec.OK() {
		RespondDomainError(c, rec.Err)
		return
	}

	cfg.PageSize = h.pageSize()
	ctrl := listing.New(listing.Remote[T](h.API, s.AccessToken, resource), cfg)
	defer ctrl.Close()

	p := transitions.Performer{
		Resource:  resource,
		Mutator:   h.Mutator,
		List:      pageRefresher[T]{ctrl: ctrl, page: pageParam(c)},
		InFlight:  h.InFlight,
		RequestID: middleware.GetRequestID(c),
	}
	err := p.Perform(ctx, s.AccessToken, rec.Value, action)
	if domain.IsValidation(err) || domain.IsConflict(err) {
		RespondDomainError(c, err)
		return
	}

	resp := ActionResponse[T]{List: ctrl.View(), Action: action, RecordID: id}
	if fresh, ok := ctrl.Find(id); ok {
		resp.Record = &fresh
	}
	if err != nil {
		resp.ActionError = domain.RemoteMessage(err, actionFailedMessage)
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/trips/:id/{start|complete}
func (h *Handlers) TripAction(action domain.Action) session.ViewFunc {
	return func(c *gin.Context, s session.Session) {
		runTransition[models.Trip](h, c, s, "trips", listing.Config{DependentKey: "driverId", DependentID: s.UserID()}, c.Param("id"), action)
	}
}

// POST /api/trips/:id/offers/:offerId/{accept|declined}
func (h *Handlers) OfferAction(action domain.Action) session.ViewFunc {
	return func(c *gin.Context, s session.Session) {
		cfg := listing.Config{Filters: map[string]string{"tripId": c.Param("id")}}
		runTransition[models.Offer](h, c, s, "offers", cfg, c.Param("offerId"), action)
	}
}

// POST /api/orders/:id/{pickup|deliver}
func (h *Handlers) OrderAction(action domain.Action) session.ViewFunc {
	return func(c *gin.Context, s session.Session) {
		runTransition[models.Order](h, c, s, "orders", listing.Config{DependentKey: ownerKey(s), DependentID: s.UserID()}, c.Param("id"), action)
	}
}

// POST /api/admin/vehicles/:id/{approve|reject}
func (h *Handlers) VehicleAction(action domain.Action) session.ViewFunc {
	return func(c *gin.Context, s session.Session) {
		runTransition[models.Vehicle](h, c, s, "vehicles", listing.Config{}, c.Param("id"), action)
	}
}
