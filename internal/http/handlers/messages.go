package handlers

import (
	"net/http"
	"strings"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/domain/models"
	"frontend/internal/http/middleware"
	"frontend/internal/session"
	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
)

type messageRequest struct {
	ToID    string `json:"toId"`
	OrderID string `json:"orderId"`
	Text    string `json:"text"`
}

// POST /api/messages
func (h *Handlers) SendMessage(c *gin.Context, s session.Session) {
	var req messageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	req.ToID = strings.TrimSpace(req.ToID)
	switch {
	case req.Text == "":
		RespondDomainError(c, domain.ValidationError{Field: "text", Msg: "message is empty"})
		return
	case req.ToID == "":
		RespondDomainError(c, domain.ValidationError{Field: "toId", Msg: "recipient is required"})
		return
	case req.ToID == s.UserID():
		RespondDomainError(c, domain.ValidationError{Field: "toId", Msg: "cannot message yourself"})
		return
	}

	res := apiclient.PostJSON[models.Message](c.Request.Context(), h.API, s.AccessToken, "messages", models.Message{
		FromID:  s.UserID(),
		ToID:    req.ToID,
		OrderID: strings.TrimSpace(req.OrderID),
		Text:    req.Text,
	})
	if !res.OK() {
		utils.LogFailure(middleware.GetRequestID(c), "messages", "send", res.Err)
		RespondDomainError(c, res.Err)
		return
	}
	c.JSON(http.StatusCreated, res.Value)
}
