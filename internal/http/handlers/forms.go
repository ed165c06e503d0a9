package handlers

import (
	"errors"
	"net/http"
	"strings"

	"frontend/internal/domain"
	"frontend/internal/forms"
	"frontend/internal/http/middleware"
	"frontend/internal/session"
	"frontend/internal/utils"

	"github.com/gin-gonic/gin"
)

type dataURLUpload struct {
	Filename string `json:"filename"`
	DataURL  string `json:"dataUrl"`
}

func (h *Handlers) flow(c *gin.Context) (forms.Definition, bool) {
	def, ok := forms.Lookup(c.Param("flow"))
	if !ok {
		RespondDomainError(c, domain.NotFoundError{Resource: "form " + c.Param("flow")})
	}
	return def, ok
}

// loadForm resumes the caller's draft. Drafts of other users read as missing.
func (h *Handlers) loadForm(c *gin.Context, s session.Session) (*forms.Controller, bool) {
	def, ok := h.flow(c)
	if !ok {
		return nil, false
	}
	st, err := h.Drafts.Load(c.Request.Context(), c.Param("id"))
	if err == nil && (st.OwnerID != s.UserID() || st.Flow != def.Name) {
		err = domain.NotFoundError{Resource: "draft"}
	}
	if err != nil {
		RespondDomainError(c, err)
		return nil, false
	}
	return forms.Resume(def, st, h.Submitter), true
}

// claimForm takes the per-draft lock shared by every handler that changes a
// draft, so an edit cannot overwrite or revive a draft mid-submit.
func (h *Handlers) claimForm(c *gin.Context) (release func(), ok bool) {
	if h.InFlight == nil {
		return func() {}, true
	}
	release, ok = h.InFlight.Acquire("form/" + c.Param("id"))
	if !ok {
		RespondDomainError(c, domain.ConflictError{Resource: "form", Msg: "submission already in progress"})
	}
	return release, ok
}

func (h *Handlers) saveForm(c *gin.Context, ctrl *forms.Controller) bool {
	if err := h.Drafts.Save(c.Request.Context(), ctrl.State()); err != nil {
		utils.LogFailure(middleware.GetRequestID(c), "forms", "save_draft", err)
		RespondDomainError(c, err)
		return false
	}
	return true
}

// POST /api/forms/:flow
func (h *Handlers) StartForm(c *gin.Context, s session.Session) {
	def, ok := h.flow(c)
	if !ok {
		return
	}
	ctrl := forms.NewController(def, s.UserID(), h.Submitter)
	if !h.saveForm(c, ctrl) {
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "forms", "start", def.Name+" draft="+ctrl.State().ID)
	c.JSON(http.StatusCreated, ctrl.View())
}

// GET /api/forms/:flow/:id
func (h *Handlers) GetForm(c *gin.Context, s session.Session) {
	ctrl, ok := h.loadForm(c, s)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// PATCH /api/forms/:flow/:id with {"field": "value", ...}
func (h *Handlers) UpdateForm(c *gin.Context, s session.Session) {
	var values map[string]string
	if !BindJSONOrError(c, &values) {
		return
	}
	release, ok := h.claimForm(c)
	if !ok {
		return
	}
	defer release()

	ctrl, ok := h.loadForm(c, s)
	if !ok {
		return
	}
	if err := ctrl.SetFields(values); err != nil {
		RespondDomainError(c, err)
		return
	}
	if !h.saveForm(c, ctrl) {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// POST /api/forms/:flow/:id/files/:field, either multipart with a "file"
// part (file picker) or JSON {filename, dataUrl} (drag and drop).
func (h *Handlers) AttachFile(c *gin.Context, s session.Session) {
	release, ok := h.claimForm(c)
	if !ok {
		return
	}
	defer release()

	ctrl, ok := h.loadForm(c, s)
	if !ok {
		return
	}

	var (
		att *forms.Attachment
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if h.MaxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+(1<<20))
		}
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(ferr, &tooLarge) {
				RespondError(c, http.StatusRequestEntityTooLarge, "file too large", nil)
				return
			}
			RespondError(c, http.StatusBadRequest, "file part is missing", ferr)
			return
		}
		att, err = forms.AttachmentFromFileHeader(fh, h.MaxUploadBytes)
	} else {
		var up dataURLUpload
		if !BindJSONOrError(c, &up) {
			return
		}
		att, err = forms.AttachmentFromDataURL(up.Filename, up.DataURL, h.MaxUploadBytes)
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	if err := ctrl.Attach(c.Param("field"), att); err != nil {
		att.Release()
		RespondDomainError(c, err)
		return
	}
	if !h.saveForm(c, ctrl) {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// POST /api/forms/:flow/:id/advance
func (h *Handlers) AdvanceForm(c *gin.Context, s session.Session) {
	h.step(c, s, func(ctrl *forms.Controller) error {
		return ctrl.AdvanceStage(c.Request.Context(), s.AccessToken)
	})
}

// POST /api/forms/:flow/:id/submit
func (h *Handlers) SubmitForm(c *gin.Context, s session.Session) {
	h.step(c, s, func(ctrl *forms.Controller) error {
		return ctrl.Submit(c.Request.Context(), s.AccessToken)
	})
}

// step runs one stage transition on a draft, one at a time per draft. The
// view is always returned so the user sees the stage message or the
// server's reason. A form that reached its terminal stage is not kept.
func (h *Handlers) step(c *gin.Context, s session.Session, run func(*forms.Controller) error) {
	id := c.Param("id")
	release, ok := h.claimForm(c)
	if !ok {
		return
	}
	defer release()

	ctrl, ok := h.loadForm(c, s)
	if !ok {
		return
	}
	err := run(ctrl)
	view := ctrl.View()

	if view.Terminal {
		if derr := h.Drafts.Delete(c.Request.Context(), id); derr != nil {
			utils.LogFailure(middleware.GetRequestID(c), "forms", "delete_draft", derr)
		}
		ctrl.Close()
	} else if !h.saveForm(c, ctrl) {
		return
	}

	status := http.StatusOK
	switch {
	case err == nil:
	case domain.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case domain.IsConflict(err):
		status = http.StatusConflict
	case domain.IsRemote(err):
		var remote domain.RemoteError
		errors.As(err, &remote)
		status = remoteStatus(remote.Status)
	default:
		status = http.StatusBadGateway
	}
	c.JSON(status, view)
}

// DELETE /api/forms/:flow/:id discards the draft and its files.
func (h *Handlers) DiscardForm(c *gin.Context, s session.Session) {
	release, ok := h.claimForm(c)
	if !ok {
		return
	}
	defer release()

	ctrl, ok := h.loadForm(c, s)
	if !ok {
		return
	}
	ctrl.Close()
	if err := h.Drafts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
