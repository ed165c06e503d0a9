package forms

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/utils"

	"github.com/google/uuid"
)

const submitFailedMessage = "Something went wrong, please try again"

// State is the form state: field values, attachments and the stage pointer.
type State struct {
	ID           string                 `json:"id"`
	Flow         string                 `json:"flow"`
	OwnerID      string                 `json:"ownerId"`
	Values       map[string]string      `json:"values"`
	Files        map[string]*Attachment `json:"files,omitempty"`
	Stage        int                    `json:"stage"`
	Error        string                 `json:"error,omitempty"`
	IsSubmitting bool                   `json:"isSubmitting"`
	CreatedID    string                 `json:"createdId,omitempty"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func (s *State) hasFile(name string) bool {
	a := s.Files[name]
	return a != nil && len(a.Data) > 0
}

// Submitter sends the accumulated form to the create endpoint and returns
// the id of the created record.
type Submitter interface {
	Submit(ctx context.Context, token, endpoint string, fields map[string]string, files []apiclient.FilePart) (string, error)
}

type SubmitterFunc func(ctx context.Context, token, endpoint string, fields map[string]string, files []apiclient.FilePart) (string, error)

func (f SubmitterFunc) Submit(ctx context.Context, token, endpoint string, fields map[string]string, files []apiclient.FilePart) (string, error) {
	return f(ctx, token, endpoint, fields, files)
}

type created struct {
	ID string `json:"id"`
}

// APISubmitter posts forms as multipart to the marketplace API.
func APISubmitter(c *apiclient.Client) Submitter {
	return SubmitterFunc(func(ctx context.Context, token, endpoint string, fields map[string]string, files []apiclient.FilePart) (string, error) {
		res := apiclient.PostMultipart[created](ctx, c, token, endpoint, fields, files)
		if !res.OK() {
			return "", res.Err
		}
		return res.Value.ID, nil
	})
}

// Controller drives one form instance through its stages.
type Controller struct {
	def    Definition
	submit Submitter
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// NewController starts a fresh form at stage 0.
func NewController(def Definition, ownerID string, submit Submitter) *Controller {
	return &Controller{
		def:    def,
		submit: submit,
		now:    time.Now,
		state: State{
			ID:        uuid.NewString(),
			Flow:      def.Name,
			OwnerID:   ownerID,
			Values:    map[string]string{},
			Files:     map[string]*Attachment{},
			UpdatedAt: time.Now(),
		},
	}
}

// Resume continues a form from a stored draft.
func Resume(def Definition, st State, submit Submitter) *Controller {
	if st.Values == nil {
		st.Values = map[string]string{}
	}
	if st.Files == nil {
		st.Files = map[string]*Attachment{}
	}
	// A draft stored mid-submit belongs to a request that is gone.
	st.IsSubmitting = false
	return &Controller{def: def, submit: submit, now: time.Now, state: st}
}

// State returns a copy of the form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Values = make(map[string]string, len(c.state.Values))
	for k, v := range c.state.Values {
		s.Values[k] = v
	}
	s.Files = make(map[string]*Attachment, len(c.state.Files))
	for k, v := range c.state.Files {
		s.Files[k] = v
	}
	return s
}

func (c *Controller) currentStage() (Stage, error) {
	st, ok := c.def.stage(c.state.Stage)
	if !ok {
		return Stage{}, domain.ValidationError{Field: "stage", Msg: fmt.Sprintf("invalid stage %d", c.state.Stage)}
	}
	if st.Terminal {
		return Stage{}, domain.ConflictError{Resource: "form", Msg: "form already submitted"}
	}
	return st, nil
}

// SetField updates one input of the current stage.
func (c *Controller) SetField(name, value string) error {
	return c.SetFields(map[string]string{name: value})
}

// SetFields updates several inputs of the current stage at once. Either all
// values are applied or none.
func (c *Controller) SetFields(values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.currentStage()
	if err != nil {
		return err
	}
	for name := range values {
		f, ok := st.field(name)
		if !ok {
			return domain.ValidationError{Field: name, Msg: fmt.Sprintf("%s is not part of stage %s", name, st.Name)}
		}
		if f.Kind == KindFile {
			return domain.ValidationError{Field: name, Msg: name + " expects a file"}
		}
	}
	for name, v := range values {
		f, _ := st.field(name)
		c.state.Values[name] = normalize(f, v)
	}
	c.state.UpdatedAt = c.now()
	return nil
}

// Attach stores a file for a file field of the current stage, releasing the
// attachment it replaces.
func (c *Controller) Attach(name string, a *Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.currentStage()
	if err != nil {
		return err
	}
	f, ok := st.field(name)
	if !ok || f.Kind != KindFile {
		return domain.ValidationError{Field: name, Msg: fmt.Sprintf("%s is not a file field of stage %s", name, st.Name)}
	}
	if a == nil || len(a.Data) == 0 {
		return domain.ValidationError{Field: name, Msg: "file is empty"}
	}
	if f.Accept != "" && !strings.HasPrefix(a.ContentType, f.Accept) {
		return domain.ValidationError{Field: name, Msg: fmt.Sprintf("%s must be %s*", name, f.Accept)}
	}
	if prev := c.state.Files[name]; prev != nil && prev != a {
		prev.Release()
	}
	c.state.Files[name] = a
	c.state.UpdatedAt = c.now()
	return nil
}

// AdvanceStage validates the current stage and moves to the next one. On the
// last input stage advancing means submitting the form.
func (c *Controller) AdvanceStage(ctx context.Context, token string) error {
	c.mu.Lock()
	st, err := c.currentStage()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if err := st.validate(&c.state); err != nil {
		c.state.Error = validationMessage(err)
		c.mu.Unlock()
		return err
	}
	if c.state.Stage+1 == c.def.terminalIndex() {
		c.mu.Unlock()
		return c.Submit(ctx, token)
	}
	c.state.Error = ""
	c.state.Stage++
	c.state.UpdatedAt = c.now()
	c.mu.Unlock()
	return nil
}

// Submit validates every input stage, then posts the accumulated state as a
// single multipart payload. Success moves the form to its terminal stage.
func (c *Controller) Submit(ctx context.Context, token string) error {
	c.mu.Lock()
	if _, err := c.currentStage(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.IsSubmitting {
		c.mu.Unlock()
		return domain.ConflictError{Resource: "form", Msg: "submission already in progress"}
	}
	for _, st := range c.def.Stages[:c.def.terminalIndex()] {
		if err := st.validate(&c.state); err != nil {
			c.state.Error = validationMessage(err)
			c.mu.Unlock()
			return err
		}
	}
	fields, files := c.payload()
	c.state.IsSubmitting = true
	c.state.Error = ""
	id := c.state.ID
	c.mu.Unlock()

	createdID, err := c.submit.Submit(ctx, token, c.def.Endpoint, fields, files)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsSubmitting = false
	c.state.UpdatedAt = c.now()
	if err != nil {
		c.state.Error = domain.RemoteMessage(err, submitFailedMessage)
		utils.LogFailure("", c.def.Name, "submit", err)
		return err
	}

	c.state.Stage = c.def.terminalIndex()
	c.state.CreatedID = createdID
	for _, name := range c.def.Sensitive {
		delete(c.state.Values, name)
	}
	for name, a := range c.state.Files {
		a.Release()
		delete(c.state.Files, name)
	}
	utils.LogEvent("", c.def.Name, "submit", fmt.Sprintf("draft=%s created=%s", id, createdID))
	return nil
}

func (c *Controller) payload() (map[string]string, []apiclient.FilePart) {
	fields := map[string]string{}
	var files []apiclient.FilePart
	for _, st := range c.def.Stages {
		for _, f := range st.Fields {
			if f.Kind == KindFile {
				if a := c.state.Files[f.Name]; a != nil && len(a.Data) > 0 {
					files = append(files, apiclient.FilePart{
						Field:       f.Name,
						Filename:    a.Filename,
						ContentType: a.ContentType,
						Data:        a.Data,
					})
				}
				continue
			}
			if v := strings.TrimSpace(c.state.Values[f.Name]); v != "" {
				fields[f.Name] = v
			}
		}
	}
	return fields, files
}

// Close releases every attachment held by the form.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.state.Files {
		a.Release()
	}
}

func validationMessage(err error) string {
	if ve, ok := err.(domain.ValidationError); ok && ve.Msg != "" {
		return ve.Msg
	}
	return err.Error()
}
