package forms

// FieldView is how one input of the current stage is presented.
type FieldView struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	Value    string    `json:"value,omitempty"`
	HasFile  bool      `json:"hasFile,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Preview  string    `json:"preview,omitempty"`
}

// StageView is the render contract of a form.
type StageView struct {
	ID           string      `json:"id"`
	Flow         string      `json:"flow"`
	Stage        int         `json:"stage"`
	StageName    string      `json:"stageName"`
	StageCount   int         `json:"stageCount"`
	Fields       []FieldView `json:"fields"`
	Error        string      `json:"error,omitempty"`
	IsSubmitting bool        `json:"isSubmitting"`
	Terminal     bool        `json:"terminal"`
	Invalid      bool        `json:"invalid,omitempty"`
	CreatedID    string      `json:"createdId,omitempty"`
}

// View renders the current stage. A stage index with no definition renders
// as an invalid-stage placeholder instead of failing.
func (c *Controller) View() StageView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := StageView{
		ID:           c.state.ID,
		Flow:         c.def.Name,
		Stage:        c.state.Stage,
		StageCount:   len(c.def.Stages),
		Fields:       []FieldView{},
		Error:        c.state.Error,
		IsSubmitting: c.state.IsSubmitting,
		CreatedID:    c.state.CreatedID,
	}

	st, ok := c.def.stage(c.state.Stage)
	if !ok {
		v.Invalid = true
		v.StageName = "invalid"
		return v
	}
	v.StageName = st.Name
	v.Terminal = st.Terminal

	for _, f := range st.Fields {
		fv := FieldView{Name: f.Name, Kind: f.Kind, Required: f.Required, Options: f.Options}
		if f.Kind == KindFile {
			if a := c.state.Files[f.Name]; a != nil && len(a.Data) > 0 {
				fv.HasFile = true
				fv.Filename = a.Filename
				fv.Preview = a.Preview()
			}
		} else {
			fv.Value = c.state.Values[f.Name]
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}
