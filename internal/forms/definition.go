// Package forms implements multi-stage forms: an ordered list of stages,
// each gating advancement on its own required fields, ending in a single
// multipart submission and a terminal success stage.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	"frontend/internal/domain"
	"frontend/internal/utils"
)

type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindSelect FieldKind = "select"
	KindDate   FieldKind = "date"
	KindFile   FieldKind = "file"
	KindBool   FieldKind = "bool"
)

// Field is one input of a stage.
type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	// Accept is a content-type prefix files must match, e.g. "image/".
	Accept string `json:"accept,omitempty"`
	// Upper normalizes the value to upper case without inner spaces (plates, document numbers).
	Upper bool `json:"-"`
}

// Stage is one step of a form. The last stage of a definition is terminal
// and carries no inputs.
type Stage struct {
	Name     string
	Fields   []Field
	Message  string
	Terminal bool
}

// Definition describes a whole multi-stage form and where it is submitted.
type Definition struct {
	Name     string
	Endpoint string
	Stages   []Stage
	// Sensitive values are cleared from the draft once submitted.
	Sensitive []string
}

func (d Definition) terminalIndex() int {
	return len(d.Stages) - 1
}

func (d Definition) stage(i int) (Stage, bool) {
	if i < 0 || i >= len(d.Stages) {
		return Stage{}, false
	}
	return d.Stages[i], true
}

// Check verifies the shape of a definition: at least one input stage, a single
// terminal stage at the end, unique field names.
func (d Definition) Check() error {
	if len(d.Stages) < 2 {
		return fmt.Errorf("form %s: need an input stage and a terminal stage", d.Name)
	}
	seen := map[string]bool{}
	for i, s := range d.Stages {
		last := i == len(d.Stages)-1
		if s.Terminal != last {
			return fmt.Errorf("form %s: stage %d terminal=%v", d.Name, i, s.Terminal)
		}
		if s.Terminal && len(s.Fields) > 0 {
			return fmt.Errorf("form %s: terminal stage has inputs", d.Name)
		}
		for _, f := range s.Fields {
			if seen[f.Name] {
				return fmt.Errorf("form %s: duplicate field %s", d.Name, f.Name)
			}
			seen[f.Name] = true
		}
	}
	return nil
}

func (s Stage) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Stage) requiredMessage() string {
	if s.Message != "" {
		return s.Message
	}
	return "Please fill in all required fields"
}

// validate checks the stage's required-field predicate over st.
func (s Stage) validate(st *State) error {
	for _, f := range s.Fields {
		if f.Kind == KindFile {
			if f.Required && !st.hasFile(f.Name) {
				return domain.ValidationError{Field: f.Name, Msg: s.requiredMessage()}
			}
			continue
		}

		v := strings.TrimSpace(st.Values[f.Name])
		if v == "" {
			if f.Required {
				return domain.ValidationError{Field: f.Name, Msg: s.requiredMessage()}
			}
			continue
		}

		switch f.Kind {
		case KindNumber:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return domain.ValidationError{Field: f.Name, Msg: f.Name + " must be a number"}
			}
		case KindDate:
			if _, err := utils.ParseDate(v); err != nil {
				return domain.ValidationError{Field: f.Name, Msg: f.Name + " must be a date (YYYY-MM-DD)"}
			}
		case KindSelect:
			if len(f.Options) > 0 && !contains(f.Options, v) {
				return domain.ValidationError{Field: f.Name, Msg: f.Name + " has an unknown value"}
			}
		case KindBool:
			if f.Required && v != "true" {
				return domain.ValidationError{Field: f.Name, Msg: s.requiredMessage()}
			}
		}
	}
	return nil
}

func normalize(f Field, v string) string {
	if f.Upper {
		return utils.NormalizePlate(v)
	}
	if f.Kind == KindBool {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return "false"
		}
		return strconv.FormatBool(b)
	}
	return v
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
