package listing

import "frontend/internal/domain"

const (
	StatusLoading = "loading"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
	StatusReady   = "ready"
)

// RecordView pairs a record with the actions its current flags allow.
type RecordView[T any] struct {
	Record  T               `json:"record"`
	Actions []domain.Action `json:"actions"`
}

// View is the render contract of a list: a status, the records and the pager.
type View[T any] struct {
	Status      string          `json:"status"`
	Records     []RecordView[T] `json:"records"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	Error       string          `json:"error,omitempty"`
	Retry       bool            `json:"retry,omitempty"`
	Pager       []PageControl   `json:"pager"`
}

// View renders the current state. While loading no records are shown.
func (c *Controller[T]) View() View[T] {
	s := c.State()
	v := View[T]{
		CurrentPage: s.CurrentPage,
		TotalPages:  s.TotalPages,
		Records:     []RecordView[T]{},
		Pager:       Pager(s.CurrentPage, s.TotalPages),
	}
	switch {
	case s.Loading:
		v.Status = StatusLoading
	case s.Failed:
		v.Status = StatusFailed
		v.Error = s.Err
		v.Retry = true
	case len(s.Records) == 0:
		v.Status = StatusEmpty
	default:
		v.Status = StatusReady
		for _, r := range s.Records {
			actions := r.Actions()
			if actions == nil {
				actions = []domain.Action{}
			}
			v.Records = append(v.Records, RecordView[T]{Record: r, Actions: actions})
		}
	}
	return v
}

type ControlKind string

const (
	ControlFirst    ControlKind = "first"
	ControlPrevious ControlKind = "previous"
	ControlCurrent  ControlKind = "current"
	ControlNext     ControlKind = "next"
	ControlLast     ControlKind = "last"
)

// PageControl is one button of the pagination bar.
type PageControl struct {
	Kind   ControlKind `json:"kind"`
	Page   int         `json:"page"`
	Active bool        `json:"active,omitempty"`
}

// Pager lays out the pagination bar. First, current and last are always
// present, merged when they point at the same page. Previous is omitted when
// current <= 2 and next when current >= total-1, so no two controls target
// the same page.
func Pager(current, total int) []PageControl {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	out := []PageControl{{Kind: ControlFirst, Page: 1, Active: current == 1}}
	if current > 2 {
		out = append(out, PageControl{Kind: ControlPrevious, Page: current - 1})
	}
	if current != 1 && current != total {
		out = append(out, PageControl{Kind: ControlCurrent, Page: current, Active: true})
	}
	if current < total-1 {
		out = append(out, PageControl{Kind: ControlNext, Page: current + 1})
	}
	if total > 1 {
		out = append(out, PageControl{Kind: ControlLast, Page: total, Active: current == total})
	}
	return out
}
