package domain

import (
	"net/url"
	"sort"
	"strconv"
)

// DefaultPageSize is the page size every list view requests.
const DefaultPageSize = 10

// Page is one page of records as returned by the marketplace API.
type Page[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// EffectiveTotalPages treats an empty result set as a single page.
func (p Page[T]) EffectiveTotalPages() int {
	if p.TotalPages < 1 {
		return 1
	}
	return p.TotalPages
}

// PageQuery carries paging params and fixed filters for a list endpoint.
type PageQuery struct {
	PageNumber int
	PageSize   int
	Filters    map[string]string
}

// Values encodes the query the way the API expects it:
// pageNumber=<n>&pageSize=<m>[&<filters>].
func (q PageQuery) Values() url.Values {
	v := url.Values{}
	page := q.PageNumber
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	v.Set("pageNumber", strconv.Itoa(page))
	v.Set("pageSize", strconv.Itoa(size))

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if q.Filters[k] == "" {
			continue
		}
		v.Set(k, q.Filters[k])
	}
	return v
}

// Action is a remote state transition a user can trigger on a record.
type Action string

const (
	ActionPickup   Action = "pickup"
	ActionDeliver  Action = "deliver"
	ActionAccept   Action = "accept"
	ActionDecline  Action = "declined"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
)

// Record is a domain object shown in a list view.
type Record interface {
	RecordID() string
	// Actions lists the transitions that are legal for the record's current flags.
	Actions() []Action
}

// HasAction reports whether r currently offers a.
func HasAction(r Record, a Action) bool {
	for _, x := range r.Actions() {
		if x == a {
			return true
		}
	}
	return false
}
