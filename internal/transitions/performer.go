// Package transitions runs user-triggered remote state changes on list
// records (accept, decline, pickup, deliver, start, complete) and refreshes
// the list afterwards.
package transitions

import (
	"context"
	"fmt"
	"sync"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/utils"
)

// Mutator issues the remote mutation for one transition.
type Mutator interface {
	Mutate(ctx context.Context, token, resource string, action domain.Action, id string) error
}

type MutatorFunc func(ctx context.Context, token, resource string, action domain.Action, id string) error

func (f MutatorFunc) Mutate(ctx context.Context, token, resource string, action domain.Action, id string) error {
	return f(ctx, token, resource, action, id)
}

// APIMutator sends PUT <resource>/<action>/<id> to the marketplace API.
func APIMutator(c *apiclient.Client) Mutator {
	return MutatorFunc(func(ctx context.Context, token, resource string, action domain.Action, id string) error {
		res := apiclient.PutAction(ctx, c, token, resource, action, id)
		if !res.OK() {
			return res.Err
		}
		return nil
	})
}

// Refresher is the list a transition belongs to.
type Refresher interface {
	SetLoading(loading bool)
	Refetch(ctx context.Context) error
}

// InFlight tracks transitions currently being sent so a double click does
// not fire the same mutation twice. One instance is shared process-wide.
type InFlight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{keys: map[string]struct{}{}}
}

// Acquire claims key. It reports false while another holder has it; the
// returned func releases the claim.
func (f *InFlight) Acquire(key string) (func(), bool) {
	if !f.acquire(key) {
		return func() {}, false
	}
	return func() { f.release(key) }, true
}

func (f *InFlight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *InFlight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

// Performer runs transitions for one record type.
type Performer struct {
	Resource  string
	Mutator   Mutator
	List      Refresher
	InFlight  *InFlight
	RequestID string
}

// Perform validates that action is currently offered by rec, sends the
// mutation and then refetches the list exactly once, whether or not the
// mutation succeeded. The mutation error is returned to the caller.
func (p Performer) Perform(ctx context.Context, token string, rec domain.Record, action domain.Action) error {
	id := rec.RecordID()
	if !domain.HasAction(rec, action) {
		return domain.ValidationError{Field: "action", Msg: fmt.Sprintf("%s is not available for %s %s", action, p.Resource, id)}
	}

	if p.InFlight != nil {
		key := p.Resource + "/" + id + "/" + string(action)
		if !p.InFlight.acquire(key) {
			return domain.ConflictError{Resource: p.Resource, Msg: fmt.Sprintf("%s already in progress", action)}
		}
		defer p.InFlight.release(key)
	}

	p.List.SetLoading(true)
	err := p.Mutator.Mutate(ctx, token, p.Resource, action, id)
	if err != nil {
		utils.LogFailure(p.RequestID, p.Resource, string(action), err)
	} else {
		utils.LogEvent(p.RequestID, p.Resource, string(action), fmt.Sprintf("id=%s", id))
	}

	if rerr := p.List.Refetch(ctx); rerr != nil {
		utils.LogFailure(p.RequestID, p.Resource, "refetch", rerr)
	}
	return err
}
