package forms

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"frontend/internal/domain"
	"frontend/internal/secure"
)

// DraftStore keeps form state between requests.
type DraftStore interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, st State) error
	Delete(ctx context.Context, id string) error
}

// Codec serializes drafts, sealing them when a Box is configured.
type Codec struct {
	Box *secure.Box
}

func (c Codec) Encode(st State) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	if c.Box == nil {
		return raw, nil
	}
	return c.Box.Seal(raw)
}

func (c Codec) Decode(data []byte) (State, error) {
	var st State
	raw := data
	if c.Box != nil {
		opened, err := c.Box.Open(data)
		if err != nil {
			return st, domain.InternalError{Msg: "open draft", Err: err}
		}
		raw = opened
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, domain.InternalError{Msg: "decode draft", Err: err}
	}
	return st, nil
}

type memEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps drafts in process, expiring them after ttl of inactivity.
type MemoryStore struct {
	codec Codec
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	items map[string]memEntry
}

func NewMemoryStore(ttl time.Duration, codec Codec) *MemoryStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryStore{codec: codec, ttl: ttl, now: time.Now, items: map[string]memEntry{}}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	e, ok := s.items[id]
	if ok && s.now().After(e.expires) {
		delete(s.items, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return State{}, domain.NotFoundError{Resource: "draft"}
	}
	return s.codec.Decode(e.data)
}

func (s *MemoryStore) Save(ctx context.Context, st State) error {
	data, err := s.codec.Encode(st)
	if err != nil {
		return domain.InternalError{Msg: "encode draft", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[st.ID] = memEntry{data: data, expires: s.now().Add(s.ttl)}
	s.sweepLocked()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Len reports how many drafts are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, e := range s.items {
		if now.After(e.expires) {
			delete(s.items, id)
		}
	}
}
