package repositories

import (
	"context"
	"errors"
	"time"

	intconfig "frontend/internal/config"
	"frontend/internal/domain"
	"frontend/internal/forms"

	"github.com/go-redis/redis/v8"
)

// DraftCmdable is the part of the redis client the draft cache needs.
type DraftCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DraftCache keeps sealed form drafts in Redis with a sliding TTL.
type DraftCache struct {
	Client DraftCmdable
	Codec  forms.Codec
	TTL    time.Duration
	Prefix string
}

func (c DraftCache) client() DraftCmdable {
	if c.Client != nil {
		return c.Client
	}
	if intconfig.Redis != nil {
		return intconfig.Redis
	}
	return nil
}

func (c DraftCache) key(id string) string {
	p := c.Prefix
	if p == "" {
		p = "form_draft:"
	}
	return p + id
}

func (c DraftCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return 2 * time.Hour
}

func (c DraftCache) Load(ctx context.Context, id string) (forms.State, error) {
	cl := c.client()
	if cl == nil {
		return forms.State{}, domain.InternalError{Msg: "redis not connected"}
	}
	data, err := cl.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return forms.State{}, domain.NotFoundError{Resource: "draft"}
		}
		return forms.State{}, domain.InternalError{Msg: "load draft", Err: err}
	}
	return c.Codec.Decode(data)
}

func (c DraftCache) Save(ctx context.Context, st forms.State) error {
	cl := c.client()
	if cl == nil {
		return domain.InternalError{Msg: "redis not connected"}
	}
	data, err := c.Codec.Encode(st)
	if err != nil {
		return domain.InternalError{Msg: "encode draft", Err: err}
	}
	if err := cl.Set(ctx, c.key(st.ID), data, c.ttl()).Err(); err != nil {
		return domain.InternalError{Msg: "save draft", Err: err}
	}
	return nil
}

func (c DraftCache) Delete(ctx context.Context, id string) error {
	cl := c.client()
	if cl == nil {
		return domain.InternalError{Msg: "redis not connected"}
	}
	if err := cl.Del(ctx, c.key(id)).Err(); err != nil {
		return domain.InternalError{Msg: "delete draft", Err: err}
	}
	return nil
}
