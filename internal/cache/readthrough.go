package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Outcome tells the caller where the data came from.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeFetched Outcome = "fetched"
	OutcomeStale   Outcome = "stale"
	OutcomeFailed  Outcome = "failed"
)

// FetchFunc loads fresh data from the backend.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// rateLimited is satisfied by restclient.Error.
type rateLimited interface {
	IsRateLimited() bool
}

type prefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// ReadThrough serves fresh entries from Store and refreshes them through a
// FetchFunc otherwise. A refresh rejected with HTTP 429 falls back to
// whatever entry exists, however old.
type ReadThrough struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Entry
}

func NewReadThrough(store Store, ttl time.Duration, logger *logrus.Logger) *ReadThrough {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReadThrough{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithField("component", "cache"),
	}
}

// SetClock replaces time.Now.
func (c *ReadThrough) SetClock(now func() time.Time) {
	c.now = now
}

func (c *ReadThrough) Get(ctx context.Context, key string, fetch FetchFunc) (json.RawMessage, Outcome, error) {
	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
		found = false
	}

	if found && entry.Age(c.now()) < c.ttl {
		return entry.Data, OutcomeHit, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		var rl rateLimited
		if found && errors.As(err, &rl) && rl.IsRateLimited() {
			c.logger.WithField("key", key).Info("rate limited, serving stale entry")
			return entry.Data, OutcomeStale, nil
		}
		return nil, OutcomeFailed, err
	}

	if err := c.store.Set(ctx, key, Entry{Data: data, Timestamp: c.now()}); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return data, OutcomeFetched, nil
}

// Invalidate removes entries whose key starts with prefix, when the store
// supports it.
func (c *ReadThrough) Invalidate(ctx context.Context, prefix string) {
	deleter, ok := c.store.(prefixDeleter)
	if !ok {
		return
	}
	if err := deleter.DeletePrefix(ctx, prefix); err != nil {
		c.logger.WithError(err).WithField("prefix", prefix).Warn("cache invalidation failed")
	}
}
