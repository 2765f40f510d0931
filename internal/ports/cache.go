package ports

import (
	"context"
	"time"
)

// Cache is a small key-value capability. The status reader keeps the last
// good queue snapshot here so dashboards degrade to stale data instead of
// erroring while the broker is down.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
