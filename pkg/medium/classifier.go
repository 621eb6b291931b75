package medium

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Classifier maps a path to the medium it lives on. Results may be wrong or
// unavailable; an error means Unknown.
type Classifier interface {
	Classify(ctx context.Context, path string) (Kind, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, path string) (Kind, error)

func (f ClassifierFunc) Classify(ctx context.Context, path string) (Kind, error) {
	return f(ctx, path)
}

// Static always reports the same kind. Used when the operator names the
// medium explicitly.
type Static Kind

func (s Static) Classify(context.Context, string) (Kind, error) { return Kind(s), nil }

// Resolve runs c and collapses any failure to Unknown.
func Resolve(ctx context.Context, c Classifier, path string, logger *zap.Logger) Kind {
	if c == nil {
		return Unknown
	}
	kind, err := c.Classify(ctx, path)
	if err != nil || !kind.Valid() {
		if logger != nil {
			logger.Debug("Medium classification unavailable",
				zap.String("path", path), zap.Error(err))
		}
		return Unknown
	}
	return kind
}

// DeviceFunc returns a stable identifier for the device holding path.
type DeviceFunc func(path string) (uint64, error)

// Cached memoises an inner classifier per backing device.
type Cached struct {
	inner    Classifier
	deviceOf DeviceFunc
	c        *gocache.Cache
}

// NewCached wraps inner. A nil deviceOf uses the platform device lookup.
func NewCached(inner Classifier, ttl time.Duration, deviceOf DeviceFunc) *Cached {
	if deviceOf == nil {
		deviceOf = DeviceID
	}
	return &Cached{
		inner:    inner,
		deviceOf: deviceOf,
		c:        gocache.New(ttl, time.Minute),
	}
}

func (c *Cached) Classify(ctx context.Context, path string) (Kind, error) {
	dev, err := c.deviceOf(path)
	if err != nil {
		return c.inner.Classify(ctx, path)
	}
	key := fmt.Sprintf("dev:%d", dev)
	if v, ok := c.c.Get(key); ok {
		if k, ok := v.(Kind); ok {
			return k, nil
		}
	}
	kind, err := c.inner.Classify(ctx, path)
	if err != nil {
		return kind, err
	}
	c.c.SetDefault(key, kind)
	return kind, nil
}
