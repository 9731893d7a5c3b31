package cache

import (
	"context"
	"time"
)

// Disabled returns a Cache that stores nothing, so every Get misses. It
// backs --no-cache and runners created without a cache.
func Disabled() Cache { return disabled{} }

type disabled struct{}

func (disabled) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (disabled) Delete(context.Context, string) error                     { return nil }
func (disabled) Close() error                                             { return nil }
