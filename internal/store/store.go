// Package store provides keyed blob stores for the visibility result cache.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-comets/internal/visibility"
)

// Backend names accepted by New.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendOff    = "off"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MemoryTTL     time.Duration // upper bound on entry lifetime for the memory backend
	MemorySize    int
}

// New returns the store for opts.Backend. "off" returns nil, which the
// result cache treats as caching disabled.
func New(opts Options) (visibility.Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB), nil
	case BackendMemory, "":
		return NewMemoryStore(opts.MemorySize, opts.MemoryTTL), nil
	case BackendOff, "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
