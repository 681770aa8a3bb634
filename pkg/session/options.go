package session

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/joshuapare/regremote/pkg/types"
)

// Options configures a session.
type Options struct {
	// ConnectAttempts bounds how many times Connect is tried before the
	// ConnectionError is returned. Only connection failures are retried.
	// Default: 1 (no retry)
	ConnectAttempts int

	// ConnectDelay is the fixed pause between connect attempts.
	// Default: 1s
	ConnectDelay time.Duration

	// Limits are checked against key paths and value names before any
	// transport call.
	// Default: types.DefaultLimits()
	Limits types.Limits

	// Logger receives lifecycle events at debug level.
	// Default: zerolog.Nop()
	Logger zerolog.Logger
}

// DefaultOptions returns options for a single connect attempt with standard
// limits and no logging.
func DefaultOptions() *Options {
	return &Options{
		ConnectAttempts: 1,
		ConnectDelay:    time.Second,
		Limits:          types.DefaultLimits(),
		Logger:          zerolog.Nop(),
	}
}

func (o *Options) withDefaults() Options {
	d := DefaultOptions()
	if o == nil {
		return *d
	}
	out := *o
	if out.ConnectAttempts < 1 {
		out.ConnectAttempts = d.ConnectAttempts
	}
	if out.ConnectDelay < 0 {
		out.ConnectDelay = 0
	}
	if out.Limits == (types.Limits{}) {
		out.Limits = d.Limits
	}
	return out
}

// EffectiveLimits returns the limits a session opened with o would enforce.
func (o *Options) EffectiveLimits() types.Limits {
	return o.withDefaults().Limits
}
