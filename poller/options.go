package poller

import (
	"time"

	"github.com/Trinoooo/eggie_poll/consts"
)

type options struct {
	substrate   Substrate
	maxPollSets int
	waitSlice   time.Duration
	metrics     *MetricsHelper
}

type Option func(*options)

// WithSubstrate replaces the platform readiness primitive. Only the
// emulated backend uses it.
func WithSubstrate(s Substrate) Option {
	return func(o *options) {
		o.substrate = s
	}
}

// WithMaxPollSets caps the poll-set id space to [1, n].
func WithMaxPollSets(n int) Option {
	return func(o *options) {
		o.maxPollSets = n
	}
}

// WithWaitSlice sets how long one wait iteration may block while holding
// the guard.
func WithWaitSlice(d time.Duration) Option {
	return func(o *options) {
		o.waitSlice = d
	}
}

func WithMetrics(m *MetricsHelper) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		maxPollSets: consts.DefaultMaxPollSets,
		waitSlice:   consts.DefaultWaitSlice,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.substrate == nil {
		o.substrate = newSubstrate()
	}
	if o.maxPollSets <= 0 {
		o.maxPollSets = consts.DefaultMaxPollSets
	}
	if o.waitSlice <= 0 {
		o.waitSlice = consts.DefaultWaitSlice
	}
	return o
}
