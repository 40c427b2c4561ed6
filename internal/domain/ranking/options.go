package ranking

// Defaults applied when no option overrides them.
const (
	DefaultMinDurationSlots = 1
	DefaultTopN             = 10
)

// Options holds the tunables of FindBestTimes.
type Options struct {
	// MinDurationSlots drops runs shorter than this many slots. Values
	// below 1 behave as 1.
	MinDurationSlots int
	// TopN caps the result length. Values below 1 produce an empty result.
	TopN int
}

// Option applies a configuration option to Options.
type Option func(*Options)

// WithMinDurationSlots sets the minimum block length in slots.
func WithMinDurationSlots(n int) Option {
	return func(o *Options) {
		o.MinDurationSlots = n
	}
}

// WithTopN sets how many ranked blocks are returned.
func WithTopN(n int) Option {
	return func(o *Options) {
		o.TopN = n
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		MinDurationSlots: DefaultMinDurationSlots,
		TopN:             DefaultTopN,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MinDurationSlots < 1 {
		o.MinDurationSlots = 1
	}
	return o
}
