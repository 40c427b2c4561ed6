package dedupe

// Option applies a configuration option to the in-memory Deduper.
type Option func(*pendingSet)

// WithMaxSize caps the number of pending keys. Values <= 0 disable the cap.
func WithMaxSize(maxSize int) Option {
	return func(d *pendingSet) {
		d.maxSize = maxSize
	}
}
