package striped

import "go.uber.org/zap"

// Option configures a ShardSet.
type Option func(*setOptions)

type setOptions struct {
	logger *zap.Logger
}

func defaultSetOptions() *setOptions {
	return &setOptions{logger: zap.NewNop()}
}

// WithSetLogger sets the logger used for shard opens.
func WithSetLogger(logger *zap.Logger) Option {
	return func(o *setOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// ViewOption configures a View.
type ViewOption func(*viewOptions)

type viewOptions struct {
	parallelism int
	logger      *zap.Logger
	metrics     *Metrics
}

func defaultViewOptions() *viewOptions {
	return &viewOptions{
		parallelism: 1,
		logger:      zap.NewNop(),
	}
}

// WithParallelism reads up to n segments of one read concurrently.
// Values below 1 mean sequential reads.
func WithParallelism(n int) ViewOption {
	return func(o *viewOptions) {
		o.parallelism = max(n, 1)
	}
}

// WithLogger sets the logger used for view construction and reads.
func WithLogger(logger *zap.Logger) ViewOption {
	return func(o *viewOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records reads on m.
func WithMetrics(m *Metrics) ViewOption {
	return func(o *viewOptions) {
		o.metrics = m
	}
}
