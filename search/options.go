package search

import "fmt"

const (
	// DefaultThreshold is the similarity a match must strictly exceed.
	DefaultThreshold = 0.5
	// DefaultCount is the maximum number of matches returned.
	DefaultCount = 10
)

type query struct {
	threshold float64
	count     int
	monitor   SearchMonitor
}

// QueryOption configures a single search.
type QueryOption func(*query) error

// WithThreshold sets the similarity a match must strictly exceed.
func WithThreshold(threshold float64) QueryOption {
	return func(q *query) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
		}
		q.threshold = threshold
		return nil
	}
}

// WithCount sets the maximum number of matches.
func WithCount(count int) QueryOption {
	return func(q *query) error {
		if count < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidCount, count)
		}
		q.count = count
		return nil
	}
}

// WithMonitor attaches a monitor to one search.
func WithMonitor(monitor SearchMonitor) QueryOption {
	return func(q *query) error {
		if monitor != nil {
			q.monitor = monitor
		}
		return nil
	}
}

func newQuery(opts []QueryOption) (*query, error) {
	q := &query{
		threshold: DefaultThreshold,
		count:     DefaultCount,
		monitor:   &noopMonitor{},
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}
