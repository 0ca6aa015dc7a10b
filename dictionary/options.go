package dictionary

import (
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

type settings struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a dictionary.
type Option func(*settings) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPool sets the worker pool used to decode records concurrently. The
// pool is shared, not owned: the caller releases it. Without a pool,
// records are decoded one after another.
func WithPool(pool *ants.Pool) Option {
	return func(s *settings) error {
		s.pool = pool
		return nil
	}
}

func applyOptions(opts []Option) (settings, error) {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return s, err
		}
	}
	return s, nil
}
