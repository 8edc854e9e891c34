package repository

import "time"

// Option applies a configuration option to the MemoryBoardStore.
type Option func(*MemoryBoardStore)

// WithClock overrides time.Now for BuiltAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryBoardStore) {
		if now != nil {
			s.now = now
		}
	}
}
