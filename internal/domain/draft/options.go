package draft

import (
	"time"

	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

// Option configures a Session.
type Option func(*Session)

// WithPickStore sets the persisted pick list the session loads from.
func WithPickStore(store PickStore) Option {
	return func(s *Session) { s.store = store }
}

// WithPersister routes saves through an asynchronous persister instead of the pick store.
func WithPersister(p Persister) Option {
	return func(s *Session) { s.persister = p }
}

// WithTransport sets the live-sync transport.
func WithTransport(t Transport) Option {
	return func(s *Session) { s.transport = t }
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPacing sets picks per round and total rounds used for progress and pick numbering.
func WithPacing(picksPerRound, totalRounds int) Option {
	return func(s *Session) {
		if picksPerRound > 0 {
			s.picksPerRound = picksPerRound
		}
		if totalRounds > 0 {
			s.totalRounds = totalRounds
		}
	}
}
