package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// DefaultSchedule polls every five seconds.
const DefaultSchedule = "@every 5s"

// Source returns the full pick list of an external draft.
type Source interface {
	DraftPicks(ctx context.Context, externalID string) ([]model.DraftPick, error)
}

// Target receives the mirrored pick list. draft.Session implements it.
type Target interface {
	ReplaceExternal(ctx context.Context, picks []model.DraftPick) error
}

// Watch describes one mirrored draft.
type Watch struct {
	ExternalID string
	DraftID    string
	Target     Target
}

// WatchStatus is the last known state of a watch.
type WatchStatus struct {
	ExternalID string    `json:"external_id"`
	DraftID    string    `json:"draft_id"`
	Schedule   string    `json:"schedule"`
	LastRun    time.Time `json:"last_run"`
	NextRun    time.Time `json:"next_run"`
	Picks      int       `json:"picks"`
	RunCount   int       `json:"run_count"`
	ErrorCount int       `json:"error_count"`
	LastError  string    `json:"last_error,omitempty"`
}

type watchState struct {
	Watch
	entry  cron.EntryID
	status WatchStatus
}

// Poller mirrors external drafts on a cron schedule.
type Poller struct {
	source  Source
	cron    *cron.Cron
	log     logger.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	watches map[string]*watchState
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets the poller logger.
func WithPollerLogger(l logger.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithPollTimeout bounds one poll.
func WithPollTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPoller creates a stopped poller reading from source.
func NewPoller(source Source, opts ...PollerOption) *Poller {
	p := &Poller{
		source:  source,
		log:     logger.Nop(),
		timeout: 4 * time.Second,
		watches: make(map[string]*watchState),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	cl := cronLogger{log: p.log}
	p.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return p
}

// Add schedules w. schedule is a cron spec; empty means DefaultSchedule.
// Adding a draft id that is already watched replaces the previous watch.
func (p *Poller) Add(schedule string, w Watch) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	st := &watchState{Watch: w, status: WatchStatus{ExternalID: w.ExternalID, DraftID: w.DraftID, Schedule: schedule}}
	id, err := p.cron.AddFunc(schedule, func() { p.Poll(p.ctx, w.DraftID) })
	if err != nil {
		return fmt.Errorf("schedule sync of %s: %w", w.ExternalID, err)
	}
	st.entry = id

	p.mu.Lock()
	if old, ok := p.watches[w.DraftID]; ok {
		p.cron.Remove(old.entry)
	}
	p.watches[w.DraftID] = st
	p.mu.Unlock()

	p.log.Info(p.ctx, "external draft sync scheduled",
		logger.String("external_id", w.ExternalID), logger.String("draft_id", w.DraftID), logger.String("schedule", schedule))
	return nil
}

// Remove stops mirroring draftID.
func (p *Poller) Remove(draftID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.watches[draftID]
	if ok {
		p.cron.Remove(st.entry)
		delete(p.watches, draftID)
	}
	return ok
}

// Watching reports whether draftID is mirrored.
func (p *Poller) Watching(draftID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.watches[draftID]
	return ok
}

// Poll runs one sync of draftID immediately.
func (p *Poller) Poll(ctx context.Context, draftID string) {
	p.mu.Lock()
	st, ok := p.watches[draftID]
	p.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	picks, err := p.source.DraftPicks(ctx, st.ExternalID)

	p.mu.Lock()
	st.status.LastRun = time.Now()
	st.status.RunCount++
	if err != nil {
		st.status.ErrorCount++
		st.status.LastError = err.Error()
		p.mu.Unlock()
		metrics.RecordExternalPoll("error")
		p.log.Warn(ctx, "external draft poll failed", logger.String("external_id", st.ExternalID), logger.Error(err))
		return
	}
	st.status.LastError = ""
	st.status.Picks = len(picks)
	p.mu.Unlock()
	if n := len(picks); n > 0 {
		metrics.UpdateExternalLastPick(picks[n-1].Overall)
	}

	// Every poll re-applies the full list: the target may have been reloaded from
	// its own store since the last one.
	if err := st.Target.ReplaceExternal(ctx, picks); err != nil {
		metrics.RecordExternalPoll("error")
		p.log.Warn(ctx, "apply external picks failed", logger.String("draft_id", st.DraftID), logger.Error(err))
		return
	}
	metrics.RecordExternalPoll("ok")
	p.log.Debug(ctx, "external picks applied", logger.String("draft_id", st.DraftID), logger.Int("picks", len(picks)))
}

// Status lists every watch.
func (p *Poller) Status() []WatchStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]WatchStatus, 0, len(p.watches))
	for _, st := range p.watches {
		s := st.status
		s.NextRun = p.cron.Entry(st.entry).Next
		out = append(out, s)
	}
	return out
}

// Start begins polling in the background.
func (p *Poller) Start() { p.cron.Start() }

// Stop halts the schedule and waits up to timeout for running polls.
func (p *Poller) Stop(timeout time.Duration) {
	p.cancel()
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		p.log.Warn(context.Background(), "external sync stop timed out")
	}
}

// cronLogger routes scheduler messages to the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(context.Background(), "cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(context.Background(), "cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
