// Package formloop runs a form's state machine on a single goroutine and
// carries out the effects it asks for.
package formloop

import (
	"context"
	"sync"
	"time"

	"github.com/abrezinsky/pairsync/internal/errors"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/selection"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultBuffer         = 64
)

// Diagnostic is a non-blocking failure report for the browser console
type Diagnostic struct {
	Op    string `json:"op"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Publisher receives the loop's output
type Publisher interface {
	PublishSnapshot(snapshot selection.Snapshot)
	PublishDiagnostic(d Diagnostic)
}

// Loop owns one form. All state changes happen on the goroutine running Run.
type Loop struct {
	log     logger.Logger
	client  tournamentapi.Client
	pub     Publisher
	timeout time.Duration
	events  chan selection.Event
	done    chan struct{}
	wg      sync.WaitGroup

	form     selection.Form
	mu       sync.RWMutex
	snapshot selection.Snapshot
}

// Option configures a Loop
type Option func(*Loop)

// WithRequestTimeout bounds each backend query
func WithRequestTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithBuffer sets how many events may queue before Dispatch blocks
func WithBuffer(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.events = make(chan selection.Event, n)
		}
	}
}

// New creates a loop for form. Call Run to start processing events.
func New(log logger.Logger, client tournamentapi.Client, form selection.Form, pub Publisher, opts ...Option) *Loop {
	l := &Loop{
		log:      log,
		client:   client,
		pub:      pub,
		timeout:  defaultRequestTimeout,
		events:   make(chan selection.Event, defaultBuffer),
		done:     make(chan struct{}),
		form:     form,
		snapshot: form.Snapshot(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes events until ctx is canceled, then waits for in-flight queries
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			l.handle(ctx, ev)
		}
	}
}

// Dispatch queues an event. It returns false once the loop has stopped.
func (l *Loop) Dispatch(ev selection.Event) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

// Done is closed when Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Snapshot returns the most recently rendered state
func (l *Loop) Snapshot() selection.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

func (l *Loop) handle(ctx context.Context, ev selection.Event) {
	next, effects := l.form.Reduce(ev)
	l.form = next

	for _, effect := range effects {
		l.perform(ctx, effect)
	}
}

func (l *Loop) perform(ctx context.Context, effect selection.Effect) {
	switch e := effect.(type) {
	case selection.FetchGroups:
		l.goFetch(ctx, func(reqCtx context.Context) selection.Event {
			groups, err := l.client.FetchTeamGroups(reqCtx, string(e.TournamentID))
			if err != nil {
				return selection.GroupsFailed{Generation: e.Generation, Err: err}
			}
			return selection.GroupsLoaded{
				Generation: e.Generation,
				Groups:     tournamentapi.Groups(groups),
				Preserved1: e.Preserved1,
				Preserved2: e.Preserved2,
			}
		})

	case selection.FetchPartner:
		l.goFetch(ctx, func(reqCtx context.Context) selection.Event {
			partner, err := l.client.FetchPreviousPartner(reqCtx, string(e.PlayerID))
			if err != nil {
				return selection.PartnerFailed{Generation: e.Generation, Err: err}
			}
			return selection.PartnerLoaded{
				Generation: e.Generation,
				PlayerID:   e.PlayerID,
				PartnerID:  models.EntityID(partner),
			}
		})

	case selection.ReportFailure:
		kind := errors.KindOf(e.Err)
		if kind == errors.ErrInvalidInput {
			l.log.Warn("Rejected form change", "op", e.Op, "error", e.Err)
		} else {
			l.log.Error("Form query failed", "op", e.Op, "kind", kind.String(), "error", e.Err)
		}
		l.pub.PublishDiagnostic(Diagnostic{Op: e.Op, Kind: kind.String(), Error: e.Err.Error()})

	case selection.ReportStale:
		l.log.Debug("Dropped stale response", "op", e.Op, "generation", e.Generation)

	case selection.Render:
		snapshot := l.form.Snapshot()
		l.mu.Lock()
		l.snapshot = snapshot
		l.mu.Unlock()
		l.pub.PublishSnapshot(snapshot)
	}
}

// goFetch runs query off the loop goroutine and feeds its result back as an event
func (l *Loop) goFetch(ctx context.Context, query func(context.Context) selection.Event) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		ev := query(reqCtx)
		select {
		case l.events <- ev:
		case <-ctx.Done():
		}
	}()
}
