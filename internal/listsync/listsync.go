// Package listsync keeps a paginated snippet list in step with the API.
//
// STATE MACHINE:
//
//	          Refresh / ToggleMode / ResyncAfterMutation
//	   ┌──────────────────────────────────────────────────────┐
//	   ▼                                                      │
//	 Idle ──── LoadMore (HasMore) ────► Loading ──── done ───►┘
//	   ▲                                  │
//	   └─────────── response ─────────────┘
//
// A reset (Refresh, a mode switch, a resync after a create or edit) empties
// the list, goes back to page 1 and bumps a GENERATION counter before it
// fetches. Every fetch remembers the generation it was issued under; when
// its response arrives and the generation has moved on, the response is
// thrown away. That is the only thing standing between a slow "All" page and
// a freshly toggled "Mine" list, so it is checked on every commit.
//
// LoadMore is different: while anything is loading, or when the server said
// there is nothing more, it does nothing at all (no request, no state
// change). Fast repeated triggers are therefore harmless.
//
// CONCURRENCY:
// All state sits behind one mutex, which is released while a request is in
// flight. Methods may be called from any goroutine.
package listsync

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// ErrSuperseded is returned to the caller whose fetch finished after a
// newer reset. Its result was discarded; the state belongs to the newer call.
var ErrSuperseded = errors.New("listsync: superseded by a newer refresh")

// Lister fetches one page of snippets. *snippets.Client satisfies it; the
// page size is the client's business.
type Lister interface {
	ListPage(ctx context.Context, page int, scope model.Scope) (*model.PaginatedResult, error)
}

// ListState is a snapshot of the list. Items is a private copy: callers may
// keep or modify it without affecting the Synchronizer.
type ListState struct {
	Mode    model.Scope
	Page    int // last page committed; 1 right after a reset
	HasMore bool
	Items   []model.Snippet
	Loading bool
}

// Event is delivered to observers after every committed change.
// Err is set when the change was a failed fetch.
type Event struct {
	State ListState
	Err   error
}

// Observer receives Events. Observers run one at a time on the goroutine
// that made the change, and never see an older state after a newer one.
// They may call State but must not call Subscribe, Refresh, ToggleMode,
// LoadMore or ResyncAfterMutation synchronously.
type Observer func(Event)

// Synchronizer owns the list state for one view.
type Synchronizer struct {
	lister Lister
	logger *slog.Logger

	mu         sync.Mutex
	state      ListState
	generation uint64
	seq        uint64 // bumped on every commit

	// notifyMu serialises observer calls. delivered is the seq of the last
	// event handed out; an older event that loses the race is skipped.
	notifyMu  sync.Mutex
	delivered uint64
	observers map[int]Observer
	nextObsID int
}

// New creates a Synchronizer in the given mode. Nothing is fetched until
// the first Refresh, and LoadMore does nothing before it.
func New(lister Lister, mode model.Scope, logger *slog.Logger) *Synchronizer {
	if mode == "" {
		mode = model.ScopeAll
	}
	return &Synchronizer{
		lister:    lister,
		logger:    logger,
		state:     ListState{Mode: mode, Page: 1},
		observers: make(map[int]Observer),
	}
}

// State returns a snapshot of the current list.
func (s *Synchronizer) State() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers o and returns a function that unregisters it.
func (s *Synchronizer) Subscribe(o Observer) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.observers, id)
	}
}

// Refresh resets the list and fetches page 1 of the current mode.
//
// On failure the list stays empty, HasMore is false (page 1 never arrived,
// so there is nothing to continue from) and the error is returned and
// published.
func (s *Synchronizer) Refresh(ctx context.Context) (ListState, error) {
	return s.reset(ctx, func(current model.Scope) (model.Scope, bool) {
		return current, true
	})
}

// ToggleMode switches to mode and refreshes. Switching to the mode already
// shown does nothing.
func (s *Synchronizer) ToggleMode(ctx context.Context, mode model.Scope) (ListState, error) {
	if _, err := model.ParseScope(string(mode)); err != nil {
		return s.State(), apperror.ValidationFailed("mode", err.Error())
	}
	return s.reset(ctx, func(current model.Scope) (model.Scope, bool) {
		return mode, mode != current
	})
}

// ResyncAfterMutation refetches page 1 after a create or edit. An edited
// snippet may have moved or disappeared from the current view, so the list
// is rebuilt rather than patched.
func (s *Synchronizer) ResyncAfterMutation(ctx context.Context) (ListState, error) {
	return s.Refresh(ctx)
}

// reset runs a generation-bumping fetch of page 1. pick decides the mode to
// load from the current one; ok=false makes the call a no-op.
func (s *Synchronizer) reset(ctx context.Context, pick func(current model.Scope) (model.Scope, bool)) (ListState, error) {
	s.mu.Lock()
	mode, ok := pick(s.state.Mode)
	if !ok {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	s.generation++
	gen := s.generation
	s.state = ListState{Mode: mode, Page: 1, HasMore: true, Loading: true}
	s.commitLocked(nil)

	s.logger.Debug("list reset", slog.String("mode", string(mode)), slog.Uint64("generation", gen))

	res, err := s.lister.ListPage(ctx, 1, mode)

	s.mu.Lock()
	if gen != s.generation {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Debug("discarding stale page", slog.Int("page", 1), slog.Uint64("generation", gen))
		return snap, ErrSuperseded
	}

	s.state.Loading = false
	if err != nil {
		s.state.HasMore = false
		snap := s.commitLocked(err)
		return snap, err
	}

	res = orEmpty(res)
	s.state.Items = slices.Clone(res.Snippets)
	s.state.HasMore = res.HasNextPage
	return s.commitLocked(nil), nil
}

// LoadMore fetches the next page and appends it.
//
// It is a no-op (no request, no change, nil error) while a fetch is in
// flight or when there are no more pages. A failed fetch commits nothing;
// only Loading goes back to false.
func (s *Synchronizer) LoadMore(ctx context.Context) (ListState, error) {
	s.mu.Lock()
	if s.state.Loading || !s.state.HasMore {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	gen := s.generation
	mode := s.state.Mode
	next := s.state.Page + 1
	s.state.Loading = true
	s.commitLocked(nil)

	res, err := s.lister.ListPage(ctx, next, mode)

	s.mu.Lock()
	if gen != s.generation {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Debug("discarding stale page", slog.Int("page", next), slog.Uint64("generation", gen))
		return snap, ErrSuperseded
	}

	s.state.Loading = false
	if err != nil {
		return s.commitLocked(err), err
	}

	res = orEmpty(res)
	s.state.Items = append(s.state.Items, res.Snippets...)
	s.state.Page = next
	s.state.HasMore = res.HasNextPage
	return s.commitLocked(nil), nil
}

// commitLocked releases s.mu and publishes the state it just committed.
// It must be called with s.mu held.
func (s *Synchronizer) commitLocked(err error) ListState {
	s.seq++
	seq := s.seq
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if seq <= s.delivered {
		// a newer commit was already published
		return snap
	}
	s.delivered = seq
	for _, o := range s.observers {
		o(Event{State: snap, Err: err})
	}
	return snap
}

// orEmpty reads a nil page as an empty last page.
func orEmpty(res *model.PaginatedResult) *model.PaginatedResult {
	if res == nil {
		return &model.PaginatedResult{}
	}
	return res
}

func (s *Synchronizer) snapshotLocked() ListState {
	snap := s.state
	snap.Items = slices.Clone(s.state.Items)
	if snap.Items == nil {
		snap.Items = []model.Snippet{}
	}
	return snap
}
