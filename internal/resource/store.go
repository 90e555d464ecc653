// Package resource implements the state container shared by every catalog
// editor: list and detail reads, saves and deletes against the REST API.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/catadmin/internal/apperr"
	"github.com/starford/catadmin/internal/catalog"
	"github.com/starford/catadmin/internal/listquery"
)

// ErrSuperseded is returned by reads whose response arrived after a newer
// operation had started. The store state is left to the newer operation.
var ErrSuperseded = errors.New("superseded by a newer request")

// API is the part of the catalog API client used by stores.
type API interface {
	Get(ctx context.Context, path, rawQuery string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	onChange func(Change)
	onResult func(Result)
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOnChange registers a callback run after every state transition.
func WithOnChange(fn func(Change)) Option {
	return func(o *options) { o.onChange = fn }
}

// WithOnResult registers a callback run when an operation completes.
func WithOnResult(fn func(Result)) Option {
	return func(o *options) { o.onResult = fn }
}

// Store holds the state of one resource type.
//
// Every operation takes a new generation number. A response is applied only
// if its generation is still the newest one, so a slow reply never
// overwrites the result of a later request. Starting a read also cancels
// the previous in-flight read.
type Store[R catalog.Record] struct {
	def  catalog.Definition
	api  API
	opts options

	mu         sync.Mutex
	state      State[R]
	cancelRead context.CancelFunc
	subs       map[<-chan State[R]]chan State[R]
}

// New creates a store for def.
func New[R catalog.Record](def catalog.Definition, api API, opts ...Option) *Store[R] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[R]{
		def:   def,
		api:   api,
		opts:  o,
		state: newState[R](),
		subs:  make(map[<-chan State[R]]chan State[R]),
	}
}

// Definition returns the resource definition of the store.
func (s *Store[R]) Definition() catalog.Definition {
	return s.def
}

// Snapshot returns a copy of the current state.
func (s *Store[R]) Snapshot() State[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe returns a channel receiving the state after each transition.
// Slow readers only see the latest state.
func (s *Store[R]) Subscribe() <-chan State[R] {
	ch := make(chan State[R], 1)
	s.mu.Lock()
	s.subs[ch] = ch
	s.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Store[R]) Unsubscribe(ch <-chan State[R]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(w)
	}
}

// Reset cancels any in-flight read and returns the store to its initial
// state. Responses of operations started before Reset are discarded.
func (s *Store[R]) Reset() {
	s.mu.Lock()
	if s.cancelRead != nil {
		s.cancelRead()
		s.cancelRead = nil
	}
	gen := s.state.Generation + 1
	s.state = newState[R]()
	s.state.Generation = gen
	change := s.publishLocked()
	s.mu.Unlock()
	s.notify(change)
}

// FetchList loads one page of records. filters uses the list filter
// grammar and is normalized before it is sent.
func (s *Store[R]) FetchList(ctx context.Context, page, size int, filters string) error {
	start := time.Now()
	ctx, cancel, gen := s.begin(ctx, true)
	defer cancel()

	rawQuery := listquery.Encode(listquery.PageQuery{
		Page:    page,
		Size:    size,
		Filters: listquery.DecodeFilters(filters),
	})

	var envelope map[string]json.RawMessage
	lookups := s.def.ListLookups()
	items := make([][]catalog.LookupItem, len(lookups))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.api.Get(gctx, s.def.APIPath, rawQuery, &envelope)
	})
	s.fetchLookups(gctx, g, lookups, items)

	err := g.Wait()
	var records []R
	var total int
	if err == nil {
		records, total, err = s.decodeList(envelope)
	}
	if err != nil {
		return s.fail(OpFetchList, "", gen, start, err)
	}

	applied := s.finish(gen, func(st *State[R]) {
		st.Records = records
		st.Total = total
		for i, l := range lookups {
			st.Lookups[l.Name] = items[i]
		}
		st.Errors = []string{}
	})
	return s.done(OpFetchList, "", 0, gen, start, applied)
}

// FetchOne loads every lookup of the resource and, unless ref is new, the
// record itself. All reads run in parallel and are applied together. For
// a new ref the records are left as they are.
func (s *Store[R]) FetchOne(ctx context.Context, ref catalog.Ref) error {
	start := time.Now()
	ctx, cancel, gen := s.begin(ctx, true)
	defer cancel()

	items := make([][]catalog.LookupItem, len(s.def.Lookups))
	var record R

	g, gctx := errgroup.WithContext(ctx)
	s.fetchLookups(gctx, g, s.def.Lookups, items)
	if !ref.IsNew() {
		g.Go(func() error {
			return s.api.Get(gctx, s.def.RecordPath(ref), "", &record)
		})
	}
	if err := g.Wait(); err != nil {
		return s.fail(OpFetchOne, ref, gen, start, err)
	}

	applied := s.finish(gen, func(st *State[R]) {
		for i, l := range s.def.Lookups {
			st.Lookups[l.Name] = items[i]
		}
		if !ref.IsNew() {
			st.Records = []R{record}
			st.Total = 1
		}
		st.Errors = []string{}
	})
	return s.done(OpFetchOne, ref, record.RecordID(), gen, start, applied)
}

// Save creates data when ref is new and updates record ref otherwise. It
// reports the saved id and whether the save succeeded; failures are kept in
// the state's error list and never returned.
func (s *Store[R]) Save(ctx context.Context, ref catalog.Ref, data R) (int64, bool) {
	start := time.Now()
	ctx, cancel, gen := s.begin(ctx, false)
	defer cancel()

	var saved R
	var err error
	if ref.IsNew() {
		err = s.api.Post(ctx, s.def.APIPath, data, &saved)
	} else {
		err = s.api.Put(ctx, s.def.RecordPath(ref), data, &saved)
	}
	if err != nil {
		_ = s.fail(OpSave, ref, gen, start, err)
		return 0, false
	}

	applied := s.finish(gen, func(st *State[R]) {
		st.Records = []R{saved}
		st.Total = 1
		st.Errors = []string{}
	})
	_ = s.done(OpSave, ref, saved.RecordID(), gen, start, applied)
	return saved.RecordID(), true
}

// Remove deletes record ref and empties the record list.
func (s *Store[R]) Remove(ctx context.Context, ref catalog.Ref) error {
	start := time.Now()
	ctx, cancel, gen := s.begin(ctx, false)
	defer cancel()

	if ref.IsNew() {
		return s.fail(OpRemove, ref, gen, start, fmt.Errorf("remove: %w", apperr.ErrInvalidRef))
	}
	if err := s.api.Delete(ctx, s.def.RecordPath(ref)); err != nil {
		return s.fail(OpRemove, ref, gen, start, err)
	}

	applied := s.finish(gen, func(st *State[R]) {
		st.Records = []R{}
		st.Total = 0
		st.Errors = []string{}
	})
	return s.done(OpRemove, ref, ref.ID(), gen, start, applied)
}

func (s *Store[R]) fetchLookups(ctx context.Context, g *errgroup.Group, lookups []catalog.Lookup, into [][]catalog.LookupItem) {
	for i, l := range lookups {
		g.Go(func() error {
			var list []catalog.LookupItem
			if err := s.api.Get(ctx, l.Path, "", &list); err != nil {
				return fmt.Errorf("lookup %s: %w", l.Name, err)
			}
			if list == nil {
				list = []catalog.LookupItem{}
			}
			into[i] = list
			return nil
		})
	}
}

func (s *Store[R]) decodeList(envelope map[string]json.RawMessage) ([]R, int, error) {
	records := []R{}
	if raw, ok := envelope[s.def.ListKey]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, 0, fmt.Errorf("decode %s: %w", s.def.ListKey, err)
		}
	}
	var total int
	if raw, ok := envelope["total"]; ok {
		if err := json.Unmarshal(raw, &total); err != nil {
			return nil, 0, fmt.Errorf("decode total: %w", err)
		}
	}
	return records, total, nil
}

// begin takes a new generation and marks the store as loading.
func (s *Store[R]) begin(ctx context.Context, read bool) (context.Context, context.CancelFunc, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if read {
		if s.cancelRead != nil {
			s.cancelRead()
		}
		s.cancelRead = cancel
	}
	s.state.Generation++
	gen := s.state.Generation
	s.state.IsLoading = true
	change := s.publishLocked()
	s.mu.Unlock()

	s.notify(change)
	return ctx, cancel, gen
}

// finish applies a response if gen is still current and clears the
// loading flag. It reports whether the response was applied.
func (s *Store[R]) finish(gen uint64, apply func(*State[R])) bool {
	s.mu.Lock()
	if gen != s.state.Generation {
		s.mu.Unlock()
		return false
	}
	apply(&s.state)
	s.state.IsLoading = false
	change := s.publishLocked()
	s.mu.Unlock()

	s.notify(change)
	return true
}

// fail records err as the store's error list. Superseded failures leave the
// state alone and report ErrSuperseded.
func (s *Store[R]) fail(op Op, ref catalog.Ref, gen uint64, start time.Time, err error) error {
	msgs := apperr.Messages(err)
	applied := s.finish(gen, func(st *State[R]) {
		st.Errors = msgs
	})

	res := s.result(op, ref, 0, gen, start)
	res.Err = err.Error()
	res.Outcome = OutcomeError
	if !applied {
		res.Outcome = OutcomeStale
		err = fmt.Errorf("%s %s: %w", op, s.def.Name, ErrSuperseded)
	} else {
		s.opts.logger.Warn("store operation failed",
			slog.String("resource", s.def.Name),
			slog.String("op", string(op)),
			slog.String("ref", ref.String()),
			slog.String("error", res.Err))
	}
	s.report(res)
	return err
}

func (s *Store[R]) done(op Op, ref catalog.Ref, id int64, gen uint64, start time.Time, applied bool) error {
	res := s.result(op, ref, id, gen, start)
	res.Outcome = OutcomeOK
	var err error
	if !applied {
		res.Outcome = OutcomeStale
		err = fmt.Errorf("%s %s: %w", op, s.def.Name, ErrSuperseded)
	}
	s.report(res)
	return err
}

func (s *Store[R]) result(op Op, ref catalog.Ref, id int64, gen uint64, start time.Time) Result {
	return Result{
		Resource:   s.def.Name,
		Op:         op,
		Ref:        ref,
		ID:         id,
		Generation: gen,
		Started:    start,
		Duration:   time.Since(start),
	}
}

func (s *Store[R]) report(res Result) {
	if s.opts.onResult != nil {
		s.opts.onResult(res)
	}
}

// publishLocked delivers the current state to subscribers, replacing any
// state they have not read yet. It must be called with s.mu held.
func (s *Store[R]) publishLocked() Change {
	snap := s.state.clone()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	return Change{
		Resource:   s.def.Name,
		Generation: snap.Generation,
		IsLoading:  snap.IsLoading,
		Total:      snap.Total,
		Errors:     snap.Errors,
	}
}

func (s *Store[R]) notify(c Change) {
	if s.opts.onChange != nil {
		s.opts.onChange(c)
	}
}
