package roster

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/shared"
)

// DefaultPageSize is used when a [Router] is created without a positive page size.
const DefaultPageSize = 10

// Store is the read-only roster store consumed by the [Router].
//
// Every paginated operation sorts by total_score descending and applies rng.
// A failing call returns an error; zero matches is an empty slice and a nil error.
type Store interface {
	ListStudents(ctx context.Context, rng models.Range) ([]models.StudentRow, error)
	SearchByName(ctx context.Context, pattern string, rng models.Range) ([]models.StudentRow, error)
	SearchByPhone(ctx context.Context, pattern string, rng models.Range) ([]models.StudentRow, error)
	ListByTrack(ctx context.Context, trackID string, rng models.Range) ([]models.StudentRow, error)
	ListTracks(ctx context.Context) ([]models.Track, error)
}

// Ticket is a dispatched fetch: the state to query and the generation it was dispatched under.
type Ticket struct {
	Generation uint64
	State      State
}

// Result is the tagged outcome of one [Router.Fetch].
type Result struct {
	Generation uint64
	State      State
	Mode       Mode
	Range      models.Range
	PageSize   int
	Students   []models.Student // never nil; empty on failure
	Err        error            // wraps [shared.ErrStoreUnavailable] on failure
}

// Failed reports whether the store call failed.
func (r Result) Failed() bool { return r.Err != nil }

// Empty reports a successful query with no matches.
func (r Result) Empty() bool { return r.Err == nil && len(r.Students) == 0 }

// HasNext reports whether a following page may exist: the store returned a full page.
func (r Result) HasNext() bool { return r.Err == nil && len(r.Students) >= r.PageSize }

// HasPrev reports whether a previous page exists.
func (r Result) HasPrev() bool { return r.State.Page > 1 }

// RankedStudent pairs a student with its global rank.
type RankedStudent struct {
	models.Student
	Rank   int  `json:"rank"`
	Podium bool `json:"podium"`
}

// Ranked assigns each student its global rank from the result's page offset.
func (r Result) Ranked() []RankedStudent {
	ranked := make([]RankedStudent, len(r.Students))
	for i, s := range r.Students {
		rank := GlobalRank(r.State.Page, r.PageSize, i)
		ranked[i] = RankedStudent{Student: s, Rank: rank, Podium: IsPodium(r.State, rank)}
	}
	return ranked
}

// Router selects and runs exactly one store operation per fetch.
type Router struct {
	store      Store
	pageSize   int
	logger     *log.Logger
	metrics    *Metrics
	generation atomic.Uint64
}

// RouterOpts contains configuration options for creating a Router.
type RouterOpts struct {
	Store    Store
	PageSize int
	Logger   *log.Logger
	Metrics  *Metrics
}

// NewRouter creates a new Router with the provided configuration
func NewRouter(opts RouterOpts) *Router {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Router{
		store:    opts.Store,
		pageSize: opts.PageSize,
		logger:   shared.WithLogger(opts.Logger, "component", "router"),
		metrics:  opts.Metrics,
	}
}

// PageSize returns the page size shared by every query.
func (r *Router) PageSize() int {
	return r.pageSize
}

// Dispatch starts a new fetch generation for s. Any ticket dispatched earlier becomes stale.
func (r *Router) Dispatch(s State) Ticket {
	return Ticket{Generation: r.generation.Add(1), State: Reduce(s, nil)}
}

// Current reports whether res belongs to the newest dispatch. Stale results are counted.
func (r *Router) Current(res Result) bool {
	if res.Generation == r.generation.Load() {
		return true
	}
	r.metrics.observeStale()
	r.logger.Debug("dropping stale result", "generation", res.Generation, "current", r.generation.Load())
	return false
}

// Fetch runs the store operation selected by the ticket's mode and normalizes the page.
//
// Fetch never returns an error: a store failure yields an empty page with Err set.
func (r *Router) Fetch(ctx context.Context, t Ticket) Result {
	state := Reduce(t.State, nil)
	mode := state.Mode()
	rng := PageRange(state.Page, r.pageSize)

	res := Result{
		Generation: t.Generation,
		State:      state,
		Mode:       mode,
		Range:      rng,
		PageSize:   r.pageSize,
		Students:   []models.Student{},
	}

	start := time.Now()
	rows, err := r.query(ctx, mode, state, rng)
	r.metrics.observeFetch(mode, time.Since(start), len(rows), err)

	if err != nil {
		r.logger.Error("roster fetch failed",
			"mode", mode, "page", state.Page, "range", rng, "generation", t.Generation, "error", err)
		res.Err = fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
		return res
	}

	res.Students = Normalize(rows)
	r.logger.Debug("roster fetch", "mode", mode, "page", state.Page, "rows", len(rows), "generation", t.Generation)
	return res
}

// Tracks returns the track catalog, wrapping failures in [shared.ErrStoreUnavailable].
func (r *Router) Tracks(ctx context.Context) ([]models.Track, error) {
	tracks, err := r.store.ListTracks(ctx)
	if err != nil {
		r.logger.Error("track catalog fetch failed", "error", err)
		return []models.Track{}, fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
	}
	return tracks, nil
}

func (r *Router) query(ctx context.Context, mode Mode, s State, rng models.Range) ([]models.StudentRow, error) {
	switch mode {
	case FilterByTrack:
		return r.store.ListByTrack(ctx, s.TrackID, rng)
	case SearchByPhone:
		return r.store.SearchByPhone(ctx, s.SearchText, rng)
	case SearchByName:
		return r.store.SearchByName(ctx, s.SearchText, rng)
	default:
		return r.store.ListStudents(ctx, rng)
	}
}
