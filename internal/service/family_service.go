package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/vanshika/kintrace/internal/domain"
	"github.com/vanshika/kintrace/internal/kin"
	"github.com/vanshika/kintrace/internal/metrics"
	"github.com/vanshika/kintrace/internal/telemetry"
)

// ErrInvalidArgument marks caller mistakes such as an empty family id.
var ErrInvalidArgument = errors.New("invalid argument")

// FamilySource is the storage contract required by the family service.
type FamilySource interface {
	LoadFamily(ctx context.Context, familyID string) (domain.FamilySnapshot, error)
}

// Options tunes a FamilyService. Zero values select the defaults.
type Options struct {
	// CacheTTL bounds how long an analysed family is served from memory.
	// Zero disables caching.
	CacheTTL time.Duration
	// LoadTimeout bounds one shared family load. The load outlives any single
	// caller, so it never inherits a caller's cancellation.
	LoadTimeout   time.Duration
	BatchWorkers  int
	MaxBatchPairs int
	Logger        *slog.Logger
	Metrics       *metrics.Recorder
	Tracer        trace.Tracer
	Now           func() time.Time
}

const (
	defaultBatchWorkers  = 4
	defaultMaxBatchPairs = 500
	defaultLoadTimeout   = 30 * time.Second
)

// FamilyService loads family snapshots, builds their graphs once and answers
// layout, kinship, path and component questions over them.
type FamilyService struct {
	source  FamilySource
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Recorder
	tracer  trace.Tracer
	nowFn   func() time.Time

	mu    sync.Mutex
	cache map[string]*Family
	// generations counts refreshes per family; a build stores its result
	// only if no refresh happened while it was loading.
	generations map[string]uint64
	flight      singleflight.Group
}

// Family is an analysed family: its graph plus the layout and components
// derived from it. A Family is immutable once built.
type Family struct {
	ID         string
	Graph      *kin.Graph
	Layout     kin.Layout
	LayoutErr  error
	Components []kin.Component
	BuiltAt    time.Time
}

// NewFamilyService wires a FamilyService over the given source.
func NewFamilyService(source FamilySource, opts Options) *FamilyService {
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = defaultBatchWorkers
	}
	if opts.MaxBatchPairs <= 0 {
		opts.MaxBatchPairs = defaultMaxBatchPairs
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &FamilyService{
		source:  source,
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  tracer,
		nowFn:   nowFn,
		cache:       make(map[string]*Family),
		generations: make(map[string]uint64),
	}
}

// Family returns the analysed family, building it on a cache miss.
func (s *FamilyService) Family(ctx context.Context, familyID string) (*Family, error) {
	familyID = strings.TrimSpace(familyID)
	if familyID == "" {
		return nil, fmt.Errorf("%w: family id is required", ErrInvalidArgument)
	}

	if f, ok := s.cached(familyID); ok {
		s.metrics.CacheLookup(true)
		return f, nil
	}
	s.metrics.CacheLookup(false)

	ch := s.flight.DoChan(familyID, func() (any, error) {
		return s.build(ctx, familyID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Family), nil
	}
}

// build loads and analyses one family on behalf of every waiting caller.
func (s *FamilyService) build(ctx context.Context, familyID string) (*Family, error) {
	if f, ok := s.cached(familyID); ok {
		return f, nil
	}
	gen := s.generation(familyID)

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
	defer cancel()
	snap, err := s.source.LoadFamily(loadCtx, familyID)
	if err != nil {
		return nil, err
	}
	f, err := s.analyse(familyID, snap)
	if err != nil {
		return nil, err
	}
	s.store(familyID, gen, f)
	return f, nil
}

// Layout returns the generational layout of a family. Structural problems
// surface as the kin package's typed errors.
func (s *FamilyService) Layout(ctx context.Context, familyID string) (layout kin.Layout, err error) {
	ctx, done := s.observe(ctx, "layout", familyID)
	defer func() { done(err) }()

	f, err := s.Family(ctx, familyID)
	if err != nil {
		return kin.Layout{}, err
	}
	if f.LayoutErr != nil {
		return kin.Layout{}, f.LayoutErr
	}
	return f.Layout, nil
}

// Kinship classifies how b is related to a.
func (s *FamilyService) Kinship(ctx context.Context, familyID, a, b string) (k kin.Kinship, err error) {
	ctx, done := s.observe(ctx, "kinship", familyID)
	defer func() { done(err) }()

	f, err := s.Family(ctx, familyID)
	if err != nil {
		return kin.Kinship{}, err
	}
	return kin.Resolve(f.Graph, a, b)
}

// Path returns the shortest relational path between two individuals.
func (s *FamilyService) Path(ctx context.Context, familyID, from, to string) (p kin.Path, err error) {
	ctx, done := s.observe(ctx, "path", familyID)
	defer func() { done(err) }()

	f, err := s.Family(ctx, familyID)
	if err != nil {
		return kin.Path{}, err
	}
	return kin.FindPath(f.Graph, from, to)
}

// Components returns the connected groups of a family.
func (s *FamilyService) Components(ctx context.Context, familyID string) (cs []kin.Component, err error) {
	ctx, done := s.observe(ctx, "components", familyID)
	defer func() { done(err) }()

	f, err := s.Family(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return f.Components, nil
}

// Summary describes the shape of a family graph.
type Summary struct {
	FamilyID     string    `json:"familyId"`
	Individuals  int       `json:"individuals"`
	Edges        int       `json:"edges"`
	DroppedEdges int       `json:"droppedEdges"`
	Unions       int       `json:"unions"`
	Components   int       `json:"components"`
	Generations  int       `json:"generations"`
	LayoutError  string    `json:"layoutError,omitempty"`
	BuiltAt      time.Time `json:"builtAt"`
}

// Summary reports graph counts. A family whose layout fails still gets a
// summary; the failure is carried in LayoutError.
func (s *FamilyService) Summary(ctx context.Context, familyID string) (sum Summary, err error) {
	ctx, done := s.observe(ctx, "summary", familyID)
	defer func() { done(err) }()

	f, err := s.Family(ctx, familyID)
	if err != nil {
		return Summary{}, err
	}
	sum = Summary{
		FamilyID:     f.ID,
		Individuals:  f.Graph.Len(),
		Edges:        f.Graph.EdgeCount(),
		DroppedEdges: len(f.Graph.Dropped()),
		Components:   len(f.Components),
		BuiltAt:      f.BuiltAt,
	}
	if f.LayoutErr != nil {
		sum.LayoutError = f.LayoutErr.Error()
	} else {
		sum.Unions = len(f.Layout.Unions)
		sum.Generations = f.Layout.Generations()
	}
	return sum, nil
}

// Refresh drops the cached analysis of a family so the next call reloads it.
// It reports whether an entry was cached.
func (s *FamilyService) Refresh(familyID string) bool {
	familyID = strings.TrimSpace(familyID)

	s.mu.Lock()
	s.generations[familyID]++
	_, ok := s.cache[familyID]
	delete(s.cache, familyID)
	s.mu.Unlock()

	s.flight.Forget(familyID)
	if ok {
		s.logger.Info("family cache entry dropped", "familyId", familyID)
	}
	return ok
}

func (s *FamilyService) generation(familyID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[familyID]
}

// store caches f unless the family was refreshed after gen was read. Expired
// entries of other families are swept on the way.
func (s *FamilyService) store(familyID string, gen uint64, f *Family) {
	if s.opts.CacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[familyID] != gen {
		s.logger.Debug("discarding family built before a refresh", "familyId", familyID)
		return
	}
	now := s.nowFn()
	for id, entry := range s.cache {
		if now.Sub(entry.BuiltAt) >= s.opts.CacheTTL {
			delete(s.cache, id)
		}
	}
	s.cache[familyID] = f
}

func (s *FamilyService) cached(familyID string) (*Family, bool) {
	if s.opts.CacheTTL <= 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.cache[familyID]
	if !ok {
		return nil, false
	}
	if s.nowFn().Sub(f.BuiltAt) >= s.opts.CacheTTL {
		delete(s.cache, familyID)
		return nil, false
	}
	return f, true
}

func (s *FamilyService) analyse(familyID string, snap domain.FamilySnapshot) (*Family, error) {
	logger := s.logger.With("familyId", familyID)

	g, err := kin.Build(snap.Individuals, snap.Edges, kin.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("build graph of family %s: %w", familyID, err)
	}
	for _, d := range g.Dropped() {
		s.metrics.DroppedEdge(d.Reason)
	}
	s.metrics.GraphBuilt(g.Len(), g.EdgeCount())

	f := &Family{
		ID:         familyID,
		Graph:      g,
		Components: kin.Components(g),
		BuiltAt:    s.nowFn(),
	}
	f.Layout, f.LayoutErr = kin.AssignLevels(g)

	logger.Info("family graph built",
		"individuals", g.Len(),
		"edges", g.EdgeCount(),
		"droppedEdges", len(g.Dropped()),
		"components", len(f.Components),
	)
	if n := len(g.Dropped()); n > 0 {
		logger.Warn("family has relationship edges that were dropped", "droppedEdges", n)
	}
	if len(f.Components) > 1 {
		logger.Warn("family graph is disconnected", "components", len(f.Components))
	}
	if f.LayoutErr != nil {
		logger.Warn("family layout failed", "error", f.LayoutErr)
	}
	return f, nil
}

func (s *FamilyService) observe(ctx context.Context, operation, familyID string) (context.Context, func(error)) {
	start := s.nowFn()
	ctx, span := s.tracer.Start(ctx, "family."+operation,
		trace.WithAttributes(attribute.String("family.id", familyID)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveOperation(operation, err, s.nowFn().Sub(start))
	}
}
