package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/kintrace/internal/kin"
)

// ErrTooManyPairs is returned when a batch exceeds the configured pair limit.
var ErrTooManyPairs = errors.New("too many kinship pairs")

// Pair names two individuals whose kinship is requested.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// PairError records why one pair of a batch could not be resolved.
type PairError struct {
	Index int
	Pair  Pair
	Err   error
}

func (e PairError) Error() string {
	return fmt.Sprintf("pair %d (%s, %s): %v", e.Index, e.Pair.A, e.Pair.B, e.Err)
}

func (e PairError) Unwrap() error {
	return e.Err
}

// BatchError accumulates the pair failures of a kinship batch.
type BatchError struct {
	Failures []PairError
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 0 {
		return "no errors"
	}
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	msg := fmt.Sprintf("%d pairs failed:", len(e.Failures))
	for _, f := range e.Failures {
		msg += " " + f.Error() + ";"
	}
	return msg
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

func (e *BatchError) append(f PairError) {
	e.Failures = append(e.Failures, f)
}

func (e *BatchError) asError() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e
}

// KinshipBatch resolves many pairs of one family concurrently. Results keep
// the order of pairs; a failed pair leaves a zero Kinship in its slot and is
// reported through a *BatchError alongside the successful results. Context
// cancellation aborts the whole batch.
func (s *FamilyService) KinshipBatch(ctx context.Context, familyID string, pairs []Pair) (results []kin.Kinship, err error) {
	ctx, done := s.observe(ctx, "kinship_batch", familyID)
	defer func() { done(err) }()

	if len(pairs) > s.opts.MaxBatchPairs {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyPairs, len(pairs), s.opts.MaxBatchPairs)
	}
	f, err := s.Family(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return []kin.Kinship{}, nil
	}

	results = make([]kin.Kinship, len(pairs))
	failures := make([]error, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BatchWorkers)
	for i, pair := range pairs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], failures[i] = kin.Resolve(f.Graph, pair.A, pair.B)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var batchErr BatchError
	for i, ferr := range failures {
		if ferr != nil {
			batchErr.append(PairError{Index: i, Pair: pairs[i], Err: ferr})
		}
	}
	return results, batchErr.asError()
}
