package skinning

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/rebind/pkg/math"
)

// Options controls how the per-vertex loop is scheduled.
type Options struct {
	Workers   int // <= 0 means GOMAXPROCS
	BatchSize int // <= 0 means 1024
}

func (o Options) normalized() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 1024
	}
	return o
}

// Reconstruct solves every vertex of source and returns the bind-space points
// in source order. Vertices are independent and are solved in parallel
// batches, each writing only its own output slots.
//
// The result is all or nothing: if any vertex fails, Reconstruct returns nil
// and a *ReconstructionError listing every failed index. Cancellation of ctx
// is observed between batches.
func Reconstruct(ctx context.Context, solver *Solver, binding *SkinBinding, source []math.Vec3, opts Options) ([]math.Vec3, error) {
	if solver.InfluenceCount() != binding.InfluenceCount() {
		return nil, &InfluenceCountMismatchError{Source: binding.InfluenceCount(), Target: solver.InfluenceCount()}
	}
	if len(source) != binding.VertexCount() {
		return nil, fmt.Errorf("%w: %d points, %d weight rows", ErrVertexCountMismatch, len(source), binding.VertexCount())
	}

	opts = opts.normalized()
	out := make([]math.Vec3, len(source))
	failures := make([]error, len(source))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for start := 0; start < len(source); start += opts.BatchSize {
		if gctx.Err() != nil {
			break
		}
		lo, hi := start, min(start+opts.BatchSize, len(source))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for v := lo; v < hi; v++ {
				p, err := solver.Solve(v, source[v], binding.rows[v])
				if err != nil {
					failures[v] = err
					continue
				}
				out[v] = p
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		failed []int
		errs   error
	)
	for v, err := range failures {
		if err != nil {
			failed = append(failed, v)
			errs = multierr.Append(errs, err)
		}
	}
	if len(failed) > 0 {
		return nil, &ReconstructionError{Failed: failed, Err: errs}
	}
	return out, nil
}
