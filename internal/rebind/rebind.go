// Package rebind rebuilds the bind-pose mesh of a skinned mesh that was
// authored in a deformed pose, and rebinds it with the original weights.
package rebind

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rebind/internal/config"
	"github.com/Faultbox/rebind/internal/skinning"
	"github.com/Faultbox/rebind/pkg/math"
)

// OutputSuffix is appended to the input name when no output is requested.
const OutputSuffix = "_bindPoseMesh"

// Options tunes a Reconstructor.
type Options struct {
	Workers        int
	BatchSize      int
	ConditionLimit float64
	// NormalizationTolerance is the weight-sum deviation from 1 that gets a
	// vertex reported in Report.Unnormalized. Zero disables the check.
	NormalizationTolerance float64
	BindMethod             int
	SkinMethod             int
	Logger                 *zap.Logger
}

// OptionsFromConfig maps loaded settings onto Options.
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) Options {
	return Options{
		Workers:                cfg.Reconstruct.Workers,
		BatchSize:              cfg.Reconstruct.BatchSize,
		ConditionLimit:         cfg.Reconstruct.ConditionLimit,
		NormalizationTolerance: cfg.Reconstruct.NormalizationTolerance,
		BindMethod:             cfg.Skin.BindMethod,
		SkinMethod:             cfg.Skin.SkinMethod,
		Logger:                 log,
	}
}

// Request names the meshes and timeline positions of one reconstruction.
type Request struct {
	Input            string
	Output           string // defaults to Input + OutputSuffix
	BindPoseTime     float64
	DeformedPoseTime float64
}

// Report describes a finished or failed reconstruction.
type Report struct {
	Input          string
	Output         string
	SkinCluster    string // source cluster on the input
	OutputCluster  string // cluster created on the output
	VertexCount    int
	InfluenceCount int
	Elapsed        time.Duration
	// Failed lists the vertices whose blend could not be inverted.
	Failed []int
	// Unnormalized lists vertices whose weights do not sum to 1.
	Unnormalized []int
	// NoSkinBinding is set when the input is not skinned and nothing ran.
	NoSkinBinding bool
}

// Reconstructor runs reconstructions against one host.
type Reconstructor struct {
	host Host
	opts Options
	log  *zap.Logger
}

// New creates a Reconstructor.
func New(host Host, opts Options) *Reconstructor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconstructor{host: host, opts: opts, log: log}
}

// ReconstructBindMesh runs one reconstruction with default options.
func ReconstructBindMesh(ctx context.Context, host Host, req Request) (*Report, error) {
	return New(host, Options{}).ReconstructBindMesh(ctx, req)
}

// ReconstructBindMesh recovers the bind-pose points of req.Input and writes
// them to a new mesh req.Output, skinned to the same joints with the same
// weights.
//
// The timeline is moved to the bind time, then to the deformed time, and
// finally back to the bind time before the new skin cluster is created.
// The output is only created after every vertex solved; on failure the
// returned report carries the failed vertex indices and no output exists.
// An unskinned input is reported with NoSkinBinding and is not an error.
func (r *Reconstructor) ReconstructBindMesh(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	if req.Output == "" {
		req.Output = req.Input + OutputSuffix
	}
	report := &Report{Input: req.Input, Output: req.Output}
	defer func() { report.Elapsed = time.Since(start) }()

	log := r.log.With(zap.String("mesh", req.Input), zap.String("output", req.Output))

	shape, err := r.host.ResolveShape(req.Input)
	if err != nil {
		return report, fmt.Errorf("resolving %q: %w", req.Input, err)
	}
	if err := r.checkOutput(req, shape); err != nil {
		return report, err
	}

	cluster, ok, err := r.host.FindSkinCluster(shape)
	if err != nil {
		return report, fmt.Errorf("finding skin cluster of %q: %w", shape, err)
	}
	if !ok {
		report.NoSkinBinding = true
		log.Warn("no skin cluster found, nothing to reconstruct", zap.String("shape", shape))
		return report, nil
	}
	report.SkinCluster = cluster
	if req.Output == cluster {
		return report, &OutputConflictError{Output: req.Output, Node: cluster}
	}

	binding, err := r.readBinding(cluster)
	if err != nil {
		return report, err
	}
	report.InfluenceCount = binding.InfluenceCount()

	source, err := r.host.WorldPoints(shape)
	if err != nil {
		return report, fmt.Errorf("reading points of %q: %w", shape, err)
	}
	report.VertexCount = len(source)

	joints := binding.Influences()
	bindPose, err := skinning.CapturePose(ctx, r.host, joints, req.BindPoseTime)
	if err != nil {
		return report, fmt.Errorf("capturing bind pose: %w", err)
	}
	deformedPose, err := skinning.CapturePose(ctx, r.host, joints, req.DeformedPoseTime)
	if err != nil {
		return report, fmt.Errorf("capturing deformed pose: %w", err)
	}

	if tol := r.opts.NormalizationTolerance; tol > 0 {
		if report.Unnormalized = binding.Unnormalized(tol); len(report.Unnormalized) > 0 {
			log.Warn("skin weights do not sum to 1, leaving them as authored",
				zap.Int("vertices", len(report.Unnormalized)),
				zap.Ints("first", head(report.Unnormalized, 8)))
		}
	}

	solver, err := skinning.NewSolver(binding, bindPose, deformedPose, skinning.WithConditionLimit(r.opts.ConditionLimit))
	if err != nil {
		return report, err
	}

	log.Info("reconstructing",
		zap.Int("vertices", report.VertexCount),
		zap.Int("influences", report.InfluenceCount))

	points, err := skinning.Reconstruct(ctx, solver, binding, source, skinning.Options{
		Workers:   r.opts.Workers,
		BatchSize: r.opts.BatchSize,
	})
	if err != nil {
		report.Failed = skinning.FailedVertices(err)
		log.Error("reconstruction failed",
			zap.Int("failed", len(report.Failed)),
			zap.Ints("first", head(report.Failed, 8)),
			zap.Error(err))
		return report, err
	}

	if err := r.writeOutput(shape, req, binding, points, report); err != nil {
		if r.host.Exists(req.Output) {
			if derr := r.host.Delete(req.Output); derr != nil {
				log.Warn("removing partial output", zap.Error(derr))
			}
		}
		return report, err
	}

	log.Info("reconstructed bind mesh",
		zap.Int("vertices", report.VertexCount),
		zap.String("skin_cluster", report.OutputCluster),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// checkOutput rejects an output that names the input mesh by its transform
// or its shape. writeOutput deletes an existing output, so this runs before
// the host is touched.
func (r *Reconstructor) checkOutput(req Request, shape string) error {
	if req.Output == req.Input || req.Output == shape {
		return &OutputConflictError{Output: req.Output, Node: req.Input}
	}
	if other, err := r.host.ResolveShape(req.Output); err == nil && other == shape {
		return &OutputConflictError{Output: req.Output, Node: req.Input}
	}
	return nil
}

func (r *Reconstructor) readBinding(cluster string) (*skinning.SkinBinding, error) {
	influences, err := r.host.Influences(cluster)
	if err != nil {
		return nil, fmt.Errorf("reading influences of %q: %w", cluster, err)
	}
	weights, _, err := r.host.Weights(cluster)
	if err != nil {
		return nil, fmt.Errorf("reading weights of %q: %w", cluster, err)
	}
	binding, err := skinning.BindingFromDense(influences, weights)
	if err != nil {
		return nil, fmt.Errorf("skin cluster %q: %w", cluster, err)
	}
	return binding, nil
}

// writeOutput replaces any existing output with a copy of the input holding
// points, then binds it at the bind time and copies the weights across.
func (r *Reconstructor) writeOutput(shape string, req Request, binding *skinning.SkinBinding, points []math.Vec3, report *Report) error {
	if r.host.Exists(req.Output) {
		if err := r.host.Delete(req.Output); err != nil {
			return fmt.Errorf("deleting existing %q: %w", req.Output, err)
		}
	}
	outShape, err := r.host.Duplicate(shape, req.Output)
	if err != nil {
		return fmt.Errorf("duplicating %q: %w", shape, err)
	}
	if err := r.host.SetWorldPoints(outShape, points); err != nil {
		return fmt.Errorf("writing points of %q: %w", outShape, err)
	}

	r.host.SetTime(req.BindPoseTime)
	outCluster, err := r.host.CreateSkinCluster(binding.Influences(), outShape, r.opts.BindMethod, r.opts.SkinMethod)
	if err != nil {
		return fmt.Errorf("binding %q: %w", outShape, err)
	}
	report.OutputCluster = outCluster

	target, err := newClusterTarget(r.host, outCluster, len(points))
	if err != nil {
		return fmt.Errorf("reading influences of %q: %w", outCluster, err)
	}
	if err := skinning.Transfer(binding, target); err != nil {
		return fmt.Errorf("transferring weights to %q: %w", outCluster, err)
	}
	return nil
}

func head(v []int, n int) []int {
	if len(v) > n {
		return v[:n]
	}
	return v
}
