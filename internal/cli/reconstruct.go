package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/rebind/internal/logger"
	"github.com/Faultbox/rebind/internal/rebind"
	"github.com/Faultbox/rebind/internal/scene"
)

type reconstructOptions struct {
	Output       string
	BindTime     float64
	DeformedTime float64
	SaveTo       string
	DryRun       bool
}

// ReportView is the printable form of a reconstruction report.
type ReportView struct {
	Input          string  `json:"input"`
	Output         string  `json:"output"`
	SkinCluster    string  `json:"skin_cluster,omitempty"`
	OutputCluster  string  `json:"output_cluster,omitempty"`
	VertexCount    int     `json:"vertex_count"`
	InfluenceCount int     `json:"influence_count"`
	ElapsedMs      float64 `json:"elapsed_ms"`
	Failed         []int   `json:"failed,omitempty"`
	Unnormalized   int     `json:"unnormalized"`
	NoSkinBinding  bool    `json:"no_skin_binding,omitempty"`
	Saved          string  `json:"saved,omitempty"`
}

func newReportView(r *rebind.Report) ReportView {
	return ReportView{
		Input:          r.Input,
		Output:         r.Output,
		SkinCluster:    r.SkinCluster,
		OutputCluster:  r.OutputCluster,
		VertexCount:    r.VertexCount,
		InfluenceCount: r.InfluenceCount,
		ElapsedMs:      float64(r.Elapsed.Microseconds()) / 1000,
		Failed:         r.Failed,
		Unnormalized:   len(r.Unnormalized),
		NoSkinBinding:  r.NoSkinBinding,
	}
}

func (v ReportView) String() string {
	if v.NoSkinBinding {
		return fmt.Sprintf("%s has no skin cluster, nothing reconstructed", v.Input)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "reconstructed %s -> %s\n", v.Input, v.Output)
	fmt.Fprintf(&b, "  vertices:     %d\n", v.VertexCount)
	fmt.Fprintf(&b, "  influences:   %d\n", v.InfluenceCount)
	fmt.Fprintf(&b, "  skin cluster: %s (from %s)\n", v.OutputCluster, v.SkinCluster)
	if v.Unnormalized > 0 {
		fmt.Fprintf(&b, "  unnormalized: %d vertices\n", v.Unnormalized)
	}
	fmt.Fprintf(&b, "  elapsed:      %.3fms", v.ElapsedMs)
	if v.Saved != "" {
		fmt.Fprintf(&b, "\n  saved:        %s", v.Saved)
	}
	return b.String()
}

// NewReconstructCommand creates the reconstruct command.
func NewReconstructCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reconstructOptions{}

	cmd := &cobra.Command{
		Use:   "reconstruct <scene.yaml> <mesh>",
		Short: "Rebuild the bind-pose mesh of a skinned mesh",
		Long: `Rebuild the bind-pose mesh of a skinned mesh.

The skeleton must be animated so that it sits in the true bind pose at
--bind-time and in the pose the mesh was authored in at --deformed-time.
The result is written as a new mesh, skinned to the same joints with the
same weights, and the scene file is saved in place unless --save or
--dry-run is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconstruct(cmd, rootOpts, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output mesh name (default <mesh>"+rebind.OutputSuffix+")")
	cmd.Flags().Float64Var(&opts.BindTime, "bind-time", 0, "timeline position of the true bind pose")
	cmd.Flags().Float64Var(&opts.DeformedTime, "deformed-time", 30, "timeline position the mesh was authored at")
	cmd.Flags().StringVar(&opts.SaveTo, "save", "", "write the scene to this path instead of the input file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "reconstruct without writing the scene")

	return cmd
}

func runReconstruct(cmd *cobra.Command, rootOpts *RootOptions, opts *reconstructOptions, path, mesh string) error {
	formatter := rootOpts.formatter(cmd)

	sc, err := scene.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading scene", err)
	}

	r := rebind.New(sc, rebind.OptionsFromConfig(rootOpts.Config, logger.Named("rebind")))
	report, err := r.ReconstructBindMesh(cmd.Context(), rebind.Request{
		Input:            mesh,
		Output:           opts.Output,
		BindPoseTime:     opts.BindTime,
		DeformedPoseTime: opts.DeformedTime,
	})
	view := newReportView(report)
	if err != nil {
		return formatter.Failure(view, WrapExitError(ExitFailure, "reconstructing "+mesh, err))
	}

	if !report.NoSkinBinding && !opts.DryRun {
		target := path
		if opts.SaveTo != "" {
			target = opts.SaveTo
		}
		if err := sc.Save(target); err != nil {
			return WrapExitError(ExitCommandError, "saving scene", err)
		}
		view.Saved = target
	}

	return formatter.Success(view)
}
