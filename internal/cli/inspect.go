package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/rebind/internal/scene"
	"github.com/Faultbox/rebind/internal/skinning"
)

// SceneView summarizes a scene file.
type SceneView struct {
	Time         float64       `json:"time"`
	Joints       []string      `json:"joints"`
	Meshes       []MeshView    `json:"meshes"`
	SkinClusters []ClusterView `json:"skin_clusters"`
}

// MeshView summarizes one mesh.
type MeshView struct {
	Name        string `json:"name"`
	Shape       string `json:"shape"`
	Points      int    `json:"points"`
	SkinCluster string `json:"skin_cluster,omitempty"`
}

// ClusterView summarizes one skin cluster.
type ClusterView struct {
	Name         string   `json:"name"`
	Shape        string   `json:"shape"`
	Influences   []string `json:"influences"`
	Unnormalized int      `json:"unnormalized"`
}

func (v SceneView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "time: %g\n", v.Time)
	fmt.Fprintf(&b, "joints (%d): %s\n", len(v.Joints), strings.Join(v.Joints, ", "))
	fmt.Fprintf(&b, "meshes (%d):\n", len(v.Meshes))
	for _, m := range v.Meshes {
		skin := "unskinned"
		if m.SkinCluster != "" {
			skin = "skinned by " + m.SkinCluster
		}
		fmt.Fprintf(&b, "  %s (%s): %d points, %s\n", m.Name, m.Shape, m.Points, skin)
	}
	fmt.Fprintf(&b, "skin clusters (%d):", len(v.SkinClusters))
	for _, c := range v.SkinClusters {
		fmt.Fprintf(&b, "\n  %s on %s: %s", c.Name, c.Shape, strings.Join(c.Influences, ", "))
		if c.Unnormalized > 0 {
			fmt.Fprintf(&b, " (%d unnormalized vertices)", c.Unnormalized)
		}
	}
	return b.String()
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <scene.yaml>",
		Short: "Summarize the joints, meshes and skin clusters of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scene.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "loading scene", err)
			}
			view, err := inspectScene(sc, rootOpts.Config.Reconstruct.NormalizationTolerance)
			if err != nil {
				return WrapExitError(ExitFailure, "inspecting scene", err)
			}
			return rootOpts.formatter(cmd).Success(view)
		},
	}
}

func inspectScene(sc *scene.Scene, tol float64) (SceneView, error) {
	view := SceneView{Time: sc.Time(), Joints: sc.Joints()}

	for _, name := range sc.Meshes() {
		shape, err := sc.ResolveShape(name)
		if err != nil {
			return view, err
		}
		pts, err := sc.WorldPoints(shape)
		if err != nil {
			return view, err
		}
		cluster, _, err := sc.FindSkinCluster(shape)
		if err != nil {
			return view, err
		}
		view.Meshes = append(view.Meshes, MeshView{Name: name, Shape: shape, Points: len(pts), SkinCluster: cluster})
	}

	for _, name := range sc.SkinClusters() {
		c, err := sc.Cluster(name)
		if err != nil {
			return view, err
		}
		weights, _, err := sc.Weights(name)
		if err != nil {
			return view, err
		}
		binding, err := skinning.BindingFromDense(c.Influences, weights)
		if err != nil {
			return view, fmt.Errorf("skin cluster %q: %w", name, err)
		}
		cv := ClusterView{Name: c.Name, Shape: c.Shape, Influences: c.Influences}
		if tol > 0 {
			cv.Unnormalized = len(binding.Unnormalized(tol))
		}
		view.SkinClusters = append(view.SkinClusters, cv)
	}
	return view, nil
}
