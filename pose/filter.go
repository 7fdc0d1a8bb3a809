package pose

import (
	"image"
	"image/color"
	"strings"

	"github.com/swdee/go-poseoverlay/errors"
)

// DefaultThreshold is the minimum confidence a joint needs to be drawn
const DefaultThreshold = 0.1

// RenderMode selects which joints are eligible for drawing
type RenderMode int

const (
	// ModeFull draws the whole skeleton
	ModeFull RenderMode = iota
	// ModeUpperBody never draws lower body joints or their bones
	ModeUpperBody
)

// String returns the mode name used on the command line and in logs
func (m RenderMode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeUpperBody:
		return "upper"
	}
	return "unknown"
}

// ParseRenderMode returns the mode for the given name
func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return ModeFull, nil
	case "upper", "upper_body":
		return ModeUpperBody, nil
	}
	return ModeFull, errors.Wrapf(errors.ErrInvalidConfig, "unknown render mode %q", s)
}

// VisibleJoint is a joint that passed the filter with its pixel position
type VisibleJoint struct {
	Joint JointID
	Point image.Point
}

// VisibleEdge is a bone that passed the filter with the pixel positions of
// both its endpoints
type VisibleEdge struct {
	Edge  Edge
	From  image.Point
	To    image.Point
	Color color.RGBA
}

// Visible is the result of filtering a frame, the only data the rasterizer
// needs
type Visible struct {
	Edges  []VisibleEdge
	Joints []VisibleJoint
}

// Filter decides which joints and edges of a frame are drawn
type Filter struct {
	topo      *Topology
	threshold float64
	mode      RenderMode
}

// NewFilter returns a Filter over the topology with the given confidence
// threshold and mode
func NewFilter(topo *Topology, threshold float64, mode RenderMode) *Filter {
	return &Filter{
		topo:      topo,
		threshold: threshold,
		mode:      mode,
	}
}

// Mode returns the render mode of the filter
func (f *Filter) Mode() RenderMode {
	return f.mode
}

// confident checks a joint's confidence against the threshold
func (f *Filter) confident(obs Observation) bool {
	return obs.Confidence >= f.threshold
}

// eligible checks the joint is allowed by the render mode
func (f *Filter) eligible(id JointID) bool {
	return f.mode == ModeFull || !f.topo.IsLowerBody(id)
}

// Apply filters the frame.  Edges and joints are evaluated independently:
// an edge needs both endpoints to be confident and both to be allowed by the
// mode, it does not reuse the per joint result.
func (f *Filter) Apply(frame *Frame) Visible {

	vis := Visible{
		Edges:  make([]VisibleEdge, 0, len(f.topo.Edges())),
		Joints: make([]VisibleJoint, 0, f.topo.NumJoints()),
	}

	for _, e := range f.topo.Edges() {

		from, okFrom := frame.Observation(e.From)
		to, okTo := frame.Observation(e.To)

		if !okFrom || !okTo {
			continue
		}

		if !f.confident(from) || !f.confident(to) {
			continue
		}

		if !f.eligible(e.From) || !f.eligible(e.To) {
			continue
		}

		vis.Edges = append(vis.Edges, VisibleEdge{
			Edge:  e,
			From:  from.Point,
			To:    to.Point,
			Color: e.Color,
		})
	}

	for _, obs := range frame.Observations {

		if !f.confident(obs) || !f.eligible(obs.Joint) {
			continue
		}

		vis.Joints = append(vis.Joints, VisibleJoint{
			Joint: obs.Joint,
			Point: obs.Point,
		})
	}

	return vis
}
