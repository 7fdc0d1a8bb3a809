package poseoverlay

import (
	"github.com/swdee/go-poseoverlay/logger"
	"github.com/swdee/go-poseoverlay/pose"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// JointStats summarises one joint over a run
type JointStats struct {
	Name string
	// MeanConfidence is the average pose estimator score of the joint
	MeanConfidence float64
	// VisibleRatio is the fraction of frames the joint was drawn in
	VisibleRatio float64
}

// Stats accumulates per joint confidence and visibility over the frames of
// a run
type Stats struct {
	topo   *pose.Topology
	frames int
	// confSum and confN are running totals of each joint's confidence
	confSum []float64
	confN   []int
	visible []int
	edges   int
}

// NewStats returns empty Stats for the topology
func NewStats(topo *pose.Topology) *Stats {
	return &Stats{
		topo:    topo,
		confSum: make([]float64, topo.NumJoints()),
		confN:   make([]int, topo.NumJoints()),
		visible: make([]int, topo.NumJoints()),
	}
}

// Add records a rendered frame
func (s *Stats) Add(frame *pose.Frame, vis pose.Visible) {

	s.frames++

	for _, obs := range frame.Observations {
		s.confSum[obs.Joint] += obs.Confidence
		s.confN[obs.Joint]++
	}

	for _, j := range vis.Joints {
		s.visible[j.Joint]++
	}

	s.edges += len(vis.Edges)
}

// Frames returns the number of frames recorded
func (s *Stats) Frames() int {
	return s.frames
}

// Joint returns the summary of a single joint
func (s *Stats) Joint(id pose.JointID) JointStats {

	js := JointStats{Name: s.topo.Name(id)}

	if s.frames == 0 {
		return js
	}

	if s.confN[id] > 0 {
		js.MeanConfidence = s.confSum[id] / float64(s.confN[id])
	}

	js.VisibleRatio = float64(s.visible[id]) / float64(s.frames)

	return js
}

// Joints returns the summary of every joint in topology order
func (s *Stats) Joints() []JointStats {

	out := make([]JointStats, 0, s.topo.NumJoints())

	for _, j := range s.topo.Joints() {
		out = append(out, s.Joint(j.ID))
	}

	return out
}

// MeanEdges returns the average number of edges drawn per frame
func (s *Stats) MeanEdges() float64 {
	if s.frames == 0 {
		return 0
	}
	return float64(s.edges) / float64(s.frames)
}

// MeanVisibleRatio returns the visible ratio averaged over every joint
func (s *Stats) MeanVisibleRatio() float64 {

	if s.frames == 0 || len(s.visible) == 0 {
		return 0
	}

	ratios := make([]float64, 0, len(s.visible))

	for _, js := range s.Joints() {
		ratios = append(ratios, js.VisibleRatio)
	}

	return stat.Mean(ratios, nil)
}

// Log writes the summary at debug level
func (s *Stats) Log(log *zap.SugaredLogger) {

	if s.frames == 0 {
		return
	}

	log.Debugw("edge summary",
		logger.FieldCount, s.frames,
		"mean_edges", s.MeanEdges(),
		"mean_visible_ratio", s.MeanVisibleRatio(),
	)

	for _, js := range s.Joints() {
		log.Debugw("joint summary",
			logger.FieldJoint, js.Name,
			"mean_confidence", js.MeanConfidence,
			"visible_ratio", js.VisibleRatio,
		)
	}
}
