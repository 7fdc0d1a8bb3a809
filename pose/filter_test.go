package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-poseoverlay/errors"
)

// decodeOne decodes a single record frame
func decodeOne(t *testing.T, topo *Topology, rec Record) *Frame {
	t.Helper()

	frame, err := NewDecoder(topo).Decode(NewFeed([]Record{rec}), 0)
	require.NoError(t, err)
	return frame
}

// touches checks if the edge references the joint
func touches(e Edge, id JointID) bool {
	return e.From == id || e.To == id
}

func TestFilterFullConfidence(t *testing.T) {

	topo := DefaultTopology()
	frame := decodeOne(t, topo, buildRecord(t, topo, 1.0))

	vis := NewFilter(topo, DefaultThreshold, ModeFull).Apply(frame)

	assert.Len(t, vis.Joints, 16)
	assert.Len(t, vis.Edges, 16)

	// edge endpoints are the decoded joint centers
	for _, ve := range vis.Edges {
		from, _ := frame.Observation(ve.Edge.From)
		to, _ := frame.Observation(ve.Edge.To)
		assert.Equal(t, from.Point, ve.From)
		assert.Equal(t, to.Point, ve.To)
		assert.Equal(t, DefaultEdgeColor, ve.Color)
	}
}

func TestFilterThresholdInclusive(t *testing.T) {

	topo := DefaultTopology()
	frame := decodeOne(t, topo, buildRecord(t, topo, DefaultThreshold))

	vis := NewFilter(topo, DefaultThreshold, ModeFull).Apply(frame)

	assert.Len(t, vis.Joints, 16)
	assert.Len(t, vis.Edges, 16)
}

func TestFilterLowConfidenceJoint(t *testing.T) {

	topo := DefaultTopology()
	rec := buildRecord(t, topo, 1.0)
	setConfidence(t, rec, "lankle", 0.05)

	lankle := mustID(t, topo, "lankle")

	for _, mode := range []RenderMode{ModeFull, ModeUpperBody} {

		vis := NewFilter(topo, DefaultThreshold, mode).Apply(decodeOne(t, topo, rec))

		for _, vj := range vis.Joints {
			assert.NotEqual(t, lankle, vj.Joint)
		}

		for _, ve := range vis.Edges {
			assert.False(t, touches(ve.Edge, lankle))
		}
	}

	// in full mode every other joint and edge is unaffected
	vis := NewFilter(topo, DefaultThreshold, ModeFull).Apply(decodeOne(t, topo, rec))
	assert.Len(t, vis.Joints, 15)
	assert.Len(t, vis.Edges, 15)
}

func TestFilterUpperBody(t *testing.T) {

	topo := DefaultTopology()
	frame := decodeOne(t, topo, buildRecord(t, topo, 1.0))

	vis := NewFilter(topo, DefaultThreshold, ModeUpperBody).Apply(frame)

	for _, vj := range vis.Joints {
		assert.False(t, topo.IsLowerBody(vj.Joint), topo.Name(vj.Joint))
	}

	for _, ve := range vis.Edges {
		assert.False(t, topo.IsLowerBody(ve.Edge.From))
		assert.False(t, topo.IsLowerBody(ve.Edge.To))
	}

	// 4 lower body joints dropped, edges (8,11) (11,10) (3,4) (4,1) dropped
	assert.Len(t, vis.Joints, 12)
	assert.Len(t, vis.Edges, 12)
}

func TestFilterEdgeRecheck(t *testing.T) {

	// knee is lower body, hip is not.  in upper mode the hip joint is drawn
	// but the hip to knee bone must not be
	topo, err := NewTopology([]string{"hip", "knee"},
		[]Edge{{From: 0, To: 1, Color: DefaultEdgeColor}}, []string{"knee"})
	require.NoError(t, err)

	frame := decodeOne(t, topo, buildRecord(t, topo, 1.0))

	vis := NewFilter(topo, DefaultThreshold, ModeUpperBody).Apply(frame)
	require.Len(t, vis.Joints, 1)
	assert.Equal(t, JointID(0), vis.Joints[0].Joint)
	assert.Empty(t, vis.Edges)

	vis = NewFilter(topo, DefaultThreshold, ModeFull).Apply(frame)
	assert.Len(t, vis.Joints, 2)
	assert.Len(t, vis.Edges, 1)
}

func TestParseRenderMode(t *testing.T) {

	tests := []struct {
		in   string
		want RenderMode
	}{
		{"", ModeFull},
		{"full", ModeFull},
		{"FULL", ModeFull},
		{"upper", ModeUpperBody},
		{"upper_body", ModeUpperBody},
	}

	for _, tc := range tests {
		got, err := ParseRenderMode(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseRenderMode("legs")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	assert.Equal(t, "full", ModeFull.String())
	assert.Equal(t, "upper", ModeUpperBody.String())
}
