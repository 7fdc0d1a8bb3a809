package render

import (
	"encoding/json"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-poseoverlay/pose"
	"gocv.io/x/gocv"
)

var (
	// BGR values as read back from a Mat
	jointBGR = gocv.Vecb{201, 91, 0}
	edgeBGR  = gocv.Vecb{27, 144, 254}
	blackBGR = gocv.Vecb{0, 0, 0}
)

// blank returns a black 3 channel image
func blank(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeWithScalar(height, width, gocv.MatTypeCV8UC3,
		gocv.NewScalar(0, 0, 0, 0))
}

// gridPoint spreads the joints of the default topology over a 4x4 grid
func gridPoint(id pose.JointID) image.Point {
	return image.Pt(30+60*(int(id)%4), 30+60*(int(id)/4))
}

// decodeGrid builds and filters a frame with every joint at its grid point
func decodeGrid(t *testing.T, topo *pose.Topology, mode pose.RenderMode) pose.Visible {
	t.Helper()

	rec := make(pose.Record)

	for _, j := range topo.Joints() {
		p := gridPoint(j.ID)
		raw, err := json.Marshal(map[string]interface{}{
			"coords":                    []float64{float64(p.X), float64(p.Y)},
			"pointEstimationConfidence": []float64{0.9},
		})
		require.NoError(t, err)
		rec[j.Name] = raw
	}

	frame, err := pose.NewDecoder(topo).Decode(pose.NewFeed([]pose.Record{rec}), 0)
	require.NoError(t, err)

	return pose.NewFilter(topo, pose.DefaultThreshold, mode).Apply(frame)
}

func TestSkeletonAllJoints(t *testing.T) {

	topo := pose.DefaultTopology()
	vis := decodeGrid(t, topo, pose.ModeFull)
	require.Len(t, vis.Joints, 16)
	require.Len(t, vis.Edges, 16)

	img := blank(240, 240)
	defer img.Close()

	Skeleton(&img, vis, DefaultSkeletonStyle())

	// joints are drawn last so every center has the joint color
	for _, j := range topo.Joints() {
		p := gridPoint(j.ID)
		assert.Equal(t, jointBGR, img.GetVecbAt(p.Y, p.X), "joint %s", j.Name)
	}
}

func TestSkeletonSingleBone(t *testing.T) {

	vis := pose.Visible{
		Edges: []pose.VisibleEdge{
			{From: image.Pt(20, 50), To: image.Pt(80, 50), Color: EdgeColor},
		},
		Joints: []pose.VisibleJoint{
			{Joint: 0, Point: image.Pt(20, 50)},
			{Joint: 1, Point: image.Pt(80, 50)},
		},
	}

	img := blank(100, 100)
	defer img.Close()

	Skeleton(&img, vis, DefaultSkeletonStyle())

	// middle of the line
	assert.Equal(t, edgeBGR, img.GetVecbAt(50, 50))
	// within the 5 pixel width
	assert.Equal(t, edgeBGR, img.GetVecbAt(49, 50))
	assert.Equal(t, edgeBGR, img.GetVecbAt(51, 50))
	// well clear of the line
	assert.Equal(t, blackBGR, img.GetVecbAt(60, 50))
	assert.Equal(t, blackBGR, img.GetVecbAt(40, 50))

	// joints cover the line ends
	assert.Equal(t, jointBGR, img.GetVecbAt(50, 20))
	assert.Equal(t, jointBGR, img.GetVecbAt(50, 80))
}

func TestSkeletonDeterministic(t *testing.T) {

	vis := decodeGrid(t, pose.DefaultTopology(), pose.ModeFull)

	a := blank(240, 240)
	defer a.Close()
	b := blank(240, 240)
	defer b.Close()

	Skeleton(&a, vis, DefaultSkeletonStyle())
	Skeleton(&b, vis, DefaultSkeletonStyle())

	assert.Equal(t, a.ToBytes(), b.ToBytes())
}

func TestSkeletonUpperBody(t *testing.T) {

	topo := pose.DefaultTopology()
	vis := decodeGrid(t, topo, pose.ModeUpperBody)
	require.Len(t, vis.Joints, 12)

	img := blank(240, 240)
	defer img.Close()

	Skeleton(&img, vis, DefaultSkeletonStyle())

	for _, j := range topo.Joints() {

		p := gridPoint(j.ID)

		if topo.IsLowerBody(j.ID) {
			assert.NotEqual(t, jointBGR, img.GetVecbAt(p.Y, p.X), "joint %s", j.Name)
			continue
		}

		assert.Equal(t, jointBGR, img.GetVecbAt(p.Y, p.X), "joint %s", j.Name)
	}
}

func TestSkeletonEmpty(t *testing.T) {

	img := blank(50, 50)
	defer img.Close()

	before := img.ToBytes()
	Skeleton(&img, pose.Visible{}, DefaultSkeletonStyle())

	assert.Equal(t, before, img.ToBytes())
}

func TestSkeletonOutOfBounds(t *testing.T) {

	vis := pose.Visible{
		Edges: []pose.VisibleEdge{
			{From: image.Pt(-50, -50), To: image.Pt(10000, 10000), Color: EdgeColor},
			{From: image.Pt(-500, 20), To: image.Pt(-400, 80), Color: EdgeColor},
		},
		Joints: []pose.VisibleJoint{
			{Joint: 0, Point: image.Pt(-50, -50)},
			{Joint: 1, Point: image.Pt(10000, 10000)},
			{Joint: 2, Point: image.Pt(-3, 50)},
		},
	}

	img := blank(100, 100)
	defer img.Close()

	assert.NotPanics(t, func() {
		Skeleton(&img, vis, DefaultSkeletonStyle())
	})

	// diagonal line crosses the whole image
	assert.Equal(t, edgeBGR, img.GetVecbAt(50, 50))
	// partially visible joint on the left edge
	assert.Equal(t, jointBGR, img.GetVecbAt(50, 0))
}

func TestJointsExtremeCoordinates(t *testing.T) {

	joints := []pose.VisibleJoint{
		{Joint: 0, Point: image.Pt(math.MinInt64, 50)},
		{Joint: 1, Point: image.Pt(50, math.MinInt64)},
		{Joint: 2, Point: image.Pt(math.MaxInt64, math.MaxInt64)},
	}

	img := blank(100, 100)
	defer img.Close()

	Joints(&img, joints, DefaultSkeletonStyle())

	// nothing wraps around onto the image edges
	assert.Equal(t, blackBGR, img.GetVecbAt(50, 0))
	assert.Equal(t, blackBGR, img.GetVecbAt(0, 50))
	assert.Equal(t, blackBGR, img.GetVecbAt(0, 0))

	gray := img.Reshape(1, 0)
	defer gray.Close()
	assert.Equal(t, 0, gocv.CountNonZero(gray))
}

func TestBoneOutline(t *testing.T) {

	style := DefaultSkeletonStyle()

	img := blank(100, 100)
	defer img.Close()

	Bones(&img, []pose.VisibleEdge{
		{From: image.Pt(10, 50), To: image.Pt(90, 50), Color: EdgeColor},
	}, style)

	// 5 pixels wide about the centre line
	assert.Equal(t, edgeBGR, img.GetVecbAt(50, 50))
	assert.Equal(t, edgeBGR, img.GetVecbAt(49, 50))
	assert.Equal(t, edgeBGR, img.GetVecbAt(51, 50))
	assert.Equal(t, blackBGR, img.GetVecbAt(45, 50))
	assert.Equal(t, blackBGR, img.GetVecbAt(55, 50))

	// round caps extend past the joint centers
	assert.Equal(t, edgeBGR, img.GetVecbAt(50, 9))
	assert.Equal(t, edgeBGR, img.GetVecbAt(50, 91))
	assert.Equal(t, blackBGR, img.GetVecbAt(50, 5))
	assert.Equal(t, blackBGR, img.GetVecbAt(50, 95))
}

func TestBoneOutlineClipped(t *testing.T) {

	tests := []struct {
		name     string
		from, to image.Point
		inked    []image.Point
	}{
		{"zero length", image.Pt(30, 30), image.Pt(30, 30), []image.Point{{30, 30}}},
		{"crosses image", image.Pt(-1000, 50), image.Pt(1000, 50), []image.Point{{0, 50}, {99, 50}}},
		{"extreme endpoints", image.Pt(math.MinInt64, 20), image.Pt(math.MaxInt64, 20), []image.Point{{1, 20}, {98, 20}}},
		{"outside", image.Pt(-500, 20), image.Pt(-400, 80), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			img := blank(100, 100)
			defer img.Close()

			assert.NotPanics(t, func() {
				Bones(&img, []pose.VisibleEdge{{From: tc.from, To: tc.to, Color: EdgeColor}},
					DefaultSkeletonStyle())
			})

			for _, p := range tc.inked {
				assert.Equal(t, edgeBGR, img.GetVecbAt(p.Y, p.X), "point %v", p)
			}

			if tc.inked == nil {
				gray := img.Reshape(1, 0)
				defer gray.Close()
				assert.Equal(t, 0, gocv.CountNonZero(gray))
			}
		})
	}
}

func TestJointLabelsEmptyImage(t *testing.T) {

	img := gocv.NewMat()
	defer img.Close()

	joints := []pose.VisibleJoint{{Joint: 0, Point: image.Pt(20, 50)}}
	err := JointLabels(&img, joints, pose.DefaultTopology(), DefaultLabelFont())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty image")
}

func TestJointLabels(t *testing.T) {

	topo := pose.DefaultTopology()

	img := blank(200, 100)
	defer img.Close()

	require.NoError(t, JointLabels(&img, nil, topo, DefaultLabelFont()))

	joints := []pose.VisibleJoint{{Joint: 0, Point: image.Pt(20, 50)}}
	require.NoError(t, JointLabels(&img, joints, topo, DefaultLabelFont()))

	// "head" is written up and to the right of the joint
	lit := 0

	for y := 25; y < 45; y++ {
		for x := 28; x < 60; x++ {
			if img.GetVecbAt(y, x)[0] > 0 {
				lit++
			}
		}
	}

	assert.Greater(t, lit, 0)

	// nothing is written left of the joint
	for y := 0; y < 100; y++ {
		assert.Equal(t, blackBGR, img.GetVecbAt(y, 5))
	}
}

func TestPaletteColor(t *testing.T) {
	assert.Equal(t, posePalette[0], PaletteColor(0))
	assert.Equal(t, posePalette[1], PaletteColor(len(posePalette)+1))
	assert.Equal(t, posePalette[3], PaletteColor(-3))
}
