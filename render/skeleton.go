package render

import (
	"image"
	"image/color"

	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-poseoverlay/pose"
	"gocv.io/x/gocv"
)

// SkeletonStyle defines the parameters used for rendering a skeleton
type SkeletonStyle struct {
	// LineThickness is the width of bone lines in pixels
	LineThickness int
	// JointRadius is the radius of the filled joint circles in pixels
	JointRadius int
	// JointColor is the color of every joint circle
	JointColor color.RGBA
	// LineType is gocv.LineAA for anti-aliased drawing
	LineType gocv.LineType
}

// DefaultSkeletonStyle returns default skeleton style settings
func DefaultSkeletonStyle() SkeletonStyle {
	return SkeletonStyle{
		LineThickness: 5,
		JointRadius:   5,
		JointColor:    JointColor,
		LineType:      gocv.LineAA,
	}
}

const (
	// subPixelShift is the number of fractional bits used for polygon
	// vertices so thick lines keep their direction
	subPixelShift = 4
)

// Skeleton renders the visible bones and joints onto the image.  All bones
// are drawn first and joints on top of them, so a joint is never covered by
// a line.
func Skeleton(img *gocv.Mat, vis pose.Visible, style SkeletonStyle) {
	Bones(img, vis.Edges, style)
	Joints(img, vis.Joints, style)
}

// Bones draws each edge as a line between its joint centers
func Bones(img *gocv.Mat, edges []pose.VisibleEdge, style SkeletonStyle) {

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())

	for _, e := range edges {
		line(img, bounds, e.From, e.To, e.Color, style)
	}
}

// Joints draws each joint as a filled circle
func Joints(img *gocv.Mat, joints []pose.VisibleJoint, style SkeletonStyle) {

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())

	for _, j := range joints {

		// skip circles entirely off the image
		if !j.Point.In(bounds.Inset(-style.JointRadius)) {
			continue
		}

		gocv.CircleWithParams(img, j.Point, style.JointRadius, style.JointColor,
			-1, style.LineType, 0)
	}
}

// maxCoord bounds joint centers before they are scaled onto the sub pixel
// grid, keeping outlines inside both clipper's and OpenCV's ranges
const maxCoord = 1 << 30

// line draws a thick line with round caps.  gocv.Line has no line type
// parameter, so the outline is built with a clipper offset, cut to the image
// and filled as a polygon which supports anti-aliasing.
func line(img *gocv.Mat, bounds image.Rectangle, from, to image.Point,
	clr color.RGBA, style SkeletonStyle) {

	half := float64(style.LineThickness) / 2

	if half <= 0 {
		return
	}

	scale := float64(int(1) << subPixelShift)

	path := clipper.Path{subPixel(from)}

	if from != to {
		path = append(path, subPixel(to))
	}

	co := clipper.NewClipperOffset()
	co.ArcTolerance = scale / 8
	co.AddPath(path, clipper.JtRound, clipper.EtOpenRound)

	outline := co.Execute(half * scale)

	// the image grown by a pixel so edge anti-aliasing is kept
	grown := bounds.Inset(-1)
	frame := clipper.Path{
		subPixel(grown.Min),
		subPixel(image.Pt(grown.Max.X, grown.Min.Y)),
		subPixel(grown.Max),
		subPixel(image.Pt(grown.Min.X, grown.Max.Y)),
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(outline, clipper.PtSubject, true)
	c.AddPath(frame, clipper.PtClip, true)

	polys, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)

	if !ok || len(polys) == 0 {
		return
	}

	pts := make([][]image.Point, 0, len(polys))

	for _, poly := range polys {
		ring := make([]image.Point, len(poly))
		for k, ip := range poly {
			ring[k] = image.Pt(int(ip.X), int(ip.Y))
		}
		pts = append(pts, ring)
	}

	pv := gocv.NewPointsVectorFromPoints(pts)
	gocv.FillPolyWithParams(img, pv, clr, style.LineType, subPixelShift, image.Pt(0, 0))
	pv.Close()
}

// subPixel clamps p and moves it onto the sub pixel grid
func subPixel(p image.Point) *clipper.IntPoint {

	clampCoord := func(v int) clipper.CInt {
		return clipper.CInt(max(-maxCoord, min(v, maxCoord)) << subPixelShift)
	}

	return &clipper.IntPoint{X: clampCoord(p.X), Y: clampCoord(p.Y)}
}
