package face

import (
	"image"

	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-poseoverlay/errors"
	"gocv.io/x/gocv"
)

// BlurParams defines how a detected face is obscured
type BlurParams struct {
	// KernelSize is the Gaussian kernel width and height in pixels, it is
	// rounded up to the next odd number
	KernelSize int
	// Padding grows the face box by this many pixels on every side
	Padding int
}

// DefaultBlurParams returns BlurParams featuring:
// - KernelSize: 51
// - Padding: 0
func DefaultBlurParams() BlurParams {
	return BlurParams{
		KernelSize: 51,
		Padding:    0,
	}
}

// Blurrer obscures the most confident face in a frame
type Blurrer struct {
	detector Detector
	params   BlurParams
	// blurred is reused between frames to hold the blurred copy
	blurred gocv.Mat
}

// NewBlurrer returns a Blurrer using the given face detector
func NewBlurrer(detector Detector, p BlurParams) *Blurrer {

	if p.KernelSize < 1 {
		p.KernelSize = 1
	}

	// gaussian kernels must be odd
	if p.KernelSize%2 == 0 {
		p.KernelSize++
	}

	return &Blurrer{
		detector: detector,
		params:   p,
		blurred:  gocv.NewMat(),
	}
}

// Close frees the detector and working memory
func (b *Blurrer) Close() error {

	err := b.detector.Close()

	if cerr := b.blurred.Close(); err == nil {
		err = cerr
	}

	return err
}

// Apply detects faces in the frame and blurs the region of the most
// confident one in place.  It returns the region blurred and true, or false
// with the frame untouched when no face was found.  A detector failure
// returns an error marked ErrFrameDecode.
func (b *Blurrer) Apply(frame *gocv.Mat) (image.Rectangle, bool, error) {

	if frame.Empty() {
		return image.Rectangle{}, false, errors.Wrap(errors.ErrFrameDecode, "face blur on empty frame")
	}

	dets, err := b.detector.Detect(*frame)

	if err != nil {
		return image.Rectangle{}, false, errors.Mark(
			errors.Wrap(err, "face detection failed"), errors.ErrFrameDecode)
	}

	best, ok := SelectBest(dets)

	if !ok {
		return image.Rectangle{}, false, nil
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	box := padRect(best.Rect(frame.Cols(), frame.Rows()), b.params.Padding).Intersect(bounds)

	if box.Empty() {
		return image.Rectangle{}, false, nil
	}

	gocv.GaussianBlur(*frame, &b.blurred,
		image.Pt(b.params.KernelSize, b.params.KernelSize), 0, 0, gocv.BorderDefault)

	// copy the blurred face back over the original, everything outside the
	// box stays as it was
	src := b.blurred.Region(box)
	defer src.Close()

	dst := frame.Region(box)
	defer dst.Close()

	src.CopyTo(&dst)

	return box, true, nil
}

// padRect grows the rectangle by the padding distance using a polygon
// offset with mitered corners, so a rectangle stays a rectangle
func padRect(r image.Rectangle, padding int) image.Rectangle {

	if padding <= 0 || r.Empty() {
		return r
	}

	path := clipper.Path{
		&clipper.IntPoint{X: clipper.CInt(r.Min.X), Y: clipper.CInt(r.Min.Y)},
		&clipper.IntPoint{X: clipper.CInt(r.Max.X), Y: clipper.CInt(r.Min.Y)},
		&clipper.IntPoint{X: clipper.CInt(r.Max.X), Y: clipper.CInt(r.Max.Y)},
		&clipper.IntPoint{X: clipper.CInt(r.Min.X), Y: clipper.CInt(r.Max.Y)},
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtMiter, clipper.EtClosedPolygon)

	solution := co.Execute(float64(padding))

	// bounding box of the offset polygon
	var points []image.Point

	for _, sol := range solution {
		for _, pt := range sol {
			points = append(points, image.Pt(int(pt.X), int(pt.Y)))
		}
	}

	if len(points) == 0 {
		return r
	}

	out := image.Rectangle{Min: points[0], Max: points[0]}

	for _, p := range points[1:] {
		out.Min.X = min(out.Min.X, p.X)
		out.Min.Y = min(out.Min.Y, p.Y)
		out.Max.X = max(out.Max.X, p.X)
		out.Max.Y = max(out.Max.Y, p.Y)
	}

	return out
}
