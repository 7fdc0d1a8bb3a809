package face

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
)

// Detector finds faces in a video frame
type Detector interface {
	// Detect returns the faces found in the frame, an empty slice if there
	// are none.  An error means the frame could not be processed.
	Detect(frame gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Detection is a single face found by a Detector.  Coordinates are fractions
// of the frame width and height.
type Detection struct {
	// Confidence is the probability score of the face detected
	Confidence float32
	Left       float32
	Top        float32
	Right      float32
	Bottom     float32
}

// Rect scales the fractional detection box onto a frame of the given size
func (d Detection) Rect(width, height int) image.Rectangle {
	return image.Rect(
		int(d.Left*float32(width)),
		int(d.Top*float32(height)),
		int(d.Right*float32(width)),
		int(d.Bottom*float32(height)),
	)
}

// SelectBest returns the detection with the highest confidence.  When
// several share the highest score the first one wins.  The bool is false
// when there are no detections.
func SelectBest(dets []Detection) (Detection, bool) {

	if len(dets) == 0 {
		return Detection{}, false
	}

	scores := make([]float64, len(dets))

	for i, d := range dets {
		scores[i] = float64(d.Confidence)
	}

	return dets[floats.MaxIdx(scores)], true
}
