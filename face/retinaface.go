package face

import (
	"math"

	"github.com/swdee/go-poseoverlay/errors"
	"github.com/swdee/go-poseoverlay/preprocess"
	"github.com/swdee/go-poseoverlay/render"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
)

// RetinaFaceParams defines the parameters of a RetinaFace network and its
// post processing
type RetinaFaceParams struct {
	// ConfThreshold is the minimum face score for a prior box to be
	// considered for processing
	ConfThreshold float32
	// NMSThreshold is the maximum allowed Intersection Over Union (IoU)
	// between two face boxes for both to be kept
	NMSThreshold float32
	// MaxFaces is the maximum number of faces returned per frame
	MaxFaces int
	// InputSize is the width and height of the square network input, either
	// 320 or 640
	InputSize int
	// Mean is subtracted from each BGR channel of the input blob
	Mean gocv.Scalar
}

// WiderFaceParams returns the RetinaFaceParams for a model trained on the
// WIDERFACE dataset featuring:
// - ConfThreshold: 0.5
// - NMSThreshold: 0.4
// - MaxFaces: 128
// - InputSize: 320
// - Mean: (104, 117, 123)
func WiderFaceParams() RetinaFaceParams {
	return RetinaFaceParams{
		ConfThreshold: 0.5,
		NMSThreshold:  0.4,
		MaxFaces:      128,
		InputSize:     320,
		Mean:          gocv.NewScalar(104, 117, 123, 0),
	}
}

// RetinaFaceDetector is a Detector backed by a RetinaFace network.  Frames
// are letterboxed into the square network input and the face boxes mapped
// back onto the frame.
type RetinaFaceDetector struct {
	net      gocv.Net
	params   RetinaFaceParams
	priors   [][4]float32
	outNames []string
	// resizer is rebuilt when the frame size changes
	resizer *preprocess.Resizer
	input   gocv.Mat
}

// values per prior in the location and score outputs
const (
	locStride   = 4
	scoreStride = 2
)

// NewRetinaFaceDetector loads the RetinaFace network from the model file,
// eg: retinaface_mobile320.onnx
func NewRetinaFaceDetector(model string, p RetinaFaceParams) (*RetinaFaceDetector, error) {

	priors, err := retinaFacePriors(p.InputSize)

	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(model, "")

	if net.Empty() {
		return nil, errors.Newf("error reading face network model %s", model)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "error setting network backend")
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "error setting network target")
	}

	var names []string

	for _, id := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(id)
		names = append(names, layer.GetName())
		layer.Close()
	}

	return &RetinaFaceDetector{
		net:      net,
		params:   p,
		priors:   priors,
		outNames: names,
		input:    gocv.NewMat(),
	}, nil
}

// Detect runs the network over the frame
func (d *RetinaFaceDetector) Detect(frame gocv.Mat) ([]Detection, error) {

	if frame.Empty() {
		return nil, errors.New("frame is empty")
	}

	if d.resizer == nil || d.resizer.SrcWidth() != frame.Cols() ||
		d.resizer.SrcHeight() != frame.Rows() {

		if d.resizer != nil {
			d.resizer.Close()
		}

		d.resizer = preprocess.NewResizer(frame.Cols(), frame.Rows(),
			d.params.InputSize, d.params.InputSize)
	}

	d.resizer.LetterBoxResize(frame, &d.input, render.Black)

	blob := gocv.BlobFromImage(d.input, 1.0, d.resizer.DestSize(),
		d.params.Mean, false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	outputs := d.net.ForwardLayers(d.outNames)

	defer func() {
		for _, m := range outputs {
			m.Close()
		}
	}()

	var loc, scores []float32

	// outputs are told apart by their number of values per prior, the
	// landmark output is not used
	for _, m := range outputs {

		data, err := m.DataPtrFloat32()

		if err != nil {
			return nil, errors.Wrap(err, "error reading face network output")
		}

		switch len(data) {
		case len(d.priors) * locStride:
			loc = data
		case len(d.priors) * scoreStride:
			scores = data
		}
	}

	if loc == nil || scores == nil {
		return nil, errors.Newf("face network outputs do not match %d priors",
			len(d.priors))
	}

	return decodeRetinaFace(loc, scores, d.priors, d.params, d.resizer), nil
}

// Close frees the network and resize buffers
func (d *RetinaFaceDetector) Close() error {

	if d.resizer != nil {
		d.resizer.Close()
	}

	d.input.Close()

	return d.net.Close()
}

// retinaFacePriors generates the anchor boxes of a RetinaFace network with
// a square input of the given size.  Each prior is [cx, cy, w, h] as
// fractions of the input.
func retinaFacePriors(size int) ([][4]float32, error) {

	if size != 320 && size != 640 {
		return nil, errors.Newf("unsupported RetinaFace input size %d", size)
	}

	steps := []int{8, 16, 32}
	minSizes := [][]int{{16, 32}, {64, 128}, {256, 512}}

	priors := make([][4]float32, 0)

	for k, step := range steps {

		rows := int(math.Ceil(float64(size) / float64(step)))
		cols := rows

		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				for _, ms := range minSizes[k] {
					priors = append(priors, [4]float32{
						(float32(j) + 0.5) * float32(step) / float32(size),
						(float32(i) + 0.5) * float32(step) / float32(size),
						float32(ms) / float32(size),
						float32(ms) / float32(size),
					})
				}
			}
		}
	}

	return priors, nil
}

// decodeRetinaFace converts the raw location and score outputs into face
// detections on the source frame of the resizer, highest score first
func decodeRetinaFace(loc, scores []float32, priors [][4]float32,
	p RetinaFaceParams, r *preprocess.Resizer) []Detection {

	variances := [2]float32{0.1, 0.2}

	boxes := make([][4]float32, 0)
	confs := make([]float32, 0)

	for i, prior := range priors {

		score := scores[i*scoreStride+1]

		if score <= p.ConfThreshold {
			continue
		}

		// decode location relative to the prior
		cx := loc[i*locStride+0]*variances[0]*prior[2] + prior[0]
		cy := loc[i*locStride+1]*variances[0]*prior[3] + prior[1]
		w := float32(math.Exp(float64(loc[i*locStride+2]*variances[1]))) * prior[2]
		h := float32(math.Exp(float64(loc[i*locStride+3]*variances[1]))) * prior[3]

		boxes = append(boxes, [4]float32{cx - w*0.5, cy - h*0.5, cx + w*0.5, cy + h*0.5})
		confs = append(confs, score)
	}

	probs := make([]float64, len(confs))

	for i, c := range confs {
		probs[i] = float64(c)
	}

	// Argsort is ascending, walk it backwards for highest score first
	order := make([]int, len(probs))
	floats.Argsort(probs, order)

	kept := make([]int, 0)

	for n := len(order) - 1; n >= 0 && len(kept) < p.MaxFaces; n-- {

		box := boxes[order[n]]
		suppressed := false

		for _, k := range kept {
			if overlap(box, boxes[k]) > p.NMSThreshold {
				suppressed = true
				break
			}
		}

		if !suppressed {
			kept = append(kept, order[n])
		}
	}

	size := r.DestSize()
	scale := r.ScaleFactor()
	srcW := float32(r.SrcWidth())
	srcH := float32(r.SrcHeight())

	// map from network input fractions back to source frame fractions
	toSrcX := func(v float32) float32 {
		x := (v*float32(size.X) - float32(r.XPad())) / scale
		return clamp(x/srcW, 0, 1)
	}

	toSrcY := func(v float32) float32 {
		y := (v*float32(size.Y) - float32(r.YPad())) / scale
		return clamp(y/srcH, 0, 1)
	}

	dets := make([]Detection, 0, len(kept))

	for _, k := range kept {
		b := boxes[k]
		dets = append(dets, Detection{
			Confidence: confs[k],
			Left:       toSrcX(b[0]),
			Top:        toSrcY(b[1]),
			Right:      toSrcX(b[2]),
			Bottom:     toSrcY(b[3]),
		})
	}

	return dets
}

// overlap returns the Intersection over Union of two [x1, y1, x2, y2] boxes
func overlap(a, b [4]float32) float32 {

	w := max(0, min(a[2], b[2])-max(a[0], b[0]))
	h := max(0, min(a[3], b[3])-max(a[1], b[1]))
	inter := w * h

	union := (a[2]-a[0])*(a[3]-a[1]) + (b[2]-b[0])*(b[3]-b[1]) - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// clamp limits val to the range lo to hi
func clamp(val, lo, hi float32) float32 {
	return max(lo, min(val, hi))
}
