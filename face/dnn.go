package face

import (
	"image"

	"github.com/swdee/go-poseoverlay/errors"
	"gocv.io/x/gocv"
)

// DNNParams defines the parameters of an SSD face detection network
type DNNParams struct {
	// MinConfidence is the minimum probability score for a detection to be
	// treated as a face
	MinConfidence float32
	// InputWidth and InputHeight are the network input tensor size
	InputWidth  int
	InputHeight int
	// Mean is subtracted from each BGR channel of the input blob
	Mean gocv.Scalar
}

// ResNetSSDParams returns the DNNParams for the OpenCV res10 300x300 SSD
// face detector featuring:
// - MinConfidence: 0.5
// - Input Size: 300x300
// - Mean: (104, 177, 123)
func ResNetSSDParams() DNNParams {
	return DNNParams{
		MinConfidence: 0.5,
		InputWidth:    300,
		InputHeight:   300,
		Mean:          gocv.NewScalar(104, 177, 123, 0),
	}
}

// DNNDetector is a Detector backed by an OpenCV DNN SSD face network
type DNNDetector struct {
	net    gocv.Net
	params DNNParams
}

// ssdStride is the number of values per detection in SSD output, being
// [batchId, classId, confidence, left, top, right, bottom]
const ssdStride = 7

// NewDNNDetector loads the face network from the model weights file and
// optional config file, eg: res10_300x300_ssd_iter_140000.caffemodel and
// deploy.prototxt
func NewDNNDetector(model, config string, p DNNParams) (*DNNDetector, error) {

	net := gocv.ReadNet(model, config)

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

	return &DNNDetector{
		net:    net,
		params: p,
	}, nil
}

// Detect runs the network over the frame
func (d *DNNDetector) Detect(frame gocv.Mat) ([]Detection, error) {

	if frame.Empty() {
		return nil, errors.New("frame is empty")
	}

	blob := gocv.BlobFromImage(frame, 1.0,
		image.Pt(d.params.InputWidth, d.params.InputHeight),
		d.params.Mean, false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	prob := d.net.Forward("")
	defer prob.Close()

	if prob.Empty() {
		return nil, errors.New("face network returned no output")
	}

	data, err := prob.DataPtrFloat32()

	if err != nil {
		return nil, errors.Wrap(err, "error reading face network output")
	}

	return parseSSD(data, d.params.MinConfidence), nil
}

// Close frees the network
func (d *DNNDetector) Close() error {
	return d.net.Close()
}

// parseSSD converts raw SSD output values into detections, dropping those
// below the minimum confidence
func parseSSD(data []float32, minConf float32) []Detection {

	dets := make([]Detection, 0)

	for i := 0; i+ssdStride <= len(data); i += ssdStride {

		confidence := data[i+2]

		if confidence < minConf {
			continue
		}

		dets = append(dets, Detection{
			Confidence: confidence,
			Left:       data[i+3],
			Top:        data[i+4],
			Right:      data[i+5],
			Bottom:     data[i+6],
		})
	}

	return dets
}
