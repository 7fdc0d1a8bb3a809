package pose

import (
	"encoding/json"
	"image"

	"github.com/swdee/go-poseoverlay/errors"
)

// Observation is a joint's position and confidence in a single frame
type Observation struct {
	Joint JointID
	// Point is the joint position truncated to the pixel grid
	Point image.Point
	// Confidence is the pose estimator's score in the range [0,1]
	Confidence float64
}

// Frame is the decoded pose data of one video frame.  It holds exactly one
// Observation per topology joint and is never modified after decoding.
type Frame struct {
	// Index is the video frame number
	Index        int
	Observations []Observation
	byJoint      map[JointID]Observation
}

// Observation returns the observation of the given joint
func (f *Frame) Observation(id JointID) (Observation, bool) {
	obs, ok := f.byJoint[id]
	return obs, ok
}

// Decoder maps feed records onto a topology's joints
type Decoder struct {
	topo *Topology
}

// NewDecoder returns a Decoder for the given topology
func NewDecoder(topo *Topology) *Decoder {
	return &Decoder{topo: topo}
}

// Decode reads the position and confidence of every topology joint from the
// feed record at the frame index.  It fails with ErrMissingFrameData when the
// feed has no record for the index, and ErrMalformedRecord when a joint is
// absent or its fields are missing or non-numeric.
func (d *Decoder) Decode(feed *Feed, index int) (*Frame, error) {

	rec, ok := feed.Record(index)

	if !ok {
		return nil, errors.WithHintf(
			errors.Wrapf(errors.ErrMissingFrameData, "no pose record for frame %d", index),
			"the pose feed has %d records, it must have one per video frame", feed.Len())
	}

	frame := &Frame{
		Index:        index,
		Observations: make([]Observation, 0, d.topo.NumJoints()),
		byJoint:      make(map[JointID]Observation, d.topo.NumJoints()),
	}

	for _, joint := range d.topo.Joints() {

		obs, err := decodePart(rec, joint)

		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", index)
		}

		frame.Observations = append(frame.Observations, obs)
		frame.byJoint[joint.ID] = obs
	}

	return frame, nil
}

// decodePart reads a single joint out of a record
func decodePart(rec Record, joint JointSpec) (Observation, error) {

	raw, ok := rec[joint.Name]

	if !ok {
		return Observation{}, errors.Wrapf(errors.ErrMalformedRecord,
			"joint %q is absent", joint.Name)
	}

	var p part

	if err := json.Unmarshal(raw, &p); err != nil {
		return Observation{}, errors.Mark(
			errors.Wrapf(err, "joint %q", joint.Name), errors.ErrMalformedRecord)
	}

	if len(p.Coords) < 2 {
		return Observation{}, errors.Wrapf(errors.ErrMalformedRecord,
			"joint %q needs 2 coords, got %d", joint.Name, len(p.Coords))
	}

	if len(p.Confidence) < 1 {
		return Observation{}, errors.Wrapf(errors.ErrMalformedRecord,
			"joint %q has no pointEstimationConfidence", joint.Name)
	}

	return Observation{
		Joint:      joint.ID,
		Point:      image.Pt(pixel(p.Coords[0]), pixel(p.Coords[1])),
		Confidence: p.Confidence[0],
	}, nil
}

// maxCoord bounds decoded coordinates well inside OpenCV's int range
const maxCoord = 1 << 30

// pixel truncates a coordinate toward zero onto the pixel grid
func pixel(v float64) int {
	return int(max(-maxCoord, min(v, maxCoord)))
}
