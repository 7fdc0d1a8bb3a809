package pose

import (
	"encoding/json"
	"io"
	"os"

	"github.com/swdee/go-poseoverlay/errors"
)

// Record is the raw pose data of one video frame, keyed by body part name.
// Each value is decoded lazily so that a bad joint fails the frame it
// belongs to rather than the whole feed.
type Record map[string]json.RawMessage

// Feed is the frame indexed sequence of pose records produced by an external
// pose estimator
type Feed struct {
	records []Record
}

// part is the layout of a single body part within a Record
type part struct {
	Coords     []float64 `json:"coords"`
	Confidence []float64 `json:"pointEstimationConfidence"`
}

// LoadFeed reads the pose feed from the given JSON file
func LoadFeed(file string) (*Feed, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "opening pose file %s", file), errors.ErrFeedLoad),
			"Pose JSON file not found!")
	}

	defer f.Close()

	return ReadFeed(f)
}

// ReadFeed reads a pose feed from r.  The feed must be a JSON array of
// objects.
func ReadFeed(r io.Reader) (*Feed, error) {

	var records []Record

	dec := json.NewDecoder(r)

	if err := dec.Decode(&records); err != nil {
		return nil, feedError(errors.Wrap(err, "decoding pose feed"))
	}

	if records == nil {
		return nil, feedError(errors.New("pose feed is not an array"))
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, feedError(errors.New("unexpected data after pose feed array"))
	}

	for i, rec := range records {
		if rec == nil {
			return nil, feedError(errors.Newf("pose record %d is not an object", i))
		}
	}

	return NewFeed(records), nil
}

// feedError marks err as a feed load failure with the user facing hint
func feedError(err error) error {
	return errors.WithHint(errors.Mark(err, errors.ErrFeedLoad),
		"Error reading pose JSON. Is it properly formatted?")
}

// NewFeed wraps already decoded records
func NewFeed(records []Record) *Feed {
	return &Feed{records: records}
}

// Len returns the number of frames the feed has records for
func (f *Feed) Len() int {
	return len(f.records)
}

// Record returns the record for the frame index
func (f *Feed) Record(index int) (Record, bool) {
	if index < 0 || index >= len(f.records) {
		return nil, false
	}
	return f.records[index], true
}
