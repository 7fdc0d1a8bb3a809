package pose

import (
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/swdee/go-poseoverlay/errors"
	"gopkg.in/yaml.v3"
)

// topologyFile is the on disk layout of a skeleton definition, eg:
//
//	joints: [head, neck, lhand, rhand]
//	edges:
//	  - {from: head, to: neck}
//	  - {from: neck, to: lhand, color: "#ff0000"}
//	lower_body: []
//
// JSON files of the same shape are accepted as YAML is a superset of JSON.
type topologyFile struct {
	Joints    []string       `yaml:"joints"`
	Edges     []edgeFileSpec `yaml:"edges"`
	LowerBody []string       `yaml:"lower_body"`
}

type edgeFileSpec struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Color string `yaml:"color"`
}

// LoadTopology reads a skeleton definition from the given YAML or JSON file
func LoadTopology(file string) (*Topology, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "opening topology file %s", file),
			errors.ErrInvalidTopology)
	}

	defer f.Close()

	return ReadTopology(f)
}

// ReadTopology reads a skeleton definition from r
func ReadTopology(r io.Reader) (*Topology, error) {

	var def topologyFile

	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding topology"),
			errors.ErrInvalidTopology)
	}

	// index names so edges can be given by name
	ids := make(map[string]JointID, len(def.Joints))

	for i, name := range def.Joints {
		ids[name] = JointID(i)
	}

	edges := make([]Edge, 0, len(def.Edges))

	for i, e := range def.Edges {

		from, ok := ids[e.From]

		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidTopology,
				"edge %d: unknown joint %q", i, e.From)
		}

		to, ok := ids[e.To]

		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidTopology,
				"edge %d: unknown joint %q", i, e.To)
		}

		clr := DefaultEdgeColor

		if e.Color != "" {
			var err error
			clr, err = ParseHexColor(e.Color)

			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "edge %d", i),
					errors.ErrInvalidTopology)
			}
		}

		edges = append(edges, Edge{From: from, To: to, Color: clr})
	}

	return NewTopology(def.Joints, edges, def.LowerBody)
}

// ParseHexColor parses a "#RRGGBB" or "RRGGBB" string into an opaque color
func ParseHexColor(s string) (color.RGBA, error) {

	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	if len(hex) != 6 {
		return color.RGBA{}, errors.Newf("color %q must be in #RRGGBB format", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)

	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "color %q is not hexadecimal", s)
	}

	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}
