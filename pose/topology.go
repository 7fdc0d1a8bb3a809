package pose

import (
	"image/color"

	"github.com/swdee/go-poseoverlay/errors"
)

/* MPII skeleton joints, in feed order
0: head
1: lankle
2: lelbow
3: lhip
4: lknee
5: lshoulder
6: lwrist
7: pelvis
8: rankle
9: relbow
10: rhip
11: rknee
12: rshoulder
13: rwrist
14: thorax
15: upperneck
*/

// JointID is the position of a joint in its Topology
type JointID int

// JointSpec names a joint of the skeleton
type JointSpec struct {
	Name string
	ID   JointID
}

// Edge is a bone drawn as a line between two joints
type Edge struct {
	From  JointID
	To    JointID
	Color color.RGBA
}

var (
	// DefaultEdgeColor is the color bones are drawn in unless a topology
	// says otherwise
	DefaultEdgeColor = color.RGBA{R: 254, G: 144, B: 27, A: 255}

	// mpiiJoints are the body parts of the MPII human pose model
	mpiiJoints = []string{"head", "lankle", "lelbow", "lhip", "lknee",
		"lshoulder", "lwrist", "pelvis", "rankle", "relbow", "rhip", "rknee",
		"rshoulder", "rwrist", "thorax", "upperneck"}

	// mpiiSkeleton defines the joints to draw lines between.  The numbers
	// are paired, so (8,11) means draw line from right ankle to right knee.
	mpiiSkeleton = [32]JointID{8, 11, 11, 10, 10, 7, 7, 3, 3, 4, 4, 1, 10, 12,
		3, 5, 5, 14, 14, 12, 5, 2, 2, 6, 12, 9, 9, 13, 14, 15, 15, 0}

	// mpiiLowerBody are the joints left out of upper body renders
	mpiiLowerBody = []string{"lankle", "rankle", "lknee", "rknee"}
)

// Topology is the immutable joint and edge table of a skeleton.  Build one
// with NewTopology or DefaultTopology and share it read-only.
type Topology struct {
	joints    []JointSpec
	edges     []Edge
	byName    map[string]JointID
	lowerBody map[JointID]bool
}

// DefaultTopology returns the 16 joint MPII skeleton with 16 bones
func DefaultTopology() *Topology {

	edges := make([]Edge, 0, len(mpiiSkeleton)/2)

	for i := 0; i < len(mpiiSkeleton)/2; i++ {
		edges = append(edges, Edge{
			From:  mpiiSkeleton[2*i],
			To:    mpiiSkeleton[2*i+1],
			Color: DefaultEdgeColor,
		})
	}

	t, err := NewTopology(mpiiJoints, edges, mpiiLowerBody)

	if err != nil {
		// static table, can only fail if edited incorrectly
		panic(err)
	}

	return t
}

// NewTopology validates and builds a Topology.  Joint names must be unique,
// every edge endpoint must reference a joint and every lower body name must
// be a joint.
func NewTopology(joints []string, edges []Edge, lowerBody []string) (*Topology, error) {

	if len(joints) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidTopology, "no joints defined")
	}

	t := &Topology{
		joints:    make([]JointSpec, 0, len(joints)),
		edges:     make([]Edge, len(edges)),
		byName:    make(map[string]JointID, len(joints)),
		lowerBody: make(map[JointID]bool, len(lowerBody)),
	}

	for i, name := range joints {

		if name == "" {
			return nil, errors.Wrapf(errors.ErrInvalidTopology, "joint %d has no name", i)
		}

		if _, exists := t.byName[name]; exists {
			return nil, errors.Wrapf(errors.ErrInvalidTopology, "duplicate joint name %q", name)
		}

		t.byName[name] = JointID(i)
		t.joints = append(t.joints, JointSpec{Name: name, ID: JointID(i)})
	}

	for i, e := range edges {
		if !t.valid(e.From) || !t.valid(e.To) {
			return nil, errors.Wrapf(errors.ErrInvalidTopology,
				"edge %d (%d,%d) references unknown joint", i, e.From, e.To)
		}
	}

	copy(t.edges, edges)

	for _, name := range lowerBody {

		id, ok := t.byName[name]

		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidTopology,
				"lower body joint %q is not in the topology", name)
		}

		t.lowerBody[id] = true
	}

	return t, nil
}

// valid checks the joint id is within the topology
func (t *Topology) valid(id JointID) bool {
	return id >= 0 && int(id) < len(t.joints)
}

// Joints returns the joints in topology order.  The returned slice must
// not be modified.
func (t *Topology) Joints() []JointSpec {
	return t.joints
}

// Edges returns the bones of the skeleton.  The returned slice must not be
// modified.
func (t *Topology) Edges() []Edge {
	return t.edges
}

// NumJoints returns the number of joints in the topology
func (t *Topology) NumJoints() int {
	return len(t.joints)
}

// Lookup returns the id of the named joint
func (t *Topology) Lookup(name string) (JointID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the name of the joint, or an empty string if the id is not
// part of the topology
func (t *Topology) Name(id JointID) string {
	if !t.valid(id) {
		return ""
	}
	return t.joints[id].Name
}

// IsLowerBody reports if the joint is excluded from upper body renders
func (t *Topology) IsLowerBody(id JointID) bool {
	return t.lowerBody[id]
}

// Recolor returns a copy of the topology with every edge color replaced by
// the result of fn, the receiver is not modified
func (t *Topology) Recolor(fn func(i int, e Edge) color.RGBA) *Topology {

	c := *t
	c.edges = make([]Edge, len(t.edges))

	for i, e := range t.edges {
		e.Color = fn(i, e)
		c.edges[i] = e
	}

	return &c
}
