package octree

import "github.com/go-gl/mathgl/mgl64"

// Kind tags a Node.
type Kind uint8

const (
	KindLeaf Kind = iota + 1
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindBranch:
		return "branch"
	default:
		return "invalid"
	}
}

// NodeID addresses a node in the arena.
type NodeID int32

// None marks an empty child slot.
const None NodeID = -1

const noMember int32 = -1

// Node is a tagged leaf/branch. Fields not belonging to Kind are zero.
type Node struct {
	Kind Kind

	// Leaf. Position and Mass are the aggregate when Count > 1.
	ID       int
	Count    int
	Position mgl64.Vec3
	Mass     float64
	members  int32

	// Branch.
	Children     [8]NodeID
	Lower        mgl64.Vec3
	Upper        mgl64.Vec3
	Center       mgl64.Vec3
	Width        float64
	TotalMass    float64
	CenterOfMass mgl64.Vec3
	Depth        int
}

// PointMass returns the position and mass the node acts with.
func (n *Node) PointMass() (mgl64.Vec3, float64) {
	if n.Kind == KindLeaf {
		return n.Position, n.Mass
	}
	return n.CenterOfMass, n.TotalMass
}

// Contains reports whether p lies in the closed bounds of a branch.
func (n *Node) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if !(p[i] >= n.Lower[i] && p[i] <= n.Upper[i]) {
			return false
		}
	}
	return true
}

// Octant returns the 3-bit child index of p relative to center.
func Octant(center, p mgl64.Vec3) int {
	oct := 0
	if p[0] >= center[0] {
		oct |= 1
	}
	if p[1] >= center[1] {
		oct |= 2
	}
	if p[2] >= center[2] {
		oct |= 4
	}
	return oct
}

// octantBounds halves the parent cube toward oct.
func octantBounds(lower, upper, center mgl64.Vec3, oct int) (mgl64.Vec3, mgl64.Vec3) {
	lo, hi := lower, center
	for axis := 0; axis < 3; axis++ {
		if oct&(1<<axis) != 0 {
			lo[axis], hi[axis] = center[axis], upper[axis]
		}
	}
	return lo, hi
}

type member struct {
	id       int
	position mgl64.Vec3
	mass     float64
	next     int32
}
