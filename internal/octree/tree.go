package octree

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// DefaultMaxDepth caps subdivision; deeper coincidences merge.
const DefaultMaxDepth = 48

// Stats describes one build.
type Stats struct {
	Nodes    int
	Branches int
	Leaves   int
	Merged   int
	Rejected int
	Depth    int
}

// Tree is the node arena. It is not safe for concurrent mutation; once
// built and aggregated it may be read from many goroutines.
type Tree struct {
	nodes      []Node
	members    []member
	root       NodeID
	halfExtent float64
	maxDepth   int
	stats      Stats
	aggregated bool
}

// New returns an empty tree whose root spans [-halfExtent, halfExtent]³.
func New(halfExtent float64, maxDepth int) *Tree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	t := &Tree{maxDepth: maxDepth}
	t.Reset(halfExtent)
	return t
}

// Reset discards every node and starts a new root.
func (t *Tree) Reset(halfExtent float64) {
	t.nodes = t.nodes[:0]
	t.members = t.members[:0]
	t.stats = Stats{}
	t.aggregated = false
	t.halfExtent = halfExtent

	h := mgl64.Vec3{halfExtent, halfExtent, halfExtent}
	t.root = t.newBranch(h.Mul(-1), h, 0)
}

func (t *Tree) Root() NodeID        { return t.root }
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }
func (t *Tree) HalfExtent() float64  { return t.halfExtent }
func (t *Tree) MaxDepth() int        { return t.maxDepth }
func (t *Tree) Aggregated() bool     { return t.aggregated }

func (t *Tree) Stats() Stats {
	s := t.stats
	s.Nodes = len(t.nodes)
	return s
}

// InBounds reports whether p lies inside the closed root cube. NaN never does.
func (t *Tree) InBounds(p mgl64.Vec3) bool {
	return t.nodes[t.root].Contains(p)
}

// Insert adds one particle. Every branch on the path gains its mass.
func (t *Tree) Insert(id int, pos mgl64.Vec3, mass float64) error {
	if !t.InBounds(pos) {
		t.stats.Rejected++
		return fmt.Errorf("particle %d at %v: %w", id, pos, dynamo.ErrOutOfBounds)
	}
	t.aggregated = false

	b := t.root
	for {
		t.nodes[b].TotalMass += mass
		oct := Octant(t.nodes[b].Center, pos)
		child := t.nodes[b].Children[oct]

		switch {
		case child == None:
			t.nodes[b].Children[oct] = t.newLeaf(id, pos, mass)
			return nil

		case t.nodes[child].Kind == KindBranch:
			b = child

		case t.nodes[child].Position == pos || t.nodes[b].Depth+1 > t.maxDepth:
			t.merge(child, id, pos, mass)
			return nil

		default:
			parent := t.nodes[b]
			lo, hi := octantBounds(parent.Lower, parent.Upper, parent.Center, oct)
			nb := t.newBranch(lo, hi, parent.Depth+1)

			resident := &t.nodes[child]
			t.nodes[nb].Children[Octant(t.nodes[nb].Center, resident.Position)] = child
			t.nodes[nb].TotalMass += resident.Mass
			t.nodes[b].Children[oct] = nb
			b = nb
		}
	}
}

func (t *Tree) newBranch(lower, upper mgl64.Vec3, depth int) NodeID {
	id := NodeID(len(t.nodes))
	n := Node{
		Kind:    KindBranch,
		Lower:   lower,
		Upper:   upper,
		Center:  lower.Add(upper).Mul(0.5),
		Width:   upper[0] - lower[0],
		Depth:   depth,
		members: noMember,
	}
	for i := range n.Children {
		n.Children[i] = None
	}
	t.nodes = append(t.nodes, n)

	t.stats.Branches++
	if depth > t.stats.Depth {
		t.stats.Depth = depth
	}
	return id
}

func (t *Tree) newLeaf(id int, pos mgl64.Vec3, mass float64) NodeID {
	nid := NodeID(len(t.nodes))
	n := Node{
		Kind:     KindLeaf,
		ID:       id,
		Count:    1,
		Position: pos,
		Mass:     mass,
		members:  noMember,
	}
	for i := range n.Children {
		n.Children[i] = None
	}
	t.nodes = append(t.nodes, n)
	t.stats.Leaves++
	return nid
}

// merge folds a particle into an existing leaf.
func (t *Tree) merge(leaf NodeID, id int, pos mgl64.Vec3, mass float64) {
	n := &t.nodes[leaf]
	if n.members == noMember {
		n.members = t.pushMember(n.ID, n.Position, n.Mass, noMember)
	}
	n.members = t.pushMember(id, pos, mass, n.members)

	total := n.Mass + mass
	if pos != n.Position {
		n.Position = n.Position.Mul(n.Mass).Add(pos.Mul(mass)).Mul(1 / total)
	}
	n.Mass = total
	n.Count++
	t.stats.Merged++
}

func (t *Tree) pushMember(id int, pos mgl64.Vec3, mass float64, next int32) int32 {
	t.members = append(t.members, member{id: id, position: pos, mass: mass, next: next})
	return int32(len(t.members) - 1)
}

// Member returns the original position and mass of particle pid if it is
// held by leaf.
func (t *Tree) Member(leaf NodeID, pid int) (mgl64.Vec3, float64, bool) {
	n := &t.nodes[leaf]
	if n.members == noMember {
		if n.ID == pid {
			return n.Position, n.Mass, true
		}
		return mgl64.Vec3{}, 0, false
	}
	for m := n.members; m != noMember; m = t.members[m].next {
		if t.members[m].id == pid {
			return t.members[m].position, t.members[m].mass, true
		}
	}
	return mgl64.Vec3{}, 0, false
}

// EachMember calls fn for every particle held by a leaf with its own
// position and mass.
func (t *Tree) EachMember(leaf NodeID, fn func(id int, pos mgl64.Vec3, mass float64)) {
	n := &t.nodes[leaf]
	if n.members == noMember {
		fn(n.ID, n.Position, n.Mass)
		return
	}
	for m := n.members; m != noMember; m = t.members[m].next {
		fn(t.members[m].id, t.members[m].position, t.members[m].mass)
	}
}

// Particles lists the ids held by a leaf.
func (t *Tree) Particles(leaf NodeID) []int {
	n := &t.nodes[leaf]
	if n.members == noMember {
		return []int{n.ID}
	}
	ids := make([]int, 0, n.Count)
	for m := n.members; m != noMember; m = t.members[m].next {
		ids = append(ids, t.members[m].id)
	}
	return ids
}

// Walk visits nodes depth-first from the root. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n := &t.nodes[id]
		if !fn(id, n) || n.Kind != KindBranch {
			return
		}
		for _, c := range n.Children {
			if c != None {
				visit(c)
			}
		}
	}
	visit(t.root)
}
