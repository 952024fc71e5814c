package gravity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/octree"
	"github.com/san-kum/gravsim/internal/units"
)

// Vec is the vector type forces are returned in.
type Vec = mgl64.Vec3

// Query is the particle a force is evaluated for.
type Query struct {
	ID       int
	Position mgl64.Vec3
	Mass     float64
}

// TwoBody returns the force in newtons on a from b, directed from a toward
// b. Coincident points give zero; closer than minSep the magnitude is
// evaluated at minSep.
func TwoBody(tab units.Table, posA mgl64.Vec3, massA float64, posB mgl64.Vec3, massB float64, minSep float64) mgl64.Vec3 {
	d := posB.Sub(posA)
	r := d.Len()
	if r == 0 {
		return mgl64.Vec3{}
	}
	return d.Mul(tab.Force(massA, massB, math.Max(r, minSep)) / r)
}

// Evaluator walks a frozen, aggregated tree.
type Evaluator struct {
	Theta         float64
	MinSeparation float64
	Units         units.Table
}

// Force returns the net force on q and the number of two-body terms used.
func (e Evaluator) Force(t *octree.Tree, q Query) (mgl64.Vec3, int) {
	var w walk
	w.eval(e, t, t.Root(), q)
	return w.force, w.interactions
}

type walk struct {
	force        mgl64.Vec3
	interactions int
}

func (w *walk) add(e Evaluator, q Query, pos mgl64.Vec3, mass float64) {
	w.force = w.force.Add(TwoBody(e.Units, q.Position, q.Mass, pos, mass, e.MinSeparation))
	w.interactions++
}

func (w *walk) eval(e Evaluator, t *octree.Tree, id octree.NodeID, q Query) {
	n := t.Node(id)

	if n.Kind == octree.KindLeaf {
		w.leaf(e, t, id, n, q)
		return
	}

	if n.TotalMass == 0 {
		return
	}

	// A branch holding the query is always opened.
	if !n.Contains(q.Position) {
		dist := q.Position.Sub(n.CenterOfMass).Len()
		if dist > 0 && n.Width/dist < e.Theta {
			w.add(e, q, n.CenterOfMass, n.TotalMass)
			return
		}
	}

	for _, c := range n.Children {
		if c != octree.None {
			w.eval(e, t, c, q)
		}
	}
}

func (w *walk) leaf(e Evaluator, t *octree.Tree, id octree.NodeID, n *octree.Node, q Query) {
	if n.Count == 1 {
		if n.ID != q.ID {
			w.add(e, q, n.Position, n.Mass)
		}
		return
	}

	if _, _, ok := t.Member(id, q.ID); !ok {
		w.add(e, q, n.Position, n.Mass)
		return
	}

	// Query sits in a merged leaf: take the other members one by one.
	t.EachMember(id, func(pid int, pos mgl64.Vec3, mass float64) {
		if pid != q.ID {
			w.add(e, q, pos, mass)
		}
	})
}
