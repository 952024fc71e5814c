package octree

import "github.com/go-gl/mathgl/mgl64"

// Aggregate computes every branch's centre of mass from its children's
// mass moments. A branch is always allocated after its parent, so one
// reverse sweep over the arena sees children before parents.
//
// A branch with no mass gets its geometric centre and is inert.
func (t *Tree) Aggregate() {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := &t.nodes[i]
		if n.Kind != KindBranch {
			continue
		}

		var moment mgl64.Vec3
		for _, c := range n.Children {
			if c == None {
				continue
			}
			pos, mass := t.nodes[c].PointMass()
			moment = moment.Add(pos.Mul(mass))
		}

		if n.TotalMass == 0 {
			n.CenterOfMass = n.Center
			continue
		}
		n.CenterOfMass = moment.Mul(1 / n.TotalMass)
	}
	t.aggregated = true
}
