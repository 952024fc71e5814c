package octree

import (
	"fmt"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
)

// BoundsError lists particles left out of a build.
type BoundsError struct {
	IDs        []int
	HalfExtent float64
}

func (e *BoundsError) Error() string {
	ids := e.IDs
	suffix := ""
	if len(ids) > 8 {
		ids, suffix = ids[:8], ", ..."
	}
	return fmt.Sprintf("octree: %d particle(s) outside ±%g: ids %v%s", len(e.IDs), e.HalfExtent, ids, suffix)
}

func (e *BoundsError) Unwrap() error {
	return dynamo.ErrOutOfBounds
}

// Build resets the tree, inserts every particle of ps and aggregates.
// Particles outside the root cube are skipped and reported through a
// *BoundsError; the tree is still usable for the rest.
func (t *Tree) Build(ps *particle.Store, halfExtent float64) error {
	t.Reset(halfExtent)

	var rejected []int
	all := ps.All()
	for i := range all {
		p := &all[i]
		if err := t.Insert(i, p.Position, p.Mass); err != nil {
			rejected = append(rejected, i)
		}
	}

	t.Aggregate()

	if len(rejected) > 0 {
		return &BoundsError{IDs: rejected, HalfExtent: halfExtent}
	}
	return nil
}
