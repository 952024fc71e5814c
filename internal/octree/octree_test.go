package octree_test

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/octree"
	"github.com/san-kum/gravsim/internal/particle"
)

func randomStore(rng *rand.Rand, n int, extent float64) *particle.Store {
	recs := make([]particle.Particle, n)
	for i := range recs {
		recs[i] = particle.Particle{
			Position: mgl64.Vec3{
				(rng.Float64()*2 - 1) * extent,
				(rng.Float64()*2 - 1) * extent,
				(rng.Float64()*2 - 1) * extent,
			},
			Mass: 0.1 + rng.Float64(),
		}
	}
	ps, err := particle.NewStore(recs)
	Expect(err).NotTo(HaveOccurred())
	return ps
}

func storeOf(positions ...mgl64.Vec3) *particle.Store {
	recs := make([]particle.Particle, len(positions))
	for i, p := range positions {
		recs[i] = particle.Particle{Position: p, Mass: 1}
	}
	ps, err := particle.NewStore(recs)
	Expect(err).NotTo(HaveOccurred())
	return ps
}

// subtreeMass sums the leaf masses below id.
func subtreeMass(t *octree.Tree, id octree.NodeID) float64 {
	n := t.Node(id)
	if n.Kind == octree.KindLeaf {
		return n.Mass
	}
	sum := 0.0
	for _, c := range n.Children {
		if c != octree.None {
			sum += subtreeMass(t, c)
		}
	}
	return sum
}

var _ = Describe("Octant", func() {
	center := mgl64.Vec3{0, 0, 0}

	DescribeTable("codes",
		func(p mgl64.Vec3, want int) {
			Expect(octree.Octant(center, p)).To(Equal(want))
		},
		Entry("all negative", mgl64.Vec3{-1, -1, -1}, 0),
		Entry("x positive", mgl64.Vec3{1, -1, -1}, 1),
		Entry("y positive", mgl64.Vec3{-1, 1, -1}, 2),
		Entry("z positive", mgl64.Vec3{-1, -1, 1}, 4),
		Entry("all positive", mgl64.Vec3{1, 1, 1}, 7),
		Entry("on center goes positive", mgl64.Vec3{0, 0, 0}, 7),
		Entry("on x plane only", mgl64.Vec3{0, -1, -1}, 1),
		Entry("negative zero counts as equal", mgl64.Vec3{math.Copysign(0, -1), -1, -1}, 1),
	)
})

var _ = Describe("Tree", func() {
	var tree *octree.Tree

	BeforeEach(func() {
		tree = octree.New(1, octree.DefaultMaxDepth)
	})

	Context("when empty", func() {
		It("has an inert root at its geometric centre", func() {
			tree.Aggregate()
			root := tree.Node(tree.Root())
			Expect(root.Kind).To(Equal(octree.KindBranch))
			Expect(root.TotalMass).To(BeZero())
			Expect(root.CenterOfMass).To(Equal(mgl64.Vec3{0, 0, 0}))
			Expect(root.Width).To(Equal(2.0))
		})
	})

	Context("inserting", func() {
		It("places a single particle directly in its octant slot", func() {
			Expect(tree.Insert(0, mgl64.Vec3{0.5, 0.5, 0.5}, 2)).To(Succeed())
			root := tree.Node(tree.Root())
			child := root.Children[7]
			Expect(child).NotTo(Equal(octree.None))
			Expect(tree.Node(child).Kind).To(Equal(octree.KindLeaf))
			Expect(root.TotalMass).To(Equal(2.0))
		})

		It("subdivides toward the shared octant", func() {
			Expect(tree.Insert(0, mgl64.Vec3{0.25, 0.25, 0.25}, 1)).To(Succeed())
			Expect(tree.Insert(1, mgl64.Vec3{0.75, 0.75, 0.75}, 3)).To(Succeed())

			root := tree.Node(tree.Root())
			sub := tree.Node(root.Children[7])
			Expect(sub.Kind).To(Equal(octree.KindBranch))
			Expect(sub.Lower).To(Equal(mgl64.Vec3{0, 0, 0}))
			Expect(sub.Upper).To(Equal(mgl64.Vec3{1, 1, 1}))
			Expect(sub.Width).To(Equal(1.0))
			Expect(sub.Depth).To(Equal(1))
			Expect(sub.TotalMass).To(Equal(4.0))
			Expect(root.TotalMass).To(Equal(4.0))
			Expect(tree.Node(sub.Children[0]).ID).To(Equal(0))
			Expect(tree.Node(sub.Children[7]).ID).To(Equal(1))
		})

		It("accumulates branch mass equal to the mass below it", func() {
			ps := randomStore(rand.New(rand.NewSource(7)), 300, 1)
			Expect(tree.Build(ps, 1)).To(Succeed())

			tree.Walk(func(id octree.NodeID, n *octree.Node) bool {
				if n.Kind == octree.KindBranch {
					Expect(n.TotalMass).To(BeNumerically("~", subtreeMass(tree, id), 1e-9))
				}
				return true
			})
			Expect(tree.Node(tree.Root()).TotalMass).To(BeNumerically("~", ps.TotalMass(), 1e-9))
		})

		It("holds exactly one leaf per particle", func() {
			ps := randomStore(rand.New(rand.NewSource(11)), 500, 1)
			Expect(tree.Build(ps, 1)).To(Succeed())

			var ids []int
			tree.Walk(func(id octree.NodeID, n *octree.Node) bool {
				if n.Kind == octree.KindLeaf {
					ids = append(ids, tree.Particles(id)...)
				}
				return true
			})
			sort.Ints(ids)
			Expect(ids).To(HaveLen(500))
			for i, id := range ids {
				Expect(id).To(Equal(i))
			}
			Expect(tree.Stats().Leaves).To(Equal(500))
		})

		It("accepts particles on the root boundary", func() {
			Expect(tree.Insert(0, mgl64.Vec3{1, 1, 1}, 1)).To(Succeed())
			Expect(tree.Insert(1, mgl64.Vec3{-1, -1, -1}, 1)).To(Succeed())
		})
	})

	Context("with degenerate geometry", func() {
		It("merges coincident particles instead of subdividing forever", func() {
			p := mgl64.Vec3{0.3, -0.2, 0.1}
			ps := storeOf(p, p, p, mgl64.Vec3{-0.5, 0.5, 0.5})
			Expect(tree.Build(ps, 1)).To(Succeed())

			st := tree.Stats()
			Expect(st.Merged).To(Equal(2))
			Expect(st.Leaves).To(Equal(2))

			var merged octree.NodeID = octree.None
			tree.Walk(func(id octree.NodeID, n *octree.Node) bool {
				if n.Kind == octree.KindLeaf && n.Count > 1 {
					merged = id
				}
				return true
			})
			Expect(merged).NotTo(Equal(octree.None))
			leaf := tree.Node(merged)
			Expect(leaf.Count).To(Equal(3))
			Expect(leaf.Mass).To(Equal(3.0))
			Expect(leaf.Position).To(Equal(p))
			Expect(tree.Particles(merged)).To(ConsistOf(0, 1, 2))

			pos, mass, ok := tree.Member(merged, 1)
			Expect(ok).To(BeTrue())
			Expect(pos).To(Equal(p))
			Expect(mass).To(Equal(1.0))

			_, _, ok = tree.Member(merged, 3)
			Expect(ok).To(BeFalse())
		})

		It("caps depth for nearly coincident particles", func() {
			tree = octree.New(1, 4)
			a := mgl64.Vec3{0.5, 0.5, 0.5}
			b := mgl64.Vec3{0.5 + 1e-9, 0.5, 0.5}
			Expect(tree.Insert(0, a, 1)).To(Succeed())
			Expect(tree.Insert(1, b, 3)).To(Succeed())

			st := tree.Stats()
			Expect(st.Depth).To(BeNumerically("<=", 4))
			Expect(st.Merged).To(Equal(1))

			tree.Aggregate()
			root := tree.Node(tree.Root())
			want := a.Mul(1).Add(b.Mul(3)).Mul(0.25)
			Expect(root.CenterOfMass.ApproxEqualThreshold(want, 1e-12)).To(BeTrue())
		})
	})

	Context("with particles outside the root cube", func() {
		It("rejects them with a bounds error and keeps the rest", func() {
			ps := storeOf(
				mgl64.Vec3{0.1, 0.1, 0.1},
				mgl64.Vec3{1.5, 0, 0},
				mgl64.Vec3{-0.2, 0.3, 0},
				mgl64.Vec3{0, 0, -7},
			)
			err := tree.Build(ps, 1)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrOutOfBounds)).To(BeTrue())

			var be *octree.BoundsError
			Expect(errors.As(err, &be)).To(BeTrue())
			Expect(be.IDs).To(Equal([]int{1, 3}))

			st := tree.Stats()
			Expect(st.Rejected).To(Equal(2))
			Expect(st.Leaves).To(Equal(2))
			Expect(tree.Node(tree.Root()).TotalMass).To(Equal(2.0))
		})

		It("rejects non-finite positions", func() {
			err := tree.Insert(0, mgl64.Vec3{math.NaN(), 0, 0}, 1)
			Expect(err).To(MatchError(dynamo.ErrOutOfBounds))
		})
	})

	Context("aggregating", func() {
		It("puts the root centre of mass at the mass-weighted mean", func() {
			rng := rand.New(rand.NewSource(3))
			for trial := 0; trial < 20; trial++ {
				ps := randomStore(rng, 1+rng.Intn(200), 1)
				Expect(tree.Build(ps, 1)).To(Succeed())
				Expect(tree.Aggregated()).To(BeTrue())

				want := ps.CenterOfMass()
				got := tree.Node(tree.Root()).CenterOfMass
				Expect(got.ApproxEqualThreshold(want, 1e-12)).To(BeTrue(), "trial %d: %v vs %v", trial, got, want)
			}
		})

		It("is invalidated by a later insert", func() {
			tree.Aggregate()
			Expect(tree.Insert(0, mgl64.Vec3{0.1, 0.2, 0.3}, 1)).To(Succeed())
			Expect(tree.Aggregated()).To(BeFalse())
		})
	})

	Context("rebuilding", func() {
		It("starts from scratch each time", func() {
			ps := randomStore(rand.New(rand.NewSource(5)), 100, 1)
			Expect(tree.Build(ps, 1)).To(Succeed())
			first := tree.Stats()

			Expect(tree.Build(ps, 1)).To(Succeed())
			Expect(tree.Stats()).To(Equal(first))

			Expect(tree.Build(storeOf(mgl64.Vec3{0.5, 0.5, 0.5}), 1)).To(Succeed())
			Expect(tree.Stats().Leaves).To(Equal(1))
			Expect(tree.Stats().Nodes).To(Equal(2))
		})

		It("uses the half extent given to Build", func() {
			ps := storeOf(mgl64.Vec3{3, 0, 0})
			Expect(tree.Build(ps, 1)).To(MatchError(dynamo.ErrOutOfBounds))
			Expect(tree.Build(ps, 4)).To(Succeed())
			Expect(tree.HalfExtent()).To(Equal(4.0))
		})
	})
})
