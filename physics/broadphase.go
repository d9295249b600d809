package physics

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pair is a potential contact between two bodies, A < B.
type Pair struct {
	A, B BodyID
}

type cellKey struct {
	x, y, z int32
}

// Broadphase buckets body bounds into a sparse uniform grid and reports
// pairs whose bounds overlap.
type Broadphase struct {
	cellSize float64
	cells    map[cellKey][]BodyID
	seen     map[Pair]struct{}
}

// NewBroadphase creates a grid with cubic cells of the given edge length.
func NewBroadphase(cellSize float64) *Broadphase {
	return &Broadphase{
		cellSize: cellSize,
		cells:    make(map[cellKey][]BodyID),
		seen:     make(map[Pair]struct{}),
	}
}

// Clear empties every cell, keeping allocated buckets.
func (g *Broadphase) Clear() {
	for k, ids := range g.cells {
		g.cells[k] = ids[:0]
	}
	clear(g.seen)
}

// Insert adds id to every cell its bounds touch.
func (g *Broadphase) Insert(id BodyID, box r3.Box) {
	lo := g.cellOf(box.Min)
	hi := g.cellOf(box.Max)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				k := cellKey{x, y, z}
				g.cells[k] = append(g.cells[k], id)
			}
		}
	}
}

// Pairs rebuilds the grid from bodies and appends every overlapping pair to
// dst, sorted by (A, B).
func (g *Broadphase) Pairs(dst []Pair, order []BodyID, bodies map[BodyID]*Body) []Pair {
	g.Clear()
	for _, id := range order {
		g.Insert(id, bodies[id].AABB())
	}

	for _, ids := range g.cells {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				p := Pair{A: ids[i], B: ids[j]}
				if p.A > p.B {
					p.A, p.B = p.B, p.A
				}
				if _, dup := g.seen[p]; dup {
					continue
				}
				g.seen[p] = struct{}{}
				if overlaps(bodies[p.A].AABB(), bodies[p.B].AABB()) {
					dst = append(dst, p)
				}
			}
		}
	}

	slices.SortFunc(dst, func(a, b Pair) int {
		if c := cmp.Compare(a.A, b.A); c != 0 {
			return c
		}
		return cmp.Compare(a.B, b.B)
	})
	return dst
}

func (g *Broadphase) cellOf(p r3.Vec) cellKey {
	return cellKey{
		x: int32(math.Floor(p.X / g.cellSize)),
		y: int32(math.Floor(p.Y / g.cellSize)),
		z: int32(math.Floor(p.Z / g.cellSize)),
	}
}

func overlaps(a, b r3.Box) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}
