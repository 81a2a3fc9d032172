package stitch

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Policy turns saddle constraints into raw offsets for n basins.
// Implementations may assume every basin is linked to basin 0 through cs;
// Stitch checks that before calling Offsets and normalises the result.
type Policy interface {
	Name() string
	Offsets(n int, cs []Constraint) ([]float64, error)
}

// SpanningTree resolves offsets along a minimum spanning tree of the basin
// graph, weighting each saddle by its mean raw barrier.
type SpanningTree struct{}

// Name implements Policy.
func (SpanningTree) Name() string { return "spanning-tree" }

// Offsets implements Policy.
//
// Steps:
//  1. Sort constraints by Barrier ascending, ties by saddle index.
//  2. Kruskal: keep a constraint iff it joins two components.
//  3. Walk the tree from basin 0, propagating o_B = o_A + Φ_A − Φ_B.
//
// Complexity: O(S log S + α(n)·S).
func (SpanningTree) Offsets(n int, cs []Constraint) ([]float64, error) {
	order := make([]Constraint, len(cs))
	copy(order, cs)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Barrier() != order[j].Barrier() {
			return order[i].Barrier() < order[j].Barrier()
		}

		return order[i].Saddle < order[j].Saddle
	})

	sets := newDisjointSet(n)
	adj := make([][]Constraint, n)
	for _, c := range order {
		if sets.union(c.A, c.B) {
			adj[c.A] = append(adj[c.A], c)
			adj[c.B] = append(adj[c.B], c)
		}
	}

	off := make([]float64, n)
	seen := make([]bool, n)
	seen[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, c := range adj[u] {
			v, phiU, phiV := c.B, c.PhiA, c.PhiB
			if c.B == u {
				v, phiU, phiV = c.A, c.PhiB, c.PhiA
			}
			if seen[v] {
				continue
			}
			seen[v] = true
			off[v] = off[u] + phiU - phiV
			queue = append(queue, v)
		}
	}
	for k, ok := range seen {
		if !ok {
			return nil, &AlignmentError{Saddle: -1, Reason: fmt.Sprintf("basin %d is not linked to basin 0", k)}
		}
	}

	return off, nil
}

// LeastSquares chooses offsets minimising the total squared discontinuity
// over all saddles, with o_0 = 0.
type LeastSquares struct{}

// Name implements Policy.
func (LeastSquares) Name() string { return "least-squares" }

// Offsets implements Policy. Each constraint is one row
// o_A − o_B = Φ_B − Φ_A of an S×(n−1) system solved in the least-squares
// sense by QR.
func (LeastSquares) Offsets(n int, cs []Constraint) ([]float64, error) {
	off := make([]float64, n)
	if n == 1 {
		return off, nil
	}
	if len(cs) < n-1 {
		return nil, &AlignmentError{Saddle: -1, Reason: fmt.Sprintf("%d saddles cannot fix %d offsets", len(cs), n-1)}
	}

	a := mat.NewDense(len(cs), n-1, nil)
	b := mat.NewVecDense(len(cs), nil)
	for r, c := range cs {
		if c.A > 0 {
			a.Set(r, c.A-1, 1)
		}
		if c.B > 0 {
			a.Set(r, c.B-1, a.At(r, c.B-1)-1)
		}
		b.SetVec(r, c.PhiB-c.PhiA)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, &AlignmentError{Saddle: -1, Reason: fmt.Sprintf("least squares: %v", err)}
	}
	for k := 1; k < n; k++ {
		off[k] = x.AtVec(k - 1)
	}

	return off, nil
}

// disjointSet is a union-find with path compression and union by rank.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}

	return d
}

// find walks to the root iteratively, halving the path.
func (d *disjointSet) find(u int) int {
	for d.parent[u] != u {
		d.parent[u] = d.parent[d.parent[u]]
		u = d.parent[u]
	}

	return u
}

// union merges the sets of u and v and reports whether they were disjoint.
func (d *disjointSet) union(u, v int) bool {
	ru, rv := d.find(u), d.find(v)
	if ru == rv {
		return false
	}
	if d.rank[ru] < d.rank[rv] {
		d.parent[ru] = rv
	} else {
		d.parent[rv] = ru
		if d.rank[ru] == d.rank[rv] {
			d.rank[ru]++
		}
	}

	return true
}

// components returns the number of disjoint sets.
func (d *disjointSet) components() int {
	n := 0
	for i := range d.parent {
		if d.find(i) == i {
			n++
		}
	}

	return n
}
