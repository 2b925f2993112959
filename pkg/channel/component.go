package channel

// UnionFind implements a disjoint-set data structure with path halving
// and union by rank.
type UnionFind struct {
	parent []int32
	rank   []byte
	size   []int32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int32, n)
	size := make([]int32, n)
	for i := range parent {
		parent[i] = int32(i)
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x int32) int32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y int32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Components builds the weakly connected components of the topology's
// adjacency table (downhill edges treated as undirected). The router uses
// it to tell a genuinely unreachable sink apart from a congestion failure.
func (t *Topology) Components() *UnionFind {
	uf := NewUnionFind(t.NumNodes())
	for i, dh := range t.downhill {
		for _, dst := range dh {
			uf.Union(int32(i), int32(t.NodeIndex(dst)))
		}
	}
	return uf
}

// Connected reports whether a path of fabric edges exists between a and b,
// ignoring capacity and reservations.
func (uf *UnionFind) Connected(t *Topology, a, b Node) bool {
	return uf.Find(int32(t.NodeIndex(a))) == uf.Find(int32(t.NodeIndex(b)))
}
