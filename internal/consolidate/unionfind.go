package consolidate

// unionFind is a disjoint-set over record indices, used to union the two
// independent exact-match partitions (natural key, normalized URL) without
// missing a match caught by only one signal.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// groups returns the partition as index lists, each ordered ascending and
// the list of groups ordered by smallest member.
func (uf *unionFind) groups() [][]int {
	byRoot := make(map[int][]int)
	for i := range uf.parent {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}
	out := make([][]int, 0, len(byRoot))
	seen := make(map[int]bool, len(byRoot))
	for i := range uf.parent {
		root := uf.find(i)
		if !seen[root] {
			seen[root] = true
			out = append(out, byRoot[root])
		}
	}
	return out
}
