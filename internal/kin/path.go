package kin

import "container/heap"

// Step is one hop of a relational path. Kind is the role of To relative to From.
type Step struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Path is the shortest relational path between two individuals.
type Path struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	IDs      []string `json:"ids"`
	Steps    []Step   `json:"steps"`
	Distance int      `json:"distance"`
	// Found is false when From and To are in different components.
	Found bool `json:"found"`
}

// FindPath returns the shortest path from one individual to another where
// every parent, child and spouse edge costs one, whatever its direction.
// Among paths of equal length the one discovered first wins.
func FindPath(g *Graph, from, to string) (Path, error) {
	if !g.Has(from) {
		return Path{}, &UnknownIndividualError{ID: from}
	}
	if !g.Has(to) {
		return Path{}, &UnknownIndividualError{ID: to}
	}
	// IDs and Steps are never nil so a missing path encodes as empty lists.
	p := Path{From: from, To: to, IDs: []string{}, Steps: []Step{}}
	if from == to {
		p.IDs = []string{from}
		p.Found = true
		return p, nil
	}

	n := g.Len()
	src, dst := g.position(from), g.position(to)
	dist := make([]int, n)
	prev := make([]int, n)
	via := make([]EdgeKind, n)
	settled := make([]bool, n)
	for i := range dist {
		dist[i] = -1
		prev[i] = -1
	}

	dist[src] = 0
	seq := 0
	q := &frontier{{node: src}}
	for q.Len() > 0 {
		cur := heap.Pop(q).(frontierItem)
		if settled[cur.node] {
			continue
		}
		settled[cur.node] = true
		if cur.node == dst {
			break
		}
		for _, nb := range g.adjacency[cur.node] {
			next := g.position(nb.ID)
			if settled[next] {
				continue
			}
			cost := cur.cost + 1
			if dist[next] >= 0 && dist[next] <= cost {
				continue
			}
			dist[next] = cost
			prev[next] = cur.node
			via[next] = nb.Kind
			seq++
			heap.Push(q, frontierItem{node: next, cost: cost, seq: seq})
		}
	}

	if !settled[dst] {
		return p, nil
	}

	var rev []int
	for at := dst; at != -1; at = prev[at] {
		rev = append(rev, at)
	}
	p.IDs = make([]string, len(rev))
	for i, node := range rev {
		p.IDs[len(rev)-1-i] = g.order[node]
	}
	for i := 1; i < len(p.IDs); i++ {
		p.Steps = append(p.Steps, Step{
			From: p.IDs[i-1],
			To:   p.IDs[i],
			Kind: via[g.position(p.IDs[i])],
		})
	}
	p.Distance = dist[dst]
	p.Found = true
	return p, nil
}

type frontierItem struct {
	node int
	cost int
	seq  int
}

// frontier is a min-heap on (cost, seq).
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	it := old[len(old)-1]
	*f = old[:len(old)-1]
	return it
}
