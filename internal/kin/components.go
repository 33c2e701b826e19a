package kin

import "sort"

// Component is a maximal group of individuals connected by any chain of
// parent, child or spouse edges.
type Component struct {
	Index   int      `json:"index"`
	Members []string `json:"members"`
}

// Components partitions the graph into connected groups. Groups are ordered by
// the input position of their first member and members keep input order.
func Components(g *Graph) []Component {
	n := g.Len()
	visited := make([]bool, n)
	var out []Component

	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		visited[root] = true
		members := []int{root}
		stack := []int{root}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, nb := range g.adjacency[cur] {
				next := g.position(nb.ID)
				if visited[next] {
					continue
				}
				visited[next] = true
				members = append(members, next)
				stack = append(stack, next)
			}
		}

		sort.Ints(members)
		c := Component{Index: len(out), Members: make([]string, len(members))}
		for i, m := range members {
			c.Members[i] = g.order[m]
		}
		out = append(out, c)
	}
	return out
}
