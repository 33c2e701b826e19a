package kin

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeKind tells a real individual apart from a synthetic union.
type NodeKind uint8

const (
	NodeIndividual NodeKind = iota + 1
	NodeUnion
)

func (k NodeKind) String() string {
	switch k {
	case NodeIndividual:
		return "individual"
	case NodeUnion:
		return "union"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// NodeID identifies a layout node. Individuals and unions live in separate
// key spaces, so an individual may share a Key with a union.
type NodeID struct {
	Kind NodeKind
	Key  string
}

func (id NodeID) String() string {
	return id.Kind.String() + ":" + id.Key
}

// Node is a vertex of the rendered layout: either a Person or a Union.
type Node interface {
	NodeID() NodeID
	isLayoutNode()
}

// Person is the layout node of a real individual.
type Person struct {
	ID string
}

func (p Person) NodeID() NodeID { return NodeID{Kind: NodeIndividual, Key: p.ID} }
func (Person) isLayoutNode()    {}

// Union joins the two parents of at least one shared child. It exists only for
// rendering parent -> union -> child edges and never takes part in kinship or
// path queries.
type Union struct {
	ID       string
	Parents  [2]string
	Children []string
}

func (u Union) NodeID() NodeID { return NodeID{Kind: NodeUnion, Key: u.ID} }
func (Union) isLayoutNode()    {}

var unionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://kintrace.dev/union"))

// UnionID returns the identifier of the union of two parents. The order of the
// arguments does not matter.
func UnionID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return uuid.NewSHA1(unionNamespace, []byte(a+"\x00"+b)).String()
}

// Layout is the generation layout of a family.
type Layout struct {
	Levels map[NodeID]int
	Unions []Union
	order  []Node
}

// IndividualLevel returns the row of an individual.
func (l Layout) IndividualLevel(id string) (int, bool) {
	lvl, ok := l.Levels[NodeID{Kind: NodeIndividual, Key: id}]
	return lvl, ok
}

// UnionLevel returns the row of a union.
func (l Layout) UnionLevel(id string) (int, bool) {
	lvl, ok := l.Levels[NodeID{Kind: NodeUnion, Key: id}]
	return lvl, ok
}

// Level returns the row of any layout node.
func (l Layout) Level(n Node) (int, bool) {
	lvl, ok := l.Levels[n.NodeID()]
	return lvl, ok
}

// Generations is the number of rows, i.e. the deepest level plus one.
func (l Layout) Generations() int {
	if len(l.Levels) == 0 {
		return 0
	}
	deepest := 0
	for _, lvl := range l.Levels {
		if lvl > deepest {
			deepest = lvl
		}
	}
	return deepest + 1
}

// Rows groups the layout nodes by level. Individuals keep input order and come
// before the unions of the same row.
func (l Layout) Rows() [][]Node {
	rows := make([][]Node, l.Generations())
	for _, n := range l.order {
		lvl := l.Levels[n.NodeID()]
		rows[lvl] = append(rows[lvl], n)
	}
	return rows
}

const (
	unvisited uint8 = iota
	inProgress
	done
)

// AssignLevels computes a generation level for every individual and
// synthesizes a Union for every distinct pair of co-parents.
//
// A parentless individual sits on level 0, a single-parented one just below
// its parent, and a two-parented one just below the union of its parents,
// which shares the row of the lower of the two parents. A post-pass then
// forces spouses and co-parents onto a common row and pushes children below
// them until nothing changes.
func AssignLevels(g *Graph) (Layout, error) {
	n := g.Len()
	parents := make([][]int, n)
	for i, id := range g.order {
		ps := g.Parents(id)
		if len(ps) > 2 {
			return Layout{}, &TooManyParentsError{ChildID: id, ParentIDs: ps}
		}
		for _, p := range ps {
			parents[i] = append(parents[i], g.position(p))
		}
	}

	unions := buildUnions(g, parents)

	level, err := ancestryLevels(g, parents)
	if err != nil {
		return Layout{}, err
	}

	if err := settleLevels(g, parents, unions, level); err != nil {
		return Layout{}, err
	}

	layout := Layout{
		Levels: make(map[NodeID]int, n+len(unions)),
		Unions: make([]Union, 0, len(unions)),
		order:  make([]Node, 0, n+len(unions)),
	}
	for i, id := range g.order {
		p := Person{ID: id}
		layout.Levels[p.NodeID()] = level[i]
		layout.order = append(layout.order, p)
	}
	for _, u := range unions {
		out := Union{
			ID:      UnionID(g.order[u.parents[0]], g.order[u.parents[1]]),
			Parents: [2]string{g.order[u.parents[0]], g.order[u.parents[1]]},
		}
		for _, c := range u.children {
			out.Children = append(out.Children, g.order[c])
		}
		layout.Levels[out.NodeID()] = level[u.parents[0]]
		layout.Unions = append(layout.Unions, out)
		layout.order = append(layout.order, out)
	}
	return layout, nil
}

type unionPlan struct {
	parents  [2]int
	children []int
}

func buildUnions(g *Graph, parents [][]int) []unionPlan {
	var unions []unionPlan
	byPair := make(map[[2]int]int)
	for child, ps := range parents {
		if len(ps) != 2 {
			continue
		}
		a, b := ps[0], ps[1]
		if g.order[b] < g.order[a] {
			a, b = b, a
		}
		key := [2]int{a, b}
		idx, ok := byPair[key]
		if !ok {
			idx = len(unions)
			byPair[key] = idx
			unions = append(unions, unionPlan{parents: key})
		}
		unions[idx].children = append(unions[idx].children, child)
	}
	return unions
}

type levelFrame struct {
	node int
	next int
}

// ancestryLevels walks the child -> parent relation with an explicit stack.
// A parent found in progress closes a cycle.
func ancestryLevels(g *Graph, parents [][]int) ([]int, error) {
	n := len(parents)
	state := make([]uint8, n)
	level := make([]int, n)

	for root := 0; root < n; root++ {
		if state[root] == done {
			continue
		}
		state[root] = inProgress
		stack := []levelFrame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			ps := parents[top.node]
			if top.next < len(ps) {
				p := ps[top.next]
				top.next++
				switch state[p] {
				case inProgress:
					return nil, cycleError(g, stack, p)
				case unvisited:
					state[p] = inProgress
					stack = append(stack, levelFrame{node: p})
				}
				continue
			}

			switch len(ps) {
			case 0:
				level[top.node] = 0
			case 1:
				level[top.node] = level[ps[0]] + 1
			default:
				level[top.node] = max(level[ps[0]], level[ps[1]]) + 1
			}
			state[top.node] = done
			stack = stack[:len(stack)-1]
		}
	}
	return level, nil
}

func cycleError(g *Graph, stack []levelFrame, closing int) error {
	start := 0
	for i, f := range stack {
		if f.node == closing {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		cycle = append(cycle, g.order[f.node])
	}
	cycle = append(cycle, g.order[closing])
	return &CyclicAncestryError{Cycle: cycle}
}

// settleLevels raises levels until spouses share a row, co-parents share a
// row and every child sits below its parents. Levels never decrease, and on a
// consistent family no level can reach the population size, so exceeding it
// means the constraints contradict each other.
func settleLevels(g *Graph, parents [][]int, unions []unionPlan, level []int) error {
	n := len(level)
	var spouses [][2]int
	for i, id := range g.order {
		for _, s := range g.Spouses(id) {
			if j := g.position(s); j > i {
				spouses = append(spouses, [2]int{i, j})
			}
		}
	}

	conflict := -1
	raise := func(i, to int) bool {
		if level[i] >= to {
			return false
		}
		level[i] = to
		if to >= n && conflict < 0 {
			conflict = i
		}
		return true
	}

	for changed := true; changed; {
		changed = false
		for _, pair := range spouses {
			m := max(level[pair[0]], level[pair[1]])
			changed = raise(pair[0], m) || changed
			changed = raise(pair[1], m) || changed
		}
		for _, u := range unions {
			m := max(level[u.parents[0]], level[u.parents[1]])
			changed = raise(u.parents[0], m) || changed
			changed = raise(u.parents[1], m) || changed
		}
		for child, ps := range parents {
			want := 0
			for _, p := range ps {
				want = max(want, level[p]+1)
			}
			changed = raise(child, want) || changed
		}
		if conflict >= 0 {
			return fmt.Errorf("%w: individual %q cannot be placed on a consistent row", ErrLevelConflict, g.order[conflict])
		}
	}
	return nil
}
