package kin

import "fmt"

// Relation classifies how individual A relates to individual B.
type Relation uint8

const (
	RelationUnrelated Relation = iota
	RelationSelf
	// RelationAncestor means A is a direct ancestor of B.
	RelationAncestor
	// RelationDescendant means A is a direct descendant of B.
	RelationDescendant
	RelationSiblings
	// RelationAuntUncle means A is an aunt or uncle (of some degree) of B.
	RelationAuntUncle
	// RelationNieceNephew means A is a niece or nephew (of some degree) of B.
	RelationNieceNephew
	RelationCousins
)

var relationNames = map[Relation]string{
	RelationUnrelated:   "unrelated",
	RelationSelf:        "self",
	RelationAncestor:    "ancestor",
	RelationDescendant:  "descendant",
	RelationSiblings:    "siblings",
	RelationAuntUncle:   "aunt-uncle",
	RelationNieceNephew: "niece-nephew",
	RelationCousins:     "cousins",
}

func (r Relation) String() string {
	if name, ok := relationNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Relation(%d)", uint8(r))
}

// MarshalText encodes the relation by name.
func (r Relation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Inverse returns the relation of B to A.
func (r Relation) Inverse() Relation {
	switch r {
	case RelationAncestor:
		return RelationDescendant
	case RelationDescendant:
		return RelationAncestor
	case RelationAuntUncle:
		return RelationNieceNephew
	case RelationNieceNephew:
		return RelationAuntUncle
	default:
		return r
	}
}

// Kinship is the classified relationship between A and B.
type Kinship struct {
	A        string   `json:"a"`
	B        string   `json:"b"`
	Relation Relation `json:"relation"`
	Label    string   `json:"label"`
	// Ancestor is the lowest common ancestor; empty when unrelated.
	Ancestor  string `json:"ancestor,omitempty"`
	DistanceA int    `json:"distanceA"`
	DistanceB int    `json:"distanceB"`
	// Generations separates a direct ancestor from its descendant.
	Generations int `json:"generations,omitempty"`
	// Degree is the aunt/uncle or cousin degree.
	Degree int `json:"degree,omitempty"`
	// Removal is the generational gap between cousins.
	Removal int `json:"removal,omitempty"`
}

// Resolve classifies the relationship of a to b through their lowest common
// ancestor, the individual present in both ancestor maps that minimizes the
// summed distance. Equal sums resolve to the smallest ID.
func Resolve(g *Graph, a, b string) (Kinship, error) {
	if !g.Has(a) {
		return Kinship{}, &UnknownIndividualError{ID: a}
	}
	if !g.Has(b) {
		return Kinship{}, &UnknownIndividualError{ID: b}
	}

	k := Kinship{A: a, B: b}
	fromA := Ancestors(g, a)
	fromB := Ancestors(g, b)

	small, large := fromA, fromB
	if len(large) < len(small) {
		small, large = large, small
	}
	found := false
	best := 0
	for id, d1 := range small {
		d2, ok := large[id]
		if !ok {
			continue
		}
		sum := d1 + d2
		if !found || sum < best || (sum == best && id < k.Ancestor) {
			found = true
			best = sum
			k.Ancestor = id
		}
	}

	if !found {
		k.Relation = RelationUnrelated
		k.Label = "unrelated"
		return k, nil
	}

	k.DistanceA = fromA[k.Ancestor]
	k.DistanceB = fromB[k.Ancestor]
	classify(&k)
	return k, nil
}

// Ancestors maps every ancestor of start, start included at distance 0, to
// its distance in generations along parent edges.
func Ancestors(g *Graph, start string) map[string]int {
	if !g.Has(start) {
		return nil
	}
	dist := map[string]int{start: 0}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.neighbors(cur) {
			if n.Kind != EdgeParent {
				continue
			}
			if _, seen := dist[n.ID]; seen {
				continue
			}
			dist[n.ID] = dist[cur] + 1
			queue = append(queue, n.ID)
		}
	}
	return dist
}

func classify(k *Kinship) {
	da, db := k.DistanceA, k.DistanceB
	switch {
	case da == 0 && db == 0:
		k.Relation = RelationSelf
		k.Label = "same individual"
	case da == 0:
		k.Relation = RelationAncestor
		k.Generations = db
		k.Label = fmt.Sprintf("ancestor, %s (%s)", generations(db), lineal(db, "parent"))
	case db == 0:
		k.Relation = RelationDescendant
		k.Generations = da
		k.Label = fmt.Sprintf("descendant, %s (%s)", generations(da), lineal(da, "child"))
	case da == 1 && db == 1:
		k.Relation = RelationSiblings
		k.Label = "siblings"
	case da == 1:
		k.Relation = RelationAuntUncle
		k.Degree = db - 1
		k.Label = collateral(k.Degree, "aunt/uncle")
	case db == 1:
		k.Relation = RelationNieceNephew
		k.Degree = da - 1
		k.Label = collateral(k.Degree, "niece/nephew")
	default:
		k.Relation = RelationCousins
		k.Degree = min(da, db) - 1
		k.Removal = max(da, db) - min(da, db)
		k.Label = ordinal(k.Degree) + " cousins"
		if k.Removal > 0 {
			k.Label += ", " + generations(k.Removal) + " removed"
		}
	}
}

func generations(n int) string {
	if n == 1 {
		return "1 generation"
	}
	return fmt.Sprintf("%d generations", n)
}

// lineal names a direct ancestor or descendant n generations away.
func lineal(n int, base string) string {
	switch n {
	case 1:
		return base
	case 2:
		return "grand" + base
	case 3:
		return "great-grand" + base
	default:
		return fmt.Sprintf("%dx great-grand%s", n-2, base)
	}
}

// collateral names an aunt/uncle or niece/nephew of the given degree.
func collateral(degree int, base string) string {
	switch degree {
	case 1:
		return base
	case 2:
		return "great-" + base
	default:
		return fmt.Sprintf("%dx great-%s", degree-1, base)
	}
}

var ordinalWords = []string{"", "first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}

func ordinal(n int) string {
	if n > 0 && n < len(ordinalWords) {
		return ordinalWords[n]
	}
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
