package kin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findPath(t *testing.T, g *Graph, from, to string) Path {
	t.Helper()
	p, err := FindPath(g, from, to)
	require.NoError(t, err)
	return p
}

// assertRealPath checks that consecutive path members share an edge.
func assertRealPath(t *testing.T, g *Graph, p Path) {
	t.Helper()
	require.True(t, p.Found)
	require.Len(t, p.IDs, p.Distance+1)
	require.Len(t, p.Steps, p.Distance)
	for i, step := range p.Steps {
		assert.Equal(t, p.IDs[i], step.From)
		assert.Equal(t, p.IDs[i+1], step.To)
		assert.Contains(t, g.Neighbors(step.From), Neighbor{ID: step.To, Kind: step.Kind})
	}
}

func TestFindPath_SiblingsThroughParent(t *testing.T) {
	g := nuclearFamily(t)

	p := findPath(t, g, "C", "D")
	assert.Equal(t, 2, p.Distance)
	assert.Equal(t, []string{"C", "A", "D"}, p.IDs, "first discovered parent wins the tie")
	assert.Equal(t, []Step{
		{From: "C", To: "A", Kind: EdgeParent},
		{From: "A", To: "D", Kind: EdgeChild},
	}, p.Steps)
	assertRealPath(t, g, p)
}

func TestFindPath_TraversesEdgesAgainstTheirDirection(t *testing.T) {
	g := pedigree(t)

	p := findPath(t, g, "D1", "OUT")
	assert.Equal(t, []string{"D1", "C1", "P1", "OUT"}, p.IDs)
	assert.Equal(t, EdgeSpouse, p.Steps[2].Kind)
	assertRealPath(t, g, p)

	p = findPath(t, g, "D1", "D2")
	assert.Equal(t, 6, p.Distance)
	assertRealPath(t, g, p)
}

func TestFindPath_PrefersSpouseShortcut(t *testing.T) {
	g := pedigree(t)

	p := findPath(t, g, "G1", "G2")
	assert.Equal(t, 1, p.Distance)
	assert.Equal(t, []Step{{From: "G1", To: "G2", Kind: EdgeSpouse}}, p.Steps)
}

func TestFindPath_SameIndividual(t *testing.T) {
	p := findPath(t, pedigree(t), "C1", "C1")

	assert.True(t, p.Found)
	assert.Equal(t, []string{"C1"}, p.IDs)
	assert.Zero(t, p.Distance)
	require.NotNil(t, p.Steps)
	assert.Empty(t, p.Steps)
}

func TestFindPath_Disconnected(t *testing.T) {
	g := mustBuild(t, people("A", "B", "H"), parentOf("A", "B"))

	p := findPath(t, g, "H", "A")
	assert.False(t, p.Found)
	assert.Empty(t, p.IDs)
	assert.Zero(t, p.Distance)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ids":[]`)
	assert.Contains(t, string(raw), `"steps":[]`)
}

func TestFindPath_UnknownIndividual(t *testing.T) {
	g := pedigree(t)

	_, err := FindPath(g, "C1", "NOPE")
	assert.ErrorIs(t, err, ErrUnknownIndividual)

	_, err = FindPath(g, "NOPE", "C1")
	assert.ErrorIs(t, err, ErrUnknownIndividual)
}

func TestFindPath_SurvivesCycles(t *testing.T) {
	g := mustBuild(t, people("X", "Y", "Z"), parentOf("X", "Y"), parentOf("Y", "X"), spouses("Y", "Z"))

	p := findPath(t, g, "X", "Z")
	assert.Equal(t, 2, p.Distance)
	assertRealPath(t, g, p)
}

func TestFindPath_AllPairsMatchBreadthFirstDistance(t *testing.T) {
	g := pedigree(t)
	for _, a := range g.IDs() {
		want := bfsDistances(g, a)
		for _, b := range g.IDs() {
			p := findPath(t, g, a, b)
			d, reachable := want[b]
			require.Equal(t, reachable, p.Found, "%s -> %s", a, b)
			if reachable {
				assert.Equal(t, d, p.Distance, "%s -> %s", a, b)
				assertRealPath(t, g, p)
			}
		}
	}
}

func bfsDistances(g *Graph, start string) map[string]int {
	dist := map[string]int{start: 0}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(cur) {
			if _, ok := dist[n.ID]; !ok {
				dist[n.ID] = dist[cur] + 1
				queue = append(queue, n.ID)
			}
		}
	}
	return dist
}
