package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nuclearYAML = `familyId: FAM-1
individuals:
  - id: A
  - id: B
  - id: C
  - id: D
  - id: H
edges:
  - {sourceId: A, targetId: B, kind: spouse}
  - {sourceId: A, targetId: C, kind: parent}
  - {sourceId: B, targetId: C, kind: parent}
  - {sourceId: A, targetId: D, kind: parent}
  - {sourceId: B, targetId: D, kind: parent}
  - {sourceId: GHOST, targetId: D, kind: parent}
`

const cycleJSON = `{"familyId":"FAM-CYCLE","individuals":[{"id":"X"},{"id":"Y"}],
"edges":[{"sourceId":"X","targetId":"Y","kind":"parent"},{"sourceId":"Y","targetId":"X","kind":"parent"}]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"layout", "kinship", "path", "components", "summary", "generate"} {
		assert.Contains(t, names, want)
	}
}

func TestLayoutCmd(t *testing.T) {
	file := writeFile(t, "family.yaml", nuclearYAML)

	out, _, err := run(t, "layout", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "generation 0: A, B, H, (A + B)\ngeneration 1: C, D\n", out)
}

func TestLayoutCmd_JSON(t *testing.T) {
	file := writeFile(t, "family.yaml", nuclearYAML)

	out, _, err := run(t, "layout", "--file", file, "--json")
	require.NoError(t, err)

	var view layoutView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 2, view.Generations)
	assert.Equal(t, "union", view.Rows[0][3].Kind)
	assert.Equal(t, []string{"C", "D"}, view.Rows[0][3].Children)
}

func TestLayoutCmd_CycleFails(t *testing.T) {
	file := writeFile(t, "cycle.json", cycleJSON)

	_, _, err := run(t, "layout", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic ancestry: X -> Y -> X")
}

func TestKinshipCmd(t *testing.T) {
	file := writeFile(t, "family.yaml", nuclearYAML)

	out, _, err := run(t, "kinship", "C", "D", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "C to D: siblings\ncommon ancestor: A\n", out)

	out, _, err = run(t, "kinship", "A", "D", "-f", file, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"relation": "ancestor"`)

	_, _, err = run(t, "kinship", "C", "-f", file)
	assert.ErrorContains(t, err, "accepts 2 arg(s)")

	_, _, err = run(t, "kinship", "C", "NOPE", "-f", file)
	assert.ErrorContains(t, err, `unknown individual "NOPE"`)
}

func TestPathCmd(t *testing.T) {
	file := writeFile(t, "family.yaml", nuclearYAML)

	out, _, err := run(t, "path", "C", "D", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "C -[parent]-> A -[child]-> D\ndistance: 2\n", out)

	out, _, err = run(t, "path", "C", "H", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "no path between C and H\n", out)

	out, _, err = run(t, "path", "C", "H", "-f", file, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ids": []`)
	assert.Contains(t, out, `"steps": []`)

	out, _, err = run(t, "path", "C", "C", "-f", file, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"steps": []`)
}

func TestComponentsAndSummaryCmd(t *testing.T) {
	file := writeFile(t, "family.yaml", nuclearYAML)

	out, _, err := run(t, "components", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "component 0 (4 members): A, B, C, D\ncomponent 1 (1 members): H\n", out)

	out, _, err = run(t, "summary", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "dropped edges: 1")
	assert.Contains(t, out, "generations:   2")
}

func TestSummaryCmd_ReportsLayoutError(t *testing.T) {
	file := writeFile(t, "cycle.json", cycleJSON)

	out, _, err := run(t, "summary", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "layout error:  cyclic ancestry")
}

func TestCommands_RequireFile(t *testing.T) {
	_, _, err := run(t, "layout")
	assert.ErrorContains(t, err, "--file")

	_, _, err = run(t, "layout", "-f", "family.csv")
	assert.Error(t, err)
}

func TestLogLevelControlsStderr(t *testing.T) {
	file := writeFile(t, "family.yaml", nuclearYAML)

	_, stderr, err := run(t, "summary", "-f", file, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "family graph built")
	assert.Contains(t, stderr, "sourceId=GHOST")

	_, stderr, err = run(t, "summary", "-f", file)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "family graph built")
	assert.Contains(t, stderr, "dropping relationship edge")

	_, stderr, err = run(t, "summary", "-f", file, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestGenerateCmd_RoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "synthetic.json")

	stdout, _, err := run(t, "generate", "--out", out, "--seed", "9", "--generations", "3", "--isolated", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote ")

	summary, _, err := run(t, "summary", "-f", out, "--json")
	require.NoError(t, err)

	var sum struct {
		FamilyID    string `json:"familyId"`
		Components  int    `json:"components"`
		Generations int    `json:"generations"`
		LayoutError string `json:"layoutError"`
	}
	require.NoError(t, json.Unmarshal([]byte(summary), &sum))
	assert.Equal(t, "FAM-SYNTHETIC", sum.FamilyID)
	assert.Empty(t, sum.LayoutError)
	assert.GreaterOrEqual(t, sum.Generations, 2)
	assert.LessOrEqual(t, sum.Generations, 3)
	assert.GreaterOrEqual(t, sum.Components, 2)
}

func TestGenerateCmd_RequiresOut(t *testing.T) {
	_, _, err := run(t, "generate")
	assert.ErrorContains(t, err, "--out")

	_, _, err = run(t, "generate", "--out", "family.txt")
	assert.Error(t, err)
}
