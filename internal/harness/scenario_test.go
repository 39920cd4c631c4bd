package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
root: [1, 2]
max_label_bits: 64
setup:
  - /a/b
flow:
  - op: move
    path: /a/b
    to: /c
    title: Move
    expect:
      path: "1.2.2"
  - op: read
    path: /c
    expect:
      content: ""
assertions:
  - type: children
    path: /a
    names: []
  - type: labels_consistent
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, []int{1, 2}, scenario.Root)
	assert.Equal(t, 64, scenario.MaxLabelBits)
	assert.Equal(t, []string{"/a/b"}, scenario.Setup)
	require.Len(t, scenario.Flow, 2)
	assert.Equal(t, OpMove, scenario.Flow[0].Op)
	assert.Equal(t, "/c", scenario.Flow[0].To)
	assert.Equal(t, "Move", scenario.Flow[0].Title)
	assert.Equal(t, "1.2.2", scenario.Flow[0].Expect.Path)
	require.NotNil(t, scenario.Flow[1].Expect.Content)
	assert.Equal(t, "", *scenario.Flow[1].Expect.Content)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, []string{}, scenario.Assertions[0].Names)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Unknown field"
flow:
  - op: create
    path: /a
assertion:
  - type: labels_consistent
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "name: [unterminated\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Empty(t *testing.T) {
	_, err := ParseScenario(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing description",
			yaml:    "name: x\nflow: [{op: create, path: /a}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing flow",
			yaml:    "name: x\ndescription: d\n",
			wantErr: "flow list is required",
		},
		{
			name:    "negative bits",
			yaml:    "name: x\ndescription: d\nmax_label_bits: -1\nflow: [{op: create, path: /a}]\n",
			wantErr: "max_label_bits must be non-negative",
		},
		{
			name:    "empty setup path",
			yaml:    "name: x\ndescription: d\nsetup: ['']\nflow: [{op: create, path: /a}]\n",
			wantErr: "setup[0]: path is required",
		},
		{
			name:    "missing op",
			yaml:    "name: x\ndescription: d\nflow: [{path: /a}]\n",
			wantErr: "flow[0]: op is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: d\nflow: [{op: chmod, path: /a}]\n",
			wantErr: `unknown op "chmod"`,
		},
		{
			name:    "missing path",
			yaml:    "name: x\ndescription: d\nflow: [{op: create}]\n",
			wantErr: "flow[0]: path is required",
		},
		{
			name:    "move without destination",
			yaml:    "name: x\ndescription: d\nflow: [{op: move, path: /a}]\n",
			wantErr: "to is required for move",
		},
		{
			name:    "rename without name",
			yaml:    "name: x\ndescription: d\nflow: [{op: rename, path: /a}]\n",
			wantErr: "name is required for rename",
		},
		{
			name:    "unknown error code",
			yaml:    "name: x\ndescription: d\nflow: [{op: create, path: /a, expect: {error: E_BAD}}]\n",
			wantErr: `unknown error code "E_BAD"`,
		},
		{
			name:    "assertion without type",
			yaml:    "name: x\ndescription: d\nflow: [{op: create, path: /a}]\nassertions: [{path: /a}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "assertion without path",
			yaml:    "name: x\ndescription: d\nflow: [{op: create, path: /a}]\nassertions: [{type: exists}]\n",
			wantErr: "path is required for exists",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nflow: [{op: create, path: /a}]\nassertions: [{type: final_state}]\n",
			wantErr: `unknown assertion type "final_state"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDemo_Parses(t *testing.T) {
	scenario, err := Demo()
	require.NoError(t, err)
	assert.Equal(t, "demo", scenario.Name)
	assert.NotEmpty(t, scenario.Flow)
	assert.Equal(t, "Create directories", scenario.Flow[0].Title)
}
