package loader_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/loader"
	"github.com/kristofer/stagevm/pkg/primitives"
)

const projectJSON = `{
  "targets": [
    {
      "isStage": true,
      "name": "Stage",
      "variables": {},
      "lists": {},
      "blocks": {}
    },
    {
      "isStage": false,
      "name": "Sprite1",
      "x": 0, "y": 0, "size": 100, "visible": true, "direction": 90,
      "variables": {},
      "lists": {},
      "blocks": {
        "1": {
          "opcode": "event_whenflagclicked",
          "next": "2",
          "topLevel": true,
          "inputs": {},
          "fields": {}
        },
        "2": {
          "opcode": "control_repeat",
          "next": null,
          "topLevel": false,
          "inputs": {
            "TIMES": [1, [4, "3"]],
            "SUBSTACK": [2, "3"]
          },
          "fields": {}
        },
        "3": {
          "opcode": "control_incr_counter",
          "next": null,
          "topLevel": false,
          "inputs": {},
          "fields": {}
        }
      }
    }
  ]
}`

// writeFixture packs projectJSON into a zip archive on disk, the shape
// loader.Load expects, and returns its path.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "project.sb3")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("project.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(projectJSON))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func TestLoadAndRun(t *testing.T) {
	path := writeFixture(t)

	result, err := loader.Load(path, nil)
	require.NoError(t, err)
	require.Len(t, result.Targets, 2)
	assert.Equal(t, 0, result.StageIdx)

	registry := engine.NewRegistry()
	primitives.RegisterAll(registry)

	vm := engine.New(result.Targets, result.StageIdx, registry, nil)
	vm.StartFlag()
	for !vm.IsIdle() {
		vm.Step()
	}

	assert.Equal(t, float64(3), vm.Global().Counter)
}

func TestLoadMissingProjectJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.sb3")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = loader.Load(path, nil)
	require.Error(t, err)
}
