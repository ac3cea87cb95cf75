// Package loader translates a project archive (a zip file carrying a
// single project.json member) into the static program.Target
// prototypes the engine executes. It is the engine's only collaborator
// that touches JSON or the filesystem; everything downstream works on
// the in-memory program representation.
package loader

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

// LoadError wraps a fatal failure to read or parse the archive. Every
// other failure mode in this package (unknown opcode, unresolved
// procedure call, malformed mutation) degrades to a noop block or a
// default value instead of returning an error.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Result is everything the engine needs to build a VM: every target
// prototype (stage included) and the stage's index within Targets.
type Result struct {
	Targets  []*program.Target
	StageIdx int
}

// Load reads the archive at path, decodes its project.json member, and
// translates every target's block graph. log receives a single Warn
// listing every unique unknown opcode encountered across the whole
// archive (sorted), emitted once after every target has loaded; a nil
// log discards it.
func Load(path string, log *logrus.Logger) (*Result, error) {
	if log == nil {
		log = logrus.New()
		log.Out = discardWriter{}
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer zr.Close()

	var projFile *zip.File
	for _, f := range zr.File {
		if f.Name == "project.json" {
			projFile = f
			break
		}
	}
	if projFile == nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("archive has no project.json member")}
	}

	rc, err := projFile.Open()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer rc.Close()

	var proj wireProject
	if err := json.NewDecoder(rc).Decode(&proj); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid project.json: %w", err)}
	}

	unknown := map[string]bool{}
	result := &Result{StageIdx: -1}
	for _, wt := range proj.Targets {
		t, err := loadTarget(wt, unknown)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		if wt.IsStage {
			result.StageIdx = len(result.Targets)
		}
		result.Targets = append(result.Targets, t)
	}
	if result.StageIdx < 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("project has no stage target")}
	}

	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, name)
		}
		sort.Strings(names)
		log.WithField("opcodes", names).Warn("unknown opcodes replaced with noop")
	}

	return result, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// loadTarget translates one wireTarget into a program.Target,
// collecting any unknown opcode names it encounters into unknown.
func loadTarget(wt wireTarget, unknown map[string]bool) (*program.Target, error) {
	t := program.NewTarget(wt.Name, wt.IsStage)
	t.X, t.Y = wt.X, wt.Y
	t.Direction = wt.Direction
	t.Size = wt.Size
	t.Visible = wt.Visible
	t.CurrentCostume = wt.CurrentCostume
	t.LayerOrder = wt.LayerOrder
	t.Rotation = program.ParseRotationStyle(wt.RotationStyle)
	if wt.Volume != 0 {
		t.Volume = wt.Volume
	}
	if wt.Tempo != 0 {
		t.Tempo = wt.Tempo
	}
	for _, c := range wt.Costumes {
		t.Costumes = append(t.Costumes, c.Name)
	}
	for _, s := range wt.Sounds {
		t.Sounds = append(t.Sounds, s.Name)
	}

	for _, id := range sortedKeys(wt.Variables) {
		name, initial := decodeNamedValue(wt.Variables[id])
		t.Variables.Set(name, initial)
	}
	for _, id := range sortedKeys(wt.Lists) {
		name, items := decodeNamedList(wt.Lists[id])
		t.Lists.Set(name, items)
	}

	tr := newTranslator(wt.Blocks, t.Blocks)
	tr.translate()
	for name := range tr.unknownOpcodes {
		unknown[name] = true
	}
	return t, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// decodeNamedValue decodes a variables[id] entry: ["name", initial].
func decodeNamedValue(raw json.RawMessage) (string, value.Value) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 {
		return "", value.Empty
	}
	name := rawToString(pair[0])
	return name, valueFromRaw(pair[1])
}

// decodeNamedList decodes a lists[id] entry: ["name", [values...]].
func decodeNamedList(raw json.RawMessage) (string, []value.Value) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 {
		return "", nil
	}
	name := rawToString(pair[0])
	var items []json.RawMessage
	if err := json.Unmarshal(pair[1], &items); err != nil {
		return name, nil
	}
	out := make([]value.Value, len(items))
	for i, it := range items {
		out[i] = valueFromRaw(it)
	}
	return name, out
}

// valueFromRaw decodes a single JSON scalar into a runtime Value,
// preferring number, then bool, then falling back to string — the
// same "most specific wins" approach the rest of the wire decoding
// uses for untyped payloads.
func valueFromRaw(raw json.RawMessage) value.Value {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return value.NewNumber(f)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return value.NewBoolean(b)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return value.NewString(s)
	}
	return value.Empty
}
