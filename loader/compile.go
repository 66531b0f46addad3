package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/branchtale/types"
)

// sceneDoc is one scene as written in a content document.
type sceneDoc struct {
	Description string                   `json:"description"`
	Ending      bool                     `json:"ending"`
	Choices     []types.Choice           `json:"choices"`
	Transitions map[string]transitionDoc `json:"transitions"`
}

// transitionDoc is one transition as written in a content document.
type transitionDoc struct {
	Narration        string        `json:"narration"`
	Target           string        `json:"target"`
	Item             string        `json:"item"`
	Requires         types.Guard   `json:"requires"`
	Consumes         []string      `json:"consumes"`
	Records          []string      `json:"records"`
	FailureNarration string        `json:"failure_narration"`
	Overrides        []overrideDoc `json:"narration_overrides"`
}

// overrideDoc is a narration override with its condition groups written
// inline next to the narration.
type overrideDoc struct {
	Narration string `json:"narration"`
	types.Conditions
	Records []string `json:"records"`
}

// decode parses a YAML or JSON source into a generic value.
func decode(name, format string, data []byte) (any, error) {
	var v any
	switch format {
	case formatYAML:
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, &ContentError{Msg: fmt.Sprintf("%s: parsing YAML: %v", name, err)}
		}
	case formatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, &ContentError{Msg: fmt.Sprintf("%s: parsing JSON: %v", name, err)}
		}
	default:
		return nil, &ContentError{Msg: fmt.Sprintf("%s: unsupported content format", name)}
	}
	return v, nil
}

// normalize re-encodes a decoded value as JSON, so YAML and Lua sources
// reach the schema and the compiler in exactly the shape JSON would.
func normalize(name string, doc any) ([]byte, any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, &ContentError{Msg: fmt.Sprintf("%s: document is not JSON-compatible: %v", name, err)}
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, nil, &ContentError{Msg: fmt.Sprintf("%s: %v", name, err)}
	}
	return b, v, nil
}

// toGoValue converts a Lua value to a Go value recursively. Empty tables
// and nils become nil and are dropped from the enclosing table.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			ks, ok := k.(lua.LString)
			if !ok {
				return
			}
			if gv := toGoValue(v); gv != nil {
				m[string(ks)] = gv
			}
		})
		if len(m) == 0 {
			return nil
		}
		return m
	default:
		return nil
	}
}

// compileMeta decodes game metadata. Unknown keys are rejected so a typo
// such as "strat" does not silently drop the start scene.
func compileMeta(name string, doc any) (types.GameMeta, error) {
	var meta types.GameMeta
	if doc == nil {
		return meta, nil
	}
	b, _, err := normalize(name, doc)
	if err != nil {
		return meta, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&meta); err != nil {
		return meta, &ContentError{Path: "game", Msg: fmt.Sprintf("%s: %v", name, err)}
	}
	return meta, nil
}

// compileScene converts a checked scene document into a Scene.
func compileScene(id string, sd sceneDoc) types.Scene {
	sc := types.Scene{
		ID:          id,
		Description: sd.Description,
		Ending:      sd.Ending,
		Choices:     sd.Choices,
		Transitions: make(map[string]types.Transition, len(sd.Transitions)),
	}
	for cmd, td := range sd.Transitions {
		sc.Transitions[cmd] = compileTransition(td)
	}
	return sc
}

func compileTransition(td transitionDoc) types.Transition {
	tr := types.Transition{
		Narration:        td.Narration,
		Target:           td.Target,
		Item:             td.Item,
		Requires:         td.Requires,
		Consumes:         td.Consumes,
		Records:          td.Records,
		FailureNarration: td.FailureNarration,
	}
	for _, od := range td.Overrides {
		tr.Overrides = append(tr.Overrides, types.NarrationOverride{
			Narration: od.Narration,
			When:      od.Conditions,
			Records:   od.Records,
		})
	}
	return tr
}
