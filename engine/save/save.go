// Package save implements JSON serialization and deserialization of a
// playthrough session.
package save

import (
	"encoding/json"

	"github.com/samber/oops"

	"github.com/nathoo/branchtale/engine"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// SaveData is the JSON-serializable save format. Sets are stored as sorted
// lists so save files diff cleanly.
type SaveData struct {
	Version    string   `json:"version"`
	Game       string   `json:"game"`
	Turn       int      `json:"turn"`
	Ended      bool     `json:"ended"`
	Scene      string   `json:"scene"`
	Inventory  []string `json:"inventory"`
	History    []string `json:"history"`
	CommandLog []string `json:"command_log"`
}

// Save serializes the engine's session to JSON bytes.
func Save(e *engine.Engine) ([]byte, error) {
	meta := e.Store.Current().Meta()
	data := SaveData{
		Version:    meta.Version,
		Game:       meta.Title,
		Turn:       e.Turn,
		Ended:      e.Ended,
		Scene:      e.State.Scene,
		Inventory:  state.Items(e.State),
		History:    state.Facts(e.State),
		CommandLog: e.Log,
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, oops.In("save").Wrapf(err, "encode save")
	}
	return b, nil
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, oops.In("save").Wrapf(err, "decode save")
	}
	// Ensure slices are never nil after load.
	if sd.Inventory == nil {
		sd.Inventory = []string{}
	}
	if sd.History == nil {
		sd.History = []string{}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// WorldState rebuilds the world state recorded in the save.
func (sd *SaveData) WorldState() *types.WorldState {
	s := state.NewWorldState(sd.Scene)
	for _, item := range sd.Inventory {
		s.Inventory[item] = true
	}
	for _, fact := range sd.History {
		s.History[fact] = true
	}
	return s
}

// ApplySave applies loaded save data onto an engine. It refuses a save whose
// scene is not in the engine's current repository, since resolving from it
// would fail on every command.
func ApplySave(e *engine.Engine, sd *SaveData) error {
	if !e.Store.Current().Has(sd.Scene) {
		return oops.In("save").
			With("scene", sd.Scene).
			Errorf("save refers to scene %q, which this content does not define", sd.Scene)
	}
	e.Restore(sd.WorldState(), sd.Turn, sd.Ended, sd.CommandLog)
	return nil
}
