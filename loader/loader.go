// Package loader loads authored scene content from YAML, JSON, or Lua files
// into an immutable Repository. Every source is normalized to the same JSON
// document shape and checked against the content schema before compiling.
// The Lua VM is discarded after loading; zero Lua at runtime.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// ContentError reports malformed content; see state.ContentError.
type ContentError = state.ContentError

// ErrContent is the sentinel every ContentError wraps.
var ErrContent = state.ErrContent

// Source formats, keyed by file extension.
const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatLua  = "lua"
)

// metaName is the base name of the optional game metadata file.
const metaName = "game"

// Option configures a load.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load reads every content file in dir, checks each document against the
// content schema, and returns the Repository. game.yaml, game.json, or a Lua
// Game{} call supply the metadata; game files sort first, the rest
// alphabetically.
func Load(dir string, opts ...Option) (*state.Repository, error) {
	o := buildOptions(opts)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.In("loader").With("dir", dir).Wrapf(err, "reading content directory")
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if formatOf(e.Name()) == "" {
			o.logger.Debug("skipping non-content file", "file", e.Name())
			continue
		}
		files = append(files, e.Name())
	}
	if len(files) == 0 {
		return nil, oops.In("loader").With("dir", dir).Errorf("no content files found in %s", dir)
	}
	files = sortedContentFiles(files)

	b := newBuilder()
	var luaFiles []string

	for _, f := range files {
		format := formatOf(f)
		if format == formatLua {
			luaFiles = append(luaFiles, f)
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, oops.In("loader").With("file", f).Wrapf(err, "reading content file")
		}
		if err := b.addFile(f, format, data); err != nil {
			return nil, err
		}
	}

	if len(luaFiles) > 0 {
		if err := b.addLua(dir, luaFiles); err != nil {
			return nil, err
		}
	}

	repo, err := b.build()
	if err != nil {
		return nil, err
	}

	if repo.Meta().Start == "" {
		o.logger.Warn("content declares no start scene", "dir", dir)
	}
	o.logger.Info("content loaded", "dir", dir, "files", len(files), "scenes", repo.Len())
	return repo, nil
}

// LoadDocument builds a Repository from a single in-memory document. The
// format follows name's extension; a game metadata document yields an empty
// Repository carrying only the metadata.
func LoadDocument(name string, data []byte, opts ...Option) (*state.Repository, error) {
	o := buildOptions(opts)

	format := formatOf(name)
	b := newBuilder()

	var err error
	switch format {
	case "":
		return nil, &ContentError{Msg: fmt.Sprintf("%s: unsupported content format", name)}
	case formatLua:
		err = b.runLua(func(L *lua.LState, coll *collector) error {
			coll.file = name
			if err := L.DoString(string(data)); err != nil {
				return &ContentError{Msg: fmt.Sprintf("executing %s: %v", name, err)}
			}
			return nil
		})
	default:
		err = b.addFile(name, format, data)
	}
	if err != nil {
		return nil, err
	}

	repo, err := b.build()
	if err != nil {
		return nil, err
	}
	o.logger.Debug("document loaded", "name", name, "scenes", repo.Len())
	return repo, nil
}

// Reload loads dir and, only on success, swaps the result into store.
// Readers holding the previous Repository keep a consistent view.
func Reload(store *state.Store, dir string, opts ...Option) (*state.Repository, error) {
	o := buildOptions(opts)

	repo, err := Load(dir, opts...)
	if err != nil {
		o.logger.Warn("reload failed, keeping current content", "dir", dir, "error", err)
		return nil, err
	}
	store.Swap(repo)
	o.logger.Info("content reloaded", "dir", dir, "scenes", repo.Len())
	return repo, nil
}

// builder accumulates scenes and metadata across files.
type builder struct {
	meta     *types.GameMeta
	metaFrom string
	scenes   []types.Scene
	origin   map[string]string // scene id → file that defined it
}

func newBuilder() *builder {
	return &builder{origin: map[string]string{}}
}

// addFile decodes one YAML or JSON file into either metadata or scenes.
func (b *builder) addFile(name, format string, data []byte) error {
	doc, err := decode(name, format, data)
	if err != nil {
		return err
	}
	if isMetaFile(name) {
		return b.addMeta(name, doc)
	}
	return b.addScenes(name, doc)
}

// addLua executes every Lua file in one sandboxed VM.
func (b *builder) addLua(dir string, files []string) error {
	return b.runLua(func(L *lua.LState, coll *collector) error {
		for _, f := range files {
			coll.file = f
			if err := L.DoFile(filepath.Join(dir, f)); err != nil {
				return &ContentError{Msg: fmt.Sprintf("executing %s: %v", f, err)}
			}
		}
		return nil
	})
}

func (b *builder) runLua(exec func(*lua.LState, *collector) error) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := exec(L, coll); err != nil {
		return err
	}
	if coll.err != nil {
		return coll.err
	}

	if coll.game != nil {
		if err := b.addMeta(coll.gameFile, toGoValue(coll.game)); err != nil {
			return err
		}
	}

	for _, raw := range coll.scenes {
		doc := map[string]any{raw.id: toGoValue(raw.table)}
		if err := b.addScenes(raw.file, doc); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addMeta(name string, doc any) error {
	if b.meta != nil {
		return &ContentError{
			Path: "game",
			Msg:  fmt.Sprintf("game metadata defined in both %s and %s", b.metaFrom, name),
		}
	}
	meta, err := compileMeta(name, doc)
	if err != nil {
		return err
	}
	b.meta = &meta
	b.metaFrom = name
	return nil
}

func (b *builder) addScenes(name string, doc any) error {
	raw, err := checkDocument(name, doc)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if prev, dup := b.origin[id]; dup {
			return &ContentError{
				Path: state.ScenePath(id),
				Msg:  fmt.Sprintf("scene defined in both %s and %s", prev, name),
			}
		}
		b.origin[id] = name
		b.scenes = append(b.scenes, compileScene(id, raw[id]))
	}
	return nil
}

func (b *builder) build() (*state.Repository, error) {
	var meta types.GameMeta
	if b.meta != nil {
		meta = *b.meta
	}
	return state.NewRepository(meta, b.scenes)
}

func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".json":
		return formatJSON
	case ".lua":
		return formatLua
	}
	return ""
}

func isMetaFile(name string) bool {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) == metaName
}

// sortedContentFiles returns files with game metadata files first, rest
// alphabetical.
func sortedContentFiles(files []string) []string {
	var meta, rest []string
	for _, f := range files {
		if isMetaFile(f) {
			meta = append(meta, f)
		} else {
			rest = append(rest, f)
		}
	}
	sort.Strings(meta)
	sort.Strings(rest)
	return append(meta, rest...)
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the content being defined.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must load identically every time.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("random", lua.LNil)
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
