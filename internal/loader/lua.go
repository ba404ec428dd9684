package loader

import (
	"errors"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// ErrNoConfigTable indicates an executable config file that does not define
// a global `config` table.
var ErrNoConfigTable = errors.New("no global config table defined")

// LuaLoader loads tree content from executable Lua configuration files.
// The file is run in a restricted Lua state and must define a global table
// named `config`, which becomes the tree content.
//
// Running configuration as code is a trust boundary: only use this loader
// for files the process already trusts, and prefer the pure data-format
// loaders otherwise. The io, os, debug, and package libraries are not
// opened, so scripts cannot touch the file system or spawn processes.
type LuaLoader struct {
	path string
}

// NewLuaLoader creates a new Lua loader for the given path.
func NewLuaLoader(path string) *LuaLoader {
	return &LuaLoader{path: path}
}

// Load runs the configured file and returns the extracted config table.
func (l *LuaLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom runs a specific file and returns the extracted config table.
func (l *LuaLoader) LoadFrom(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config script %s: %w", path, err)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // libraries are opened selectively below
	})
	defer L.Close()
	openSafeLibraries(L)

	if err := L.DoFile(path); err != nil {
		return nil, &ParseError{
			Path:    path,
			Message: err.Error(),
			Err:     err,
		}
	}

	table, ok := L.GetGlobal("config").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("config script %s: %w", path, ErrNoConfigTable)
	}

	nodes, ok := luaToGo(table, make(map[*lua.LTable]bool)).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config script %s: config table is an array, not a mapping", path)
	}
	return nodes, nil
}

// LoadString runs Lua source directly and returns the extracted config table.
func (l *LuaLoader) LoadString(source string) (map[string]any, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	defer L.Close()
	openSafeLibraries(L)

	if err := L.DoString(source); err != nil {
		return nil, &ParseError{
			Path:    "<string>",
			Message: err.Error(),
			Err:     err,
		}
	}

	table, ok := L.GetGlobal("config").(*lua.LTable)
	if !ok {
		return nil, ErrNoConfigTable
	}

	nodes, ok := luaToGo(table, make(map[*lua.LTable]bool)).(map[string]any)
	if !ok {
		return nil, errors.New("config table is an array, not a mapping")
	}
	return nodes, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
// io, os, debug, and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// luaToGo converts a Lua value to a Go value, tracking visited tables to
// break circular references.
func luaToGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	if lv == nil {
		return nil
	}

	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil // break circular reference
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LNilType:
		return nil
	default:
		// Functions, userdata, and other Lua-side values have no tree
		// representation.
		return nil
	}
}

// tableToGo converts a Lua table to either a Go map or slice. Tables with
// contiguous integer keys starting at 1 become slices; everything else
// becomes a string-keyed map.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN := 0
	count := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				if n > maxN {
					maxN = n
				}
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = luaToGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = luaToGo(v, visited)
	})
	return m
}
