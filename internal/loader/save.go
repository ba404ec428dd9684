package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

// jsonIndent is the three-space indent used for persisted JSON trees.
const jsonIndent = "   "

// SaveJSON writes nodes to path as pretty-printed JSON with a three-space
// indent and sorted keys, creating parent directories as needed.
func SaveJSON(path string, nodes map[string]any) error {
	raw, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encoding tree: %w", err)
	}

	raw = pretty.PrettyOptions(raw, &pretty.Options{
		Indent:   jsonIndent,
		SortKeys: true,
	})

	return writeFile(path, raw)
}

// SaveTOML writes nodes to path as TOML, creating parent directories as
// needed. TOML cannot represent nil leaves; such trees report an encode
// error.
func SaveTOML(path string, nodes map[string]any) error {
	raw, err := toml.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encoding tree: %w", err)
	}

	return writeFile(path, raw)
}

// SaveYAML writes nodes to path as YAML, creating parent directories as
// needed.
func SaveYAML(path string, nodes map[string]any) error {
	raw, err := yaml.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encoding tree: %w", err)
	}

	return writeFile(path, raw)
}

// writeFile writes data to path, creating the parent directory first.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing tree file %s: %w", path, err)
	}
	return nil
}
