// Package config resolves the effective .luaurc configuration for any
// directory in the workspace, with per-directory memoization.
package config

import (
	"encoding/json"
	"fmt"
)

// ConfigFileName is the per-directory configuration layer file.
const ConfigFileName = ".luaurc"

// LanguageMode controls typechecking strictness.
type LanguageMode string

const (
	ModeNoCheck   LanguageMode = "nocheck"
	ModeNonstrict LanguageMode = "nonstrict"
	ModeStrict    LanguageMode = "strict"
)

// Config is the resolved configuration for one directory. Fields a layer
// does not specify are inherited from the parent directory unchanged.
type Config struct {
	LanguageMode LanguageMode      `json:"languageMode,omitempty"`
	Aliases      map[string]string `json:"aliases,omitempty"`
	Globals      []string          `json:"globals,omitempty"`
}

// Default returns the baseline configuration used when no layer exists
// anywhere in a module's ancestry.
func Default() Config {
	return Config{
		LanguageMode: ModeNonstrict,
		Aliases:      map[string]string{},
	}
}

// clone deep-copies the config so a merged child never aliases its
// parent's maps.
func (c Config) clone() Config {
	out := c
	out.Aliases = make(map[string]string, len(c.Aliases))
	for k, v := range c.Aliases {
		out.Aliases[k] = v
	}
	out.Globals = append([]string(nil), c.Globals...)
	return out
}

// Merge applies one layer's bytes over the parent configuration. Only
// fields present in the layer overwrite; alias tables merge key by key
// with the child winning on conflicts.
func Merge(parent Config, layer []byte) (Config, error) {
	merged := parent.clone()
	if err := json.Unmarshal(layer, &merged); err != nil {
		return Config{}, fmt.Errorf("config: malformed layer: %w", err)
	}
	return merged, nil
}
