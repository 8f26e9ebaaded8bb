// Package fileconfig loads a parray.Config from a JWCC (JSON with
// Comments and Commas) file, so that a persistent array's storage and
// caching behavior can be hand-edited and checked into a repository
// alongside comments explaining each setting.
package fileconfig

import (
	"encoding/json"
	"os"

	"github.com/tailscale/hujson"

	"github.com/colinmarc/parray/errors"
	"github.com/colinmarc/parray/parray"
)

type fileSection struct {
	Path   string `json:"path"`
	Mode   string `json:"mode,omitempty"`
	Buffer int    `json:"buffer,omitempty"`
	Cached *bool  `json:"cached,omitempty"`
}

type readSection struct {
	Chunked       bool `json:"chunked,omitempty"`
	Size          int  `json:"size,omitempty"`
	ForceReload   bool `json:"force_reload,omitempty"`
	BreakOnLoaded bool `json:"break_on_loaded,omitempty"`
}

type writeSection struct {
	Chunked    bool `json:"chunked,omitempty"`
	Size       int  `json:"size,omitempty"`
	ForceFlush bool `json:"force_flush,omitempty"`
}

type document struct {
	File   fileSection  `json:"file"`
	Read   readSection  `json:"read,omitempty"`
	Write  writeSection `json:"write,omitempty"`
	Memory struct {
		Size int `json:"size,omitempty"`
	} `json:"memory,omitempty"`
}

var modes = map[string]parray.FileMode{
	"R":   parray.R,
	"RW":  parray.RW,
	"RWS": parray.RWS,
	"RWD": parray.RWD,
}

// Load reads and parses the JWCC document at path into a parray.Config.
// Subscribers are never part of the file format; callers attach them to
// the returned Config programmatically.
func Load(path string) (parray.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return parray.Config{}, errors.E(errors.IOFailure, "read config", err)
	}
	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return parray.Config{}, errors.E(errors.Invalid, "parse config", err)
	}
	var doc document
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return parray.Config{}, errors.E(errors.Invalid, "decode config", err)
	}

	cfg := parray.DefaultConfig(doc.File.Path)
	if doc.File.Mode != "" {
		mode, ok := modes[doc.File.Mode]
		if !ok {
			return parray.Config{}, errors.E(errors.Invalid, "unknown file.mode "+doc.File.Mode)
		}
		cfg.File.Mode = mode
	}
	if doc.File.Buffer > 0 {
		cfg.File.Buffer = doc.File.Buffer
	}
	if doc.File.Cached != nil {
		cfg.File.Cached = *doc.File.Cached
	}

	cfg.Read.Chunked = doc.Read.Chunked
	if doc.Read.Size > 0 {
		cfg.Read.Size = doc.Read.Size
	}
	cfg.Read.ForceReload = doc.Read.ForceReload
	cfg.Read.BreakOnLoaded = doc.Read.BreakOnLoaded

	cfg.Write.Chunked = doc.Write.Chunked
	if doc.Write.Size > 0 {
		cfg.Write.Size = doc.Write.Size
	}
	cfg.Write.ForceFlush = doc.Write.ForceFlush

	if doc.Memory.Size > 0 {
		cfg.MemorySize = doc.Memory.Size
	}
	return cfg, nil
}
