package main

import (
	"github.com/colinmarc/parray/fileconfig"
	"github.com/colinmarc/parray/parray"
)

func resolveConfig(path, configFile string) (parray.Config, error) {
	if configFile != "" {
		cfg, err := fileconfig.Load(configFile)
		if err != nil {
			return parray.Config{}, err
		}
		if path != "" {
			cfg.File.Path = path
		}
		return cfg, nil
	}
	return parray.DefaultConfig(path), nil
}
