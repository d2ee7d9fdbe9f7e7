package main

import (
	"encoding/json"
	"fmt"

	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/instance"
	"github.com/T0astBread/multifox/internal/xdg"
)

// loadConfig reads the instance definitions from --config or from the
// default search path in the XDG config directory.
func loadConfig() ([]config.Instance, string, error) {
	if flagConfig != "" {
		defs, err := config.Load(flagConfig)
		return defs, flagConfig, err
	}
	dir, err := xdg.ConfigDir()
	if err != nil {
		return nil, "", err
	}
	return config.LoadDefault(dir)
}

// loadManager loads the configuration and wires a manager over the XDG
// state directory.
func loadManager() (*instance.Manager, error) {
	defs, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	stateDir, err := xdg.StateDir()
	if err != nil {
		return nil, err
	}
	return instance.New(stateDir, defs, log), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
