// Package config loads and validates the declarative instance definitions.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/T0astBread/multifox/internal/browser"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// Error reports a broken or ambiguous configuration. Any Error is fatal to
// the whole run.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Instance is one declared browser instance. Definitions are immutable
// after load; Name is the primary key everywhere else in the system.
type Instance struct {
	Name    string       `yaml:"name" toml:"name"`
	Browser browser.Kind `yaml:"browser" toml:"browser"`
	// Profile names the profile directory within the instance's namespace.
	// Defaults to the instance name.
	Profile   string   `yaml:"profile,omitempty" toml:"profile,omitempty"`
	ExtraArgs []string `yaml:"extra_args,omitempty" toml:"extra_args,omitempty"`
	// Binary overrides the kind's default executable lookup.
	Binary string            `yaml:"binary,omitempty" toml:"binary,omitempty"`
	Env    map[string]string `yaml:"env,omitempty" toml:"env,omitempty"`
	// UserJS is a user.js file copied into the browser profile on every
	// start. Relative paths are resolved against the config file.
	UserJS string `yaml:"userjs,omitempty" toml:"userjs,omitempty"`
	// Extensions are .xpi files placed into the profile's extensions
	// directory on every start. Relative paths resolve like UserJS.
	Extensions []string `yaml:"extensions,omitempty" toml:"extensions,omitempty"`
}

// File is the top-level structure of the configuration document.
type File struct {
	Instances []Instance `yaml:"instances" toml:"instances"`
}

// Load reads and validates the instance definitions at path. The format is
// chosen by extension (.yaml/.yml or .toml); unknown fields are rejected.
func Load(path string) ([]Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, &Error{Path: path, Err: err}
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, &Error{Path: path, Err: err}
		}
	default:
		return nil, &Error{Path: path, Err: fmt.Errorf("unsupported config extension %q", ext)}
	}

	if err := f.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	base := filepath.Dir(path)
	for i := range f.Instances {
		inst := &f.Instances[i]
		if inst.Profile == "" {
			inst.Profile = inst.Name
		}
		inst.UserJS = resolve(base, inst.UserJS)
		for j, ext := range inst.Extensions {
			inst.Extensions[j] = resolve(base, ext)
		}
	}

	return f.Instances, nil
}

// LoadDefault searches dir for config.yaml, config.yml, or config.toml and
// loads the first match. It returns the definitions and the path used.
func LoadDefault(dir string) ([]Instance, string, error) {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		defs, err := Load(path)
		return defs, path, err
	}
	return nil, "", &Error{Err: fmt.Errorf("no config file found in %s", dir)}
}

// Find returns the definition with the given name.
func Find(defs []Instance, name string) (Instance, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return Instance{}, false
}

func (f *File) validate() error {
	seen := make(map[string]bool, len(f.Instances))
	for i, inst := range f.Instances {
		if inst.Name == "" {
			return fmt.Errorf("instance %d: name is required", i)
		}
		if !nameRe.MatchString(inst.Name) {
			return fmt.Errorf("instance name %q is invalid: must match %s", inst.Name, nameRe)
		}
		if seen[inst.Name] {
			return fmt.Errorf("duplicate instance name %q", inst.Name)
		}
		seen[inst.Name] = true

		if inst.Browser == "" {
			return fmt.Errorf("instance %q: browser is required", inst.Name)
		}
		if !inst.Browser.Valid() {
			return fmt.Errorf("instance %q: unknown browser %q (supported: %s)",
				inst.Name, inst.Browser, kindList())
		}
		if inst.Profile != "" && !nameRe.MatchString(inst.Profile) {
			return fmt.Errorf("instance %q: profile %q is invalid: must match %s", inst.Name, inst.Profile, nameRe)
		}
	}
	return nil
}

func kindList() string {
	var names []string
	for _, k := range browser.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
