// Package profile owns the on-disk layout of browser profiles. Each
// instance gets a directory namespaced by its name, created lazily on
// first start and never removed automatically.
package profile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/T0astBread/multifox/internal/browser"
	"github.com/T0astBread/multifox/internal/config"
)

const metadataFile = "profile.yml"

// Error reports an unusable profile directory.
type Error struct {
	Instance string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("profile for instance %q: %v", e.Instance, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Metadata is stamped into a profile root when it is first created and
// verified on every later open.
type Metadata struct {
	ID        string    `yaml:"id"`
	Instance  string    `yaml:"instance"`
	Browser   string    `yaml:"browser"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Handle is an opened profile.
type Handle struct {
	Instance string
	// Root is the instance's profile directory.
	Root string
	// BrowserDir is the directory the browser itself treats as the
	// profile. Equal to Root for flag-mode kinds.
	BrowserDir string
	Meta       Metadata
}

// Store resolves and materializes profile directories under one root.
type Store struct {
	root string
}

func NewStore(stateDir string) *Store {
	return &Store{root: filepath.Join(stateDir, "profiles")}
}

// ResolvePath derives the profile directory from the instance identity.
// It performs no I/O. The profile name is namespaced by the instance name
// as its own path element, so two distinct instances can never share a
// directory no matter how similar their profile names are.
func (s *Store) ResolvePath(inst config.Instance) string {
	return filepath.Join(s.root, inst.Name, inst.Profile)
}

// EnsureExists creates the profile directory, the browser-specific
// skeleton beneath it, and the metadata stamp, then applies the file
// placement declared on the instance (user.js, extensions). It is
// idempotent: re-running refreshes the placed files and changes nothing
// else.
func (s *Store) EnsureExists(inst config.Instance) (Handle, error) {
	spec, ok := browser.Lookup(inst.Browser)
	if !ok {
		return Handle{}, &Error{inst.Name, fmt.Errorf("unknown browser %q", inst.Browser)}
	}

	root := s.ResolvePath(inst)
	if st, err := os.Stat(root); err == nil && !st.IsDir() {
		return Handle{}, &Error{inst.Name, fmt.Errorf("%s exists but is not a directory", root)}
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return Handle{}, &Error{inst.Name, err}
	}

	browserDir := spec.ProfileDir(root)
	if browserDir != root {
		if err := os.MkdirAll(browserDir, 0700); err != nil {
			return Handle{}, &Error{inst.Name, err}
		}
	}

	meta, err := ensureMetadata(inst, root)
	if err != nil {
		return Handle{}, &Error{inst.Name, err}
	}
	if err := place(inst, browserDir); err != nil {
		return Handle{}, &Error{inst.Name, err}
	}

	return Handle{Instance: inst.Name, Root: root, BrowserDir: browserDir, Meta: meta}, nil
}

func ensureMetadata(inst config.Instance, root string) (Metadata, error) {
	path := filepath.Join(root, metadataFile)
	data, err := os.ReadFile(path)
	if err == nil {
		var meta Metadata
		if err := yaml.Unmarshal(data, &meta); err != nil {
			return Metadata{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if meta.Browser != string(inst.Browser) {
			return Metadata{}, fmt.Errorf("profile was created for browser %q, instance declares %q",
				meta.Browser, inst.Browser)
		}
		return meta, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Metadata{}, err
	}

	meta := Metadata{
		ID:        uuid.NewString(),
		Instance:  inst.Name,
		Browser:   string(inst.Browser),
		CreatedAt: time.Now().UTC(),
	}
	out, err := yaml.Marshal(&meta)
	if err != nil {
		return Metadata{}, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return Metadata{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// place mirrors the declared user.js and extension files into the browser
// profile. Placement is file-system only; the browser picks them up on its
// next start.
func place(inst config.Instance, dir string) error {
	if inst.UserJS != "" {
		if err := copyFile(inst.UserJS, filepath.Join(dir, "user.js"), 0600); err != nil {
			return fmt.Errorf("placing user.js: %w", err)
		}
	}
	if len(inst.Extensions) == 0 {
		return nil
	}
	extDir := filepath.Join(dir, "extensions")
	if err := os.MkdirAll(extDir, 0700); err != nil {
		return err
	}
	for _, src := range inst.Extensions {
		dst := filepath.Join(extDir, filepath.Base(src))
		if err := copyFile(src, dst, 0644); err != nil {
			return fmt.Errorf("placing extension %s: %w", filepath.Base(src), err)
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
