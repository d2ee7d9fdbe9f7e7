// Package browser describes the supported browser kinds and how each one
// is pointed at a profile directory. The set is closed: launch behavior is
// dispatched through a lookup table, never discovered at runtime.
package browser

import "path/filepath"

// Kind identifies a supported browser.
type Kind string

const (
	Firefox    Kind = "firefox"
	TorBrowser Kind = "tor-browser"
	LibreWolf  Kind = "librewolf"
)

// ProfileMode says how the profile directory is handed to the browser.
type ProfileMode int

const (
	// ProfileFlag passes the directory with a command-line flag.
	ProfileFlag ProfileMode = iota
	// ProfileHome runs the browser with HOME pointed at the directory.
	// Tor Browser manages its own profile tree under $HOME and has no
	// usable profile flag.
	ProfileHome
)

// Spec holds the launch parameters for one browser kind.
type Spec struct {
	Kind        Kind
	Binary      string
	Mode        ProfileMode
	Flag        string   // profile flag, ProfileFlag mode only
	DefaultArgs []string // always passed, before instance args
	// ProfileSubdir is the path of the browser-managed profile relative
	// to the profile root, for ProfileHome mode. Empty means the root
	// itself is the browser profile.
	ProfileSubdir string
}

var kinds = map[Kind]Spec{
	Firefox: {
		Kind:        Firefox,
		Binary:      "firefox",
		Mode:        ProfileFlag,
		Flag:        "--profile",
		DefaultArgs: []string{"--no-remote"},
	},
	LibreWolf: {
		Kind:        LibreWolf,
		Binary:      "librewolf",
		Mode:        ProfileFlag,
		Flag:        "--profile",
		DefaultArgs: []string{"--no-remote"},
	},
	TorBrowser: {
		Kind:          TorBrowser,
		Binary:        "tor-browser",
		Mode:          ProfileHome,
		ProfileSubdir: filepath.Join(".local", "share", "tor-browser", "TorBrowser", "Data", "Browser", "profile.default"),
	},
}

// Lookup returns the launch spec for a kind.
func Lookup(k Kind) (Spec, bool) {
	s, ok := kinds[k]
	return s, ok
}

// Valid reports whether k names a supported browser kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Kinds returns the supported kinds in a stable order.
func Kinds() []Kind {
	return []Kind{Firefox, TorBrowser, LibreWolf}
}

// ProfileDir returns the directory the browser itself treats as its
// profile, given the instance's profile root.
func (s Spec) ProfileDir(root string) string {
	if s.ProfileSubdir == "" {
		return root
	}
	return filepath.Join(root, s.ProfileSubdir)
}
