package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/browser"
	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/instance"
	"github.com/T0astBread/multifox/internal/xdg"
)

type checkResult struct {
	Instance string `json:"instance,omitempty"`
	Check    string `json:"check"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail,omitempty"`
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and environment",
	Long: "Parse the config file, verify each instance's browser binary is on " +
		"PATH, and confirm profile sources and the state directory are usable.",
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	var results []checkResult

	defs, path, err := loadConfig()
	if err != nil {
		results = append(results, checkResult{Check: "config", OK: false, Detail: err.Error()})
		return reportChecks(results, jsonOut)
	}
	results = append(results, checkResult{
		Check:  "config",
		OK:     true,
		Detail: fmt.Sprintf("%d instance(s) in %s", len(defs), path),
	})

	var mgr *instance.Manager
	stateDir, err := xdg.StateDir()
	if err == nil {
		err = checkWritable(stateDir)
	}
	if err != nil {
		results = append(results, checkResult{Check: "state-dir", OK: false, Detail: err.Error()})
	} else {
		mgr = instance.New(stateDir, defs, log)
		defer mgr.Close()
		results = append(results, checkResult{Check: "state-dir", OK: true, Detail: mgr.StateDir()})
	}

	for _, def := range defs {
		results = append(results, checkBinary(def))
		if mgr != nil {
			results = append(results, checkProfile(mgr, def))
		}
		if def.UserJS != "" {
			results = append(results, checkFile(def.Name, "user-js", def.UserJS))
		}
		for _, ext := range def.Extensions {
			results = append(results, checkFile(def.Name, "extension", ext))
		}
	}

	return reportChecks(results, jsonOut)
}

func reportChecks(results []checkResult, jsonOut bool) error {
	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			label := r.Check
			if r.Instance != "" {
				label = r.Instance + ": " + r.Check
			}
			if r.OK {
				fmt.Printf("OK    %s (%s)\n", label, r.Detail)
			} else {
				fmt.Fprintf(os.Stderr, "FAIL  %s\n      %s\n", label, r.Detail)
			}
		}
		fmt.Printf("\n%d/%d checks passed\n", len(results)-failed, len(results))
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkBinary(def config.Instance) checkResult {
	bin := def.Binary
	if bin == "" {
		if spec, ok := browser.Lookup(def.Browser); ok {
			bin = spec.Binary
		}
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return checkResult{
			Instance: def.Name,
			Check:    "browser-binary",
			OK:       false,
			Detail:   fmt.Sprintf("%s not found on PATH", bin),
		}
	}
	return checkResult{Instance: def.Name, Check: "browser-binary", OK: true, Detail: path}
}

// checkProfile reports whether the instance's resolved profile directory
// is usable. A missing directory passes: start creates it.
func checkProfile(mgr *instance.Manager, def config.Instance) checkResult {
	path := mgr.ResolveProfile(def)
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return checkResult{Instance: def.Name, Check: "profile-dir", OK: true, Detail: path + " (created on first start)"}
	case err != nil:
		return checkResult{Instance: def.Name, Check: "profile-dir", OK: false, Detail: err.Error()}
	case !st.IsDir():
		return checkResult{Instance: def.Name, Check: "profile-dir", OK: false, Detail: path + " is not a directory"}
	}
	return checkResult{Instance: def.Name, Check: "profile-dir", OK: true, Detail: path}
}

func checkFile(name, check, path string) checkResult {
	if _, err := os.Stat(path); err != nil {
		return checkResult{Instance: name, Check: check, OK: false, Detail: err.Error()}
	}
	return checkResult{Instance: name, Check: check, OK: true, Detail: path}
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}
