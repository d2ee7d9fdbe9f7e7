package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/instance"
)

// start command
var startCmd = &cobra.Command{
	Use:   "start [instance] [-- browser-args...]",
	Short: "Start a browser instance",
	Long: "Start the named instance's browser, bound to the instance's profile " +
		"directory. Arguments after -- are passed through to the browser. " +
		"Without a name, an interactive picker opens on a terminal.",
	Args: func(cmd *cobra.Command, args []string) error {
		n := len(args)
		if at := cmd.ArgsLenAtDash(); at >= 0 {
			n = at
		}
		if n > 1 {
			return fmt.Errorf("accepts at most one instance name, got %d", n)
		}
		return nil
	},
	RunE: runStart,
}

var flagDetach bool

func init() {
	startCmd.Flags().BoolVarP(&flagDetach, "detach", "d", false, "return immediately instead of waiting for the browser to exit")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	var extra []string
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		extra = args[at:]
		args = args[:at]
	}

	mgr, err := loadManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		name, err = pickInstance(mgr)
		if err != nil {
			return err
		}
		if name == "" {
			// Backed out of the picker.
			return nil
		}
	}

	res, err := mgr.Start(cmd.Context(), name, instance.StartOptions{
		Detach:    flagDetach,
		ExtraArgs: extra,
	})
	if err != nil {
		return err
	}

	if flagDetach {
		fmt.Printf("%s: started (pid %d)\n", name, res.PID)
		return nil
	}
	fmt.Printf("%s: exited (status %d)\n", name, res.ExitCode)
	return nil
}
