package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/T0astBread/multifox/internal/instance"
)

// stop command
var stopCmd = &cobra.Command{
	Use:   "stop <instance>",
	Short: "Stop a running instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		name := args[0]

		mgr, err := loadManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		st, err := mgr.Status(name)
		if err != nil {
			return err
		}

		if st.State == instance.StateRunning && !yes && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("Stop instance %q (pid %d)? [y/N] ", name, st.PID)
			var answer string
			fmt.Scanln(&answer)
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted")
				return nil
			}
		}

		if err := mgr.Stop(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Printf("%s: stopped\n", name)
		return nil
	},
}

func init() {
	stopCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(stopCmd)
}
