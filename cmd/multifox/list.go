package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/instance"
)

// list command
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		mgr, err := loadManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		sts, err := mgr.List()
		if err != nil {
			return err
		}

		if jsonOut {
			return printJSON(sts)
		}
		if len(sts) == 0 {
			fmt.Println("No instances configured")
			return nil
		}
		printStatusTable(os.Stdout, sts)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func printStatusTable(out io.Writer, sts []instance.Status) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBROWSER\tSTATE\tPID\tUPTIME\tPROFILE")
	for _, s := range sts {
		pid := "-"
		if s.PID > 0 {
			pid = fmt.Sprintf("%d", s.PID)
		}
		uptime := "-"
		if !s.Since.IsZero() {
			uptime = time.Since(s.Since).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.Browser, s.State, pid, uptime, s.Profile)
	}
	w.Flush()
}
