package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/instance"
	"github.com/T0astBread/multifox/internal/journal"
)

// history command
var historyCmd = &cobra.Command{
	Use:   "history [instance]",
	Short: "Show recent lifecycle events",
	Long:  "Show starts, stops, exits, and cleared stale locks, newest last. With a name, only that instance's events.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("lines")
		jsonOut, _ := cmd.Flags().GetBool("json")

		mgr, err := loadManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		var name string
		if len(args) == 1 {
			name = args[0]
			if _, ok := config.Find(mgr.Definitions(), name); !ok {
				return &instance.UnknownError{Name: name}
			}
		}

		// Read everything and filter first, so the line limit applies
		// to the filtered view.
		entries, err := journal.Tail(mgr.JournalPath(), 0)
		if err != nil {
			return err
		}
		if name != "" {
			filtered := entries[:0]
			for _, e := range entries {
				if e.Instance == name {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}
		if n > 0 && len(entries) > n {
			entries = entries[len(entries)-n:]
		}

		if jsonOut {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No events recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tINSTANCE\tPID\tDETAIL")
		for _, e := range entries {
			pid := "-"
			if e.PID > 0 {
				pid = fmt.Sprintf("%d", e.PID)
			}
			detail := e.Detail
			if detail == "" {
				detail = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Time.Local().Format(time.RFC3339), e.Event, e.Instance, pid, detail)
		}
		w.Flush()
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("lines", "n", 20, "number of events to show")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}
