package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/instance"
	"github.com/T0astBread/multifox/internal/watch"
)

// status command
var statusCmd = &cobra.Command{
	Use:   "status [instance]",
	Short: "Show instance status",
	Long: "Show whether instances are running, with PID and uptime. " +
		"With --watch the view refreshes as lock files change.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		follow, _ := cmd.Flags().GetBool("watch")

		mgr, err := loadManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		var name string
		if len(args) == 1 {
			name = args[0]
		}

		render := func() error {
			sts, err := gatherStatuses(mgr, name)
			if err != nil {
				return err
			}
			if jsonOut {
				if name != "" {
					return printJSON(sts[0])
				}
				return printJSON(sts)
			}
			printStatusTable(os.Stdout, sts)
			return nil
		}

		if !follow {
			return render()
		}

		w := watch.New(mgr.LocksDir(), log)
		return w.Run(cmd.Context(), func() error {
			if !jsonOut {
				// Clear the screen and park the cursor top-left.
				fmt.Print("\033[2J\033[H")
			}
			return render()
		})
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	statusCmd.Flags().BoolP("watch", "w", false, "keep refreshing as instance state changes")
	rootCmd.AddCommand(statusCmd)
}

func gatherStatuses(mgr *instance.Manager, name string) ([]instance.Status, error) {
	if name == "" {
		return mgr.List()
	}
	st, err := mgr.Status(name)
	if err != nil {
		return nil, err
	}
	return []instance.Status{st}, nil
}
