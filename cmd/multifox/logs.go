package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/instance"
	"github.com/T0astBread/multifox/internal/logbuf"
)

// logs command
var logsCmd = &cobra.Command{
	Use:   "logs <instance>",
	Short: "Show recent browser output for an instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("lines")
		name := args[0]

		mgr, err := loadManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if _, ok := config.Find(mgr.Definitions(), name); !ok {
			return &instance.UnknownError{Name: name}
		}

		lines, err := logbuf.TailFile(mgr.LogPath(name), n)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			fmt.Fprintf(os.Stderr, "No output recorded for %q\n", name)
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntP("lines", "n", 50, "number of lines to show")
	rootCmd.AddCommand(logsCmd)
}
