package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchRecursive bool

var watchCmd = &cobra.Command{
	Use:   "watch <folder>...",
	Short: "Monitor folders for survey files until interrupted",
	Long: `Watch polls the given folders for new and removed survey files, ingests
them as they appear, and prints the action queue whenever it changes. Files
still being written are only picked up once their size stops changing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", true,
		"Also watch subfolders")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	// The observer runs inside the orchestrator's lock; it may read the
	// action container but must not call back into the orchestrator
	eng.intel.Actions.BindToUpdate(func() {
		fmt.Println()
		printActions(eng.intel.Actions.Actions())
	})

	for _, folder := range args {
		if err := eng.intel.StartFolderMonitor(folder, watchRecursive); err != nil {
			return err
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	eng.logger.Info("Shutting down", nil)
	return nil
}
