package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var filesCategory string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the survey files recorded in the journal",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the executed actions recorded in the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	filesCmd.Flags().StringVar(&filesCategory, "category", "",
		"Only list files of one category: multibeam, navigation, naverror, navlog, or svp")
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(historyCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	records, err := eng.journal.ListRecords(filesCategory)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no files in the journal")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%6d  %-10s  %-16s  %10.1f kB  %s\n",
			rec.UniqueID, rec.Category, rec.FormatType, rec.SizeKB, rec.Path)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.journal.ListActions()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no executed actions in the journal")
		return nil
	}
	for _, e := range entries {
		status := "ok"
		if !e.Succeeded {
			status = "FAILED: " + e.Error
		}
		fmt.Printf("%s  %-10s  %-40s  %s\n",
			e.ExecutedAt.Format(time.RFC3339), e.ActionType, e.Destination, status)
	}
	return nil
}
