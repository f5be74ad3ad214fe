package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/UKHO/kluster/internal/intel"

	"github.com/spf13/cobra"
)

var addExecute bool

var addCmd = &cobra.Command{
	Use:   "add <file or folder>...",
	Short: "Ingest survey files and show the resulting action queue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().BoolVar(&addExecute, "execute", false,
		"Execute the generated actions (dry run) after ingesting")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	files, err := expandArgs(args)
	if err != nil {
		return err
	}

	var added, skipped, duplicates int
	for _, file := range files {
		cat, ok, err := eng.intel.AddFile(file)
		switch {
		case err != nil:
			eng.logger.Error("Failed to add file", map[string]interface{}{
				"path":  file,
				"error": err.Error(),
			})
		case cat == "":
			skipped++
		case !ok:
			duplicates++
		default:
			added++
			fmt.Printf("added %-10s %s\n", cat, file)
		}
	}
	fmt.Printf("\n%d added, %d duplicates, %d skipped\n\n", added, duplicates, skipped)

	if addExecute {
		for eng.intel.Actions.Len() > 0 {
			if _, err := eng.intel.ExecuteNextAction(); err != nil {
				return err
			}
		}
	}

	printQueue(eng.intel)
	return nil
}

// expandArgs flattens directory arguments into their contained files
func expandArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// printQueue writes the current action queue and unmatched files to stdout
func printQueue(in *intel.Intel) {
	printActions(in.Actions.Actions())

	unmatched := in.Unmatched()
	if len(unmatched) > 0 {
		fmt.Printf("\nunmatched files (%d):\n", len(unmatched))
		for _, path := range sortedPaths(unmatched) {
			fmt.Printf("  %s\n      %s\n", path, unmatched[path])
		}
	}
}

func printActions(actions []*intel.Action) {
	if len(actions) == 0 {
		fmt.Println("action queue is empty")
		return
	}
	fmt.Printf("action queue (%d):\n", len(actions))
	for i, a := range actions {
		fmt.Printf("  %2d. %-10s -> %s (%d files)\n", i+1, a.Type, a.OutputDestination, len(a.InputFiles))
	}
}

func sortedPaths(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
