package main

import (
	"fmt"

	"github.com/UKHO/kluster/internal/drivers"
	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/paths"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Read a survey file's header metadata and print it as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	path := args[0]

	record, err := describeFile(path)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

// describeFile runs the appropriate header reader for the file
func describeFile(path string) (interface{}, error) {
	switch paths.Ext(path) {
	case ".all", ".kmall":
		return drivers.ReadMultibeam(path)
	case ".svp":
		return drivers.ReadSvp(path)
	case ".out", ".sbet", ".smrmsg":
		if drivers.IsSbet(path) {
			return drivers.ReadSbet(path)
		}
		if drivers.IsSmrmsg(path) {
			return drivers.ReadSmrmsg(path)
		}
		return nil, errors.Newf(errors.UnsupportedFormat,
			"%s matches neither sbet nor smrmsg content", path)
	case ".txt", ".log":
		rec, err := drivers.ReadExportLog(path)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, errors.Newf(errors.UnsupportedFormat,
				"%s is not a navigation export log", path)
		}
		return rec, nil
	}
	return nil, errors.Newf(errors.UnsupportedFormat, "unsupported file extension: %s", path)
}
