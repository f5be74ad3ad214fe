package main

import (
	"time"

	"github.com/UKHO/kluster/internal/intel"
	"github.com/UKHO/kluster/internal/logging"
	"github.com/UKHO/kluster/internal/paths"
	"github.com/UKHO/kluster/internal/project"
)

// dryRunExecutor stands in for the conversion and processing engines. It
// logs what each action would run and synthesizes the project instance the
// engine would have produced, so the matching/queueing loop can be exercised
// end to end from the CLI.
type dryRunExecutor struct {
	logger *logging.Logger
}

var _ intel.Executor = (*dryRunExecutor)(nil)

func (x *dryRunExecutor) ConvertMultibeam(destination string, inputFiles []string, settings map[string]interface{}) (project.Instance, error) {
	x.logger.Info("DRY RUN convert multibeam", map[string]interface{}{
		"destination": destination,
		"files":       len(inputFiles),
	})
	inst := &project.MemoryInstance{
		Start:    time.Now().UTC(),
		NextStep: "compute_orientation",
	}
	inst.MarkImported(string(intel.CategoryMultibeam), baseNames(inputFiles)...)
	return inst, nil
}

func (x *dryRunExecutor) ImportNavigation(destination string, inputFiles []string, settings map[string]interface{}) (project.Instance, error) {
	x.logger.Info("DRY RUN import navigation", map[string]interface{}{
		"destination": destination,
		"files":       len(inputFiles),
	})
	inst := &project.MemoryInstance{NextStep: "georeference"}
	inst.MarkImported(string(intel.CategoryNavigation), baseNames(inputFiles)...)
	return inst, nil
}

func (x *dryRunExecutor) ImportSvp(destination string, inputFiles []string, settings map[string]interface{}) (project.Instance, error) {
	x.logger.Info("DRY RUN import sound velocity", map[string]interface{}{
		"destination": destination,
		"files":       len(inputFiles),
	})
	inst := &project.MemoryInstance{NextStep: "sound_velocity_correct"}
	inst.MarkImported(string(intel.CategorySvp), baseNames(inputFiles)...)
	return inst, nil
}

func (x *dryRunExecutor) Process(destination string, settings map[string]interface{}) (project.Instance, error) {
	x.logger.Info("DRY RUN process", map[string]interface{}{
		"destination": destination,
		"settings":    settings,
	})
	return &project.MemoryInstance{}, nil
}

func baseNames(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = paths.FileName(f)
	}
	return out
}
