// Package drivers contains the fast header readers for the supported survey
// file formats. Each reader pulls only header-level metadata, never the full
// file contents, so ingestion stays cheap even for multi-gigabyte lines.
package drivers

import (
	"os"
	"time"

	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/intel"
	"github.com/UKHO/kluster/internal/paths"
)

// New returns the standard gatherer set covering Kongsberg multibeam files,
// POSPac navigation output, and Caris sound velocity profiles.
func New() intel.Gatherers {
	return intel.Gatherers{
		Multibeam:    ReadMultibeam,
		Navigation:   ReadSbet,
		NavError:     ReadSmrmsg,
		ExportLog:    ReadExportLog,
		Svp:          ReadSvp,
		IsNavigation: IsSbet,
		IsNavError:   IsSmrmsg,
	}
}

// basicFileInfo stats the file and fills the bookkeeping fields shared by
// every record category. Creation time is not portably available, so the
// modification time stands in for it.
func basicFileInfo(path, formatType string) (intel.FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return intel.FileInfo{}, errors.Wrap(errors.InvalidInput, "cannot stat file", err)
	}
	if st.IsDir() {
		return intel.FileInfo{}, errors.Newf(errors.InvalidInput, "%s is a directory", path)
	}
	norm := paths.Normalize(path)
	mod := st.ModTime().UTC()
	return intel.FileInfo{
		Path:            norm,
		FileName:        paths.FileName(norm),
		Type:            formatType,
		SizeKB:          float64(st.Size()) / 1024.0,
		LastModifiedUTC: mod,
		CreatedUTC:      mod,
		TimeAdded:       time.Now().UTC(),
	}, nil
}
