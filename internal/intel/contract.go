package intel

import "github.com/UKHO/kluster/internal/project"

// Supported file extensions per category. The navigation extensions are
// shared between nav and error files in the wild, so those are disambiguated
// by content sniff rather than extension alone.
var (
	multibeamExtensions  = []string{".all", ".kmall"}
	navigationExtensions = []string{".out", ".sbet", ".smrmsg"}
	exportLogExtensions  = []string{".txt", ".log"}
	svpExtensions        = []string{".svp"}
)

// Gatherers are the fast header readers the orchestrator dispatches to. Each
// reads only the header-level metadata of its format, never the whole file,
// and fails with a CorruptSourceFile error when the file is not a valid
// instance of its claimed format. ExportLog returns (nil, nil) for files
// that are simply not export logs, since the extensions are generic.
type Gatherers struct {
	Multibeam  func(path string) (*MultibeamRecord, error)
	Navigation func(path string) (*NavRecord, error)
	NavError   func(path string) (*NavErrorRecord, error)
	ExportLog  func(path string) (*NavLogRecord, error)
	Svp        func(path string) (*SvpRecord, error)

	// Content sniffers for the shared navigation extensions
	IsNavigation func(path string) bool
	IsNavError   func(path string) bool
}

// Executor runs the external conversion/import/processing engines. Each call
// accepts the output destination, input file list and settings, and returns
// the created or updated project instance.
type Executor interface {
	ConvertMultibeam(destination string, inputFiles []string, settings map[string]interface{}) (project.Instance, error)
	ImportNavigation(destination string, inputFiles []string, settings map[string]interface{}) (project.Instance, error)
	ImportSvp(destination string, inputFiles []string, settings map[string]interface{}) (project.Instance, error)
	Process(destination string, settings map[string]interface{}) (project.Instance, error)
}

func hasExtension(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
