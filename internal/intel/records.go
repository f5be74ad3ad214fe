// Package intel is the kluster intelligence core. It ingests survey-file
// metadata, deduplicates and tracks files across renames, associates files
// across categories and against project instances, and maintains the
// prioritized action queue that drives the processing pipeline.
package intel

import (
	"time"

	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/logging"
	"github.com/UKHO/kluster/internal/paths"
)

// Category identifies which kind of survey file a record describes
type Category string

const (
	CategoryMultibeam  Category = "multibeam"
	CategoryNavigation Category = "navigation"
	CategoryNavError   Category = "naverror"
	CategoryNavLog     Category = "navlog"
	CategorySvp        Category = "svp"
)

// FileInfo is the bookkeeping shared by every record category
type FileInfo struct {
	Path            string  // normalized absolute path, unique key within a store
	FileName        string  // derived base name, non-unique across stores
	Type            string  // format tag, e.g. "kongsberg_kmall", "POSPac sbet"
	SizeKB          float64 // file size in kB
	LastModifiedUTC time.Time
	CreatedUTC      time.Time
	TimeAdded       time.Time
	UniqueID        int64 // process-wide, assigned at ingestion, never reused
}

// MultibeamRecord describes one raw multibeam sonar file
type MultibeamRecord struct {
	FileInfo
	DataStartUTC    time.Time
	DataEndUTC      time.Time
	PrimarySerial   int
	SecondarySerial int // zero for single head systems
	SonarModel      string
}

// NavRecord describes one post-processed navigation solution file
type NavRecord struct {
	FileInfo
	WeeklySecondsStart float64
	WeeklySecondsEnd   float64
}

// NavErrorRecord describes one navigation error (smrmsg) file
type NavErrorRecord struct {
	FileInfo
	WeeklySecondsStart float64
	WeeklySecondsEnd   float64
}

// NavLogRecord describes one navigation export log file
type NavLogRecord struct {
	FileInfo
	MissionDate      time.Time
	Datum            string
	Ellipsoid        string
	InputSbetFile    string
	ExportedSbetFile string
	SampleRateHz     float64
}

// SvpProfile is a single sound velocity cast within an svp file
type SvpProfile struct {
	JulianDay string // "2020-077"
	TimeUTC   time.Time
	Latitude  float64
	Longitude float64
	Layers    [][2]float64 // depth (m), sound velocity (m/s)
}

// SvpRecord describes one sound velocity profile file
type SvpRecord struct {
	FileInfo
	Profiles      []SvpProfile
	SourceEPSG    int
	UTMZone       int
	UTMHemisphere string
}

// NumberOfProfiles returns the cast count
func (r *SvpRecord) NumberOfProfiles() int { return len(r.Profiles) }

// NumberOfLayers returns the layer count per cast
func (r *SvpRecord) NumberOfLayers() []int {
	out := make([]int, len(r.Profiles))
	for i, p := range r.Profiles {
		out[i] = len(p.Layers)
	}
	return out
}

// CastTimes returns the UTC time of every cast in the file
func (r *SvpRecord) CastTimes() []time.Time {
	out := make([]time.Time, len(r.Profiles))
	for i, p := range r.Profiles {
		out[i] = p.TimeUTC
	}
	return out
}

// storeBase carries the tracking state shared by all five category stores.
// Paths keeps insertion order so matching passes iterate deterministically.
type storeBase struct {
	category Category
	logger   *logging.Logger

	paths    []string           // insertion order
	names    map[string]string  // path -> file name
	pathFor  map[string]string  // file name -> path
	sizes    map[string]float64 // path -> size kB, for the moved-file dedup rule
	idToPath map[int64]string   // unique id -> path

	// Unmatched holds the human-readable reason each path failed the last
	// matching pass. Rebuilt wholesale by the matchers.
	Unmatched map[string]string
}

func newStoreBase(category Category, logger *logging.Logger) storeBase {
	return storeBase{
		category:  category,
		logger:    logger,
		names:     make(map[string]string),
		pathFor:   make(map[string]string),
		sizes:     make(map[string]float64),
		idToPath:  make(map[int64]string),
		Unmatched: make(map[string]string),
	}
}

// add validates and registers the common file info. The path is normalized in
// place. A duplicate (same path, or same name+size as a tracked file) is
// rejected with ok=false and no state change.
func (s *storeBase) add(info *FileInfo) (bool, error) {
	if info.Path == "" {
		return false, errors.New(errors.InvalidInput, "file record has no path")
	}
	info.Path = paths.Normalize(info.Path)
	info.FileName = paths.FileName(info.Path)

	if _, exists := s.names[info.Path]; exists || s.sameNameAndSize(info) {
		s.logger.Warn("file already tracked, rejecting duplicate", map[string]interface{}{
			"path":     info.Path,
			"category": string(s.category),
		})
		return false, nil
	}

	s.paths = append(s.paths, info.Path)
	s.names[info.Path] = info.FileName
	s.pathFor[info.FileName] = info.Path
	s.sizes[info.Path] = info.SizeKB
	s.idToPath[info.UniqueID] = info.Path

	s.logger.Info("file added", map[string]interface{}{
		"path":     info.Path,
		"category": string(s.category),
		"type":     info.Type,
		"uniqueId": info.UniqueID,
	})
	return true, nil
}

// sameNameAndSize catches files added once and then moved: the path changes
// but the (name, size) pair does not.
func (s *storeBase) sameNameAndSize(info *FileInfo) bool {
	for path, size := range s.sizes {
		if size == info.SizeKB && s.names[path] == info.FileName {
			return true
		}
	}
	return false
}

// remove purges the path from the shared maps and returns the freed unique
// id. An unknown path returns ok=false without error.
func (s *storeBase) remove(path string, uniqueID int64) (int64, bool) {
	path = paths.Normalize(path)
	if _, exists := s.names[path]; !exists {
		return 0, false
	}

	for i, p := range s.paths {
		if p == path {
			s.paths = append(s.paths[:i], s.paths[i+1:]...)
			break
		}
	}
	delete(s.pathFor, s.names[path])
	delete(s.names, path)
	delete(s.sizes, path)
	delete(s.idToPath, uniqueID)
	delete(s.Unmatched, path)

	s.logger.Info("file removed", map[string]interface{}{
		"path":     path,
		"category": string(s.category),
	})
	return uniqueID, true
}

// Has reports whether the store tracks the (normalized) path
func (s *storeBase) Has(path string) bool {
	_, ok := s.names[paths.Normalize(path)]
	return ok
}

// Paths returns the tracked paths in insertion order
func (s *storeBase) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// PathForID returns the path currently registered under a unique id
func (s *storeBase) PathForID(id int64) (string, bool) {
	p, ok := s.idToPath[id]
	return p, ok
}

// Len returns the number of tracked files
func (s *storeBase) Len() int { return len(s.paths) }

func (s *storeBase) clear() {
	s.paths = nil
	s.names = make(map[string]string)
	s.pathFor = make(map[string]string)
	s.sizes = make(map[string]float64)
	s.idToPath = make(map[int64]string)
	s.Unmatched = make(map[string]string)
}

// removeFromGroups drops path from every group list in groups, deleting any
// destination key whose group empties as a result.
func removeFromGroups(groups map[string][]string, path string) {
	for dest, files := range groups {
		kept := files[:0]
		for _, f := range files {
			if f != path {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			delete(groups, dest)
		} else {
			groups[dest] = kept
		}
	}
}

// removeFromLookups drops path wherever it appears in a pair of forward and
// inverse association maps, as key or as value.
func removeFromLookups(forward, inverse map[string]string, path string) {
	if other, ok := forward[path]; ok {
		delete(forward, path)
		if inverse[other] == path {
			delete(inverse, other)
		}
	}
	if other, ok := inverse[path]; ok {
		delete(inverse, path)
		if forward[other] == path {
			delete(forward, other)
		}
	}
	for k, v := range forward {
		if v == path {
			delete(forward, k)
		}
	}
	for k, v := range inverse {
		if v == path {
			delete(inverse, k)
		}
	}
}
