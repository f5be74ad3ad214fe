package intel

import (
	"github.com/UKHO/kluster/internal/logging"
	"github.com/UKHO/kluster/internal/paths"
)

// MultibeamStore tracks raw multibeam files and their line groupings
type MultibeamStore struct {
	storeBase
	records map[string]*MultibeamRecord

	// LineGroups maps a destination key (an existing instance's key, or a
	// synthesized model_serial_date folder name) to the raw files bound for it
	LineGroups map[string][]string
	// MatchingFqpr maps each path to its matched instance key, empty when
	// unmatched
	MatchingFqpr map[string]string
}

// NewMultibeamStore creates an empty multibeam store
func NewMultibeamStore(logger *logging.Logger) *MultibeamStore {
	return &MultibeamStore{
		storeBase:    newStoreBase(CategoryMultibeam, logger),
		records:      make(map[string]*MultibeamRecord),
		LineGroups:   make(map[string][]string),
		MatchingFqpr: make(map[string]string),
	}
}

// Add registers a record, rejecting duplicates
func (s *MultibeamStore) Add(rec *MultibeamRecord) (bool, error) {
	added, err := s.add(&rec.FileInfo)
	if added {
		s.records[rec.Path] = rec
	}
	return added, err
}

// Remove purges a path from the store and every group map it owns
func (s *MultibeamStore) Remove(path string) (int64, bool) {
	rec, ok := s.records[paths.Normalize(path)]
	if !ok {
		return 0, false
	}
	uid, ok := s.remove(path, rec.UniqueID)
	if !ok {
		return 0, false
	}
	delete(s.records, rec.Path)
	delete(s.MatchingFqpr, rec.Path)
	removeFromGroups(s.LineGroups, rec.Path)
	return uid, true
}

// Record returns the record for a path, nil when untracked
func (s *MultibeamStore) Record(path string) *MultibeamRecord {
	return s.records[paths.Normalize(path)]
}

// Clear resets the store to empty
func (s *MultibeamStore) Clear() {
	s.clear()
	s.records = make(map[string]*MultibeamRecord)
	s.LineGroups = make(map[string][]string)
	s.MatchingFqpr = make(map[string]string)
}

// NavStore tracks post-processed navigation files and their project groupings
type NavStore struct {
	storeBase
	records map[string]*NavRecord

	// NavGroups maps an existing instance key to the nav files to import
	NavGroups map[string][]string
	// MatchingFqpr maps each path to its matched instance key
	MatchingFqpr map[string]string
}

// NewNavStore creates an empty navigation store
func NewNavStore(logger *logging.Logger) *NavStore {
	return &NavStore{
		storeBase:    newStoreBase(CategoryNavigation, logger),
		records:      make(map[string]*NavRecord),
		NavGroups:    make(map[string][]string),
		MatchingFqpr: make(map[string]string),
	}
}

// Add registers a record, rejecting duplicates
func (s *NavStore) Add(rec *NavRecord) (bool, error) {
	added, err := s.add(&rec.FileInfo)
	if added {
		s.records[rec.Path] = rec
	}
	return added, err
}

// Remove purges a path from the store and every group map it owns
func (s *NavStore) Remove(path string) (int64, bool) {
	rec, ok := s.records[paths.Normalize(path)]
	if !ok {
		return 0, false
	}
	uid, ok := s.remove(path, rec.UniqueID)
	if !ok {
		return 0, false
	}
	delete(s.records, rec.Path)
	delete(s.MatchingFqpr, rec.Path)
	removeFromGroups(s.NavGroups, rec.Path)
	return uid, true
}

// Record returns the record for a path, nil when untracked
func (s *NavStore) Record(path string) *NavRecord {
	return s.records[paths.Normalize(path)]
}

// Clear resets the store to empty
func (s *NavStore) Clear() {
	s.clear()
	s.records = make(map[string]*NavRecord)
	s.NavGroups = make(map[string][]string)
	s.MatchingFqpr = make(map[string]string)
}

// NavErrorStore tracks navigation error files and their sbet associations
type NavErrorStore struct {
	storeBase
	records map[string]*NavErrorRecord

	// MatchingSbet maps error path -> matched navigation path
	MatchingSbet map[string]string
	// SbetLookup is the inverse: navigation path -> error path
	SbetLookup map[string]string
}

// NewNavErrorStore creates an empty navigation-error store
func NewNavErrorStore(logger *logging.Logger) *NavErrorStore {
	return &NavErrorStore{
		storeBase:    newStoreBase(CategoryNavError, logger),
		records:      make(map[string]*NavErrorRecord),
		MatchingSbet: make(map[string]string),
		SbetLookup:   make(map[string]string),
	}
}

// Add registers a record, rejecting duplicates
func (s *NavErrorStore) Add(rec *NavErrorRecord) (bool, error) {
	added, err := s.add(&rec.FileInfo)
	if added {
		s.records[rec.Path] = rec
	}
	return added, err
}

// Remove purges a path from the store and both association maps
func (s *NavErrorStore) Remove(path string) (int64, bool) {
	rec, ok := s.records[paths.Normalize(path)]
	if !ok {
		return 0, false
	}
	uid, ok := s.remove(path, rec.UniqueID)
	if !ok {
		return 0, false
	}
	delete(s.records, rec.Path)
	removeFromLookups(s.MatchingSbet, s.SbetLookup, rec.Path)
	return uid, true
}

// Record returns the record for a path, nil when untracked
func (s *NavErrorStore) Record(path string) *NavErrorRecord {
	return s.records[paths.Normalize(path)]
}

// Clear resets the store to empty
func (s *NavErrorStore) Clear() {
	s.clear()
	s.records = make(map[string]*NavErrorRecord)
	s.MatchingSbet = make(map[string]string)
	s.SbetLookup = make(map[string]string)
}

// NavLogStore tracks export log files and their sbet associations
type NavLogStore struct {
	storeBase
	records map[string]*NavLogRecord

	// MatchingSbet maps log path -> matched navigation path
	MatchingSbet map[string]string
	// SbetLookup is the inverse: navigation path -> log path
	SbetLookup map[string]string
}

// NewNavLogStore creates an empty export-log store
func NewNavLogStore(logger *logging.Logger) *NavLogStore {
	return &NavLogStore{
		storeBase:    newStoreBase(CategoryNavLog, logger),
		records:      make(map[string]*NavLogRecord),
		MatchingSbet: make(map[string]string),
		SbetLookup:   make(map[string]string),
	}
}

// Add registers a record, rejecting duplicates
func (s *NavLogStore) Add(rec *NavLogRecord) (bool, error) {
	added, err := s.add(&rec.FileInfo)
	if added {
		s.records[rec.Path] = rec
	}
	return added, err
}

// Remove purges a path from the store and both association maps
func (s *NavLogStore) Remove(path string) (int64, bool) {
	rec, ok := s.records[paths.Normalize(path)]
	if !ok {
		return 0, false
	}
	uid, ok := s.remove(path, rec.UniqueID)
	if !ok {
		return 0, false
	}
	delete(s.records, rec.Path)
	removeFromLookups(s.MatchingSbet, s.SbetLookup, rec.Path)
	return uid, true
}

// Record returns the record for a path, nil when untracked
func (s *NavLogStore) Record(path string) *NavLogRecord {
	return s.records[paths.Normalize(path)]
}

// Clear resets the store to empty
func (s *NavLogStore) Clear() {
	s.clear()
	s.records = make(map[string]*NavLogRecord)
	s.MatchingSbet = make(map[string]string)
	s.SbetLookup = make(map[string]string)
}

// SvpStore tracks sound velocity profile files and their project groupings
type SvpStore struct {
	storeBase
	records map[string]*SvpRecord

	// SvpGroups maps an existing instance key to the svp files that would
	// contribute at least one new cast to it
	SvpGroups map[string][]string
}

// NewSvpStore creates an empty svp store
func NewSvpStore(logger *logging.Logger) *SvpStore {
	return &SvpStore{
		storeBase: newStoreBase(CategorySvp, logger),
		records:   make(map[string]*SvpRecord),
		SvpGroups: make(map[string][]string),
	}
}

// Add registers a record, rejecting duplicates
func (s *SvpStore) Add(rec *SvpRecord) (bool, error) {
	added, err := s.add(&rec.FileInfo)
	if added {
		s.records[rec.Path] = rec
	}
	return added, err
}

// Remove purges a path from the store and the svp group map
func (s *SvpStore) Remove(path string) (int64, bool) {
	rec, ok := s.records[paths.Normalize(path)]
	if !ok {
		return 0, false
	}
	uid, ok := s.remove(path, rec.UniqueID)
	if !ok {
		return 0, false
	}
	delete(s.records, rec.Path)
	removeFromGroups(s.SvpGroups, rec.Path)
	return uid, true
}

// Record returns the record for a path, nil when untracked
func (s *SvpStore) Record(path string) *SvpRecord {
	return s.records[paths.Normalize(path)]
}

// Clear resets the store to empty
func (s *SvpStore) Clear() {
	s.clear()
	s.records = make(map[string]*SvpRecord)
	s.SvpGroups = make(map[string][]string)
}
