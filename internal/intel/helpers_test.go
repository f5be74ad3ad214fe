package intel

import (
	"io"
	"testing"
	"time"

	"github.com/UKHO/kluster/internal/logging"
)

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
}

func mbesRecord(path string, uid int64, serial int, model string, start time.Time) *MultibeamRecord {
	return &MultibeamRecord{
		FileInfo: FileInfo{
			Path:     path,
			Type:     "kongsberg_kmall",
			SizeKB:   1024,
			UniqueID: uid,
		},
		DataStartUTC:  start,
		DataEndUTC:    start.Add(10 * time.Minute),
		PrimarySerial: serial,
		SonarModel:    model,
	}
}

func navRecord(path string, uid int64, start, end float64) *NavRecord {
	return &NavRecord{
		FileInfo: FileInfo{
			Path:     path,
			Type:     "POSPac sbet",
			SizeKB:   512,
			UniqueID: uid,
		},
		WeeklySecondsStart: start,
		WeeklySecondsEnd:   end,
	}
}

func navErrorRecord(path string, uid int64, start, end float64) *NavErrorRecord {
	return &NavErrorRecord{
		FileInfo: FileInfo{
			Path:     path,
			Type:     "POSPac smrmsg",
			SizeKB:   128,
			UniqueID: uid,
		},
		WeeklySecondsStart: start,
		WeeklySecondsEnd:   end,
	}
}

func navLogRecord(path string, uid int64, exported string) *NavLogRecord {
	return &NavLogRecord{
		FileInfo: FileInfo{
			Path:     path,
			Type:     "sbet_export_log",
			SizeKB:   4,
			UniqueID: uid,
		},
		ExportedSbetFile: exported,
	}
}

func svpRecord(path string, uid int64, castTimes ...time.Time) *SvpRecord {
	profiles := make([]SvpProfile, len(castTimes))
	for i, ct := range castTimes {
		profiles[i] = SvpProfile{
			JulianDay: ct.UTC().Format("2006-002"),
			TimeUTC:   ct.UTC(),
			Latitude:  37.2,
			Longitude: -76.1,
			Layers:    [][2]float64{{0, 1489.1}, {10, 1488.5}},
		}
	}
	return &SvpRecord{
		FileInfo: FileInfo{
			Path:     path,
			Type:     "caris_svp",
			SizeKB:   8,
			UniqueID: uid,
		},
		Profiles:   profiles,
		SourceEPSG: 4326,
		UTMZone:    18,
	}
}

func mustAdd(t *testing.T, added bool, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !added {
		t.Fatal("expected record to be added")
	}
}

func mustAddMbes(t *testing.T, s *MultibeamStore, rec *MultibeamRecord) {
	t.Helper()
	added, err := s.Add(rec)
	mustAdd(t, added, err)
}

func mustAddNav(t *testing.T, s *NavStore, rec *NavRecord) {
	t.Helper()
	added, err := s.Add(rec)
	mustAdd(t, added, err)
}

func mustAddNavError(t *testing.T, s *NavErrorStore, rec *NavErrorRecord) {
	t.Helper()
	added, err := s.Add(rec)
	mustAdd(t, added, err)
}

func mustAddNavLog(t *testing.T, s *NavLogStore, rec *NavLogRecord) {
	t.Helper()
	added, err := s.Add(rec)
	mustAdd(t, added, err)
}

func mustAddSvp(t *testing.T, s *SvpStore, rec *SvpRecord) {
	t.Helper()
	added, err := s.Add(rec)
	mustAdd(t, added, err)
}
