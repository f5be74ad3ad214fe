package drivers

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/intel"
)

// POSPac writes fixed-size binary records of little-endian doubles, with the
// GPS time of week (seconds since Sunday 00:00 UTC) as the first field.
// An sbet record carries 17 doubles, an smrmsg record 10.
const (
	sbetRecordSize   = 136
	smrmsgRecordSize = 80
	secondsPerWeek   = 604800.0
)

// IsSbet reports whether the file looks like a POSPac sbet navigation file
func IsSbet(path string) bool {
	return isFixedRecordNav(path, sbetRecordSize)
}

// IsSmrmsg reports whether the file looks like a POSPac smrmsg error file
func IsSmrmsg(path string) bool {
	return isFixedRecordNav(path, smrmsgRecordSize)
}

// isFixedRecordNav sniffs content: the size must be a whole number of
// records and the first and last records must both start with a plausible,
// non-decreasing time of week. Sbet and smrmsg files share extensions in the
// wild, so the record size is the only reliable discriminator.
func isFixedRecordNav(path string, recordSize int64) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.Size() < recordSize || st.Size()%recordSize != 0 {
		return false
	}

	first, err := readTimeOfWeek(f, 0)
	if err != nil || !plausibleTimeOfWeek(first) {
		return false
	}
	last, err := readTimeOfWeek(f, st.Size()-recordSize)
	if err != nil || !plausibleTimeOfWeek(last) {
		return false
	}
	return last >= first
}

func readTimeOfWeek(f *os.File, offset int64) (float64, error) {
	var buf [8]byte
	if _, err := f.ReadAt(buf[:], offset); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func plausibleTimeOfWeek(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t < secondsPerWeek
}

// readWeeklySpan returns the time of week of the first and last record
func readWeeklySpan(path string, recordSize int64) (float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(errors.InvalidInput, "cannot open navigation file", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, 0, errors.Wrap(errors.InvalidInput, "cannot stat navigation file", err)
	}
	if st.Size() < recordSize || st.Size()%recordSize != 0 {
		return 0, 0, errors.Newf(errors.CorruptSourceFile,
			"%s: size %d is not a whole number of %d byte records", path, st.Size(), recordSize)
	}

	start, err := readTimeOfWeek(f, 0)
	if err != nil {
		return 0, 0, errors.Wrap(errors.CorruptSourceFile, "cannot read first record", err)
	}
	end, err := readTimeOfWeek(f, st.Size()-recordSize)
	if err != nil {
		return 0, 0, errors.Wrap(errors.CorruptSourceFile, "cannot read last record", err)
	}
	if !plausibleTimeOfWeek(start) || !plausibleTimeOfWeek(end) || end < start {
		return 0, 0, errors.Newf(errors.CorruptSourceFile,
			"%s: implausible time of week span %f to %f", path, start, end)
	}
	return start, end, nil
}

// ReadSbet reads the header metadata of a POSPac sbet navigation file
func ReadSbet(path string) (*intel.NavRecord, error) {
	info, err := basicFileInfo(path, "POSPac sbet")
	if err != nil {
		return nil, err
	}
	start, end, err := readWeeklySpan(path, sbetRecordSize)
	if err != nil {
		return nil, err
	}
	return &intel.NavRecord{
		FileInfo:           info,
		WeeklySecondsStart: start,
		WeeklySecondsEnd:   end,
	}, nil
}

// ReadSmrmsg reads the header metadata of a POSPac smrmsg error file
func ReadSmrmsg(path string) (*intel.NavErrorRecord, error) {
	info, err := basicFileInfo(path, "POSPac smrmsg")
	if err != nil {
		return nil, err
	}
	start, end, err := readWeeklySpan(path, smrmsgRecordSize)
	if err != nil {
		return nil, err
	}
	return &intel.NavErrorRecord{
		FileInfo:           info,
		WeeklySecondsStart: start,
		WeeklySecondsEnd:   end,
	}, nil
}

// ReadExportLog parses a POSPac export log. The .txt/.log extensions carry
// all kinds of files, so a file missing the input/export sbet lines is not
// an error; (nil, nil) means "not an export log, skip it".
func ReadExportLog(path string) (*intel.NavLogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput, "cannot open log file", err)
	}
	defer f.Close()

	rec := &intel.NavLogRecord{}
	var haveInput, haveOutput bool

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() && lines < 200 {
		lines++
		key, value, ok := splitLogLine(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case "input sbet file":
			rec.InputSbetFile = value
			haveInput = true
		case "output sbet file", "exported sbet file":
			rec.ExportedSbetFile = value
			haveOutput = true
		case "mission date":
			rec.MissionDate = parseMissionDate(value)
		case "datum":
			rec.Datum = value
		case "ellipsoid":
			rec.Ellipsoid = value
		case "export rate", "sample rate":
			rec.SampleRateHz = parseRate(value)
		}
	}
	if !haveInput || !haveOutput {
		return nil, nil
	}

	info, err := basicFileInfo(path, "sbet_export_log")
	if err != nil {
		return nil, err
	}
	rec.FileInfo = info
	return rec, nil
}

// splitLogLine splits "Key : value" into a lowercase key and trimmed value
func splitLogLine(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func parseMissionDate(value string) time.Time {
	for _, layout := range []string{"1/2/2006", "01/02/2006", "2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseRate(value string) float64 {
	value = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(value), "hz"))
	rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return rate
}
