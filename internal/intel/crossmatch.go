package intel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/UKHO/kluster/internal/config"
	"github.com/UKHO/kluster/internal/project"
)

// The cross-category matchers below rebuild their association maps wholesale
// on every pass; they never patch a previous result. Each pass records a
// human-readable reason for every file it could not place.

// matchNavErrorToNav associates every error (smrmsg) file with a navigation
// file using name similarity, shared directory, and time-window overlap,
// combined by majority vote.
func matchNavErrorToNav(errStore *NavErrorStore, navStore *NavStore, cfg config.MatchingConfig) {
	errStore.MatchingSbet = make(map[string]string)
	errStore.SbetLookup = make(map[string]string)
	errStore.Unmatched = make(map[string]string)

	navPaths := navStore.Paths()
	navNames := make([]string, len(navPaths))
	navWindows := make([]Window, len(navPaths))
	for i, p := range navPaths {
		rec := navStore.Record(p)
		navNames[i] = rec.FileName
		navWindows[i] = Window{rec.WeeklySecondsStart, rec.WeeklySecondsEnd}
	}

	for _, errPath := range errStore.Paths() {
		rec := errStore.Record(errPath)

		var evidence []string
		if name, ok := BestNameMatch(navNames, rec.FileName, cfg.NameSimilarityCutoff); ok {
			evidence = append(evidence, navStore.pathFor[name])
		}
		evidence = append(evidence, SharedDirectory(navPaths, errPath)...)
		target := Window{rec.WeeklySecondsStart, rec.WeeklySecondsEnd}
		for _, idx := range OverlappingWindows(navWindows, target, cfg.TimeToleranceSeconds) {
			evidence = append(evidence, navPaths[idx])
		}

		if match, ok := majorityVote(evidence); ok {
			errStore.MatchingSbet[errPath] = match
			errStore.SbetLookup[match] = errPath
		} else {
			errStore.Unmatched[errPath] = fmt.Sprintf(
				"no navigation file matched by name similarity (cutoff %.2f), shared directory, or time window within %.0fs",
				cfg.NameSimilarityCutoff, cfg.TimeToleranceSeconds)
		}
	}
}

// matchExportLogToNav associates every export log with a navigation file.
// Logs carry no time range, so the third evidence source is the exported
// file name the log records internally.
func matchExportLogToNav(logStore *NavLogStore, navStore *NavStore, cfg config.MatchingConfig) {
	logStore.MatchingSbet = make(map[string]string)
	logStore.SbetLookup = make(map[string]string)
	logStore.Unmatched = make(map[string]string)

	navPaths := navStore.Paths()
	navNames := make([]string, len(navPaths))
	for i, p := range navPaths {
		navNames[i] = navStore.Record(p).FileName
	}

	for _, logPath := range logStore.Paths() {
		rec := logStore.Record(logPath)

		var evidence []string
		if name, ok := BestNameMatch(navNames, rec.FileName, cfg.NameSimilarityCutoff); ok {
			evidence = append(evidence, navStore.pathFor[name])
		}
		if rec.ExportedSbetFile != "" {
			exported := baseName(rec.ExportedSbetFile)
			if name, ok := BestNameMatch(navNames, exported, cfg.NameSimilarityCutoff); ok {
				evidence = append(evidence, navStore.pathFor[name])
			}
		}
		evidence = append(evidence, SharedDirectory(navPaths, logPath)...)

		if match, ok := majorityVote(evidence); ok {
			logStore.MatchingSbet[logPath] = match
			logStore.SbetLookup[match] = logPath
		} else {
			logStore.Unmatched[logPath] = fmt.Sprintf(
				"no navigation file matched by name similarity (cutoff %.2f), exported file name, or shared directory",
				cfg.NameSimilarityCutoff)
		}
	}
}

// matchMultibeamToProject places each multibeam file in a line group: an
// existing instance matching (primary serial, secondary serial, same UTC
// day), or a synthesized model_serial_date destination for eventual
// new-instance creation. Files an instance already imported are excluded
// from all groups.
func matchMultibeamToProject(mbStore *MultibeamStore, proj project.Project) {
	mbStore.LineGroups = make(map[string][]string)
	mbStore.MatchingFqpr = make(map[string]string)
	mbStore.Unmatched = make(map[string]string)

	for _, path := range mbStore.Paths() {
		rec := mbStore.Record(path)

		if proj != nil {
			dest, inst, ok := proj.LookupBySerial(rec.PrimarySerial, rec.SecondarySerial, rec.DataStartUTC)
			if ok {
				if containsName(inst.ImportedFiles(string(CategoryMultibeam)), rec.FileName) {
					mbStore.MatchingFqpr[path] = dest
					mbStore.Unmatched[path] = fmt.Sprintf("line already imported into %s", dest)
					continue
				}
				mbStore.MatchingFqpr[path] = dest
				mbStore.LineGroups[dest] = append(mbStore.LineGroups[dest], path)
				continue
			}
		}

		key := lineGroupKey(rec)
		mbStore.MatchingFqpr[path] = ""
		mbStore.LineGroups[key] = append(mbStore.LineGroups[key], path)
		if proj == nil || len(proj.Instances()) == 0 {
			mbStore.Unmatched[path] = fmt.Sprintf(
				"no project configured; line queued for new instance %s", key)
		} else {
			mbStore.Unmatched[path] = fmt.Sprintf(
				"no instance with serials %d/%d on %s; line queued for new instance %s",
				rec.PrimarySerial, rec.SecondarySerial,
				rec.DataStartUTC.UTC().Format("2006-01-02"), key)
		}
	}
}

// lineGroupKey synthesizes the destination folder name for lines with no
// existing instance: (model)_(serial)_(date of data start).
func lineGroupKey(rec *MultibeamRecord) string {
	return fmt.Sprintf("%s_%d_%s",
		strings.ToLower(rec.SonarModel), rec.PrimarySerial,
		rec.DataStartUTC.UTC().Format("01_02_2006"))
}

// matchNavToProject associates navigation files with project instances. A
// nav file must already have both a matched error file and a matched export
// log; evidence for the project match is weekly-seconds proximity, serial
// number in the path, and model number in the path, counted by occurrence.
func matchNavToProject(navStore *NavStore, errStore *NavErrorStore, logStore *NavLogStore,
	proj project.Project, cfg config.MatchingConfig) {

	navStore.NavGroups = make(map[string][]string)
	navStore.MatchingFqpr = make(map[string]string)
	navStore.Unmatched = make(map[string]string)

	var dests []string
	var instances map[string]project.Instance
	if proj != nil {
		instances = proj.Instances()
		dests = sortedKeys(instances)
	}

	for _, path := range navStore.Paths() {
		rec := navStore.Record(path)

		_, hasErr := errStore.SbetLookup[path]
		_, hasLog := logStore.SbetLookup[path]
		if !hasErr || !hasLog {
			var missing []string
			if !hasErr {
				missing = append(missing, "an error (smrmsg) file")
			}
			if !hasLog {
				missing = append(missing, "an export log")
			}
			navStore.MatchingFqpr[path] = ""
			navStore.Unmatched[path] = fmt.Sprintf(
				"navigation file needs %s matched before it can be tied to an instance",
				strings.Join(missing, " and "))
			continue
		}

		if len(instances) == 0 {
			navStore.MatchingFqpr[path] = ""
			navStore.Unmatched[path] = "no project configured, navigation file cannot be matched to an instance"
			continue
		}

		if dest, ok := alreadyImported(dests, instances, string(CategoryNavigation), rec.FileName); ok {
			navStore.MatchingFqpr[path] = dest
			navStore.Unmatched[path] = fmt.Sprintf("navigation file already imported into %s", dest)
			continue
		}

		var evidence []string
		lowerPath := strings.ToLower(path)
		for _, dest := range dests {
			inst := instances[dest]
			if absFloat(weeklySeconds(inst.DataStart())-rec.WeeklySecondsStart) <= cfg.WeeklySecondsWindow {
				evidence = append(evidence, dest)
			}
			if strings.Contains(path, strconv.Itoa(inst.PrimarySerial())) {
				evidence = append(evidence, dest)
			}
			if model := strings.ToLower(inst.SonarModel()); model != "" && strings.Contains(lowerPath, model) {
				evidence = append(evidence, dest)
			}
		}

		if dest, ok := majorityVote(evidence); ok {
			navStore.MatchingFqpr[path] = dest
			navStore.NavGroups[dest] = append(navStore.NavGroups[dest], path)
		} else {
			navStore.MatchingFqpr[path] = ""
			navStore.Unmatched[path] = fmt.Sprintf(
				"no instance matched by weekly seconds within %.0fs, serial number in path, or model number in path",
				cfg.WeeklySecondsWindow)
		}
	}
}

// matchSvpToProject adds an instance to a file's svp group whenever the file
// contributes at least one cast the instance does not already know. One file
// may match several instances.
func matchSvpToProject(svpStore *SvpStore, proj project.Project) {
	svpStore.SvpGroups = make(map[string][]string)
	svpStore.Unmatched = make(map[string]string)

	var dests []string
	var instances map[string]project.Instance
	if proj != nil {
		instances = proj.Instances()
		dests = sortedKeys(instances)
	}

	for _, path := range svpStore.Paths() {
		rec := svpStore.Record(path)

		if len(instances) == 0 {
			svpStore.Unmatched[path] = "no project configured, sound velocity file cannot be matched to an instance"
			continue
		}

		matched := false
		for _, dest := range dests {
			if contributesNewCast(rec, instances[dest]) {
				svpStore.SvpGroups[dest] = append(svpStore.SvpGroups[dest], path)
				matched = true
			}
		}
		if !matched {
			svpStore.Unmatched[path] = "every cast in this file is already known to every instance"
		}
	}
}

// contributesNewCast reports whether the file holds a cast time the instance
// has not already recorded.
func contributesNewCast(rec *SvpRecord, inst project.Instance) bool {
	known := make(map[int64]bool)
	for _, t := range inst.CastTimes() {
		known[t.UTC().Unix()] = true
	}
	for _, t := range rec.CastTimes() {
		if !known[t.UTC().Unix()] {
			return true
		}
	}
	return false
}

// weeklySeconds converts a UTC time to GPS-style time of week, seconds since
// the preceding Sunday 00:00 UTC.
func weeklySeconds(t time.Time) float64 {
	t = t.UTC()
	return float64(int(t.Weekday())*86400) +
		float64(t.Hour()*3600+t.Minute()*60+t.Second()) +
		float64(t.Nanosecond())/1e9
}

func alreadyImported(dests []string, instances map[string]project.Instance, category, fileName string) (string, bool) {
	for _, dest := range dests {
		if containsName(instances[dest].ImportedFiles(category), fileName) {
			return dest, true
		}
	}
	return "", false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]project.Instance) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func baseName(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
