package intel

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UKHO/kluster/internal/config"
	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/logging"
	"github.com/UKHO/kluster/internal/paths"
	"github.com/UKHO/kluster/internal/project"
	"github.com/UKHO/kluster/internal/storage"
	"github.com/UKHO/kluster/internal/watcher"

	stdmaps "maps"
)

// Intel is the top-level orchestrator. It receives file added/removed
// events, dispatches to the right record store, triggers re-matching, and
// keeps the action queue consistent with the current file and project state.
//
// The data model has no internal locking; Intel serializes every public
// entry point behind one mutex so monitor goroutines and direct callers can
// share an instance safely.
type Intel struct {
	mu sync.Mutex

	logger   *logging.Logger
	cfg      *config.Config
	project  project.Project
	executor Executor
	gather   Gatherers

	Multibeam  *MultibeamStore
	Navigation *NavStore
	NavError   *NavErrorStore
	NavLog     *NavLogStore
	Svp        *SvpStore
	Actions    *Container

	journal      *storage.Journal
	nextUniqueID int64

	buffered  snapshot
	rerunMbes bool
	rerunNav  bool
	rerunSvp  bool

	unmatched map[string]string
	monitors  map[string]*watcher.Monitor
}

// New creates an orchestrator. project and executor may be nil: matching
// then degrades to "all files unmatched against project" and action
// execution reports an error.
func New(cfg *config.Config, proj project.Project, executor Executor, gather Gatherers, logger *logging.Logger) *Intel {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Intel{
		logger:     logger,
		cfg:        cfg,
		project:    proj,
		executor:   executor,
		gather:     gather,
		Multibeam:  NewMultibeamStore(logger),
		Navigation: NewNavStore(logger),
		NavError:   NewNavErrorStore(logger),
		NavLog:     NewNavLogStore(logger),
		Svp:        NewSvpStore(logger),
		Actions:    NewContainer(logger),
		unmatched:  make(map[string]string),
		monitors:   make(map[string]*watcher.Monitor),
	}
}

// AttachJournal persists accepted files and executed actions to the given
// journal and restores the unique-id high-water mark, so ids issued in a
// previous session are never reused.
func (in *Intel) AttachJournal(j *storage.Journal) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	next, err := j.NextUniqueID()
	if err != nil {
		return err
	}
	in.journal = j
	if next > in.nextUniqueID {
		in.nextUniqueID = next
	}
	return nil
}

// SetProject swaps the project collaborator and rematches everything
func (in *Intel) SetProject(proj project.Project) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.project = proj
	in.rerunMbes, in.rerunNav, in.rerunSvp = true, true, true
	return in.runMatching()
}

// AddFile ingests one file. The returned category is empty for unsupported
// files (skipped, not an error); added is false when the file is a duplicate
// of one already tracked. Gatherer failures are returned without touching
// store state.
func (in *Intel) AddFile(path string) (Category, bool, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	cat, added, err := in.ingest(path)
	if err != nil || !added {
		return cat, added, err
	}
	if err := in.runMatching(); err != nil {
		return cat, added, err
	}
	return cat, added, nil
}

func (in *Intel) ingest(path string) (Category, bool, error) {
	ext := paths.Ext(path)
	switch {
	case hasExtension(multibeamExtensions, ext):
		if in.gather.Multibeam == nil {
			return in.skip(path, "no multibeam gatherer configured")
		}
		rec, err := in.gather.Multibeam(path)
		if err != nil {
			return "", false, err
		}
		return in.addMultibeam(rec)

	case hasExtension(svpExtensions, ext):
		if in.gather.Svp == nil {
			return in.skip(path, "no svp gatherer configured")
		}
		rec, err := in.gather.Svp(path)
		if err != nil {
			return "", false, err
		}
		return in.addSvp(rec)

	case hasExtension(navigationExtensions, ext):
		// The extension is shared; the content decides which format it is
		switch {
		case in.gather.IsNavigation != nil && in.gather.IsNavigation(path):
			rec, err := in.gather.Navigation(path)
			if err != nil {
				return "", false, err
			}
			return in.addNavigation(rec)
		case in.gather.IsNavError != nil && in.gather.IsNavError(path):
			rec, err := in.gather.NavError(path)
			if err != nil {
				return "", false, err
			}
			return in.addNavError(rec)
		default:
			return in.skip(path, "file has a navigation extension but matches neither sbet nor smrmsg content")
		}

	case hasExtension(exportLogExtensions, ext):
		if in.gather.ExportLog == nil {
			return in.skip(path, "no export log gatherer configured")
		}
		rec, err := in.gather.ExportLog(path)
		if err != nil {
			return "", false, err
		}
		if rec == nil {
			return in.skip(path, "text file is not a navigation export log")
		}
		return in.addNavLog(rec)
	}

	return in.skip(path, "unsupported file extension")
}

func (in *Intel) skip(path, reason string) (Category, bool, error) {
	in.logger.Debug("file skipped", map[string]interface{}{
		"path":   path,
		"reason": reason,
	})
	return "", false, nil
}

func (in *Intel) addMultibeam(rec *MultibeamRecord) (Category, bool, error) {
	rec.UniqueID = in.nextUniqueID
	added, err := in.Multibeam.Add(rec)
	if err != nil || !added {
		return CategoryMultibeam, added, err
	}
	in.accepted(&rec.FileInfo, CategoryMultibeam)
	in.rerunMbes = true
	return CategoryMultibeam, true, nil
}

func (in *Intel) addNavigation(rec *NavRecord) (Category, bool, error) {
	rec.UniqueID = in.nextUniqueID
	added, err := in.Navigation.Add(rec)
	if err != nil || !added {
		return CategoryNavigation, added, err
	}
	in.accepted(&rec.FileInfo, CategoryNavigation)
	in.rerunNav = true
	return CategoryNavigation, true, nil
}

func (in *Intel) addNavError(rec *NavErrorRecord) (Category, bool, error) {
	rec.UniqueID = in.nextUniqueID
	added, err := in.NavError.Add(rec)
	if err != nil || !added {
		return CategoryNavError, added, err
	}
	in.accepted(&rec.FileInfo, CategoryNavError)
	in.rerunNav = true
	return CategoryNavError, true, nil
}

func (in *Intel) addNavLog(rec *NavLogRecord) (Category, bool, error) {
	rec.UniqueID = in.nextUniqueID
	added, err := in.NavLog.Add(rec)
	if err != nil || !added {
		return CategoryNavLog, added, err
	}
	in.accepted(&rec.FileInfo, CategoryNavLog)
	in.rerunNav = true
	return CategoryNavLog, true, nil
}

func (in *Intel) addSvp(rec *SvpRecord) (Category, bool, error) {
	rec.UniqueID = in.nextUniqueID
	added, err := in.Svp.Add(rec)
	if err != nil || !added {
		return CategorySvp, added, err
	}
	in.accepted(&rec.FileInfo, CategorySvp)
	in.rerunSvp = true
	return CategorySvp, true, nil
}

// accepted finalizes a successful add: issue the unique id and journal it
func (in *Intel) accepted(info *FileInfo, cat Category) {
	in.nextUniqueID++
	if in.journal == nil {
		return
	}
	rec := &storage.JournalRecord{
		Path:       info.Path,
		FileName:   info.FileName,
		Category:   string(cat),
		FormatType: info.Type,
		SizeKB:     info.SizeKB,
		ModifiedAt: info.LastModifiedUTC,
		CreatedAt:  info.CreatedUTC,
		AddedAt:    info.TimeAdded,
		UniqueID:   info.UniqueID,
	}
	if err := in.journal.SaveRecord(rec); err != nil {
		in.logger.Error("failed to journal file record", map[string]interface{}{
			"path":  info.Path,
			"error": err.Error(),
		})
	}
	if err := in.journal.SetNextUniqueID(in.nextUniqueID); err != nil {
		in.logger.Error("failed to persist unique id high-water mark", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// RemoveFile drops a tracked file from whichever store holds it and returns
// its category and freed unique id. Unknown paths return removed=false with
// no error.
func (in *Intel) RemoveFile(path string) (Category, int64, bool, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	cat, uid, removed := in.removeFromStores(path)
	if !removed {
		return "", 0, false, nil
	}
	if in.journal != nil {
		if err := in.journal.DeleteRecord(paths.Normalize(path)); err != nil {
			in.logger.Error("failed to remove journal record", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
	if err := in.runMatching(); err != nil {
		return cat, uid, true, err
	}
	return cat, uid, true, nil
}

func (in *Intel) removeFromStores(path string) (Category, int64, bool) {
	if in.Multibeam.Has(path) {
		uid, ok := in.Multibeam.Remove(path)
		in.rerunMbes = ok
		return CategoryMultibeam, uid, ok
	}
	if in.Svp.Has(path) {
		uid, ok := in.Svp.Remove(path)
		in.rerunSvp = ok
		return CategorySvp, uid, ok
	}
	if in.Navigation.Has(path) {
		uid, ok := in.Navigation.Remove(path)
		in.rerunNav = ok
		return CategoryNavigation, uid, ok
	}
	if in.NavError.Has(path) {
		uid, ok := in.NavError.Remove(path)
		in.rerunNav = ok
		return CategoryNavError, uid, ok
	}
	if in.NavLog.Has(path) {
		uid, ok := in.NavLog.Remove(path)
		in.rerunNav = ok
		return CategoryNavLog, uid, ok
	}
	return "", 0, false
}

// runMatching runs the matchers whose rerun flags are set, diffs the fresh
// association maps against the buffered snapshot, regenerates the action
// families that actually changed, and rebuilds the consolidated unmatched
// list. The snapshot is only replaced after a fully successful pass.
func (in *Intel) runMatching() error {
	if in.rerunMbes {
		matchMultibeamToProject(in.Multibeam, in.project)
	}
	if in.rerunNav {
		// Project matching depends on fresh error/log matches, so the
		// nav-to-nav passes always run first
		matchNavErrorToNav(in.NavError, in.Navigation, in.cfg.Matching)
		matchExportLogToNav(in.NavLog, in.Navigation, in.cfg.Matching)
		matchNavToProject(in.Navigation, in.NavError, in.NavLog, in.project, in.cfg.Matching)
	}
	if in.rerunSvp {
		matchSvpToProject(in.Svp, in.project)
	}

	cur := in.currentSnapshot()
	if in.rerunMbes && !groupsEqual(cur.lineGroups, in.buffered.lineGroups) {
		if err := in.regenerateConvertActions(); err != nil {
			return err
		}
	}
	if in.rerunNav &&
		(!stdmaps.Equal(cur.errorSbet, in.buffered.errorSbet) ||
			!stdmaps.Equal(cur.logSbet, in.buffered.logSbet) ||
			!groupsEqual(cur.navGroups, in.buffered.navGroups)) {
		if err := in.regenerateNavActions(); err != nil {
			return err
		}
	}
	if in.rerunSvp && !groupsEqual(cur.svpGroups, in.buffered.svpGroups) {
		if err := in.regenerateSvpActions(); err != nil {
			return err
		}
	}

	in.buffered = cur
	in.rerunMbes, in.rerunNav, in.rerunSvp = false, false, false
	in.rebuildUnmatched()
	in.Actions.notify()
	return nil
}

func (in *Intel) regenerateConvertActions() error {
	dests := sortedGroupKeys(in.Multibeam.LineGroups)
	if _, _, err := in.Actions.UpdateFromDestinations(ActionConvert, dests); err != nil {
		return err
	}
	for _, dest := range dests {
		files := append([]string(nil), in.Multibeam.LineGroups[dest]...)
		if a := in.Actions.Find(ActionConvert, dest); a != nil {
			in.Actions.Update(a, files, nil)
			continue
		}
		if err := in.Actions.Add(NewAction(ActionConvert, dest, files)); err != nil {
			return err
		}
	}
	return nil
}

func (in *Intel) regenerateNavActions() error {
	dests := sortedGroupKeys(in.Navigation.NavGroups)
	if _, _, err := in.Actions.UpdateFromDestinations(ActionNavigation, dests); err != nil {
		return err
	}
	for _, dest := range dests {
		files := append([]string(nil), in.Navigation.NavGroups[dest]...)
		settings := in.navImportSettings(files)
		if a := in.Actions.Find(ActionNavigation, dest); a != nil {
			in.Actions.Update(a, files, settings)
			continue
		}
		action := NewAction(ActionNavigation, dest, files)
		action.Settings = settings
		if err := in.Actions.Add(action); err != nil {
			return err
		}
	}
	return nil
}

// navImportSettings bundles the error/log files matched to each nav file,
// which the import engine needs alongside the nav files themselves
func (in *Intel) navImportSettings(navFiles []string) map[string]interface{} {
	var errFiles, logFiles []string
	for _, f := range navFiles {
		if e, ok := in.NavError.SbetLookup[f]; ok {
			errFiles = append(errFiles, e)
		}
		if l, ok := in.NavLog.SbetLookup[f]; ok {
			logFiles = append(logFiles, l)
		}
	}
	return map[string]interface{}{
		"errorFiles": errFiles,
		"logFiles":   logFiles,
	}
}

func (in *Intel) regenerateSvpActions() error {
	dests := sortedGroupKeys(in.Svp.SvpGroups)
	if _, _, err := in.Actions.UpdateFromDestinations(ActionSvp, dests); err != nil {
		return err
	}
	for _, dest := range dests {
		files := append([]string(nil), in.Svp.SvpGroups[dest]...)
		if a := in.Actions.Find(ActionSvp, dest); a != nil {
			in.Actions.Update(a, files, nil)
			continue
		}
		if err := in.Actions.Add(NewAction(ActionSvp, dest, files)); err != nil {
			return err
		}
	}
	return nil
}

func (in *Intel) regenerateProcessingActions() error {
	var dests []string
	steps := make(map[string]string)
	if in.project != nil {
		for dest, inst := range in.project.Instances() {
			if step := inst.NextProcessingStep(); step != "" {
				dests = append(dests, dest)
				steps[dest] = step
			}
		}
	}
	sort.Strings(dests)

	if _, _, err := in.Actions.UpdateFromDestinations(ActionProcessing, dests); err != nil {
		return err
	}
	for _, dest := range dests {
		settings := map[string]interface{}{"step": steps[dest]}
		if a := in.Actions.Find(ActionProcessing, dest); a != nil {
			in.Actions.Update(a, nil, settings)
			continue
		}
		action := NewAction(ActionProcessing, dest, nil)
		action.Settings = settings
		if err := in.Actions.Add(action); err != nil {
			return err
		}
	}
	return nil
}

// RegenerateActions performs the full rebuild run at startup or after a
// settings change: processing, then svp, then nav actions, then the
// unmatched list. Multibeam convert actions are deliberately left alone;
// line grouping requires lookups keyed to file events and is only rebuilt
// incrementally.
func (in *Intel) RegenerateActions() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.regenerateAll()
}

func (in *Intel) regenerateAll() error {
	if err := in.regenerateProcessingActions(); err != nil {
		return err
	}
	if err := in.regenerateSvpActions(); err != nil {
		return err
	}
	if err := in.regenerateNavActions(); err != nil {
		return err
	}
	in.rebuildUnmatched()
	in.Actions.notify()
	return nil
}

// ExecuteNextAction runs the highest priority pending action
func (in *Intel) ExecuteNextAction() (project.Instance, error) {
	return in.ExecuteAction(0)
}

// ExecuteAction runs the action at the given execution-order index, feeds
// the resulting instance back into the project, then reruns the matchers
// affected by the action's type and regenerates the processing actions.
func (in *Intel) ExecuteAction(index int) (project.Instance, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	action := in.Actions.ActionAt(index)
	if action == nil {
		return nil, errors.Newf(errors.InvalidInput, "no action at index %d", index)
	}
	if action.IsRunning {
		return nil, errors.Newf(errors.InvalidInput,
			"action for %s is already running", action.OutputDestination)
	}
	if in.executor == nil {
		return nil, errors.New(errors.InvalidInput, "no executor configured")
	}

	action.IsRunning = true
	inst, err := in.dispatch(action)
	action.IsRunning = false
	in.logExecution(action, err)
	if err != nil {
		return nil, fmt.Errorf("action %s for %s failed: %w", action.Type, action.OutputDestination, err)
	}

	if in.project != nil && inst != nil {
		in.project.SetInstance(action.OutputDestination, inst)
	}
	in.Actions.Remove(action)

	switch action.Type {
	case ActionConvert:
		// A brand-new instance appeared; everything may match differently
		in.rerunMbes, in.rerunNav, in.rerunSvp = true, true, true
	case ActionNavigation:
		in.rerunNav = true
	case ActionSvp:
		in.rerunSvp = true
	}
	if err := in.runMatching(); err != nil {
		return inst, err
	}
	if err := in.regenerateProcessingActions(); err != nil {
		return inst, err
	}
	in.Actions.notify()
	return inst, nil
}

func (in *Intel) dispatch(action *Action) (project.Instance, error) {
	switch action.Type {
	case ActionConvert:
		return in.executor.ConvertMultibeam(action.OutputDestination, action.InputFiles, action.Settings)
	case ActionNavigation:
		return in.executor.ImportNavigation(action.OutputDestination, action.InputFiles, action.Settings)
	case ActionSvp:
		return in.executor.ImportSvp(action.OutputDestination, action.InputFiles, action.Settings)
	case ActionProcessing:
		return in.executor.Process(action.OutputDestination, action.Settings)
	}
	return nil, errors.Newf(errors.InvalidInput, "unknown action type %s", action.Type)
}

func (in *Intel) logExecution(action *Action, err error) {
	if in.journal == nil {
		return
	}
	entry := &storage.ActionLogEntry{
		ID:          action.ID,
		ActionType:  string(action.Type),
		Destination: action.OutputDestination,
		ExecutedAt:  nowUTC(),
		Succeeded:   err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if logErr := in.journal.LogAction(entry); logErr != nil {
		in.logger.Error("failed to journal executed action", map[string]interface{}{
			"destination": action.OutputDestination,
			"error":       logErr.Error(),
		})
	}
}

// Unmatched returns a copy of the consolidated unmatched-file map as of the
// last matching pass
func (in *Intel) Unmatched() map[string]string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return stdmaps.Clone(in.unmatched)
}

func (in *Intel) rebuildUnmatched() {
	out := make(map[string]string)
	for _, m := range []map[string]string{
		in.Multibeam.Unmatched,
		in.Navigation.Unmatched,
		in.NavError.Unmatched,
		in.NavLog.Unmatched,
		in.Svp.Unmatched,
	} {
		for path, reason := range m {
			out[path] = reason
		}
	}
	in.unmatched = out
}

// Clear resets every store, the action container, and the buffered
// snapshot. Used on project close.
func (in *Intel) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.Multibeam.Clear()
	in.Navigation.Clear()
	in.NavError.Clear()
	in.NavLog.Clear()
	in.Svp.Clear()
	in.Actions.Clear()
	in.buffered = snapshot{}
	in.unmatched = make(map[string]string)
	in.rerunMbes, in.rerunNav, in.rerunSvp = false, false, false
}

// StartFolderMonitor watches a directory and feeds created/deleted events
// into AddFile/RemoveFile. Restarting an already-watched folder recreates
// its monitor.
func (in *Intel) StartFolderMonitor(folder string, recursive bool) error {
	folder = paths.Normalize(folder)
	in.StopFolderMonitor(folder)

	mon := watcher.New(folder, recursive, in.cfg.Monitor, in.logger, in.handleMonitorEvent)
	if err := mon.Start(); err != nil {
		return fmt.Errorf("failed to start monitoring %s: %w", folder, err)
	}

	in.mu.Lock()
	in.monitors[folder] = mon
	in.mu.Unlock()

	in.logger.Info("now monitoring folder", map[string]interface{}{
		"folder":    folder,
		"recursive": recursive,
	})
	return nil
}

// StopFolderMonitor stops and removes the monitor for a folder
func (in *Intel) StopFolderMonitor(folder string) {
	folder = paths.Normalize(folder)

	in.mu.Lock()
	mon, ok := in.monitors[folder]
	if ok {
		delete(in.monitors, folder)
	}
	in.mu.Unlock()

	if ok {
		mon.Stop()
		in.logger.Info("no longer monitoring folder", map[string]interface{}{
			"folder": folder,
		})
	}
}

// StopAllMonitors stops every active folder monitor
func (in *Intel) StopAllMonitors() {
	in.mu.Lock()
	monitors := in.monitors
	in.monitors = make(map[string]*watcher.Monitor)
	in.mu.Unlock()

	for _, mon := range monitors {
		mon.Stop()
	}
}

func (in *Intel) handleMonitorEvent(path string, event watcher.EventType) {
	switch event {
	case watcher.Created:
		if _, _, err := in.AddFile(path); err != nil {
			in.logger.Error("failed to add monitored file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	case watcher.Deleted:
		if _, _, _, err := in.RemoveFile(path); err != nil {
			in.logger.Error("failed to remove monitored file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

func sortedGroupKeys(groups map[string][]string) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
