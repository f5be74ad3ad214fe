package intel

import (
	"maps"
	"slices"
)

// snapshot is a deep copy of the association maps as of the last successful
// regeneration. The orchestrator diffs fresh matching output against it to
// decide whether action regeneration is actually needed; regeneration
// queries every project instance, so it must not run when a file event left
// the associations unchanged.
type snapshot struct {
	errorSbet  map[string]string
	logSbet    map[string]string
	lineGroups map[string][]string
	navGroups  map[string][]string
	svpGroups  map[string][]string
}

func (in *Intel) currentSnapshot() snapshot {
	return snapshot{
		errorSbet:  maps.Clone(in.NavError.MatchingSbet),
		logSbet:    maps.Clone(in.NavLog.MatchingSbet),
		lineGroups: cloneGroups(in.Multibeam.LineGroups),
		navGroups:  cloneGroups(in.Navigation.NavGroups),
		svpGroups:  cloneGroups(in.Svp.SvpGroups),
	}
}

func cloneGroups(groups map[string][]string) map[string][]string {
	out := make(map[string][]string, len(groups))
	for dest, files := range groups {
		out[dest] = slices.Clone(files)
	}
	return out
}

func groupsEqual(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for dest, files := range a {
		other, ok := b[dest]
		if !ok || !slices.Equal(files, other) {
			return false
		}
	}
	return true
}
