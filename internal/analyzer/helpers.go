package analyzer

import "github.com/tillfalko/interpolation-engine/internal/interp"

func simpleKey(s string) (string, bool) {
	return interp.GetSimpleInsertKey(s)
}

func topLevelGroupsOf(s string) []string {
	return interp.FindTopLevelGroups(s)
}
