package analysis

import (
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
)

// PlanningDirMarker identifies planning artifacts in diff paths.
const PlanningDirMarker = ".opencode/"

// PlanningMatcher decides which changed files count as planning artifacts.
// Any path containing PlanningDirMarker matches; extra glob patterns in
// .dockerignore syntax can widen the set.
type PlanningMatcher struct {
	pm *patternmatcher.PatternMatcher
}

// NewPlanningMatcher compiles the extra patterns. With no patterns only the
// marker check applies.
func NewPlanningMatcher(patterns []string) (*PlanningMatcher, error) {
	if len(patterns) == 0 {
		return &PlanningMatcher{}, nil
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, err
	}
	return &PlanningMatcher{pm: pm}, nil
}

// Match reports whether file is a planning artifact.
func (m *PlanningMatcher) Match(file string) bool {
	if file == "" {
		return false
	}
	if strings.Contains(file, PlanningDirMarker) {
		return true
	}
	if m == nil || m.pm == nil {
		return false
	}
	ok, err := m.pm.MatchesOrParentMatches(filepath.ToSlash(file))
	return err == nil && ok
}
