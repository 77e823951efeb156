package service

import "github.com/noah-isme/campus-sis-api/internal/models"

// TimeRangesOverlap reports whether two half-open ranges [s1,e1) and [s2,e2) intersect.
// Touching endpoints do not overlap.
func TimeRangesOverlap(a, b models.TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// WeekdaysOverlap reports whether two day sets share at least one day.
func WeekdaysOverlap(a, b models.WeekdaySet) bool {
	return !a.Intersect(b).Empty()
}

// FindConflicts returns every existing session that meets on a shared day during an
// overlapping time window. Sessions with an empty day set never conflict.
// Callers are expected to pre-filter existing to the same semester and room or instructor.
func FindConflicts(candidate models.ScheduleSlot, existing []models.ClassSession) []models.ClassSession {
	var conflicts []models.ClassSession
	for _, session := range existing {
		if !WeekdaysOverlap(candidate.Days, session.Days) {
			continue
		}
		if !TimeRangesOverlap(candidate.Range, session.TimeRange()) {
			continue
		}
		conflicts = append(conflicts, session)
	}
	return conflicts
}

// HasConflict is the boolean form of FindConflicts.
func HasConflict(candidate models.ScheduleSlot, existing []models.ClassSession) bool {
	return len(FindConflicts(candidate, existing)) > 0
}
