package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

func tr(start, end string) models.TimeRange {
	return models.TimeRange{Start: models.MustTimeOfDay(start), End: models.MustTimeOfDay(end)}
}

func TestTimeRangesOverlapIsSymmetricAndHalfOpen(t *testing.T) {
	cases := []struct {
		a, b models.TimeRange
		want bool
	}{
		{tr("09:00", "10:00"), tr("09:30", "10:30"), true},
		{tr("09:00", "10:00"), tr("10:00", "11:00"), false},
		{tr("09:00", "10:00"), tr("08:00", "09:00"), false},
		{tr("09:00", "12:00"), tr("10:00", "11:00"), true},
		{tr("09:00", "10:00"), tr("09:00", "10:00"), true},
		{tr("07:00", "08:00"), tr("13:00", "14:00"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeRangesOverlap(tc.a, tc.b), "%s vs %s", tc.a, tc.b)
		assert.Equal(t, TimeRangesOverlap(tc.a, tc.b), TimeRangesOverlap(tc.b, tc.a), "symmetry %s vs %s", tc.a, tc.b)
	}
}

func TestTimeRangesOverlapExhaustiveSmallGrid(t *testing.T) {
	for s1 := 0; s1 < 8; s1++ {
		for e1 := s1 + 1; e1 <= 8; e1++ {
			for s2 := 0; s2 < 8; s2++ {
				for e2 := s2 + 1; e2 <= 8; e2++ {
					a := models.TimeRange{Start: models.TimeOfDay(s1 * 30), End: models.TimeOfDay(e1 * 30)}
					b := models.TimeRange{Start: models.TimeOfDay(s2 * 30), End: models.TimeOfDay(e2 * 30)}
					got := TimeRangesOverlap(a, b)
					assert.Equal(t, got, TimeRangesOverlap(b, a))
					if e1 <= s2 || e2 <= s1 {
						assert.False(t, got, "%s vs %s", a, b)
					} else {
						assert.True(t, got, "%s vs %s", a, b)
					}
				}
			}
		}
	}
}

func TestWeekdaysOverlap(t *testing.T) {
	mw := models.NewWeekdaySet(models.Monday, models.Wednesday)
	tt := models.NewWeekdaySet(models.Tuesday, models.Thursday)
	m := models.NewWeekdaySet(models.Monday)

	assert.False(t, WeekdaysOverlap(mw, tt))
	assert.True(t, WeekdaysOverlap(mw, m))
	assert.True(t, WeekdaysOverlap(m, mw))
	assert.False(t, WeekdaysOverlap(mw, 0))
	assert.False(t, WeekdaysOverlap(0, 0))

	for a := models.WeekdaySet(0); a < 128; a++ {
		for b := models.WeekdaySet(0); b < 128; b += 7 {
			assert.Equal(t, a&b != 0, WeekdaysOverlap(a, b))
		}
	}
}

func TestFindConflictsScenarios(t *testing.T) {
	sessionA := models.ClassSession{
		ID: "A", Name: "A", RoomID: "R1", SemesterID: "S1", InstructorID: "I1",
		Days:      models.NewWeekdaySet(models.Monday, models.Wednesday),
		StartTime: models.MustTimeOfDay("09:00"), EndTime: models.MustTimeOfDay("10:00"),
	}
	existing := []models.ClassSession{sessionA}

	sessionB := models.ScheduleSlot{RoomID: "R1", SemesterID: "S1", InstructorID: "I2", Days: models.NewWeekdaySet(models.Tuesday, models.Thursday), Range: tr("09:00", "10:00")}
	assert.Empty(t, FindConflicts(sessionB, existing))

	sessionC := models.ScheduleSlot{RoomID: "R1", SemesterID: "S1", InstructorID: "I3", Days: models.NewWeekdaySet(models.Monday), Range: tr("09:30", "10:30")}
	conflicts := FindConflicts(sessionC, existing)
	if assert.Len(t, conflicts, 1) {
		assert.Equal(t, "A", conflicts[0].ID)
	}

	adjacent := models.ScheduleSlot{RoomID: "R1", SemesterID: "S1", Days: models.NewWeekdaySet(models.Monday), Range: tr("10:00", "11:00")}
	assert.False(t, HasConflict(adjacent, existing))
}

func TestFindConflictsIgnoresMalformedDays(t *testing.T) {
	broken := models.ClassSession{ID: "X", StartTime: models.MustTimeOfDay("09:00"), EndTime: models.MustTimeOfDay("10:00")}
	candidate := models.ScheduleSlot{Days: models.NewWeekdaySet(models.Monday), Range: tr("09:00", "10:00")}
	assert.Empty(t, FindConflicts(candidate, []models.ClassSession{broken}))
}
