package points_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// DUE-DATE DERIVATIONS
// =============================================================================

func TestCalcRolloffAndPerfect_MidMonthAnchor(t *testing.T) {
	// GIVEN: Most recent infraction on Jan 15
	// WHEN: Deriving the policy dates
	// THEN: Roll-off lands Apr 1 (two months, then first of next month),
	//       perfect attendance May 1 (three months, same snap)

	rolloff, perfect := points.CalcRolloffAndPerfect(date(2025, time.January, 15))

	assert.True(t, rolloff.Equal(date(2025, time.April, 1)), "rolloff %s", rolloff)
	assert.True(t, perfect.Equal(date(2025, time.May, 1)), "perfect %s", perfect)
}

func TestCalcRolloffAndPerfect_MonthEndAnchor(t *testing.T) {
	// GIVEN: An anchor on Dec 31, where adding months clamps
	// WHEN: Deriving the policy dates
	// THEN: Dec 31 + 2 months clamps to Feb 28, snapping to Mar 1;
	//       Dec 31 + 3 months is Mar 31, snapping to Apr 1

	rolloff, perfect := points.CalcRolloffAndPerfect(date(2024, time.December, 31))

	assert.True(t, rolloff.Equal(date(2025, time.March, 1)), "rolloff %s", rolloff)
	assert.True(t, perfect.Equal(date(2025, time.April, 1)), "perfect %s", perfect)
}

func TestCalcRolloffAndPerfect_FirstOfMonthAnchor(t *testing.T) {
	rolloff, perfect := points.CalcRolloffAndPerfect(date(2025, time.March, 1))

	assert.True(t, rolloff.Equal(date(2025, time.June, 1)), "rolloff %s", rolloff)
	assert.True(t, perfect.Equal(date(2025, time.July, 1)), "perfect %s", perfect)
}

// =============================================================================
// CATCH-UP STEPPING
// =============================================================================

func TestStepNextDue_SkipsIntoPerfectMilestone(t *testing.T) {
	// GIVEN: Due Apr 1 with the perfect milestone at May 1 still ahead
	// WHEN: Stepping the due date
	// THEN: The step re-anchors on the milestone: May 1 + 2 months,
	//       then first of next month = Aug 1

	next := points.StepNextDue(date(2025, time.April, 1), date(2025, time.May, 1))
	assert.True(t, next.Equal(date(2025, time.August, 1)), "next %s", next)
}

func TestStepNextDue_PastMilestoneStepsPlainly(t *testing.T) {
	// GIVEN: Due Aug 1, already past the May 1 milestone
	// WHEN: Stepping
	// THEN: Plain step: Aug 1 + 2 months = Oct 1, then first of next
	//       month = Nov 1

	next := points.StepNextDue(date(2025, time.August, 1), date(2025, time.May, 1))
	assert.True(t, next.Equal(date(2025, time.November, 1)), "next %s", next)
}

func TestStepNextDue_NoMilestone(t *testing.T) {
	// A zero milestone (no infractions on record) never triggers the skip.
	next := points.StepNextDue(date(2025, time.April, 1), points.PointDate{})
	assert.True(t, next.Equal(date(2025, time.July, 1)), "next %s", next)
}

func TestNextPerfectDue(t *testing.T) {
	next := points.NextPerfectDue(date(2025, time.May, 1))
	assert.True(t, next.Equal(date(2025, time.September, 1)), "next %s", next)
}

// =============================================================================
// STATUS CLASSIFICATION
// =============================================================================

func TestStatusFor_BandBoundaries(t *testing.T) {
	// Boundary totals take the higher severity: exactly 4.0 is Warning,
	// exactly 5.0 Critical, exactly 7.0 Termination Risk.

	policy := points.DefaultPolicy()

	cases := []struct {
		total float64
		want  points.Status
	}{
		{0, points.StatusSafe},
		{3.5, points.StatusSafe},
		{4.0, points.StatusWarning},
		{4.5, points.StatusWarning},
		{5.0, points.StatusCritical},
		{6.5, points.StatusCritical},
		{7.0, points.StatusTermination},
		{9.5, points.StatusTermination},
	}
	for _, tc := range cases {
		got := policy.StatusFor(points.NewPoints(tc.total))
		assert.Equal(t, tc.want, got, "total %.1f", tc.total)
	}
}

func TestMagnitudeAllowed(t *testing.T) {
	policy := points.DefaultPolicy()

	for _, ok := range []float64{0.5, 1.0, 1.5} {
		assert.True(t, policy.MagnitudeAllowed(points.NewPoints(ok)), "%v should be allowed", ok)
	}
	for _, bad := range []float64{0, 0.25, 2.0, -1.0} {
		assert.False(t, policy.MagnitudeAllowed(points.NewPoints(bad)), "%v should be rejected", bad)
	}
}
