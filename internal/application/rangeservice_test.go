package application

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apodpanel/apodpanel/internal/domain/model"
)

// fixedToday is the reference day most validation tests evaluate against.
var fixedToday = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := model.ParseAPODDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func rangeOf(start, end string) model.DateRange {
	return model.DateRange{Start: day(start), End: day(end)}
}

// rangeOfDays builds a range of exactly n inclusive days ending at fixedToday.
func rangeOfDays(n int) model.DateRange {
	end := model.DateOnly(fixedToday)
	return model.DateRange{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

func TestEvaluateRange_CalendarChecks(t *testing.T) {
	tests := []struct {
		name        string
		r           model.DateRange
		wantMessage string
	}{
		{
			name:        "end in future",
			r:           rangeOf("2024-06-01", "2024-06-11"),
			wantMessage: "End date cannot be in the future. Please select a date up to today.",
		},
		{
			name:        "start in future",
			r:           rangeOf("2024-06-11", "2024-06-10"),
			wantMessage: "Start date cannot be in the future. Please select a date up to today.",
		},
		{
			name:        "start before earliest",
			r:           rangeOf("1995-06-15", "1995-06-20"),
			wantMessage: "Start date cannot be before 1995-06-16 (NASA's first APOD image).",
		},
		{
			name:        "end before earliest",
			r:           rangeOf("1995-06-16", "1995-06-15"),
			wantMessage: "End date cannot be before 1995-06-16 (NASA's first APOD image).",
		},
		{
			name:        "start after end",
			r:           rangeOf("2024-06-05", "2024-06-01"),
			wantMessage: "Start date cannot be after end date.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateRange(tt.r, model.KeyClassPersonal, fixedToday)

			assert.False(t, out.Permitted)
			assert.Equal(t, model.SeverityBlocking, out.Severity)
			assert.Equal(t, tt.wantMessage, out.Message)
		})
	}
}

// The future checks run end before start so the end-date message supersedes
// when both endpoints are in the future. Pin that precedence.
func TestEvaluateRange_EndFutureMessageSupersedes(t *testing.T) {
	r := rangeOf("2024-07-01", "2024-07-05")

	out := EvaluateRange(r, model.KeyClassShared, fixedToday)

	assert.False(t, out.Permitted)
	assert.Contains(t, out.Message, "End date cannot be in the future")
}

func TestEvaluateRange_IncompleteRange(t *testing.T) {
	tests := []struct {
		name string
		r    model.DateRange
	}{
		{name: "both missing", r: model.DateRange{}},
		{name: "start missing", r: model.DateRange{End: day("2024-06-05")}},
		{name: "end missing", r: model.DateRange{Start: day("2024-06-05")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateRange(tt.r, model.KeyClassShared, fixedToday)

			assert.False(t, out.Permitted)
			assert.Equal(t, model.SeverityBlocking, out.Severity)
			assert.Empty(t, out.Message)
		})
	}
}

func TestEvaluateRange_EarliestDateIsInclusive(t *testing.T) {
	out := EvaluateRange(rangeOf("1995-06-16", "1995-06-16"), model.KeyClassShared, fixedToday)

	assert.True(t, out.Permitted)
	assert.Equal(t, 1, out.Days)
}

func TestEvaluateRange_TodayIsAllowed(t *testing.T) {
	out := EvaluateRange(rangeOf("2024-06-10", "2024-06-10"), model.KeyClassShared, fixedToday)

	assert.True(t, out.Permitted)
	assert.Equal(t, model.SeverityNone, out.Severity)
	assert.Equal(t, 1, out.Days)
}

func TestEvaluateRange_SharedKeyQuota(t *testing.T) {
	for n := 1; n <= 25; n++ {
		out := EvaluateRange(rangeOfDays(n), model.KeyClassShared, fixedToday)
		require.True(t, out.Permitted, "shared key must permit %d days", n)
		require.Equal(t, n, out.Days)
	}

	for _, n := range []int{26, 30, 100, 365} {
		out := EvaluateRange(rangeOfDays(n), model.KeyClassShared, fixedToday)
		require.False(t, out.Permitted, "shared key must block %d days", n)
		require.Equal(t, model.SeverityBlocking, out.Severity)
		require.Contains(t, out.Message, "Demo key limit: Maximum 25 days per request")
		require.Contains(t, out.Message, fmt.Sprintf("you selected %d days", n))
	}
}

func TestEvaluateRange_SharedKeyWarning(t *testing.T) {
	// 1-10 days: clean. 11-25 days: permitted with a warning.
	out := EvaluateRange(rangeOfDays(10), model.KeyClassShared, fixedToday)
	assert.Equal(t, model.SeverityNone, out.Severity)

	out = EvaluateRange(rangeOfDays(11), model.KeyClassShared, fixedToday)
	assert.True(t, out.Permitted)
	assert.Equal(t, model.SeverityWarning, out.Severity)
	assert.Contains(t, out.Message, "Demo key: 11 days selected")

	out = EvaluateRange(rangeOfDays(25), model.KeyClassShared, fixedToday)
	assert.True(t, out.Permitted)
	assert.Equal(t, model.SeverityWarning, out.Severity)
}

func TestEvaluateRange_PersonalKeyQuota(t *testing.T) {
	// Thresholds that block a shared key pass cleanly on a personal key.
	for _, n := range []int{25, 26, 100} {
		out := EvaluateRange(rangeOfDays(n), model.KeyClassPersonal, fixedToday)
		require.True(t, out.Permitted, "personal key must permit %d days", n)
	}

	out := EvaluateRange(rangeOfDays(365), model.KeyClassPersonal, fixedToday)
	assert.True(t, out.Permitted)
	assert.Equal(t, model.SeverityWarning, out.Severity)
	assert.Contains(t, out.Message, "Large request: 365 days selected")

	out = EvaluateRange(rangeOfDays(366), model.KeyClassPersonal, fixedToday)
	assert.False(t, out.Permitted)
	assert.Contains(t, out.Message, "Maximum 365 days per request (you selected 366 days)")
}

func TestEvaluateRange_LargeRequestWarning(t *testing.T) {
	out := EvaluateRange(rangeOfDays(100), model.KeyClassPersonal, fixedToday)
	assert.Equal(t, model.SeverityNone, out.Severity)

	out = EvaluateRange(rangeOfDays(101), model.KeyClassPersonal, fixedToday)
	assert.True(t, out.Permitted)
	assert.Equal(t, model.SeverityWarning, out.Severity)
}

func TestEvaluateRange_IgnoresTimeOfDay(t *testing.T) {
	// End-of-day timestamps on the same calendar day must not trip the
	// future check or inflate the day count.
	r := model.DateRange{
		Start: time.Date(2024, time.June, 9, 23, 59, 59, 0, time.UTC),
		End:   time.Date(2024, time.June, 10, 23, 59, 59, 0, time.UTC),
	}
	today := time.Date(2024, time.June, 10, 0, 0, 1, 0, time.UTC)

	out := EvaluateRange(r, model.KeyClassShared, today)

	assert.True(t, out.Permitted)
	assert.Equal(t, 2, out.Days)
}

func TestApplyPresetAt(t *testing.T) {
	tests := []struct {
		name      string
		days      int
		today     time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:      "week ending today",
			days:      7,
			today:     fixedToday,
			wantStart: "2024-06-04",
			wantEnd:   "2024-06-10",
		},
		{
			name:      "single day",
			days:      1,
			today:     fixedToday,
			wantStart: "2024-06-10",
			wantEnd:   "2024-06-10",
		},
		{
			name:      "clamped to earliest date",
			days:      30,
			today:     day("1995-06-20"),
			wantStart: "1995-06-16",
			wantEnd:   "1995-06-20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyPresetAt(tt.days, tt.today)

			require.NoError(t, err)
			assert.Equal(t, day(tt.wantStart), got.Start)
			assert.Equal(t, day(tt.wantEnd), got.End)
		})
	}
}

func TestApplyPresetAt_ResultValidates(t *testing.T) {
	// Every quick-select preset must produce a permitted range on a personal
	// key, even when clamped against the earliest APOD date. On the shared
	// key the same holds only up to its 25-day ceiling: the 30-day menu
	// entry is offered and then blocked by validation, as the quota tier
	// demands.
	for _, preset := range PresetMenu {
		if preset.Days == 0 {
			continue
		}
		for _, today := range []time.Time{fixedToday, day("1995-06-18")} {
			r, err := ApplyPresetAt(preset.Days, today)
			require.NoError(t, err)

			out := EvaluateRange(r, model.KeyClassPersonal, today)
			assert.True(t, out.Permitted, "preset %q on %s", preset.Label, today.Format(model.APODDateFormat))

			shared := EvaluateRange(r, model.KeyClassShared, today)
			if r.Days() > sharedKeyMaxDays {
				assert.False(t, shared.Permitted, "preset %q on %s must trip the shared ceiling", preset.Label, today.Format(model.APODDateFormat))
				assert.Contains(t, shared.Message, "Demo key limit")
			} else {
				assert.True(t, shared.Permitted, "preset %q on %s", preset.Label, today.Format(model.APODDateFormat))
			}
		}
	}
}

func TestEvaluateRange_Idempotent(t *testing.T) {
	r := rangeOfDays(12)

	first := EvaluateRange(r, model.KeyClassShared, fixedToday)
	second := EvaluateRange(r, model.KeyClassShared, fixedToday)

	assert.Equal(t, first, second)
}

func TestApplyPresetAt_Idempotent(t *testing.T) {
	first, err := ApplyPresetAt(7, fixedToday)
	require.NoError(t, err)

	second, err := ApplyPresetAt(7, fixedToday)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestApplyPresetAt_RejectsInvalidDays(t *testing.T) {
	for _, n := range []int{0, -1, 366} {
		_, err := ApplyPresetAt(n, fixedToday)
		assert.Error(t, err, "days=%d", n)
	}
}

func TestCheckCustomDays(t *testing.T) {
	assert.True(t, CheckCustomDays(1).Permitted)
	assert.True(t, CheckCustomDays(365).Permitted)

	for _, n := range []int{0, -5, 366} {
		out := CheckCustomDays(n)
		assert.False(t, out.Permitted, "days=%d", n)
		assert.Equal(t, "Please enter a valid number of days (1-365)", out.Message)
	}
}

func TestRangeService_ValidateUsesClock(t *testing.T) {
	svc := NewRangeServiceWithClock(func() time.Time { return fixedToday })

	out := svc.Validate(rangeOf("2024-06-11", "2024-06-11"), model.KeyClassShared)

	assert.False(t, out.Permitted)
	assert.Contains(t, out.Message, "future")
}

func TestPresetMenu(t *testing.T) {
	require.NotEmpty(t, PresetMenu)
	assert.Equal(t, 0, PresetMenu[0].Days, "first entry is the custom option")

	var hasDefault bool
	for _, p := range PresetMenu[1:] {
		assert.Greater(t, p.Days, 0)
		assert.LessOrEqual(t, p.Days, 30)
		if p.Days == DefaultPresetDays {
			hasDefault = true
		}
	}
	assert.True(t, hasDefault, "default preset must be in the menu")
}
