package application

import (
	"fmt"
	"time"

	"github.com/apodpanel/apodpanel/internal/domain/model"
)

// Quota thresholds for range requests. The shared DEMO_KEY is throttled hard
// by NASA (30 requests/hour), so the panel blocks obviously-doomed requests
// before they leave the box and warns on risky-but-allowed ones. The absolute
// ceiling applies to every key class.
const (
	sharedKeyMaxDays     = 25
	sharedKeyWarnDays    = 10
	absoluteMaxDays      = 365
	largeRequestWarnDays = 100
)

// Preset is one quick-select menu entry. Days == 0 marks the custom option.
type Preset struct {
	Label string
	Days  int
}

// PresetMenu mirrors the quick-select ranges the GUI offers. The 30-day
// entry exceeds the demo-key ceiling; validation blocks it on the shared
// class with the upgrade hint rather than hiding it from the menu.
var PresetMenu = []Preset{
	{Label: "Custom Range", Days: 0},
	{Label: "Today Only", Days: 1},
	{Label: "Last 3 Days", Days: 3},
	{Label: "Last Week (7 days)", Days: 7},
	{Label: "Last 2 Weeks", Days: 14},
	{Label: "Last Month (30 days)", Days: 30},
}

// DefaultPresetDays is the range applied on first load.
const DefaultPresetDays = 7

// RangeService evaluates date ranges against the calendar constraints and
// the credential's quota class. It is pure apart from reading the clock;
// "today" is re-derived on every call, never cached.
type RangeService struct {
	now func() time.Time
}

// NewRangeService creates a RangeService using the system clock.
func NewRangeService() *RangeService {
	return &RangeService{now: time.Now}
}

// NewRangeServiceWithClock creates a RangeService with an injected clock.
func NewRangeServiceWithClock(now func() time.Time) *RangeService {
	return &RangeService{now: now}
}

// Validate evaluates r for the given key class against today's date.
func (s *RangeService) Validate(r model.DateRange, class model.KeyClass) model.ValidationOutcome {
	return EvaluateRange(r, class, s.now())
}

// EvaluateRange runs the ordered validation checks. The first blocking
// failure wins, with one deliberate exception: the start/end future-date
// checks are evaluated as a pair and the end-date message supersedes when
// both trip. That precedence is inherited behavior the GUI relies on.
func EvaluateRange(r model.DateRange, class model.KeyClass, today time.Time) model.ValidationOutcome {
	if !r.Complete() {
		// No message: the caller shows its neutral "select dates" prompt.
		return model.Blocked("")
	}

	start := model.DateOnly(r.Start)
	end := model.DateOnly(r.End)
	day := model.DateOnly(today)

	if end.After(day) {
		return model.Blocked("End date cannot be in the future. Please select a date up to today.")
	}
	if start.After(day) {
		return model.Blocked("Start date cannot be in the future. Please select a date up to today.")
	}

	floor := model.EarliestAPODDate.Format(model.APODDateFormat)
	if start.Before(model.EarliestAPODDate) {
		return model.Blocked(fmt.Sprintf("Start date cannot be before %s (NASA's first APOD image).", floor))
	}
	if end.Before(model.EarliestAPODDate) {
		return model.Blocked(fmt.Sprintf("End date cannot be before %s (NASA's first APOD image).", floor))
	}

	if start.After(end) {
		return model.Blocked("Start date cannot be after end date.")
	}

	days := model.DateRange{Start: start, End: end}.Days()
	if days <= 0 {
		return model.OK(days)
	}

	switch {
	case class == model.KeyClassShared && days > sharedKeyMaxDays:
		return model.Blocked(fmt.Sprintf(
			"Demo key limit: Maximum %d days per request (you selected %d days). Get your free API key at api.nasa.gov for unlimited access!",
			sharedKeyMaxDays, days))
	case days > absoluteMaxDays:
		return model.Blocked(fmt.Sprintf(
			"Maximum %d days per request (you selected %d days). Please select a smaller date range.",
			absoluteMaxDays, days))
	case class == model.KeyClassShared && days > sharedKeyWarnDays:
		return model.Warn(fmt.Sprintf(
			"Demo key: %d days selected. This may hit the 30 requests/hour limit. Consider getting your free API key!",
			days), days)
	case days > largeRequestWarnDays:
		return model.Warn(fmt.Sprintf(
			"Large request: %d days selected. This may take a while to load.", days), days)
	}

	return model.OK(days)
}

// ApplyPreset builds the range ending today that spans days calendar days,
// clamping the start up to the earliest APOD date when the lookback would
// reach past it. The end date is never clamped.
func (s *RangeService) ApplyPreset(days int) (model.DateRange, error) {
	return ApplyPresetAt(days, s.now())
}

// ApplyPresetAt is ApplyPreset against an explicit reference day.
func ApplyPresetAt(days int, today time.Time) (model.DateRange, error) {
	if out := CheckCustomDays(days); !out.Permitted {
		return model.DateRange{}, fmt.Errorf("invalid preset: %s", out.Message)
	}

	end := model.DateOnly(today)
	start := end.AddDate(0, 0, -(days - 1))
	if start.Before(model.EarliestAPODDate) {
		start = model.EarliestAPODDate
	}

	return model.DateRange{Start: start, End: end}, nil
}

// CheckCustomDays pre-checks a user-entered day count before any range is
// built. It reuses the validation outcome contract so the GUI surfaces it
// through the same notice path.
func CheckCustomDays(days int) model.ValidationOutcome {
	if days < 1 || days > absoluteMaxDays {
		return model.Blocked(fmt.Sprintf("Please enter a valid number of days (1-%d)", absoluteMaxDays))
	}
	return model.OK(days)
}
