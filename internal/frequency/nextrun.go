package frequency

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ValidateClock checks a target hour and minute.
func ValidateClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23, got %d", hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("minute must be between 0 and 59, got %d", minute)
	}
	return nil
}

// NextRun adds the frequency's calendar offset to now and then moves the
// clock to hour:minute (Hourly keeps the shifted hour). Seconds are dropped.
// Month arithmetic clamps the day to the end of the target month, so
// Jan 31 + 1 month is the last day of February.
func NextRun(now time.Time, f Frequency, hour, minute int) (time.Time, error) {
	switch f {
	case Hourly:
		t := now.Add(time.Hour)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location()), nil
	case Daily:
		return atClock(now.AddDate(0, 0, 1), hour, minute), nil
	case EveryTwoDays:
		return atClock(now.AddDate(0, 0, 2), hour, minute), nil
	case EveryThreeDays:
		return atClock(now.AddDate(0, 0, 3), hour, minute), nil
	case Weekly:
		return atClock(now.AddDate(0, 0, 7), hour, minute), nil
	case Fortnightly:
		return atClock(now.AddDate(0, 0, 14), hour, minute), nil
	case Monthly:
		return addMonths(now, 1, hour, minute), nil
	case EverySixMonths:
		return addMonths(now, 6, hour, minute), nil
	case Yearly:
		return addMonths(now, 12, hour, minute), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %d", ErrUnknown, int(f))
	}
}

func atClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

func addMonths(t time.Time, months, hour, minute int) time.Time {
	m := int(t.Month()) - 1 + months
	year := t.Year() + m/12
	month := time.Month(m%12 + 1)

	day := t.Day()
	if last := daysIn(year, month, t.Location()); day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Recurrence describes the cadence as rrule options anchored at start.
func Recurrence(start time.Time, f Frequency, hour, minute int) (rrule.ROption, error) {
	opt := rrule.ROption{
		Dtstart:  start,
		Byminute: []int{minute},
		Bysecond: []int{0},
	}
	switch f {
	case Hourly:
		opt.Freq, opt.Interval = rrule.HOURLY, 1
		return opt, nil
	case Daily:
		opt.Freq, opt.Interval = rrule.DAILY, 1
	case EveryTwoDays:
		opt.Freq, opt.Interval = rrule.DAILY, 2
	case EveryThreeDays:
		opt.Freq, opt.Interval = rrule.DAILY, 3
	case Weekly:
		opt.Freq, opt.Interval = rrule.WEEKLY, 1
	case Fortnightly:
		opt.Freq, opt.Interval = rrule.WEEKLY, 2
	case Monthly:
		opt.Freq, opt.Interval = rrule.MONTHLY, 1
	case EverySixMonths:
		opt.Freq, opt.Interval = rrule.MONTHLY, 6
	case Yearly:
		opt.Freq, opt.Interval = rrule.YEARLY, 1
	default:
		return rrule.ROption{}, fmt.Errorf("%w: %d", ErrUnknown, int(f))
	}
	opt.Byhour = []int{hour}
	return opt, nil
}

// RRule renders the cadence as an RFC 5545 RRULE value, e.g.
// "FREQ=DAILY;INTERVAL=2;BYHOUR=9;BYMINUTE=0;BYSECOND=0".
func RRule(f Frequency, hour, minute int) (string, error) {
	opt, err := Recurrence(time.Time{}, f, hour, minute)
	if err != nil {
		return "", err
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return opt.RRuleString(), nil
}
