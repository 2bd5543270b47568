package frequency

import (
	"errors"
	"fmt"
	"strings"
)

// Frequency is how often a scheduled report is mailed.
type Frequency int

const (
	Hourly Frequency = iota + 1
	Daily
	EveryTwoDays
	EveryThreeDays
	Weekly
	Fortnightly
	Monthly
	EverySixMonths
	Yearly
)

var ErrUnknown = errors.New("unknown frequency")

var labels = map[Frequency]string{
	Hourly:         "Hourly",
	Daily:          "Daily",
	EveryTwoDays:   "Every 2 days",
	EveryThreeDays: "Every 3 days",
	Weekly:         "Weekly",
	Fortnightly:    "Fortnightly",
	Monthly:        "Monthly",
	EverySixMonths: "Every 6 months",
	Yearly:         "Yearly",
}

// All returns every frequency in picker order.
func All() []Frequency {
	return []Frequency{Hourly, Daily, EveryTwoDays, EveryThreeDays, Weekly, Fortnightly, Monthly, EverySixMonths, Yearly}
}

func (f Frequency) String() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// Slug is the kebab-case form used on the command line, e.g. "every-2-days".
func (f Frequency) Slug() string {
	return strings.ReplaceAll(strings.ToLower(f.String()), " ", "-")
}

func (f Frequency) Valid() bool {
	_, ok := labels[f]
	return ok
}

// Parse accepts a display label ("Every 2 days") or its slug ("every-2-days"),
// case-insensitively.
func Parse(s string) (Frequency, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", " ")
	norm = strings.Join(strings.Fields(norm), " ")
	for _, f := range All() {
		if strings.ToLower(labels[f]) == norm {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(f))
	}
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
