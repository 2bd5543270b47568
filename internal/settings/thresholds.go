package settings

import (
	"strconv"
	"strings"

	"github.com/cankoe/filepulse/internal/models"
)

// ParseThresholds converts the three form values and validates them.
func ParseThresholds(green, amber, red string) (models.Thresholds, error) {
	g, err := parseDays("green", green)
	if err != nil {
		return models.Thresholds{}, err
	}
	a, err := parseDays("amber", amber)
	if err != nil {
		return models.Thresholds{}, err
	}
	r, err := parseDays("red", red)
	if err != nil {
		return models.Thresholds{}, err
	}
	t := models.Thresholds{Green: g, Amber: a, Red: r}
	return t, ValidateThresholds(t)
}

// ValidateThresholds enforces non-negative values with green <= amber <= red.
func ValidateThresholds(t models.Thresholds) error {
	if t.Green < 0 || t.Amber < 0 || t.Red < 0 {
		return invalid("thresholds", "values must be non-negative")
	}
	if t.Green > t.Amber || t.Amber > t.Red {
		return invalid("thresholds", "must satisfy green <= amber <= red, got green=%d amber=%d red=%d", t.Green, t.Amber, t.Red)
	}
	return nil
}

func parseDays(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid(field, "%q is not a whole number of days", s)
	}
	return n, nil
}
