package frequency

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Frequency
	}{
		{"Hourly", Hourly},
		{"daily", Daily},
		{"Every 2 days", EveryTwoDays},
		{"every-3-days", EveryThreeDays},
		{"  WEEKLY ", Weekly},
		{"Fortnightly", Fortnightly},
		{"Monthly", Monthly},
		{"Every  6 months", EverySixMonths},
		{"every-6-months", EverySixMonths},
		{"Yearly", Yearly},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnknown(t *testing.T) {
	for _, in := range []string{"", "biweekly", "every 4 days", "quarterly"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnknown, in)
	}
}

func TestLabelsRoundTrip(t *testing.T) {
	for _, f := range All() {
		fromLabel, err := Parse(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, fromLabel)

		fromSlug, err := Parse(f.Slug())
		require.NoError(t, err)
		assert.Equal(t, f, fromSlug)
	}
}

func TestFrequencyJSON(t *testing.T) {
	var payload struct {
		Frequency Frequency `json:"frequency"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"frequency":"Every 6 months"}`), &payload))
	assert.Equal(t, EverySixMonths, payload.Frequency)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"Every 6 months"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"frequency":"sometimes"}`), &payload))
}
