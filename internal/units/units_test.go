package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	t.Parallel()
	for _, u := range ValidUnits {
		assert.True(t, IsValid(u), u)
	}
	assert.False(t, IsValid("knots"))
	assert.False(t, IsValid(""))
	assert.Equal(t, "mps, mph, kmph, kph", GetValidUnitsString())
}

func TestConvertSpeed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		unit string
		want float64
	}{
		{MPS, 10},
		{MPH, 22.369362920544},
		{KMPH, 36},
		{KPH, 36},
		{"bogus", 10},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConvertSpeed(10, tt.unit), 1e-9)
		})
	}
}

func TestFormatLapTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{-3, "-"},
		{1.5, "0:01.500"},
		{59.9996, "1:00.000"},
		{83.456, "1:23.456"},
		{3725.0004, "62:05.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatLapTime(tt.seconds), "%v", tt.seconds)
	}
}
