package domain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDDM(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		isLat bool
		want  string
	}{
		{"kolkata latitude", 22.5726, true, "22°34.3560'N"},
		{"kolkata longitude", 88.3639, false, "88°21.8340'E"},
		{"sydney latitude", -33.8688, true, "33°52.1280'S"},
		{"sydney longitude", 151.2093, false, "151°12.5580'E"},
		{"western longitude", -151.2093, false, "151°12.5580'W"},
		{"zero latitude", 0, true, "0°0.0000'N"},
		{"zero longitude", 0, false, "0°0.0000'E"},
		{"small southern", -0.5, true, "0°30.0000'S"},
		{"north pole", 90, true, "90°0.0000'N"},
		{"antimeridian west", -180, false, "180°0.0000'W"},
		{"binary tie rounds down", 1.0000125, true, "1°0.0007'N"},
		{"binary tie with degrees", 12.3456125, true, "12°20.7367'N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDDM(tt.value, tt.isLat))
		})
	}
}

func TestParseDDM(t *testing.T) {
	v, err := ParseDDM("88°21.8340'E")
	require.NoError(t, err)
	assert.InDelta(t, 88.3639, v, 1e-9)

	v, err = ParseDDM("33°52.1280'S")
	require.NoError(t, err)
	assert.InDelta(t, -33.8688, v, 1e-9)

	_, err = ParseDDM("22.5726")
	require.Error(t, err)
}

func TestFormatDDM_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	check := func(v float64, isLat bool) {
		got, err := ParseDDM(FormatDDM(v, isLat))
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(got-v), 1e-4, "value %v formatted as %s", v, FormatDDM(v, isLat))
	}

	for i := 0; i < 5000; i++ {
		check(rng.Float64()*180-90, true)
		check(rng.Float64()*360-180, false)
	}
	for _, v := range []float64{-90, -89.99999, -0.00001, 0, 0.00001, 45.999999, 90} {
		check(v, true)
	}
	for _, v := range []float64{-180, -179.999999, 0, 179.999999, 180} {
		check(v, false)
	}
}
