package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestNormalizeCropID(t *testing.T) {
	cases := map[string]string{
		"Tomato":          "tomato",
		"tomato ":         "tomato",
		" TOMATO":         "tomato",
		"Sweet  Corn":     "sweet_corn",
		"sweet\tcorn":     "sweet_corn",
		"":                DefaultCropID,
		"   ":             DefaultCropID,
		"already_normal":  "already_normal",
		"Default":         DefaultCropID,
		" Chili Pepper  ": "chili_pepper",
	}
	for in, want := range cases {
		got := NormalizeCropID(in)
		assert.Equal(t, want, got, "input %q", in)
		assert.Equal(t, got, NormalizeCropID(got), "normalization must be idempotent for %q", in)
	}
}

func TestCropDisplayName(t *testing.T) {
	assert.Equal(t, "Sweet Corn", CropDisplayName("sweet corn"))
	assert.Equal(t, "Sweet Corn", CropDisplayName("SWEET_CORN"))
	assert.Equal(t, "Tomato", CropDisplayName(" tomato "))
	assert.Equal(t, "", CropDisplayName(""))
}

func TestThresholds_GetSet(t *testing.T) {
	var th Thresholds
	_, ok := th.Get(KeyPhMin)
	assert.False(t, ok)

	require.NoError(t, th.Set(KeyPhMin, 6.0))
	v, ok := th.Get(KeyPhMin)
	assert.True(t, ok)
	assert.Equal(t, 6.0, v)

	assert.Error(t, th.Set("battery_min", 1))
	assert.Equal(t, []string{KeyPhMin}, th.Keys())
}

func TestThresholds_MergeNeverErases(t *testing.T) {
	base := Thresholds{MoistureMin: f64(20), PhMax: f64(7.0)}
	overlay := Thresholds{MoistureMin: f64(25), NitrogenMin: f64(10)}

	merged := base.Merge(overlay)

	assert.Equal(t, 25.0, *merged.MoistureMin)
	assert.Equal(t, 7.0, *merged.PhMax)
	assert.Equal(t, 10.0, *merged.NitrogenMin)
	assert.Equal(t, 20.0, *base.MoistureMin, "merge must not mutate the receiver")

	merged = merged.Merge(Thresholds{})
	assert.Equal(t, []string{KeyMoistureMin, KeyPhMax, KeyNitrogenMin}, merged.Keys())
}

func TestThresholds_JSONOmitsAbsent(t *testing.T) {
	th := Thresholds{MoistureMin: f64(20)}
	b, err := json.Marshal(th)
	require.NoError(t, err)
	assert.JSONEq(t, `{"moisture_min":20}`, string(b))
}

func TestThresholdsFromMap_DropsNullsAndUnknown(t *testing.T) {
	th := ThresholdsFromMap(map[string]any{
		"moisture_min": 20.0,
		"moisture_max": nil,
		"ph_min":       "6",
		"sunlight_min": 4.0,
	})
	assert.Equal(t, []string{KeyMoistureMin}, th.Keys())
	assert.Equal(t, map[string]float64{"moisture_min": 20}, th.ToMap())
}

func TestThresholdSet_ApplyCorePerKey(t *testing.T) {
	set := DefaultThresholdSet.ApplyCore(Thresholds{PhMin: f64(6.0), NitrogenMin: f64(5)})

	assert.Equal(t, 6.0, set.PhMin)
	assert.Equal(t, DefaultThresholdSet.PhMax, set.PhMax)
	assert.Equal(t, DefaultThresholdSet.MoistureMin, set.MoistureMin)
	assert.Equal(t, DefaultThresholdSet.MoistureMax, set.MoistureMax)
	assert.Equal(t, DefaultThresholdSet.TempMin, set.TempMin)
	assert.Equal(t, DefaultThresholdSet.TempMax, set.TempMax)
	assert.Nil(t, set.NitrogenMin)

	set = set.WithExtras(Thresholds{NitrogenMin: f64(5)})
	require.NotNil(t, set.NitrogenMin)
	assert.Equal(t, 5.0, *set.NitrogenMin)
}

func TestThresholdCache_RoundTrip(t *testing.T) {
	c := NewThresholdCache("tomato", Thresholds{TempMax: f64(30), HumidityMax: f64(90)}, "crop_profiles")
	assert.Equal(t, "crop_configs", c.TableName())
	assert.Equal(t, []string{KeyTempMax}, c.Thresholds().Keys())
}
