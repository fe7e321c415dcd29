package iot_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
	_ "liyu1981.xyz/soil-monitor-service/pkg/testing"
)

func TestSaveCropProfile_MergeNeverShrinks(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	first, err := iotObj.Profile.SaveCropProfile("Sweet Corn",
		models.Thresholds{MoistureMin: f64(40), PhMin: f64(5.8)}, "corn_a.pdf", "field corn guide")
	require.NoError(t, err)
	assert.Equal(t, "sweet_corn", first.CropID)
	assert.Equal(t, "Sweet Corn", first.CropName)
	assert.Equal(t, 1, first.DocumentCount)

	second, err := iotObj.Profile.SaveCropProfile("sweet corn",
		models.Thresholds{PhMin: f64(6.0), TempMax: f64(32)}, "corn_b.pdf", "")
	require.NoError(t, err)

	assert.Equal(t, []string{models.KeyMoistureMin, models.KeyPhMin, models.KeyTempMax}, second.Thresholds.Keys())
	assert.Equal(t, 6.0, *second.Thresholds.PhMin)
	assert.Equal(t, []string{"corn_a.pdf", "corn_b.pdf"}, second.Documents)
	assert.Equal(t, 2, second.DocumentCount)
	assert.Equal(t, "field corn guide", second.Description)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Millisecond)

	third, err := iotObj.Profile.SaveCropProfile("SWEET CORN", models.Thresholds{}, "corn_a.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"corn_a.pdf", "corn_b.pdf"}, third.Documents)
	assert.Len(t, third.Thresholds.Keys(), 3)
}

func TestSaveCropProfile_PreservesIsActive(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	_, err := iotObj.Profile.SaveCropProfile("rice", models.Thresholds{}, "rice.pdf", "")
	require.NoError(t, err)
	require.NoError(t, iotObj.Db.Conn.Model(&models.CropProfile{}).
		Where("crop_id = ?", "rice").Update("is_active", true).Error)

	p, err := iotObj.Profile.UpdateThresholds("Rice", models.Thresholds{MoistureMax: f64(90)})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{"rice.pdf"}, p.Documents)
}

func TestGetAndListCropProfiles(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	_, err := iotObj.Profile.GetCropProfile("tomato")
	assert.True(t, errors.Is(err, iot.ErrCropProfileNotFound))

	for _, crop := range []string{"tomato", "Basil", "carrot"} {
		_, err := iotObj.Profile.SaveCropProfile(crop, models.Thresholds{}, crop+".txt", "")
		require.NoError(t, err)
	}

	p, err := iotObj.Profile.GetCropProfile(" Tomato ")
	require.NoError(t, err)
	assert.Equal(t, "tomato", p.CropID)

	profiles, err := iotObj.Profile.ListCropProfiles()
	require.NoError(t, err)
	names := common.Mapper(profiles, func(p models.CropProfile) string { return p.CropName })
	assert.Equal(t, []string{"Basil", "Carrot", "Tomato"}, names)
}

func TestDeleteCropProfile_PurgesCache(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	_, err := iotObj.Profile.SaveCropProfile("okra", models.Thresholds{PhMin: f64(6)}, "okra.pdf", "")
	require.NoError(t, err)
	require.NoError(t, iotObj.Profile.CacheThresholds("okra", models.Thresholds{PhMin: f64(6)}, "crop_profiles"))

	require.NoError(t, iotObj.Profile.DeleteCropProfile("Okra"))

	var count int64
	require.NoError(t, iotObj.Db.Conn.Model(&models.ThresholdCache{}).Where("crop_id = ?", "okra").Count(&count).Error)
	assert.Equal(t, int64(0), count)

	_, prov := iotObj.Threshold.Resolve("okra")
	assert.Equal(t, models.ProvenanceHardcoded, prov)

	err = iotObj.Profile.DeleteCropProfile("okra")
	assert.True(t, errors.Is(err, iot.ErrCropProfileNotFound))
}

func TestCacheThresholds_MergesCoreOnly(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	require.NoError(t, iotObj.Profile.CacheThresholds("pea", models.Thresholds{PhMin: f64(6)}, "a"))
	require.NoError(t, iotObj.Profile.CacheThresholds("pea", models.Thresholds{PhMax: f64(7), NitrogenMin: f64(3)}, "b"))

	var row models.ThresholdCache
	require.NoError(t, iotObj.Db.Conn.First(&row, "crop_id = ?", "pea").Error)
	assert.Equal(t, []string{models.KeyPhMin, models.KeyPhMax}, row.Thresholds().Keys())
	assert.Equal(t, "b", row.Source)
}

func TestAssignCrop(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	nodeID := "node_" + uuid.NewString()

	_, err := iotObj.Profile.AssignCrop(nodeID, "tomato")
	assert.True(t, errors.Is(err, iot.ErrNodeNotFound))

	crop, err := iotObj.Profile.GetNodeCrop(nodeID)
	assert.True(t, errors.Is(err, iot.ErrNodeNotFound))
	assert.Equal(t, models.DefaultCropID, crop)

	_, err = iotObj.Reading.IngestReading(&iot.ReadingInput{NodeID: nodeID, SensorValues: *compliantReading()})
	require.NoError(t, err)

	_, err = iotObj.Profile.SaveCropProfile("Tomato", models.Thresholds{MoistureMin: f64(45), HumidityMax: f64(80)}, "t.pdf", "")
	require.NoError(t, err)

	assignment, err := iotObj.Profile.AssignCrop(nodeID, " Tomato")
	require.NoError(t, err)
	assert.Equal(t, "tomato", assignment.CropID)
	assert.Equal(t, 45.0, *assignment.Thresholds.MoistureMin)

	crop, err = iotObj.Profile.GetNodeCrop(nodeID)
	require.NoError(t, err)
	assert.Equal(t, "tomato", crop)

	var node models.Node
	require.NoError(t, iotObj.Db.Conn.First(&node, "node_id = ?", nodeID).Error)
	assert.NotNil(t, node.CropUpdatedAt)

	var row models.ThresholdCache
	require.NoError(t, iotObj.Db.Conn.First(&row, "crop_id = ?", "tomato").Error)
	assert.Equal(t, iot.ThresholdSourceCropProfiles, row.Source)
	assert.Equal(t, []string{models.KeyMoistureMin}, row.Thresholds().Keys())
}
