package iot

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

// resolve walks the cascade profile -> cache[crop] -> cache[default] ->
// hardcoded. Each tier fills core bounds per key over the hardcoded set.
// Store failures are logged and treated as a missing tier.
func (i *IOT) resolve(cropIdentifier string) (models.ThresholdSet, models.Provenance) {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTThreshold)

	cropID := models.NormalizeCropID(cropIdentifier)
	base := models.DefaultThresholdSet

	if cropID != models.DefaultCropID {
		var profile models.CropProfile
		err := i.Db.Conn.First(&profile, "crop_id = ?", cropID).Error
		switch {
		case err == nil && !profile.Thresholds.IsEmpty():
			return base.ApplyCore(profile.Thresholds).WithExtras(profile.Thresholds),
				models.ProvenanceProfile(cropID)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			logger.Warn("Crop profile lookup failed", zap.String("crop_id", cropID), zap.Error(err))
		}

		if set, ok := i.resolveFromCache(cropID); ok {
			return set, models.ProvenanceCache(cropID)
		}
	}

	if set, ok := i.resolveFromCache(models.DefaultCropID); ok {
		return set, models.ProvenanceCache(models.DefaultCropID)
	}

	return base, models.ProvenanceHardcoded
}

func (i *IOT) resolveFromCache(cropID string) (models.ThresholdSet, bool) {
	var cache models.ThresholdCache
	err := i.Db.Conn.First(&cache, "crop_id = ?", cropID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTThreshold).
				Warn("Threshold cache lookup failed", zap.String("crop_id", cropID), zap.Error(err))
		}
		return models.ThresholdSet{}, false
	}
	return models.DefaultThresholdSet.ApplyCore(cache.Thresholds()), true
}

func (i *IOT) resolveForNode(nodeID string) (models.ThresholdSet, models.Provenance) {
	cropID, err := i.getNodeCrop(nodeID)
	if err != nil && !errors.Is(err, ErrNodeNotFound) {
		common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTThreshold).
			Warn("Node crop lookup failed", zap.String("node_id", nodeID), zap.Error(err))
	}
	return i.resolve(cropID)
}

type IThresholdImpl struct {
	iot *IOT
}

func (it *IThresholdImpl) Resolve(cropIdentifier string) (models.ThresholdSet, models.Provenance) {
	return it.iot.resolve(cropIdentifier)
}

func (it *IThresholdImpl) ResolveForNode(nodeID string) (models.ThresholdSet, models.Provenance) {
	return it.iot.resolveForNode(nodeID)
}

func (i *IOT) GetIThreshold() IThreshold {
	return &IThresholdImpl{iot: i}
}
