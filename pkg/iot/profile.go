package iot

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

const (
	ThresholdSourceCropProfiles = "crop_profiles"
	ThresholdSourceManual       = "manual"
)

type CropAssignment struct {
	NodeID     string            `json:"node_id"`
	CropID     string            `json:"active_crop"`
	Thresholds models.Thresholds `json:"thresholds"`
}

// saveCropProfile merges into the profile for crop: thresholds only gain or
// overwrite keys, documents only gain names, created_at and is_active survive.
func (i *IOT) saveCropProfile(crop string, thresholds models.Thresholds, documentName, description string) (*models.CropProfile, error) {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTProfile)

	cropID := models.NormalizeCropID(crop)
	var saved models.CropProfile

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var existing models.CropProfile
		err := tx.First(&existing, "crop_id = ?", cropID).Error
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return err
		}

		now := time.Now()
		if isNew {
			existing = models.CropProfile{CropID: cropID, CreatedAt: now}
		}

		if name := models.CropDisplayName(crop); name != "" {
			existing.CropName = name
		}
		if existing.CropName == "" {
			existing.CropName = models.CropDisplayName(cropID)
		}
		if description != "" {
			existing.Description = description
		}
		existing.Thresholds = existing.Thresholds.Merge(thresholds)
		if documentName != "" && !slices.Contains(existing.Documents, documentName) {
			existing.Documents = append(existing.Documents, documentName)
		}
		if existing.Documents == nil {
			existing.Documents = []string{}
		}
		existing.DocumentCount = len(existing.Documents)
		existing.UpdatedAt = now

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		saved = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save crop profile %s: %w", cropID, err)
	}

	logger.Info("Saved crop profile",
		zap.String("crop_id", cropID),
		zap.Strings("thresholds", saved.Thresholds.Keys()),
		zap.Int("document_count", saved.DocumentCount),
	)

	return &saved, nil
}

func (i *IOT) updateThresholds(crop string, thresholds models.Thresholds) (*models.CropProfile, error) {
	return i.saveCropProfile(crop, thresholds, "", "")
}

func (i *IOT) getCropProfile(crop string) (*models.CropProfile, error) {
	cropID := models.NormalizeCropID(crop)

	var profile models.CropProfile
	err := i.Db.Conn.First(&profile, "crop_id = ?", cropID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCropProfileNotFound, cropID)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (i *IOT) listCropProfiles() ([]models.CropProfile, error) {
	var profiles []models.CropProfile
	err := i.Db.Conn.Order("crop_name asc").Order("crop_id asc").Find(&profiles).Error
	return profiles, err
}

// deleteCropProfile also purges the cached core thresholds of the crop.
func (i *IOT) deleteCropProfile(crop string) error {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTProfile)

	cropID := models.NormalizeCropID(crop)
	var deleted int64

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("crop_id = ?", cropID).Delete(&models.CropProfile{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Where("crop_id = ?", cropID).Delete(&models.ThresholdCache{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete crop profile %s: %w", cropID, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrCropProfileNotFound, cropID)
	}

	logger.Info("Deleted crop profile", zap.String("crop_id", cropID))
	return nil
}

func cacheThresholdsTx(tx *gorm.DB, cropID string, thresholds models.Thresholds, source string) error {
	core := thresholds.Core()
	if core.IsEmpty() {
		return nil
	}

	var existing models.ThresholdCache
	err := tx.First(&existing, "crop_id = ?", cropID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	row := models.NewThresholdCache(cropID, existing.Thresholds().Merge(core), source)
	row.UpdatedAt = time.Now()

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "crop_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (i *IOT) cacheThresholds(crop string, thresholds models.Thresholds, source string) error {
	cropID := models.NormalizeCropID(crop)
	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		return cacheThresholdsTx(tx, cropID, thresholds, source)
	})
	if err != nil {
		return fmt.Errorf("cache thresholds %s: %w", cropID, err)
	}

	common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTThreshold).
		Info("Cached crop thresholds", zap.String("crop_id", cropID), zap.String("source", source))
	return nil
}

// assignCrop points a node at a crop and refreshes the cache from the
// profile so readings resolve against it immediately.
func (i *IOT) assignCrop(nodeID, crop string) (*CropAssignment, error) {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTProfile)

	unlock := i.lockNode(nodeID)
	defer unlock()

	cropID := models.NormalizeCropID(crop)
	assignment := &CropAssignment{NodeID: nodeID, CropID: cropID}

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Node{}).
			Where("node_id = ?", nodeID).
			Updates(map[string]any{"crop_id": cropID, "crop_updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
		}

		var profile models.CropProfile
		err := tx.First(&profile, "crop_id = ?", cropID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		assignment.Thresholds = profile.Thresholds
		return cacheThresholdsTx(tx, cropID, profile.Thresholds, ThresholdSourceCropProfiles)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Assigned crop to node", zap.String("node_id", nodeID), zap.String("crop_id", cropID))
	return assignment, nil
}

func (i *IOT) getNodeCrop(nodeID string) (string, error) {
	var node models.Node
	err := i.Db.Conn.Select("node_id", "crop_id").First(&node, "node_id = ?", nodeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCropID, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if err != nil {
		return models.DefaultCropID, err
	}
	return models.NormalizeCropID(node.CropID), nil
}

type IProfileImpl struct {
	iot *IOT
}

func (ip *IProfileImpl) SaveCropProfile(crop string, thresholds models.Thresholds, documentName, description string) (*models.CropProfile, error) {
	return ip.iot.saveCropProfile(crop, thresholds, documentName, description)
}

func (ip *IProfileImpl) UpdateThresholds(crop string, thresholds models.Thresholds) (*models.CropProfile, error) {
	return ip.iot.updateThresholds(crop, thresholds)
}

func (ip *IProfileImpl) GetCropProfile(crop string) (*models.CropProfile, error) {
	return ip.iot.getCropProfile(crop)
}

func (ip *IProfileImpl) ListCropProfiles() ([]models.CropProfile, error) {
	return ip.iot.listCropProfiles()
}

func (ip *IProfileImpl) DeleteCropProfile(crop string) error {
	return ip.iot.deleteCropProfile(crop)
}

func (ip *IProfileImpl) CacheThresholds(crop string, thresholds models.Thresholds, source string) error {
	return ip.iot.cacheThresholds(crop, thresholds, source)
}

func (ip *IProfileImpl) AssignCrop(nodeID, crop string) (*CropAssignment, error) {
	return ip.iot.assignCrop(nodeID, crop)
}

func (ip *IProfileImpl) GetNodeCrop(nodeID string) (string, error) {
	return ip.iot.getNodeCrop(nodeID)
}

func (i *IOT) GetIProfile() IProfile {
	return &IProfileImpl{iot: i}
}
