package iot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

type ReadingInput struct {
	NodeID   string
	NodeName string
	// CropType is optional; an empty value keeps the node's current crop.
	CropType string
	models.SensorValues
	// Timestamp of the sample; zero means time of receipt.
	Timestamp time.Time
}

type IngestResult struct {
	Reading     models.Reading      `json:"reading"`
	Thresholds  models.ThresholdSet `json:"thresholds"`
	Provenance  models.Provenance   `json:"provenance"`
	Transitions []Transition        `json:"transitions"`
	CameOnline  bool                `json:"came_online"`
}

func defaultNodeName(nodeID string) string {
	parts := strings.Split(nodeID, "_")
	return "Soil Node " + parts[len(parts)-1]
}

func (i *IOT) ingestReading(input *ReadingInput) (*IngestResult, error) {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTReading)

	nodeID := strings.TrimSpace(input.NodeID)
	if nodeID == "" {
		return nil, models.ErrMissingNodeID
	}

	if i.Threshold == nil {
		return nil, fmt.Errorf("threshold service not available")
	}
	if i.Alert == nil {
		return nil, fmt.Errorf("alert service not available")
	}

	unlock := i.lockNode(nodeID)
	defer unlock()

	now := time.Now()
	ts := input.Timestamp
	if ts.IsZero() {
		ts = now
	}

	result := &IngestResult{}
	reading := models.Reading{
		NodeID:       nodeID,
		SensorValues: input.SensorValues,
		Timestamp:    ts,
	}

	logger.Info("Received reading for node", zap.String("node_id", nodeID), zap.Reflect("reading", input.SensorValues))

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var node models.Node
		err := tx.First(&node, "node_id = ?", nodeID).Error
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return err
		}

		if isNew {
			node = models.Node{NodeID: nodeID, NodeName: defaultNodeName(nodeID), CropID: models.DefaultCropID}
		}
		wasOffline := !isNew && node.Status == models.NodeStatusOffline

		if input.NodeName != "" {
			node.NodeName = input.NodeName
		}
		if input.CropType != "" {
			node.CropID = models.NormalizeCropID(input.CropType)
		}
		node.Status = models.NodeStatusOnline
		node.LastSeen = now
		node.LatestReadings = &models.LatestReading{SensorValues: input.SensorValues, Timestamp: ts}

		if err := tx.Save(&node).Error; err != nil {
			return err
		}
		if err := tx.Create(&reading).Error; err != nil {
			return err
		}

		if wasOffline {
			result.CameOnline = true
			resolved, err := resolveDisconnectedTx(tx, nodeID, now)
			if err != nil {
				return err
			}
			result.Transitions = append(result.Transitions, resolved...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store reading for %s: %w", nodeID, err)
	}

	logger.Info("Stored reading for node", zap.String("node_id", nodeID), zap.Uint("reading_id", reading.ID))

	result.Reading = reading
	result.Thresholds, result.Provenance = i.Threshold.ResolveForNode(nodeID)

	transitions, err := i.Alert.Evaluate(nodeID, &reading.SensorValues, result.Thresholds)
	if err != nil {
		return nil, err
	}
	result.Transitions = append(result.Transitions, transitions...)

	return result, nil
}

func (i *IOT) getNodeReadings(nodeID string, limit int) ([]models.Reading, error) {
	var readings []models.Reading
	q := i.Db.Conn.Where("node_id = ?", nodeID).Order("timestamp desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&readings).Error
	return readings, err
}

type IReadingImpl struct {
	iot *IOT
}

func (ir *IReadingImpl) IngestReading(input *ReadingInput) (*IngestResult, error) {
	return ir.iot.ingestReading(input)
}

func (ir *IReadingImpl) GetNodeReadings(nodeID string, limit int) ([]models.Reading, error) {
	return ir.iot.getNodeReadings(nodeID, limit)
}

func (i *IOT) GetIReading() IReading {
	return &IReadingImpl{iot: i}
}
