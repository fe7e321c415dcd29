package models

import (
	"errors"
	"time"
)

var (
	ErrMissingNodeID   = errors.New("node_id is required")
	ErrMissingCropType = errors.New("crop_type is required")
)

type NodeStatus string

const (
	NodeStatusOnline  NodeStatus = "online"
	NodeStatusOffline NodeStatus = "offline"
)

type AlertType string

const (
	AlertTypeBatteryLow   AlertType = "battery_low"
	AlertTypeMoistureLow  AlertType = "moisture_low"
	AlertTypeMoistureHigh AlertType = "moisture_high"
	AlertTypePhLow        AlertType = "ph_low"
	AlertTypePhHigh       AlertType = "ph_high"
	AlertTypeTempHigh     AlertType = "temp_high"
	AlertTypeTempLow      AlertType = "temp_low"
	AlertTypeDisconnected AlertType = "disconnected"
)

// ReadingAlertTypes are the alert types derived from a single reading.
// Disconnected alerts belong to the connectivity sweep.
var ReadingAlertTypes = []AlertType{
	AlertTypeBatteryLow,
	AlertTypeMoistureLow,
	AlertTypeMoistureHigh,
	AlertTypePhLow,
	AlertTypePhHigh,
	AlertTypeTempHigh,
	AlertTypeTempLow,
}

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// SensorValues is one sample as reported by a soil node.
type SensorValues struct {
	BatteryPercentage float64 `json:"battery_percentage"`
	Moisture          float64 `json:"moisture"`
	Temperature       float64 `json:"temperature"`
	Ph                float64 `json:"ph"`
	Nitrogen          float64 `json:"nitrogen"`
	Phosphorus        float64 `json:"phosphorus"`
	Potassium         float64 `json:"potassium"`
	AirTemperature    float64 `json:"air_temperature"`
	Humidity          float64 `json:"humidity"`
}

type LatestReading struct {
	SensorValues
	Timestamp time.Time `json:"timestamp"`
}

type Node struct {
	NodeID         string `gorm:"primaryKey"`
	NodeName       string
	CropID         string
	Status         NodeStatus `gorm:"type:varchar(10);check:status IN ('online','offline')"`
	LastSeen       time.Time
	CropUpdatedAt  *time.Time
	LatestReadings *LatestReading `gorm:"serializer:json"`

	Readings []Reading `gorm:"foreignKey:NodeID;references:NodeID"`
}

type Reading struct {
	ID     uint   `gorm:"primaryKey"`
	NodeID string `gorm:"index"`
	SensorValues
	Timestamp time.Time
}

type Alert struct {
	ID            uint        `gorm:"primaryKey"`
	NodeID        string      `gorm:"index:idx_alert_node_status"`
	AlertType     AlertType   `gorm:"type:varchar(20)"`
	Message       string
	Severity      Severity `gorm:"type:varchar(10)"`
	Parameter     string
	CurrentValue  *float64
	ThresholdUsed *ThresholdSet `gorm:"serializer:json"`
	Status        AlertStatus   `gorm:"type:varchar(10);index:idx_alert_node_status"`
	IsRead        bool
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

type CropProfile struct {
	CropID        string `gorm:"primaryKey"`
	CropName      string
	Description   string
	Thresholds    Thresholds `gorm:"serializer:json"`
	Documents     []string   `gorm:"serializer:json"`
	DocumentCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	IsActive      bool
}

// ThresholdCache is the flattened copy of the six core bounds, table crop_configs.
type ThresholdCache struct {
	CropID      string `gorm:"primaryKey"`
	MoistureMin *float64
	MoistureMax *float64
	PhMin       *float64
	PhMax       *float64
	TempMin     *float64
	TempMax     *float64
	Source      string
	UpdatedAt   time.Time
}

func (ThresholdCache) TableName() string {
	return "crop_configs"
}

// Thresholds returns the cached bounds as a partial record.
func (c *ThresholdCache) Thresholds() Thresholds {
	return Thresholds{
		MoistureMin: c.MoistureMin,
		MoistureMax: c.MoistureMax,
		PhMin:       c.PhMin,
		PhMax:       c.PhMax,
		TempMin:     c.TempMin,
		TempMax:     c.TempMax,
	}
}

func NewThresholdCache(cropID string, t Thresholds, source string) ThresholdCache {
	core := t.Core()
	return ThresholdCache{
		CropID:      cropID,
		MoistureMin: core.MoistureMin,
		MoistureMax: core.MoistureMax,
		PhMin:       core.PhMin,
		PhMax:       core.PhMax,
		TempMin:     core.TempMin,
		TempMax:     core.TempMax,
		Source:      source,
	}
}

type KnowledgeChunk struct {
	ID           string `gorm:"primaryKey"`
	DocumentName string `gorm:"index"`
	ChunkIndex   int
	TotalChunks  int
	CropTag      string `gorm:"index"`
	Text         string
	Embedding    []float32 `gorm:"serializer:json"`
	CreatedAt    time.Time
}
