package iot

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

type TransitionAction string

const (
	TransitionCreated  TransitionAction = "created"
	TransitionResolved TransitionAction = "resolved"
)

type Transition struct {
	Action TransitionAction `json:"action"`
	Alert  models.Alert     `json:"alert"`
}

type violation struct {
	alertType models.AlertType
	severity  models.Severity
	parameter string
	value     float64
	message   string
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// findViolations checks one reading against resolved bounds. Low and high
// checks of the same parameter are exclusive.
func findViolations(nodeID string, r *models.SensorValues, t models.ThresholdSet) []violation {
	var vs []violation

	if r.BatteryPercentage < t.BatteryMin {
		vs = append(vs, violation{
			alertType: models.AlertTypeBatteryLow,
			severity:  models.SeverityHigh,
			parameter: "battery",
			value:     r.BatteryPercentage,
			message:   fmt.Sprintf("%s: Low Battery (%s%%) - Below %s%%", nodeID, num(r.BatteryPercentage), num(t.BatteryMin)),
		})
	}

	if r.Moisture < t.MoistureMin {
		vs = append(vs, violation{
			alertType: models.AlertTypeMoistureLow,
			severity:  models.SeverityHigh,
			parameter: "moisture",
			value:     r.Moisture,
			message:   fmt.Sprintf("%s: Low Moisture (%s%%) - Below %s%%", nodeID, num(r.Moisture), num(t.MoistureMin)),
		})
	} else if r.Moisture > t.MoistureMax {
		vs = append(vs, violation{
			alertType: models.AlertTypeMoistureHigh,
			severity:  models.SeverityMedium,
			parameter: "moisture",
			value:     r.Moisture,
			message:   fmt.Sprintf("%s: Excess Moisture (%s%%) - Above %s%%", nodeID, num(r.Moisture), num(t.MoistureMax)),
		})
	}

	if r.Ph < t.PhMin {
		vs = append(vs, violation{
			alertType: models.AlertTypePhLow,
			severity:  models.SeverityMedium,
			parameter: "ph",
			value:     r.Ph,
			message:   fmt.Sprintf("%s: Soil Too Acidic (pH %s) - Below %s", nodeID, num(r.Ph), num(t.PhMin)),
		})
	} else if r.Ph > t.PhMax {
		vs = append(vs, violation{
			alertType: models.AlertTypePhHigh,
			severity:  models.SeverityMedium,
			parameter: "ph",
			value:     r.Ph,
			message:   fmt.Sprintf("%s: Soil Too Alkaline (pH %s) - Above %s", nodeID, num(r.Ph), num(t.PhMax)),
		})
	}

	if r.Temperature > t.TempMax {
		vs = append(vs, violation{
			alertType: models.AlertTypeTempHigh,
			severity:  models.SeverityHigh,
			parameter: "temperature",
			value:     r.Temperature,
			message:   fmt.Sprintf("%s: Heat Stress (%s°C) - Above %s°C", nodeID, num(r.Temperature), num(t.TempMax)),
		})
	} else if r.Temperature < t.TempMin {
		vs = append(vs, violation{
			alertType: models.AlertTypeTempLow,
			severity:  models.SeverityMedium,
			parameter: "temperature",
			value:     r.Temperature,
			message:   fmt.Sprintf("%s: Low Temperature (%s°C) - Below %s°C", nodeID, num(r.Temperature), num(t.TempMin)),
		})
	}

	return vs
}

func activeAlertsTx(tx *gorm.DB, nodeID string, types []models.AlertType) (map[models.AlertType][]models.Alert, error) {
	var alerts []models.Alert
	err := tx.
		Where("node_id = ? AND status = ? AND alert_type IN ?", nodeID, models.AlertStatusActive, types).
		Order("created_at asc").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}

	byType := make(map[models.AlertType][]models.Alert, len(alerts))
	for _, a := range alerts {
		byType[a.AlertType] = append(byType[a.AlertType], a)
	}
	return byType, nil
}

func resolveAlertTx(tx *gorm.DB, alert *models.Alert, now time.Time) error {
	alert.Status = models.AlertStatusResolved
	alert.ResolvedAt = &now
	return tx.Model(&models.Alert{}).
		Where("id = ?", alert.ID).
		Updates(map[string]any{"status": alert.Status, "resolved_at": now}).Error
}

// evaluate reconciles the violations of one reading with the node's active
// reading alerts inside a single transaction. Repeated violations are left
// untouched so at most one alert per (node, type) stays active.
func (i *IOT) evaluate(nodeID string, reading *models.SensorValues, thresholds models.ThresholdSet) ([]Transition, error) {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTAlert)

	violations := findViolations(nodeID, reading, thresholds)
	var transitions []Transition

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		transitions = transitions[:0]

		active, err := activeAlertsTx(tx, nodeID, models.ReadingAlertTypes)
		if err != nil {
			return err
		}

		current := make(map[models.AlertType]bool, len(violations))
		for _, v := range violations {
			current[v.alertType] = true
		}

		now := time.Now()
		for _, alertType := range models.ReadingAlertTypes {
			if current[alertType] {
				continue
			}
			for _, a := range active[alertType] {
				if err := resolveAlertTx(tx, &a, now); err != nil {
					return err
				}
				transitions = append(transitions, Transition{Action: TransitionResolved, Alert: a})
			}
		}

		for _, v := range violations {
			if len(active[v.alertType]) > 0 {
				continue
			}
			snapshot := thresholds
			alert := models.Alert{
				NodeID:        nodeID,
				AlertType:     v.alertType,
				Message:       v.message,
				Severity:      v.severity,
				Parameter:     v.parameter,
				CurrentValue:  common.Ptr(v.value),
				ThresholdUsed: &snapshot,
				Status:        models.AlertStatusActive,
				IsRead:        false,
				CreatedAt:     now,
			}
			if err := tx.Create(&alert).Error; err != nil {
				return err
			}
			transitions = append(transitions, Transition{Action: TransitionCreated, Alert: alert})
		}
		return nil
	})
	if err != nil {
		logger.Error("Alert evaluation failed", zap.String("node_id", nodeID), zap.Error(err))
		return nil, fmt.Errorf("evaluate alerts for %s: %w", nodeID, err)
	}

	for _, tr := range transitions {
		switch tr.Action {
		case TransitionCreated:
			logger.Info("Alert created", zap.Reflect("alert", tr.Alert))
		case TransitionResolved:
			logger.Info("Alert resolved", zap.Reflect("alert", tr.Alert))
		}
	}

	return transitions, nil
}

func (i *IOT) getNodeAlerts(nodeID string, status models.AlertStatus) ([]models.Alert, error) {
	var alerts []models.Alert
	q := i.Db.Conn.Where("node_id = ?", nodeID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at desc").Order("id desc").Find(&alerts).Error
	return alerts, err
}

type IAlertImpl struct {
	iot *IOT
}

func (ia *IAlertImpl) Evaluate(nodeID string, reading *models.SensorValues, thresholds models.ThresholdSet) ([]Transition, error) {
	return ia.iot.evaluate(nodeID, reading, thresholds)
}

func (ia *IAlertImpl) GetNodeAlerts(nodeID string, status models.AlertStatus) ([]models.Alert, error) {
	return ia.iot.getNodeAlerts(nodeID, status)
}

func (i *IOT) GetIAlert() IAlert {
	return &IAlertImpl{iot: i}
}
