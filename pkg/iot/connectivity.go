package iot

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

type ConnectivityReport struct {
	Checked     int          `json:"checked"`
	WentOffline []string     `json:"went_offline"`
	CameOnline  []string     `json:"came_online"`
	Transitions []Transition `json:"transitions"`
}

func resolveDisconnectedTx(tx *gorm.DB, nodeID string, now time.Time) ([]Transition, error) {
	active, err := activeAlertsTx(tx, nodeID, []models.AlertType{models.AlertTypeDisconnected})
	if err != nil {
		return nil, err
	}
	var transitions []Transition
	for _, a := range active[models.AlertTypeDisconnected] {
		if err := resolveAlertTx(tx, &a, now); err != nil {
			return nil, err
		}
		transitions = append(transitions, Transition{Action: TransitionResolved, Alert: a})
	}
	return transitions, nil
}

// checkNode applies at most one status flip to a node. It re-reads the node
// under its lock so a reading that raced the sweep wins.
func (i *IOT) checkNode(nodeID string, now time.Time, timeout time.Duration) (*models.NodeStatus, []Transition, error) {
	unlock := i.lockNode(nodeID)
	defer unlock()

	var flipped *models.NodeStatus
	var transitions []Transition

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var node models.Node
		if err := tx.First(&node, "node_id = ?", nodeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if node.LastSeen.IsZero() {
			return nil
		}

		stale := now.Sub(node.LastSeen) > timeout

		switch {
		case stale && node.Status != models.NodeStatusOffline:
			if err := tx.Model(&node).Update("status", models.NodeStatusOffline).Error; err != nil {
				return err
			}
			active, err := activeAlertsTx(tx, nodeID, []models.AlertType{models.AlertTypeDisconnected})
			if err != nil {
				return err
			}
			if len(active[models.AlertTypeDisconnected]) == 0 {
				alert := models.Alert{
					NodeID:    nodeID,
					AlertType: models.AlertTypeDisconnected,
					Message:   fmt.Sprintf("%s: Node Disconnected/Offline", nodeID),
					Severity:  models.SeverityCritical,
					Parameter: "connectivity",
					Status:    models.AlertStatusActive,
					IsRead:    false,
					CreatedAt: now,
				}
				if err := tx.Create(&alert).Error; err != nil {
					return err
				}
				transitions = append(transitions, Transition{Action: TransitionCreated, Alert: alert})
			}
			flipped = common.Ptr(models.NodeStatusOffline)

		case !stale && node.Status == models.NodeStatusOffline:
			if err := tx.Model(&node).Update("status", models.NodeStatusOnline).Error; err != nil {
				return err
			}
			resolved, err := resolveDisconnectedTx(tx, nodeID, now)
			if err != nil {
				return err
			}
			transitions = append(transitions, resolved...)
			flipped = common.Ptr(models.NodeStatusOnline)
		}
		return nil
	})
	return flipped, transitions, err
}

// checkConnectivity sweeps every node once. Running it again with no new
// readings changes nothing.
func (i *IOT) checkConnectivity(now time.Time) (*ConnectivityReport, error) {
	logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTConnectivity)

	var nodeIDs []string
	if err := i.Db.Conn.Model(&models.Node{}).Order("node_id asc").Pluck("node_id", &nodeIDs).Error; err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	timeout := i.nodeTimeout()
	report := &ConnectivityReport{
		Checked:     len(nodeIDs),
		WentOffline: []string{},
		CameOnline:  []string{},
	}

	for _, nodeID := range nodeIDs {
		flipped, transitions, err := i.checkNode(nodeID, now, timeout)
		if err != nil {
			logger.Error("Connectivity check failed", zap.String("node_id", nodeID), zap.Error(err))
			return report, fmt.Errorf("check connectivity of %s: %w", nodeID, err)
		}
		if flipped == nil {
			continue
		}

		switch *flipped {
		case models.NodeStatusOffline:
			report.WentOffline = append(report.WentOffline, nodeID)
			logger.Warn("Node went offline", zap.String("node_id", nodeID))
		case models.NodeStatusOnline:
			report.CameOnline = append(report.CameOnline, nodeID)
			logger.Info("Node back online", zap.String("node_id", nodeID))
		}
		report.Transitions = append(report.Transitions, transitions...)
	}

	logger.Info("Connectivity sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("went_offline", len(report.WentOffline)),
		zap.Int("came_online", len(report.CameOnline)),
	)

	return report, nil
}

type IConnectivityImpl struct {
	iot *IOT
}

func (ic *IConnectivityImpl) CheckConnectivity(now time.Time) (*ConnectivityReport, error) {
	return ic.iot.checkConnectivity(now)
}

func (i *IOT) GetIConnectivity() IConnectivity {
	return &IConnectivityImpl{iot: i}
}
