package iot_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
	_ "liyu1981.xyz/soil-monitor-service/pkg/testing"
)

func TestCheckConnectivity_OfflineThenIdempotent(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	now := time.Now()
	stale := "node_" + uuid.NewString()
	fresh := "node_" + uuid.NewString()
	require.NoError(t, iotObj.Db.Conn.Create(&models.Node{NodeID: stale, Status: models.NodeStatusOnline, LastSeen: now.Add(-11 * time.Minute)}).Error)
	require.NoError(t, iotObj.Db.Conn.Create(&models.Node{NodeID: fresh, Status: models.NodeStatusOnline, LastSeen: now.Add(-time.Minute)}).Error)

	report, err := iotObj.Connectivity.CheckConnectivity(now)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, []string{stale}, report.WentOffline)
	assert.Empty(t, report.CameOnline)
	require.Len(t, report.Transitions, 1)

	alerts, err := iotObj.Alert.GetNodeAlerts(stale, models.AlertStatusActive)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeDisconnected, alerts[0].AlertType)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "connectivity", alerts[0].Parameter)
	assert.Nil(t, alerts[0].ThresholdUsed)

	again, err := iotObj.Connectivity.CheckConnectivity(now)
	require.NoError(t, err)
	assert.Empty(t, again.WentOffline)
	assert.Empty(t, again.CameOnline)
	assert.Empty(t, again.Transitions)

	all, err := iotObj.Alert.GetNodeAlerts(stale, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCheckConnectivity_BackOnline(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	now := time.Now()
	nodeID := "node_" + uuid.NewString()
	require.NoError(t, iotObj.Db.Conn.Create(&models.Node{NodeID: nodeID, Status: models.NodeStatusOnline, LastSeen: now.Add(-20 * time.Minute)}).Error)

	_, err := iotObj.Connectivity.CheckConnectivity(now)
	require.NoError(t, err)

	// a reading landed without going through ingestion
	require.NoError(t, iotObj.Db.Conn.Model(&models.Node{}).Where("node_id = ?", nodeID).Update("last_seen", now).Error)

	report, err := iotObj.Connectivity.CheckConnectivity(now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{nodeID}, report.CameOnline)

	active, err := iotObj.Alert.GetNodeAlerts(nodeID, models.AlertStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	resolved, err := iotObj.Alert.GetNodeAlerts(nodeID, models.AlertStatusResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.NotNil(t, resolved[0].ResolvedAt)
}

func TestCheckConnectivity_CustomTimeout(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	iotObj.NodeTimeout = time.Minute

	now := time.Now()
	nodeID := "node_" + uuid.NewString()
	require.NoError(t, iotObj.Db.Conn.Create(&models.Node{NodeID: nodeID, Status: models.NodeStatusOnline, LastSeen: now.Add(-2 * time.Minute)}).Error)

	report, err := iotObj.Connectivity.CheckConnectivity(now)
	require.NoError(t, err)
	assert.Equal(t, []string{nodeID}, report.WentOffline)
}

func TestCheckConnectivity_DoesNotDuplicateDisconnected(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _, _ := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer ctrl.Finish()

	now := time.Now()
	nodeID := "node_" + uuid.NewString()
	require.NoError(t, iotObj.Db.Conn.Create(&models.Node{NodeID: nodeID, Status: models.NodeStatusOnline, LastSeen: now.Add(-time.Hour)}).Error)
	require.NoError(t, iotObj.Db.Conn.Create(&models.Alert{
		NodeID:    nodeID,
		AlertType: models.AlertTypeDisconnected,
		Severity:  models.SeverityCritical,
		Status:    models.AlertStatusActive,
	}).Error)

	report, err := iotObj.Connectivity.CheckConnectivity(now)
	require.NoError(t, err)
	assert.Equal(t, []string{nodeID}, report.WentOffline)
	assert.Empty(t, report.Transitions)

	active, err := iotObj.Alert.GetNodeAlerts(nodeID, models.AlertStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
