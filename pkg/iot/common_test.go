package iot_test

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/soil-monitor-service/pkg/db"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/iot/mocks"
)

func GetMockIOTWithMemorySqliteDialector(t *testing.T, useMockIAlert, useMockIThreshold bool) (
	*gomock.Controller,
	*iot.IOT,
	*mocks.MockIAlert,
	*mocks.MockIThreshold,
) {
	ctrl := gomock.NewController(t)

	mockIAlert := mocks.NewMockIAlert(ctrl)
	mockIThreshold := mocks.NewMockIThreshold(ctrl)

	dbInstance, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)

	iotInstance := (&iot.IOT{Db: *dbInstance}).WithDefaultServices()

	opts := iot.ServiceOpts{}
	if useMockIAlert {
		opts.Alert = mockIAlert
	}
	if useMockIThreshold {
		opts.Threshold = mockIThreshold
	}
	iotInstance.WithServices(opts)

	return ctrl, iotInstance, mockIAlert, mockIThreshold
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

func f64(v float64) *float64 { return &v }
