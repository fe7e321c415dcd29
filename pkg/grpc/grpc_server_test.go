package grpc

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/db"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
	_ "liyu1981.xyz/soil-monitor-service/pkg/testing"

	"liyu1981.xyz/soil-monitor-service/pkg/iot/mocks"
)

const bufSize = 1024 * 1024

func newIOT(t *testing.T) *iot.IOT {
	dbInstance, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	return (&iot.IOT{Db: *dbInstance}).WithDefaultServices()
}

func startServer(t *testing.T, iotServer *IOTServer) *grpc.ClientConn {
	listener := bufconn.Listen(bufSize)

	server := iotServer.NewServer()
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func startTestServer(t *testing.T) *SensorIngestClient {
	common.SetTestLoggerNop()
	return NewSensorIngestClient(startServer(t, &IOTServer{Iot: newIOT(t)}))
}

func startTestServerWithInterceptor(t *testing.T, limiterStore *iot.RateLimiterStore) *SensorIngestClient {
	common.SetTestLoggerNop()
	return NewSensorIngestClient(startServer(t, &IOTServer{Iot: newIOT(t), RateLimiterStore: limiterStore}))
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func success(r *structpb.Struct) bool {
	return r.GetFields()["success"].GetBoolValue()
}

func message(r *structpb.Struct) string {
	return r.GetFields()["message"].GetStringValue()
}

func TestPostReadingAndGetAlerts(t *testing.T) {
	client := startTestServer(t)
	ctx := context.Background()

	nodeID := "node_" + uuid.NewString()

	r, err := client.PostReading(ctx, mustStruct(t, map[string]any{
		"node_id":            nodeID,
		"moisture":           10.0,
		"temperature":        45.0,
		"ph":                 6.5,
		"battery_percentage": 80.0,
	}))
	require.NoError(t, err)
	require.True(t, success(r), message(r))
	assert.Equal(t, "Data received successfully", message(r))
	assert.Equal(t, nodeID, r.GetFields()["node_id"].GetStringValue())

	resp, err := client.GetAlerts(ctx, mustStruct(t, map[string]any{"node_id": nodeID, "status": "active"}))
	require.NoError(t, err)
	require.True(t, success(resp), message(resp))
	assert.Equal(t, 2.0, resp.GetFields()["total"].GetNumberValue())

	alertTypes := map[string]bool{}
	for _, v := range resp.GetFields()["alerts"].GetListValue().GetValues() {
		alertTypes[v.GetStructValue().GetFields()["alert_type"].GetStringValue()] = true
	}
	assert.True(t, alertTypes[string(models.AlertTypeMoistureLow)])
	assert.True(t, alertTypes[string(models.AlertTypeTempHigh)])
}

func TestAssignCrop(t *testing.T) {
	common.SetTestLoggerNop()
	iotCore := newIOT(t)
	client := NewSensorIngestClient(startServer(t, &IOTServer{Iot: iotCore}))
	ctx := context.Background()

	_, err := iotCore.Profile.SaveCropProfile("maize", models.Thresholds{MoistureMin: common.Ptr(42.0)}, "maize_guide", "")
	require.NoError(t, err)

	// unknown node
	r, err := client.AssignCrop(ctx, mustStruct(t, map[string]any{"node_id": "node_9", "crop_type": "maize"}))
	require.NoError(t, err)
	assert.False(t, success(r))
	assert.Contains(t, message(r), iot.ErrNodeNotFound.Error())

	_, err = client.PostReading(ctx, mustStruct(t, map[string]any{"node_id": "node_9", "moisture": 50.0}))
	require.NoError(t, err)

	r, err = client.AssignCrop(ctx, mustStruct(t, map[string]any{"node_id": "node_9", "crop_type": ""}))
	require.NoError(t, err)
	assert.False(t, success(r))
	assert.True(t, strings.Contains(message(r), "validation error"))

	r, err = client.AssignCrop(ctx, mustStruct(t, map[string]any{"node_id": "node_9", "crop_type": "Maize"}))
	require.NoError(t, err)
	require.True(t, success(r), message(r))
	assert.Equal(t, "maize", r.GetFields()["active_crop"].GetStringValue())
	assert.Equal(t, 42.0, r.GetFields()["thresholds"].GetStructValue().GetFields()["moisture_min"].GetNumberValue())
}

func TestHealth(t *testing.T) {
	common.SetTestLoggerNop()
	conn := startServer(t, &IOTServer{Iot: newIOT(t)})

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: SensorIngestServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestRateLimitInterceptor_PostReading(t *testing.T) {
	limiterStore := iot.NewRateLimiterStore(2, 2) // Allow 2 req/sec per node
	client := startTestServerWithInterceptor(t, limiterStore)

	ctx := context.Background()
	nodeID := "node_" + uuid.NewString()

	req := mustStruct(t, map[string]any{
		"node_id":            nodeID,
		"moisture":           50.0,
		"temperature":        25.0,
		"ph":                 6.5,
		"battery_percentage": 90.0,
	})

	// First 2 requests should pass
	for i := range 2 {
		_, err := client.PostReading(ctx, req)
		require.NoError(t, err, "expected request %d to pass", i+1)
	}

	// 3rd request should fail immediately
	_, err := client.PostReading(ctx, req)
	require.Error(t, err, "expected third request to be rate limited")

	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error")
	require.Equal(t, codes.ResourceExhausted, st.Code(), "expected ResourceExhausted code")

	// limiter updates are not rate limited themselves
	r, err := client.PostLimiter(ctx, mustStruct(t, map[string]any{"node_id": nodeID, "rate": 3.0, "burst": 2.0}))
	require.NoError(t, err)
	require.True(t, success(r), message(r))

	// Should pass again
	_, err = client.PostReading(ctx, req)
	require.NoError(t, err, "expected request after new limiter to pass")
}

func TestPostLimiter_EdgeCases(t *testing.T) {
	ctx := context.Background()

	{
		client := startTestServerWithInterceptor(t, iot.NewRateLimiterStore(2, 2))

		r, err := client.PostLimiter(ctx, mustStruct(t, map[string]any{"node_id": "node_1"}))
		assert.NoError(t, err)
		assert.False(t, success(r))
		assert.True(t, strings.Contains(message(r), "validation error"))

		r, err = client.PostLimiter(ctx, mustStruct(t, map[string]any{"node_id": "node_1", "rate": 1.0, "burst": 0.0}))
		assert.NoError(t, err)
		assert.False(t, success(r))
	}

	{
		// without a store nothing changes
		client := startTestServer(t)
		r, err := client.PostLimiter(ctx, mustStruct(t, map[string]any{"node_id": "node_1", "rate": 1.0, "burst": 1.0}))
		assert.NoError(t, err)
		assert.False(t, success(r))
		assert.Contains(t, message(r), "No effect")
	}
}

func startTestServerWithMocks(t *testing.T, useMockIReading, useMockIAlert bool) (
	*gomock.Controller,
	*SensorIngestClient,
	*mocks.MockIReading,
	*mocks.MockIAlert,
) {
	common.SetTestLoggerNop()
	ctrl := gomock.NewController(t)

	iMockReading := mocks.NewMockIReading(ctrl)
	iMockAlert := mocks.NewMockIAlert(ctrl)

	iotCore := newIOT(t)
	opts := iot.ServiceOpts{}
	if useMockIReading {
		opts.Reading = iMockReading
	}
	if useMockIAlert {
		opts.Alert = iMockAlert
	}
	iotCore.WithServices(opts)

	client := NewSensorIngestClient(startServer(t, &IOTServer{Iot: iotCore}))
	return ctrl, client, iMockReading, iMockAlert
}

func TestPostReading_EdgeCases(t *testing.T) {
	ctx := context.Background()

	{
		client := startTestServer(t)

		// empty node_id will fail validation
		r, err := client.PostReading(ctx, mustStruct(t, map[string]any{"moisture": 40.0}))
		assert.NoError(t, err)
		assert.False(t, success(r), "expected PostReading to fail")
		assert.True(t, strings.Contains(message(r), "validation error"), "expected PostReading to fail with validation error")

		// wrong type will fail decoding
		r, err = client.PostReading(ctx, mustStruct(t, map[string]any{"node_id": "node_1", "moisture": "wet"}))
		assert.NoError(t, err)
		assert.False(t, success(r))
		assert.True(t, strings.Contains(message(r), "validation error"))
	}

	{
		ctrl, client, mockIReading, _ := startTestServerWithMocks(t, true, false)
		defer ctrl.Finish()

		// internal error should fail too
		mockIReading.EXPECT().
			IngestReading(gomock.Any()).
			Return(nil, fmt.Errorf("test error")).
			Times(1)
		r, err := client.PostReading(ctx, mustStruct(t, map[string]any{"node_id": "node_1"}))
		assert.NoError(t, err)
		assert.False(t, success(r), "expected PostReading to fail")
		assert.True(t, strings.Contains(message(r), "test error"), "expected PostReading to fail with test error")
	}
}

func TestGetAlerts_EdgeCases(t *testing.T) {
	ctx := context.Background()

	{
		client := startTestServer(t)

		// empty node_id will fail validation
		r, err := client.GetAlerts(ctx, mustStruct(t, map[string]any{"node_id": ""}))
		assert.NoError(t, err)
		assert.False(t, success(r), "expected GetAlerts to fail")
		assert.True(t, strings.Contains(message(r), "validation error"), "expected GetAlerts to fail with validation error")

		r, err = client.GetAlerts(ctx, mustStruct(t, map[string]any{"node_id": "node_1", "status": "bogus"}))
		assert.NoError(t, err)
		assert.False(t, success(r))

		// unknown node has no alerts
		r, err = client.GetAlerts(ctx, mustStruct(t, map[string]any{"node_id": "node_1"}))
		assert.NoError(t, err)
		assert.True(t, success(r))
		assert.Equal(t, 0.0, r.GetFields()["total"].GetNumberValue())
	}

	{
		ctrl, client, _, mockIAlert := startTestServerWithMocks(t, false, true)
		defer ctrl.Finish()

		nodeID := uuid.NewString()

		// internal error should fail too
		mockIAlert.EXPECT().
			GetNodeAlerts(gomock.Eq(nodeID), gomock.Any()).
			Return(nil, fmt.Errorf("test error")).
			Times(1)
		r, err := client.GetAlerts(ctx, mustStruct(t, map[string]any{"node_id": nodeID}))
		assert.NoError(t, err)
		assert.False(t, success(r), "expected GetAlerts to fail")
		assert.True(t, strings.Contains(message(r), "test error"), "expected GetAlerts to fail with test error")
	}
}
