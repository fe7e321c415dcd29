package grpc

import (
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"liyu1981.xyz/soil-monitor-service/pkg/iot"
)

// RateLimitedMethods are keyed by the node_id field of the request.
var RateLimitedMethods = []string{
	PostReadingMethod,
	GetAlertsMethod,
	AssignCropMethod,
}

type IOTServer struct {
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
}

func (i *IOTServer) GetLimiter(nodeID string) *rate.Limiter {
	if i.RateLimiterStore == nil {
		return nil
	} else {
		return i.RateLimiterStore.GetLimiter(nodeID)
	}
}

func (i *IOTServer) CheckNodeLimiter(nodeID string) bool {
	limiter := i.GetLimiter(nodeID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

// NewServer builds a grpc server with the node rate limit interceptor, the
// sensor ingest service and the standard health service.
func (i *IOTServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.UnaryInterceptor(i.CreateRateLimitInterceptor(RateLimitedMethods)))
	s := grpc.NewServer(opts...)

	RegisterSensorIngestServer(s, i)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(SensorIngestServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	return s
}
