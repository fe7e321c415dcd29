package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The sensor ingest service carries google.protobuf.Struct payloads so field
// names match the JSON bodies of the HTTP API.
const SensorIngestServiceName = "soilmonitor.v1.SensorIngest"

const (
	PostReadingMethod = "/" + SensorIngestServiceName + "/PostReading"
	GetAlertsMethod   = "/" + SensorIngestServiceName + "/GetAlerts"
	AssignCropMethod  = "/" + SensorIngestServiceName + "/AssignCrop"
	PostLimiterMethod = "/" + SensorIngestServiceName + "/PostLimiter"
)

type SensorIngestServer interface {
	PostReading(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAlerts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssignCrop(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostLimiter(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(SensorIngestServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SensorIngestServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SensorIngestServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var sensorIngestServiceDesc = grpc.ServiceDesc{
	ServiceName: SensorIngestServiceName,
	HandlerType: (*SensorIngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PostReading", Handler: unaryHandler(PostReadingMethod, SensorIngestServer.PostReading)},
		{MethodName: "GetAlerts", Handler: unaryHandler(GetAlertsMethod, SensorIngestServer.GetAlerts)},
		{MethodName: "AssignCrop", Handler: unaryHandler(AssignCropMethod, SensorIngestServer.AssignCrop)},
		{MethodName: "PostLimiter", Handler: unaryHandler(PostLimiterMethod, SensorIngestServer.PostLimiter)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "soilmonitor/v1/sensor_ingest.proto",
}

func RegisterSensorIngestServer(s grpc.ServiceRegistrar, srv SensorIngestServer) {
	s.RegisterService(&sensorIngestServiceDesc, srv)
}

type SensorIngestClient struct {
	cc grpc.ClientConnInterface
}

func NewSensorIngestClient(cc grpc.ClientConnInterface) *SensorIngestClient {
	return &SensorIngestClient{cc: cc}
}

func (c *SensorIngestClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SensorIngestClient) PostReading(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostReadingMethod, in, opts...)
}

func (c *SensorIngestClient) GetAlerts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetAlertsMethod, in, opts...)
}

func (c *SensorIngestClient) AssignCrop(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, AssignCropMethod, in, opts...)
}

func (c *SensorIngestClient) PostLimiter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostLimiterMethod, in, opts...)
}
