package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

// decode maps a Struct payload onto a json tagged request.
func decode(in *structpb.Struct, out any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// toValue turns any json encodable value into something structpb accepts.
func toValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(raw, &out)
	return out, err
}

func reply(success bool, message string, fields map[string]any) (*structpb.Struct, error) {
	m := map[string]any{"success": success, "message": message}
	for k, v := range fields {
		m[k] = v
	}
	return structpb.NewStruct(m)
}

func failed(message string) (*structpb.Struct, error) {
	return reply(false, message, nil)
}

func internalFailed(err error) (*structpb.Struct, error) {
	common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Request failed", zap.Error(err))
	return failed(err.Error())
}

func validationFailed(issues any) (*structpb.Struct, error) {
	return failed(fmt.Sprintf("validation error: %v", issues))
}

func validateNodeID(nodeID *string) z.ZogIssueList {
	var nodeIdValidator = z.String().Min(1).Required()
	return nodeIdValidator.Validate(nodeID)
}

type readingRequest struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	CropType string `json:"crop_type"`
	models.SensorValues
	Timestamp *time.Time `json:"timestamp"`
}

func (s *IOTServer) PostReading(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req readingRequest
	if err := decode(in, &req); err != nil {
		return validationFailed(err)
	}
	if err := validateNodeID(&req.NodeID); err != nil {
		return validationFailed(err)
	}

	input := &iot.ReadingInput{
		NodeID:       req.NodeID,
		NodeName:     req.NodeName,
		CropType:     req.CropType,
		SensorValues: req.SensorValues,
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	result, err := s.Iot.Reading.IngestReading(input)
	if err != nil {
		return internalFailed(err)
	}

	data, err := toValue(result)
	if err != nil {
		return internalFailed(err)
	}
	return reply(true, "Data received successfully", map[string]any{
		"node_id": result.Reading.NodeID,
		"data":    data,
	})
}

type alertsRequest struct {
	NodeID string `json:"node_id"`
	Status string `json:"status"`
}

var alertsRequestValidator = z.Struct(z.Shape{
	"Status": z.String().OneOf([]string{string(models.AlertStatusActive), string(models.AlertStatusResolved)}),
})

func alertValue(a models.Alert) any {
	v := map[string]any{
		"id":         a.ID,
		"node_id":    a.NodeID,
		"alert_type": string(a.AlertType),
		"message":    a.Message,
		"severity":   string(a.Severity),
		"parameter":  a.Parameter,
		"status":     string(a.Status),
		"is_read":    a.IsRead,
		"created_at": a.CreatedAt.Format(time.RFC3339),
	}
	if a.CurrentValue != nil {
		v["current_value"] = *a.CurrentValue
	}
	if a.ResolvedAt != nil {
		v["resolved_at"] = a.ResolvedAt.Format(time.RFC3339)
	}
	return v
}

func (s *IOTServer) GetAlerts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req alertsRequest
	if err := decode(in, &req); err != nil {
		return validationFailed(err)
	}
	if err := validateNodeID(&req.NodeID); err != nil {
		return validationFailed(err)
	}
	if err := alertsRequestValidator.Validate(&req); err != nil {
		return validationFailed(err)
	}

	alerts, err := s.Iot.Alert.GetNodeAlerts(req.NodeID, models.AlertStatus(req.Status))
	if err != nil {
		return internalFailed(err)
	}

	return reply(true, "OK", map[string]any{
		"node_id": req.NodeID,
		"alerts":  common.Mapper(alerts, alertValue),
		"total":   len(alerts),
	})
}

type assignCropRequest struct {
	NodeID   string `json:"node_id"`
	CropType string `json:"crop_type"`
}

func (s *IOTServer) AssignCrop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req assignCropRequest
	if err := decode(in, &req); err != nil {
		return validationFailed(err)
	}
	if err := validateNodeID(&req.NodeID); err != nil {
		return validationFailed(err)
	}
	var cropValidator = z.String().Min(1).Required()
	if err := cropValidator.Validate(&req.CropType); err != nil {
		return validationFailed(err)
	}

	assignment, err := s.Iot.Profile.AssignCrop(req.NodeID, req.CropType)
	if err != nil {
		return internalFailed(err)
	}

	thresholds, err := toValue(assignment.Thresholds)
	if err != nil {
		return internalFailed(err)
	}
	return reply(true, "OK", map[string]any{
		"node_id":     assignment.NodeID,
		"active_crop": assignment.CropID,
		"thresholds":  thresholds,
	})
}

type limiterRequest struct {
	NodeID string  `json:"node_id"`
	Rate   float64 `json:"rate"`
	Burst  int     `json:"burst"`
}

func (s *IOTServer) PostLimiter(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req limiterRequest
	if err := decode(in, &req); err != nil {
		return validationFailed(err)
	}
	if err := validateNodeID(&req.NodeID); err != nil {
		return validationFailed(err)
	}

	var rateValidator = z.Float64().Required().GT(0)
	if err := rateValidator.Validate(&req.Rate); err != nil {
		return validationFailed(err)
	}

	var burstValidator = z.Int().Required().GT(0)
	if err := burstValidator.Validate(&req.Burst); err != nil {
		return validationFailed(err)
	}

	if s.RateLimiterStore == nil {
		return failed("RateLimiterStore is not used. No effect.")
	}

	s.RateLimiterStore.SetLimiter(req.NodeID, rate.Limit(req.Rate), req.Burst)
	return reply(true, "OK", nil)
}
