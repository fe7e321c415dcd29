package http

import (
	"net/http"
	"strconv"
	"time"

	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/models"

	"github.com/gin-gonic/gin"

	z "github.com/Oudwins/zog"
)

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type IngestRequest struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	CropType string `json:"crop_type"`
	models.SensorValues
	Timestamp *time.Time `json:"timestamp"`
}

var ingestRequestSchema = z.Struct(z.Shape{
	"NodeID": z.String().Required(z.Message("node_id is required")),
})

func (rs *RestfulServer) PostReading(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := ingestRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	if !rs.CheckNodeLimiter(req.NodeID) {
		c.Status(http.StatusTooManyRequests)
		return
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

	result, err := rs.Iot.Reading.IngestReading(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Data received successfully",
		"node_id": result.Reading.NodeID,
		"data":    result,
	})
}

type AlertsQuery struct {
	Status string
}

var alertsQuerySchema = z.Struct(z.Shape{
	"Status": z.String().OneOf([]string{string(models.AlertStatusActive), string(models.AlertStatusResolved)}),
})

func (rs *RestfulServer) GetAlerts(c *gin.Context) {
	nodeID := c.Param("node_id")

	if !rs.CheckNodeLimiter(nodeID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	query := AlertsQuery{Status: c.Query("status")}
	if errs := alertsQuerySchema.Validate(&query); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	alerts, err := rs.Iot.Alert.GetNodeAlerts(nodeID, models.AlertStatus(query.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, gin.H{"node_id": nodeID, "alerts": alerts, "total": len(alerts)})
}

func (rs *RestfulServer) GetReadings(c *gin.Context) {
	nodeID := c.Param("node_id")

	if !rs.CheckNodeLimiter(nodeID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	readings, err := rs.Iot.Reading.GetNodeReadings(nodeID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}

	c.JSON(http.StatusOK, gin.H{"node_id": nodeID, "readings": readings})
}

func (rs *RestfulServer) GetNodeCrop(c *gin.Context) {
	nodeID := c.Param("node_id")

	if !rs.CheckNodeLimiter(nodeID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	cropID, err := rs.Iot.Profile.GetNodeCrop(nodeID)
	if err != nil {
		respondError(c, err)
		return
	}
	thresholds, provenance := rs.Iot.Threshold.Resolve(cropID)

	c.JSON(http.StatusOK, gin.H{
		"node_id":     nodeID,
		"active_crop": cropID,
		"thresholds":  thresholds,
		"source":      provenance,
	})
}

type AssignCropRequest struct {
	CropType string `json:"crop_type"`
}

var assignCropRequestSchema = z.Struct(z.Shape{
	"CropType": z.String().Required(z.Message("crop_type is required")),
})

func (rs *RestfulServer) AssignCrop(c *gin.Context) {
	nodeID := c.Param("node_id")

	if !rs.CheckNodeLimiter(nodeID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var req AssignCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := assignCropRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	assignment, err := rs.Iot.Profile.AssignCrop(nodeID, req.CropType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Crop assigned to node",
		"node_id":     assignment.NodeID,
		"active_crop": assignment.CropID,
		"thresholds":  assignment.Thresholds,
	})
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required().GT(0),
	"Burst": z.Int().Required().GT(0),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	nodeID := c.Param("node_id")

	var req LimiterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := limiterRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	rs.SetLimiter(nodeID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) CheckConnectivity(c *gin.Context) {
	report, err := rs.Iot.Connectivity.CheckConnectivity(time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connectivity check completed", "report": report})
}
