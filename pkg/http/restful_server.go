package http

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
)

const (
	defaultSearchResults  = 3
	defaultMaxUploadBytes = 32 << 20
)

type RestfulServer struct {
	Server           *gin.Engine
	Iot              *iot.IOT
	Index            *knowledge.Index
	Uploader         *knowledge.Uploader
	Completer        llm.Completer
	RateLimiterStore *iot.RateLimiterStore

	SearchResults  int
	MaxUploadBytes int64
}

func (rs *RestfulServer) GetLimiter(nodeID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(nodeID)
	}
}

func (rs *RestfulServer) CheckNodeLimiter(nodeID string) bool {
	limiter := rs.GetLimiter(nodeID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(nodeID string, nodeRate float64, nodeBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(nodeID, rate.Limit(nodeRate), nodeBurst)
}

func (rs *RestfulServer) searchResults() int {
	if rs.SearchResults <= 0 {
		return defaultSearchResults
	}
	return rs.SearchResults
}

func (rs *RestfulServer) maxUploadBytes() int64 {
	if rs.MaxUploadBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return rs.MaxUploadBytes
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.POST("/ingest", rs.PostReading)
	rs.Server.POST("/connectivity/check", rs.CheckConnectivity)

	nodes := rs.Server.Group("/nodes/:node_id")
	{
		nodes.GET("/alerts", rs.GetAlerts)
		nodes.GET("/readings", rs.GetReadings)
		nodes.GET("/crop", rs.GetNodeCrop)
		nodes.POST("/crop", rs.AssignCrop)
		nodes.POST("/limiter", rs.PostLimiter)
	}

	documents := rs.Server.Group("/documents")
	{
		documents.POST("", rs.UploadDocument)
		documents.GET("", rs.ListDocuments)
		documents.DELETE("/:document_name", rs.DeleteDocument)
		documents.POST("/:document_name/reindex", rs.ReindexDocument)
	}
	rs.Server.POST("/knowledge/search", rs.SearchKnowledge)

	crops := rs.Server.Group("/crops")
	{
		crops.GET("", rs.ListCrops)
		crops.GET("/:crop_id", rs.GetCrop)
		crops.DELETE("/:crop_id", rs.DeleteCrop)
		crops.PUT("/:crop_id/thresholds", rs.UpdateCropThresholds)
	}

	rs.Server.GET("/ai/status", rs.AIStatus)
}
