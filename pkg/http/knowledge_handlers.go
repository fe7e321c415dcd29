package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
	"liyu1981.xyz/soil-monitor-service/pkg/models"

	"github.com/gin-gonic/gin"

	z "github.com/Oudwins/zog"
)

type UploadForm struct {
	DocumentName string `form:"document_name"`
	CropType     string `form:"crop_type"`
	Description  string `form:"description"`
	// Thresholds is an optional JSON object of manual bounds.
	Thresholds string `form:"thresholds"`
}

var uploadFormSchema = z.Struct(z.Shape{
	"CropType": z.String().Required(z.Message("crop_type is required")),
})

func (rs *RestfulServer) UploadDocument(c *gin.Context) {
	if rs.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge base not available"})
		return
	}

	var form UploadForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := uploadFormSchema.Validate(&form); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	var manual models.Thresholds
	if form.Thresholds != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(form.Thresholds), &raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid thresholds: %v", err)})
			return
		}
		manual = models.ThresholdsFromMap(raw)
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > rs.maxUploadBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := rs.Uploader.Upload(c.Request.Context(), knowledge.UploadRequest{
		DocumentName:     form.DocumentName,
		CropType:         form.CropType,
		Description:      form.Description,
		Filename:         header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Data:             data,
		ManualThresholds: manual,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Document processed successfully",
		"status":  "success",
		"result":  result,
	})
}

func (rs *RestfulServer) ListDocuments(c *gin.Context) {
	if rs.Index == nil {
		c.JSON(http.StatusOK, gin.H{"documents": []knowledge.DocumentInfo{}})
		return
	}
	docs, err := rs.Index.ListDocuments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if docs == nil {
		docs = []knowledge.DocumentInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (rs *RestfulServer) DeleteDocument(c *gin.Context) {
	if rs.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge base not available"})
		return
	}
	name := c.Param("document_name")

	result, err := rs.Uploader.DeleteDocument(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("Document '%s' deleted", result.DocumentName),
		"status":         "success",
		"document":       result.DocumentName,
		"chunks_removed": result.ChunksRemoved,
	})
}

type ReindexRequest struct {
	CropType string `json:"crop_type"`
}

var reindexRequestSchema = z.Struct(z.Shape{
	"CropType": z.String().Required(z.Message("crop_type is required")),
})

func (rs *RestfulServer) ReindexDocument(c *gin.Context) {
	if rs.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge base not available"})
		return
	}
	name := c.Param("document_name")

	var req ReindexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := reindexRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	result, err := rs.Uploader.Reindex(c.Request.Context(), name, req.CropType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document reindexed", "status": "success", "result": result})
}

type SearchRequest struct {
	Query    string `json:"query"`
	CropType string `json:"crop_type"`
	NResults int    `json:"n_results"`
}

var searchRequestSchema = z.Struct(z.Shape{
	"Query":    z.String().Required(z.Message("query is required")),
	"NResults": z.Int().GTE(0),
})

func (rs *RestfulServer) SearchKnowledge(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := searchRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}
	if req.NResults == 0 {
		req.NResults = rs.searchResults()
	}

	results := []knowledge.SearchResult{}
	if rs.Index != nil {
		found, err := rs.Index.Search(c.Request.Context(), req.Query, req.NResults, req.CropType)
		if err != nil {
			respondError(c, err)
			return
		}
		if found != nil {
			results = found
		}
	}

	c.JSON(http.StatusOK, gin.H{"query": req.Query, "results": results})
}

func (rs *RestfulServer) ListCrops(c *gin.Context) {
	profiles, err := rs.Iot.Profile.ListCropProfiles()
	if err != nil {
		respondError(c, err)
		return
	}
	if profiles == nil {
		profiles = []models.CropProfile{}
	}
	c.JSON(http.StatusOK, gin.H{"crops": profiles, "total": len(profiles)})
}

func (rs *RestfulServer) GetCrop(c *gin.Context) {
	cropID := c.Param("crop_id")

	profile, err := rs.Iot.Profile.GetCropProfile(cropID)
	if err != nil {
		if errorStatus(err) == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Crop '%s' not found", cropID)})
			return
		}
		respondError(c, err)
		return
	}

	thresholds, provenance := rs.Iot.Threshold.Resolve(profile.CropID)
	c.JSON(http.StatusOK, gin.H{"crop": profile, "resolved_thresholds": thresholds, "source": provenance})
}

func (rs *RestfulServer) DeleteCrop(c *gin.Context) {
	cropID := c.Param("crop_id")

	if err := rs.Iot.Profile.DeleteCropProfile(cropID); err != nil {
		if errorStatus(err) == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Crop '%s' not found", cropID)})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Crop '%s' deleted", models.NormalizeCropID(cropID))})
}

// UpdateCropThresholds merges the posted bounds into the crop profile and
// refreshes the cached core bounds.
func (rs *RestfulServer) UpdateCropThresholds(c *gin.Context) {
	cropID := c.Param("crop_id")

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	thresholds := models.ThresholdsFromMap(raw)
	if thresholds.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no known threshold keys", "allowed": models.ThresholdKeys})
		return
	}

	profile, err := rs.Iot.Profile.UpdateThresholds(cropID, thresholds)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := rs.Iot.Profile.CacheThresholds(profile.CropID, profile.Thresholds, iot.ThresholdSourceManual); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Thresholds updated", "crop": profile})
}

func (rs *RestfulServer) AIStatus(c *gin.Context) {
	if rs.Completer == nil {
		c.JSON(http.StatusOK, llm.Status{Message: "No language model configured"})
		return
	}
	c.JSON(http.StatusOK, llm.CheckStatus(c.Request.Context(), rs.Completer))
}
