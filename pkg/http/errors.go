package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/archive"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/document"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

var badRequestErrors = []error{
	models.ErrMissingNodeID,
	models.ErrMissingCropType,
	knowledge.ErrEmptyQuery,
	knowledge.ErrEmptyDocument,
	knowledge.ErrMissingDocumentName,
}

var notFoundErrors = []error{
	iot.ErrNodeNotFound,
	iot.ErrCropProfileNotFound,
	archive.ErrNotFound,
}

func errorStatus(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	if errors.Is(err, document.ErrUnsupportedFormat) {
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		common.GetLoggerWith(common.LoggerNameRestfulServer).
			Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
