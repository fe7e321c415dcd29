package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"liyu1981.xyz/soil-monitor-service/pkg/archive"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
	"liyu1981.xyz/soil-monitor-service/pkg/document"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

var ErrMissingDocumentName = errors.New("document_name is required")

type UploadRequest struct {
	DocumentName string
	CropType     string
	Description  string
	Filename     string
	ContentType  string
	Data         []byte
	// ManualThresholds override extracted values key by key.
	ManualThresholds models.Thresholds
}

type UploadResult struct {
	DocumentName string              `json:"document_name"`
	CropID       string              `json:"crop_id"`
	Chunks       int                 `json:"chunks"`
	Extraction   ExtractionResult    `json:"extraction"`
	Thresholds   models.Thresholds   `json:"thresholds"`
	Profile      *models.CropProfile `json:"profile"`
	Archived     bool                `json:"archived"`
}

type DeleteResult struct {
	DocumentName  string `json:"document"`
	ChunksRemoved int    `json:"chunks_removed"`
}

type Uploader struct {
	index     *Index
	extractor *ThresholdExtractor
	profiles  iot.IProfile
	archive   archive.Store

	chunkWords     int
	overlapWords   int
	archiveTimeout time.Duration

	docLocks common.KeyedMutex
}

func NewUploader(index *Index, extractor *ThresholdExtractor, profiles iot.IProfile, store archive.Store, cfg config.KnowledgeConfig) *Uploader {
	return &Uploader{
		index:          index,
		extractor:      extractor,
		profiles:       profiles,
		archive:        store,
		chunkWords:     cfg.ChunkWords,
		overlapWords:   cfg.OverlapWords,
		archiveTimeout: 30 * time.Second,
	}
}

func (u *Uploader) SetArchiveTimeout(d time.Duration) {
	if d > 0 {
		u.archiveTimeout = d
	}
}

// Upload extracts the document text, archives the original, then indexes the
// chunks and merges the extracted thresholds into the crop profile in
// parallel. Nothing is persisted when the text cannot be extracted.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	logger := common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeUpload)

	crop := strings.TrimSpace(req.CropType)
	if crop == "" {
		return nil, models.ErrMissingCropType
	}
	name := strings.TrimSpace(req.DocumentName)
	if name == "" {
		name = strings.TrimSpace(req.Filename)
	}
	if name == "" {
		return nil, ErrMissingDocumentName
	}
	if len(req.Data) == 0 {
		return nil, ErrEmptyDocument
	}

	unlock := u.docLocks.Lock(name)
	defer unlock()

	kind := document.DetectKind(req.Filename, req.ContentType)
	text, err := document.Extract(req.Data, kind)
	if err != nil {
		logger.Warn("Document extraction failed", zap.String("document_name", name), zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	archived := u.store(ctx, archive.Object{
		DocumentName: name,
		Filename:     req.Filename,
		ContentType:  req.ContentType,
		Data:         req.Data,
	})

	result, err := u.run(ctx, name, crop, req.Description, text, req.ManualThresholds)
	if err != nil {
		return nil, err
	}
	result.Archived = archived

	logger.Info("Document uploaded",
		zap.String("document_name", name),
		zap.String("crop_id", result.CropID),
		zap.Int("chunks", result.Chunks),
		zap.Bool("archived", archived),
	)
	return result, nil
}

// Reindex re-runs both halves of the pipeline from the archived original.
func (u *Uploader) Reindex(ctx context.Context, documentName, crop string) (*UploadResult, error) {
	if strings.TrimSpace(crop) == "" {
		return nil, models.ErrMissingCropType
	}
	if u.archive == nil {
		return nil, archive.ErrNotFound
	}

	unlock := u.docLocks.Lock(documentName)
	defer unlock()

	actx, cancel := context.WithTimeout(ctx, u.archiveTimeout)
	obj, err := u.archive.Get(actx, documentName)
	cancel()
	if err != nil {
		return nil, err
	}

	text, err := document.Extract(obj.Data, document.DetectKind(obj.Filename, obj.ContentType))
	if err != nil {
		return nil, err
	}

	result, err := u.run(ctx, documentName, strings.TrimSpace(crop), "", text, models.Thresholds{})
	if err != nil {
		return nil, err
	}
	result.Archived = true
	return result, nil
}

// DeleteDocument removes every chunk and the archived original. The crop
// profile keeps its thresholds.
func (u *Uploader) DeleteDocument(ctx context.Context, documentName string) (*DeleteResult, error) {
	unlock := u.docLocks.Lock(documentName)
	defer unlock()

	n, err := u.index.Delete(ctx, documentName)
	if err != nil {
		return nil, err
	}

	if u.archive != nil {
		actx, cancel := context.WithTimeout(ctx, u.archiveTimeout)
		defer cancel()
		if err := u.archive.Delete(actx, documentName); err != nil {
			common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeUpload).
				Warn("Failed to delete archived original", zap.String("document_name", documentName), zap.Error(err))
		}
	}

	return &DeleteResult{DocumentName: documentName, ChunksRemoved: n}, nil
}

func (u *Uploader) store(ctx context.Context, obj archive.Object) bool {
	if u.archive == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, u.archiveTimeout)
	defer cancel()
	if err := u.archive.Put(ctx, obj); err != nil {
		common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeUpload).
			Warn("Failed to archive original", zap.String("document_name", obj.DocumentName), zap.Error(err))
		return false
	}
	return true
}

func (u *Uploader) run(ctx context.Context, name, crop, description, text string, manual models.Thresholds) (*UploadResult, error) {
	result := &UploadResult{DocumentName: name, CropID: models.NormalizeCropID(crop)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		chunks := document.Chunk(text, u.chunkWords, u.overlapWords)
		n, err := u.index.Upsert(gctx, name, chunks, crop)
		if err != nil {
			return err
		}
		result.Chunks = n
		return nil
	})

	g.Go(func() error {
		var extraction ExtractionResult
		if u.extractor != nil {
			extraction = u.extractor.Extract(gctx, text, crop)
		}
		merged := extraction.Thresholds.Merge(manual)

		profile, err := u.profiles.SaveCropProfile(crop, merged, name, description)
		if err != nil {
			return err
		}
		if err := u.profiles.CacheThresholds(crop, merged, iot.ThresholdSourceCropProfiles); err != nil {
			return err
		}

		result.Extraction = extraction
		result.Thresholds = merged
		result.Profile = profile
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
