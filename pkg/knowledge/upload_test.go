package knowledge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/soil-monitor-service/pkg/archive"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
	"liyu1981.xyz/soil-monitor-service/pkg/document"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
	"liyu1981.xyz/soil-monitor-service/pkg/llm/mocks"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

type uploadFixture struct {
	ctrl      *gomock.Controller
	iot       *iot.IOT
	index     *knowledge.Index
	completer *mocks.MockCompleter
	archive   *archive.MemoryStore
	uploader  *knowledge.Uploader
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	common.SetTestLoggerNop()

	ctrl := gomock.NewController(t)
	dbInstance, ix := newTestIndex(t)
	iotInstance := (&iot.IOT{Db: *dbInstance}).WithDefaultServices()

	completer := mocks.NewMockCompleter(ctrl)
	cfg := config.Default().Knowledge
	ex, err := knowledge.NewThresholdExtractor(completer, cfg)
	require.NoError(t, err)

	store := archive.NewMemoryStore()
	return &uploadFixture{
		ctrl:      ctrl,
		iot:       iotInstance,
		index:     ix,
		completer: completer,
		archive:   store,
		uploader:  knowledge.NewUploader(ix, ex, iotInstance.Profile, store, cfg),
	}
}

func TestUploader_Upload(t *testing.T) {
	fx := newUploadFixture(t)
	defer fx.ctrl.Finish()
	ctx := context.Background()

	fx.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`{"moisture_min": 55, "moisture_max": 85, "ph_min": null, "nitrogen_min": 40}`, nil)

	res, err := fx.uploader.Upload(ctx, knowledge.UploadRequest{
		CropType:         "Tomato ",
		Description:      "Greenhouse tomatoes",
		Filename:         "tomato_guide.txt",
		ContentType:      "text/plain",
		Data:             []byte(words(1150, "tomato")),
		ManualThresholds: models.Thresholds{MoistureMax: f64(75), PhMin: f64(6.2)},
	})
	require.NoError(t, err)

	assert.Equal(t, "tomato_guide.txt", res.DocumentName)
	assert.Equal(t, "tomato", res.CropID)
	assert.Equal(t, 3, res.Chunks)
	assert.True(t, res.Archived)
	assert.Empty(t, res.Extraction.Failure)
	assert.Equal(t, models.Thresholds{
		MoistureMin: f64(55),
		MoistureMax: f64(75),
		PhMin:       f64(6.2),
		NitrogenMin: f64(40),
	}, res.Thresholds)

	profile, err := fx.iot.Profile.GetCropProfile("tomato")
	require.NoError(t, err)
	assert.Equal(t, []string{"tomato_guide.txt"}, profile.Documents)
	assert.Equal(t, "Greenhouse tomatoes", profile.Description)
	assert.Equal(t, res.Thresholds, profile.Thresholds)

	var cache models.ThresholdCache
	require.NoError(t, fx.iot.Db.Conn.First(&cache, "crop_id = ?", "tomato").Error)
	assert.Equal(t, iot.ThresholdSourceCropProfiles, cache.Source)
	assert.Nil(t, cache.Thresholds().NitrogenMin)
	assert.Equal(t, 75.0, *cache.Thresholds().MoistureMax)

	set, prov := fx.iot.Threshold.Resolve("TOMATO")
	assert.Equal(t, models.ProvenanceProfile("tomato"), prov)
	assert.Equal(t, 55.0, set.MoistureMin)
	assert.Equal(t, 6.2, set.PhMin)
	assert.Equal(t, models.DefaultThresholdSet.PhMax, set.PhMax)

	docs, err := fx.index.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []knowledge.DocumentInfo{{Name: "tomato_guide.txt", CropType: "tomato", Chunks: 3}}, docs)
	assert.Equal(t, 1, fx.archive.Len())
}

func TestUploader_Validation(t *testing.T) {
	fx := newUploadFixture(t)
	defer fx.ctrl.Finish()
	ctx := context.Background()

	_, err := fx.uploader.Upload(ctx, knowledge.UploadRequest{CropType: "  ", Filename: "a.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, models.ErrMissingCropType)

	_, err = fx.uploader.Upload(ctx, knowledge.UploadRequest{CropType: "rice", Data: []byte("x")})
	assert.ErrorIs(t, err, knowledge.ErrMissingDocumentName)

	_, err = fx.uploader.Upload(ctx, knowledge.UploadRequest{CropType: "rice", Filename: "a.txt"})
	assert.ErrorIs(t, err, knowledge.ErrEmptyDocument)

	_, err = fx.uploader.Upload(ctx, knowledge.UploadRequest{CropType: "rice", Filename: "a.txt", Data: []byte(" \n\t ")})
	assert.ErrorIs(t, err, knowledge.ErrEmptyDocument)
}

func TestUploader_UnsupportedFormatPersistsNothing(t *testing.T) {
	fx := newUploadFixture(t)
	defer fx.ctrl.Finish()
	ctx := context.Background()

	_, err := fx.uploader.Upload(ctx, knowledge.UploadRequest{
		DocumentName: "yield.xlsx",
		CropType:     "rice",
		Filename:     "yield.xlsx",
		ContentType:  "application/vnd.ms-excel",
		Data:         []byte("PK\x03\x04binary"),
	})
	assert.ErrorIs(t, err, document.ErrUnsupportedFormat)

	docs, err := fx.index.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	profiles, err := fx.iot.Profile.ListCropProfiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)
	assert.Equal(t, 0, fx.archive.Len())
}

func TestUploader_ExtractionFailureKeepsManualThresholds(t *testing.T) {
	fx := newUploadFixture(t)
	defer fx.ctrl.Finish()

	fx.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return("", &llm.CompletionError{Provider: "openai", Kind: llm.KindQuotaExceeded, Err: assert.AnError})

	res, err := fx.uploader.Upload(context.Background(), knowledge.UploadRequest{
		DocumentName:     "maize notes",
		CropType:         "maize",
		Filename:         "maize.md",
		Data:             []byte("Maize prefers well drained loam."),
		ManualThresholds: models.Thresholds{TempMax: f64(34)},
	})
	require.NoError(t, err)
	assert.Equal(t, llm.KindQuotaExceeded, res.Extraction.Failure)
	assert.Equal(t, models.Thresholds{TempMax: f64(34)}, res.Thresholds)
	assert.Equal(t, 1, res.Chunks)

	set, _ := fx.iot.Threshold.Resolve("maize")
	assert.Equal(t, 34.0, set.TempMax)
}

func TestUploader_ReindexAndDelete(t *testing.T) {
	fx := newUploadFixture(t)
	defer fx.ctrl.Finish()
	ctx := context.Background()

	fx.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{"ph_max": 7.2}`, nil).Times(2)

	_, err := fx.uploader.Upload(ctx, knowledge.UploadRequest{
		DocumentName: "rice_guide",
		CropType:     "rice",
		Filename:     "rice.txt",
		Data:         []byte(words(600, "rice")),
	})
	require.NoError(t, err)

	_, err = fx.index.Delete(ctx, "rice_guide")
	require.NoError(t, err)

	res, err := fx.uploader.Reindex(ctx, "rice_guide", "rice")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Chunks)
	assert.True(t, res.Archived)

	profile, err := fx.iot.Profile.GetCropProfile("rice")
	require.NoError(t, err)
	assert.Equal(t, []string{"rice_guide"}, profile.Documents)

	del, err := fx.uploader.DeleteDocument(ctx, "rice_guide")
	require.NoError(t, err)
	assert.Equal(t, 2, del.ChunksRemoved)
	assert.Equal(t, 0, fx.archive.Len())

	docs, err := fx.index.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = fx.iot.Profile.GetCropProfile("rice")
	assert.NoError(t, err)

	_, err = fx.uploader.Reindex(ctx, "rice_guide", "rice")
	assert.ErrorIs(t, err, archive.ErrNotFound)
}
