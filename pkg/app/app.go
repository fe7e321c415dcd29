package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/archive"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
	"liyu1981.xyz/soil-monitor-service/pkg/db"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
)

// App holds every long lived component of the service, built once from a
// Config and shared by the HTTP server, the gRPC server and the CLI.
type App struct {
	Config    *config.Config
	Iot       *iot.IOT
	Completer llm.Completer
	Embedder  llm.Embedder
	Archive   archive.Store
	Index     *knowledge.Index
	Uploader  *knowledge.Uploader
}

// OpenDB opens the database named by the server config.
func OpenDB(cfg *config.Config) (*db.DB, error) {
	dialector, err := db.UseDialector(cfg.Server.DBType)
	if err != nil {
		return nil, err
	}
	return db.Open(dialector)
}

func New(ctx context.Context, cfg *config.Config, dbInstance *db.DB) (*App, error) {
	logger := common.GetLogger()

	iotCore := (&iot.IOT{
		Db:          *dbInstance,
		NodeTimeout: cfg.Monitor.NodeTimeout(),
	}).WithDefaultServices()

	completer, err := llm.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build completion client: %w", err)
	}

	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	store, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("open document archive: %w", err)
	}

	extractor, err := knowledge.NewThresholdExtractor(completer, cfg.Knowledge)
	if err != nil {
		return nil, fmt.Errorf("build threshold extractor: %w", err)
	}

	index := knowledge.NewIndex(knowledge.NewGormVectorStore(dbInstance), embedder)
	uploader := knowledge.NewUploader(index, extractor, iotCore.Profile, store, cfg.Knowledge)
	uploader.SetArchiveTimeout(cfg.Archive.Timeout())

	logger.Info("Service components ready",
		zap.String("llm_provider", completer.Provider()),
		zap.String("llm_model", completer.Model()),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Bool("archive_remote", cfg.Archive.Enabled()),
		zap.Duration("node_timeout", iotCore.NodeTimeout),
	)

	return &App{
		Config:    cfg,
		Iot:       iotCore,
		Completer: completer,
		Embedder:  embedder,
		Archive:   store,
		Index:     index,
		Uploader:  uploader,
	}, nil
}
