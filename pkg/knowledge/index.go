package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

const (
	GeneralCropType      = "general"
	DefaultSearchResults = 4
)

var (
	ErrEmptyQuery    = errors.New("query is empty")
	ErrEmptyDocument = errors.New("document has no text")

	errLengthMismatch = errors.New("ids, texts, metadatas and embeddings differ in length")
)

var chunkNamespace = uuid.MustParse("6f1c7a52-3f0e-4a8e-9d57-0b0d6c1e2a41")

type SearchResult struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

type DocumentInfo struct {
	Name     string `json:"name"`
	CropType string `json:"crop_type"`
	Chunks   int    `json:"chunks"`
}

type Index struct {
	store    VectorStore
	embedder llm.Embedder
}

func NewIndex(store VectorStore, embedder llm.Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// ChunkID is stable for (document, index) so a re-upload overwrites the
// same rows.
func ChunkID(documentName string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s_%d", documentName, index))).String()
}

// CropTag normalizes the crop a chunk is tagged with. Untagged chunks are
// general knowledge.
func CropTag(crop string) string {
	if strings.TrimSpace(crop) == "" {
		return GeneralCropType
	}
	return models.NormalizeCropID(crop)
}

// Upsert embeds and stores every chunk of a document, then drops chunks left
// over from a longer earlier version.
func (ix *Index) Upsert(ctx context.Context, documentName string, chunks []string, cropTag string) (int, error) {
	logger := common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeIndex)

	if len(chunks) == 0 {
		return 0, ErrEmptyDocument
	}
	tag := CropTag(cropTag)

	embeddings, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", documentName, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embed %s: %w", documentName, errLengthMismatch)
	}

	ids := make([]string, len(chunks))
	metas := make([]Metadata, len(chunks))
	for i := range chunks {
		ids[i] = ChunkID(documentName, i)
		metas[i] = Metadata{
			DocumentName: documentName,
			CropType:     tag,
			ChunkIndex:   i,
			TotalChunks:  len(chunks),
		}
	}

	if err := ix.store.Upsert(ctx, ids, chunks, metas, embeddings); err != nil {
		return 0, fmt.Errorf("store chunks of %s: %w", documentName, err)
	}

	stale, err := ix.documentIDs(ctx, documentName, func(m Metadata) bool { return m.ChunkIndex >= len(chunks) })
	if err != nil {
		return 0, fmt.Errorf("list stale chunks of %s: %w", documentName, err)
	}
	if err := ix.store.Delete(ctx, stale); err != nil {
		return 0, fmt.Errorf("remove stale chunks of %s: %w", documentName, err)
	}

	logger.Info("Indexed document",
		zap.String("document_name", documentName),
		zap.String("crop_type", tag),
		zap.Int("chunks", len(chunks)),
		zap.Int("stale_removed", len(stale)),
	)
	return len(chunks), nil
}

// Search never fails on store or embedding errors; it logs them and returns
// no results.
func (ix *Index) Search(ctx context.Context, query string, k int, cropTag string) ([]SearchResult, error) {
	logger := common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeIndex)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultSearchResults
	}

	var filter Filter
	if strings.TrimSpace(cropTag) != "" {
		filter.CropType = CropTag(cropTag)
	}

	results := []SearchResult{}

	embeddings, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil || len(embeddings) != 1 {
		logger.Warn("Knowledge search embedding failed", zap.String("query", query), zap.Error(err))
		return results, nil
	}

	matches, err := ix.store.Query(ctx, embeddings[0], k, filter)
	if err != nil {
		logger.Warn("Knowledge search failed", zap.String("query", query), zap.Error(err))
		return results, nil
	}

	for _, m := range matches {
		results = append(results, SearchResult{Text: m.Text, Metadata: m.Metadata, Distance: m.Distance})
	}
	return results, nil
}

// Delete removes every chunk of the document and reports how many went.
func (ix *Index) Delete(ctx context.Context, documentName string) (int, error) {
	ids, err := ix.documentIDs(ctx, documentName, nil)
	if err != nil {
		return 0, fmt.Errorf("list chunks of %s: %w", documentName, err)
	}
	if err := ix.store.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete chunks of %s: %w", documentName, err)
	}

	common.GetCategoryLogger(common.LoggerNameKnowledge, common.LoggerCategoryKnowledgeIndex).
		Info("Deleted document chunks", zap.String("document_name", documentName), zap.Int("chunks", len(ids)))
	return len(ids), nil
}

func (ix *Index) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	records, err := ix.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	docs := []DocumentInfo{}
	pos := map[string]int{}
	for _, r := range records {
		name := r.Metadata.DocumentName
		if name == "" {
			continue
		}
		if i, ok := pos[name]; ok {
			docs[i].Chunks++
			continue
		}
		pos[name] = len(docs)
		crop := r.Metadata.CropType
		if crop == "" {
			crop = GeneralCropType
		}
		docs = append(docs, DocumentInfo{Name: name, CropType: crop, Chunks: 1})
	}
	return docs, nil
}

func (ix *Index) documentIDs(ctx context.Context, documentName string, keep func(Metadata) bool) ([]string, error) {
	records, err := ix.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range records {
		if r.Metadata.DocumentName != documentName {
			continue
		}
		if keep == nil || keep(r.Metadata) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
