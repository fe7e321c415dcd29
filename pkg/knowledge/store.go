package knowledge

import (
	"context"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/soil-monitor-service/pkg/db"
	"liyu1981.xyz/soil-monitor-service/pkg/models"
)

type Metadata struct {
	DocumentName string `json:"document_name"`
	CropType     string `json:"crop_type"`
	ChunkIndex   int    `json:"chunk_index"`
	TotalChunks  int    `json:"total_chunks"`
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	CropType string
}

type Match struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

type Record struct {
	ID       string
	Metadata Metadata
}

// VectorStore holds chunk texts with their embeddings. Query distances are
// cosine distances, lower is more similar.
type VectorStore interface {
	Upsert(ctx context.Context, ids []string, texts []string, metas []Metadata, embeddings [][]float32) error
	Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Match, error)
	GetAll(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, ids []string) error
}

type GormVectorStore struct {
	Db *db.DB
}

func NewGormVectorStore(d *db.DB) *GormVectorStore {
	return &GormVectorStore{Db: d}
}

func (s *GormVectorStore) Upsert(ctx context.Context, ids []string, texts []string, metas []Metadata, embeddings [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(metas) || len(ids) != len(embeddings) {
		return errLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.KnowledgeChunk, len(ids))
	for i := range ids {
		rows[i] = models.KnowledgeChunk{
			ID:           ids[i],
			DocumentName: metas[i].DocumentName,
			ChunkIndex:   metas[i].ChunkIndex,
			TotalChunks:  metas[i].TotalChunks,
			CropTag:      metas[i].CropType,
			Text:         texts[i],
			Embedding:    embeddings[i],
			CreatedAt:    now,
		}
	}

	return s.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(&rows, 100).Error
	})
}

func (s *GormVectorStore) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Match, error) {
	var rows []models.KnowledgeChunk
	q := s.Db.Conn.WithContext(ctx)
	if filter.CropType != "" {
		q = q.Where("crop_tag = ?", filter.CropType)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		if len(row.Embedding) != len(embedding) {
			continue
		}
		matches = append(matches, Match{
			ID:       row.ID,
			Text:     row.Text,
			Metadata: metadataOf(row),
			Distance: CosineDistance(embedding, row.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *GormVectorStore) GetAll(ctx context.Context) ([]Record, error) {
	var rows []models.KnowledgeChunk
	err := s.Db.Conn.WithContext(ctx).
		Select("id", "document_name", "chunk_index", "total_chunks", "crop_tag").
		Order("document_name asc").Order("chunk_index asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{ID: row.ID, Metadata: metadataOf(row)}
	}
	return records, nil
}

func (s *GormVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.Db.Conn.WithContext(ctx).Where("id IN ?", ids).Delete(&models.KnowledgeChunk{}).Error
}

func metadataOf(row models.KnowledgeChunk) Metadata {
	return Metadata{
		DocumentName: row.DocumentName,
		CropType:     row.CropTag,
		ChunkIndex:   row.ChunkIndex,
		TotalChunks:  row.TotalChunks,
	}
}

// CosineDistance returns 1 - cos(a, b). A zero vector is at distance 1 from
// everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
