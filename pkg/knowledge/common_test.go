package knowledge_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"liyu1981.xyz/soil-monitor-service/pkg/db"
	"liyu1981.xyz/soil-monitor-service/pkg/knowledge"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
)

func newTestIndex(t *testing.T) (*db.DB, *knowledge.Index) {
	t.Helper()
	dbInstance, err := db.Open(db.UseIsolatedMemorySqliteDialector())
	require.NoError(t, err)
	return dbInstance, knowledge.NewIndex(knowledge.NewGormVectorStore(dbInstance), llm.NewHashingEmbedder(0))
}

func words(n int, prefix string) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

func f64(v float64) *float64 { return &v }
