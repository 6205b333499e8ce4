package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/bookrag/pkg/component/milvus"
)

// 分页扫描每页大小。
const existingPageSize = 1000

// 检索和扫描返回的标量字段。
var outputFields = []string{"text", "heading", "chapter", "chunk_index"}

// escapeExprString 转义过滤表达式中的字符串字面量。
// source 来自用户提供的文件路径，不能原样拼进表达式。
func escapeExprString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection 确保 Milvus 集合存在。
// 集合 schema：自增主键、固定维度向量、text/heading/chapter/source 字符串字段、
// chunk_index 整型字段；vector 建 COSINE/AUTOINDEX 索引，chapter 和 chunk_index 建倒排索引。
func (s *MilvusStore) EnsureCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "text", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
			{Name: "heading", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "chapter", DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 256},
			{Name: "chunk_index", DataType: entity.FieldTypeInt32},
		},
		InvertedIndexFields: []string{"chapter", "chunk_index"},
	}
	return s.client.CreateCollection(ctx, schema)
}

// ExistingChunkIndexes 分页扫描指定来源已存储的 chunk_index。
func (s *MilvusStore) ExistingChunkIndexes(ctx context.Context, collection, source string) (map[int32]struct{}, error) {
	existing := make(map[int32]struct{})
	expr := fmt.Sprintf(`source == "%s"`, escapeExprString(source))

	for offset := 0; ; offset += existingPageSize {
		rows, err := s.client.Query(ctx, collection, expr, []string{"chunk_index"}, offset, existingPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to query existing chunk indexes: %w", err)
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if idx, ok := row["chunk_index"].(int32); ok {
				existing[idx] = struct{}{}
			}
		}
	}

	return existing, nil
}

// Insert 批量插入记录到 Milvus。
func (s *MilvusStore) Insert(ctx context.Context, collection string, records []*Record) ([]int64, error) {
	if len(records) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(records))
	metadata := map[string][]any{
		"text":        make([]any, len(records)),
		"heading":     make([]any, len(records)),
		"chapter":     make([]any, len(records)),
		"source":      make([]any, len(records)),
		"chunk_index": make([]any, len(records)),
	}

	for i, r := range records {
		vectors[i] = r.Vector
		metadata["text"][i] = r.Text
		metadata["heading"][i] = r.Heading
		metadata["chapter"][i] = r.Chapter
		metadata["source"][i] = r.Source
		metadata["chunk_index"][i] = r.Index
	}

	data := &milvus.InsertData{
		Vectors:  vectors,
		Metadata: metadata,
	}

	ids, err := s.client.Insert(ctx, collection, data)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into milvus: %w", err)
	}

	return ids, nil
}

// Search 执行向量相似度搜索，支持章节精确过滤。
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int, chapterFilter string) ([]*SearchHit, error) {
	expr := ""
	if chapterFilter != "" {
		expr = fmt.Sprintf(`chapter == "%s"`, escapeExprString(chapterFilter))
	}

	results, err := s.client.Search(ctx, collection, embedding, topK, expr, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	hits := make([]*SearchHit, 0, len(results))
	for _, r := range results {
		hit := &SearchHit{Score: r.Score}
		if v, ok := r.Metadata["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Metadata["heading"].(string); ok {
			hit.Heading = v
		}
		if v, ok := r.Metadata["chapter"].(string); ok {
			hit.Chapter = v
		}
		if v, ok := r.Metadata["chunk_index"].(int32); ok {
			hit.ChunkIndex = v
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Stats 返回集合记录数。
func (s *MilvusStore) Stats(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
