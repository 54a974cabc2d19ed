package milvus

import (
	"Vybe_AI/internal/config"
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		log.Println("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
		log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	}
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection 确保记忆集合存在；不存在时按固定 schema 创建并建立索引。
// schema 固定为: id (VarChar, 主键), content (VarChar), metadata (VarChar,
// JSON 字符串), embedding (FloatVector, dim 维)。
func (c *MilvusClient) EnsureCollection(ctx context.Context, collName string, dim int) error {
	has, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合 '%s' 是否存在失败: %w", collName, err)
	}
	if has {
		return nil
	}

	schema := entity.NewSchema().
		WithName(collName).
		WithDescription("long-term agent memory").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(128).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName("metadata").WithDataType(entity.FieldTypeVarChar).WithMaxLength(8192)).
		WithField(entity.NewField().WithName("embedding").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))

	if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("创建集合 '%s' 失败: %w", collName, err)
	}

	index, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("构建索引参数失败: %w", err)
	}
	if err := c.Client.CreateIndex(ctx, collName, "embedding", index, false); err != nil {
		return fmt.Errorf("为集合 '%s' 创建索引失败: %w", collName, err)
	}

	log.Printf("✅ 成功创建集合: %s", collName)
	return nil
}

// Insert 向指定集合写入一条记忆记录。
func (c *MilvusClient) Insert(ctx context.Context, collName, id, content, metadata string, vector []float32) error {
	idCol := entity.NewColumnVarChar("id", []string{id})
	contentCol := entity.NewColumnVarChar("content", []string{content})
	metadataCol := entity.NewColumnVarChar("metadata", []string{metadata})
	vectorCol := entity.NewColumnFloatVector("embedding", len(vector), [][]float32{vector})

	if _, err := c.Client.Insert(ctx, collName, "", idCol, contentCol, metadataCol, vectorCol); err != nil {
		return fmt.Errorf("failed to insert data into Milvus: %w", err)
	}
	return nil
}

// Search 在指定集合中执行向量相似度搜索，返回 content 和 metadata 字段。
func (c *MilvusClient) Search(ctx context.Context, collName string, topK int, vector []float32) ([]client.SearchResult, error) {
	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return nil, fmt.Errorf("加载集合 '%s' 失败: %w", collName, err)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchVectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := c.Client.Search(
		ctx,
		collName,
		nil,
		"",
		[]string{"content", "metadata"},
		searchVectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("在集合 '%s' 中搜索失败: %w", collName, err)
	}
	return results, nil
}

// RowCount 返回集合中的记录总数。
func (c *MilvusClient) RowCount(ctx context.Context, collName string) (int64, error) {
	stats, err := c.Client.GetCollectionStatistics(ctx, collName)
	if err != nil {
		return 0, fmt.Errorf("获取集合 '%s' 统计信息失败: %w", collName, err)
	}
	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("解析 row_count 失败: %w", err)
	}
	return count, nil
}
