package milvus

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"Sarah_AI/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Field names of the conversation embedding collection.
const (
	FieldEmbeddingID      = "embedding_id"
	FieldUserID           = "user_id"
	FieldCharacterID      = "character_id"
	FieldConversationText = "conversation_text"
	FieldEmbedding        = "embedding"
	FieldTimestamp        = "timestamp"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient wraps the Milvus SDK client together with the collection
// configuration of the conversation vector store.
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// GetClient initializes and returns the Milvus client as a singleton.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to Milvus: %w", err)
			return
		}
		log.Println("connected to Milvus")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close safely closes the Milvus connection.
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// HealthCheck verifies the Milvus connection is usable.
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection makes the conversation collection queryable. An existing
// collection is reused after verifying its embedding dimension matches the
// configured one; a mismatch is a hard error, never silently padded or
// truncated. A missing collection is created with a COSINE IVF_FLAT index.
// The collection is loaded before returning.
func (c *MilvusClient) EnsureCollection(ctx context.Context, maxTextLength int) error {
	collName := c.Config.CollectionName

	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", collName, err)
	}

	if exists {
		if err := c.verifyDimension(ctx); err != nil {
			return err
		}
	} else {
		schema := entity.NewSchema().
			WithName(collName).
			WithDescription("Conversational memory embeddings").
			WithField(entity.NewField().
				WithName(FieldEmbeddingID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(128).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(FieldUserID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(255)).
			WithField(entity.NewField().
				WithName(FieldCharacterID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(255)).
			WithField(entity.NewField().
				WithName(FieldConversationText).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(int64(maxTextLength))).
			WithField(entity.NewField().
				WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(c.Config.Dimension))).
			WithField(entity.NewField().
				WithName(FieldTimestamp).
				WithDataType(entity.FieldTypeInt64))

		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection '%s': %w", collName, err)
		}

		idx, err := entity.NewIndexIvfFlat(entity.COSINE, c.Config.IndexNlist)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := c.Client.CreateIndex(ctx, collName, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on '%s': %w", FieldEmbedding, err)
		}
		log.Printf("created collection '%s' (dim=%d)", collName, c.Config.Dimension)
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", collName, err)
	}
	return nil
}

// verifyDimension compares the existing collection's vector dimension with
// the configured one.
func (c *MilvusClient) verifyDimension(ctx context.Context) error {
	coll, err := c.Client.DescribeCollection(ctx, c.Config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to describe collection '%s': %w", c.Config.CollectionName, err)
	}
	for _, field := range coll.Schema.Fields {
		if field.Name != FieldEmbedding {
			continue
		}
		dimStr, ok := field.TypeParams[entity.TypeParamDim]
		if !ok {
			return fmt.Errorf("collection '%s' has no dimension on field '%s'", c.Config.CollectionName, FieldEmbedding)
		}
		dim, err := strconv.Atoi(dimStr)
		if err != nil {
			return fmt.Errorf("collection '%s' has invalid dimension '%s'", c.Config.CollectionName, dimStr)
		}
		if dim != c.Config.Dimension {
			return fmt.Errorf("collection '%s' has dimension %d, configured dimension is %d",
				c.Config.CollectionName, dim, c.Config.Dimension)
		}
		return nil
	}
	return fmt.Errorf("collection '%s' has no field '%s'", c.Config.CollectionName, FieldEmbedding)
}

// InsertConversation writes one embedding row and flushes so the row is
// visible to searches when this call returns.
func (c *MilvusClient) InsertConversation(ctx context.Context, embeddingID, userID, characterID, text string, timestamp int64, vector []float32) error {
	collName := c.Config.CollectionName

	_, err := c.Client.Insert(ctx, collName, "",
		entity.NewColumnVarChar(FieldEmbeddingID, []string{embeddingID}),
		entity.NewColumnVarChar(FieldUserID, []string{userID}),
		entity.NewColumnVarChar(FieldCharacterID, []string{characterID}),
		entity.NewColumnVarChar(FieldConversationText, []string{text}),
		entity.NewColumnFloatVector(FieldEmbedding, c.Config.Dimension, [][]float32{vector}),
		entity.NewColumnInt64(FieldTimestamp, []int64{timestamp}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into Milvus: %w", err)
	}

	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", collName, err)
	}
	return nil
}

// Search runs a similarity search restricted by the boolean expression expr.
func (c *MilvusClient) Search(ctx context.Context, expr string, vector []float32, topK int) ([]client.SearchResult, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := c.Client.Search(
		ctx,
		c.Config.CollectionName,
		nil,
		expr,
		[]string{FieldConversationText, FieldTimestamp},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection '%s': %w", c.Config.CollectionName, err)
	}
	return results, nil
}

// CountByExpr counts rows matching expr. Used for purge reporting and stats.
func (c *MilvusClient) CountByExpr(ctx context.Context, expr string) (int64, error) {
	rs, err := c.Client.Query(ctx, c.Config.CollectionName, nil, expr, []string{FieldEmbeddingID})
	if err != nil {
		return 0, fmt.Errorf("failed to query collection '%s': %w", c.Config.CollectionName, err)
	}
	for _, col := range rs {
		if col.Name() == FieldEmbeddingID {
			return int64(col.Len()), nil
		}
	}
	return 0, nil
}

// DeleteByExpr removes all rows matching expr and flushes the deletion.
func (c *MilvusClient) DeleteByExpr(ctx context.Context, expr string) error {
	collName := c.Config.CollectionName
	if err := c.Client.Delete(ctx, collName, "", expr); err != nil {
		return fmt.Errorf("failed to delete from Milvus: %w", err)
	}
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", collName, err)
	}
	return nil
}
