// Package rag implements the local knowledge base: documents embedded on
// write, retrieved by cosine similarity, and injected into agent prompts.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/store"
)

const collectionName = "knowledge_base"

// Result is one knowledge base search hit.
type Result struct {
	Content  string            `json:"content"`
	Source   string            `json:"source"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Status describes knowledge base health.
type Status struct {
	Initialized    bool   `json:"initialized"`
	DocumentCount  int    `json:"document_count"`
	CollectionName string `json:"collection_name"`
}

// KnowledgeBase stores and retrieves documents for agent context injection.
type KnowledgeBase struct {
	store   store.Storage
	embed   provider.Provider
	observe *observe.Observer
}

func NewKnowledgeBase(s store.Storage, embed provider.Provider, o *observe.Observer) *KnowledgeBase {
	return &KnowledgeBase{
		store:   s,
		embed:   embed,
		observe: o,
	}
}

// DocumentID derives a deterministic ID from source and content, so
// uploading the same document twice is idempotent.
func DocumentID(source, content string) string {
	sum := sha256.Sum256([]byte(content))
	return source + "-" + hex.EncodeToString(sum[:])[:16]
}

// AddDocument embeds the content and upserts it into the knowledge base.
func (kb *KnowledgeBase) AddDocument(ctx context.Context, content, source string, meta map[string]string) (string, error) {
	ctx, span := kb.observe.StartSpan(ctx, "rag.AddDocument")
	defer span.End()

	if content == "" {
		return "", fmt.Errorf("document content is empty")
	}
	if meta == nil {
		meta = map[string]string{"source": source}
	}

	vec, err := kb.embed.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("failed to embed document %s: %w", source, err)
	}

	doc := &store.Document{
		ID:        DocumentID(source, content),
		Content:   content,
		Source:    source,
		Metadata:  meta,
		Embedding: vec,
	}
	if err := kb.store.UpsertDocument(doc); err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", source, err)
	}

	kb.observe.Log().Info().Str("source", source).Str("id", doc.ID).Msg("document added to knowledge base")
	return doc.ID, nil
}

// Search embeds the query and returns the topK most similar documents.
// An empty knowledge base yields an empty result set, not an error.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	ctx, span := kb.observe.StartSpan(ctx, "rag.Search")
	defer span.End()

	if topK <= 0 {
		topK = 5
	}

	vec, err := kb.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := kb.store.SearchDocuments(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("knowledge base search failed: %w", err)
	}

	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = Result{
			Content:  d.Content,
			Source:   d.Source,
			Score:    d.Score,
			Metadata: d.Metadata,
		}
	}

	kb.observe.Log().Info().Int("results", len(results)).Msg("knowledge base search")
	return results, nil
}

// Status reports document count and readiness.
func (kb *KnowledgeBase) Status() Status {
	count, err := kb.store.CountDocuments()
	if err != nil {
		kb.observe.Log().Warn().Err(err).Msg("failed to count documents")
	}
	return Status{
		Initialized:    true,
		DocumentCount:  count,
		CollectionName: collectionName,
	}
}
