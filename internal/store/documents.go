package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

func (s *SQLiteStore) UpsertDocument(doc *Document) error {
	vecBuf := new(bytes.Buffer)
	if err := binary.Write(vecBuf, binary.LittleEndian, doc.Embedding); err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	// Re-uploading the same (source, content) pair produces the same ID, so
	// ingestion is idempotent.
	query := `INSERT INTO documents (id, content, source, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content   = excluded.content,
			source    = excluded.source,
			metadata  = excluded.metadata,
			embedding = excluded.embedding`
	_, err = s.db.Exec(query, doc.ID, doc.Content, doc.Source, string(metaJSON), vecBuf.Bytes(), doc.CreatedAt)
	return err
}

// SearchDocuments loads all embeddings, computes cosine similarity and sorts.
// Brute force is fine for a local knowledge base (<10k documents).
func (s *SQLiteStore) SearchDocuments(queryVector []float32, limit int) ([]ScoredDocument, error) {
	rows, err := s.db.Query(`SELECT id, content, source, metadata, embedding, created_at FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []ScoredDocument

	for rows.Next() {
		var doc Document
		var vecBlob []byte
		var metaJSON string

		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Source, &metaJSON, &vecBlob, &doc.CreatedAt); err != nil {
			continue
		}

		vector := make([]float32, len(vecBlob)/4)
		if err := binary.Read(bytes.NewReader(vecBlob), binary.LittleEndian, &vector); err != nil {
			continue
		}
		doc.Embedding = vector

		var meta map[string]string
		json.Unmarshal([]byte(metaJSON), &meta)
		doc.Metadata = meta

		scored = append(scored, ScoredDocument{
			Document: doc,
			Score:    cosineSimilarity(queryVector, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func (s *SQLiteStore) CountDocuments() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, magA, magB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (float32(math.Sqrt(float64(magA))) * float32(math.Sqrt(float64(magB))))
}
