// Package memory gives agents recall over past conversations and task
// results. Entries are scored by a blend of TF-IDF cosine similarity over
// raw text and Jaccard similarity over extracted keyword sets, so recall
// works the same regardless of which provider backend is configured.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/nexus/internal/store"
)

const (
	maxKeywords = 20

	// Recall scores only the most recent entries so lookup cost stays
	// flat as the memory grows.
	recallWindow = 500

	// Weighted blend: 70% TF-IDF, 30% keyword overlap.
	tfidfWeight   = 0.7
	keywordWeight = 0.3
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "up": {},
	"about": {}, "into": {}, "through": {}, "during": {}, "before": {}, "after": {},
	"above": {}, "below": {}, "between": {}, "among": {}, "under": {}, "over": {},
	"is": {}, "was": {}, "are": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {},
	"can": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

// Scored is a memory entry with its relevance to a query.
type Scored struct {
	store.MemoryEntry
	Relevance float64
}

// Recaller stores and retrieves agent memories.
type Recaller struct {
	store store.Storage
}

func New(s store.Storage) *Recaller {
	return &Recaller{store: s}
}

// Remember stores a new memory entry and returns its ID. The ID is a
// content+agent+time hash, matching the knowledge base's deterministic-ID
// convention closely enough to debug with.
func (r *Recaller) Remember(ctx context.Context, content, agentName, entryType string, meta map[string]string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("memory content is empty")
	}
	if entryType == "" {
		entryType = "knowledge"
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%d", content, agentName, time.Now().UnixNano())))
	id := hex.EncodeToString(sum[:])[:16]

	entry := &store.MemoryEntry{
		ID:        id,
		Content:   content,
		Keywords:  ExtractKeywords(content),
		Metadata:  meta,
		AgentName: agentName,
		EntryType: entryType,
		CreatedAt: time.Now(),
	}

	if err := r.store.AddMemory(entry); err != nil {
		return "", fmt.Errorf("failed to store memory: %w", err)
	}
	return id, nil
}

// Recall returns the topK entries most relevant to the query, optionally
// filtered by agent name and entry type.
func (r *Recaller) Recall(ctx context.Context, query, agentName, entryType string, topK int) ([]Scored, error) {
	if topK <= 0 {
		topK = 5
	}

	entries, err := r.store.ListMemories(agentName, entryType, recallWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	queryKeywords := ExtractKeywords(query)

	scored := make([]Scored, 0, len(entries))
	for _, e := range entries {
		kwSim := jaccard(queryKeywords, e.Keywords)
		tfidfSim := tfidfCosine(query, e.Content)
		scored = append(scored, Scored{
			MemoryEntry: e,
			Relevance:   tfidfWeight*tfidfSim + keywordWeight*kwSim,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Count returns the number of stored memories.
func (r *Recaller) Count() int {
	n, err := r.store.CountMemories()
	if err != nil {
		return 0
	}
	return n
}

// ExtractKeywords lowercases the text, strips stop words and short tokens,
// and returns up to maxKeywords terms ordered by frequency.
func ExtractKeywords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	order := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop || len(w) <= 2 {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// Frequency descending; first occurrence breaks ties so output stays
	// deterministic.
	firstSeen := make(map[string]int, len(order))
	for i, w := range order {
		firstSeen[w] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tfidfCosine(text1, text2 string) float64 {
	words1 := wordPattern.FindAllString(strings.ToLower(text1), -1)
	words2 := wordPattern.FindAllString(strings.ToLower(text2), -1)

	tf1 := make(map[string]int)
	for _, w := range words1 {
		tf1[w]++
	}
	tf2 := make(map[string]int)
	for _, w := range words2 {
		tf2[w]++
	}

	vocab := make(map[string]struct{})
	for w := range tf1 {
		vocab[w] = struct{}{}
	}
	for w := range tf2 {
		vocab[w] = struct{}{}
	}
	if len(vocab) == 0 {
		return 0.0
	}

	var dot, norm1, norm2 float64
	for w := range vocab {
		dot += float64(tf1[w] * tf2[w])
		norm1 += float64(tf1[w] * tf1[w])
		norm2 += float64(tf2[w] * tf2[w])
	}
	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}
