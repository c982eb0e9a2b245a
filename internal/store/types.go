package store

import "time"

// Document is one knowledge base entry.
type Document struct {
	ID        string
	Content   string
	Source    string
	Metadata  map[string]string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredDocument pairs a document with its similarity to a query vector.
type ScoredDocument struct {
	Document
	Score float32
}

// MemoryEntry is a unit of agent memory: a conversation turn summary, a task
// result, or a piece of learned knowledge.
type MemoryEntry struct {
	ID        string
	Content   string
	Keywords  []string
	Metadata  map[string]string
	AgentName string
	EntryType string // conversation, knowledge, task_result
	CreatedAt time.Time
}

// TaskRecord is the persisted outcome of one dispatched request.
type TaskRecord struct {
	ID            string
	Query         string
	AgentType     string
	AgentName     string
	Result        string
	Success       bool
	Error         string
	Complexity    string
	ExecutionTime time.Duration
	CreatedAt     time.Time
}

// Storage defines the interface for persistence
type Storage interface {
	// Knowledge base documents
	UpsertDocument(doc *Document) error
	SearchDocuments(vector []float32, limit int) ([]ScoredDocument, error)
	CountDocuments() (int, error)

	// Agent memory
	AddMemory(entry *MemoryEntry) error
	ListMemories(agentName, entryType string, limit int) ([]MemoryEntry, error)
	CountMemories() (int, error)

	// Task history
	RecordTask(rec *TaskRecord) error
	RecentTasks(limit int) ([]TaskRecord, error)

	// Configuration Management
	SetConfig(key, value string) error
	GetConfig(key string) (string, error)

	Close() error
}
