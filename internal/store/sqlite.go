package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite write safety: single writer. HTTP handlers hit this store
	// concurrently, so serialize at the connection pool.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT,
			source TEXT,
			metadata TEXT,
			embedding BLOB,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			content TEXT,
			keywords TEXT,
			metadata TEXT,
			agent_name TEXT,
			entry_type TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			query TEXT,
			agent_type TEXT,
			agent_name TEXT,
			result TEXT,
			success INTEGER,
			error TEXT,
			complexity TEXT,
			execution_ms INTEGER,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_name, entry_type);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Configuration Implementation

func (s *SQLiteStore) SetConfig(key, value string) error {
	query := `INSERT INTO configuration (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(query, key, value)
	return err
}

func (s *SQLiteStore) GetConfig(key string) (string, error) {
	query := `SELECT value FROM configuration WHERE key = ?`
	row := s.db.QueryRow(query, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Memory Implementation

func (s *SQLiteStore) AddMemory(entry *MemoryEntry) error {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `INSERT INTO memories (id, content, keywords, metadata, agent_name, entry_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query,
		entry.ID,
		entry.Content,
		strings.Join(entry.Keywords, " "),
		string(metaJSON),
		entry.AgentName,
		entry.EntryType,
		entry.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) ListMemories(agentName, entryType string, limit int) ([]MemoryEntry, error) {
	query := `SELECT id, content, keywords, metadata, agent_name, entry_type, created_at FROM memories`
	var conds []string
	var args []any
	if agentName != "" {
		conds = append(conds, "agent_name = ?")
		args = append(args, agentName)
	}
	if entryType != "" {
		conds = append(conds, "entry_type = ?")
		args = append(args, entryType)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		var keywords, metaJSON string
		if err := rows.Scan(&e.ID, &e.Content, &keywords, &metaJSON, &e.AgentName, &e.EntryType, &e.CreatedAt); err != nil {
			return nil, err
		}
		if keywords != "" {
			e.Keywords = strings.Fields(keywords)
		}
		if err := json.Unmarshal([]byte(metaJSON), &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) CountMemories() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n)
	return n, err
}

// Task Implementation

func (s *SQLiteStore) RecordTask(rec *TaskRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks (id, query, agent_type, agent_name, result, success, error, complexity, execution_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		rec.ID,
		rec.Query,
		rec.AgentType,
		rec.AgentName,
		rec.Result,
		rec.Success,
		rec.Error,
		rec.Complexity,
		rec.ExecutionTime.Milliseconds(),
		rec.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) RecentTasks(limit int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, query, agent_type, agent_name, result, success, error, complexity, execution_ms, created_at
		 FROM tasks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var r TaskRecord
		var ms int64
		if err := rows.Scan(&r.ID, &r.Query, &r.AgentType, &r.AgentName, &r.Result, &r.Success, &r.Error, &r.Complexity, &ms, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ExecutionTime = time.Duration(ms) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}
