// Package tools holds the tool bodies published by the server. They are
// ordinary handlers; every cross-cutting behavior (batching, coercion,
// logging, error normalization) is applied around them by the pipeline.
package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Document is one ingested document.
type Document struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// DocStore is a small SQLite-backed document store used by the ingestion
// tools.
type DocStore struct {
	db *sql.DB
}

// NewDocStore opens (creating if needed) the database at path.
func NewDocStore(path string) (*DocStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("docstore: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("docstore: open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("docstore: pragma: %w", err)
	}

	s := &DocStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("docstore: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *DocStore) Close() error {
	return s.db.Close()
}

func (s *DocStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			tags       TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_title ON documents(title);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert stores a new document and returns its generated id.
func (s *DocStore) Insert(ctx context.Context, title, content string, tags []string) (string, error) {
	id := uuid.NewString()

	var tagsJSON string
	if len(tags) > 0 {
		data, err := json.Marshal(tags)
		if err != nil {
			return "", fmt.Errorf("docstore: encode tags: %w", err)
		}
		tagsJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, tags, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, title, content, tagsJSON, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("docstore: insert document: %w", err)
	}
	return id, nil
}

// Search returns documents whose title or content contains the query,
// newest first.
func (s *DocStore) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, tags, created_at
		FROM documents
		WHERE title LIKE ? OR content LIKE ?
		ORDER BY created_at DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("docstore: search documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc  Document
			tags sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &tags, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("docstore: scan document: %w", err)
		}
		if tags.Valid && tags.String != "" {
			_ = json.Unmarshal([]byte(tags.String), &doc.Tags)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate documents: %w", err)
	}
	return docs, nil
}
