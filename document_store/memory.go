package document_store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/serisow/metaminds/document"
)

// MemoryStore is an in-memory metadata store with the same transition
// discipline as the Postgres implementation. Used in tests and when
// running without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[int64]document.Document
	filepaths map[string]struct{}
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[int64]document.Document),
		filepaths: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Register(ctx context.Context, filename, filepath, fileType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.filepaths[filepath]; exists {
		return 0, fmt.Errorf("%w: duplicate filepath %s", document.ErrStorageIO, filepath)
	}

	s.nextID++
	id := s.nextID
	s.docs[id] = document.Document{
		ID:        id,
		Filename:  filename,
		Filepath:  filepath,
		FileType:  fileType,
		Status:    document.StatusPending,
		CreatedAt: time.Now(),
	}
	s.filepaths[filepath] = struct{}{}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return document.Document{}, document.ErrNotFound
	}
	return doc, nil
}

func (s *MemoryStore) Transition(ctx context.Context, id int64, newStatus document.Status, opts TransitionOpts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return document.ErrNotFound
	}

	if !document.CanTransition(doc.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", document.ErrInvalidTransition, doc.Status, newStatus)
	}

	doc.Status = newStatus
	if opts.Category != nil {
		doc.Category = *opts.Category
	}
	if opts.LastProcessed != nil {
		doc.LastProcessed = opts.LastProcessed
	}
	s.docs[id] = doc
	return nil
}
