// Package ingestion runs the asynchronous document pipeline: pick up a
// PENDING document, extract its text, embed it, write the vector index
// entry and record the terminal status. Every document is one unit of
// work; failures are absorbed into status FAILED, never propagated.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serisow/metaminds/document"
	"github.com/serisow/metaminds/document_store"
	"github.com/serisow/metaminds/services/embedding_service"
	"github.com/serisow/metaminds/services/extract_service"
	"github.com/serisow/metaminds/services/notify_service"
	"github.com/serisow/metaminds/vector_index"
)

// BlobReader loads a stored upload's bytes by path.
type BlobReader interface {
	Read(path string) ([]byte, error)
}

type Config struct {
	Workers      int
	QueueSize    int
	EmbedTimeout time.Duration
}

// Pipeline owns a worker pool consuming document ids from a queue. At
// most one in-flight run per document id; concurrent runs for distinct
// ids are independent.
type Pipeline struct {
	store     document_store.Store
	index     vector_index.Index
	blobs     BlobReader
	extractor *extract_service.Registry
	embedder  embedding_service.Embedder
	notifier  notify_service.Notifier
	logger    *slog.Logger

	cfg     Config
	tasks   chan int64
	running sync.Map
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func New(store document_store.Store, index vector_index.Index, blobs BlobReader,
	extractor *extract_service.Registry, embedder embedding_service.Embedder,
	notifier notify_service.Notifier, logger *slog.Logger, cfg Config) *Pipeline {

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = time.Minute
	}
	if notifier == nil {
		notifier = notify_service.NopNotifier{}
	}

	return &Pipeline{
		store:     store,
		index:     index,
		blobs:     blobs,
		extractor: extractor,
		embedder:  embedder,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
		tasks:     make(chan int64, cfg.QueueSize),
	}
}

// Start launches the worker pool.
func (p *Pipeline) Start() {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.logger.Info("Ingestion pipeline started",
		slog.Int("workers", p.cfg.Workers))
}

// Stop closes the queue and waits for in-flight runs to finish. It is
// safe to call more than once.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Ingestion pipeline stopped")
}

// Enqueue hands a registered document to the pipeline without blocking
// the caller. A full queue is reported so the upload path can surface it.
// Enqueue after Stop returns an error instead of sending on the closed
// queue.
func (p *Pipeline) Enqueue(documentID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("ingestion pipeline is stopped")
	}

	select {
	case p.tasks <- documentID:
		return nil
	default:
		return fmt.Errorf("ingestion queue is full")
	}
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for id := range p.tasks {
		p.process(context.Background(), id)
	}
}

// process runs one unit of work. The sync.Map gate guarantees a single
// writer per document id even if the same id is enqueued twice.
func (p *Pipeline) process(ctx context.Context, id int64) {
	if _, loaded := p.running.LoadOrStore(id, struct{}{}); loaded {
		return
	}
	defer p.running.Delete(id)

	runID := uuid.NewString()
	logger := p.logger.With(
		slog.Int64("document_id", id),
		slog.String("run_id", runID))

	doc, err := p.store.Get(ctx, id)
	if err != nil {
		// Cannot transition a nonexistent record; log and abort.
		logger.Error("Document not found at pickup",
			slog.String("error", err.Error()))
		return
	}

	if doc.Status != document.StatusPending {
		// Terminal statuses are idempotent under repeated pickups, and a
		// PROCESSING record belongs to another in-flight run.
		logger.Warn("Skipping pickup, document is not PENDING",
			slog.String("status", string(doc.Status)))
		return
	}

	if err := p.store.Transition(ctx, id, document.StatusProcessing, document_store.TransitionOpts{}); err != nil {
		logger.Error("Failed to mark document PROCESSING",
			slog.String("error", err.Error()))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic during document processing",
				slog.String("panic", fmt.Sprint(r)))
			p.markFailed(ctx, logger, doc, fmt.Sprintf("panic: %v", r))
		}
	}()

	logger.Info("Processing document",
		slog.String("filename", doc.Filename),
		slog.String("file_type", doc.FileType))

	data, err := p.blobs.Read(doc.Filepath)
	if err != nil {
		logger.Error("Failed to read stored upload",
			slog.String("filepath", doc.Filepath),
			slog.String("error", err.Error()))
		p.markFailed(ctx, logger, doc, err.Error())
		return
	}

	text, err := p.extractor.Extract(data, doc.FileType)
	if err != nil {
		p.markFailed(ctx, logger, doc, err.Error())
		return
	}

	embedCtx, cancel := context.WithTimeout(ctx, p.cfg.EmbedTimeout)
	defer cancel()
	embedding, err := p.embedder.Embed(embedCtx, text)
	if err != nil {
		logger.Error("Embedding failed",
			slog.String("error", err.Error()))
		p.markFailed(ctx, logger, doc, err.Error())
		return
	}

	// The index write must land before the terminal metadata write so a
	// PROCESSED record is never observed without its index entry.
	err = p.index.Upsert(ctx, document.IndexEntry{
		DocumentID: id,
		Embedding:  embedding,
		Content:    text,
		Filename:   doc.Filename,
		Category:   document.PlaceholderCategory,
	})
	if err != nil {
		logger.Error("Vector index write failed",
			slog.String("error", err.Error()))
		p.markFailed(ctx, logger, doc, err.Error())
		return
	}

	now := time.Now()
	category := document.PlaceholderCategory
	err = p.store.Transition(ctx, id, document.StatusProcessed, document_store.TransitionOpts{
		Category:      &category,
		LastProcessed: &now,
	})
	if err != nil {
		logger.Error("Failed to mark document PROCESSED",
			slog.String("error", err.Error()))
		return
	}

	logger.Info("Document processed and indexed",
		slog.String("filename", doc.Filename))
}

func (p *Pipeline) markFailed(ctx context.Context, logger *slog.Logger, doc document.Document, reason string) {
	now := time.Now()
	err := p.store.Transition(ctx, doc.ID, document.StatusFailed, document_store.TransitionOpts{
		LastProcessed: &now,
	})
	if err != nil {
		logger.Error("Failed to mark document FAILED",
			slog.String("error", err.Error()))
		return
	}

	logger.Info("Document marked FAILED",
		slog.String("reason", reason))

	if err := p.notifier.NotifyFailure(doc.ID, doc.Filename, reason); err != nil {
		logger.Error("Failure notification not delivered",
			slog.String("error", err.Error()))
	}
}
