package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/serisow/metaminds/document"
	"github.com/serisow/metaminds/document_store"
	"github.com/serisow/metaminds/services/embedding_service"
	"github.com/serisow/metaminds/services/extract_service"
	"github.com/serisow/metaminds/vector_index"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBlobs serves file bytes from memory.
type fakeBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{files: make(map[string][]byte)}
}

func (b *fakeBlobs) put(path string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path] = data
}

func (b *fakeBlobs) Read(path string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: no blob at %s", document.ErrStorageIO, path)
	}
	return data, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	return pgvector.Vector{}, fmt.Errorf("%w: model backend down", document.ErrEmbeddingFailed)
}

func (failingEmbedder) Dimension() int { return 8 }

type panickingExtractor struct{}

func (panickingExtractor) Extract(data []byte) (string, error) {
	panic("parser went off the rails")
}

// failingIndex rejects every write so the index-error branch can be
// exercised.
type failingIndex struct{}

func (failingIndex) Upsert(ctx context.Context, entry document.IndexEntry) error {
	return fmt.Errorf("%w: index backend down", document.ErrStorageIO)
}

func (failingIndex) QueryTopK(ctx context.Context, query pgvector.Vector, k int) ([]vector_index.Hit, error) {
	return nil, fmt.Errorf("%w: index backend down", document.ErrStorageIO)
}

type recordingNotifier struct {
	mu       sync.Mutex
	failures []int64
}

func (n *recordingNotifier) NotifyFailure(documentID int64, filename, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, documentID)
	return nil
}

type fixture struct {
	store    *document_store.MemoryStore
	index    *vector_index.MemoryIndex
	blobs    *fakeBlobs
	registry *extract_service.Registry
	notifier *recordingNotifier
	pipeline *Pipeline
}

func newFixture(t *testing.T, embedder embedding_service.Embedder) *fixture {
	t.Helper()
	if embedder == nil {
		embedder = embedding_service.NewHashingEmbedder(64)
	}
	f := &fixture{
		store:    document_store.NewMemoryStore(),
		index:    vector_index.NewMemoryIndex(),
		blobs:    newFakeBlobs(),
		registry: extract_service.NewRegistry(testLogger()),
		notifier: &recordingNotifier{},
	}
	f.pipeline = New(f.store, f.index, f.blobs, f.registry, embedder, f.notifier, testLogger(), Config{})
	return f
}

func (f *fixture) submit(t *testing.T, filename, fileType string, content []byte) int64 {
	t.Helper()
	path := "/uploads/" + filename
	f.blobs.put(path, content)
	id, err := f.store.Register(context.Background(), filename, path, fileType)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return id
}

func (f *fixture) status(t *testing.T, id int64) document.Status {
	t.Helper()
	doc, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return doc.Status
}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, "invoice.txt", ".txt", []byte("invoice number 12345"))

	f.pipeline.process(context.Background(), id)

	if got := f.status(t, id); got != document.StatusProcessed {
		t.Errorf("Expected PROCESSED, got %s", got)
	}
	if f.index.Len() != 1 {
		t.Errorf("Expected one index entry, got %d", f.index.Len())
	}

	doc, _ := f.store.Get(context.Background(), id)
	if doc.Category != document.PlaceholderCategory {
		t.Errorf("Expected placeholder category, got %q", doc.Category)
	}
	if doc.LastProcessed == nil {
		t.Error("Expected last_processed to be set")
	}
}

func TestProcessUnsupportedType(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, "weird.xyz", ".xyz", []byte("opaque bytes"))

	f.pipeline.process(context.Background(), id)

	if got := f.status(t, id); got != document.StatusFailed {
		t.Errorf("Expected FAILED, got %s", got)
	}
	if f.index.Len() != 0 {
		t.Errorf("Expected no index entry for a failed document, got %d", f.index.Len())
	}
	if len(f.notifier.failures) != 1 || f.notifier.failures[0] != id {
		t.Errorf("Expected one failure notification for document %d, got %v", id, f.notifier.failures)
	}
}

func TestProcessEmptyExtraction(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, "blank.txt", ".txt", []byte("  \n\t "))

	f.pipeline.process(context.Background(), id)

	if got := f.status(t, id); got != document.StatusFailed {
		t.Errorf("Expected FAILED for empty extraction, got %s", got)
	}
	if f.index.Len() != 0 {
		t.Error("Empty extraction must not produce an index entry")
	}
}

func TestProcessEmbeddingFailure(t *testing.T) {
	f := newFixture(t, failingEmbedder{})
	id := f.submit(t, "doc.txt", ".txt", []byte("perfectly fine text"))

	f.pipeline.process(context.Background(), id)

	if got := f.status(t, id); got != document.StatusFailed {
		t.Errorf("Expected FAILED on embedding failure, got %s", got)
	}
	if f.index.Len() != 0 {
		t.Error("Embedding failure must not produce an index entry")
	}
}

func TestProcessIndexUpsertFailure(t *testing.T) {
	store := document_store.NewMemoryStore()
	blobs := newFakeBlobs()
	registry := extract_service.NewRegistry(testLogger())
	notifier := &recordingNotifier{}
	pipeline := New(store, failingIndex{}, blobs, registry,
		embedding_service.NewHashingEmbedder(64), notifier, testLogger(), Config{})

	blobs.put("/uploads/doc.txt", []byte("perfectly fine text"))
	id, err := store.Register(context.Background(), "doc.txt", "/uploads/doc.txt", ".txt")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	pipeline.process(context.Background(), id)

	doc, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Status != document.StatusFailed {
		t.Errorf("Expected FAILED when the index write is rejected, got %s", doc.Status)
	}
	if doc.LastProcessed == nil {
		t.Error("Expected last_processed to be set on failure")
	}
	if len(notifier.failures) != 1 || notifier.failures[0] != id {
		t.Errorf("Expected one failure notification for document %d, got %v", id, notifier.failures)
	}
}

func TestProcessMissingBlob(t *testing.T) {
	f := newFixture(t, nil)
	id, err := f.store.Register(context.Background(), "ghost.txt", "/uploads/ghost.txt", ".txt")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	f.pipeline.process(context.Background(), id)

	if got := f.status(t, id); got != document.StatusFailed {
		t.Errorf("Expected FAILED when the blob is unreadable, got %s", got)
	}
}

func TestProcessMissingDocumentID(t *testing.T) {
	f := newFixture(t, nil)

	// Must not panic and must not create any record or index entry.
	f.pipeline.process(context.Background(), 12345)

	if f.index.Len() != 0 {
		t.Error("Unknown id must not touch the index")
	}
	if _, err := f.store.Get(context.Background(), 12345); !errors.Is(err, document.ErrNotFound) {
		t.Errorf("Expected the unknown id to stay unknown, got %v", err)
	}
}

func TestProcessPanicDrivesFailed(t *testing.T) {
	f := newFixture(t, nil)
	f.registry.Register(".bad", panickingExtractor{})
	id := f.submit(t, "trap.bad", ".bad", []byte("boom"))

	f.pipeline.process(context.Background(), id)

	if got := f.status(t, id); got != document.StatusFailed {
		t.Errorf("Expected FAILED after panic, got %s", got)
	}
}

func TestTerminalStatusIdempotentUnderRepickup(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, "invoice.txt", ".txt", []byte("invoice number 12345"))

	f.pipeline.process(context.Background(), id)
	if got := f.status(t, id); got != document.StatusProcessed {
		t.Fatalf("Expected PROCESSED, got %s", got)
	}
	first, _ := f.store.Get(context.Background(), id)

	// A second pickup of a terminal document must be a no-op.
	f.pipeline.process(context.Background(), id)

	second, _ := f.store.Get(context.Background(), id)
	if second.Status != document.StatusProcessed {
		t.Errorf("Terminal status changed on repickup: %s", second.Status)
	}
	if first.LastProcessed != nil && second.LastProcessed != nil &&
		!first.LastProcessed.Equal(*second.LastProcessed) {
		t.Error("Repickup mutated last_processed on a terminal document")
	}
	if f.index.Len() != 1 {
		t.Errorf("Expected exactly one index entry, got %d", f.index.Len())
	}
}

func TestEnqueueWorkerPool(t *testing.T) {
	f := newFixture(t, nil)
	f.pipeline.Start()

	ids := make([]int64, 0, 20)
	for i := 0; i < 20; i++ {
		id := f.submit(t, fmt.Sprintf("doc-%d.txt", i), ".txt",
			[]byte(fmt.Sprintf("document body %d with shared words", i)))
		ids = append(ids, id)
	}
	for _, id := range ids {
		if err := f.pipeline.Enqueue(id); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	f.pipeline.Stop()

	for _, id := range ids {
		if got := f.status(t, id); got != document.StatusProcessed {
			t.Errorf("Document %d: expected PROCESSED, got %s", id, got)
		}
	}
	if f.index.Len() != len(ids) {
		t.Errorf("Expected %d index entries, got %d", len(ids), f.index.Len())
	}
}

func TestDuplicateEnqueueSingleWriterPerID(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, "dup.txt", ".txt", []byte("some document body"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.pipeline.process(context.Background(), id)
		}()
	}
	wg.Wait()

	if got := f.status(t, id); got != document.StatusProcessed {
		t.Errorf("Expected PROCESSED, got %s", got)
	}
	if f.index.Len() != 1 {
		t.Errorf("Expected one index entry under concurrent pickups, got %d", f.index.Len())
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	f := &fixture{
		store:    document_store.NewMemoryStore(),
		index:    vector_index.NewMemoryIndex(),
		blobs:    newFakeBlobs(),
		registry: extract_service.NewRegistry(testLogger()),
		notifier: &recordingNotifier{},
	}
	// No workers started: queue fills up.
	f.pipeline = New(f.store, f.index, f.blobs, f.registry,
		embedding_service.NewHashingEmbedder(64), f.notifier, testLogger(),
		Config{Workers: 1, QueueSize: 2, EmbedTimeout: time.Second})

	if err := f.pipeline.Enqueue(1); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := f.pipeline.Enqueue(2); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := f.pipeline.Enqueue(3); err == nil {
		t.Error("Expected an error when the queue is full")
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	f := newFixture(t, nil)
	f.pipeline.Start()
	f.pipeline.Stop()

	// A late submit must be rejected cleanly, not crash the caller.
	if err := f.pipeline.Enqueue(1); err == nil {
		t.Error("Expected an error when enqueueing after Stop")
	}

	// Stop is idempotent.
	f.pipeline.Stop()
}
