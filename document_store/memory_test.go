package document_store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serisow/metaminds/document"
)

func TestRegisterStartsPending(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Register(ctx, "report.pdf", "/uploads/report.pdf", ".pdf")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	doc, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Status != document.StatusPending {
		t.Errorf("Expected status PENDING, got %s", doc.Status)
	}
	if doc.LastProcessed != nil {
		t.Error("Expected nil last_processed for a fresh record")
	}
}

func TestRegisterDuplicateFilepath(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Register(ctx, "a.txt", "/uploads/a.txt", ".txt"); err != nil {
		t.Fatalf("First Register failed: %v", err)
	}
	if _, err := store.Register(ctx, "a.txt", "/uploads/a.txt", ".txt"); !errors.Is(err, document.ErrStorageIO) {
		t.Errorf("Expected ErrStorageIO for duplicate filepath, got %v", err)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), 42)
	if !errors.Is(err, document.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransitionForwardOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Register(ctx, "a.txt", "/uploads/a.txt", ".txt")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// PENDING -> PROCESSED must be rejected: skipping PROCESSING is illegal.
	err = store.Transition(ctx, id, document.StatusProcessed, TransitionOpts{})
	if !errors.Is(err, document.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for PENDING -> PROCESSED, got %v", err)
	}

	if err := store.Transition(ctx, id, document.StatusProcessing, TransitionOpts{}); err != nil {
		t.Fatalf("PENDING -> PROCESSING failed: %v", err)
	}

	now := time.Now()
	category := document.PlaceholderCategory
	err = store.Transition(ctx, id, document.StatusProcessed, TransitionOpts{
		Category:      &category,
		LastProcessed: &now,
	})
	if err != nil {
		t.Fatalf("PROCESSING -> PROCESSED failed: %v", err)
	}

	doc, _ := store.Get(ctx, id)
	if doc.Category != document.PlaceholderCategory {
		t.Errorf("Expected category %q, got %q", document.PlaceholderCategory, doc.Category)
	}
	if doc.LastProcessed == nil {
		t.Error("Expected last_processed to be set")
	}

	// Terminal states never change.
	err = store.Transition(ctx, id, document.StatusFailed, TransitionOpts{})
	if !errors.Is(err, document.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition out of PROCESSED, got %v", err)
	}
	doc, _ = store.Get(ctx, id)
	if doc.Status != document.StatusProcessed {
		t.Errorf("Terminal status changed to %s", doc.Status)
	}
}

func TestTransitionUnknownID(t *testing.T) {
	store := NewMemoryStore()

	err := store.Transition(context.Background(), 99, document.StatusProcessing, TransitionOpts{})
	if !errors.Is(err, document.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentTransitionSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Register(ctx, "a.txt", "/uploads/a.txt", ".txt")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var wg sync.WaitGroup
	successes := make(chan struct{}, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Transition(ctx, id, document.StatusProcessing, TransitionOpts{}); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	if count != 1 {
		t.Errorf("Expected exactly one successful PENDING -> PROCESSING transition, got %d", count)
	}
}
