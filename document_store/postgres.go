package document_store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serisow/metaminds/document"
)

// PostgresStore keeps document metadata in the files table.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

func (s *PostgresStore) Register(ctx context.Context, filename, filepath, fileType string) (int64, error) {
	var id int64
	query := `INSERT INTO files (filename, filepath, file_type, status)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := s.db.QueryRow(ctx, query, filename, filepath, fileType, document.StatusPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to register document: %v", document.ErrStorageIO, err)
	}

	s.logger.Info("Registered document",
		slog.Int64("document_id", id),
		slog.String("filename", filename))

	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (document.Document, error) {
	var doc document.Document
	var category *string
	query := `SELECT id, filename, filepath, file_type, category, status, created_at, last_processed
              FROM files WHERE id = $1`
	err := s.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.Filename, &doc.Filepath, &doc.FileType,
		&category, &doc.Status, &doc.CreatedAt, &doc.LastProcessed)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, document.ErrNotFound
	}
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: failed to load document %d: %v", document.ErrStorageIO, id, err)
	}
	if category != nil {
		doc.Category = *category
	}
	return doc, nil
}

func (s *PostgresStore) Transition(ctx context.Context, id int64, newStatus document.Status, opts TransitionOpts) error {
	// The status predicate makes the forward-only rule a single atomic
	// write: the update only lands when the current status is a legal
	// source for newStatus.
	query := `UPDATE files SET
                status = $2,
                category = COALESCE($3, category),
                last_processed = COALESCE($4, last_processed)
              WHERE id = $1 AND status = ANY($5)`

	tag, err := s.db.Exec(ctx, query, id, newStatus, opts.Category, opts.LastProcessed, transitionSources(newStatus))
	if err != nil {
		return fmt.Errorf("%w: failed to update document %d: %v", document.ErrStorageIO, id, err)
	}

	if tag.RowsAffected() == 0 {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return document.ErrNotFound
		}
		s.logger.Warn("Rejected status transition",
			slog.Int64("document_id", id),
			slog.String("current_status", string(current.Status)),
			slog.String("requested_status", string(newStatus)))
		return fmt.Errorf("%w: %s -> %s", document.ErrInvalidTransition, current.Status, newStatus)
	}

	s.logger.Info("Document status updated",
		slog.Int64("document_id", id),
		slog.String("status", string(newStatus)))

	return nil
}

// transitionSources lists the statuses a document may hold immediately
// before moving to the given status.
func transitionSources(to document.Status) []string {
	switch to {
	case document.StatusProcessing:
		return []string{string(document.StatusPending)}
	case document.StatusProcessed, document.StatusFailed:
		return []string{string(document.StatusProcessing)}
	}
	return nil
}
