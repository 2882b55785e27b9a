package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dbURL string) (*pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	var pool *pgxpool.Pool
	var err error
	maxRetries := 10
	retryDelay := time.Second * 10

	for i := 0; i < maxRetries; i++ {
		config, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			return nil, fmt.Errorf("unable to parse DATABASE_URL: %v", err)
		}

		pool, err = pgxpool.NewWithConfig(context.Background(), config)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to the database")
				break
			}
		}

		log.Printf("Failed to connect to the database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database after %d attempts: %v", maxRetries, err)
	}

	// Enable pgvector extension
	_, err = pool.Exec(context.Background(), "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return nil, fmt.Errorf("unable to create vector extension: %v", err)
	}

	return pool, nil
}

// Migrate creates the metadata and vector tables if they do not exist.
// dim is the embedding dimensionality, fixed for the process lifetime.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dim int) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS files (
            id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
            filename TEXT NOT NULL,
            filepath TEXT NOT NULL UNIQUE,
            file_type TEXT NOT NULL,
            category TEXT,
            status TEXT NOT NULL DEFAULT 'PENDING',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            last_processed TIMESTAMPTZ
        )`)
	if err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	_, err = pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS document_vectors (
            file_id BIGINT PRIMARY KEY,
            embedding vector(%d) NOT NULL,
            content TEXT NOT NULL,
            filename TEXT NOT NULL,
            category TEXT
        )`, dim))
	if err != nil {
		return fmt.Errorf("failed to create document_vectors table: %w", err)
	}

	_, err = pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_files_status ON files (status)")
	if err != nil {
		return fmt.Errorf("failed to create status index: %w", err)
	}

	return nil
}
