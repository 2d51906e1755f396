package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `INSERT INTO documents (filename, company_name, upload_timestamp, processing_status, total_chunks, metadata, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		doc.Filename, doc.CompanyName, doc.UploadedAt, string(doc.Status), doc.TotalChunks, metadata, doc.StoragePath,
	).Scan(&doc.ID)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	var status string
	var metadata []byte

	query := `SELECT id, filename, company_name, upload_timestamp, processing_status, total_chunks, metadata, storage_path FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Filename, &doc.CompanyName, &doc.UploadedAt, &status, &doc.TotalChunks, &metadata, &doc.StoragePath)
	if err != nil {
		return nil, err
	}

	doc.Status = Status(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return doc, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Document, error) {
	query := `SELECT id, filename, company_name, upload_timestamp, processing_status, total_chunks FROM documents ORDER BY upload_timestamp DESC`
	return r.scanDocuments(ctx, query)
}

func (r *PostgresRepo) ListByCompany(ctx context.Context, company string) ([]Document, error) {
	query := `SELECT id, filename, company_name, upload_timestamp, processing_status, total_chunks FROM documents WHERE company_name ILIKE '%' || $1 || '%' ORDER BY upload_timestamp DESC`
	return r.scanDocuments(ctx, query, company)
}

func (r *PostgresRepo) scanDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var status string
		if err := rows.Scan(&d.ID, &d.Filename, &d.CompanyName, &d.UploadedAt, &status, &d.TotalChunks); err != nil {
			return nil, err
		}
		d.Status = Status(status)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ApplyEvent runs the status state machine inside a transaction: the current
// status is read with a row lock, the transition computed, and the new status
// written, so concurrent readers can never observe states out of order.
func (r *PostgresRepo) ApplyEvent(ctx context.Context, id string, event Event) (bool, error) {
	return r.transition(ctx, id, event, nil)
}

func (r *PostgresRepo) Complete(ctx context.Context, id string, totalChunks int) (bool, error) {
	return r.transition(ctx, id, EventProcessingCompleted, &totalChunks)
}

func (r *PostgresRepo) transition(ctx context.Context, id string, event Event, totalChunks *int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback() //nolint:errcheck

	var current string
	err = tx.QueryRowContext(ctx, `SELECT processing_status FROM documents WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	next, err := Transition(Status(current), event)
	if err != nil {
		return true, fmt.Errorf("document %s: %s on %s: %w", id, event, current, ErrIllegalTransition)
	}

	if totalChunks != nil {
		_, err = tx.ExecContext(ctx, `UPDATE documents SET processing_status = $1, total_chunks = $2, updated_at = NOW() WHERE id = $3`,
			string(next), *totalChunks, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE documents SET processing_status = $1, updated_at = NOW() WHERE id = $2`,
			string(next), id)
	}
	if err != nil {
		return true, err
	}

	return true, tx.Commit()
}

func (r *PostgresRepo) InsertChunks(ctx context.Context, docID string, chunks []ChunkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO document_chunks (document_id, chunk_text, chunk_index, page_number, metadata) VALUES ($1, $2, $3, $4, $5)`
	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, docID, chunk.Text, chunk.Index, chunk.PageNumber, metadata); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepo) GetChunks(ctx context.Context, docID string) ([]ChunkRecord, error) {
	query := `SELECT id, document_id, chunk_text, chunk_index, page_number, metadata FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index ASC`
	rows, err := r.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []ChunkRecord
	for rows.Next() {
		var c ChunkRecord
		var metadata []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Text, &c.Index, &c.PageNumber, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}
