package job

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, j *Job) error {
	query := `INSERT INTO failed_jobs (document_id, handler, payload, error, retries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		j.DocumentID, j.Handler, []byte(j.Payload), j.Error, j.Retries, j.CreatedAt,
	).Scan(&j.ID)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	var payload []byte

	query := `SELECT id, document_id, handler, payload, error, retries, created_at FROM failed_jobs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.DocumentID, &j.Handler, &payload, &j.Error, &j.Retries, &j.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	j.Payload = payload
	return j, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Job, error) {
	query := `SELECT id, document_id, handler, payload, error, retries, created_at FROM failed_jobs ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var payload []byte
		if err := rows.Scan(&j.ID, &j.DocumentID, &j.Handler, &payload, &j.Error, &j.Retries, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.Payload = payload
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) IncrementRetries(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE failed_jobs SET retries = retries + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_jobs`).Scan(&count)
	return count, err
}
