package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) SaveRun(ctx context.Context, run *domain.SearchRun) error {
	payload, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		INSERT INTO search_runs (session_id, query, result)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err = r.db.Pool.QueryRow(ctx, query, run.SessionID, run.Query, payload).Scan(&run.CreatedAt)
	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrDuplicateRun
		}
		return fmt.Errorf("save run: %w", err)
	}

	return nil
}

func (r *RunRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.SearchRun, error) {
	query := `
		SELECT session_id, query, result, created_at
		FROM search_runs
		WHERE session_id = $1
	`

	run, err := scanRun(r.db.Pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]domain.SearchRun, error) {
	query := `
		SELECT session_id, query, result, created_at
		FROM search_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func (r *RunRepo) ListByQuery(ctx context.Context, q string, limit int) ([]domain.SearchRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT session_id, query, result, created_at
		FROM search_runs
		WHERE lower(query) LIKE '%' || lower($1) || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs by query: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.SearchRun, error) {
	var run domain.SearchRun
	var payload []byte

	if err := row.Scan(&run.SessionID, &run.Query, &payload, &run.CreatedAt); err != nil {
		return nil, err
	}

	var result domain.SearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	run.Result = &result

	return &run, nil
}

func scanRuns(rows pgx.Rows) ([]domain.SearchRun, error) {
	var runs []domain.SearchRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
