package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/use-agent/finscrape/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS expenses (
	id          UUID PRIMARY KEY,
	description TEXT NOT NULL,
	date        TIMESTAMPTZ NOT NULL,
	amount      NUMERIC NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	special     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const columns = `id, description, date, amount, notes, special, created_at, updated_at`

// PGStore keeps expenses in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPG connects to databaseURL and ensures the schema exists.
func OpenPG(ctx context.Context, databaseURL string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}

	s := NewPGStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPGStore wraps an existing pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the expenses table if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create expenses table: %w", err)
	}
	return nil
}

func (s *PGStore) Create(ctx context.Context, in Input) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var e Expense
	in.apply(&e)

	row := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, description, date, amount, notes, special)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+columns,
		uuid.New(), e.Description, e.Date, e.Amount, e.Notes, e.Special,
	)
	return scanExpense(row, uuid.Nil)
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM expenses WHERE id = $1`, id)
	return scanExpense(row, id)
}

func (s *PGStore) List(ctx context.Context) ([]*Expense, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	out := []*Expense{}
	for rows.Next() {
		e, err := scanExpense(rows, uuid.Nil)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses: %w", err)
	}
	return out, nil
}

func (s *PGStore) Update(ctx context.Context, id uuid.UUID, in Input) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var e Expense
	in.apply(&e)

	row := s.pool.QueryRow(ctx, `
		UPDATE expenses
		SET description = $2, date = $3, amount = $4, notes = $5, special = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, e.Description, e.Date, e.Amount, e.Notes, e.Special,
	)
	return scanExpense(row, id)
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PGStore) Close() {
	s.pool.Close()
}

// scanExpense reads one row; id names the lookup key for a NOT_FOUND error.
func scanExpense(row pgx.Row, id uuid.UUID) (*Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.Description, &e.Date, &e.Amount, &e.Notes, &e.Special, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to read expense", err)
	}
	return &e, nil
}
