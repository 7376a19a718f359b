package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"claimtriage/internal/fraud/models"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/platform/sentinel"
	txcontext "claimtriage/pkg/platform/tx"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresStore persists fraud flags in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const flagColumns = `id, claim_id, flag_type, severity, description, flagged_at, resolved, resolved_at, resolved_by`

// Save inserts flags in one transaction. A flag for an unknown claim fails
// with sentinel.ErrNotFound.
func (s *PostgresStore) Save(ctx context.Context, flags []*models.Flag) error {
	if len(flags) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save flags: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, f := range flags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fraud_flags (`+flagColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.UUID(f.ID), uuid.UUID(f.ClaimID), string(f.FlagType), string(f.Severity),
			f.Description, f.FlaggedAt, f.Resolved, f.ResolvedAt, resolvedBy(f.ResolvedBy))
		if err != nil {
			return translate(err, "insert fraud flag")
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save flags: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.FlagID) (*models.Flag, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+flagColumns+` FROM fraud_flags WHERE id = $1`, uuid.UUID(id))
	f, err := scanFlag(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find fraud flag: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListByClaim(ctx context.Context, claimID domain.ClaimID) ([]*models.Flag, error) {
	return s.query(ctx, `SELECT `+flagColumns+` FROM fraud_flags
		WHERE claim_id = $1 ORDER BY flagged_at, id`, uuid.UUID(claimID))
}

func (s *PostgresStore) ListUnresolved(ctx context.Context) ([]*models.Flag, error) {
	return s.query(ctx, `SELECT `+flagColumns+` FROM fraud_flags
		WHERE NOT resolved ORDER BY flagged_at, id`)
}

// Resolve flips an open flag in a single conditional UPDATE so concurrent
// resolvers race on the row and exactly one wins.
func (s *PostgresStore) Resolve(ctx context.Context, id domain.FlagID, actor domain.Actor, at time.Time) (*models.Flag, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, `
		UPDATE fraud_flags
		SET resolved = TRUE, resolved_at = GREATEST($2::timestamptz, flagged_at), resolved_by = $3
		WHERE id = $1 AND NOT resolved
		RETURNING `+flagColumns,
		uuid.UUID(id), at.UTC().Truncate(time.Microsecond), actor.String())
	f, err := scanFlag(row)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve fraud flag: %w", err)
	}
	if _, findErr := s.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrAlreadyUsed
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]*models.Flag, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list fraud flags: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Flag, 0)
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fraud flag: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud flags: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlag(row rowScanner) (*models.Flag, error) {
	var (
		f          models.Flag
		id         uuid.UUID
		claimID    uuid.UUID
		flagType   string
		severity   string
		resolvedAt sql.NullTime
		resolvedBy sql.NullString
	)
	if err := row.Scan(&id, &claimID, &flagType, &severity, &f.Description, &f.FlaggedAt,
		&f.Resolved, &resolvedAt, &resolvedBy); err != nil {
		return nil, err
	}
	f.ID = domain.FlagID(id)
	f.ClaimID = domain.ClaimID(claimID)
	f.FlagType = models.FlagType(flagType)
	f.Severity = models.Severity(severity)
	f.FlaggedAt = f.FlaggedAt.UTC()
	if resolvedAt.Valid {
		at := resolvedAt.Time.UTC()
		f.ResolvedAt = &at
	}
	if resolvedBy.Valid {
		actor, err := domain.ParseActor(resolvedBy.String)
		if err != nil {
			return nil, fmt.Errorf("decode resolved_by: %w", err)
		}
		f.ResolvedBy = &actor
	}
	return &f, nil
}

func resolvedBy(a *domain.Actor) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: a.String(), Valid: true}
}

func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return sentinel.ErrConflict
		case foreignKeyViolation:
			return sentinel.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
