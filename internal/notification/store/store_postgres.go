package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/notification/models"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, a *models.Attempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_attempts (id, claim_id, to_status, destination, attempted_at, succeeded, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, uuid.UUID(a.ClaimID), string(a.ToStatus), a.Destination, a.AttemptedAt, a.Succeeded,
		sql.NullString{String: a.ErrorDetail, Valid: a.ErrorDetail != ""})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert notification attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByClaim(ctx context.Context, claimID domain.ClaimID) ([]*models.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, to_status, destination, attempted_at, succeeded, error_detail
		FROM notification_attempts WHERE claim_id = $1 ORDER BY id`, uuid.UUID(claimID))
	if err != nil {
		return nil, fmt.Errorf("list notification attempts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Attempt, 0)
	for rows.Next() {
		var (
			a        models.Attempt
			id       uuid.UUID
			toStatus string
			detail   sql.NullString
		)
		if err := rows.Scan(&a.ID, &id, &toStatus, &a.Destination, &a.AttemptedAt, &a.Succeeded, &detail); err != nil {
			return nil, fmt.Errorf("scan notification attempt: %w", err)
		}
		a.ClaimID = domain.ClaimID(id)
		a.ToStatus = claimmodels.Status(toStatus)
		a.AttemptedAt = a.AttemptedAt.UTC()
		a.ErrorDetail = detail.String
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification attempts: %w", err)
	}
	return out, nil
}
