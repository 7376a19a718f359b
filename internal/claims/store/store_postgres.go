package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/sentinel"
	txcontext "claimtriage/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists claims and tracking events in PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres constructs a PostgreSQL-backed claim store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultTxTimeout}
}

const claimColumns = `id, owner_id, claim_type, insurance_type, amount_claimed, incident_date,
	description, document_refs, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, claim *models.Claim) error {
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(claim.ID),
		claim.OwnerID,
		string(claim.ClaimType),
		string(claim.InsuranceType),
		claim.AmountClaimed.Minor(),
		claim.IncidentDate.Time,
		claim.Description,
		pq.Array(nonNil(claim.DocumentRefs)),
		string(claim.Status),
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ClaimID) (*models.Claim, error) {
	row := txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1`, uuid.UUID(id))
	c, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find claim by id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Claim, error) {
	return s.ListAll(ctx, models.Filter{OwnerID: ownerID})
}

// ListAll returns matching claims, newest first.
func (s *PostgresStore) ListAll(ctx context.Context, filter models.Filter) ([]*models.Claim, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + claimColumns + ` FROM claims` + where + ` ORDER BY created_at DESC, id`
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

// History returns the claim's ledger ordered by insertion, oldest first.
func (s *PostgresStore) History(ctx context.Context, id domain.ClaimID) ([]*models.TrackingEvent, error) {
	exec := txcontext.Pick(ctx, s.db)
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM claims WHERE id = $1)`, uuid.UUID(id),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check claim: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT claim_id, from_status, to_status, actor_id, actor_role, notes, occurred_at
		FROM tracking_events
		WHERE claim_id = $1
		ORDER BY occurred_at, id`, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	var out []*models.TrackingEvent
	for rows.Next() {
		var (
			e         models.TrackingEvent
			claimID   uuid.UUID
			from, to  string
			actorID   string
			actorRole string
		)
		if err := rows.Scan(&claimID, &from, &to, &actorID, &actorRole, &e.Notes, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan tracking event: %w", err)
		}
		e.ClaimID = domain.ClaimID(claimID)
		e.FromStatus = models.Status(from)
		e.ToStatus = models.Status(to)
		e.Actor = domain.Actor{ID: actorID, Role: domain.ActorRole(actorRole)}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking events: %w", err)
	}
	return out, nil
}

// RunInTx opens a database transaction for one claim's unit of work. The
// row lock taken by ClaimForUpdate serializes concurrent transitions. The
// context handed to fn carries the transaction, so Postgres stores sharing
// the database read inside it.
func (s *PostgresStore) RunInTx(ctx context.Context, id domain.ClaimID, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, sqlTx), &pgTx{tx: sqlTx, id: id}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit claim tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
	id domain.ClaimID
}

func (t *pgTx) ClaimForUpdate(ctx context.Context, id domain.ClaimID) (*models.Claim, error) {
	if id != t.id {
		return nil, sentinel.ErrConflict
	}
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	c, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock claim: %w", err)
	}
	return c, nil
}

func (t *pgTx) UpdateStatus(ctx context.Context, id domain.ClaimID, from, to models.Status, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE claims SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(to), at, uuid.UUID(id), string(from))
	if err != nil {
		return fmt.Errorf("update claim status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update claim status: %w", err)
	}
	if n != 1 {
		return sentinel.ErrConflict
	}
	return nil
}

func (t *pgTx) Append(ctx context.Context, e *models.TrackingEvent) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO tracking_events (claim_id, from_status, to_status, actor_id, actor_role, notes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(e.ClaimID), string(e.FromStatus), string(e.ToStatus),
		e.Actor.ID, string(e.Actor.Role), e.Notes, e.Timestamp)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append tracking event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		c             models.Claim
		id            uuid.UUID
		claimType     string
		insuranceType string
		amount        int64
		incident      time.Time
		refs          []string
		status        string
	)
	if err := row.Scan(&id, &c.OwnerID, &claimType, &insuranceType, &amount, &incident,
		&c.Description, pq.Array(&refs), &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = domain.ClaimID(id)
	c.ClaimType = models.ClaimType(claimType)
	c.InsuranceType = models.InsuranceType(insuranceType)
	c.AmountClaimed = models.Amount(amount)
	c.IncidentDate = models.NewDate(incident)
	c.DocumentRefs = nonNil(refs)
	c.Status = models.Status(status)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func filterClause(f models.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(toStrings(f.Statuses)))
	}
	if len(f.ClaimTypes) > 0 {
		add("claim_type = ANY($%d)", pq.Array(toStrings(f.ClaimTypes)))
	}
	if len(f.InsuranceTypes) > 0 {
		add("insurance_type = ANY($%d)", pq.Array(toStrings(f.InsuranceTypes)))
	}
	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		add("created_at < $%d", f.CreatedTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func nonNil(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return refs
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
