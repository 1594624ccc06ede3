package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"grace/internal/auth/models"
	id "grace/pkg/domain"
	"grace/pkg/platform/sentinel"
)

const principalColumns = `id, COALESCE(external_id, ''), email, password_hash, first_name, last_name, role, status, created_at`

// PostgresStore persists principals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed principal store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*models.Principal, error) {
	var (
		p            models.Principal
		principalID  string
		role, status string
		createdAt    time.Time
	)
	if err := row.Scan(&principalID, &p.ExternalID, &p.Email, &p.PasswordHash,
		&p.FirstName, &p.LastName, &role, &status, &createdAt); err != nil {
		return nil, err
	}
	p.ID = id.PrincipalID(principalID)
	p.Role = models.Role(role)
	p.Status = models.Status(status)
	p.CreatedAt = createdAt
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, principal *models.Principal) error {
	if principal == nil || principal.ID.IsNil() {
		return fmt.Errorf("principal id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO principals (id, external_id, email, password_hash, first_name, last_name, role, status, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)`,
		principal.ID.String(), principal.ExternalID, principal.Email, principal.PasswordHash,
		principal.FirstName, principal.LastName, string(principal.Role), string(principal.Status), principal.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("principal already exists: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	return s.findOne(ctx, "find principal by id",
		`SELECT `+principalColumns+` FROM principals WHERE id = $1`, principalID.String())
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
	}
	return s.findOne(ctx, "find principal by email",
		`SELECT `+principalColumns+` FROM principals WHERE email = $1`, email)
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, externalID string) (*models.Principal, error) {
	if externalID == "" {
		return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
	}
	return s.findOne(ctx, "find principal by external id",
		`SELECT `+principalColumns+` FROM principals WHERE external_id = $1`, externalID)
}

// FindOrCreateByExternalID inserts principal unless its external id is taken,
// then reads back whichever row holds that id.
func (s *PostgresStore) FindOrCreateByExternalID(ctx context.Context, principal *models.Principal) (*models.Principal, error) {
	if principal == nil || principal.ExternalID == "" {
		return nil, fmt.Errorf("external id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin principal upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO principals (id, external_id, email, password_hash, first_name, last_name, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO NOTHING`,
		principal.ID.String(), principal.ExternalID, principal.Email, principal.PasswordHash,
		principal.FirstName, principal.LastName, string(principal.Role), string(principal.Status), principal.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email in use: %w", sentinel.ErrAlreadyUsed)
		}
		return nil, fmt.Errorf("insert principal: %w", err)
	}

	found, err := scanPrincipal(tx.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE external_id = $1`, principal.ExternalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find principal after upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit principal upsert: %w", err)
	}
	return found, nil
}

// Update applies only the fields present in patch in a single statement.
func (s *PostgresStore) Update(ctx context.Context, principalID id.PrincipalID, patch models.Patch) (*models.Principal, error) {
	var role, status *string
	if patch.Role != nil {
		r := string(*patch.Role)
		role = &r
	}
	if patch.Status != nil {
		st := string(*patch.Status)
		status = &st
	}

	updated, err := scanPrincipal(s.db.QueryRowContext(ctx, `
		UPDATE principals SET
			password_hash = COALESCE($2, password_hash),
			email         = COALESCE($3, email),
			first_name    = COALESCE($4, first_name),
			last_name     = COALESCE($5, last_name),
			role          = COALESCE($6, role),
			status        = COALESCE($7, status)
		WHERE id = $1
		RETURNING `+principalColumns,
		principalID.String(), patch.PasswordHash, patch.Email, patch.FirstName, patch.LastName, role, status,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email in use: %w", sentinel.ErrAlreadyUsed)
		}
		return nil, fmt.Errorf("update principal: %w", err)
	}
	return updated, nil
}

// ListAll returns every principal ordered by creation time.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Principal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+principalColumns+` FROM principals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	defer rows.Close()

	var out []*models.Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (*models.Principal, error) {
	p, err := scanPrincipal(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("principal not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
