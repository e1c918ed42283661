package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alphard-edu/exam-registration-api/internal/models"
)

// AdminRepository provides database access to the credential store and the
// refresh token table.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail returns an admin by email address.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const query = `SELECT id, email, password_hash, created_at FROM admins WHERE email = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	const query = `SELECT id, email, password_hash, created_at FROM admins WHERE id = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// EnsureSeed inserts the configured admin account when it does not exist
// yet. Returns true when a row was created.
func (r *AdminRepository) EnsureSeed(ctx context.Context, email, passwordHash string) (bool, error) {
	const query = `INSERT INTO admins (email, password_hash, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (email) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed admin rows affected: %w", err)
	}
	return affected > 0, nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *AdminRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, admin_id, token, expires_at, created_at, revoked, revoked_at)
		VALUES (:id, :admin_id, :token, :expires_at, :created_at, :revoked, :revoked_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *AdminRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, admin_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *AdminRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAdminRefreshTokens revokes every live refresh token for an admin.
func (r *AdminRepository) RevokeAdminRefreshTokens(ctx context.Context, adminID int64) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE admin_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, adminID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke admin refresh tokens: %w", err)
	}
	return nil
}
