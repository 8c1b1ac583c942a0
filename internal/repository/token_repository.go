package repository

import (
	"context"
	"database/sql"
	"time"
)

// RefreshTokenRecord mirrors one row of the 'refresh_tokens' table.  Only
// the SHA-256 hash of the raw token value is persisted.  ReplacedBy links a
// rotated-out token to the hash of its successor, forming the rotation
// chain used for forensic replay inspection.
type RefreshTokenRecord struct {
	ID         uint64
	UserID     uint64
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  sql.NullTime
	ReplacedBy sql.NullString
	IP         string
	UserAgent  string
	CreatedAt  time.Time
}

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row together with the issuing
// client metadata.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time, ip, userAgent string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, ip, user_agent) VALUES (?,?,?,?,?)",
		userID, tokenHash, exp, ip, userAgent)
	return err
}

// Rotate atomically retires the token identified by oldHash and records its
// successor.  The row is locked, checked to still be active and unexpired,
// marked revoked with a replaced_by pointer, and the successor row is
// inserted, all inside one transaction.  Two concurrent rotations of the
// same token therefore cannot both succeed: the loser either finds no
// active row or loses the conditional update and gets ErrInvalidRefresh.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, newExp time.Time, ip, userAgent string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		id     uint64
		userID uint64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, user_id FROM refresh_tokens WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP() LIMIT 1 FOR UPDATE",
		oldHash).Scan(&id, &userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrInvalidRefresh
		}
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(), replaced_by=? WHERE id=? AND revoked_at IS NULL",
		newHash, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, ErrInvalidRefresh // lost the race to a concurrent rotation
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, ip, user_agent) VALUES (?,?,?,?,?)",
		userID, newHash, newExp, ip, userAgent); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

// ValidateRefresh returns the owning record if a non-revoked, non-expired
// token with this hash exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (RefreshTokenRecord, error) {
	var rec RefreshTokenRecord
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, ip, user_agent, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.RevokedAt, &rec.ReplacedBy, &rec.IP, &rec.UserAgent, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return RefreshTokenRecord{}, ErrInvalidRefresh
		}
		return RefreshTokenRecord{}, err
	}
	if rec.RevokedAt.Valid {
		return RefreshTokenRecord{}, ErrInvalidRefresh
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return RefreshTokenRecord{}, ErrInvalidRefresh
	}
	return rec, nil
}

// RevokeByID marks a specific session as revoked, scoped to its owner.
// Returns ErrNotFound when no active session with this id belongs to the
// given user.
func (r *TokenRepo) RevokeByID(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND user_id=? AND revoked_at IS NULL",
		id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser revokes all user's active tokens.  Idempotent.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// ListByUser returns all refresh token rows for a user, newest first.
func (r *TokenRepo) ListByUser(ctx context.Context, userID uint64) ([]RefreshTokenRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, ip, user_agent, created_at FROM refresh_tokens WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RefreshTokenRecord
	for rows.Next() {
		var rec RefreshTokenRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.RevokedAt, &rec.ReplacedBy, &rec.IP, &rec.UserAgent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
