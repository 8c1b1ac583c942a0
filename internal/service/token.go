// Package service contains the token lifecycle service and the audit event
// publisher.  The token service owns issuance, rotation, revocation and
// verification of the access/refresh token pair; handlers never touch the
// token stores directly.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/online-exam-platform/internal/config"
	"github.com/iliyamo/online-exam-platform/internal/repository"
	"github.com/iliyamo/online-exam-platform/internal/utils"
)

// Verification failures are distinguishable internally for audit logging,
// but handlers collapse all of them into one generic 401 so clients cannot
// probe which check failed.
var (
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// RefreshStore is the persisted refresh-token table.  *repository.TokenRepo
// satisfies it; tests substitute an in-memory fake.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time, ip, userAgent string) error
	Rotate(ctx context.Context, oldHash, newHash string, newExp time.Time, ip, userAgent string) (uint64, error)
	ValidateRefresh(ctx context.Context, tokenHash string) (repository.RefreshTokenRecord, error)
	RevokeByID(ctx context.Context, id, userID uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]repository.RefreshTokenRecord, error)
}

// RevocationList is the self-expiring revoked access token set backed by
// Redis in production.
type RevocationList interface {
	Revoke(ctx context.Context, tokenHash string, remaining time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uint64
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// ClientMeta identifies the client a refresh token was issued to.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Session is the caller-facing projection of one refresh token row.  The
// raw token value never leaves the service; only issuance metadata does.
type Session struct {
	ID        uint64    `json:"id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	IsCurrent bool      `json:"is_current"`
}

// TokenService implements the access/refresh token lifecycle.
type TokenService struct {
	secret         string
	accessTTLMin   int
	refreshTTLDays int
	tokens         RefreshStore
	revoked        RevocationList
}

// NewTokenService wires the service from configuration and its two stores.
func NewTokenService(cfg config.Config, tokens RefreshStore, revoked RevocationList) *TokenService {
	return &TokenService{
		secret:         cfg.JWTSecret,
		accessTTLMin:   cfg.AccessTTLMin,
		refreshTTLDays: cfg.RefreshTTLDays,
		tokens:         tokens,
		revoked:        revoked,
	}
}

// IssueAccessToken mints a short-lived stateless signed access token.
func (s *TokenService) IssueAccessToken(userID uint64, role string) (utils.AccessToken, error) {
	return utils.NewAccessToken(s.secret, userID, role, s.accessTTLMin)
}

// IssueRefreshToken mints a long-lived refresh token and persists its hash
// as an active session for the user.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID uint64, meta ClientMeta) (utils.RefreshToken, error) {
	refresh, err := utils.NewRefreshToken(s.refreshTTLDays)
	if err != nil {
		return utils.RefreshToken{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, userID, utils.HashTokenRaw(refresh.Raw), refresh.Exp, meta.IP, meta.UserAgent); err != nil {
		return utils.RefreshToken{}, err
	}
	return refresh, nil
}

// Rotate exchanges a raw refresh token for a fresh one.  The store performs
// the revoke-and-replace atomically, so rotating the same value twice
// concurrently yields exactly one success; the loser gets
// repository.ErrInvalidRefresh.  Returns the owning user id and the new
// refresh token.
func (s *TokenService) Rotate(ctx context.Context, raw string, meta ClientMeta) (uint64, utils.RefreshToken, error) {
	next, err := utils.NewRefreshToken(s.refreshTTLDays)
	if err != nil {
		return 0, utils.RefreshToken{}, err
	}
	userID, err := s.tokens.Rotate(ctx, utils.HashTokenRaw(raw), utils.HashTokenRaw(next.Raw), next.Exp, meta.IP, meta.UserAgent)
	if err != nil {
		return 0, utils.RefreshToken{}, err
	}
	return userID, next, nil
}

// RevokeSession revokes one active session owned by ownerID.  Returns
// repository.ErrNotFound when no matching active session exists.
func (s *TokenService) RevokeSession(ctx context.Context, sessionID, ownerID uint64) error {
	return s.tokens.RevokeByID(ctx, sessionID, ownerID)
}

// RevokeAll revokes every active refresh token owned by the user.
func (s *TokenService) RevokeAll(ctx context.Context, ownerID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, ownerID)
}

// Logout denylists the presented access token for its remaining lifetime
// and opportunistically revokes the user's active refresh tokens.  Returns
// the subject user id for audit logging.
func (s *TokenService) Logout(ctx context.Context, accessToken string) (uint64, error) {
	claims, err := s.parseClaims(accessToken)
	if err != nil {
		return 0, err
	}
	if err := s.revoked.Revoke(ctx, utils.HashTokenRaw(accessToken), time.Until(claims.ExpiresAt)); err != nil {
		return 0, err
	}
	if err := s.tokens.RevokeAllForUser(ctx, claims.UserID); err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// VerifyAccess validates an access token: the revocation set is consulted
// first, so a revoked token is rejected even while its signature and expiry
// are still valid; then the signature and expiry are checked.
func (s *TokenService) VerifyAccess(ctx context.Context, accessToken string) (Claims, error) {
	revoked, err := s.revoked.IsRevoked(ctx, utils.HashTokenRaw(accessToken))
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, ErrTokenRevoked
	}
	return s.parseClaims(accessToken)
}

// Sessions lists all refresh token rows for the user as Session
// projections.  currentRaw, when non-empty, marks the caller's own session;
// it only counts as current while it still validates, so a revoked or
// expired cookie marks nothing.
func (s *TokenService) Sessions(ctx context.Context, ownerID uint64, currentRaw string) ([]Session, error) {
	records, err := s.tokens.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	currentID := uint64(0)
	if currentRaw != "" {
		if rec, err := s.tokens.ValidateRefresh(ctx, utils.HashTokenRaw(currentRaw)); err == nil && rec.UserID == ownerID {
			currentID = rec.ID
		}
	}
	out := make([]Session, 0, len(records))
	for _, rec := range records {
		out = append(out, Session{
			ID:        rec.ID,
			IP:        rec.IP,
			UserAgent: rec.UserAgent,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
			Revoked:   rec.RevokedAt.Valid,
			IsCurrent: currentID != 0 && rec.ID == currentID,
		})
	}
	return out, nil
}

// parseClaims verifies signature and expiry and extracts the claim set.
func (s *TokenService) parseClaims(accessToken string) (Claims, error) {
	tok, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	claims := Claims{}
	switch sub := mc["sub"].(type) {
	case float64:
		claims.UserID = uint64(sub)
	case string:
		parsed, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Claims{}, ErrTokenInvalid
		}
		claims.UserID = parsed
	default:
		return Claims{}, ErrTokenInvalid
	}
	if role, ok := mc["role"].(string); ok {
		claims.Role = role
	}
	if jti, ok := mc["jti"].(string); ok {
		claims.TokenID = jti
	}
	if exp, ok := mc["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return claims, nil
}
