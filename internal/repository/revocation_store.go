package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore holds revoked access tokens in Redis.  Each entry is
// written with a TTL equal to the token's remaining lifetime, so Redis
// drops the entry at the moment the token itself would have expired and
// the set never grows without bound.
type RevocationStore struct{ RDB *redis.Client }

func NewRevocationStore(rdb *redis.Client) *RevocationStore { return &RevocationStore{RDB: rdb} }

const revokedKeyPrefix = "revoked_access:"

// Revoke inserts a token hash into the set for the given remaining lifetime.
// Non-positive lifetimes are ignored: the token is already dead.
func (s *RevocationStore) Revoke(ctx context.Context, tokenHash string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	return s.RDB.Set(ctx, revokedKeyPrefix+tokenHash, "1", remaining).Err()
}

// IsRevoked reports whether a token hash is present in the set.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	n, err := s.RDB.Exists(ctx, revokedKeyPrefix+tokenHash).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
