// Package revocation keeps the ids of access tokens that were revoked before
// their expiry.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	goredis "github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids until the token would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const keyPrefix = "organlink:revoked:"

type RedisDenylist struct {
	client *goredis.Client
	now    func() time.Time
}

// NewRedisDenylist returns a Denylist stored in client.
func NewRedisDenylist(client *goredis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

func (d *RedisDenylist) key(jti string) string {
	return keyPrefix + jti
}

// Revoke stores jti with a TTL ending at until. A token that has already
// expired needs no entry. Redis failures are reported as common.ErrTransient.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	if jti == "" {
		return errors.New("revocation: empty token id")
	}

	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, d.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke token: %w", common.ErrTransient, err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked and has not yet expired.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: check revocation: %w", common.ErrTransient, err)
	}
	return n > 0, nil
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
