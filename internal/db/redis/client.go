// Package redis implements the db facade on Redis via rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docshelf/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Retry policy for transient network failures. Server errors (including
// throttling) are never retried here.
const (
	retryMaxAttempts = 3
	retryBaseDelay   = 300 * time.Millisecond
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store via rueidis.
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// do executes a command with bounded exponential retry for transient
// transport failures. A reply from the server, error or not, stops retrying.
func (s *Store) do(ctx context.Context, build func() rueidis.Completed) (rueidis.RedisResult, error) {
	var res rueidis.RedisResult

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryBaseDelay

	err := backoff.Retry(func() error {
		res = s.client.Do(ctx, build())
		err := res.Error()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, retryMaxAttempts-1), ctx))

	return res, classify(err)
}

// isTransient reports whether err is worth retrying: a transport-level
// failure rather than a server reply or a cancelled context.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, isServerErr := rueidis.IsRedisErr(err); isServerErr {
		return false
	}
	return !rueidis.IsRedisNil(err)
}

// classify maps server load-shedding replies to db.ErrThrottled.
func classify(err error) error {
	if err == nil {
		return nil
	}
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return err
	}
	msg := strings.ToUpper(re.Error())
	if strings.HasPrefix(msg, "BUSY") || strings.HasPrefix(msg, "LOADING") || strings.HasPrefix(msg, "OOM") {
		return fmt.Errorf("%w: %s", db.ErrThrottled, re.Error())
	}
	return err
}
