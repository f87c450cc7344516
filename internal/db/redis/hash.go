package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docshelf/internal/db"
)

// HSet sets hash fields.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	_, err := s.do(ctx, func() rueidis.Completed {
		cmd := s.b().Hset().Key(key).FieldValue()
		for k, v := range fields {
			cmd = cmd.FieldValue(k, v)
		}
		return cmd.Build()
	})
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	res, err := s.do(ctx, func() rueidis.Completed {
		return s.b().Hgetall().Key(key).Build()
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	m, err := res.AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HGetAllMulti fetches all fields for multiple hashes in a single DoMulti round-trip.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	out := make([]map[string]string, len(results))

	for i, res := range results {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{
				Op:  db.OpHGetAll,
				Err: fmt.Errorf("key %s: %w", keys[i], classify(err)),
			}
		}
		out[i] = m
	}

	return out, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	_, err := s.do(ctx, func() rueidis.Completed {
		return s.b().Del().Key(key).Build()
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	res, err := s.do(ctx, func() rueidis.Completed {
		return s.b().Exists().Key(key).Build()
	})
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	count, err := res.AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}

// Scan iterates keys matching a pattern. The context bounds the whole
// iteration, so a cancelled caller stops the cursor walk mid-way.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		if err := ctx.Err(); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}

		res, err := s.do(ctx, func() rueidis.Completed {
			return s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		})
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		entry, err := res.AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
