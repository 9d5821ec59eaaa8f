package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/partnerdex/internal/db"
)

const defaultScanCount = 100

// ReplaceHashes rewrites whole hashes inside one MULTI/EXEC: every key is
// deleted and set again, so fields absent from the new item do not survive
// and a failed write leaves the old hash in place.
func (s *Store) ReplaceHashes(ctx context.Context, items []db.HashSetItem) ([]bool, error) {
	if len(items) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, 2*len(items)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, item := range items {
		if len(item.Fields) == 0 {
			return nil, &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", item.Key)}
		}
		hset := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			hset = hset.FieldValue(k, v)
		}
		cmds = append(cmds, s.b().Del().Key(item.Key).Build(), hset.Build())
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	if len(results) != len(cmds) {
		return nil, &db.Error{Op: db.OpExec, Err: fmt.Errorf("got %d replies for %d commands", len(results), len(cmds))}
	}
	// MULTI and queued commands; a failure here aborts EXEC.
	for _, res := range results[:len(results)-1] {
		if err := res.Error(); err != nil {
			return nil, &db.Error{Op: db.OpExec, Err: err}
		}
	}

	replies, err := results[len(results)-1].ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpExec, Err: err}
	}
	if len(replies) != 2*len(items) {
		return nil, &db.Error{Op: db.OpExec, Err: fmt.Errorf("got %d exec replies, want %d", len(replies), 2*len(items))}
	}

	existed := make([]bool, len(items))
	for i, item := range items {
		n, err := replies[2*i].AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpDel, Err: fmt.Errorf("key %s: %w", item.Key, err)}
		}
		if err := replies[2*i+1].Error(); err != nil {
			return nil, &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", item.Key, err)}
		}
		existed[i] = n > 0
	}
	return existed, nil
}

// HGetAllMulti fetches all fields for multiple hashes in a single DoMulti round-trip.
// Keys deleted since they were scanned come back as empty maps.
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
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}

	return out, nil
}

// Del deletes keys and returns how many existed.
func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	cmd := s.b().Del().Key(keys...).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpDel, Err: err}
	}
	return n, nil
}

// Scan iterates keys matching a pattern. SCAN may return a key more than once;
// the result is deduplicated.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(s.scanCount).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		for _, k := range res.Elements {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
