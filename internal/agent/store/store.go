// Package store persists the agent's cached rule snapshot and local counters
// in a bbolt file.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

var (
	bucketRules = []byte("rules")
	bucketMeta  = []byte("meta")
	bucketStats = []byte("stats")

	keyLastSync   = []byte("last_sync")
	keyServerTime = []byte("server_timestamp")
	keyCounters   = []byte("counters")
)

// Store is the agent's local database.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRules, bucketMeta, bucketStats} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ReplaceSnapshot swaps the cached rules for snap and stamps syncedAt as the
// last successful sync. Readers see either the old set or the new one.
func (s *Store) ReplaceSnapshot(snap policy.Snapshot, syncedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRules); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return err
		}
		rules, err := tx.CreateBucket(bucketRules)
		if err != nil {
			return err
		}
		for _, rule := range snap.Rules {
			data, err := json.Marshal(rule)
			if err != nil {
				return fmt.Errorf("rule %s: %w", rule.ID, err)
			}
			if err := rules.Put([]byte(rule.ID), data); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyLastSync, encodeTime(syncedAt)); err != nil {
			return err
		}
		return meta.Put(keyServerTime, encodeTime(snap.Timestamp))
	})
}

// Rules returns the cached rules ordered by id.
func (s *Store) Rules() ([]policy.Rule, error) {
	rules := make([]policy.Rule, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRules)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rule policy.Rule
			if err := json.Unmarshal(v, &rule); err != nil {
				return fmt.Errorf("rule %s: %w", k, err)
			}
			rules = append(rules, rule)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// LastSync returns the time of the last successful sync. ok is false when
// the agent has never synced.
func (s *Store) LastSync() (t time.Time, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyLastSync)
		if len(v) != 8 {
			return nil
		}
		t, ok = decodeTime(v), true
		return nil
	})
	return t, ok, err
}

// Stats returns the persisted counters, zero when none were saved.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketStats).Get(keyCounters)
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &st)
	})
	return st, err
}

// UpdateStats applies fn to the persisted counters inside one transaction.
func (s *Store) UpdateStats(fn func(Stats) Stats) (Stats, error) {
	var out Stats
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketStats)
		var st Stats
		if v := b.Get(keyCounters); v != nil {
			if err := json.Unmarshal(v, &st); err != nil {
				return err
			}
		}
		out = fn(st)
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return b.Put(keyCounters, data)
	})
	return out, err
}

func encodeTime(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))
	return buf
}

func decodeTime(b []byte) time.Time {
	return time.Unix(0, int64(binary.BigEndian.Uint64(b))).UTC()
}
