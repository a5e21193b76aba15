// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package boltstore implements pkg/kvstore.Store on top of
// go.etcd.io/bbolt, a pure-Go embedded ordered key-value store. bbolt's
// single-writer/multi-reader transaction model gives the Batch contract
// (atomic multi-key writes) for free, and its cursor-based ordered scans
// are exactly the primitive the range-overlap index's forward scans need.
package boltstore

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/datawire/depindex/pkg/kvstore"
)

// bucketName is the single bucket all six key families of the index live
// in; routing between them is by key prefix, not by bucket.
var bucketName = []byte("depindex")

// Store is a kvstore.Store backed by a bbolt database file.
type Store struct {
	db *bbolt.DB
}

var _ kvstore.Store = (*Store)(nil)

// Open opens (creating if necessary) a bbolt database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore.Open: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore.Open: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Batch(ctx context.Context, ops []kvstore.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, op := range ops {
			switch op.Kind {
			case kvstore.OpPut:
				if err := b.Put(op.Key, op.Value); err != nil {
					return err
				}
			case kvstore.OpDel:
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			default:
				return fmt.Errorf("boltstore: unknown op kind %d", op.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltstore.Batch: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltstore.Get: %w", err)
	}
	return value, value != nil, nil
}

func (s *Store) Del(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
	if err != nil {
		return fmt.Errorf("boltstore.Del: %w", err)
	}
	return nil
}

// Scan opens a long-lived read-only transaction and walks it with a
// cursor; the transaction is released when the returned stream is closed.
func (s *Store) Scan(ctx context.Context, opts kvstore.ScanOptions) (kvstore.RecordStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("boltstore.Scan: %w", err)
	}
	cur := tx.Bucket(bucketName).Cursor()
	return &recordStream{tx: tx, cur: cur, opts: opts}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("boltstore.Close: %w", err)
	}
	return nil
}

type recordStream struct {
	tx      *bbolt.Tx
	cur     *bbolt.Cursor
	opts    kvstore.ScanOptions
	started bool
	emitted int
	closed  bool
}

func (r *recordStream) Next(ctx context.Context) (kvstore.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return kvstore.Record{}, false, err
	}
	if r.closed {
		return kvstore.Record{}, false, nil
	}
	if r.opts.Limit > 0 && r.emitted >= r.opts.Limit {
		return kvstore.Record{}, false, nil
	}

	var k, v []byte
	if !r.started {
		r.started = true
		if len(r.opts.GT) > 0 {
			k, v = r.cur.Seek(r.opts.GT)
			if k != nil && string(k) <= string(r.opts.GT) {
				k, v = r.cur.Next()
			}
		} else {
			k, v = r.cur.First()
		}
	} else {
		k, v = r.cur.Next()
	}

	if k == nil {
		return kvstore.Record{}, false, nil
	}
	if len(r.opts.LT) > 0 && string(k) >= string(r.opts.LT) {
		return kvstore.Record{}, false, nil
	}

	r.emitted++
	rec := kvstore.Record{
		Key:   append([]byte(nil), k...),
		Value: append([]byte(nil), v...),
	}
	return rec, true, nil
}

func (r *recordStream) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.tx.Rollback(); err != nil {
		return fmt.Errorf("boltstore: closing scan: %w", err)
	}
	return nil
}
