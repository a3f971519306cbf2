package cache

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/stylescan/stylescan/internal/scanner"
)

// BadgerCache implements a persistent cache backed by BadgerDB. Entries
// expire through Badger's native TTL support, so no sweeper is needed.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration

	hits   int64
	misses int64
}

// NewBadgerCache opens (or creates) a Badger database in dir.
func NewBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable BadgerDB logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db: %w", err)
	}

	return &BadgerCache{db: db, ttl: ttl}, nil
}

func (c *BadgerCache) Get(key string) ([]scanner.Finding, bool, error) {
	var findings []scanner.Finding

	err := c.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get([]byte(key))
		if getErr != nil {
			return getErr
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &findings)
		})
	})

	if err == badger.ErrKeyNotFound {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	atomic.AddInt64(&c.hits, 1)
	return findings, true, nil
}

func (c *BadgerCache) Set(key string, findings []scanner.Finding) error {
	data, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("marshaling findings: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (c *BadgerCache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (c *BadgerCache) Clear() error {
	return c.db.DropAll()
}

// Close runs a value-log GC pass and closes the database.
func (c *BadgerCache) Close() error {
	// ErrNoRewrite just means there was nothing worth compacting.
	if err := c.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		_ = c.db.Close()
		return err
	}
	return c.db.Close()
}

func (c *BadgerCache) Stats() Stats {
	var entries int
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			entries++
		}
		return nil
	})

	return Stats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: entries,
	}
}
