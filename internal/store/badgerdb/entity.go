package badgerdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/smakiapp/smaki-server/internal/store"
)

// Entity provides JSON CRUD with unique secondary indexes for one record type.
// All methods run inside a caller-supplied transaction so several entities
// can change atomically.
type Entity[T any] struct {
	prefix  string
	indexes []Index[T]
}

// Index defines a unique secondary index on an entity.
type Index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string
}

// NewEntity creates an Entity whose records live under prefix.
func NewEntity[T any](prefix string) *Entity[T] {
	return &Entity[T]{prefix: prefix}
}

// WithIndex adds a unique secondary index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	return e.WithIndexTransform(name, keyGen, nil)
}

// WithIndexTransform adds a unique secondary index whose lookups are passed
// through lookupTransform first (case folding and the like).
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// Create stores v under id. Returns store.ErrAlreadyExists on an id or index clash.
func (e *Entity[T]) Create(txn *badger.Txn, id string, v *T) error {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	_, err := txn.Get(key)
	if err == nil {
		return store.ErrAlreadyExists
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check existing key: %w", err)
	}

	if err := e.checkIndexes(txn, id, v, nil); err != nil {
		return err
	}
	return e.write(txn, id, v, nil)
}

// Get loads the record with id. Returns store.ErrNotFound if absent.
func (e *Entity[T]) Get(txn *badger.Txn, id string) (*T, error) {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s%s: %w", e.prefix, id, err)
	}

	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("decode %s%s: %w", e.prefix, id, err)
	}
	return &v, nil
}

// LookupID resolves an index value to a record id. Returns store.ErrNotFound if absent.
func (e *Entity[T]) LookupID(txn *badger.Txn, indexName, value string) (string, error) {
	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	key := buildIndexKey(e.prefix, indexName, value)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// GetByIndex loads the record an index value points at.
func (e *Entity[T]) GetByIndex(txn *badger.Txn, indexName, value string) (*T, error) {
	id, err := e.LookupID(txn, indexName, value)
	if err != nil {
		return nil, err
	}
	return e.Get(txn, id)
}

// Update overwrites the record with id, moving its index entries.
// Returns store.ErrNotFound if absent and store.ErrAlreadyExists on an index clash.
func (e *Entity[T]) Update(txn *badger.Txn, id string, v *T) error {
	old, err := e.Get(txn, id)
	if err != nil {
		return err
	}
	if err := e.checkIndexes(txn, id, v, old); err != nil {
		return err
	}
	return e.write(txn, id, v, old)
}

// List calls fn for every record in key order until fn returns false.
func (e *Entity[T]) List(txn *badger.Txn, fn func(*T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(e.prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if strings.HasPrefix(string(item.Key()[len(e.prefix):]), indexInfix) {
			continue
		}

		var v T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return fmt.Errorf("decode %s: %w", item.Key(), err)
		}
		if !fn(&v) {
			return nil
		}
	}
	return nil
}

// checkIndexes fails if any index value of v belongs to a different record.
func (e *Entity[T]) checkIndexes(txn *badger.Txn, id string, v, old *T) error {
	for _, idx := range e.indexes {
		var previous []string
		if old != nil {
			previous = idx.keyGen(old)
		}
		for _, value := range idx.keyGen(v) {
			if slices.Contains(previous, value) {
				continue
			}
			owner, err := e.LookupID(txn, idx.name, value)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("check index %s: %w", idx.name, err)
			}
			if owner != id {
				return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s %q already in use", idx.name, value))
			}
		}
	}
	return nil
}

func (e *Entity[T]) write(txn *badger.Txn, id string, v, old *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s%s: %w", e.prefix, id, err)
	}

	for _, idx := range e.indexes {
		if old == nil {
			break
		}
		current := idx.keyGen(v)
		for _, value := range idx.keyGen(old) {
			if slices.Contains(current, value) {
				continue
			}
			if err := txn.Delete([]byte(e.prefix + indexInfix + idx.name + ":" + value)); err != nil {
				return fmt.Errorf("delete index %s: %w", idx.name, err)
			}
		}
	}

	if err := txn.Set([]byte(e.prefix+id), data); err != nil {
		return fmt.Errorf("set %s%s: %w", e.prefix, id, err)
	}
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(v) {
			if err := txn.Set([]byte(e.prefix+indexInfix+idx.name+":"+value), []byte(id)); err != nil {
				return fmt.Errorf("set index %s: %w", idx.name, err)
			}
		}
	}
	return nil
}
