package props

import (
	"encoding/xml"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// Key layout: "dp\x00" + path + "\x00" + clark(name). The NUL between
// path and name keeps a path's own properties and its descendants'
// under distinct, scannable prefixes.
const keyPrefix = "dp\x00"

// BadgerStore persists dead properties in a badger database so they
// survive server restarts.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("Path", dir).Msg("Opened property store")
	return &BadgerStore{db: db}, nil
}

func propKey(path string, name xml.Name) []byte {
	return []byte(keyPrefix + path + "\x00" + clark(name))
}

func pathPrefix(path string) []byte {
	return []byte(keyPrefix + path + "\x00")
}

func (s *BadgerStore) Names(path string) ([]xml.Name, error) {
	var names []xml.Name
	prefix := pathPrefix(path)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			names = append(names, parseClark(string(key[len(prefix):])))
		}
		return nil
	})
	return names, err
}

func (s *BadgerStore) Get(path string, name xml.Name) (string, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(propKey(path, name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}

func (s *BadgerStore) Set(path string, name xml.Name, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(propKey(path, name), []byte(value))
	})
}

func (s *BadgerStore) Remove(path string, name xml.Name) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(propKey(path, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *BadgerStore) RemoveTree(path string) error {
	keys, err := s.treeKeys(path)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) MoveTree(src, dst string) error {
	if err := s.CopyTree(src, dst); err != nil {
		return err
	}
	return s.RemoveTree(src)
}

func (s *BadgerStore) CopyTree(src, dst string) error {
	keys, err := s.treeKeys(src)
	if err != nil {
		return err
	}
	srcLen := len(keyPrefix) + len(src)

	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get(k)
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			nk := append([]byte(keyPrefix+dst), k[srcLen:]...)
			if err := txn.Set(nk, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// treeKeys gathers the keys of path's own properties plus every
// descendant's. Collected outside the write txn to keep it small.
func (s *BadgerStore) treeKeys(path string) ([][]byte, error) {
	var keys [][]byte
	prefixes := [][]byte{pathPrefix(path)}
	if path == "/" {
		prefixes = [][]byte{[]byte(keyPrefix + "/")}
	} else {
		prefixes = append(prefixes, []byte(keyPrefix+subtreePrefix(path)))
	}

	err := s.db.View(func(txn *badger.Txn) error {
		for _, prefix := range prefixes {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
		}
		return nil
	})
	return keys, err
}
