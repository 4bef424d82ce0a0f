// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists submitted clusters in a LevelDB database.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("cluster already recorded")
)

const (
	clusterPrefix = "cluster/"
	namePrefix    = "name/"
)

// Store holds one record per cluster id, plus an index by job name.
type Store struct {
	db *leveldb.DB
}

// Open creates or opens the database directory at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create parent of %s", path)
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open job database %s", path)
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a store that lives only in memory.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory job database")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func clusterKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", clusterPrefix, id))
}

func nameKey(name string, id int) []byte {
	return []byte(fmt.Sprintf("%s%s/%010d", namePrefix, name, id))
}

// Put stores r. A cluster id can only be recorded once.
func (s *Store) Put(r *Record) error {
	key := clusterKey(r.ClusterID)
	exists, err := s.db.Has(key, nil)
	if err != nil {
		return errors.Wrap(err, "failed to check for existing record")
	}
	if exists {
		return errors.Wrapf(ErrExists, "cluster %d", r.ClusterID)
	}
	value, err := json.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "failed to encode record of cluster %d", r.ClusterID)
	}

	batch := new(leveldb.Batch)
	batch.Put(key, value)
	batch.Put(nameKey(r.JobName, r.ClusterID), key)
	return errors.Wrapf(s.db.Write(batch, nil), "failed to write record of cluster %d", r.ClusterID)
}

// Get returns the record of cluster id.
func (s *Store) Get(id int) (*Record, error) {
	value, err := s.db.Get(clusterKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "cluster %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cluster %d", id)
	}
	return decode(value)
}

func decode(value []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(value, &r); err != nil {
		return nil, errors.Wrap(err, "failed to decode record")
	}
	return &r, nil
}

// List returns every record in cluster id order.
func (s *Store) List() ([]*Record, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(clusterPrefix)), nil)
	defer iter.Release()

	var out []*Record
	for iter.Next() {
		r, err := decode(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(iter.Error(), "failed to iterate records")
}

// ByName returns the records of every cluster submitted under job name.
func (s *Store) ByName(name string) ([]*Record, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(namePrefix+name+"/")), nil)
	defer iter.Release()

	var out []*Record
	for iter.Next() {
		value, err := s.db.Get(iter.Value(), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "dangling index entry %s", iter.Key())
		}
		r, err := decode(value)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, errors.Wrap(iter.Error(), "failed to iterate index")
}
