// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const bucketDocuments = "documents"

// DB is a document collection persisted in a bbolt database file.
// Documents are keyed by their position so that order is preserved.
type DB struct {
	db *bolt.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &DB{db: db}, nil
}

// Close releases the database file.
func (db *DB) Close() error {
	return db.db.Close()
}

// Load reads the stored collection.
// If nothing has been saved yet, Load returns [DefaultCollection].
func (db *DB) Load() (*Collection, error) {
	var docs []Document
	err := db.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDocuments))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return errors.Wrapf(err, "document %x", k)
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "load documents")
	}
	if len(docs) == 0 {
		return DefaultCollection(), nil
	}
	c, err := NewCollection(docs)
	if err != nil {
		return nil, errors.Wrap(err, "load documents")
	}
	return c, nil
}

// Save replaces the stored collection with c in a single transaction.
func (db *DB) Save(c *Collection) error {
	err := db.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketDocuments)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket([]byte(bucketDocuments))
		if err != nil {
			return err
		}
		for i, doc := range c.docs {
			v, err := json.Marshal(doc)
			if err != nil {
				return errors.Wrapf(err, "document %q", doc.ID)
			}
			if err := b.Put(positionKey(i), v); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "save documents")
}

func positionKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}
