/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package stats

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-dlt/pkg/log"
)

const (
	BucketName = "statistics"
)

// Store keeps per-source statistics in a bbolt database so repeated
// scans of the same file can be served from the cache
type Store struct {
	DB *bbolt.DB
}

// NewStore opens the statistics database
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close ...
func (s *Store) Close() {
	s.DB.Close()
}

// Put stores the statistics for a source
func (s *Store) Put(source string, info *StatisticInfo) error {
	log.Debug("Storing statistics for: %s", source)
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", BucketName)
		}
		return b.Put([]byte(source), data)
	})
}

// Get loads the statistics for a source, nil when not cached
func (s *Store) Get(source string) (*StatisticInfo, error) {
	log.Debug("Loading statistics for: %s", source)
	var data []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", BucketName)
		}
		if v := b.Get([]byte(source)); v != nil {
			data = append(data, v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	info := NewStatisticInfo()
	if err := json.Unmarshal(data, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Sources lists all sources with cached statistics
func (s *Store) Sources() ([]string, error) {
	var sources []string
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", BucketName)
		}
		return b.ForEach(func(k, v []byte) error {
			sources = append(sources, string(k))
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return sources, nil
}
