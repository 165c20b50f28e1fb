// Copyright 2021 Matrix Origin
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

package metastore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/matrixorigin/matrixmeta/pkg/meta"
)

// memStore keeps the version log in a btree ordered the same way the
// pebble store orders its keys. It exists so the catalog can be tested
// without touching disk; the semantics match the durable store, only
// the durability is missing.
type memStore struct {
	mu       sync.RWMutex
	log      *btree.BTree
	pointers map[string]*namePointer
	nextID   uint64
	closed   bool
}

type logEntry struct {
	kind meta.Kind
	name string
	id   uint64
	ver  byte
	rec  *meta.Record
}

func (e *logEntry) Less(than btree.Item) bool {
	o := than.(*logEntry)
	if e.kind != o.kind {
		return e.kind < o.kind
	}
	if e.name != o.name {
		return e.name < o.name
	}
	if e.id != o.id {
		return e.id < o.id
	}
	return e.ver < o.ver
}

// NewMemStore returns an empty in-memory MetaStore.
func NewMemStore() MetaStore {
	return &memStore{
		log:      btree.New(8),
		pointers: make(map[string]*namePointer),
	}
}

func memPointerKey(kind meta.Kind, name string) string {
	return fmt.Sprintf("%c/%s", kindTag(kind), name)
}

func (s *memStore) Put(ctx context.Context, rec *meta.Record, expected uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	key := memPointerKey(rec.Kind, rec.Name)
	var token uint64
	if ptr, ok := s.pointers[key]; ok {
		token = ptr.Token
	}
	if token != expected {
		return ErrConflict
	}
	clone := *rec
	s.log.ReplaceOrInsert(&logEntry{
		kind: rec.Kind,
		name: rec.Name,
		id:   rec.ID,
		ver:  recordVer(rec),
		rec:  &clone,
	})
	s.pointers[key] = &namePointer{Token: token + 1, ID: rec.ID, Live: rec.Live()}
	return nil
}

func (s *memStore) GetLive(ctx context.Context, kind meta.Kind, name string) (*meta.Record, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, 0, ErrStoreUnavailable
	}
	ptr, ok := s.pointers[memPointerKey(kind, name)]
	if !ok {
		return nil, 0, nil
	}
	if !ptr.Live {
		return nil, ptr.Token, nil
	}
	item := s.log.Get(&logEntry{kind: kind, name: name, id: ptr.ID, ver: verCreated})
	if item == nil {
		return nil, 0, fmt.Errorf("%w: dangling pointer for %s %s", ErrStoreUnavailable, kind, name)
	}
	clone := *item.(*logEntry).rec
	return &clone, ptr.Token, nil
}

func (s *memStore) ScanLive(ctx context.Context, kind meta.Kind) (Iterator, error) {
	return s.scan(ctx, kind, true)
}

func (s *memStore) ScanAll(ctx context.Context, kind meta.Kind) (Iterator, error) {
	return s.scan(ctx, kind, false)
}

func (s *memStore) scan(ctx context.Context, kind meta.Kind, liveOnly bool) (Iterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	// Materialize the newest version per group under the read lock;
	// the iterator itself is then a private snapshot.
	var recs []*meta.Record
	var held *logEntry
	flush := func() {
		if held == nil {
			return
		}
		if !liveOnly || held.rec.Live() {
			clone := *held.rec
			recs = append(recs, &clone)
		}
	}
	s.log.AscendGreaterOrEqual(&logEntry{kind: kind}, func(item btree.Item) bool {
		e := item.(*logEntry)
		if e.kind != kind {
			return false
		}
		if held != nil {
			sameGroup := held.name == e.name && (liveOnly || held.id == e.id)
			if !sameGroup {
				flush()
			}
		}
		held = e
		return true
	})
	flush()
	return &sliceIterator{recs: recs}, nil
}

func (s *memStore) NextID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}
	s.nextID++
	return s.nextID, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type sliceIterator struct {
	recs []*meta.Record
	pos  int
}

func (i *sliceIterator) Valid() bool {
	return i.pos < len(i.recs)
}

func (i *sliceIterator) Next() {
	i.pos++
}

func (i *sliceIterator) Record() *meta.Record {
	return i.recs[i.pos]
}

func (i *sliceIterator) Rewind() {
	i.pos = 0
}

func (i *sliceIterator) Close() error {
	return nil
}
