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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/fagongzi/util/format"
	"github.com/matrixorigin/matrixmeta/pkg/logutil"
	"github.com/matrixorigin/matrixmeta/pkg/meta"
	"go.uber.org/zap"
)

// Key layout. Names cannot contain '/' (the validator rejects it), so the
// separator preserves name order under byte comparison.
//
//	/meta/Seq                      last allocated id, 8 bytes
//	/meta/P/<k>/<name>             name pointer (token, id, live)
//	/meta/L/<k>/<name>/<id8><ver>  record version log, immutable entries
var (
	cSeqKey      = []byte("/meta/Seq")
	cPointerPath = "/meta/P/"
	cLogPath     = "/meta/L/"
	verCreated   = byte(1)
	verDropped   = byte(2)
)

// namePointer is the current head of a name's version log. Token advances
// on every successful Put for the name and never goes back, across record
// generations; it is the compare-and-swap target for writers.
type namePointer struct {
	Token uint64 `json:"token"`
	ID    uint64 `json:"id"`
	Live  bool   `json:"live"`
}

type pebbleStore struct {
	mu     sync.Mutex
	db     *pebble.DB
	logger *zap.Logger
	closed bool
}

// OpenPebbleStore opens (creating if needed) a durable store at dirname.
// cacheMB <= 0 uses pebble's default block cache.
func OpenPebbleStore(dirname string, cacheMB int64) (MetaStore, error) {
	opts := &pebble.Options{}
	if cacheMB > 0 {
		cache := pebble.NewCache(cacheMB << 20)
		opts.Cache = cache
		defer cache.Unref()
	}
	db, err := pebble.Open(dirname, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &pebbleStore{
		db:     db,
		logger: logutil.GetGlobalLogger().Named("metastore"),
	}, nil
}

func kindTag(kind meta.Kind) byte {
	switch kind {
	case meta.KindDatabase:
		return 'D'
	case meta.KindSchema:
		return 'S'
	}
	return 'U'
}

func pointerKey(kind meta.Kind, name string) []byte {
	var buf bytes.Buffer
	buf.WriteString(cPointerPath)
	buf.WriteByte(kindTag(kind))
	buf.WriteByte('/')
	buf.WriteString(name)
	return buf.Bytes()
}

func logPrefix(kind meta.Kind) []byte {
	var buf bytes.Buffer
	buf.WriteString(cLogPath)
	buf.WriteByte(kindTag(kind))
	buf.WriteByte('/')
	return buf.Bytes()
}

func logKey(kind meta.Kind, name string, id uint64, ver byte) []byte {
	var buf bytes.Buffer
	buf.Write(logPrefix(kind))
	buf.WriteString(name)
	buf.WriteByte('/')
	buf.Write(format.Uint64ToBytes(id))
	buf.WriteByte(ver)
	return buf.Bytes()
}

// parseLogKey recovers (name, id) from a version log key. The name is
// copied out because iterator keys are only valid until the next step.
func parseLogKey(prefix, key []byte) (string, uint64) {
	rest := key[len(prefix):]
	i := bytes.IndexByte(rest, '/')
	name := string(rest[:i])
	return name, format.MustBytesToUint64(rest[i+1 : i+9])
}

func recordVer(rec *meta.Record) byte {
	if rec.Live() {
		return verCreated
	}
	return verDropped
}

func (s *pebbleStore) get(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	r := make([]byte, len(v))
	copy(r, v)
	closer.Close()
	return r, nil
}

func (s *pebbleStore) getPointer(kind meta.Kind, name string) (*namePointer, error) {
	v, err := s.get(pointerKey(kind, name))
	if err != nil || v == nil {
		return nil, err
	}
	ptr := &namePointer{}
	if err := json.Unmarshal(v, ptr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ptr, nil
}

func (s *pebbleStore) Put(ctx context.Context, rec *meta.Record, expected uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	ptr, err := s.getPointer(rec.Kind, rec.Name)
	if err != nil {
		return err
	}
	var token uint64
	if ptr != nil {
		token = ptr.Token
	}
	if token != expected {
		return ErrConflict
	}
	value, err := meta.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	next := &namePointer{Token: token + 1, ID: rec.ID, Live: rec.Live()}
	ptrValue, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// The log entry and the pointer move together or not at all; the
	// batch is committed with a synced WAL before Put acknowledges.
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(logKey(rec.Kind, rec.Name, rec.ID, recordVer(rec)), value, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := batch.Set(pointerKey(rec.Kind, rec.Name), ptrValue, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.logger.Debug("record persisted",
		zap.String("kind", rec.Kind.String()),
		zap.String("name", rec.Name),
		zap.Uint64("id", rec.ID),
		zap.Bool("live", rec.Live()))
	return nil
}

func (s *pebbleStore) GetLive(ctx context.Context, kind meta.Kind, name string) (*meta.Record, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrStoreUnavailable
	}
	ptr, err := s.getPointer(kind, name)
	if err != nil {
		return nil, 0, err
	}
	if ptr == nil {
		return nil, 0, nil
	}
	if !ptr.Live {
		return nil, ptr.Token, nil
	}
	v, err := s.get(logKey(kind, name, ptr.ID, verCreated))
	if err != nil {
		return nil, 0, err
	}
	if v == nil {
		return nil, 0, fmt.Errorf("%w: dangling pointer for %s %s", ErrStoreUnavailable, kind, name)
	}
	rec, err := meta.DecodeRecord(v)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return rec, ptr.Token, nil
}

func (s *pebbleStore) ScanLive(ctx context.Context, kind meta.Kind) (Iterator, error) {
	return s.scan(ctx, kind, true)
}

func (s *pebbleStore) ScanAll(ctx context.Context, kind meta.Kind) (Iterator, error) {
	return s.scan(ctx, kind, false)
}

func (s *pebbleStore) scan(ctx context.Context, kind meta.Kind, liveOnly bool) (Iterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	itr := &pebbleIterator{
		snap:     s.db.NewSnapshot(),
		prefix:   logPrefix(kind),
		liveOnly: liveOnly,
	}
	itr.Rewind()
	return itr, nil
}

func (s *pebbleStore) NextID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}
	v, err := s.get(cSeqKey)
	if err != nil {
		return 0, err
	}
	var last uint64
	if v != nil {
		last = format.MustBytesToUint64(v)
	}
	id := last + 1
	// Synced before returning so an id handed out is never handed out
	// again after a crash.
	if err := s.db.Set(cSeqKey, format.Uint64ToBytes(id), pebble.Sync); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

func (s *pebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// pebbleIterator walks the version log over a snapshot, yielding the
// newest version per name (liveOnly) or per record id. Log keys group a
// name's versions contiguously in id then version order, so the newest
// entry of a group is the last one before the group key changes.
type pebbleIterator struct {
	snap     *pebble.Snapshot
	it       *pebble.Iterator
	prefix   []byte
	liveOnly bool
	cur      *meta.Record
	err      error
}

func (i *pebbleIterator) Rewind() {
	if i.it != nil {
		i.it.Close()
	}
	i.it = i.snap.NewIter(&pebble.IterOptions{
		LowerBound: i.prefix,
		UpperBound: prefixUpperBound(i.prefix),
	})
	i.it.First()
	i.fill()
}

func (i *pebbleIterator) fill() {
	i.cur = nil
	for i.it.Valid() {
		name, id := parseLogKey(i.prefix, i.it.Key())
		rec, err := meta.DecodeRecord(i.it.Value())
		if err != nil {
			i.err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			return
		}
		i.it.Next()
		if i.it.Valid() {
			nextName, nextID := parseLogKey(i.prefix, i.it.Key())
			if i.liveOnly {
				if nextName == name {
					continue
				}
			} else if nextName == name && nextID == id {
				continue
			}
		}
		if i.liveOnly && !rec.Live() {
			continue
		}
		i.cur = rec
		return
	}
}

func (i *pebbleIterator) Valid() bool {
	return i.cur != nil
}

func (i *pebbleIterator) Next() {
	i.fill()
}

func (i *pebbleIterator) Record() *meta.Record {
	return i.cur
}

func (i *pebbleIterator) Close() error {
	err := i.err
	if cerr := i.it.Close(); err == nil {
		err = cerr
	}
	if cerr := i.snap.Close(); err == nil {
		err = cerr
	}
	return err
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(k []byte) []byte {
	u := make([]byte, len(k))
	copy(u, k)
	for i := len(u) - 1; i >= 0; i-- {
		u[i] = u[i] + 1
		if u[i] != 0 {
			return u[:i+1]
		}
	}
	return nil
}
