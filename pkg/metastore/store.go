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
	"errors"

	"github.com/matrixorigin/matrixmeta/pkg/meta"
)

var (
	// ErrConflict is the error for a lost write race on a name token.
	ErrConflict = errors.New("metadata write conflict")
	// ErrStoreUnavailable is the error for a failed or closed durability layer.
	ErrStoreUnavailable = errors.New("metadata store unavailable")
)

// MetaStore is the durable backing for namespace records. Writes are
// acknowledged only after they are durable. Uniqueness of a live
// (kind, name) pair is enforced here through a per-name version token:
// every successful Put advances the token, and a Put whose expected
// token is stale fails with ErrConflict.
type MetaStore interface {
	// Put persists rec. expected must equal the current token for
	// rec's (kind, name); a name never written before has token 0.
	Put(ctx context.Context, rec *meta.Record, expected uint64) error

	// GetLive returns the live record for (kind, name), or nil if the
	// name is absent or dropped. The returned token is the current
	// per-name token, to be passed back to Put.
	GetLive(ctx context.Context, kind meta.Kind, name string) (*meta.Record, uint64, error)

	// ScanLive iterates all live records of a kind in name order, over
	// a snapshot taken at call time.
	ScanLive(ctx context.Context, kind meta.Kind) (Iterator, error)

	// ScanAll is ScanLive plus dropped records; the backing source for
	// history queries. Name order, then record id order within a name.
	ScanAll(ctx context.Context, kind meta.Kind) (Iterator, error)

	// NextID allocates a process-unique, monotonically increasing id.
	// Ids are never reused, even across restarts.
	NextID(ctx context.Context) (uint64, error)

	Close() error
}

// Iterator walks a snapshot of records. It is finite and restartable.
type Iterator interface {
	Valid() bool
	Next()
	Record() *meta.Record
	Rewind()
	Close() error
}
