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
	"testing"

	"github.com/matrixorigin/matrixmeta/pkg/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPebbleStore(t *testing.T) MetaStore {
	s, err := OpenPebbleStore(t.TempDir(), 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestPebbleStorePutGet(t *testing.T)         { testStorePutGet(t, newPebbleStore(t)) }
func TestPebbleStoreConflict(t *testing.T)       { testStoreConflict(t, newPebbleStore(t)) }
func TestPebbleStoreDropAndHistory(t *testing.T) { testStoreDropAndHistory(t, newPebbleStore(t)) }
func TestPebbleStoreScanOrder(t *testing.T)      { testStoreScanOrder(t, newPebbleStore(t)) }
func TestPebbleStoreSnapshotScan(t *testing.T)   { testStoreSnapshotScan(t, newPebbleStore(t)) }
func TestPebbleStoreNextID(t *testing.T)         { testStoreNextID(t, newPebbleStore(t)) }
func TestPebbleStoreClosed(t *testing.T)         { testStoreClosed(t, newPebbleStore(t)) }

func TestPebbleStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenPebbleStore(dir, 0)
	require.NoError(t, err)
	first := mustPutLive(t, s, meta.KindDatabase, "db1")
	mustDrop(t, s, meta.KindDatabase, "db1")
	second := mustPutLive(t, s, meta.KindDatabase, "db1")
	require.NoError(t, s.Close())

	s, err = OpenPebbleStore(dir, 0)
	require.NoError(t, err)
	defer s.Close()

	got, token, err := s.GetLive(ctx, meta.KindDatabase, "db1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, uint64(3), token)

	itr, err := s.ScanAll(ctx, meta.KindDatabase)
	require.NoError(t, err)
	all := collect(t, itr)
	require.Len(t, all, 2)
	assert.False(t, all[0].Live())
	assert.Equal(t, first.ID, all[0].ID)

	// ids keep climbing after a restart
	id, err := s.NextID(ctx)
	require.NoError(t, err)
	assert.Greater(t, id, second.ID)
}

func TestPebbleStoreCache(t *testing.T) {
	s, err := OpenPebbleStore(t.TempDir(), 8)
	require.NoError(t, err)
	mustPutLive(t, s, meta.KindDatabase, "db1")
	require.NoError(t, s.Close())
}
