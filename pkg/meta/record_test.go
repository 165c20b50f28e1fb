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

package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLive(t *testing.T) {
	r := &Record{ID: 1, Name: "ss1", Kind: KindDatabase, CreatedAt: time.Now()}
	assert.True(t, r.Live())

	now := time.Now().UTC()
	r.DroppedAt = &now
	assert.False(t, r.Live())

	v, err := EncodeRecord(r)
	require.NoError(t, err)
	back, err := DecodeRecord(v)
	require.NoError(t, err)
	assert.False(t, back.Live())
	assert.True(t, back.DroppedAt.Equal(now))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "database", KindDatabase.String())
	assert.Equal(t, "schema", KindSchema.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
