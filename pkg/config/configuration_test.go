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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMetaParameters(t *testing.T) {
	file := filepath.Join(t.TempDir(), "meta.toml")
	content := `
storePath = "/var/lib/meta"
storeCacheMB = 64

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	mp, err := LoadMetaParameters(file)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/meta", mp.StorePath)
	assert.Equal(t, int64(64), mp.StoreCacheMB)
	assert.Equal(t, "debug", mp.Log.Level)
	assert.Equal(t, "json", mp.Log.Format)
	// defaults fill the gaps
	assert.Equal(t, 512, mp.Log.MaxSize)
}

func TestMetaParametersDefaults(t *testing.T) {
	mp := &MetaParameters{}
	mp.SetDefaultValues()
	assert.Equal(t, "./meta-data", mp.StorePath)
	assert.Equal(t, "info", mp.Log.Level)
	assert.Equal(t, "console", mp.Log.Format)
}

func TestLoadMetaParametersMissingFile(t *testing.T) {
	_, err := LoadMetaParameters(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
