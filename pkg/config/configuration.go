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
	"github.com/BurntSushi/toml"
	"github.com/matrixorigin/matrixmeta/pkg/logutil"
)

// MetaParameters of the metadata catalog
type MetaParameters struct {
	//directory holding the durable metadata store
	StorePath string `toml:"storePath"`

	//pebble block cache size in MB. 0 uses pebble's default
	StoreCacheMB int64 `toml:"storeCacheMB"`

	Log logutil.LogConfig `toml:"log"`
}

func (mp *MetaParameters) SetDefaultValues() {
	if mp.StorePath == "" {
		mp.StorePath = "./meta-data"
	}
	mp.Log.SetDefaultValues()
}

// LoadMetaParameters reads parameters from a toml file and fills in
// defaults for anything unset.
func LoadMetaParameters(configFile string) (*MetaParameters, error) {
	mp := &MetaParameters{}
	if _, err := toml.DecodeFile(configFile, mp); err != nil {
		return nil, err
	}
	mp.SetDefaultValues()
	return mp, nil
}
