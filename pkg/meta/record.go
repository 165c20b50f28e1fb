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
	"encoding/json"
	"time"
)

// Kind tags a namespace record as a database or a schema.
type Kind byte

const (
	KindDatabase Kind = iota + 1
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindSchema:
		return "schema"
	}
	return "unknown"
}

// Record is a single namespace entry. A record is written once at create
// time and rewritten exactly once when it is dropped; DroppedAt is nil
// while the record is live and immutable once set. Records are never
// physically deleted, dropped ones stay visible through history scans.
type Record struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Kind      Kind       `json:"kind"`
	ParentID  uint64     `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DroppedAt *time.Time `json:"dropped_at,omitempty"`
}

// Live reports whether the record has not been dropped.
func (r *Record) Live() bool {
	return r.DroppedAt == nil
}

func EncodeRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRecord(v []byte) (*Record, error) {
	r := &Record{}
	if err := json.Unmarshal(v, r); err != nil {
		return nil, err
	}
	return r, nil
}
