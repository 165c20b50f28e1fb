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

package catalog

import (
	"context"
	"time"

	"github.com/google/btree"
	"github.com/matrixorigin/matrixmeta/pkg/meta"
	"github.com/matrixorigin/matrixmeta/pkg/metastore"
)

// HistoryRow is one row of the history view backing the front end's
// "databases with history" relation: (name, dropped_on).
type HistoryRow struct {
	ID        uint64
	Name      string
	DroppedAt *time.Time
}

// Dropped reports whether the row's record has been dropped. The check
// is the nullability of DroppedAt, not a constant, so the same row type
// serves views that also surface live records.
func (r HistoryRow) Dropped() bool {
	return r.DroppedAt != nil
}

// historyItem orders rows by drop time ascending, ties broken by id.
type historyItem struct {
	row HistoryRow
}

func (h *historyItem) Less(than btree.Item) bool {
	o := than.(*historyItem)
	if !h.row.DroppedAt.Equal(*o.row.DroppedAt) {
		return h.row.DroppedAt.Before(*o.row.DroppedAt)
	}
	return h.row.ID < o.row.ID
}

// QueryDropped returns every dropped record of the kind, ordered by drop
// time ascending. name narrows the result to one name when non-empty
// (dropped generations of a reused name all match); limit truncates the
// result when positive.
func (c *Catalog) QueryDropped(ctx context.Context, kind meta.Kind, name string, limit int) ([]HistoryRow, error) {
	itr, err := c.store.ScanAll(ctx, kind)
	if err != nil {
		return nil, err
	}
	tree := btree.New(8)
	for ; itr.Valid(); itr.Next() {
		rec := itr.Record()
		if rec.Live() {
			continue
		}
		if name != "" && rec.Name != name {
			continue
		}
		tree.ReplaceOrInsert(&historyItem{row: HistoryRow{
			ID:        rec.ID,
			Name:      rec.Name,
			DroppedAt: rec.DroppedAt,
		}})
	}
	// a scan failure must not read as an empty or shortened history
	if err := itr.Close(); err != nil {
		return nil, err
	}
	rows := make([]HistoryRow, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		rows = append(rows, item.(*historyItem).row)
		return limit <= 0 || len(rows) < limit
	})
	return rows, nil
}

// DatabasesWithHistory returns one row per database record that ever
// existed, live ones included with a nil DroppedAt, in name order then
// id order. The front end applies its own predicates and ordering on
// top of this.
func (c *Catalog) DatabasesWithHistory(ctx context.Context) ([]HistoryRow, error) {
	itr, err := c.store.ScanAll(ctx, meta.KindDatabase)
	if err != nil {
		return nil, err
	}
	var rows []HistoryRow
	for ; itr.Valid(); itr.Next() {
		rec := itr.Record()
		rows = append(rows, HistoryRow{
			ID:        rec.ID,
			Name:      rec.Name,
			DroppedAt: rec.DroppedAt,
		})
	}
	if err := itr.Close(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ScanHistory exposes the raw historical iterator of a kind for callers
// that page through records themselves.
func (c *Catalog) ScanHistory(ctx context.Context, kind meta.Kind) (metastore.Iterator, error) {
	return c.store.ScanAll(ctx, kind)
}
