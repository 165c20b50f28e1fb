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
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/matrixorigin/matrixmeta/pkg/logutil"
	"github.com/matrixorigin/matrixmeta/pkg/meta"
	"github.com/matrixorigin/matrixmeta/pkg/metastore"
	"go.uber.org/zap"
)

// Catalog orchestrates namespace lifecycle against an injected MetaStore.
// Uniqueness under concurrent writers is enforced optimistically: every
// write carries the per-name token read beforehand, and a lost race shows
// up as metastore.ErrConflict, which is retried once with a fresh read
// before being surfaced.
type Catalog struct {
	store  metastore.MetaStore
	logger *zap.Logger
}

func NewCatalog(store metastore.MetaStore) *Catalog {
	return &Catalog{
		store:  store,
		logger: logutil.GetGlobalLogger().Named("catalog"),
	}
}

// CreateDatabase registers a new database and its default schema of the
// same name. With ifNotExists, an existing live database makes the call
// a no-op returning the existing id.
func (c *Catalog) CreateDatabase(ctx context.Context, name string, ifNotExists bool) (uint64, error) {
	name, err := Validate(name)
	if err != nil {
		return 0, err
	}
	id, created, err := c.createOne(ctx, meta.KindDatabase, 0, name, ifNotExists)
	if err != nil {
		return 0, err
	}
	if created {
		if err := c.createDefaultSchema(ctx, id, name); err != nil {
			return 0, err
		}
		c.logger.Info("database created", zap.String("name", name), zap.Uint64("id", id))
	}
	return id, nil
}

// CreateSchema registers a schema under the database identified by dbID.
func (c *Catalog) CreateSchema(ctx context.Context, dbID uint64, name string, ifNotExists bool) (uint64, error) {
	name, err := Validate(name)
	if err != nil {
		return 0, err
	}
	id, created, err := c.createOne(ctx, meta.KindSchema, dbID, name, ifNotExists)
	if created {
		c.logger.Info("schema created", zap.String("name", name), zap.Uint64("id", id))
	}
	return id, err
}

// DropDatabase tombstones the live database of the given name along with
// its live schemas. With ifExists, an absent name is a successful no-op;
// repeating the call is always safe.
func (c *Catalog) DropDatabase(ctx context.Context, name string, ifExists bool) error {
	name, err := Validate(name)
	if err != nil {
		return err
	}
	rec, err := c.dropOne(ctx, meta.KindDatabase, name, ifExists)
	if err != nil || rec == nil {
		return err
	}
	if err := c.dropChildSchemas(ctx, rec.ID); err != nil {
		return err
	}
	c.logger.Info("database dropped", zap.String("name", name), zap.Uint64("id", rec.ID))
	return nil
}

// DropSchema tombstones the live schema of the given name.
func (c *Catalog) DropSchema(ctx context.Context, name string, ifExists bool) error {
	name, err := Validate(name)
	if err != nil {
		return err
	}
	rec, err := c.dropOne(ctx, meta.KindSchema, name, ifExists)
	if rec != nil {
		c.logger.Info("schema dropped", zap.String("name", name), zap.Uint64("id", rec.ID))
	}
	return err
}

// UndropDatabase revives a dropped database name. The historical
// tombstone stays immutable; revival registers a fresh record under a
// new id, so history keeps every generation.
func (c *Catalog) UndropDatabase(ctx context.Context, name string) (uint64, error) {
	name, err := Validate(name)
	if err != nil {
		return 0, err
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rec, token, err := c.store.GetLive(ctx, meta.KindDatabase, name)
		if err != nil {
			return 0, err
		}
		if rec != nil {
			return 0, fmt.Errorf("%w: database %s", ErrAlreadyExists, name)
		}
		tomb, err := c.latestTombstone(ctx, meta.KindDatabase, name)
		if err != nil {
			return 0, err
		}
		if tomb == nil {
			return 0, fmt.Errorf("%w: database %s", ErrNotFound, name)
		}
		id, err := c.store.NextID(ctx)
		if err != nil {
			return 0, err
		}
		revived := &meta.Record{
			ID:        id,
			Name:      name,
			Kind:      meta.KindDatabase,
			CreatedAt: time.Now().UTC(),
		}
		err = c.store.Put(ctx, revived, token)
		if err == nil {
			if err := c.createDefaultSchema(ctx, id, name); err != nil {
				return 0, err
			}
			c.logger.Info("database undropped",
				zap.String("name", name),
				zap.Uint64("id", id),
				zap.Uint64("previousID", tomb.ID))
			return id, nil
		}
		if errors.Is(err, metastore.ErrConflict) && attempt == 0 {
			continue
		}
		return 0, err
	}
}

// GetDatabase returns the live database record for name.
func (c *Catalog) GetDatabase(ctx context.Context, name string) (*meta.Record, error) {
	name, err := Validate(name)
	if err != nil {
		return nil, err
	}
	rec, _, err := c.store.GetLive(ctx, meta.KindDatabase, name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: database %s", ErrNotFound, name)
	}
	return rec, nil
}

// ShowDatabases lists live database names in ascending order, filtered
// through the LIKE pattern when one is given.
func (c *Catalog) ShowDatabases(ctx context.Context, like *string) ([]string, error) {
	return c.showNames(ctx, meta.KindDatabase, like)
}

// ShowSchemas lists live schema names in ascending order, filtered
// through the LIKE pattern when one is given.
func (c *Catalog) ShowSchemas(ctx context.Context, like *string) ([]string, error) {
	return c.showNames(ctx, meta.KindSchema, like)
}

func (c *Catalog) showNames(ctx context.Context, kind meta.Kind, like *string) ([]string, error) {
	itr, err := c.store.ScanLive(ctx, kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, 8)
	for ; itr.Valid(); itr.Next() {
		name := itr.Record().Name
		if like != nil && !WildcardMatch(*like, name) {
			continue
		}
		names = append(names, name)
	}
	// Close carries any scan failure; a truncated listing must not
	// pass for a complete one.
	if err := itr.Close(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (c *Catalog) createOne(ctx context.Context, kind meta.Kind, parent uint64, name string, ifNotExists bool) (uint64, bool, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		rec, token, err := c.store.GetLive(ctx, kind, name)
		if err != nil {
			return 0, false, err
		}
		if rec != nil {
			if ifNotExists {
				return rec.ID, false, nil
			}
			return 0, false, fmt.Errorf("%w: %s %s", ErrAlreadyExists, kind, name)
		}
		id, err := c.store.NextID(ctx)
		if err != nil {
			return 0, false, err
		}
		rec = &meta.Record{
			ID:        id,
			Name:      name,
			Kind:      kind,
			ParentID:  parent,
			CreatedAt: time.Now().UTC(),
		}
		err = c.store.Put(ctx, rec, token)
		if err == nil {
			return id, true, nil
		}
		if errors.Is(err, metastore.ErrConflict) && attempt == 0 {
			continue
		}
		return 0, false, err
	}
}

// createDefaultSchema registers the schema a fresh database is born
// with. A live schema of the same name under another database means the
// name is taken; the database record is rolled back so no database is
// left without its default schema.
func (c *Catalog) createDefaultSchema(ctx context.Context, dbID uint64, name string) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, token, err := c.store.GetLive(ctx, meta.KindSchema, name)
		if err != nil {
			return err
		}
		if rec != nil {
			if rec.ParentID == dbID {
				return nil
			}
			if _, err := c.dropOne(ctx, meta.KindDatabase, name, true); err != nil {
				return err
			}
			return fmt.Errorf("%w: schema %s", ErrAlreadyExists, name)
		}
		id, err := c.store.NextID(ctx)
		if err != nil {
			return err
		}
		rec = &meta.Record{
			ID:        id,
			Name:      name,
			Kind:      meta.KindSchema,
			ParentID:  dbID,
			CreatedAt: time.Now().UTC(),
		}
		err = c.store.Put(ctx, rec, token)
		if err == nil {
			return nil
		}
		if errors.Is(err, metastore.ErrConflict) && attempt == 0 {
			continue
		}
		return err
	}
}

func (c *Catalog) dropOne(ctx context.Context, kind meta.Kind, name string, ifExists bool) (*meta.Record, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, token, err := c.store.GetLive(ctx, kind, name)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			if ifExists {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, name)
		}
		now := time.Now().UTC()
		dropped := *rec
		dropped.DroppedAt = &now
		err = c.store.Put(ctx, &dropped, token)
		if err == nil {
			return &dropped, nil
		}
		if errors.Is(err, metastore.ErrConflict) && attempt == 0 {
			continue
		}
		return nil, err
	}
}

func (c *Catalog) dropChildSchemas(ctx context.Context, dbID uint64) error {
	itr, err := c.store.ScanLive(ctx, meta.KindSchema)
	if err != nil {
		return err
	}
	var children []string
	for ; itr.Valid(); itr.Next() {
		if itr.Record().ParentID == dbID {
			children = append(children, itr.Record().Name)
		}
	}
	if err := itr.Close(); err != nil {
		return err
	}
	for _, name := range children {
		if _, err := c.dropOne(ctx, meta.KindSchema, name, true); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) latestTombstone(ctx context.Context, kind meta.Kind, name string) (*meta.Record, error) {
	itr, err := c.store.ScanAll(ctx, kind)
	if err != nil {
		return nil, err
	}
	var tomb *meta.Record
	for ; itr.Valid(); itr.Next() {
		rec := itr.Record()
		if rec.Name != name || rec.Live() {
			continue
		}
		if tomb == nil || rec.ID > tomb.ID {
			tomb = rec
		}
	}
	if err := itr.Close(); err != nil {
		return nil, err
	}
	return tomb, nil
}
