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
	"testing"

	"github.com/matrixorigin/matrixmeta/pkg/meta"
	"github.com/smartystreets/goconvey/convey"
)

// The classic teardown-safe session: create a group of databases,
// discover them by pattern, drop them (repeating the drops must stay
// harmless), then look the tombstones up through the history view.
func TestDatabaseLifecycleScenario(t *testing.T) {
	convey.Convey("database lifecycle", t, func() {
		c := newTestCatalog()
		ctx := context.Background()

		convey.Convey("create ss, ss1, ss2 and discover them", func() {
			for _, name := range []string{"ss", "ss1", "ss2"} {
				_, err := c.CreateDatabase(ctx, name, false)
				convey.So(err, convey.ShouldBeNil)
			}

			names, err := c.ShowDatabases(ctx, str("ss%"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(names, convey.ShouldResemble, []string{"ss", "ss1", "ss2"})

			names, err = c.ShowSchemas(ctx, str("ss%"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(names, convey.ShouldResemble, []string{"ss", "ss1", "ss2"})

			convey.Convey("drop them all, twice", func() {
				for i := 0; i < 2; i++ {
					for _, name := range []string{"ss", "ss1", "ss2"} {
						convey.So(c.DropDatabase(ctx, name, true), convey.ShouldBeNil)
					}
				}

				names, err := c.ShowDatabases(ctx, str("ss%"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(names, convey.ShouldBeEmpty)

				convey.Convey("history answers for ss1", func() {
					rows, err := c.QueryDropped(ctx, meta.KindDatabase, "ss1", 1)
					convey.So(err, convey.ShouldBeNil)
					convey.So(len(rows), convey.ShouldEqual, 1)
					convey.So(rows[0].Name, convey.ShouldEqual, "ss1")
					convey.So(rows[0].Dropped(), convey.ShouldBeTrue)
				})
			})
		})
	})
}
