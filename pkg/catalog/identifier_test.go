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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	for _, name := range []string{"ss", "ss1", "SS1", "_tmp", "a0_B9", strings.Repeat("x", MaxIdentifierLength)} {
		got, err := Validate(name)
		assert.NoError(t, err)
		assert.Equal(t, name, got)
	}

	for _, name := range []string{
		"",
		strings.Repeat("x", MaxIdentifierLength+1),
		"with space",
		"semi;colon",
		"slash/name",
		"dash-name",
		"dollar$name",
		"unié",
	} {
		_, err := Validate(name)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "name %q", name)
	}
}
