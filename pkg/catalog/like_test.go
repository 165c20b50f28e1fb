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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWildcardMatch(t *testing.T) {
	cases := []struct {
		pattern string
		target  string
		want    bool
	}{
		{"", "", true},
		{"", "a", false},
		{"a", "", false},
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "ABC", false},
		{"%", "", true},
		{"%", "anything", true},
		{"ss%", "ss", true},
		{"ss%", "ss1", true},
		{"ss%", "ss2", true},
		{"ss%", "other", false},
		{"ss%", "ass", false},
		{"%ss", "ass", true},
		{"%ss", "ssa", false},
		{"s%1", "ss1", true},
		{"s%1", "ss12", false},
		{"_", "a", true},
		{"_", "", false},
		{"_", "ab", false},
		{"s_1", "ss1", true},
		{"s_1", "s1", false},
		{"%s%1", "ss1", true},
		{"a%b%c", "aXXbYYc", true},
		{"a%b%c", "acb", false},
		{"__", "ab", true},
		{"%_", "", false},
		{"%_", "x", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WildcardMatch(c.pattern, c.target),
			"pattern %q target %q", c.pattern, c.target)
	}
}
