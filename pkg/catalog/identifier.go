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
	"fmt"
)

// MaxIdentifierLength matches the MySQL identifier limit the front end
// enforces.
const MaxIdentifierLength = 64

// Validate checks a database or schema name. Names are case sensitive
// and kept as given. The character set is restricted to ascii letters,
// digits and '_'; every allowed byte sorts above the store's key
// separator, which keeps store scans in name order.
func Validate(name string) (string, error) {
	if len(name) == 0 {
		return "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	if len(name) > MaxIdentifierLength {
		return "", fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidIdentifier, name, MaxIdentifierLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return "", fmt.Errorf("%w: %s contains illegal character %q", ErrInvalidIdentifier, name, c)
		}
	}
	return name, nil
}
