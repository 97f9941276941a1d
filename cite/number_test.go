// Copyright 2023 the citeproc-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		raw     string
		numeric bool
		first   int
		plural  bool
	}{
		{"12", true, 12, false},
		{"12-14", true, 12, true},
		{"12–14", true, 12, true},
		{"12, 14", true, 12, true},
		{"12 & 14", true, 12, true},
		{"12a", true, 12, false},
		{"A5", true, 5, false},
		{"edition one", false, 0, false},
		{"", false, 0, false},
		{"iv", false, 0, false},
	}

	for _, test := range tests {
		t.Run(test.raw, func(t *testing.T) {
			v := ParseNumeric(test.raw)
			assert.Equal(t, test.numeric, v.IsNumeric())
			if test.numeric {
				first, ok := v.FirstInt()
				require.True(t, ok)
				assert.Equal(t, test.first, first)
				assert.Equal(t, test.plural, v.IsPlural())
			}
			assert.Equal(t, test.raw, v.Raw)
		})
	}
}

func TestNumericString(t *testing.T) {
	assert.Equal(t, "12–14", ParseNumeric("12-14").String())
	assert.Equal(t, "12, 14", ParseNumeric("12,14").String())
	assert.Equal(t, "edition one", ParseNumeric("edition one").String())
}
