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

package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cnums(ns ...uint32) []CnumIx {
	out := make([]CnumIx, len(ns))
	for i, n := range ns {
		out[i] = CnumIx{Cnum: n, Ix: i}
	}
	return out
}

func TestCollapseRanges(t *testing.T) {
	pieces := collapseRanges(cnums(1, 2, 3, 5))
	require.Len(t, pieces, 2)
	assert.False(t, pieces[0].Single)
	assert.Equal(t, uint32(1), pieces[0].Start.Cnum)
	assert.Equal(t, uint32(3), pieces[0].End.Cnum)
	assert.True(t, pieces[1].Single)
	assert.Equal(t, uint32(5), pieces[1].Start.Cnum)
}

func TestCollapseRangesPairs(t *testing.T) {
	pieces := collapseRanges(cnums(1, 2, 4))
	require.Len(t, pieces, 2)
	assert.Equal(t, uint32(1), pieces[0].Start.Cnum)
	assert.Equal(t, uint32(2), pieces[0].End.Cnum)
	assert.True(t, pieces[1].Single)
}

func TestCollapseRangesLocatorBreaks(t *testing.T) {
	nums := cnums(1, 2, 3)
	nums[1].Alone = true
	pieces := collapseRanges(nums)
	require.Len(t, pieces, 3)
	for _, p := range pieces {
		assert.True(t, p.Single)
	}
}

func TestSuffixLetters(t *testing.T) {
	tests := []struct {
		n    uint32
		want string
	}{
		{0, ""}, {1, "a"}, {2, "b"}, {26, "z"}, {27, "aa"}, {28, "ab"}, {52, "az"}, {53, "ba"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, suffixLetters(test.n), "n=%d", test.n)
	}
}
