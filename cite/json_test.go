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

	"github.com/stretchr/testify/require"
)

func TestParseReferences(t *testing.T) {
	require := require.New(t)

	data := []byte(`[
		{
			"id": "smith2000",
			"type": "book",
			"title": "A Book",
			"volume": 3,
			"page": "12-14",
			"author": [
				{"family": "Smith", "given": "John"},
				{"literal": "Acme Corp"}
			],
			"issued": {"date-parts": [[2000, 5, 1]]}
		},
		{
			"id": "range",
			"type": "article-journal",
			"issued": {"date-parts": [[1999], [2001]], "circa": true}
		}
	]`)

	refs, err := ParseReferences(data)
	require.NoError(err)
	require.Len(refs, 2)

	r := refs[0]
	require.Equal("smith2000", r.ID)
	require.Equal("book", r.Type)
	require.Equal("A Book", r.Ordinary["title"])
	require.True(r.Number["volume"].IsNumeric())
	require.True(r.Number["page"].IsPlural())
	require.Len(r.Names["author"], 2)
	require.True(r.Names["author"][0].IsPerson())
	require.False(r.Names["author"][1].IsPerson())
	require.Equal(Date{Year: 2000, Month: 5, Day: 1}, r.Dates["issued"].From)
	require.True(r.Has("title"))
	require.True(r.Has("author"))
	require.False(r.Has("editor"))

	rng := refs[1].Dates["issued"]
	require.True(rng.IsRange())
	require.True(rng.Uncertain())
	require.Equal(2001, rng.To.Year)
}

func TestParseReferenceMissingID(t *testing.T) {
	_, err := ParseReferences([]byte(`[{"type": "book"}]`))
	require.Error(t, err)
	require.True(t, ErrReferenceParse.Is(err))
}
