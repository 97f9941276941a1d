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

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

func TestCompareNatural(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abd", -1},
		{"ABC", "abc", 0},
		{"page 2", "page 10", -1},
		{"page 10", "page 2", 1},
		{"a1b", "a1b", 0},
	}
	for _, test := range tests {
		got := CompareNatural(test.a, test.b)
		switch {
		case test.want < 0:
			assert.Negative(t, got, "%q vs %q", test.a, test.b)
		case test.want > 0:
			assert.Positive(t, got, "%q vs %q", test.a, test.b)
		default:
			assert.Zero(t, got, "%q vs %q", test.a, test.b)
		}
	}
}

func TestCompareNaturalDateMarkers(t *testing.T) {
	early := "x" + SortDateMarker(cite.Date{Year: 1999, Month: 2}) + "y"
	late := "x" + SortDateMarker(cite.Date{Year: 1999, Month: 11}) + "y"
	assert.Negative(t, CompareNatural(early, late))
	assert.Zero(t, CompareNatural(early, early))

	bc := "x" + SortDateMarker(cite.Date{Year: -500}) + "y"
	assert.Negative(t, CompareNatural(bc, early))
}

func TestCompareNaturalNumMarkers(t *testing.T) {
	two := "v" + SortNumMarker(2)
	ten := "v" + SortNumMarker(10)
	assert.Negative(t, CompareNatural(two, ten))
}

func TestMissingDemotedRegardlessOfDirection(t *testing.T) {
	present := SortItem{Kind: ItemString, Present: true, Str: "a"}
	missing := SortItem{Kind: ItemString}

	assert.Positive(t, missing.Compare(present, csl.Ascending))
	assert.Positive(t, missing.Compare(present, csl.Descending))
	assert.Negative(t, present.Compare(missing, csl.Ascending))
	assert.Negative(t, present.Compare(missing, csl.Descending))
}

func TestDescendingReversesPresentValues(t *testing.T) {
	a := SortItem{Kind: ItemString, Present: true, Str: "a"}
	b := SortItem{Kind: ItemString, Present: true, Str: "b"}
	assert.Negative(t, a.Compare(b, csl.Ascending))
	assert.Positive(t, a.Compare(b, csl.Descending))
}

func TestDeriveSortKeys(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <macro name="author-sort">
	    <names variable="author"><name/></names>
	  </macro>
	  <citation><layout><text variable="title"/></layout></citation>
	</style>`)

	ref := cite.NewReference("one", "book")
	ref.Names["author"] = []cite.Name{{Family: "van Gogh", Given: "Vincent"}}
	ref.Dates["issued"] = cite.DateOrRange{From: cite.Date{Year: 2001, Month: 3}}
	ref.Number["volume"] = cite.ParseNumeric("7")

	f := output.New(output.ModePlain)
	ctx := NewContext(style, csl.BundledEnUS(), f, ref, cite.Basic("one"))

	item := DeriveSortKey(ctx, csl.SortKey{Variable: "author"})
	require.True(t, item.Present)
	require.Equal(t, ItemNames, item.Kind)

	item = DeriveSortKey(ctx, csl.SortKey{Variable: "issued"})
	require.True(t, item.Present)
	require.Equal(t, ItemDate, item.Kind)

	item = DeriveSortKey(ctx, csl.SortKey{Variable: "volume"})
	require.True(t, item.Present)
	require.Equal(t, ItemNumeric, item.Kind)

	item = DeriveSortKey(ctx, csl.SortKey{Variable: "editor"})
	require.False(t, item.Present)

	// Macro keys render in sort mode: plain, name-as-sort-order.
	item = DeriveSortKey(ctx, csl.SortKey{Macro: "author-sort"})
	require.True(t, item.Present)
	require.Contains(t, item.Str, "Gogh")
}

func TestSortModeDropsEtAl(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <macro name="author-sort">
	    <names variable="author">
	      <name et-al-min="2" et-al-use-first="1"/>
	    </names>
	  </macro>
	  <citation><layout><text variable="title"/></layout></citation>
	</style>`)

	ref := cite.NewReference("one", "book")
	ref.Names["author"] = []cite.Name{{Family: "Aaa"}, {Family: "Bbb"}}

	f := output.New(output.ModePlain)
	ctx := NewContext(style, csl.BundledEnUS(), f, ref, cite.Basic("one"))
	item := DeriveSortKey(ctx, csl.SortKey{Macro: "author-sort"})
	require.True(t, item.Present)
	require.NotContains(t, item.Str, "et al")
}
