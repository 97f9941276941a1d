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

	"github.com/stretchr/testify/require"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

const authorYearStyle = `<style class="in-text" version="1.0">
  <citation disambiguate-add-year-suffix="true" disambiguate-add-names="true">
    <layout delimiter="; ">
      <group delimiter=" ">
        <names variable="author">
          <name form="short" et-al-min="2" et-al-use-first="1"/>
        </names>
        <date variable="issued"><date-part name="year"/></date>
      </group>
    </layout>
  </citation>
</style>`

func authorYearRef(id, family, given string, year int) *cite.Reference {
	r := cite.NewReference(id, "book")
	r.Names["author"] = []cite.Name{{Family: family, Given: given}}
	r.Dates["issued"] = cite.DateOrRange{From: cite.Date{Year: year}}
	return r
}

func TestYearSuffixAssignment(t *testing.T) {
	require := require.New(t)
	style := mustStyle(t, authorYearStyle)
	f := output.New(output.ModePlain)

	refs := map[string]*cite.Reference{
		"a": authorYearRef("a", "Smith", "John", 2000),
		"b": authorYearRef("b", "Smith", "Jane", 2000),
		"c": authorYearRef("c", "Jones", "Jim", 2000),
	}
	idx := ComputeDisambiguation(style, csl.BundledEnUS(), f, []string{"a", "b", "c"}, refs)

	// Same rendered "Smith 2000": suffixes a/b in sorted-ref order.
	require.Equal(uint32(1), idx.Config("a").YearSuffix)
	require.Equal(uint32(2), idx.Config("b").YearSuffix)
	require.Equal(uint32(0), idx.Config("c").YearSuffix)

	// Rendering with the configs now yields distinct strings.
	render := func(id string) string {
		ctx := NewContext(style, csl.BundledEnUS(), f, refs[id], cite.Basic(id))
		ctx.Disamb = idx.Config(id)
		gen := BuildCite(ctx)
		return output.PlainText(Flatten(gen.Root, gen.Names, f))
	}
	require.Equal("Smith 2000a", render("a"))
	require.Equal("Smith 2000b", render("b"))
	require.Equal("Jones 2000", render("c"))
}

func TestAddNamesResolvesBeforeYearSuffix(t *testing.T) {
	require := require.New(t)
	style := mustStyle(t, authorYearStyle)
	f := output.New(output.ModePlain)

	// Both render "Smith et al. 2000" initially, but differ at the
	// second author: add-names disambiguates without suffixes.
	ra := authorYearRef("a", "Smith", "John", 2000)
	ra.Names["author"] = append(ra.Names["author"], cite.Name{Family: "Brown"})
	rb := authorYearRef("b", "Smith", "John", 2000)
	rb.Names["author"] = append(rb.Names["author"], cite.Name{Family: "Green"})

	refs := map[string]*cite.Reference{"a": ra, "b": rb}
	idx := ComputeDisambiguation(style, csl.BundledEnUS(), f, []string{"a", "b"}, refs)

	require.Equal(uint32(0), idx.Config("a").YearSuffix)
	require.Equal(uint32(0), idx.Config("b").YearSuffix)
	require.True(idx.Config("a").AddNames >= 2)
	require.Empty(idx.Ambiguous)
}

func TestDisambiguationIsIdempotent(t *testing.T) {
	style := mustStyle(t, authorYearStyle)
	f := output.New(output.ModePlain)
	refs := map[string]*cite.Reference{
		"a": authorYearRef("a", "Smith", "John", 2000),
		"b": authorYearRef("b", "Smith", "Jane", 2000),
	}
	one := ComputeDisambiguation(style, csl.BundledEnUS(), f, []string{"a", "b"}, refs)
	two := ComputeDisambiguation(style, csl.BundledEnUS(), f, []string{"a", "b"}, refs)
	require.Equal(t, one.Configs, two.Configs)
}

func TestDisambiguateConditionBranch(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <group delimiter=" ">
	        <names variable="author"><name form="short"/></names>
	        <choose>
	          <if disambiguate="true"><text variable="title"/></if>
	        </choose>
	      </group>
	    </layout>
	  </citation>
	</style>`)
	f := output.New(output.ModePlain)

	ra := authorYearRef("a", "Smith", "John", 2000)
	ra.Ordinary["title"] = "Alpha"
	rb := authorYearRef("b", "Smith", "Jane", 2001)
	rb.Ordinary["title"] = "Beta"
	refs := map[string]*cite.Reference{"a": ra, "b": rb}

	idx := ComputeDisambiguation(style, csl.BundledEnUS(), f, []string{"a", "b"}, refs)
	require.True(t, idx.Config("a").CondBranches)
	require.True(t, idx.Config("b").CondBranches)
	require.Empty(t, idx.Ambiguous)
}
