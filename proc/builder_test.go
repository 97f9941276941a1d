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

func mustStyle(t *testing.T, text string) *csl.Style {
	t.Helper()
	s, err := csl.Parse(text)
	require.NoError(t, err)
	return s
}

func testRef(id string) *cite.Reference {
	r := cite.NewReference(id, "book")
	r.Ordinary["title"] = "Book " + id
	r.Names["author"] = []cite.Name{{Family: "Smith", Given: "John"}}
	r.Dates["issued"] = cite.DateOrRange{From: cite.Date{Year: 2000}}
	return r
}

func renderPlain(t *testing.T, style *csl.Style, ref *cite.Reference, c *cite.Cite) string {
	t.Helper()
	f := output.New(output.ModePlain)
	ctx := NewContext(style, csl.BundledEnUS(), f, ref, c)
	gen := BuildCite(ctx)
	return f.Output(Flatten(gen.Root, gen.Names, f), false)
}

func TestBuildSimpleCite(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <group delimiter=", ">
	        <names variable="author"><name form="short"/></names>
	        <date variable="issued"><date-part name="year"/></date>
	      </group>
	    </layout>
	  </citation>
	</style>`)

	got := renderPlain(t, style, testRef("one"), cite.Basic("one"))
	require.Equal(t, "Smith, 2000", got)
}

func TestUnknownReferenceSentinel(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation><layout><text variable="title"/></layout></citation>
	</style>`)

	got := renderPlain(t, style, nil, cite.Basic("missing"))
	require.Equal(t, UnknownRefSentinel, got)
}

func TestGroupCollapsesOnMissingVariable(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <group delimiter=" ">
	        <text value="vol."/>
	        <text variable="volume"/>
	      </group>
	      <text variable="title"/>
	    </layout>
	  </citation>
	</style>`)

	ref := testRef("one")
	got := renderPlain(t, style, ref, cite.Basic("one"))
	// The group reads volume, finds it missing, and collapses even
	// though "vol." itself would render.
	require.Equal(t, "Book one", got)

	ref.Number["volume"] = cite.ParseNumeric("3")
	got = renderPlain(t, style, ref, cite.Basic("one"))
	require.Equal(t, "vol. 3Book one", got)
}

func TestGroupPlainOnlyRenders(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <group delimiter=" ">
	        <text value="hello"/>
	        <text value="world"/>
	      </group>
	    </layout>
	  </citation>
	</style>`)

	got := renderPlain(t, style, testRef("one"), cite.Basic("one"))
	require.Equal(t, "hello world", got)
}

func TestChooseBranches(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <choose>
	        <if type="article-journal"><text value="journal"/></if>
	        <else-if variable="title"><text variable="title"/></else-if>
	        <else><text value="fallback"/></else>
	      </choose>
	    </layout>
	  </citation>
	</style>`)

	ref := testRef("one")
	require.Equal(t, "Book one", renderPlain(t, style, ref, cite.Basic("one")))

	ref2 := cite.NewReference("two", "article-journal")
	require.Equal(t, "journal", renderPlain(t, style, ref2, cite.Basic("two")))

	ref3 := cite.NewReference("three", "book")
	require.Equal(t, "fallback", renderPlain(t, style, ref3, cite.Basic("three")))
}

func TestMacroExpansionAndSuppression(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <macro name="creators">
	    <names variable="author">
	      <name form="short"/>
	      <substitute><text variable="title"/></substitute>
	    </names>
	  </macro>
	  <citation>
	    <layout delimiter="; ">
	      <group delimiter=", ">
	        <text macro="creators"/>
	        <text variable="title"/>
	      </group>
	    </layout>
	  </citation>
	</style>`)

	// With an author, both the macro and the title render.
	require.Equal(t, "Smith, Book one", renderPlain(t, style, testRef("one"), cite.Basic("one")))

	// Without an author, the substitute consumes the title, which is
	// then suppressed in the rest of the cite.
	ref := cite.NewReference("two", "book")
	ref.Ordinary["title"] = "Only Title"
	require.Equal(t, "Only Title", renderPlain(t, style, ref, cite.Basic("two")))
}

func TestSuppressAuthorMode(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <group delimiter=", ">
	        <names variable="author"><name form="short"/></names>
	        <date variable="issued"><date-part name="year"/></date>
	      </group>
	    </layout>
	  </citation>
	</style>`)

	c := cite.Basic("one")
	c.Mode = cite.ModeSuppressAuthor
	require.Equal(t, "2000", renderPlain(t, style, testRef("one"), c))
}

func TestEtAlTruncation(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <names variable="author">
	        <name form="short" et-al-min="3" et-al-use-first="1"/>
	      </names>
	    </layout>
	  </citation>
	</style>`)

	ref := cite.NewReference("one", "book")
	ref.Names["author"] = []cite.Name{
		{Family: "Aaa"}, {Family: "Bbb"}, {Family: "Ccc"},
	}
	require.Equal(t, "Aaa et al.", renderPlain(t, style, ref, cite.Basic("one")))

	ref.Names["author"] = ref.Names["author"][:2]
	require.Equal(t, "Aaa, Bbb", renderPlain(t, style, ref, cite.Basic("one")))
}

func TestTermAndOrdinal(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation>
	    <layout>
	      <group delimiter=" ">
	        <number variable="edition" form="ordinal"/>
	        <label variable="edition" form="short"/>
	      </group>
	    </layout>
	  </citation>
	</style>`)

	ref := cite.NewReference("one", "book")
	ref.Number["edition"] = cite.ParseNumeric("2")
	require.Equal(t, "2nd ed.", renderPlain(t, style, ref, cite.Basic("one")))
}
