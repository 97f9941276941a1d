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

package csl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStyle = `<?xml version="1.0" encoding="utf-8"?>
<style class="in-text" version="1.0" default-locale="en-US"
       demote-non-dropping-particle="display-and-sort">
  <info>
    <title>Test Style</title>
    <id>test-style</id>
  </info>
  <macro name="author">
    <names variable="author">
      <name and="symbol" delimiter=", " et-al-min="4" et-al-use-first="1"
            initialize-with=". "/>
      <et-al term="et-al" font-style="italic"/>
      <label form="short" prefix=" (" suffix=")"/>
      <substitute>
        <names variable="editor"/>
        <text variable="title" font-style="italic"/>
      </substitute>
    </names>
  </macro>
  <macro name="year">
    <date variable="issued">
      <date-part name="year"/>
    </date>
  </macro>
  <citation disambiguate-add-names="true" disambiguate-add-year-suffix="true"
            collapse="year" near-note-distance="3">
    <sort>
      <key macro="author"/>
      <key variable="issued" sort="descending"/>
    </sort>
    <layout prefix="(" suffix=")" delimiter="; ">
      <group delimiter=", ">
        <text macro="author"/>
        <text macro="year"/>
        <choose>
          <if locator="page" match="any">
            <text variable="locator" prefix="p. "/>
          </if>
          <else-if variable="locator">
            <text variable="locator"/>
          </else-if>
          <else>
            <text term="ibid" quotes="true"/>
          </else>
        </choose>
      </group>
    </layout>
  </citation>
  <bibliography hanging-indent="true" second-field-align="flush"
                subsequent-author-substitute="———">
    <layout>
      <text variable="citation-number" suffix=". "/>
      <text macro="author" suffix=". "/>
      <text variable="title"/>
    </layout>
  </bibliography>
</style>`

func TestParseStyle(t *testing.T) {
	require := require.New(t)

	s, err := Parse(testStyle)
	require.NoError(err)

	assert.Equal(t, "in-text", s.Class)
	assert.True(t, s.InText())
	assert.Equal(t, "Test Style", s.Info.Title)
	assert.Equal(t, "display-and-sort", s.DemoteNonDroppingParticle)
	require.Len(s.Macros, 2)

	c := s.Citation
	assert.True(t, c.DisambiguateAddNames)
	assert.True(t, c.DisambiguateAddYearSuffix)
	assert.False(t, c.DisambiguateAddGivenname)
	assert.Equal(t, CollapseYear, c.Collapse)
	assert.Equal(t, uint32(3), c.NearNoteDistance)
	assert.Equal(t, "(", c.Layout.Affixes.Prefix)
	assert.Equal(t, "; ", c.Layout.Delimiter)

	require.NotNil(c.Sort)
	require.Len(c.Sort.Keys, 2)
	assert.Equal(t, "author", c.Sort.Keys[0].Macro)
	assert.Equal(t, Descending, c.Sort.Keys[1].Direction)

	require.Len(c.Layout.Elements, 1)
	group, ok := c.Layout.Elements[0].(*Group)
	require.True(ok)
	require.Len(group.Elements, 3)

	choose, ok := group.Elements[2].(*Choose)
	require.True(ok)
	assert.Equal(t, []string{"page"}, choose.If.Cond.Locators)
	assert.Equal(t, MatchAny, choose.If.Cond.Match)
	require.Len(choose.ElseIf, 1)
	require.Len(choose.Else, 1)
	ibid, ok := choose.Else[0].(*Text)
	require.True(ok)
	assert.Equal(t, SourceTerm, ibid.Source)
	assert.True(t, ibid.Quotes)

	require.NotNil(s.Bibliography)
	b := s.Bibliography
	assert.True(t, b.HangingIndent)
	assert.Equal(t, SecondFieldAlignFlush, b.SecondFieldAlign)
	assert.True(t, b.HasSubsequentAuthorSubstitute)
	assert.Equal(t, "———", b.SubsequentAuthorSubstitute)
}

func TestParseNamesElement(t *testing.T) {
	require := require.New(t)

	s, err := Parse(testStyle)
	require.NoError(err)

	els := s.Macros["author"]
	require.Len(els, 1)
	names, ok := els[0].(*Names)
	require.True(ok)
	require.Equal([]string{"author"}, names.Variables)
	require.NotNil(names.Name)
	require.Equal("symbol", names.Name.Options.And)
	require.Equal(4, names.Name.Options.EtAlMin)
	require.Equal(". ", names.Name.Options.InitializeWith)
	require.NotNil(names.EtAl)
	require.Equal("italic", names.EtAl.Formatting.FontStyle)
	require.NotNil(names.Label)
	require.True(names.LabelAfterName)
	require.Len(names.Substitute, 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		kind interface{ Is(error) bool }
	}{
		{
			"no class",
			`<style version="1.0"><citation><layout/></citation></style>`,
			ErrStyleParse,
		},
		{
			"no citation",
			`<style class="note" version="1.0"></style>`,
			ErrStyleParse,
		},
		{
			"unknown macro",
			`<style class="note" version="1.0">
			  <citation><layout><text macro="nope"/></layout></citation>
			</style>`,
			ErrUnknownMacro,
		},
		{
			"macro cycle",
			`<style class="note" version="1.0">
			  <macro name="a"><text macro="b"/></macro>
			  <macro name="b"><text macro="a"/></macro>
			  <citation><layout><text macro="a"/></layout></citation>
			</style>`,
			ErrMacroCycle,
		},
		{
			"text without source",
			`<style class="note" version="1.0">
			  <citation><layout><text/></layout></citation>
			</style>`,
			ErrStyleParse,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.xml)
			require.Error(t, err)
			require.True(t, test.kind.Is(err), "got %v", err)
		})
	}
}

func TestMacroSuggestion(t *testing.T) {
	_, err := Parse(`<style class="note" version="1.0">
	  <macro name="author"><text value="x"/></macro>
	  <citation><layout><text macro="authr"/></layout></citation>
	</style>`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "maybe you mean author?")
}
