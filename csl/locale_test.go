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

const testLocale = `<?xml version="1.0" encoding="utf-8"?>
<locale xml:lang="de-DE">
  <style-options punctuation-in-quote="false"/>
  <terms>
    <term name="and">und</term>
    <term name="et-al">u. a.</term>
    <term name="page">
      <single>Seite</single>
      <multiple>Seiten</multiple>
    </term>
    <term name="page" form="short">
      <single>S.</single>
      <multiple>S.</multiple>
    </term>
  </terms>
  <date form="numeric" delimiter=".">
    <date-part name="day"/>
    <date-part name="month" form="numeric"/>
    <date-part name="year"/>
  </date>
</locale>`

func TestParseLocale(t *testing.T) {
	require := require.New(t)

	l, err := ParseLocale([]byte(testLocale))
	require.NoError(err)
	require.Equal("de-DE", l.Lang)

	and, ok := l.Term("and", "", false)
	require.True(ok)
	require.Equal("und", and)

	pages, ok := l.Term("page", "", true)
	require.True(ok)
	require.Equal("Seiten", pages)

	short, ok := l.Term("page", "short", false)
	require.True(ok)
	require.Equal("S.", short)

	// form fallback: symbol -> short -> long
	sym, ok := l.Term("page", "symbol", false)
	require.True(ok)
	require.Equal("S.", sym)

	d, ok := l.Dates["numeric"]
	require.True(ok)
	require.Equal(".", d.Delimiter)
	require.Len(d.Parts, 3)
}

func TestLocaleMerge(t *testing.T) {
	require := require.New(t)

	base := BundledEnUS()
	over, err := ParseLocale([]byte(testLocale))
	require.NoError(err)

	merged := base.Clone()
	merged.Merge(over)

	and, _ := merged.Term("and", "", false)
	require.Equal("und", and)

	// et-al comes from the override; ibid, not overridden, falls
	// through to the base.
	etal, _ := merged.Term("et-al", "", false)
	require.Equal("u. a.", etal)
	ibid, ok := merged.Term("ibid", "", false)
	require.True(ok)
	require.Equal("ibid", ibid)
}

func TestOrdinals(t *testing.T) {
	l := BundledEnUS()
	tests := []struct {
		n    int
		want string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {102, "102nd"}, {111, "111th"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, l.Ordinal(test.n))
	}
	assert.Equal(t, "first", l.LongOrdinal(1))
	assert.Equal(t, "11th", l.LongOrdinal(11))
}

func TestFallbackChain(t *testing.T) {
	assert.Equal(t, []string{"de-AT", "de", "en-US"}, FallbackChain("de-AT"))
	assert.Equal(t, []string{"fr", "en-US"}, FallbackChain("fr"))
	assert.Equal(t, []string{"en-US"}, FallbackChain(""))
	assert.Equal(t, []string{"en-US"}, FallbackChain("en-US"))
}
