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

	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

func TestSubstituteNames(t *testing.T) {
	smithJones := []string{"Smith, John", "Jones, Jane"}
	smithBrown := []string{"Smith, John", "Brown, Bob"}

	tests := []struct {
		name string
		cur  []string
		prev []string
		rule csl.SubstituteRule
		want string
		ok   bool
	}{
		{"complete-all match", smithJones, smithJones, csl.CompleteAll, "———", true},
		{"complete-all mismatch", smithBrown, smithJones, csl.CompleteAll, "", false},
		{"complete-each match", smithJones, smithJones, csl.CompleteEach, "———, ———", true},
		{"partial-each", smithBrown, smithJones, csl.PartialEach, "———, Brown, Bob", true},
		{"partial-first", smithBrown, smithJones, csl.PartialFirst, "———, Brown, Bob", true},
		{"partial-each no match", []string{"Xu, Li"}, smithJones, csl.PartialEach, "", false},
		{"empty prev", smithJones, nil, csl.CompleteAll, "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := SubstituteNames(test.cur, test.prev, ", ", "———", test.rule)
			require.Equal(t, test.ok, ok)
			if ok {
				assert.Equal(t, test.want, output.PlainText(got))
			}
		})
	}
}

func TestBibliographySubstituteEndToEnd(t *testing.T) {
	style := mustStyle(t, `<style class="in-text" version="1.0">
	  <citation><layout><text variable="title"/></layout></citation>
	  <bibliography subsequent-author-substitute="———">
	    <layout>
	      <group delimiter=". ">
	        <names variable="author"><name name-as-sort-order="all"/></names>
	        <text variable="title"/>
	      </group>
	    </layout>
	  </bibliography>
	</style>`)

	f := output.New(output.ModePlain)

	entry := func(id, title string, override bool, prevTokens []string) (string, []string) {
		ref := testRef(id)
		ref.Ordinary["title"] = title
		ctx := NewContext(style, csl.BundledEnUS(), f, ref, nil)
		ctx.InBibliography = true
		gen := BuildCite(ctx)
		tokens, delim := NameTokensOf(gen)
		opts := FlattenOpts{}
		if override {
			if b, ok := SubstituteNames(tokens, prevTokens, delim, "———", csl.CompleteAll); ok {
				opts.NameOverride = b
			}
		}
		return f.Output(FlattenWith(gen.Root, gen.Names, f, opts), true), tokens
	}

	first, tokens := entry("one", "Alpha", false, nil)
	require.Equal(t, "Smith, John. Alpha", first)

	second, _ := entry("two", "Beta", true, tokens)
	require.Equal(t, "———. Beta", second)
}
