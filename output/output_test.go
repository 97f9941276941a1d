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

package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citation-style-language/citeproc-go/csl"
)

func italic(b Build) Build {
	return Build{{Kind: KindFormatted, Children: b, Format: csl.Formatting{FontStyle: "italic"}}}
}

func quoted(b Build) Build {
	return Build{{Kind: KindQuoted, Children: b}}
}

func TestPlainOutput(t *testing.T) {
	f := New(ModePlain)
	b := Join([]Build{Text("Book"), italic(Text("One"))}, " ")
	assert.Equal(t, "Book One", f.Output(b, false))
}

func TestHTMLOutput(t *testing.T) {
	f := New(ModeHTML)

	b := italic(Text("Title"))
	assert.Equal(t, "<i>Title</i>", f.Output(b, false))

	b = f.WithFormat(Text("Loud"), csl.Formatting{FontWeight: "bold"})
	assert.Equal(t, "<b>Loud</b>", f.Output(b, false))

	b = Text("a < b & c")
	assert.Equal(t, "a &lt; b &amp; c", f.Output(b, false))
}

func TestFlipFlopItalics(t *testing.T) {
	f := New(ModeHTML)

	inner := italic(Text("species"))
	b := italic(Join([]Build{Text("Origin of "), inner}, ""))
	out := f.Output(b, false)
	assert.Equal(t, `<i>Origin of <span style="font-style:normal;">species</span></i>`, out)
}

func TestFlipFlopQuotes(t *testing.T) {
	f := New(ModePlain)

	b := quoted(Join([]Build{Text("He said "), quoted(Text("hi"))}, ""))
	assert.Equal(t, "“He said ‘hi’”", f.Output(b, false))
}

func TestFlipFlopIdempotent(t *testing.T) {
	b := italic(Join([]Build{Text("x "), italic(Text("y")), quoted(Text("z"))}, ""))
	once := FlipFlop(b)
	twice := FlipFlop(once)
	f := New(ModeHTML)
	require.Equal(t, f.Output(once, false), f.Output(twice, false))
}

func TestIngestMicroMarkup(t *testing.T) {
	f := New(ModeHTML)

	b := f.Ingest("The <i>Beagle</i> voyage", IngestOptions{})
	assert.Equal(t, "The <i>Beagle</i> voyage", f.Output(b, false))
	assert.Equal(t, "The Beagle voyage", PlainText(b))

	b = f.Ingest("E = mc<sup>2</sup>", IngestOptions{})
	assert.Equal(t, "E = mc<sup>2</sup>", f.Output(b, false))

	// Unknown tags stay literal.
	b = f.Ingest("a <x> b", IngestOptions{})
	assert.Equal(t, "a &lt;x&gt; b", f.Output(b, false))
}

func TestRTFOutput(t *testing.T) {
	f := New(ModeRTF)
	b := italic(Text("Häuser"))
	out := f.Output(b, false)
	assert.True(t, strings.HasPrefix(out, `{\i `))
	assert.Contains(t, out, `\uc0\u228 `)
}

func TestPandocOutput(t *testing.T) {
	f := New(ModePandoc)
	b := italic(Text("A Title"))
	out := f.Output(b, false)
	assert.Contains(t, out, `"t":"Emph"`)
	assert.Contains(t, out, `"t":"Str"`)
	assert.Contains(t, out, `"t":"Space"`)
}

func TestTextCase(t *testing.T) {
	tests := []struct {
		tc   csl.TextCase
		in   string
		want string
	}{
		{"lowercase", "A Big TITLE", "a big title"},
		{"uppercase", "a big title", "A BIG TITLE"},
		{"capitalize-first", "hello world", "Hello world"},
		{"capitalize-all", "hello world", "Hello World"},
		{"title", "the origin of species", "The Origin of Species"},
		{"title", "a theory of justice", "A Theory of Justice"},
	}
	for _, test := range tests {
		t.Run(string(test.tc)+"/"+test.in, func(t *testing.T) {
			assert.Equal(t, test.want, applyTextCaseString(test.in, test.tc))
		})
	}
}

func TestJoinSkipsEmpty(t *testing.T) {
	b := Join([]Build{Text("a"), nil, Text("b")}, ", ")
	assert.Equal(t, "a, b", PlainText(b))
}
