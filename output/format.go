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

	"github.com/citation-style-language/citeproc-go/csl"
)

// Mode selects one of the supported output formats.
type Mode uint8

const (
	ModePlain Mode = iota
	ModeHTML
	ModeRTF
	ModePandoc
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeHTML:
		return "html"
	case ModeRTF:
		return "rtf"
	case ModePandoc:
		return "pandoc"
	}
	return "unknown"
}

// Meta describes a format to callers assembling final documents.
type Meta struct {
	MarkupFormat string
	// SupportsEmph reports whether emphasis survives the format; plain
	// text drops it, which matters for format-aware disambiguation.
	SupportsEmph bool
}

// IngestOptions modify Ingest.
type IngestOptions struct {
	// NoParse disables micro-markup recognition in the input string.
	NoParse bool
	// TextCase applies a text-case transform during ingestion.
	TextCase csl.TextCase
	// Quotes holds the locale quote marks used at output time.
	Quotes QuoteMarks
}

// QuoteMarks carries a locale's quotation characters through to the
// writer.
type QuoteMarks struct {
	Open, Close           string
	OpenInner, CloseInner string
	PunctuationInQuote    bool
}

// DefaultQuotes are used when no locale is available.
var DefaultQuotes = QuoteMarks{Open: "“", Close: "”", OpenInner: "‘", CloseInner: "’"}

// Format builds and writes inline output. One value is shared by the
// engine and its snapshots; it is stateless apart from its mode.
type Format struct {
	mode   Mode
	quotes QuoteMarks
}

// New returns a Format for the given mode with default quote marks.
func New(mode Mode) *Format {
	return &Format{mode: mode, quotes: DefaultQuotes}
}

// WithQuotes returns a copy of the format using the given quote marks.
func (f *Format) WithQuotes(q QuoteMarks) *Format {
	out := *f
	if q.Open != "" {
		out.quotes = q
	}
	return &out
}

// Mode returns the format's output mode.
func (f *Format) Mode() Mode { return f.mode }

// Meta returns the format descriptor.
func (f *Format) Meta() Meta {
	return Meta{
		MarkupFormat: f.mode.String(),
		SupportsEmph: f.mode != ModePlain,
	}
}

// Ingest turns an input string (possibly carrying micro-markup like
// <i>…</i> in reference fields) into a build.
func (f *Format) Ingest(s string, opts IngestOptions) Build {
	if s == "" {
		return nil
	}
	if opts.TextCase != "" {
		s = applyTextCaseString(s, opts.TextCase)
	}
	if opts.NoParse || !strings.ContainsRune(s, '<') {
		return Text(s)
	}
	return parseMicroMarkup(s)
}

// WithFormat wraps a build in inline formatting.
func (f *Format) WithFormat(b Build, fmtg csl.Formatting) Build {
	if IsEmpty(b) {
		return nil
	}
	if fmtg.IsEmpty() {
		return b
	}
	return Build{{Kind: KindFormatted, Children: b, Format: fmtg}}
}

// AffixedQuoted applies quotes then affixes around a build. Affixes go
// outside the quotes.
func (f *Format) AffixedQuoted(b Build, affixes csl.Affixes, quotes bool) Build {
	if IsEmpty(b) {
		return nil
	}
	if quotes {
		b = Build{{Kind: KindQuoted, Children: b}}
	}
	return f.Affixed(b, affixes)
}

// Affixed applies a prefix and suffix around a non-empty build.
func (f *Format) Affixed(b Build, affixes csl.Affixes) Build {
	if IsEmpty(b) || affixes.IsEmpty() {
		return b
	}
	out := make(Build, 0, len(b)+2)
	out = append(out, Text(affixes.Prefix)...)
	out = append(out, b...)
	out = append(out, Text(affixes.Suffix)...)
	return out
}

// Hyperlinked wraps a build in a link.
func (f *Format) Hyperlinked(b Build, url string) Build {
	if IsEmpty(b) || url == "" {
		return b
	}
	return Build{{Kind: KindLinked, Children: b, URL: url}}
}

// Displayed wraps a build in a display mode.
func (f *Format) Displayed(b Build, d csl.Display) Build {
	if IsEmpty(b) || d == "" {
		return b
	}
	return Build{{Kind: KindDiv, Children: b, Display: d}}
}

// ApplyTextCase transforms the text leaves of a build.
func (f *Format) ApplyTextCase(b Build, tc csl.TextCase) Build {
	if tc == "" || IsEmpty(b) {
		return b
	}
	out, _ := mapCase(b, tc, true)
	return out
}

// Output writes the build in the format's syntax, after flip-flopping
// nested emphasis and resolving quote depth.
func (f *Format) Output(b Build, inBibliography bool) string {
	flipped := FlipFlop(b)
	switch f.mode {
	case ModeHTML:
		return writeHTML(flipped, f.quotes, inBibliography)
	case ModeRTF:
		return writeRTF(flipped, f.quotes)
	case ModePandoc:
		return writePandoc(flipped, f.quotes)
	default:
		return writePlain(flipped, f.quotes)
	}
}

// parseMicroMarkup recognizes the small tag set CSL-JSON fields may
// carry: <i>, <b>, <sup>, <sub>, <sc> and <span
// style="font-variant:small-caps;">.
func parseMicroMarkup(s string) Build {
	type frame struct {
		fmtg csl.Formatting
		b    Build
	}
	stack := []frame{{}}
	push := func(fm csl.Formatting) {
		stack = append(stack, frame{fmtg: fm})
	}
	pop := func() {
		if len(stack) == 1 {
			return
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !IsEmpty(top.b) {
			cur := &stack[len(stack)-1]
			cur.b = append(cur.b, Inline{Kind: KindFormatted, Children: top.b, Format: top.fmtg})
		}
	}
	appendText := func(t string) {
		if t == "" {
			return
		}
		cur := &stack[len(stack)-1]
		cur.b = append(cur.b, Inline{Kind: KindText, Text: t})
	}

	for len(s) > 0 {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			appendText(s)
			break
		}
		appendText(s[:lt])
		s = s[lt:]
		gt := strings.IndexByte(s, '>')
		if gt < 0 {
			appendText(s)
			break
		}
		tag := s[1:gt]
		s = s[gt+1:]
		switch {
		case tag == "i":
			push(csl.Formatting{FontStyle: "italic"})
		case tag == "b":
			push(csl.Formatting{FontWeight: "bold"})
		case tag == "sup":
			push(csl.Formatting{VerticalAlign: "sup"})
		case tag == "sub":
			push(csl.Formatting{VerticalAlign: "sub"})
		case tag == "sc" || strings.Contains(tag, "small-caps"):
			push(csl.Formatting{FontVariant: "small-caps"})
		case strings.HasPrefix(tag, "/"):
			pop()
		default:
			// Unknown tag: keep it as literal text.
			appendText("<" + tag + ">")
		}
	}
	for len(stack) > 1 {
		pop()
	}
	return stack[0].b
}
