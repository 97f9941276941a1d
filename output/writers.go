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
	"encoding/json"
	"strings"

	"github.com/citation-style-language/citeproc-go/csl"
)

func writePlain(b Build, q QuoteMarks) string {
	var sb strings.Builder
	var walk func(b Build)
	walk = func(b Build) {
		for _, n := range b {
			switch n.Kind {
			case KindText:
				sb.WriteString(n.Text)
			case KindQuoted:
				open, close := q.Open, q.Close
				if n.Inner {
					open, close = q.OpenInner, q.CloseInner
				}
				sb.WriteString(open)
				walk(n.Children)
				sb.WriteString(close)
			default:
				walk(n.Children)
			}
		}
	}
	walk(b)
	return sb.String()
}

func writeHTML(b Build, q QuoteMarks, inBibliography bool) string {
	var sb strings.Builder
	var walk func(b Build)
	walk = func(b Build) {
		for _, n := range b {
			switch n.Kind {
			case KindText:
				sb.WriteString(htmlEscape(n.Text))
			case KindQuoted:
				open, close := q.Open, q.Close
				if n.Inner {
					open, close = q.OpenInner, q.CloseInner
				}
				sb.WriteString(open)
				walk(n.Children)
				sb.WriteString(close)
			case KindLinked:
				sb.WriteString(`<a href="`)
				sb.WriteString(htmlEscape(n.URL))
				sb.WriteString(`">`)
				walk(n.Children)
				sb.WriteString("</a>")
			case KindDiv:
				sb.WriteString(`<div class="csl-`)
				sb.WriteString(string(n.Display))
				sb.WriteString(`">`)
				walk(n.Children)
				sb.WriteString("</div>")
			case KindFormatted:
				open, close := htmlTags(n.Format)
				sb.WriteString(open)
				walk(n.Children)
				sb.WriteString(close)
			}
		}
	}
	walk(b)
	return sb.String()
}

func htmlTags(f csl.Formatting) (string, string) {
	var open, close strings.Builder
	wrap := func(tag string) {
		open.WriteString("<" + tag + ">")
		s := close.String()
		close.Reset()
		close.WriteString("</" + tag + ">" + s)
	}
	switch f.FontStyle {
	case "italic", "oblique":
		wrap("i")
	case "normal":
		open.WriteString(`<span style="font-style:normal;">`)
		close.WriteString("</span>")
	}
	switch f.FontWeight {
	case "bold":
		wrap("b")
	case "normal", "light":
		s := close.String()
		close.Reset()
		open.WriteString(`<span style="font-weight:normal;">`)
		close.WriteString("</span>" + s)
	}
	switch f.FontVariant {
	case "small-caps":
		s := close.String()
		close.Reset()
		open.WriteString(`<span style="font-variant:small-caps;">`)
		close.WriteString("</span>" + s)
	case "normal":
		s := close.String()
		close.Reset()
		open.WriteString(`<span style="font-variant:normal;">`)
		close.WriteString("</span>" + s)
	}
	switch f.VerticalAlign {
	case "sup":
		wrap("sup")
	case "sub":
		wrap("sub")
	}
	switch f.TextDecoration {
	case "underline":
		s := close.String()
		close.Reset()
		open.WriteString(`<span style="text-decoration:underline;">`)
		close.WriteString("</span>" + s)
	}
	return open.String(), close.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func writeRTF(b Build, q QuoteMarks) string {
	var sb strings.Builder
	var walk func(b Build)
	walk = func(b Build) {
		for _, n := range b {
			switch n.Kind {
			case KindText:
				sb.WriteString(rtfEscape(n.Text))
			case KindQuoted:
				open, close := q.Open, q.Close
				if n.Inner {
					open, close = q.OpenInner, q.CloseInner
				}
				sb.WriteString(rtfEscape(open))
				walk(n.Children)
				sb.WriteString(rtfEscape(close))
			case KindFormatted:
				var cmds []string
				switch n.Format.FontStyle {
				case "italic", "oblique":
					cmds = append(cmds, `\i`)
				case "normal":
					cmds = append(cmds, `\i0`)
				}
				switch n.Format.FontWeight {
				case "bold":
					cmds = append(cmds, `\b`)
				case "normal":
					cmds = append(cmds, `\b0`)
				}
				if n.Format.FontVariant == "small-caps" {
					cmds = append(cmds, `\scaps`)
				}
				switch n.Format.VerticalAlign {
				case "sup":
					cmds = append(cmds, `\super`)
				case "sub":
					cmds = append(cmds, `\sub`)
				}
				if len(cmds) > 0 {
					sb.WriteString("{" + strings.Join(cmds, "") + " ")
					walk(n.Children)
					sb.WriteString("}")
				} else {
					walk(n.Children)
				}
			default:
				walk(n.Children)
			}
		}
	}
	walk(b)
	return sb.String()
}

func rtfEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r > 127:
			sb.WriteString(`\uc0\u`)
			sb.WriteString(itoa(int(r)))
			sb.WriteByte(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// pandocInline mirrors the Pandoc JSON inline node shape.
type pandocInline struct {
	T string      `json:"t"`
	C interface{} `json:"c,omitempty"`
}

func writePandoc(b Build, q QuoteMarks) string {
	inlines := pandocInlines(b, q)
	data, err := json.Marshal(inlines)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func pandocInlines(b Build, q QuoteMarks) []pandocInline {
	var out []pandocInline
	for _, n := range b {
		switch n.Kind {
		case KindText:
			out = append(out, pandocText(n.Text)...)
		case KindQuoted:
			quoteType := "DoubleQuote"
			if n.Inner {
				quoteType = "SingleQuote"
			}
			out = append(out, pandocInline{
				T: "Quoted",
				C: []interface{}{
					map[string]interface{}{"t": quoteType},
					pandocInlines(n.Children, q),
				},
			})
		case KindLinked:
			out = append(out, pandocInline{
				T: "Link",
				C: []interface{}{
					[]interface{}{"", []string{}, [][]string{}},
					pandocInlines(n.Children, q),
					[]string{n.URL, ""},
				},
			})
		case KindFormatted:
			inner := pandocInlines(n.Children, q)
			switch n.Format.FontStyle {
			case "italic", "oblique":
				inner = []pandocInline{{T: "Emph", C: inner}}
			}
			if n.Format.FontWeight == "bold" {
				inner = []pandocInline{{T: "Strong", C: inner}}
			}
			if n.Format.FontVariant == "small-caps" {
				inner = []pandocInline{{T: "SmallCaps", C: inner}}
			}
			switch n.Format.VerticalAlign {
			case "sup":
				inner = []pandocInline{{T: "Superscript", C: inner}}
			case "sub":
				inner = []pandocInline{{T: "Subscript", C: inner}}
			}
			out = append(out, inner...)
		default:
			out = append(out, pandocInlines(n.Children, q)...)
		}
	}
	return out
}

// pandocText splits a string into Str and Space inlines the way Pandoc
// represents text runs.
func pandocText(s string) []pandocInline {
	var out []pandocInline
	for len(s) > 0 {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			out = append(out, pandocInline{T: "Str", C: s})
			break
		}
		if i > 0 {
			out = append(out, pandocInline{T: "Str", C: s[:i]})
		}
		out = append(out, pandocInline{T: "Space"})
		s = s[i+1:]
	}
	return out
}
