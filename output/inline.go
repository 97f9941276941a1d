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

// Package output flattens built inline trees into the caller's chosen
// output format: plain text, HTML, RTF or Pandoc inline JSON. All
// formats share the Inline build representation; they differ only in
// the final writer.
package output

import (
	"strings"

	"github.com/citation-style-language/citeproc-go/csl"
)

// InlineKind discriminates Inline nodes.
type InlineKind uint8

const (
	// KindText is a leaf holding literal text.
	KindText InlineKind = iota
	// KindFormatted wraps children in inline formatting.
	KindFormatted
	// KindQuoted wraps children in quotes; the depth decides outer or
	// inner marks at flip-flop time.
	KindQuoted
	// KindLinked wraps children in a hyperlink.
	KindLinked
	// KindDiv wraps children in a display mode (block, left-margin,
	// right-inline, indent) for bibliography entries.
	KindDiv
)

// Inline is one node of a build. Builds are immutable once returned
// from a constructor; writers never mutate them.
type Inline struct {
	Kind     InlineKind
	Text     string
	Children []Inline
	Format   csl.Formatting
	Display  csl.Display
	URL      string
	// Inner marks a quoted node as using inner quote marks; assigned by
	// the flip-flop pass from nesting depth.
	Inner bool
}

// Build is an ordered sequence of inline nodes.
type Build = []Inline

// Text returns a leaf build.
func Text(s string) Build {
	if s == "" {
		return nil
	}
	return Build{{Kind: KindText, Text: s}}
}

// IsEmpty reports whether the build renders no text at all.
func IsEmpty(b Build) bool {
	for _, n := range b {
		if n.Kind == KindText {
			if n.Text != "" {
				return false
			}
			continue
		}
		if !IsEmpty(n.Children) {
			return false
		}
	}
	return true
}

// PlainText flattens a build to undecorated text. Used for
// disambiguation signatures and sort keys.
func PlainText(b Build) string {
	var sb strings.Builder
	plainTo(&sb, b)
	return sb.String()
}

func plainTo(sb *strings.Builder, b Build) {
	for _, n := range b {
		if n.Kind == KindText {
			sb.WriteString(n.Text)
			continue
		}
		plainTo(sb, n.Children)
	}
}

// Join concatenates parts with a delimiter, skipping empty parts.
func Join(parts []Build, delim string) Build {
	var out Build
	for _, p := range parts {
		if IsEmpty(p) {
			continue
		}
		if len(out) > 0 && delim != "" {
			out = append(out, Inline{Kind: KindText, Text: delim})
		}
		out = append(out, p...)
	}
	return out
}
