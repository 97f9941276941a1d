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

import "github.com/citation-style-language/citeproc-go/csl"

type flipState struct {
	italic    bool
	bold      bool
	smallCaps bool
	quote     int
}

// FlipFlop rewrites nested emphatic formatting: italics inside italics
// become roman, bold inside bold becomes normal weight, small-caps
// inside small-caps revert, and quote marks alternate outer/inner with
// nesting depth. Applying it twice gives the same result as applying it
// once.
func FlipFlop(b Build) Build {
	return flipWalk(b, flipState{})
}

func flipWalk(b Build, st flipState) Build {
	if len(b) == 0 {
		return nil
	}
	out := make(Build, 0, len(b))
	for _, n := range b {
		switch n.Kind {
		case KindText:
			out = append(out, n)
		case KindQuoted:
			q := n
			q.Inner = st.quote%2 == 1
			inner := st
			inner.quote++
			q.Children = flipWalk(n.Children, inner)
			out = append(out, q)
		case KindFormatted:
			fm, next := flipFormatting(n.Format, st)
			f := n
			f.Format = fm
			f.Children = flipWalk(n.Children, next)
			if fm.IsEmpty() {
				// Wrapper without formatting: splice children in place.
				out = append(out, f.Children...)
			} else {
				out = append(out, f)
			}
		default:
			c := n
			c.Children = flipWalk(n.Children, st)
			out = append(out, c)
		}
	}
	return out
}

func flipFormatting(f csl.Formatting, st flipState) (csl.Formatting, flipState) {
	next := st
	switch f.FontStyle {
	case "italic", "oblique":
		if st.italic {
			f.FontStyle = "normal"
			next.italic = false
		} else {
			next.italic = true
		}
	case "normal":
		next.italic = false
	}
	switch f.FontWeight {
	case "bold":
		if st.bold {
			f.FontWeight = "normal"
			next.bold = false
		} else {
			next.bold = true
		}
	case "normal":
		next.bold = false
	}
	switch f.FontVariant {
	case "small-caps":
		if st.smallCaps {
			f.FontVariant = "normal"
			next.smallCaps = false
		} else {
			next.smallCaps = true
		}
	case "normal":
		next.smallCaps = false
	}
	return f, next
}
