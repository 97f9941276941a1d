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
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/citation-style-language/citeproc-go/csl"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// Stop words that stay lowercase in title case unless first or last.
var titleStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "down": true, "for": true, "from": true,
	"in": true, "into": true, "nor": true, "of": true, "on": true,
	"onto": true, "or": true, "over": true, "so": true, "the": true,
	"till": true, "to": true, "up": true, "via": true, "with": true,
	"yet": true,
}

func applyTextCaseString(s string, tc csl.TextCase) string {
	switch tc {
	case "lowercase":
		return strings.ToLower(s)
	case "uppercase":
		return strings.ToUpper(s)
	case "capitalize-first", "sentence":
		return capitalizeFirst(s)
	case "capitalize-all":
		return titleCaser.String(s)
	case "title":
		return titleCase(s)
	}
	return s
}

// CapitalizeFirst uppercases the first letter of a build in place; used
// for cluster-initial terms.
func CapitalizeFirst(b Build) Build {
	out, _ := mapCase(b, "capitalize-first", true)
	return out
}

// mapCase applies a text-case transform across the text leaves of a
// build. Only the first leaf is affected for capitalize-first.
func mapCase(b Build, tc csl.TextCase, first bool) (Build, bool) {
	out := make(Build, 0, len(b))
	for _, n := range b {
		switch n.Kind {
		case KindText:
			if tc == "capitalize-first" || tc == "sentence" {
				if first && n.Text != "" {
					n.Text = capitalizeFirst(n.Text)
					first = false
				}
			} else {
				n.Text = applyTextCaseString(n.Text, tc)
			}
		default:
			n.Children, first = mapCase(n.Children, tc, first)
		}
		out = append(out, n)
	}
	return out, first
}

func capitalizeFirst(s string) string {
	for i, r := range s {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return s[:i] + string(unicode.ToUpper(r)) + s[i+len(string(r)):]
			}
			return s
		}
	}
	return s
}

func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		if i != 0 && i != len(words)-1 && titleStopWords[lower] {
			words[i] = lower
			continue
		}
		// Words with internal capitals are left alone.
		if w != lower && w != strings.ToUpper(w[:1])+lower[1:] {
			continue
		}
		words[i] = titleCaser.String(lower)
	}
	return strings.Join(words, " ")
}
