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
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

// NameTokensOf returns a bibliography entry's leading name tokens,
// reduced to person names and literals, along with the delimiter used
// to reconstruct the block.
func NameTokensOf(gen *IrGen) ([]string, string) {
	id, ok := FirstNameBlock(gen.Root)
	if !ok {
		return nil, ", "
	}
	e, ok := gen.Names.Get(id)
	if !ok {
		return nil, ", "
	}
	delim := e.Delimiter
	if delim == "" {
		delim = ", "
	}
	return e.Tokens, delim
}

// SubstituteNames compares an entry's name tokens with the previous
// entry's and, when they match per the rule, returns the replacement
// rendering for the entry's name block. The bool reports whether a
// substitution applies; with an empty substitute string the returned
// build can be nil even when it does.
func SubstituteNames(cur, prev []string, delim, substitute string, rule csl.SubstituteRule) (output.Build, bool) {
	if len(cur) == 0 || len(prev) == 0 {
		return nil, false
	}
	allEqual := len(cur) == len(prev)
	if allEqual {
		for i := range cur {
			if cur[i] != prev[i] {
				allEqual = false
				break
			}
		}
	}
	matched := 0
	for matched < len(cur) && matched < len(prev) && cur[matched] == prev[matched] {
		matched++
	}

	switch rule {
	case csl.CompleteAll:
		if !allEqual {
			return nil, false
		}
		// The whole block reduces to the substitute string (possibly
		// empty, which hides the names entirely).
		return output.Text(substitute), true

	case csl.CompleteEach:
		if !allEqual {
			return nil, false
		}
		parts := make([]output.Build, len(cur))
		for i := range cur {
			parts[i] = output.Text(substitute)
		}
		return output.Join(parts, delim), true

	case csl.PartialEach:
		if matched == 0 {
			return nil, false
		}
		parts := make([]output.Build, 0, len(cur))
		for i := range cur {
			if i < matched {
				parts = append(parts, output.Text(substitute))
			} else {
				parts = append(parts, output.Text(cur[i]))
			}
		}
		return output.Join(parts, delim), true

	case csl.PartialFirst:
		if matched == 0 {
			return nil, false
		}
		parts := make([]output.Build, 0, len(cur))
		parts = append(parts, output.Text(substitute))
		for i := 1; i < len(cur); i++ {
			parts = append(parts, output.Text(cur[i]))
		}
		return output.Join(parts, delim), true
	}
	return nil, false
}
