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
	"github.com/cespare/xxhash/v2"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

// DisambIndex is the outcome of the disambiguation fixed point: the
// refinement configuration each reference's cites render under, plus
// whether the reference remained ambiguous after every stage.
type DisambIndex struct {
	Configs   map[string]DisambConfig
	Ambiguous map[string]bool
}

// Config returns the refinement state for a reference.
func (d *DisambIndex) Config(refID string) DisambConfig {
	if d == nil {
		return DisambConfig{}
	}
	return d.Configs[refID]
}

// maxAddNamesSteps bounds the add-names expansion.
const maxAddNamesSteps = 16

// ComputeDisambiguation runs the disambiguation stages over all
// references in sorted-reference order. Each stage refines only the
// references whose "ambig signature" (flattened plain-text rendering of
// a bare cite) collides with another reference's, and stages are
// idempotent for a fixed input set.
func ComputeDisambiguation(
	style *csl.Style,
	locale *csl.Locale,
	format *output.Format,
	orderedIDs []string,
	refs map[string]*cite.Reference,
) *DisambIndex {
	idx := &DisambIndex{
		Configs:   make(map[string]DisambConfig, len(orderedIDs)),
		Ambiguous: make(map[string]bool),
	}
	for _, id := range orderedIDs {
		idx.Configs[id] = DisambConfig{}
	}

	ghostSig := func(id string) string {
		ref := refs[id]
		if ref == nil {
			return ""
		}
		ctx := NewContext(style, locale, format, ref, cite.Basic(id))
		ctx.Disamb = idx.Configs[id]
		gen := BuildCite(ctx)
		return output.PlainText(Flatten(gen.Root, gen.Names, format))
	}

	sigs := make(map[string]string, len(orderedIDs))
	recompute := func(only map[string]bool) {
		for _, id := range orderedIDs {
			if only != nil && !only[id] {
				continue
			}
			sigs[id] = ghostSig(id)
		}
	}
	ambiguousSet := func() map[string]bool {
		groups := make(map[string][]string)
		for _, id := range orderedIDs {
			if refs[id] == nil {
				continue
			}
			groups[sigs[id]] = append(groups[sigs[id]], id)
		}
		out := make(map[string]bool)
		for _, members := range groups {
			if len(members) > 1 {
				for _, id := range members {
					out[id] = true
				}
			}
		}
		return out
	}

	recompute(nil)
	ambiguous := ambiguousSet()

	// Stage 2: add names, one step at a time, stopping per reference as
	// soon as its signature becomes unique.
	if style.Citation.DisambiguateAddNames {
		for step := 1; step <= maxAddNamesSteps && len(ambiguous) > 0; step++ {
			progressed := false
			for id := range ambiguous {
				cfg := idx.Configs[id]
				if cfg.AddNames < step && step <= maxNameCount(refs[id]) {
					cfg.AddNames = step
					idx.Configs[id] = cfg
					progressed = true
				}
			}
			if !progressed {
				break
			}
			recompute(ambiguous)
			ambiguous = ambiguousSet()
		}
	}

	// Stage 3: expand given names per the style rule.
	if style.Citation.DisambiguateAddGivenname && len(ambiguous) > 0 {
		for level := 1; level <= 2 && len(ambiguous) > 0; level++ {
			targets := givenNameTargets(style, orderedIDs, ambiguous)
			if len(targets) == 0 {
				break
			}
			for id := range targets {
				cfg := idx.Configs[id]
				cfg.GivenNames = level
				idx.Configs[id] = cfg
			}
			recompute(targets)
			ambiguous = ambiguousSet()
		}
	}

	// Stage 4: enable style-marked disambiguation branches.
	if len(ambiguous) > 0 && styleHasDisambBranch(style) {
		for id := range ambiguous {
			cfg := idx.Configs[id]
			cfg.CondBranches = true
			idx.Configs[id] = cfg
		}
		recompute(ambiguous)
		ambiguous = ambiguousSet()
	}

	// Stage 5: assign year suffixes to the references that remain
	// ambiguous and share a year-bearing signature, in sorted-reference
	// order.
	if style.Citation.DisambiguateAddYearSuffix && len(ambiguous) > 0 {
		groups := make(map[string][]string)
		for _, id := range orderedIDs {
			if !ambiguous[id] {
				continue
			}
			if ref := refs[id]; ref == nil || !hasYear(ref) {
				continue
			}
			groups[sigs[id]] = append(groups[sigs[id]], id)
		}
		changed := make(map[string]bool)
		for _, members := range groups {
			if len(members) < 2 {
				continue
			}
			for i, id := range members {
				cfg := idx.Configs[id]
				cfg.YearSuffix = uint32(i + 1)
				idx.Configs[id] = cfg
				changed[id] = true
			}
		}
		if len(changed) > 0 {
			recompute(changed)
			ambiguous = ambiguousSet()
		}
	}

	idx.Ambiguous = ambiguous
	return idx
}

// SignatureOf hashes a flattened rendering for ambiguity comparison.
func SignatureOf(plain string) uint64 {
	return xxhash.Sum64String(plain)
}

// maxNameCount returns the longest name list of a reference.
func maxNameCount(ref *cite.Reference) int {
	if ref == nil {
		return 0
	}
	max := 0
	for _, ns := range ref.Names {
		if len(ns) > max {
			max = len(ns)
		}
	}
	return max
}

func hasYear(ref *cite.Reference) bool {
	d, ok := ref.Dates["issued"]
	return ok && d.From.Year != 0
}

// givenNameTargets selects the references the add-givenname rule may
// touch. The rule variants differ in how far the expansion reaches
// inside each name list, which name rendering handles; the target set
// is the ambiguous set for every rule.
func givenNameTargets(style *csl.Style, orderedIDs []string, ambiguous map[string]bool) map[string]bool {
	out := make(map[string]bool, len(ambiguous))
	for id := range ambiguous {
		out[id] = true
	}
	return out
}

func styleHasDisambBranch(style *csl.Style) bool {
	found := false
	var walk func(els []csl.Element)
	walk = func(els []csl.Element) {
		for _, el := range els {
			switch e := el.(type) {
			case *csl.Group:
				walk(e.Elements)
			case *csl.Names:
				walk(e.Substitute)
			case *csl.Choose:
				if e.If.Cond.Disambiguate != nil {
					found = true
				}
				walk(e.If.Elements)
				for _, b := range e.ElseIf {
					if b.Cond.Disambiguate != nil {
						found = true
					}
					walk(b.Elements)
				}
				walk(e.Else)
			case *csl.Text:
				if e.Source == csl.SourceMacro {
					if m, ok := style.Macro(e.Macro); ok {
						walk(m)
					}
				}
			}
		}
	}
	walk(style.Citation.Layout.Elements)
	return found
}
