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
	"github.com/citation-style-language/citeproc-go/output"
)

// suffixLetters converts a 1-based year-suffix ordinal to bijective
// base-26 lowercase: 1 -> a, 26 -> z, 27 -> aa.
func suffixLetters(n uint32) string {
	if n == 0 {
		return ""
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('a' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}

// resolvePair recomputes group variables bottom-up once year-suffix
// hooks know their fill state, collapsing groups whose variables all
// came up missing.
func resolvePair(pair IRPair) IRPair {
	switch n := pair.IR.(type) {
	case *YearSuffixHook:
		return IRPair{IR: n, GV: pair.GV.Resolve(n.Suffix > 0)}
	case *CondDisamb:
		rc := resolvePair(n.Chosen)
		n.Chosen = rc
		return IRPair{IR: n, GV: rc.GV}
	case *Seq:
		gv := GVPlain
		for i := range n.Contents {
			n.Contents[i] = resolvePair(n.Contents[i])
			gv = gv.Neighbour(n.Contents[i].GV)
		}
		if n.IsGroup && gv == GVMissing {
			return IRPair{IR: &Rendered{}, GV: GVPlain}
		}
		return IRPair{IR: n, GV: gv}
	}
	return pair
}

// FlattenOpts modifies flattening for the cluster and bibliography
// transforms.
type FlattenOpts struct {
	// SuppressNames drops the first shared name block (cite grouping).
	SuppressNames bool
	// SuppressYear drops rendered year leaves (year-suffix collapse).
	SuppressYear bool
	// NameOverride replaces the first shared name block's rendering
	// (subsequent-author-substitute).
	NameOverride output.Build
}

// Flatten renders an IR pair to a build, resolving name blocks through
// the side table and year-suffix hooks through their filled slots.
func Flatten(pair IRPair, names *NameTable, f *output.Format) output.Build {
	return FlattenWith(pair, names, f, FlattenOpts{})
}

// FlattenWith renders an IR pair with collapse options applied.
func FlattenWith(pair IRPair, names *NameTable, f *output.Format, opts FlattenOpts) output.Build {
	st := &flattenState{names: names, f: f, opts: opts}
	return st.flatten(pair)
}

type flattenState struct {
	names *NameTable
	f     *output.Format
	opts  FlattenOpts

	namesDropped bool
}

func (st *flattenState) flatten(pair IRPair) output.Build {
	switch n := pair.IR.(type) {
	case *Rendered:
		if st.opts.SuppressYear && n.Edge == EdgeYear {
			return nil
		}
		return n.Build

	case *NameBlock:
		if st.opts.SuppressNames && !st.namesDropped {
			st.namesDropped = true
			return nil
		}
		if st.opts.NameOverride != nil && !st.namesDropped {
			st.namesDropped = true
			return st.opts.NameOverride
		}
		if st.names == nil {
			return nil
		}
		e, ok := st.names.Get(n.ID)
		if !ok {
			return nil
		}
		return e.Build

	case *CondDisamb:
		return st.flatten(n.Chosen)

	case *YearSuffixHook:
		if n.Suffix == 0 {
			return nil
		}
		return output.Text(suffixLetters(n.Suffix))

	case *Seq:
		var parts []output.Build
		for _, child := range n.Contents {
			b := st.flatten(child)
			if !output.IsEmpty(b) {
				parts = append(parts, b)
			}
		}
		joined := output.Join(parts, n.Delimiter)
		if output.IsEmpty(joined) {
			return nil
		}
		if n.TextCase != "" {
			joined = st.f.ApplyTextCase(joined, n.TextCase)
		}
		joined = st.f.WithFormat(joined, n.Formatting)
		joined = st.f.AffixedQuoted(joined, n.Affixes, n.Quotes)
		joined = st.f.Displayed(joined, n.Display)
		return joined
	}
	return nil
}

// FindFirstYear returns the rendered year leaf of a tree, used by the
// year collapse transforms.
func FindFirstYear(pair IRPair, names *NameTable) (output.Build, bool) {
	switch n := pair.IR.(type) {
	case *Rendered:
		if n.Edge == EdgeYear && !output.IsEmpty(n.Build) {
			return n.Build, true
		}
	case *CondDisamb:
		return FindFirstYear(n.Chosen, names)
	case *Seq:
		for _, child := range n.Contents {
			if b, ok := FindFirstYear(child, names); ok {
				return b, ok
			}
		}
	}
	return nil, false
}

// FirstNameBlock returns the first shared name block id in a tree.
func FirstNameBlock(pair IRPair) (NameBlockID, bool) {
	switch n := pair.IR.(type) {
	case *NameBlock:
		return n.ID, true
	case *CondDisamb:
		return FirstNameBlock(n.Chosen)
	case *Seq:
		for _, child := range n.Contents {
			if id, ok := FirstNameBlock(child); ok {
				return id, ok
			}
		}
	}
	return 0, false
}

// FindYearSuffix returns the filled year-suffix ordinal of a tree.
func FindYearSuffix(pair IRPair) (uint32, bool) {
	switch n := pair.IR.(type) {
	case *YearSuffixHook:
		if n.Suffix > 0 {
			return n.Suffix, true
		}
	case *CondDisamb:
		return FindYearSuffix(n.Chosen)
	case *Seq:
		for _, child := range n.Contents {
			if s, ok := FindYearSuffix(child); ok {
				return s, ok
			}
		}
	}
	return 0, false
}

// StartsWithTerm reports whether the first rendered leaf of a tree is
// a term (e.g. "ibid"), in which case a cluster-initial cite has its
// first letter capitalized.
func StartsWithTerm(pair IRPair) bool {
	switch n := pair.IR.(type) {
	case *Rendered:
		if output.IsEmpty(n.Build) {
			return false
		}
		return n.Edge == EdgeTerm || n.Edge == EdgeLocatorLabel || n.Edge == EdgeFrnnLabel
	case *CondDisamb:
		return StartsWithTerm(n.Chosen)
	case *Seq:
		for _, child := range n.Contents {
			switch c := child.IR.(type) {
			case *Rendered:
				if output.IsEmpty(c.Build) {
					continue
				}
			}
			return StartsWithTerm(child)
		}
	}
	return false
}
