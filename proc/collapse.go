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
	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

// CnumIx pairs a citation number with its cite index in the cluster. A
// cite carrying a locator is forced to stand alone.
type CnumIx struct {
	Cnum  uint32
	Ix    int
	Alone bool
}

// RangePiece is either a single citation number or a contiguous run.
type RangePiece struct {
	Start CnumIx
	End   CnumIx
	// Single marks a one-element piece.
	Single bool
}

// collapseRanges folds contiguous runs of consecutive citation numbers
// into range pieces.
func collapseRanges(nums []CnumIx) []RangePiece {
	var out []RangePiece
	i := 0
	for i < len(nums) {
		if nums[i].Alone {
			out = append(out, RangePiece{Start: nums[i], Single: true})
			i++
			continue
		}
		j := i
		for j+1 < len(nums) && !nums[j+1].Alone && nums[j+1].Cnum == nums[j].Cnum+1 {
			j++
		}
		if j > i {
			out = append(out, RangePiece{Start: nums[i], End: nums[j]})
		} else {
			out = append(out, RangePiece{Start: nums[i], Single: true})
		}
		i = j + 1
	}
	return out
}

// ClusterCite is one cite of a cluster ready for assembly: its final IR
// generation plus the cluster-level data the transforms need.
type ClusterCite struct {
	Cite *cite.Cite
	Gen  *IrGen
	Cnum uint32
}

// nameKey returns the rendered name-block text used for cite grouping.
func nameKey(item ClusterCite) string {
	id, ok := FirstNameBlock(item.Gen.Root)
	if !ok {
		return ""
	}
	e, ok := item.Gen.Names.Get(id)
	if !ok {
		return ""
	}
	return output.PlainText(e.Build)
}

// yearKey returns the rendered year text used for year-suffix ranges.
func yearKey(item ClusterCite) string {
	b, ok := FindFirstYear(item.Gen.Root, item.Gen.Names)
	if !ok {
		return ""
	}
	return output.PlainText(b)
}

// flattenCite renders one cite, honoring its mode and affixes.
func flattenCite(item ClusterCite, f *output.Format, opts FlattenOpts) output.Build {
	if item.Cite != nil && item.Cite.Mode == cite.ModeAuthorOnly {
		if id, ok := FirstNameBlock(item.Gen.Root); ok {
			if e, ok := item.Gen.Names.Get(id); ok {
				return e.Build
			}
		}
	}
	b := FlattenWith(item.Gen.Root, item.Gen.Names, f, opts)
	if item.Cite != nil {
		affixes := csl.Affixes{Prefix: item.Cite.Prefix, Suffix: item.Cite.Suffix}
		b = f.Affixed(b, affixes)
	}
	return b
}

// AssembleCluster groups and collapses a cluster's cites and joins them
// into one build, per the style's collapse mode.
func AssembleCluster(style *csl.Style, f *output.Format, items []ClusterCite) output.Build {
	if len(items) == 0 {
		return nil
	}
	c := style.Citation
	delim := c.Layout.Delimiter
	if delim == "" {
		delim = "; "
	}

	switch c.Collapse {
	case csl.CollapseCitationNumber:
		if piece, ok := assembleCnumRanges(style, f, items, delim); ok {
			return piece
		}
	case csl.CollapseYear, csl.CollapseYearSuffix, csl.CollapseYearSuffixRanged:
		return assembleYearCollapsed(style, f, items, delim)
	}

	parts := make([]output.Build, 0, len(items))
	for _, item := range items {
		parts = append(parts, flattenCite(item, f, FlattenOpts{}))
	}
	return output.Join(parts, delim)
}

// assembleCnumRanges collapses a cluster whose cites all render as bare
// citation numbers into range pieces like "1–3, 5".
func assembleCnumRanges(style *csl.Style, f *output.Format, items []ClusterCite, delim string) (output.Build, bool) {
	nums := make([]CnumIx, 0, len(items))
	for i, item := range items {
		cnum, ok := rendersLoneCnum(item, f)
		if !ok {
			return nil, false
		}
		nums = append(nums, CnumIx{Cnum: cnum, Ix: i, Alone: item.Cite.HasLocator()})
	}
	pieces := collapseRanges(nums)
	var parts []output.Build
	for _, p := range pieces {
		if p.Single {
			parts = append(parts, flattenCite(items[p.Start.Ix], f, FlattenOpts{}))
			continue
		}
		b := flattenCite(items[p.Start.Ix], f, FlattenOpts{})
		b = append(b, output.Text("–")...)
		b = append(b, flattenCite(items[p.End.Ix], f, FlattenOpts{})...)
		parts = append(parts, b)
	}
	afterDelim := style.Citation.AfterCollapseDelimiter
	if afterDelim == "" {
		afterDelim = delim
	}
	return output.Join(parts, afterDelim), true
}

// rendersLoneCnum reports whether a cite renders exactly its citation
// number.
func rendersLoneCnum(item ClusterCite, f *output.Format) (uint32, bool) {
	if item.Cnum == 0 {
		return 0, false
	}
	plain := output.PlainText(Flatten(item.Gen.Root, item.Gen.Names, f))
	if plain == itoa(int(item.Cnum)) {
		return item.Cnum, true
	}
	return 0, false
}

// assembleYearCollapsed groups adjacent cites sharing a rendered name
// block; within a group the repeated names vanish, and under the
// year-suffix modes cites sharing a rendered year reduce to their
// suffix letters.
func assembleYearCollapsed(style *csl.Style, f *output.Format, items []ClusterCite, delim string) output.Build {
	c := style.Citation
	groupDelim := c.CiteGroupDelimiter
	if groupDelim == "" {
		groupDelim = ", "
	}
	afterDelim := c.AfterCollapseDelimiter
	if afterDelim == "" {
		afterDelim = delim
	}
	suffixDelim := c.YearSuffixDelimiter
	if suffixDelim == "" {
		suffixDelim = groupDelim
	}

	var groups []output.Build
	i := 0
	for i < len(items) {
		key := nameKey(items[i])
		j := i + 1
		if key != "" {
			for j < len(items) && nameKey(items[j]) == key {
				j++
			}
		}
		group := items[i:j]

		var parts []output.Build
		if c.Collapse == csl.CollapseYearSuffix || c.Collapse == csl.CollapseYearSuffixRanged {
			parts = yearSuffixParts(style, f, group, suffixDelim)
		} else {
			for k, item := range group {
				opts := FlattenOpts{SuppressNames: k > 0}
				parts = append(parts, flattenCite(item, f, opts))
			}
		}
		groups = append(groups, output.Join(parts, groupDelim))
		i = j
	}
	return output.Join(groups, afterDelim)
}

// yearSuffixParts renders one name group, reducing runs that share a
// rendered year to their year-suffix letters (ranged when asked).
func yearSuffixParts(style *csl.Style, f *output.Format, group []ClusterCite, suffixDelim string) []output.Build {
	ranged := style.Citation.Collapse == csl.CollapseYearSuffixRanged

	var parts []output.Build
	i := 0
	for i < len(group) {
		year := yearKey(group[i])
		j := i + 1
		if year != "" {
			for j < len(group) {
				if yearKey(group[j]) != year || group[j].Cite.HasLocator() {
					break
				}
				if _, ok := FindYearSuffix(group[j].Gen.Root); !ok {
					break
				}
				j++
			}
		}

		// First cite of the year run renders in full (minus repeated
		// names when not group-initial).
		first := flattenCite(group[i], f, FlattenOpts{SuppressNames: i > 0})

		if j-i > 1 {
			var suffixes []uint32
			for k := i + 1; k < j; k++ {
				s, _ := FindYearSuffix(group[k].Gen.Root)
				suffixes = append(suffixes, s)
			}
			first = append(first, suffixRun(suffixes, ranged, suffixDelim)...)
		}
		parts = append(parts, first)
		i = j
	}
	return parts
}

// suffixRun renders trailing year-suffix ordinals, optionally folding
// consecutive ones into ranges ("a–c").
func suffixRun(suffixes []uint32, ranged bool, delim string) output.Build {
	var b output.Build
	if !ranged {
		for _, s := range suffixes {
			b = append(b, output.Text(delim)...)
			b = append(b, output.Text(suffixLetters(s))...)
		}
		return b
	}
	i := 0
	for i < len(suffixes) {
		j := i
		for j+1 < len(suffixes) && suffixes[j+1] == suffixes[j]+1 {
			j++
		}
		b = append(b, output.Text(delim)...)
		if j-i >= 1 {
			b = append(b, output.Text(suffixLetters(suffixes[i])+"–"+suffixLetters(suffixes[j]))...)
		} else {
			b = append(b, output.Text(suffixLetters(suffixes[i]))...)
		}
		i = j + 1
	}
	return b
}
