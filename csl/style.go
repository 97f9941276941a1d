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

// Package csl is the immutable in-memory representation of a parsed
// citation style and its locales. Styles are produced by Parse at
// configuration time and consumed read-only by the evaluation pipeline.
package csl

// Style is a parsed, validated citation style.
type Style struct {
	Class         string // "in-text" or "note"
	Version       string
	DefaultLocale string

	Info      Info
	Macros    map[string][]Element
	Citation  Citation
	Bibliography *Bibliography
	// Locales holds in-style locale overrides, most specific last.
	Locales []*Locale

	PageRangeFormat           string
	DemoteNonDroppingParticle string
	InitializeWithHyphen      bool

	// Features carries extension opt-ins that ride along with the style.
	Features map[string]bool
}

// Info is the style's metadata header.
type Info struct {
	Title string
	ID    string
}

// InText reports whether the style is an in-text style.
func (s *Style) InText() bool { return s.Class != "note" }

// Macro returns a named macro's elements.
func (s *Style) Macro(name string) ([]Element, bool) {
	els, ok := s.Macros[name]
	return els, ok
}

// Citation configures the citation layout and its cite-level policies.
type Citation struct {
	Layout Layout
	Sort   *Sort
	Name   NameOptions

	DisambiguateAddNames       bool
	DisambiguateAddGivenname   bool
	GivennameDisambiguationRule GivenNameRule
	DisambiguateAddYearSuffix  bool

	Collapse               Collapse
	CiteGroupDelimiter     string
	YearSuffixDelimiter    string
	AfterCollapseDelimiter string

	NearNoteDistance uint32
}

// Bibliography configures the bibliography layout.
type Bibliography struct {
	Layout Layout
	Sort   *Sort
	Name   NameOptions

	HangingIndent    bool
	SecondFieldAlign SecondFieldAlign
	LineSpacing      int
	EntrySpacing     int

	SubsequentAuthorSubstitute     string
	HasSubsequentAuthorSubstitute  bool
	SubsequentAuthorSubstituteRule SubstituteRule
}

// Layout is a rendering root: formatting, affixes, a delimiter between
// cites (or nothing, for bibliographies), and child elements.
type Layout struct {
	Formatting Formatting
	Affixes    Affixes
	Delimiter  string
	Elements   []Element
}

// NameOptions carries the inheritable name/names attributes set on
// cs:style, cs:citation or cs:bibliography.
type NameOptions struct {
	And                    string // "", "text", "symbol"
	Delimiter              string
	DelimiterPrecedesEtAl  string
	DelimiterPrecedesLast  string
	EtAlMin                int
	EtAlUseFirst           int
	EtAlSubsequentMin      int
	EtAlSubsequentUseFirst int
	EtAlUseLast            bool
	Form                   string // "long", "short", "count"
	Initialize             *bool
	InitializeWith         string
	NameAsSortOrder        string // "", "first", "all"
	SortSeparator          string
}

// Merge overlays o on top of n, field by field.
func (n NameOptions) Merge(o NameOptions) NameOptions {
	out := n
	if o.And != "" {
		out.And = o.And
	}
	if o.Delimiter != "" {
		out.Delimiter = o.Delimiter
	}
	if o.DelimiterPrecedesEtAl != "" {
		out.DelimiterPrecedesEtAl = o.DelimiterPrecedesEtAl
	}
	if o.DelimiterPrecedesLast != "" {
		out.DelimiterPrecedesLast = o.DelimiterPrecedesLast
	}
	if o.EtAlMin != 0 {
		out.EtAlMin = o.EtAlMin
	}
	if o.EtAlUseFirst != 0 {
		out.EtAlUseFirst = o.EtAlUseFirst
	}
	if o.EtAlSubsequentMin != 0 {
		out.EtAlSubsequentMin = o.EtAlSubsequentMin
	}
	if o.EtAlSubsequentUseFirst != 0 {
		out.EtAlSubsequentUseFirst = o.EtAlSubsequentUseFirst
	}
	if o.EtAlUseLast {
		out.EtAlUseLast = true
	}
	if o.Form != "" {
		out.Form = o.Form
	}
	if o.Initialize != nil {
		out.Initialize = o.Initialize
	}
	if o.InitializeWith != "" {
		out.InitializeWith = o.InitializeWith
	}
	if o.NameAsSortOrder != "" {
		out.NameAsSortOrder = o.NameAsSortOrder
	}
	if o.SortSeparator != "" {
		out.SortSeparator = o.SortSeparator
	}
	return out
}

// GivenNameRule is the given-name disambiguation rule.
type GivenNameRule uint8

const (
	ByCite GivenNameRule = iota
	AllNames
	AllNamesWithInitials
	PrimaryName
	PrimaryNameWithInitials
)

// Collapse is the citation collapse mode.
type Collapse uint8

const (
	CollapseNone Collapse = iota
	CollapseCitationNumber
	CollapseYear
	CollapseYearSuffix
	CollapseYearSuffixRanged
)

// SecondFieldAlign is the bibliography second-field-align mode.
type SecondFieldAlign uint8

const (
	SecondFieldAlignNone SecondFieldAlign = iota
	SecondFieldAlignFlush
	SecondFieldAlignMargin
)

// SubstituteRule is the subsequent-author-substitute-rule.
type SubstituteRule uint8

const (
	CompleteAll SubstituteRule = iota
	CompleteEach
	PartialEach
	PartialFirst
)

// Sort is an ordered list of sort keys.
type Sort struct {
	Keys []SortKey
}

// SortKey derives one comparable value per item, from a variable or a
// rendered macro.
type SortKey struct {
	Variable  string
	Macro     string
	Direction Direction

	// Name overrides applied while rendering the key.
	NamesMin      int
	NamesUseFirst int
	NamesUseLast  *bool
}

// Direction is a sort key direction. Missing values are demoted to the
// end regardless of direction.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

// Formatting is the set of inline formatting attributes an element can
// carry.
type Formatting struct {
	FontStyle      string
	FontVariant    string
	FontWeight     string
	TextDecoration string
	VerticalAlign  string
}

// IsEmpty reports whether no attribute is set.
func (f Formatting) IsEmpty() bool {
	return f == Formatting{}
}

// Override overlays o on f.
func (f Formatting) Override(o Formatting) Formatting {
	out := f
	if o.FontStyle != "" {
		out.FontStyle = o.FontStyle
	}
	if o.FontVariant != "" {
		out.FontVariant = o.FontVariant
	}
	if o.FontWeight != "" {
		out.FontWeight = o.FontWeight
	}
	if o.TextDecoration != "" {
		out.TextDecoration = o.TextDecoration
	}
	if o.VerticalAlign != "" {
		out.VerticalAlign = o.VerticalAlign
	}
	return out
}

// Affixes are an element's prefix and suffix.
type Affixes struct {
	Prefix string
	Suffix string
}

// IsEmpty reports whether both affixes are empty.
func (a Affixes) IsEmpty() bool { return a.Prefix == "" && a.Suffix == "" }

// TextCase is a text-case transform name: "", "lowercase", "uppercase",
// "capitalize-first", "capitalize-all", "sentence", "title".
type TextCase string

// Display is a display mode: "", "block", "left-margin", "right-inline",
// "indent".
type Display string
