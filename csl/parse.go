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

package csl

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/citation-style-language/citeproc-go/internal/similartext"
)

// xmlNode is a generic XML tree node; the style grammar is built by
// walking it rather than by struct tags, because element dispatch is
// heterogeneous.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) attrBool(name string, def bool) bool {
	switch n.attr(name) {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}

func (n *xmlNode) attrInt(name string) int {
	v, err := strconv.Atoi(n.attr(name))
	if err != nil {
		return 0
	}
	return v
}

func (n *xmlNode) children(name string) []*xmlNode {
	var out []*xmlNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

// ParseOptions tweaks style parsing.
type ParseOptions struct {
	// AllowNoInfo skips the metadata requirement, for test styles.
	AllowNoInfo bool
	// Features enables extension opt-ins regardless of the style text.
	Features map[string]bool
}

// Parse parses a full independent style document.
func Parse(text string) (*Style, error) {
	return ParseWithOptions(text, ParseOptions{AllowNoInfo: true})
}

// ParseWithOptions parses a style document with explicit options.
func ParseWithOptions(text string, opts ParseOptions) (*Style, error) {
	var root xmlNode
	if err := xml.Unmarshal([]byte(text), &root); err != nil {
		return nil, ErrStyleParse.New(err)
	}
	if root.XMLName.Local != "style" {
		return nil, ErrStyleParse.New("root element must be <style>")
	}

	s := &Style{
		Class:         root.attr("class"),
		Version:       root.attr("version"),
		DefaultLocale: root.attr("default-locale"),
		Macros:        make(map[string][]Element),
		Features:      make(map[string]bool),

		PageRangeFormat:           root.attr("page-range-format"),
		DemoteNonDroppingParticle: root.attr("demote-non-dropping-particle"),
		InitializeWithHyphen:      root.attrBool("initialize-with-hyphen", true),
	}
	for k, v := range opts.Features {
		s.Features[k] = v
	}
	if s.Class == "" {
		return nil, ErrStyleParse.New(`missing style class ("in-text" or "note")`)
	}

	if info := root.child("info"); info != nil {
		if t := info.child("title"); t != nil {
			s.Info.Title = strings.TrimSpace(t.Text)
		}
		if id := info.child("id"); id != nil {
			s.Info.ID = strings.TrimSpace(id.Text)
		}
	} else if !opts.AllowNoInfo {
		return nil, ErrStyleParse.New("missing <info>")
	}

	if feats := root.child("features"); feats != nil {
		for _, f := range feats.children("feature") {
			if name := f.attr("name"); name != "" {
				s.Features[name] = true
			}
		}
	}

	for _, m := range root.children("macro") {
		name := m.attr("name")
		if name == "" {
			return nil, ErrStyleParse.New("macro without a name")
		}
		els, err := parseElements(m.Nodes)
		if err != nil {
			return nil, err
		}
		s.Macros[name] = els
	}

	for _, l := range root.children("locale") {
		loc, err := parseLocaleNode(l)
		if err != nil {
			return nil, err
		}
		s.Locales = append(s.Locales, loc)
	}

	citation := root.child("citation")
	if citation == nil {
		return nil, ErrStyleParse.New("missing <citation>")
	}
	cit, err := parseCitation(citation)
	if err != nil {
		return nil, err
	}
	s.Citation = *cit

	if bib := root.child("bibliography"); bib != nil {
		b, err := parseBibliography(bib)
		if err != nil {
			return nil, err
		}
		s.Bibliography = b
	}

	if err := checkMacros(s); err != nil {
		return nil, err
	}
	return s, nil
}

func parseCitation(n *xmlNode) (*Citation, error) {
	c := &Citation{
		DisambiguateAddNames:      n.attrBool("disambiguate-add-names", false),
		DisambiguateAddGivenname:  n.attrBool("disambiguate-add-givenname", false),
		DisambiguateAddYearSuffix: n.attrBool("disambiguate-add-year-suffix", false),
		CiteGroupDelimiter:        n.attr("cite-group-delimiter"),
		YearSuffixDelimiter:       n.attr("year-suffix-delimiter"),
		AfterCollapseDelimiter:    n.attr("after-collapse-delimiter"),
		NearNoteDistance:          5,
		Name:                      parseNameOptions(n),
	}
	switch n.attr("givenname-disambiguation-rule") {
	case "all-names":
		c.GivennameDisambiguationRule = AllNames
	case "all-names-with-initials":
		c.GivennameDisambiguationRule = AllNamesWithInitials
	case "primary-name":
		c.GivennameDisambiguationRule = PrimaryName
	case "primary-name-with-initials":
		c.GivennameDisambiguationRule = PrimaryNameWithInitials
	default:
		c.GivennameDisambiguationRule = ByCite
	}
	switch n.attr("collapse") {
	case "citation-number":
		c.Collapse = CollapseCitationNumber
	case "year":
		c.Collapse = CollapseYear
	case "year-suffix":
		c.Collapse = CollapseYearSuffix
	case "year-suffix-ranged":
		c.Collapse = CollapseYearSuffixRanged
	}
	if d := n.attrInt("near-note-distance"); d > 0 {
		c.NearNoteDistance = uint32(d)
	}
	if srt := n.child("sort"); srt != nil {
		s, err := parseSort(srt)
		if err != nil {
			return nil, err
		}
		c.Sort = s
	}
	layout := n.child("layout")
	if layout == nil {
		return nil, ErrStyleParse.New("citation without <layout>")
	}
	l, err := parseLayout(layout)
	if err != nil {
		return nil, err
	}
	c.Layout = *l
	return c, nil
}

func parseBibliography(n *xmlNode) (*Bibliography, error) {
	b := &Bibliography{
		HangingIndent: n.attrBool("hanging-indent", false),
		LineSpacing:   1,
		EntrySpacing:  1,
		Name:          parseNameOptions(n),
	}
	if v := n.attrInt("line-spacing"); v > 0 {
		b.LineSpacing = v
	}
	if n.attr("entry-spacing") != "" {
		b.EntrySpacing = n.attrInt("entry-spacing")
	}
	switch n.attr("second-field-align") {
	case "flush":
		b.SecondFieldAlign = SecondFieldAlignFlush
	case "margin":
		b.SecondFieldAlign = SecondFieldAlignMargin
	}
	for _, a := range n.Attrs {
		if a.Name.Local == "subsequent-author-substitute" {
			b.SubsequentAuthorSubstitute = a.Value
			b.HasSubsequentAuthorSubstitute = true
		}
	}
	switch n.attr("subsequent-author-substitute-rule") {
	case "complete-each":
		b.SubsequentAuthorSubstituteRule = CompleteEach
	case "partial-each":
		b.SubsequentAuthorSubstituteRule = PartialEach
	case "partial-first":
		b.SubsequentAuthorSubstituteRule = PartialFirst
	default:
		b.SubsequentAuthorSubstituteRule = CompleteAll
	}
	if srt := n.child("sort"); srt != nil {
		s, err := parseSort(srt)
		if err != nil {
			return nil, err
		}
		b.Sort = s
	}
	layout := n.child("layout")
	if layout == nil {
		return nil, ErrStyleParse.New("bibliography without <layout>")
	}
	l, err := parseLayout(layout)
	if err != nil {
		return nil, err
	}
	b.Layout = *l
	return b, nil
}

func parseLayout(n *xmlNode) (*Layout, error) {
	els, err := parseElements(n.Nodes)
	if err != nil {
		return nil, err
	}
	return &Layout{
		Formatting: parseFormatting(n),
		Affixes:    parseAffixes(n),
		Delimiter:  n.attr("delimiter"),
		Elements:   els,
	}, nil
}

func parseSort(n *xmlNode) (*Sort, error) {
	s := &Sort{}
	for _, k := range n.children("key") {
		key := SortKey{
			Variable:      k.attr("variable"),
			Macro:         k.attr("macro"),
			NamesMin:      k.attrInt("names-min"),
			NamesUseFirst: k.attrInt("names-use-first"),
		}
		if k.attr("sort") == "descending" {
			key.Direction = Descending
		}
		if v := k.attr("names-use-last"); v != "" {
			b := v == "true"
			key.NamesUseLast = &b
		}
		if key.Variable == "" && key.Macro == "" {
			return nil, ErrStyleParse.New("sort key with neither variable nor macro")
		}
		s.Keys = append(s.Keys, key)
	}
	if len(s.Keys) == 0 {
		return nil, ErrStyleParse.New("<sort> without keys")
	}
	return s, nil
}

func parseElements(nodes []xmlNode) ([]Element, error) {
	var out []Element
	for i := range nodes {
		n := &nodes[i]
		el, err := parseElement(n)
		if err != nil {
			return nil, err
		}
		if el != nil {
			out = append(out, el)
		}
	}
	return out, nil
}

func parseElement(n *xmlNode) (Element, error) {
	switch n.XMLName.Local {
	case "text":
		return parseText(n)
	case "number":
		return &Number{
			Variable:   n.attr("variable"),
			Form:       defaultStr(n.attr("form"), "numeric"),
			Formatting: parseFormatting(n),
			Affixes:    parseAffixes(n),
			TextCase:   TextCase(n.attr("text-case")),
			Display:    Display(n.attr("display")),
		}, nil
	case "label":
		return parseLabel(n), nil
	case "names":
		return parseNames(n)
	case "date":
		return parseDate(n)
	case "group":
		els, err := parseElements(n.Nodes)
		if err != nil {
			return nil, err
		}
		return &Group{
			Delimiter:  n.attr("delimiter"),
			Formatting: parseFormatting(n),
			Affixes:    parseAffixes(n),
			Display:    Display(n.attr("display")),
			Elements:   els,
		}, nil
	case "choose":
		return parseChoose(n)
	}
	// Unknown elements are a structural violation.
	return nil, ErrStyleParse.New("unknown element <" + n.XMLName.Local + ">")
}

func parseText(n *xmlNode) (*Text, error) {
	t := &Text{
		Formatting:   parseFormatting(n),
		Affixes:      parseAffixes(n),
		Quotes:       n.attrBool("quotes", false),
		StripPeriods: n.attrBool("strip-periods", false),
		TextCase:     TextCase(n.attr("text-case")),
		Display:      Display(n.attr("display")),
	}
	switch {
	case n.attr("value") != "":
		t.Source = SourceValue
		t.Value = n.attr("value")
	case n.attr("variable") != "":
		t.Source = SourceVariable
		t.Variable = n.attr("variable")
		t.VariableForm = n.attr("form")
	case n.attr("term") != "":
		t.Source = SourceTerm
		t.Term = n.attr("term")
		t.TermForm = n.attr("form")
		t.TermPlural = n.attrBool("plural", false)
	case n.attr("macro") != "":
		t.Source = SourceMacro
		t.Macro = n.attr("macro")
	default:
		return nil, ErrStyleParse.New("<text> without value, variable, term or macro")
	}
	return t, nil
}

func parseLabel(n *xmlNode) *Label {
	return &Label{
		Variable:     n.attr("variable"),
		Form:         defaultStr(n.attr("form"), "long"),
		Plural:       defaultStr(n.attr("plural"), "contextual"),
		Formatting:   parseFormatting(n),
		Affixes:      parseAffixes(n),
		TextCase:     TextCase(n.attr("text-case")),
		StripPeriods: n.attrBool("strip-periods", false),
	}
}

func parseNames(n *xmlNode) (*Names, error) {
	ns := &Names{
		Variables:  strings.Fields(n.attr("variable")),
		Delimiter:  n.attr("delimiter"),
		Formatting: parseFormatting(n),
		Affixes:    parseAffixes(n),
		Display:    Display(n.attr("display")),
	}
	if len(ns.Variables) == 0 {
		return nil, ErrStyleParse.New("<names> without variable")
	}
	sawName := false
	for i := range n.Nodes {
		c := &n.Nodes[i]
		switch c.XMLName.Local {
		case "name":
			sawName = true
			ns.Name = &NameEl{
				Options:    parseNameOptions(c),
				Formatting: parseFormatting(c),
				Affixes:    parseAffixes(c),
			}
			for _, p := range c.children("name-part") {
				switch p.attr("name") {
				case "family":
					ns.Name.FamilyFormatting = parseFormatting(p)
				case "given":
					ns.Name.GivenFormatting = parseFormatting(p)
				}
			}
		case "et-al":
			ns.EtAl = &EtAl{
				Term:       defaultStr(c.attr("term"), "et-al"),
				Formatting: parseFormatting(c),
			}
		case "label":
			ns.Label = parseLabel(c)
			ns.LabelAfterName = sawName
		case "substitute":
			els, err := parseElements(c.Nodes)
			if err != nil {
				return nil, err
			}
			ns.Substitute = els
		}
	}
	return ns, nil
}

func parseDate(n *xmlNode) (*Date, error) {
	d := &Date{
		Variable:    n.attr("variable"),
		Form:        n.attr("form"),
		PartsFilter: defaultStr(n.attr("date-parts"), "year-month-day"),
		Delimiter:   n.attr("delimiter"),
		Formatting:  parseFormatting(n),
		Affixes:     parseAffixes(n),
		TextCase:    TextCase(n.attr("text-case")),
		Display:     Display(n.attr("display")),
	}
	if d.Variable == "" {
		return nil, ErrStyleParse.New("<date> without variable")
	}
	for _, p := range n.children("date-part") {
		d.Parts = append(d.Parts, DatePart{
			Name:           p.attr("name"),
			Form:           p.attr("form"),
			RangeDelimiter: p.attr("range-delimiter"),
			Formatting:     parseFormatting(p),
			Affixes:        parseAffixes(p),
			StripPeriods:   p.attrBool("strip-periods", false),
		})
	}
	return d, nil
}

func parseChoose(n *xmlNode) (*Choose, error) {
	ch := &Choose{}
	seenIf := false
	for i := range n.Nodes {
		c := &n.Nodes[i]
		els, err := parseElements(c.Nodes)
		if err != nil {
			return nil, err
		}
		switch c.XMLName.Local {
		case "if":
			if seenIf {
				return nil, ErrStyleParse.New("<choose> with more than one <if>")
			}
			seenIf = true
			ch.If = Branch{Cond: parseCondition(c), Elements: els}
		case "else-if":
			ch.ElseIf = append(ch.ElseIf, Branch{Cond: parseCondition(c), Elements: els})
		case "else":
			ch.Else = els
		default:
			return nil, ErrStyleParse.New("unexpected <" + c.XMLName.Local + "> in <choose>")
		}
	}
	if !seenIf {
		return nil, ErrStyleParse.New("<choose> without <if>")
	}
	return ch, nil
}

func parseCondition(n *xmlNode) Condition {
	c := Condition{
		Variables:       strings.Fields(n.attr("variable")),
		Types:           strings.Fields(n.attr("type")),
		IsNumeric:       strings.Fields(n.attr("is-numeric")),
		Positions:       strings.Fields(n.attr("position")),
		IsUncertainDate: strings.Fields(n.attr("is-uncertain-date")),
		Locators:        strings.Fields(n.attr("locator")),
	}
	switch n.attr("match") {
	case "any":
		c.Match = MatchAny
	case "none":
		c.Match = MatchNone
	default:
		c.Match = MatchAll
	}
	if v := n.attr("disambiguate"); v != "" {
		b := v == "true"
		c.Disambiguate = &b
	}
	return c
}

func parseNameOptions(n *xmlNode) NameOptions {
	o := NameOptions{
		And:                    n.attr("and"),
		Delimiter:              n.attr("name-delimiter"),
		DelimiterPrecedesEtAl:  n.attr("delimiter-precedes-et-al"),
		DelimiterPrecedesLast:  n.attr("delimiter-precedes-last"),
		EtAlMin:                n.attrInt("et-al-min"),
		EtAlUseFirst:           n.attrInt("et-al-use-first"),
		EtAlSubsequentMin:      n.attrInt("et-al-subsequent-min"),
		EtAlSubsequentUseFirst: n.attrInt("et-al-subsequent-use-first"),
		EtAlUseLast:            n.attrBool("et-al-use-last", false),
		Form:                   n.attr("name-form"),
		InitializeWith:         n.attr("initialize-with"),
		NameAsSortOrder:        n.attr("name-as-sort-order"),
		SortSeparator:          n.attr("sort-separator"),
	}
	// On cs:name itself the attributes are unprefixed.
	if n.XMLName.Local == "name" {
		if v := n.attr("delimiter"); v != "" {
			o.Delimiter = v
		}
		if v := n.attr("form"); v != "" {
			o.Form = v
		}
	}
	if v := n.attr("initialize"); v != "" {
		b := v == "true"
		o.Initialize = &b
	}
	return o
}

func parseFormatting(n *xmlNode) Formatting {
	return Formatting{
		FontStyle:      n.attr("font-style"),
		FontVariant:    n.attr("font-variant"),
		FontWeight:     n.attr("font-weight"),
		TextDecoration: n.attr("text-decoration"),
		VerticalAlign:  n.attr("vertical-align"),
	}
}

func parseAffixes(n *xmlNode) Affixes {
	return Affixes{Prefix: n.attr("prefix"), Suffix: n.attr("suffix")}
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// checkMacros verifies that every macro call resolves and that macros
// do not call each other in a cycle.
func checkMacros(s *Style) error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(s.Macros))

	var visit func(name string) error
	var walkEls func(els []Element) error

	walkEls = func(els []Element) error {
		for _, el := range els {
			switch e := el.(type) {
			case *Text:
				if e.Source == SourceMacro {
					if _, ok := s.Macros[e.Macro]; !ok {
						return ErrUnknownMacro.New(e.Macro, similartext.FindFromMap(s.Macros, e.Macro))
					}
					if err := visit(e.Macro); err != nil {
						return err
					}
				}
			case *Group:
				if err := walkEls(e.Elements); err != nil {
					return err
				}
			case *Names:
				if err := walkEls(e.Substitute); err != nil {
					return err
				}
			case *Choose:
				if err := walkEls(e.If.Elements); err != nil {
					return err
				}
				for _, b := range e.ElseIf {
					if err := walkEls(b.Elements); err != nil {
						return err
					}
				}
				if err := walkEls(e.Else); err != nil {
					return err
				}
			}
		}
		return nil
	}

	visit = func(name string) error {
		switch color[name] {
		case grey:
			return ErrMacroCycle.New(name)
		case black:
			return nil
		}
		color[name] = grey
		if err := walkEls(s.Macros[name]); err != nil {
			return err
		}
		color[name] = black
		return nil
	}

	if err := walkEls(s.Citation.Layout.Elements); err != nil {
		return err
	}
	if s.Citation.Sort != nil {
		for _, k := range s.Citation.Sort.Keys {
			if k.Macro != "" {
				if _, ok := s.Macros[k.Macro]; !ok {
					return ErrUnknownMacro.New(k.Macro, similartext.FindFromMap(s.Macros, k.Macro))
				}
				if err := visit(k.Macro); err != nil {
					return err
				}
			}
		}
	}
	if s.Bibliography != nil {
		if err := walkEls(s.Bibliography.Layout.Elements); err != nil {
			return err
		}
		if s.Bibliography.Sort != nil {
			for _, k := range s.Bibliography.Sort.Keys {
				if k.Macro != "" {
					if _, ok := s.Macros[k.Macro]; !ok {
						return ErrUnknownMacro.New(k.Macro, similartext.FindFromMap(s.Macros, k.Macro))
					}
					if err := visit(k.Macro); err != nil {
						return err
					}
				}
			}
		}
	}
	for name := range s.Macros {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
