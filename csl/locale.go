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
	"fmt"
	"strings"
)

// TermKey addresses one locale term by name and form.
type TermKey struct {
	Name string
	Form string // "", "short", "verb", "verb-short", "symbol"
}

// Term is one locale term's singular and plural renderings.
type Term struct {
	Single   string
	Multiple string
	Gender   string
}

// Get returns the plural-appropriate rendering.
func (t Term) Get(plural bool) string {
	if plural && t.Multiple != "" {
		return t.Multiple
	}
	return t.Single
}

// LocaleOptions are the cs:style-options of a locale.
type LocaleOptions struct {
	PunctuationInQuote bool
	LimitDayOrdinals   bool
}

// Locale is a merged set of terms, localized date formats and options
// for one language.
type Locale struct {
	Lang    string
	Terms   map[TermKey]Term
	Dates   map[string]*Date // "text" and "numeric" localized formats
	Options LocaleOptions
}

// NewLocale returns an empty locale for lang.
func NewLocale(lang string) *Locale {
	return &Locale{
		Lang:  lang,
		Terms: make(map[TermKey]Term),
		Dates: make(map[string]*Date),
	}
}

// ParseLocale parses a standalone locale document.
func ParseLocale(data []byte) (*Locale, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, ErrLocaleParse.New(err)
	}
	if root.XMLName.Local != "locale" {
		return nil, ErrLocaleParse.New("root element must be <locale>")
	}
	return parseLocaleNode(&root)
}

func parseLocaleNode(n *xmlNode) (*Locale, error) {
	l := NewLocale(n.attr("lang"))
	if terms := n.child("terms"); terms != nil {
		for _, t := range terms.children("term") {
			key := TermKey{Name: t.attr("name"), Form: t.attr("form")}
			if key.Name == "" {
				return nil, ErrLocaleParse.New("term without a name")
			}
			term := Term{Gender: t.attr("gender")}
			if single := t.child("single"); single != nil {
				term.Single = single.Text
				if multiple := t.child("multiple"); multiple != nil {
					term.Multiple = multiple.Text
				}
			} else {
				term.Single = t.Text
			}
			l.Terms[key] = term
		}
	}
	for _, d := range n.children("date") {
		form := d.attr("form")
		if form == "" {
			continue
		}
		date, err := parseDate(&xmlNode{
			XMLName: xml.Name{Local: "date"},
			Attrs:   append([]xml.Attr{{Name: xml.Name{Local: "variable"}, Value: "-"}}, d.Attrs...),
			Nodes:   d.Nodes,
		})
		if err != nil {
			return nil, err
		}
		date.Variable = ""
		l.Dates[form] = date
	}
	if opts := n.child("style-options"); opts != nil {
		l.Options.PunctuationInQuote = opts.attrBool("punctuation-in-quote", false)
		l.Options.LimitDayOrdinals = opts.attrBool("limit-day-ordinals-to-day-1", false)
	}
	return l, nil
}

// Merge overlays o's terms, dates and options onto l, in place. o wins
// for terms and dates; an option set in o switches it on in l, and an
// option unset in o leaves l's value as it is.
func (l *Locale) Merge(o *Locale) {
	if o == nil {
		return
	}
	for k, v := range o.Terms {
		l.Terms[k] = v
	}
	for k, v := range o.Dates {
		l.Dates[k] = v
	}
	if o.Options.PunctuationInQuote {
		l.Options.PunctuationInQuote = true
	}
	if o.Options.LimitDayOrdinals {
		l.Options.LimitDayOrdinals = true
	}
}

// Clone returns a deep-enough copy safe for further merging.
func (l *Locale) Clone() *Locale {
	out := NewLocale(l.Lang)
	out.Options = l.Options
	for k, v := range l.Terms {
		out.Terms[k] = v
	}
	for k, v := range l.Dates {
		out.Dates[k] = v
	}
	return out
}

// Term looks a term up with the standard form fallback chain:
// verb-short -> verb -> long; symbol -> short -> long.
func (l *Locale) Term(name, form string, plural bool) (string, bool) {
	for _, f := range formFallback(form) {
		if t, ok := l.Terms[TermKey{Name: name, Form: f}]; ok {
			return t.Get(plural), true
		}
	}
	return "", false
}

func formFallback(form string) []string {
	switch form {
	case "verb-short":
		return []string{"verb-short", "verb", ""}
	case "verb":
		return []string{"verb", ""}
	case "symbol":
		return []string{"symbol", "short", ""}
	case "short":
		return []string{"short", ""}
	case "", "long":
		return []string{""}
	}
	return []string{form, ""}
}

// Ordinal renders n with its ordinal suffix term ("1st", "2nd", ...).
func (l *Locale) Ordinal(n int) string {
	suffix := ""
	key := fmt.Sprintf("ordinal-%02d", mod100Ordinal(n))
	if t, ok := l.Terms[TermKey{Name: key}]; ok {
		suffix = t.Single
	} else if t, ok := l.Terms[TermKey{Name: "ordinal"}]; ok {
		suffix = t.Single
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func mod100Ordinal(n int) int {
	m := n % 100
	if m > 20 || m < 10 {
		m = m % 10
	}
	return m
}

// LongOrdinal renders n as a long ordinal term when available, falling
// back to the short ordinal.
func (l *Locale) LongOrdinal(n int) string {
	if n >= 1 && n <= 10 {
		if t, ok := l.Terms[TermKey{Name: fmt.Sprintf("long-ordinal-%02d", n)}]; ok {
			return t.Single
		}
	}
	return l.Ordinal(n)
}

// MonthName returns the localized month term.
func (l *Locale) MonthName(month int, form string) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	return l.Term(fmt.Sprintf("month-%02d", month), form, false)
}

// SeasonName returns the localized season term.
func (l *Locale) SeasonName(season int) (string, bool) {
	if season < 1 || season > 4 {
		return "", false
	}
	return l.Term(fmt.Sprintf("season-%02d", season), "", false)
}

// OpenQuote and friends return the locale's quotation marks.
func (l *Locale) OpenQuote() string  { return l.termOr("open-quote", "“") }
func (l *Locale) CloseQuote() string { return l.termOr("close-quote", "”") }
func (l *Locale) OpenInnerQuote() string {
	return l.termOr("open-inner-quote", "‘")
}
func (l *Locale) CloseInnerQuote() string {
	return l.termOr("close-inner-quote", "’")
}

func (l *Locale) termOr(name, def string) string {
	if t, ok := l.Terms[TermKey{Name: name}]; ok && t.Single != "" {
		return t.Single
	}
	return def
}

// FallbackChain returns the locale resolution order for a requested
// language tag: exact, language-only, then the bundled default.
func FallbackChain(lang string) []string {
	if lang == "" || lang == "en-US" {
		return []string{"en-US"}
	}
	chain := []string{lang}
	if i := strings.IndexByte(lang, '-'); i > 0 {
		chain = append(chain, lang[:i])
	}
	if lang != "en-US" {
		chain = append(chain, "en-US")
	}
	return chain
}
