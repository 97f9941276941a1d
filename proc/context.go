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

// DisambConfig is the refinement state a cite is rendered under. Each
// disambiguation generation tightens one field.
type DisambConfig struct {
	// AddNames raises the number of names shown before et-al
	// truncation; zero keeps the style's configuration.
	AddNames int
	// GivenNames expands given-name display: 0 style default, 1 adds
	// initials, 2 full given names.
	GivenNames int
	// CondBranches enables style-marked disambiguate branches.
	CondBranches bool
	// YearSuffix is the 1-based year-suffix ordinal; zero for none.
	YearSuffix uint32
}

// Context is the evaluation context of one cite (or one bibliography
// entry) against a style.
type Context struct {
	Style  *csl.Style
	Locale *csl.Locale
	Format *output.Format

	Ref  *cite.Reference
	Cite *cite.Cite

	Position   cite.CitePosition
	CiteNumber uint32 // 1-based citation-number of the reference

	InBibliography bool
	// SortMode renders plain text for sort keys: names forced to
	// sort order, et-al dropped, counts zero-padded.
	SortMode bool
	// SortKey is the key being rendered in sort mode.
	SortKey *csl.SortKey

	Disamb DisambConfig

	// names is the side table the builder allocates name blocks into.
	names *NameTable

	// suppressed is a stack of suppressed-variable frames; macro calls
	// push a boundary so suppression stays scoped.
	suppressed []map[string]bool
	macroStack []string
}

// NewContext returns a render context with an empty suppression stack.
func NewContext(style *csl.Style, locale *csl.Locale, format *output.Format, ref *cite.Reference, c *cite.Cite) *Context {
	return &Context{
		Style:      style,
		Locale:     locale,
		Format:     format,
		Ref:        ref,
		Cite:       c,
		names:      &NameTable{},
		suppressed: []map[string]bool{{}},
	}
}

// Suppress marks a variable as consumed for the remainder of the whole
// cite, implementing the author-substitution rule.
func (ctx *Context) Suppress(variable string) {
	ctx.suppressed[0][variable] = true
}

// SuppressScoped marks a variable as consumed for the current frame
// only; macro calls push a boundary.
func (ctx *Context) SuppressScoped(variable string) {
	ctx.suppressed[len(ctx.suppressed)-1][variable] = true
}

// IsSuppressed reports whether any active frame suppresses variable.
func (ctx *Context) IsSuppressed(variable string) bool {
	for _, frame := range ctx.suppressed {
		if frame[variable] {
			return true
		}
	}
	return false
}

func (ctx *Context) pushFrame() {
	ctx.suppressed = append(ctx.suppressed, map[string]bool{})
}

func (ctx *Context) popFrame() {
	ctx.suppressed = ctx.suppressed[:len(ctx.suppressed)-1]
}

// NameOptions resolves the inheritable name options for the active
// layout, overlaid with a cs:name element's own options.
func (ctx *Context) NameOptions(el *csl.NameEl) csl.NameOptions {
	base := csl.NameOptions{
		Delimiter:     ", ",
		SortSeparator: ", ",
		Form:          "long",
		EtAlUseFirst:  1,
	}
	if ctx.InBibliography && ctx.Style.Bibliography != nil {
		base = base.Merge(ctx.Style.Bibliography.Name)
	} else {
		base = base.Merge(ctx.Style.Citation.Name)
	}
	if el != nil {
		base = base.Merge(el.Options)
	}
	return base
}

// Variable returns an ordinary variable's value, honoring suppression.
func (ctx *Context) Variable(name string) (string, bool) {
	if ctx.IsSuppressed(name) || ctx.Ref == nil {
		return "", false
	}
	v, ok := ctx.Ref.Ordinary[name]
	return v, ok && v != ""
}

// NumberVariable returns a number variable's value, synthesizing the
// derived ones (locator, citation-number, first-reference-note-number,
// page-first).
func (ctx *Context) NumberVariable(name string) (cite.NumericValue, bool) {
	if ctx.IsSuppressed(name) {
		return cite.NumericValue{}, false
	}
	switch name {
	case "locator":
		if ctx.Cite != nil {
			if loc, ok := ctx.Cite.Locator(); ok {
				return loc.Value, true
			}
		}
		return cite.NumericValue{}, false
	case "citation-number":
		if ctx.CiteNumber > 0 {
			return cite.ParseNumeric(itoa(int(ctx.CiteNumber))), true
		}
		return cite.NumericValue{}, false
	case "first-reference-note-number":
		if ctx.Position.HasFirst {
			return cite.ParseNumeric(itoa(int(ctx.Position.FirstNote))), true
		}
		return cite.NumericValue{}, false
	case "page-first":
		if ctx.Ref != nil {
			if v, ok := ctx.Ref.Number["page"]; ok {
				if first, ok := v.FirstInt(); ok {
					return cite.ParseNumeric(itoa(first)), true
				}
			}
		}
		return cite.NumericValue{}, false
	}
	if ctx.Ref == nil {
		return cite.NumericValue{}, false
	}
	v, ok := ctx.Ref.Number[name]
	return v, ok && v.Raw != ""
}

// NamesVariable returns a name variable's value, honoring suppression.
func (ctx *Context) NamesVariable(name string) ([]cite.Name, bool) {
	if ctx.IsSuppressed(name) || ctx.Ref == nil {
		return nil, false
	}
	ns, ok := ctx.Ref.Names[name]
	return ns, ok && len(ns) > 0
}

// DateVariable returns a date variable's value, honoring suppression.
func (ctx *Context) DateVariable(name string) (cite.DateOrRange, bool) {
	if ctx.IsSuppressed(name) || ctx.Ref == nil {
		return cite.DateOrRange{}, false
	}
	d, ok := ctx.Ref.Dates[name]
	return d, ok
}

// HasVariable implements the condition checker's presence test across
// all variable classes.
func (ctx *Context) HasVariable(name string) bool {
	switch name {
	case "locator":
		return ctx.Cite != nil && ctx.Cite.HasLocator()
	case "citation-number":
		return ctx.CiteNumber > 0
	case "first-reference-note-number":
		return ctx.Position.HasFirst
	case "year-suffix":
		return ctx.Disamb.YearSuffix > 0
	}
	if ctx.IsSuppressed(name) {
		return false
	}
	return ctx.Ref.Has(name)
}

// Checker is the capability the condition evaluator renders against; it
// is satisfied by both cite-time and hypothetical disamb contexts.
type Checker interface {
	HasVariable(name string) bool
	IsNumericVariable(name string) bool
	RefType() string
	CitePosition() cite.Position
	LocatorLabel() string
	DateIsUncertain(variable string) bool
	DisambiguateFlag() bool
}

func (ctx *Context) IsNumericVariable(name string) bool {
	v, ok := ctx.NumberVariable(name)
	return ok && v.IsNumeric()
}

func (ctx *Context) RefType() string {
	if ctx.Ref == nil {
		return ""
	}
	return ctx.Ref.Type
}

func (ctx *Context) CitePosition() cite.Position {
	if ctx.InBibliography {
		return cite.First
	}
	return ctx.Position.Position
}

func (ctx *Context) LocatorLabel() string {
	if ctx.Cite == nil {
		return ""
	}
	if loc, ok := ctx.Cite.Locator(); ok {
		if loc.Label == "" {
			return "page"
		}
		return loc.Label
	}
	return ""
}

func (ctx *Context) DateIsUncertain(variable string) bool {
	d, ok := ctx.DateVariable(variable)
	return ok && d.Uncertain()
}

func (ctx *Context) DisambiguateFlag() bool {
	return ctx.Disamb.CondBranches
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
