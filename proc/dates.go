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
	"strings"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

func buildDate(ctx *Context, e *csl.Date) IRPair {
	d, ok := ctx.DateVariable(e.Variable)
	if !ok {
		return IRPair{IR: &Rendered{}, GV: GVMissing}
	}

	if ctx.SortMode {
		// Sort keys encode dates as marker tokens a single comparator
		// can parse.
		text := SortDateMarker(d.From)
		if d.IsRange() {
			text += SortDateMarker(*d.To)
		}
		return leaf(ctx, EdgeOutput, output.Text(text), csl.Formatting{}, csl.Affixes{}, false, GVImportant)
	}

	if d.Literal != "" {
		b := ctx.Format.Ingest(d.Literal, output.IngestOptions{TextCase: e.TextCase})
		return leaf(ctx, EdgeOutput, b, e.Formatting, e.Affixes, false, GVImportant)
	}

	parts := e.Parts
	delim := e.Delimiter
	if e.Form != "" {
		if localized, ok := ctx.Locale.Dates[e.Form]; ok {
			parts = filterDateParts(localized.Parts, e.PartsFilter)
			if delim == "" {
				delim = localized.Delimiter
			}
			parts = overrideDateParts(parts, e.Parts)
		}
	}
	if len(parts) == 0 {
		parts = []csl.DatePart{{Name: "year"}}
	}

	var contents []IRPair
	gv := GVMissing
	for _, p := range parts {
		tok := renderDatePart(ctx, p, d)
		if tok == "" {
			continue
		}
		edge := EdgeOutput
		if p.Name == "year" {
			edge = EdgeYear
		}
		b := ctx.Format.Ingest(tok, output.IngestOptions{NoParse: true})
		b = ctx.Format.WithFormat(b, p.Formatting)
		b = ctx.Format.Affixed(b, p.Affixes)
		contents = append(contents, IRPair{IR: &Rendered{Edge: edge, Build: b}, GV: GVImportant})
		gv = GVImportant

		if p.Name == "year" && wantsImplicitSuffix(ctx, e) {
			hook := &YearSuffixHook{Suffix: ctx.Disamb.YearSuffix}
			hgv := GVUnresolvedPlain
			if hook.Suffix > 0 {
				hgv = GVImportant
			}
			contents = append(contents, IRPair{IR: hook, GV: hgv})
			gv = gv.Neighbour(hgv)
		}
	}
	if len(contents) == 0 {
		return IRPair{IR: &Rendered{}, GV: GVMissing}
	}

	seq := &Seq{
		Contents:   contents,
		Formatting: e.Formatting,
		Affixes:    e.Affixes,
		Delimiter:  delim,
		TextCase:   e.TextCase,
		Display:    e.Display,
	}
	return IRPair{IR: seq, GV: gv}
}

// wantsImplicitSuffix reports whether a year-suffix hook rides after
// the year of the issued date. Explicit year-suffix variable references
// take precedence and are detected at parse level by styles that use
// them; implicit hooks are suppressed in sort mode.
func wantsImplicitSuffix(ctx *Context, e *csl.Date) bool {
	return e.Variable == "issued" &&
		ctx.Style.Citation.DisambiguateAddYearSuffix &&
		!ctx.SortMode
}

// renderDatePart renders one date part, handling ranges by joining the
// from/to values with the part's range delimiter.
func renderDatePart(ctx *Context, p csl.DatePart, d cite.DateOrRange) string {
	from := datePartValue(ctx, p, d.From)
	if !d.IsRange() {
		return from
	}
	to := datePartValue(ctx, p, *d.To)
	if from == to {
		return from
	}
	rd := p.RangeDelimiter
	if rd == "" {
		rd = "–"
	}
	if from == "" {
		return to
	}
	if to == "" {
		return from
	}
	return from + rd + to
}

func datePartValue(ctx *Context, p csl.DatePart, d cite.Date) string {
	switch p.Name {
	case "year":
		if d.Year == 0 {
			return ""
		}
		return itoa(d.Year)
	case "month":
		if d.Month == 0 {
			if d.Season != 0 {
				if s, ok := ctx.Locale.SeasonName(d.Season); ok {
					return s
				}
			}
			return ""
		}
		switch p.Form {
		case "numeric":
			return itoa(d.Month)
		case "numeric-leading-zeros":
			return leadingZero(d.Month)
		case "short":
			if m, ok := ctx.Locale.MonthName(d.Month, "short"); ok {
				return m
			}
			return itoa(d.Month)
		default:
			if m, ok := ctx.Locale.MonthName(d.Month, ""); ok {
				return m
			}
			return itoa(d.Month)
		}
	case "day":
		if d.Day == 0 {
			return ""
		}
		switch p.Form {
		case "numeric-leading-zeros":
			return leadingZero(d.Day)
		case "ordinal":
			if ctx.Locale.Options.LimitDayOrdinals && d.Day != 1 {
				return itoa(d.Day)
			}
			return ctx.Locale.Ordinal(d.Day)
		default:
			return itoa(d.Day)
		}
	}
	return ""
}

func leadingZero(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

// filterDateParts keeps the localized parts selected by a date-parts
// attribute.
func filterDateParts(parts []csl.DatePart, filter string) []csl.DatePart {
	if filter == "" || filter == "year-month-day" {
		return parts
	}
	keep := map[string]bool{"year": true}
	if filter == "year-month" {
		keep["month"] = true
	}
	var out []csl.DatePart
	for _, p := range parts {
		if keep[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

// overrideDateParts overlays a style's cs:date-part attributes onto the
// localized parts with matching names.
func overrideDateParts(localized, overrides []csl.DatePart) []csl.DatePart {
	if len(overrides) == 0 {
		return localized
	}
	out := make([]csl.DatePart, len(localized))
	copy(out, localized)
	for i, p := range out {
		for _, o := range overrides {
			if o.Name != p.Name {
				continue
			}
			if o.Form != "" {
				out[i].Form = o.Form
			}
			if o.RangeDelimiter != "" {
				out[i].RangeDelimiter = o.RangeDelimiter
			}
			if !o.Formatting.IsEmpty() {
				out[i].Formatting = o.Formatting
			}
			if !o.Affixes.IsEmpty() {
				out[i].Affixes = o.Affixes
			}
		}
	}
	return out
}

func buildNumber(ctx *Context, e *csl.Number) IRPair {
	v, ok := ctx.NumberVariable(e.Variable)
	if !ok {
		return IRPair{IR: &Rendered{}, GV: GVMissing}
	}
	if ctx.SortMode {
		if n, isInt := v.FirstInt(); isInt {
			return leaf(ctx, EdgeOutput, output.Text(SortNumMarker(n)), csl.Formatting{}, csl.Affixes{}, false, GVImportant)
		}
	}
	var text string
	if n, isInt := v.FirstInt(); isInt && v.IsNumeric() && !v.IsPlural() {
		switch e.Form {
		case "ordinal":
			text = ctx.Locale.Ordinal(n)
		case "long-ordinal":
			text = ctx.Locale.LongOrdinal(n)
		case "roman":
			text = roman(n)
		default:
			text = v.String()
		}
	} else {
		text = v.String()
	}
	edge := EdgeOutput
	if e.Variable == "citation-number" {
		edge = EdgeCitationNumber
	}
	b := ctx.Format.Ingest(text, output.IngestOptions{TextCase: e.TextCase, NoParse: true})
	return leaf(ctx, edge, b, e.Formatting, e.Affixes, false, GVImportant)
}

func roman(n int) string {
	if n <= 0 || n >= 4000 {
		return itoa(n)
	}
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"m", "cm", "d", "cd", "c", "xc", "l", "xl", "x", "ix", "v", "iv", "i"}
	var sb strings.Builder
	for i, v := range values {
		for n >= v {
			sb.WriteString(symbols[i])
			n -= v
		}
	}
	return sb.String()
}

func buildLabel(ctx *Context, e *csl.Label) IRPair {
	v, ok := ctx.NumberVariable(e.Variable)
	if !ok {
		return IRPair{IR: &Rendered{}, GV: GVPlain}
	}
	plural := false
	switch e.Plural {
	case "always":
		plural = true
	case "never":
		plural = false
	default:
		plural = v.IsPlural()
	}
	termName := e.Variable
	if e.Variable == "locator" {
		termName = ctx.LocatorLabel()
	}
	term, ok := ctx.Locale.Term(termName, e.Form, plural)
	if !ok || term == "" {
		return IRPair{IR: &Rendered{Edge: EdgeLocatorLabel}, GV: GVPlain}
	}
	if e.StripPeriods {
		term = strings.ReplaceAll(term, ".", "")
	}
	edge := EdgeLocatorLabel
	if e.Variable == "first-reference-note-number" {
		edge = EdgeFrnnLabel
	}
	b := ctx.Format.Ingest(term, output.IngestOptions{TextCase: e.TextCase, NoParse: true})
	return leaf(ctx, edge, b, e.Formatting, e.Affixes, false, GVPlain)
}
