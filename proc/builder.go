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

	"github.com/cespare/xxhash/v2"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

// UnknownRefSentinel renders in place of a cite whose reference id is
// not in the library.
const UnknownRefSentinel = "???"

// BuildCite evaluates the citation layout against the context and
// returns the cite's IR generation.
func BuildCite(ctx *Context) *IrGen {
	layout := ctx.Style.Citation.Layout
	if ctx.InBibliography && ctx.Style.Bibliography != nil {
		layout = ctx.Style.Bibliography.Layout
	}

	var root IRPair
	if ctx.Ref == nil {
		root = IRPair{
			IR: &Rendered{Edge: EdgeOutput, Build: output.Text(UnknownRefSentinel)},
			GV: GVImportant,
		}
	} else {
		if ctx.Cite != nil && ctx.Cite.Mode == cite.ModeSuppressAuthor {
			ctx.Suppress(primaryNameVariable(ctx.Style))
		}
		root = buildElements(ctx, layout.Elements, "")
	}

	root = resolvePair(root)
	seq := &Seq{
		Contents:   []IRPair{root},
		Formatting: layout.Formatting,
		Delimiter:  layout.Delimiter,
		IsLayout:   true,
	}
	// Layout affixes apply per cluster, not per cite; the cluster
	// assembly adds them.
	gen := &IrGen{Root: IRPair{IR: seq, GV: root.GV}, Names: ctx.names}
	gen.Signature = xxhash.Sum64String(output.PlainText(Flatten(gen.Root, gen.Names, ctx.Format)))
	return gen
}

// primaryNameVariable is the variable suppressed by author-only and
// suppress-author modes.
func primaryNameVariable(style *csl.Style) string {
	var found string
	var walk func(els []csl.Element) bool
	walk = func(els []csl.Element) bool {
		for _, el := range els {
			switch e := el.(type) {
			case *csl.Names:
				found = e.Variables[0]
				return true
			case *csl.Group:
				if walk(e.Elements) {
					return true
				}
			case *csl.Choose:
				if walk(e.If.Elements) {
					return true
				}
				for _, b := range e.ElseIf {
					if walk(b.Elements) {
						return true
					}
				}
				if walk(e.Else) {
					return true
				}
			case *csl.Text:
				if e.Source == csl.SourceMacro {
					if m, ok := style.Macro(e.Macro); ok && walk(m) {
						return true
					}
				}
			}
		}
		return false
	}
	if walk(style.Citation.Layout.Elements) {
		return found
	}
	return "author"
}

// buildElements evaluates a child list into a sequence pair.
func buildElements(ctx *Context, els []csl.Element, delimiter string) IRPair {
	seq := &Seq{Delimiter: delimiter}
	gv := GVPlain
	for _, el := range els {
		pair := buildElement(ctx, el)
		seq.Contents = append(seq.Contents, pair)
		gv = gv.Neighbour(pair.GV)
	}
	return IRPair{IR: seq, GV: gv}
}

func buildElement(ctx *Context, el csl.Element) IRPair {
	switch e := el.(type) {
	case *csl.Text:
		return buildText(ctx, e)
	case *csl.Number:
		return buildNumber(ctx, e)
	case *csl.Label:
		return buildLabel(ctx, e)
	case *csl.Names:
		return buildNames(ctx, e)
	case *csl.Date:
		return buildDate(ctx, e)
	case *csl.Group:
		return buildGroup(ctx, e)
	case *csl.Choose:
		return buildChoose(ctx, e)
	}
	return IRPair{IR: &Rendered{}, GV: GVPlain}
}

func buildText(ctx *Context, e *csl.Text) IRPair {
	switch e.Source {
	case csl.SourceValue:
		b := ctx.Format.Ingest(e.Value, output.IngestOptions{TextCase: e.TextCase})
		return leaf(ctx, EdgeOutput, b, e.Formatting, e.Affixes, e.Quotes, GVPlain)

	case csl.SourceVariable:
		return buildTextVariable(ctx, e)

	case csl.SourceTerm:
		term, ok := ctx.Locale.Term(e.Term, e.TermForm, e.TermPlural)
		if !ok || term == "" {
			return IRPair{IR: &Rendered{Edge: EdgeTerm}, GV: GVPlain}
		}
		if e.StripPeriods {
			term = strings.ReplaceAll(term, ".", "")
		}
		b := ctx.Format.Ingest(term, output.IngestOptions{TextCase: e.TextCase, NoParse: true})
		return leaf(ctx, EdgeTerm, b, e.Formatting, e.Affixes, e.Quotes, GVPlain)

	case csl.SourceMacro:
		els, ok := ctx.Style.Macro(e.Macro)
		if !ok {
			return IRPair{IR: &Rendered{}, GV: GVPlain}
		}
		// Macro recursion in user styles is rejected at parse time; the
		// stack is kept so a slipped-through cycle fails loudly here.
		for _, m := range ctx.macroStack {
			if m == e.Macro {
				panic("proc: macro cycle at render time: " + e.Macro)
			}
		}
		ctx.macroStack = append(ctx.macroStack, e.Macro)
		ctx.pushFrame()
		pair := buildElements(ctx, els, "")
		ctx.popFrame()
		ctx.macroStack = ctx.macroStack[:len(ctx.macroStack)-1]
		return wrapped(pair, e.Formatting, e.Affixes, e.Quotes, e.TextCase, e.Display)
	}
	return IRPair{IR: &Rendered{}, GV: GVPlain}
}

func buildTextVariable(ctx *Context, e *csl.Text) IRPair {
	name := e.Variable

	if name == "year-suffix" {
		// Leave a hook for the year-suffix pass.
		if !ctx.Style.Citation.DisambiguateAddYearSuffix {
			return IRPair{IR: &Rendered{}, GV: GVPlain}
		}
		hook := &YearSuffixHook{Explicit: true, Suffix: ctx.Disamb.YearSuffix}
		if hook.Suffix > 0 {
			return IRPair{IR: hook, GV: GVImportant}
		}
		return IRPair{IR: hook, GV: GVUnresolved}
	}

	if cite.IsNumberVariable(name) {
		v, ok := ctx.NumberVariable(name)
		if !ok {
			return IRPair{IR: &Rendered{}, GV: GVMissing}
		}
		edge := EdgeOutput
		switch name {
		case "citation-number":
			edge = EdgeCitationNumber
		case "locator":
			edge = EdgeLocator
		}
		b := ctx.Format.Ingest(v.String(), output.IngestOptions{TextCase: e.TextCase, NoParse: true})
		return leaf(ctx, edge, b, e.Formatting, e.Affixes, e.Quotes, GVImportant)
	}

	short := e.VariableForm == "short"
	v, ok := ctx.Variable(variableOrShort(name, short))
	if !ok && short {
		v, ok = ctx.Variable(name)
	}
	if !ok {
		return IRPair{IR: &Rendered{}, GV: GVMissing}
	}
	if e.StripPeriods {
		v = strings.ReplaceAll(v, ".", "")
	}
	b := ctx.Format.Ingest(v, output.IngestOptions{TextCase: e.TextCase})
	if name == "URL" || name == "DOI" {
		url := v
		if name == "DOI" {
			url = "https://doi.org/" + v
		}
		b = ctx.Format.Hyperlinked(b, url)
	}
	return leaf(ctx, EdgeOutput, b, e.Formatting, e.Affixes, e.Quotes, GVImportant)
}

func variableOrShort(name string, short bool) string {
	if short {
		return name + "-short"
	}
	return name
}

func buildGroup(ctx *Context, e *csl.Group) IRPair {
	pair := buildElements(ctx, e.Elements, e.Delimiter)
	seq := pair.IR.(*Seq)
	seq.Formatting = e.Formatting
	seq.Affixes = e.Affixes
	seq.Display = e.Display
	seq.IsGroup = true

	if pair.GV == GVMissing {
		// The group read variables and found them all missing: the whole
		// group collapses and contributes nothing.
		return IRPair{IR: &Rendered{}, GV: GVPlain}
	}
	return IRPair{IR: seq, GV: pair.GV}
}

func buildChoose(ctx *Context, e *csl.Choose) IRPair {
	disamb := false
	if evalCondition(ctx, e.If.Cond) {
		disamb = e.If.Cond.Disambiguate != nil
		pair := buildElements(ctx, e.If.Elements, "")
		return IRPair{IR: &CondDisamb{Chosen: pair, Disamb: disamb}, GV: pair.GV}
	}
	for _, b := range e.ElseIf {
		if evalCondition(ctx, b.Cond) {
			disamb = b.Cond.Disambiguate != nil
			pair := buildElements(ctx, b.Elements, "")
			return IRPair{IR: &CondDisamb{Chosen: pair, Disamb: disamb}, GV: pair.GV}
		}
	}
	pair := buildElements(ctx, e.Else, "")
	return IRPair{IR: &CondDisamb{Chosen: pair}, GV: pair.GV}
}

// evalCondition evaluates a condition against the context's checker
// capability; the same evaluator serves cite-time and hypothetical
// disamb rendering.
func evalCondition(ctx *Context, c csl.Condition) bool {
	return EvalCondition(ctx, c)
}

// EvalCondition evaluates a style condition against any checker.
func EvalCondition(ck Checker, c csl.Condition) bool {
	var results []bool
	if c.Disambiguate != nil {
		results = append(results, ck.DisambiguateFlag() == *c.Disambiguate)
	}
	for _, v := range c.Variables {
		results = append(results, ck.HasVariable(v))
	}
	for _, t := range c.Types {
		results = append(results, ck.RefType() == t)
	}
	for _, v := range c.IsNumeric {
		results = append(results, ck.IsNumericVariable(v))
	}
	for _, p := range c.Positions {
		results = append(results, ck.CitePosition().MatchesTest(p))
	}
	for _, v := range c.IsUncertainDate {
		results = append(results, ck.DateIsUncertain(v))
	}
	for _, l := range c.Locators {
		results = append(results, ck.LocatorLabel() == l)
	}
	if len(results) == 0 {
		// An empty condition matches nothing under all/any, everything
		// under none.
		return c.Match == csl.MatchNone
	}
	switch c.Match {
	case csl.MatchAny:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case csl.MatchNone:
		for _, r := range results {
			if r {
				return false
			}
		}
		return true
	default:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	}
}

// leaf wraps a rendered build in formatting/affixes/quotes and returns
// the leaf pair.
func leaf(ctx *Context, edge EdgeKind, b output.Build, f csl.Formatting, a csl.Affixes, quotes bool, gv GroupVar) IRPair {
	if output.IsEmpty(b) {
		if gv == GVImportant {
			gv = GVMissing
		}
		return IRPair{IR: &Rendered{Edge: edge}, GV: gv}
	}
	b = ctx.Format.WithFormat(b, f)
	b = ctx.Format.AffixedQuoted(b, a, quotes)
	return IRPair{IR: &Rendered{Edge: edge, Build: b}, GV: gv}
}

// wrapped applies formatting/affixes/quotes around a subtree by
// wrapping it in a single-child sequence.
func wrapped(pair IRPair, f csl.Formatting, a csl.Affixes, quotes bool, tc csl.TextCase, d csl.Display) IRPair {
	if f.IsEmpty() && a.IsEmpty() && !quotes && tc == "" && d == "" {
		return pair
	}
	return IRPair{
		IR: &Seq{
			Contents:   []IRPair{pair},
			Formatting: f,
			Affixes:    a,
			Quotes:     quotes,
			TextCase:   tc,
			Display:    d,
		},
		GV: pair.GV,
	}
}
