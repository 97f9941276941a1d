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

func buildNames(ctx *Context, e *csl.Names) IRPair {
	opts := ctx.NameOptions(e.Name)

	var parts []output.Build
	anyFound := false
	for _, variable := range e.Variables {
		names, ok := ctx.NamesVariable(variable)
		if !ok {
			continue
		}
		anyFound = true
		rendered := renderNameList(ctx, e, opts, names)
		if label := namesLabel(ctx, e, variable); label != nil {
			if e.LabelAfterName {
				rendered = append(rendered, label...)
			} else {
				rendered = append(label, rendered...)
			}
		}
		parts = append(parts, rendered)
	}

	if !anyFound {
		// Substitution: first substitute child that renders wins; the
		// substituted variable is suppressed for the rest of the cite.
		for _, sub := range e.Substitute {
			pair := buildElement(ctx, sub)
			if pair.GV == GVImportant || pair.GV == GVUnresolved {
				switch sn := sub.(type) {
				case *csl.Names:
					for _, v := range sn.Variables {
						ctx.Suppress(v)
					}
				case *csl.Text:
					if sn.Source == csl.SourceVariable {
						ctx.Suppress(sn.Variable)
					}
				case *csl.Date:
					ctx.Suppress(sn.Variable)
				}
				return wrapped(pair, e.Formatting, e.Affixes, false, "", e.Display)
			}
		}
		return IRPair{IR: &Rendered{}, GV: GVMissing}
	}

	delim := e.Delimiter
	if delim == "" {
		delim = "; "
	}
	joined := output.Join(parts, delim)
	if output.IsEmpty(joined) {
		return IRPair{IR: &Rendered{}, GV: GVMissing}
	}
	if opts.Form == "count" {
		// Count form renders the number of names instead of the names.
		total := 0
		for _, variable := range e.Variables {
			if names, ok := ctx.NamesVariable(variable); ok {
				total += countShown(ctx, opts, len(names))
			}
		}
		b := output.Text(zeroPad(total, ctx.SortMode))
		return leaf(ctx, EdgeOutput, b, e.Formatting, e.Affixes, false, GVImportant)
	}

	joined = ctx.Format.WithFormat(joined, e.Formatting)
	joined = ctx.Format.Affixed(joined, e.Affixes)

	nameDelim := opts.Delimiter
	if nameDelim == "" {
		nameDelim = ", "
	}
	var tokens []string
	for _, variable := range e.Variables {
		names, ok := ctx.NamesVariable(variable)
		if !ok {
			continue
		}
		shown := countShown(ctx, opts, len(names))
		for i := 0; i < shown; i++ {
			tokens = append(tokens, output.PlainText(renderName(ctx, e, opts, names[i], i)))
		}
	}

	id := ctx.names.Add(NameEntry{
		Build:     joined,
		Shown:     shownFor(ctx, opts),
		Tokens:    tokens,
		Delimiter: nameDelim,
	})
	block := &NameBlock{ID: id}
	pair := IRPair{IR: block, GV: GVImportant}
	if e.Display != "" {
		return wrapped(pair, csl.Formatting{}, csl.Affixes{}, false, "", e.Display)
	}
	return pair
}

func shownFor(ctx *Context, opts csl.NameOptions) int {
	// Recorded so disambiguation can tell whether an expansion step
	// actually changed the block.
	shown := opts.EtAlUseFirst
	if n := ctx.Disamb.AddNames; n > shown {
		shown = n
	}
	return shown
}

func namesLabel(ctx *Context, e *csl.Names, variable string) output.Build {
	if e.Label == nil {
		return nil
	}
	names, _ := ctx.NamesVariable(variable)
	plural := len(names) > 1
	term, ok := ctx.Locale.Term(variable, e.Label.Form, plural)
	if !ok || term == "" {
		return nil
	}
	b := ctx.Format.Ingest(term, output.IngestOptions{TextCase: e.Label.TextCase, NoParse: true})
	b = ctx.Format.WithFormat(b, e.Label.Formatting)
	return ctx.Format.Affixed(b, e.Label.Affixes)
}

// countShown returns how many names are displayed for a list of length
// total under the et-al settings.
func countShown(ctx *Context, opts csl.NameOptions, total int) int {
	etAlMin, useFirst := etAlSettings(ctx, opts)
	if etAlMin > 0 && total >= etAlMin && useFirst < total {
		return useFirst
	}
	return total
}

func etAlSettings(ctx *Context, opts csl.NameOptions) (etAlMin, useFirst int) {
	etAlMin = opts.EtAlMin
	useFirst = opts.EtAlUseFirst
	if !ctx.InBibliography && ctx.Position.Position != cite.First {
		if opts.EtAlSubsequentMin > 0 {
			etAlMin = opts.EtAlSubsequentMin
		}
		if opts.EtAlSubsequentUseFirst > 0 {
			useFirst = opts.EtAlSubsequentUseFirst
		}
	}
	if useFirst == 0 {
		useFirst = 1
	}
	// Disambiguation may force more names visible, one step at a time.
	if n := ctx.Disamb.AddNames; n > useFirst {
		useFirst = n
	}
	return etAlMin, useFirst
}

func renderNameList(ctx *Context, e *csl.Names, opts csl.NameOptions, names []cite.Name) output.Build {
	etAlMin, useFirst := etAlSettings(ctx, opts)
	truncated := etAlMin > 0 && len(names) >= etAlMin && useFirst < len(names)
	shown := len(names)
	if truncated {
		shown = useFirst
	}

	var rendered []output.Build
	for i := 0; i < shown; i++ {
		rendered = append(rendered, renderName(ctx, e, opts, names[i], i))
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = ", "
	}

	if truncated {
		useLast := opts.EtAlUseLast && len(names)-shown >= 2
		if ctx.SortMode {
			// Sort keys drop the et-al marker entirely.
			return output.Join(rendered, delim)
		}
		if useLast {
			// "…, Last" form.
			ellipsis := output.Text("… ")
			last := renderName(ctx, e, opts, names[len(names)-1], len(names)-1)
			joined := output.Join(rendered, delim)
			joined = append(joined, output.Text(delim)...)
			joined = append(joined, ellipsis...)
			joined = append(joined, last...)
			return joined
		}
		etAlTerm := "et-al"
		var etAlFormatting csl.Formatting
		if e.EtAl != nil {
			etAlTerm = e.EtAl.Term
			etAlFormatting = e.EtAl.Formatting
		}
		term, _ := ctx.Locale.Term(etAlTerm, "", false)
		if term == "" {
			term = "et al."
		}
		etAl := ctx.Format.WithFormat(output.Text(term), etAlFormatting)
		joined := output.Join(rendered, delim)
		sep := " "
		if delimiterBefore(opts.DelimiterPrecedesEtAl, shown) {
			sep = delim
		}
		joined = append(joined, output.Text(sep)...)
		joined = append(joined, etAl...)
		return joined
	}

	if len(rendered) > 1 {
		andTerm := ""
		switch opts.And {
		case "text":
			t, _ := ctx.Locale.Term("and", "", false)
			if t == "" {
				t = "and"
			}
			andTerm = t
		case "symbol":
			andTerm = "&"
		}
		if andTerm != "" && !ctx.SortMode {
			head := output.Join(rendered[:len(rendered)-1], delim)
			sep := " "
			if delimiterBefore(opts.DelimiterPrecedesLast, len(rendered)-1) {
				sep = delim
			}
			head = append(head, output.Text(sep+andTerm+" ")...)
			head = append(head, rendered[len(rendered)-1]...)
			return head
		}
	}
	return output.Join(rendered, delim)
}

// delimiterBefore decides whether the name delimiter appears before a
// terminal et-al or "and" per the contextual rule.
func delimiterBefore(rule string, precedingNames int) bool {
	switch rule {
	case "always":
		return true
	case "never":
		return false
	default: // contextual
		return precedingNames >= 2
	}
}

func renderName(ctx *Context, e *csl.Names, opts csl.NameOptions, n cite.Name, index int) output.Build {
	if !n.IsPerson() {
		return ctx.Format.Ingest(n.Literal, output.IngestOptions{})
	}

	form := opts.Form
	if form == "" {
		form = "long"
	}
	// Given-name disambiguation expands short names progressively.
	if ctx.Disamb.GivenNames > 0 && form == "short" {
		form = "long"
	}
	if ctx.SortMode {
		form = "long"
	}

	family := n.FamilyWithParticle()
	if form == "short" || form == "count" {
		return partFormatted(ctx, e, family, true)
	}

	given := n.Given
	initialize := opts.Initialize == nil || *opts.Initialize
	if opts.InitializeWith != "" && initialize && ctx.Disamb.GivenNames < 2 {
		given = initials(given, opts.InitializeWith)
	}

	sortOrder := opts.NameAsSortOrder == "all" ||
		(opts.NameAsSortOrder == "first" && index == 0) ||
		ctx.SortMode

	sep := opts.SortSeparator
	if sep == "" {
		sep = ", "
	}

	fam := partFormatted(ctx, e, withDroppingParticle(family, n, sortOrder, ctx), true)
	giv := partFormatted(ctx, e, given, false)

	var b output.Build
	if sortOrder {
		b = append(b, fam...)
		if given != "" {
			b = append(b, output.Text(sep)...)
			b = append(b, giv...)
		}
		// Particles left out of the family part follow the given name.
		if n.DroppingParticle != "" {
			b = append(b, output.Text(" "+n.DroppingParticle)...)
		}
		if withDroppingParticle(family, n, true, ctx) != family {
			b = append(b, output.Text(" "+n.NonDroppingParticle)...)
		}
		if n.Suffix != "" {
			b = append(b, output.Text(sep+n.Suffix)...)
		}
		return b
	}
	if given != "" {
		b = append(b, giv...)
		b = append(b, output.Text(" ")...)
	}
	b = append(b, fam...)
	if n.Suffix != "" {
		if n.CommaSuffix {
			b = append(b, output.Text(", "+n.Suffix)...)
		} else {
			b = append(b, output.Text(" "+n.Suffix)...)
		}
	}
	return b
}

// withDroppingParticle returns the family part of a name. In display
// order it folds the dropping particle in; in sort order it leaves the
// dropping particle out, and the non-dropping particle too when the
// style demotes it, and renderName places them after the given name.
func withDroppingParticle(family string, n cite.Name, sortOrder bool, ctx *Context) string {
	if !sortOrder {
		if n.DroppingParticle != "" {
			return n.DroppingParticle + " " + family
		}
		return family
	}
	demote := ctx.Style.DemoteNonDroppingParticle == "sort-only" ||
		ctx.Style.DemoteNonDroppingParticle == "display-and-sort"
	if demote && n.NonDroppingParticle != "" {
		// "Beethoven, Ludwig van" style: particle moves after the given
		// name.
		return n.Family
	}
	return family
}

// initials reduces a given name to initials joined by the style's
// initialize-with string.
func initials(given, with string) string {
	if given == "" {
		return ""
	}
	fields := strings.FieldsFunc(given, func(r rune) bool {
		return r == ' ' || r == '-'
	})
	var sb strings.Builder
	for _, f := range fields {
		r := []rune(f)
		if len(r) == 0 {
			continue
		}
		// Already-initialized pieces like "J." keep their letter.
		sb.WriteRune(r[0])
		sb.WriteString(strings.TrimRight(with, " "))
		if strings.HasSuffix(with, " ") {
			sb.WriteString(" ")
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// partFormatted renders one name part with its cs:name-part formatting.
func partFormatted(ctx *Context, e *csl.Names, text string, family bool) output.Build {
	if text == "" {
		return nil
	}
	var fmtg csl.Formatting
	if e != nil && e.Name != nil {
		if family {
			fmtg = e.Name.FamilyFormatting
		} else {
			fmtg = e.Name.GivenFormatting
		}
	}
	return ctx.Format.WithFormat(output.Text(text), fmtg)
}
